// Package bbolt implements kv.RwDB over go.etcd.io/bbolt, a pure-Go ordered
// embedded store. It is the cgo-free fallback backend used by unit tests
// and any build without MDBX available.
//
// bbolt has no native "one key, sorted sequence of sub-values" feature.
// DupSort tables are emulated by folding the sub-key into the physical key:
// the physical key becomes key-prefix + sub-key (DupToLen/DupFromLen from
// kv/tables.CfgItem), so a prefix scan over the bucket reproduces
// cursor_dup's walk order.
package bbolt

import (
	"bytes"
	"context"
	"fmt"

	bolt "go.etcd.io/bbolt"

	"github.com/starknet-sequencer/sequencer/kv"
	"github.com/starknet-sequencer/sequencer/kv/tables"
)

type DB struct {
	bdb *bolt.DB
}

// Open creates or opens a bbolt file at path, creating one bucket per
// registered table.
func Open(path string) (*DB, error) {
	bdb, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("bbolt: open %s: %w", path, err)
	}
	err = bdb.Update(func(btx *bolt.Tx) error {
		for _, name := range tables.ChaindataTables {
			if _, err := btx.CreateBucketIfNotExists([]byte(name)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		_ = bdb.Close()
		return nil, err
	}
	return &DB{bdb: bdb}, nil
}

func (db *DB) Close() error { return db.bdb.Close() }

func (db *DB) View(ctx context.Context, f func(kv.Tx) error) error {
	return db.bdb.View(func(btx *bolt.Tx) error { return f(&tx{btx: btx}) })
}

func (db *DB) Update(ctx context.Context, f func(kv.RwTx) error) error {
	return db.bdb.Update(func(btx *bolt.Tx) error { return f(&tx{btx: btx, rw: true}) })
}

func (db *DB) BeginRo(ctx context.Context) (kv.Tx, error) {
	btx, err := db.bdb.Begin(false)
	if err != nil {
		return nil, err
	}
	return &tx{btx: btx}, nil
}

func (db *DB) BeginRw(ctx context.Context) (kv.RwTx, error) {
	btx, err := db.bdb.Begin(true)
	if err != nil {
		return nil, err
	}
	return &tx{btx: btx, rw: true}, nil
}

type tx struct {
	btx *bolt.Tx
	rw  bool
}

func (t *tx) bucket(table string) (*bolt.Bucket, error) {
	b := t.btx.Bucket([]byte(table))
	if b == nil {
		return nil, kv.ErrTableNotFound
	}
	return b, nil
}

func (t *tx) GetOne(table string, key []byte) ([]byte, error) {
	b, err := t.bucket(table)
	if err != nil {
		return nil, err
	}
	v := b.Get(key)
	if v == nil {
		return nil, nil
	}
	out := make([]byte, len(v))
	copy(out, v)
	return out, nil
}

func (t *tx) Has(table string, key []byte) (bool, error) {
	v, err := t.GetOne(table, key)
	return v != nil, err
}

func (t *tx) Cursor(table string) (kv.Cursor, error) {
	b, err := t.bucket(table)
	if err != nil {
		return nil, err
	}
	return &cursor{b: b, c: b.Cursor()}, nil
}

func (t *tx) CursorDupSort(table string) (kv.CursorDupSort, error) {
	if !tables.IsDupSort(table) {
		return nil, kv.ErrNotDupSort
	}
	b, err := t.bucket(table)
	if err != nil {
		return nil, err
	}
	cfg := tables.ChaindataTablesCfg[table]
	subLen := cfg.DupFromLen - cfg.DupToLen
	if subLen < 0 {
		subLen = 0
	}
	return &cursor{b: b, c: b.Cursor(), dupToLen: cfg.DupToLen, subLen: subLen}, nil
}

func (t *tx) Put(table string, key, value []byte) error {
	b, err := t.bucket(table)
	if err != nil {
		return err
	}
	return b.Put(key, value)
}

func (t *tx) Delete(table string, key []byte) error {
	b, err := t.bucket(table)
	if err != nil {
		return err
	}
	return b.Delete(key)
}

func (t *tx) ClearTable(table string) error {
	if err := t.btx.DeleteBucket([]byte(table)); err != nil {
		return err
	}
	_, err := t.btx.CreateBucket([]byte(table))
	return err
}

func (t *tx) RwCursor(table string) (kv.RwCursor, error) {
	c, err := t.Cursor(table)
	if err != nil {
		return nil, err
	}
	return c.(*cursor), nil
}

func (t *tx) RwCursorDupSort(table string) (kv.RwCursorDupSort, error) {
	c, err := t.CursorDupSort(table)
	if err != nil {
		return nil, err
	}
	return c.(*cursor), nil
}

func (t *tx) Commit() error {
	if !t.rw {
		return t.btx.Rollback()
	}
	return t.btx.Commit()
}

func (t *tx) Rollback() { _ = t.btx.Rollback() }

// cursor emulates both plain and dup-sort cursors over a bbolt bucket.
// For dup-sort tables, dupToLen is the length of the logical key prefix;
// the physical key is prefix+subkey, and NextDup/LastDup/CountDuplicates
// scan while the physical key shares that prefix. subLen is how many
// leading bytes of a PutNoDupData/AppendDup value form that subkey
// (DupFromLen-DupToLen): without folding it into the physical key, two
// writes under the same logical key (e.g. two entities changing in the
// same block) would silently overwrite each other instead of coexisting
// as two duplicates.
type cursor struct {
	b        *bolt.Bucket
	c        *bolt.Cursor
	dupToLen int
	subLen   int
	curKey   []byte
}

func (c *cursor) First() ([]byte, []byte, error) {
	k, v := c.c.First()
	c.curKey = k
	return c.logicalPrefix(k), v, nil
}

// Next (and First/Last/Seek below) return the logical key truncated to
// dupToLen for a dup-sorted table, matching MDBX's own cursor_get(NEXT)
// contract: the key stays constant across a run of duplicates and only
// changes once the next logical key's first duplicate is reached. The
// untruncated physical key (prefix+subkey) is kept in curKey for
// FirstDup/NextDup/DeleteCurrentDuplicates, which need the full subkey to
// re-seek or bound their prefix scan.
func (c *cursor) Next() ([]byte, []byte, error) {
	k, v := c.c.Next()
	c.curKey = k
	return c.logicalPrefix(k), v, nil
}
func (c *cursor) Last() ([]byte, []byte, error) {
	k, v := c.c.Last()
	c.curKey = k
	return c.logicalPrefix(k), v, nil
}
func (c *cursor) Seek(seek []byte) ([]byte, []byte, error) {
	k, v := c.c.Seek(seek)
	c.curKey = k
	return c.logicalPrefix(k), v, nil
}
func (c *cursor) Close() {}

func (c *cursor) Put(k, v []byte) error { c.curKey = k; return c.b.Put(k, v) }
func (c *cursor) Delete(k []byte) error { return c.b.Delete(k) }
func (c *cursor) DeleteCurrent() error {
	if c.curKey == nil {
		return nil
	}
	return c.b.Delete(c.curKey)
}

func (c *cursor) logicalPrefix(key []byte) []byte {
	if c.dupToLen == 0 || len(key) <= c.dupToLen {
		return key
	}
	return key[:c.dupToLen]
}

func (c *cursor) SeekBothRange(key, value []byte) ([]byte, error) {
	physical := append(append([]byte{}, key...), value...)
	k, v := c.c.Seek(physical)
	if k == nil || !bytes.HasPrefix(k, key) {
		return nil, nil
	}
	c.curKey = k
	return v, nil
}

func (c *cursor) FirstDup() ([]byte, error) {
	if c.curKey == nil {
		return nil, nil
	}
	prefix := c.logicalPrefix(c.curKey)
	k, v := c.c.Seek(prefix)
	if k == nil || !bytes.HasPrefix(k, prefix) {
		return nil, nil
	}
	c.curKey = k
	return v, nil
}

func (c *cursor) NextDup() ([]byte, []byte, error) {
	if c.curKey == nil {
		return nil, nil, nil
	}
	prefix := c.logicalPrefix(c.curKey)
	k, v := c.c.Next()
	if k == nil || !bytes.HasPrefix(k, prefix) {
		c.curKey = k
		return nil, nil, nil
	}
	c.curKey = k
	return c.logicalPrefix(k), v, nil
}

func (c *cursor) LastDup() ([]byte, error) {
	if c.curKey == nil {
		return nil, nil
	}
	prefix := c.logicalPrefix(c.curKey)
	var lastV []byte
	for k, v := c.c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, v = c.c.Next() {
		lastV = v
		c.curKey = k
	}
	return lastV, nil
}

func (c *cursor) CountDuplicates() (uint64, error) {
	if c.curKey == nil {
		return 0, nil
	}
	prefix := c.logicalPrefix(c.curKey)
	var n uint64
	for k, _ := c.c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = c.c.Next() {
		n++
	}
	return n, nil
}

func (c *cursor) physicalDupKey(k, v []byte) []byte {
	if c.subLen == 0 || len(v) < c.subLen {
		return k
	}
	physical := make([]byte, 0, len(k)+c.subLen)
	physical = append(physical, k...)
	physical = append(physical, v[:c.subLen]...)
	return physical
}

func (c *cursor) PutNoDupData(k, v []byte) error {
	physical := c.physicalDupKey(k, v)
	c.curKey = physical
	return c.b.Put(physical, v)
}

func (c *cursor) DeleteCurrentDuplicates() error {
	if c.curKey == nil {
		return nil
	}
	prefix := c.logicalPrefix(c.curKey)
	var toDelete [][]byte
	for k, _ := c.c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = c.c.Next() {
		toDelete = append(toDelete, append([]byte{}, k...))
	}
	for _, k := range toDelete {
		if err := c.b.Delete(k); err != nil {
			return err
		}
	}
	return nil
}

func (c *cursor) AppendDup(k, v []byte) error { return c.PutNoDupData(k, v) }

var _ kv.RwDB = (*DB)(nil)
