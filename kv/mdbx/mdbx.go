// Package mdbx implements kv.RwDB over github.com/erigontech/mdbx-go. This
// is the default storage backend.
package mdbx

import (
	"context"
	"fmt"

	mdbxgo "github.com/erigontech/mdbx-go/mdbx"
	"github.com/gofrs/flock"

	"github.com/starknet-sequencer/sequencer/internal/logging"
	"github.com/starknet-sequencer/sequencer/kv"
	"github.com/starknet-sequencer/sequencer/kv/tables"
)

var log = logging.New("kv-mdbx")

// DB wraps an MDBX environment opened over the table set in kv/tables.
type DB struct {
	env *mdbxgo.Env
	dbis map[string]mdbxgo.DBI
	flock *flock.Flock
	path string
}

// Open creates or opens an MDBX environment at path, registering every
// table in tables.ChaindataTables with the flags from
// tables.ChaindataTablesCfg. A flock guards the datadir against a second
// process opening the same environment.
func Open(path string, maxTables int) (*DB, error) {
	fl := flock.New(path + "/LOCK")
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("mdbx: acquire datadir lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("mdbx: datadir %s is locked by another process", path)
	}

	env, err := mdbxgo.NewEnv()
	if err != nil {
		_ = fl.Unlock()
		return nil, err
	}
	if err := env.SetOption(mdbxgo.OptMaxDB, uint64(maxTables)); err != nil {
		_ = fl.Unlock()
		return nil, err
	}
	if err := env.Open(path, mdbxgo.NoSubdir|mdbxgo.Coalesce|mdbxgo.LifoReclaim, 0664); err != nil {
		_ = fl.Unlock()
		return nil, fmt.Errorf("mdbx: open %s: %w", path, err)
	}

	db := &DB{env: env, dbis: make(map[string]mdbxgo.DBI), flock: fl, path: path}
	if err := db.createTables(); err != nil {
		_ = env.Close()
		_ = fl.Unlock()
		return nil, err
	}
	log.Info("opened mdbx environment", "path", path, "tables", len(tables.ChaindataTables))
	return db, nil
}

func (db *DB) createTables() error {
	return db.env.Update(func(txn *mdbxgo.Txn) error {
		for _, name := range tables.ChaindataTables {
			flags := uint(mdbxgo.Create)
			if tables.IsDupSort(name) {
				flags |= uint(mdbxgo.DupSort)
			}
			dbi, err := txn.OpenDBI(name, flags, nil, nil)
			if err != nil {
				return fmt.Errorf("mdbx: open table %s: %w", name, err)
			}
			db.dbis[name] = dbi
		}
		return nil
	})
}

func (db *DB) dbi(table string) (mdbxgo.DBI, error) {
	d, ok := db.dbis[table]
	if !ok {
		return 0, kv.ErrTableNotFound
	}
	return d, nil
}

func (db *DB) Close() error {
	db.env.Close()
	return db.flock.Unlock()
}

func (db *DB) View(ctx context.Context, f func(kv.Tx) error) error {
	tx, err := db.BeginRo(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	return f(tx)
}

func (db *DB) Update(ctx context.Context, f func(kv.RwTx) error) error {
	tx, err := db.BeginRw(ctx)
	if err != nil {
		return err
	}
	if err := f(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func (db *DB) BeginRo(ctx context.Context) (kv.Tx, error) {
	txn, err := db.env.BeginTxn(nil, mdbxgo.Readonly)
	if err != nil {
		return nil, err
	}
	return &tx{db: db, txn: txn, ro: true}, nil
}

func (db *DB) BeginRw(ctx context.Context) (kv.RwTx, error) {
	txn, err := db.env.BeginTxn(nil, 0)
	if err != nil {
		return nil, err
	}
	return &tx{db: db, txn: txn}, nil
}

type tx struct {
	db *DB
	txn *mdbxgo.Txn
	ro bool
	closed bool
}

func (t *tx) GetOne(table string, key []byte) ([]byte, error) {
	dbi, err := t.db.dbi(table)
	if err != nil {
		return nil, err
	}
	v, err := t.txn.Get(dbi, key)
	if mdbxgo.IsNotFound(err) {
		return nil, nil
	}
	return v, err
}

func (t *tx) Has(table string, key []byte) (bool, error) {
	v, err := t.GetOne(table, key)
	return v != nil, err
}

func (t *tx) Cursor(table string) (kv.Cursor, error) { return t.cursor(table) }
func (t *tx) CursorDupSort(table string) (kv.CursorDupSort, error) {
	c, err := t.cursor(table)
	if err != nil {
		return nil, err
	}
	if !tables.IsDupSort(table) {
		return nil, kv.ErrNotDupSort
	}
	return c, nil
}

func (t *tx) cursor(table string) (*cursor, error) {
	dbi, err := t.db.dbi(table)
	if err != nil {
		return nil, err
	}
	c, err := t.txn.OpenCursor(dbi)
	if err != nil {
		return nil, err
	}
	return &cursor{c: c}, nil
}

func (t *tx) Put(table string, key, value []byte) error {
	dbi, err := t.db.dbi(table)
	if err != nil {
		return err
	}
	return t.txn.Put(dbi, key, value, 0)
}

func (t *tx) Delete(table string, key []byte) error {
	dbi, err := t.db.dbi(table)
	if err != nil {
		return err
	}
	err = t.txn.Del(dbi, key, nil)
	if mdbxgo.IsNotFound(err) {
		return nil
	}
	return err
}

func (t *tx) ClearTable(table string) error {
	dbi, err := t.db.dbi(table)
	if err != nil {
		return err
	}
	return t.txn.Drop(dbi, false)
}

func (t *tx) RwCursor(table string) (kv.RwCursor, error) { return t.cursor(table) }
func (t *tx) RwCursorDupSort(table string) (kv.RwCursorDupSort, error) {
	c, err := t.cursor(table)
	if err != nil {
		return nil, err
	}
	if !tables.IsDupSort(table) {
		return nil, kv.ErrNotDupSort
	}
	return c, nil
}

func (t *tx) Commit() error {
	if t.closed {
		return kv.ErrTxClosed
	}
	t.closed = true
	_, err := t.txn.Commit()
	return err
}

func (t *tx) Rollback() {
	if t.closed {
		return
	}
	t.closed = true
	t.txn.Abort()
}

// cursor adapts mdbxgo.Cursor to the kv.Cursor/RwCursorDupSort surface.
type cursor struct {
	c *mdbxgo.Cursor
}

func (c *cursor) First() ([]byte, []byte, error) { return c.get(mdbxgo.First) }
func (c *cursor) Next() ([]byte, []byte, error) { return c.get(mdbxgo.Next) }
func (c *cursor) Last() ([]byte, []byte, error) { return c.get(mdbxgo.Last) }
func (c *cursor) Seek(seek []byte) ([]byte, []byte, error) {
	k, v, err := c.c.Get(seek, nil, mdbxgo.SetRange)
	if mdbxgo.IsNotFound(err) {
		return nil, nil, nil
	}
	return k, v, err
}
func (c *cursor) Close() { c.c.Close() }

func (c *cursor) get(op mdbxgo.CursorOp) ([]byte, []byte, error) {
	k, v, err := c.c.Get(nil, nil, op)
	if mdbxgo.IsNotFound(err) {
		return nil, nil, nil
	}
	return k, v, err
}

func (c *cursor) Put(k, v []byte) error { return c.c.Put(k, v, 0) }
func (c *cursor) Delete(k []byte) error {
	if _, _, err := c.c.Get(k, nil, mdbxgo.Set); err != nil {
		if mdbxgo.IsNotFound(err) {
			return nil
		}
		return err
	}
	return c.c.Del(0)
}
func (c *cursor) DeleteCurrent() error { return c.c.Del(0) }

func (c *cursor) SeekBothRange(key, value []byte) ([]byte, error) {
	_, v, err := c.c.Get(key, value, mdbxgo.GetBothRange)
	if mdbxgo.IsNotFound(err) {
		return nil, nil
	}
	return v, err
}
func (c *cursor) FirstDup() ([]byte, error) {
	_, v, err := c.c.Get(nil, nil, mdbxgo.FirstDup)
	if mdbxgo.IsNotFound(err) {
		return nil, nil
	}
	return v, err
}
func (c *cursor) NextDup() ([]byte, []byte, error) { return c.get(mdbxgo.NextDup) }
func (c *cursor) LastDup() ([]byte, error) {
	_, v, err := c.c.Get(nil, nil, mdbxgo.LastDup)
	if mdbxgo.IsNotFound(err) {
		return nil, nil
	}
	return v, err
}
func (c *cursor) CountDuplicates() (uint64, error) {
	n, err := c.c.Count()
	return n, err
}
func (c *cursor) PutNoDupData(k, v []byte) error { return c.c.Put(k, v, mdbxgo.NoDupData) }
func (c *cursor) DeleteCurrentDuplicates() error { return c.c.Del(mdbxgo.AllDups) }
func (c *cursor) AppendDup(k, v []byte) error { return c.c.Put(k, v, mdbxgo.AppendDup) }

var _ kv.RwDB = (*DB)(nil)
