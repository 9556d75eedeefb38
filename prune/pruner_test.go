package prune

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/starknet-sequencer/sequencer/kv"
	"github.com/starknet-sequencer/sequencer/kv/blocklist"
	"github.com/starknet-sequencer/sequencer/kv/bbolt"
	"github.com/starknet-sequencer/sequencer/kv/tables"
)

func openTestDB(t *testing.T) kv.RwDB {
	t.Helper()
	db, err := bbolt.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func seedHeader(t *testing.T, db kv.RwDB, block uint64) {
	t.Helper()
	require.NoError(t, db.Update(context.Background(), func(tx kv.RwTx) error {
		return tx.Put(tables.Headers, tables.EncodeUint64(block), []byte("header"))
	}))
}

func seedChangeSet(t *testing.T, db kv.RwDB, table string, entityKey []byte, blocks ...uint64) {
	t.Helper()
	bl := blocklist.FromBlocks(blocks...)
	require.NoError(t, db.Update(context.Background(), func(tx kv.RwTx) error {
		return tx.Put(table, entityKey, bl.Encode())
	}))
}

func seedHistory(t *testing.T, db kv.RwDB, table string, block uint64, entityKey, payload []byte) {
	t.Helper()
	require.NoError(t, db.Update(context.Background(), func(tx kv.RwTx) error {
		c, err := tx.RwCursorDupSort(table)
		if err != nil {
			return err
		}
		defer c.Close()
		return c.PutNoDupData(tables.EncodeUint64(block), tables.ConcatKeys(entityKey, payload))
	}))
}

func TestPrunerKeepLastNTrimsOldHistory(t *testing.T) {
	db := openTestDB(t)
	seedHeader(t, db, 20)

	entityKey := []byte{0xAA}
	seedHistory(t, db, tables.ClassesTrieHistory, 5, entityKey, []byte("old"))
	seedHistory(t, db, tables.ClassesTrieHistory, 18, entityKey, []byte("new"))
	seedChangeSet(t, db, tables.ClassesTrieChangeSet, entityKey, 5, 18)

	p := New(db)
	var steps []string
	err := p.Run(context.Background(), Mode{Kind: KeepLastN, Keep: 10}, func(table string) {
		steps = append(steps, table)
	})
	require.NoError(t, err)
	require.NotEmpty(t, steps)

	require.NoError(t, db.View(context.Background(), func(tx kv.Tx) error {
		c, err := tx.CursorDupSort(tables.ClassesTrieHistory)
		require.NoError(t, err)
		defer c.Close()

		var remaining []uint64
		k, _, err := c.First()
		for k != nil {
			require.NoError(t, err)
			n, derr := tables.DecodeUint64(k)
			require.NoError(t, derr)
			remaining = append(remaining, n)
			k, _, err = c.Next()
		}
		require.Equal(t, []uint64{18}, remaining)
		return nil
	}))
}

func TestPrunerLatestClearsEverything(t *testing.T) {
	db := openTestDB(t)
	seedHeader(t, db, 5)
	entityKey := []byte{0x01}
	seedHistory(t, db, tables.ContractsTrieHistory, 1, entityKey, []byte("v"))
	seedChangeSet(t, db, tables.ContractsTrieChangeSet, entityKey, 1)

	p := New(db)
	require.NoError(t, p.Run(context.Background(), Mode{Kind: Latest}, func(string) {}))

	require.NoError(t, db.View(context.Background(), func(tx kv.Tx) error {
		c, err := tx.CursorDupSort(tables.ContractsTrieHistory)
		require.NoError(t, err)
		defer c.Close()
		k, _, err := c.First()
		require.NoError(t, err)
		require.Nil(t, k)
		return nil
	}))
}

func TestPrunerStatisticsDoesNotMutate(t *testing.T) {
	db := openTestDB(t)
	seedHeader(t, db, 20)
	entityKey := []byte{0xBB}
	seedHistory(t, db, tables.StoragesTrieHistory, 5, entityKey, []byte("old"))
	seedChangeSet(t, db, tables.StoragesTrieChangeSet, entityKey, 5)

	p := New(db)
	stats, err := p.Statistics(context.Background(), 10)
	require.NoError(t, err)
	require.NotEmpty(t, stats)

	require.NoError(t, db.View(context.Background(), func(tx kv.Tx) error {
		c, err := tx.CursorDupSort(tables.StoragesTrieHistory)
		require.NoError(t, err)
		defer c.Close()
		k, _, err := c.First()
		require.NoError(t, err)
		require.NotNil(t, k, "Statistics must not delete anything")
		return nil
	}))
}

func TestCutoffForSaturates(t *testing.T) {
	require.Equal(t, uint64(0), cutoffFor(5, 10))
	require.Equal(t, uint64(10), cutoffFor(20, 10))
}
