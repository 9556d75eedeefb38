// Package prune implements the history/changeset pruner, shrinking the
// three trie families' history and changeset tables down to the last N
// blocks (or clearing them entirely) as its own first-class subsystem
// rather than folding into storage code.
package prune

import (
	"context"
	"fmt"

	"github.com/starknet-sequencer/sequencer/internal/mathutil"
	"github.com/starknet-sequencer/sequencer/kv"
	"github.com/starknet-sequencer/sequencer/kv/blocklist"
	"github.com/starknet-sequencer/sequencer/kv/tables"
	"github.com/starknet-sequencer/sequencer/metrics"
)

// batchSize bounds how many changeset keys are buffered before their
// mutations are flushed in one shot.
const batchSize = 1000

// ModeKind distinguishes the pruner's two modes.
type ModeKind uint8

const (
	// Latest clears all six tables outright.
	Latest ModeKind = iota
	// KeepLastN retains history/changeset entries for the last N blocks.
	KeepLastN
)

// Mode selects Latest or KeepLastN(k).
type Mode struct {
	Kind ModeKind
	Keep uint64
}

// family pairs one trie's history and changeset table names, the unit the
// pruner walks; classes, contracts, and storages each get one.
type family struct {
	name string
	historyTable string
	changeSetTable string
}

var families = []family{
	{"classes", tables.ClassesTrieHistory, tables.ClassesTrieChangeSet},
	{"contracts", tables.ContractsTrieHistory, tables.ContractsTrieChangeSet},
	{"storages", tables.StoragesTrieHistory, tables.StoragesTrieChangeSet},
}

// Stats is the per-table count the statistics pre-pass reports for the
// confirmation prompt.
type Stats struct {
	Table string
	HistoryEntries uint64
	ChangeSetEntries uint64
}

// Pruner runs against db.
type Pruner struct {
	db kv.RwDB
}

// New constructs a Pruner over db.
func New(db kv.RwDB) *Pruner { return &Pruner{db: db} }

// Statistics counts, without deleting, the rows a KeepLastN(k) run would
// touch for each of the six tables.
func (p *Pruner) Statistics(ctx context.Context, keep uint64) ([]Stats, error) {
	var out []Stats
	err := p.db.View(ctx, func(tx kv.Tx) error {
		latest, _, err := latestBlockNumber(tx)
		if err != nil {
			return err
		}
		cutoff := cutoffFor(latest, keep)

		for _, f := range families {
			histCount, err := countHistoryUpTo(tx, f.historyTable, cutoff)
			if err != nil {
				return err
			}
			csCount, err := countChangeSetUpTo(tx, f.changeSetTable, cutoff)
			if err != nil {
				return err
			}
			out = append(out, Stats{Table: f.name, HistoryEntries: histCount, ChangeSetEntries: csCount})
		}
		return nil
	})
	return out, err
}

// Run executes mode in one write transaction, reporting progress to
// onStep after each of the six tables completes.
func (p *Pruner) Run(ctx context.Context, mode Mode, onStep func(table string)) error {
	return p.db.Update(ctx, func(tx kv.RwTx) error {
		if mode.Kind == Latest {
			for _, f := range families {
				histRows, err := countHistoryUpTo(tx, f.historyTable, ^uint64(0))
				if err != nil {
					return err
				}
				if err := tx.ClearTable(f.historyTable); err != nil {
					return err
				}
				metrics.PrunedRows.WithLabelValues(f.historyTable).Add(float64(histRows))
				onStep(f.historyTable)

				csRows, err := countChangeSetUpTo(tx, f.changeSetTable, ^uint64(0))
				if err != nil {
					return err
				}
				if err := tx.ClearTable(f.changeSetTable); err != nil {
					return err
				}
				metrics.PrunedRows.WithLabelValues(f.changeSetTable).Add(float64(csRows))
				onStep(f.changeSetTable)
			}
			return nil
		}

		latest, ok, err := latestBlockNumber(tx)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		cutoff := cutoffFor(latest, mode.Keep)

		for _, f := range families {
			histRows, err := countHistoryUpTo(tx, f.historyTable, cutoff)
			if err != nil {
				return err
			}
			if err := pruneHistory(tx, f.historyTable, cutoff); err != nil {
				return err
			}
			metrics.PrunedRows.WithLabelValues(f.historyTable).Add(float64(histRows))
			onStep(f.historyTable)

			csRows, err := countChangeSetUpTo(tx, f.changeSetTable, cutoff)
			if err != nil {
				return err
			}
			if err := pruneChangeSet(tx, f.changeSetTable, cutoff); err != nil {
				return err
			}
			metrics.PrunedRows.WithLabelValues(f.changeSetTable).Add(float64(csRows))
			onStep(f.changeSetTable)
		}
		return nil
	})
}

func cutoffFor(latest, keep uint64) uint64 {
	return mathutil.SaturatingSub(latest, keep)
}

func latestBlockNumber(tx kv.Tx) (uint64, bool, error) {
	c, err := tx.Cursor(tables.Headers)
	if err != nil {
		return 0, false, err
	}
	defer c.Close()
	k, _, err := c.Last()
	if err != nil || k == nil {
		return 0, false, err
	}
	n, err := tables.DecodeUint64(k)
	return n, err == nil, err
}

// pruneHistory walks historyTable from its first block, deleting every
// duplicate for any block <= cutoff, stopping at the first block > cutoff.
func pruneHistory(tx kv.RwTx, historyTable string, cutoff uint64) error {
	c, err := tx.RwCursorDupSort(historyTable)
	if err != nil {
		return err
	}
	defer c.Close()

	k, _, err := c.First()
	for k != nil {
		if err != nil {
			return err
		}
		block, err := tables.DecodeUint64(k)
		if err != nil {
			return err
		}
		if block > cutoff {
			break
		}
		if err := c.DeleteCurrentDuplicates(); err != nil {
			return err
		}
		k, _, err = c.First()
	}
	return err
}

func countHistoryUpTo(tx kv.Tx, historyTable string, cutoff uint64) (uint64, error) {
	c, err := tx.CursorDupSort(historyTable)
	if err != nil {
		return 0, err
	}
	defer c.Close()

	var count uint64
	k, _, err := c.First()
	for k != nil {
		if err != nil {
			return 0, err
		}
		block, derr := tables.DecodeUint64(k)
		if derr != nil {
			return 0, derr
		}
		if block > cutoff {
			break
		}
		count++
		k, _, err = c.Next()
	}
	return count, err
}

type changeSetMutation struct {
	key []byte
	delete bool
	value []byte
}

// pruneChangeSet stream-walks changeSetTable in batches of batchSize,
// trimming each entity's BlockList to drop any block <= cutoff, queuing a
// delete if the list becomes empty.
func pruneChangeSet(tx kv.RwTx, changeSetTable string, cutoff uint64) error {
	c, err := tx.RwCursor(changeSetTable)
	if err != nil {
		return err
	}
	defer c.Close()

	var batch []changeSetMutation
	for k, v, err := c.First(); k != nil; k, v, err = c.Next() {
		if err != nil {
			return err
		}
		bl, err := blocklist.Decode(v)
		if err != nil {
			return fmt.Errorf("prune: decode changeset %s: %w", changeSetTable, err)
		}
		bl.RemoveRange(0, cutoff)
		if bl.IsEmpty() {
			batch = append(batch, changeSetMutation{key: append([]byte(nil), k...), delete: true})
		} else {
			batch = append(batch, changeSetMutation{key: append([]byte(nil), k...), value: bl.Encode()})
		}
		if len(batch) >= batchSize {
			if err := flush(tx, changeSetTable, batch); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	return flush(tx, changeSetTable, batch)
}

func countChangeSetUpTo(tx kv.Tx, changeSetTable string, cutoff uint64) (uint64, error) {
	c, err := tx.Cursor(changeSetTable)
	if err != nil {
		return 0, err
	}
	defer c.Close()

	var count uint64
	for _, v, err := c.First(); v != nil; _, v, err = c.Next() {
		if err != nil {
			return 0, err
		}
		bl, err := blocklist.Decode(v)
		if err != nil {
			return 0, err
		}
		if min, ok := bl.Min(); ok && min <= cutoff {
			count++
		}
	}
	return count, nil
}

// flush applies every queued mutation in order before pruneChangeSet
// continues walking.
func flush(tx kv.RwTx, table string, batch []changeSetMutation) error {
	for _, m := range batch {
		if m.delete {
			if err := tx.Delete(table, m.key); err != nil {
				return err
			}
			continue
		}
		if err := tx.Put(table, m.key, m.value); err != nil {
			return err
		}
	}
	return nil
}
