// Package trie implements the three committed state tries — classes,
// contracts, storages — as sparse key/value maps whose root is a Poseidon
// Merkle accumulator over their sorted leaves. The internal node layout is
// private to this package; only the root felt it produces, and the
// latest/history/changeset table rows it writes, are externally observable.
package trie

import (
	"context"
	"sort"

	"github.com/starknet-sequencer/sequencer/crypto"
	"github.com/starknet-sequencer/sequencer/felt"
	"github.com/starknet-sequencer/sequencer/kv"
	"github.com/starknet-sequencer/sequencer/kv/blocklist"
	"github.com/starknet-sequencer/sequencer/kv/tables"
	"github.com/starknet-sequencer/sequencer/types"
)

// Key and Value alias Felt directly: every trie this node maintains is
// keyed and valued by field elements (class hash, contract address, or
// storage key, each mapped to a commitment felt).
type Key = felt.Felt
type Value = felt.Felt

// Trie is a sparse Poseidon-committed key/value map. Update stages a leaf
// change in memory; Root folds every staged and previously-committed leaf
// into one felt; Commit persists the new leaves plus history/changeset rows
// for block.
type Trie struct {
	hasher crypto.Hasher

	latestTable string
	historyTable string
	changeSetTable string

	dirty map[Key]Value
}

// New returns a Trie bound to one of the three table families.
func New(hasher crypto.Hasher, latestTable, historyTable, changeSetTable string) *Trie {
	return &Trie{
		hasher: hasher,
		latestTable: latestTable,
		historyTable: historyTable,
		changeSetTable: changeSetTable,
		dirty: make(map[Key]Value),
	}
}

// Update stages a leaf write; Root folds staged writes into the root it
// returns, and the next Commit persists them.
func (t *Trie) Update(key Key, value Value) {
	t.dirty[key] = value
}

// Root reads every committed leaf out of the latest table, overlays the
// staged (dirty) writes, and folds the sorted leaf set into one felt via
// repeated Poseidon hashing — a binary Merkle reduction over
// Poseidon(key, value) leaves, which keeps the root a deterministic
// function of the leaf set regardless of write order.
func (t *Trie) Root(ctx context.Context, tx kv.Tx) (felt.Felt, error) {
	leaves := make(map[Key]Value)
	c, err := tx.Cursor(t.latestTable)
	if err != nil {
		return felt.Zero, err
	}
	for k, v, err := c.First(); k != nil; k, v, err = c.Next() {
		if err != nil {
			c.Close()
			return felt.Zero, err
		}
		var kk, vv felt.Felt
		kk.SetBytes(k)
		vv.SetBytes(v)
		leaves[kk] = vv
	}
	c.Close()
	for k, v := range t.dirty {
		leaves[k] = v
	}
	return t.fold(leaves), nil
}

// fold reduces a leaf set to one felt by sorting keys, hashing each leaf,
// and repeatedly Poseidon-hashing adjacent pairs until one value remains —
// an empty trie roots to felt.Zero.
func (t *Trie) fold(leaves map[Key]Value) felt.Felt {
	if len(leaves) == 0 {
		return felt.Zero
	}
	keys := make([]Key, 0, len(leaves))
	for k := range leaves {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Cmp(keys[j]) < 0 })

	level := make([]felt.Felt, len(keys))
	for i, k := range keys {
		level[i] = t.hasher.Poseidon(k, leaves[k])
	}
	for len(level) > 1 {
		next := make([]felt.Felt, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			if i+1 < len(level) {
				next = append(next, t.hasher.Poseidon(level[i], level[i+1]))
			} else {
				next = append(next, level[i])
			}
		}
		level = next
	}
	return level[0]
}

// Commit persists every staged leaf into the latest table, appends a
// TrieHistory row, and grows the TrieChangeSet BlockList for each touched
// key. Commit clears the staged set on success.
func (t *Trie) Commit(ctx context.Context, tx kv.RwTx, block types.BlockNumber) error {
	if len(t.dirty) == 0 {
		return nil
	}
	blockKey := tables.EncodeUint64(uint64(block))
	hc, err := tx.RwCursorDupSort(t.historyTable)
	if err != nil {
		return err
	}
	defer hc.Close()

	for key, value := range t.dirty {
		if err := tx.Put(t.latestTable, key.Bytes(), value.Bytes()); err != nil {
			return err
		}
		if err := hc.PutNoDupData(blockKey, tables.ConcatKeys(key.Bytes(), value.Bytes())); err != nil {
			return err
		}
		raw, err := tx.GetOne(t.changeSetTable, key.Bytes())
		if err != nil {
			return err
		}
		var bl *blocklist.BlockList
		if raw != nil {
			bl, err = blocklist.Decode(raw)
			if err != nil {
				return err
			}
		} else {
			bl = blocklist.New()
		}
		bl.Insert(uint64(block))
		if err := tx.Put(t.changeSetTable, key.Bytes(), bl.Encode()); err != nil {
			return err
		}
	}
	t.dirty = make(map[Key]Value)
	return nil
}

// Families are the three committed tries the block producer updates every
// block.
type Families struct {
	Classes *Trie
	Contracts *Trie
	Storages *Trie
}

// NewFamilies wires the three trie families to their table triples.
func NewFamilies(hasher crypto.Hasher) *Families {
	return &Families{
		Classes: New(hasher, tables.ClassesTrie, tables.ClassesTrieHistory, tables.ClassesTrieChangeSet),
		Contracts: New(hasher, tables.ContractsTrie, tables.ContractsTrieHistory, tables.ContractsTrieChangeSet),
		Storages: New(hasher, tables.StoragesTrie, tables.StoragesTrieHistory, tables.StoragesTrieChangeSet),
	}
}

// ApplyStateUpdates stages every leaf touched by updates into the matching
// trie family, ready for Root/Commit.
func (f *Families) ApplyStateUpdates(updates *types.StateUpdates) {
	for addr, classHash := range updates.DeployedContracts {
		f.Contracts.Update(addr, classHash)
	}
	for addr, classHash := range updates.ReplacedClasses {
		f.Contracts.Update(addr, classHash)
	}
	for classHash, compiledHash := range updates.DeclaredClasses {
		f.Classes.Update(classHash, compiledHash)
	}
	for addr, diff := range updates.StorageUpdates {
		for key, value := range diff {
			f.Storages.Update(addr.Add(key), value)
		}
	}
}
