package state

import (
	"context"

	"github.com/starknet-sequencer/sequencer/felt"
	"github.com/starknet-sequencer/sequencer/kv"
	"github.com/starknet-sequencer/sequencer/kv/blocklist"
	"github.com/starknet-sequencer/sequencer/kv/tables"
	"github.com/starknet-sequencer/sequencer/types"
)

// DBStateWriter applies a block's StateUpdates to the "latest" tables and
// appends the matching change-set / history rows, the write side of the
// HistoricalStateProvider.getAsOf convention: every history row is stored
// as {entityKey, payload}, where entityKey is exactly the bytes used to
// SeekBothRange it back out again.
type DBStateWriter struct {
	db kv.RwDB
}

var _ StateWriter = (*DBStateWriter)(nil)

// NewDBStateWriter returns a StateWriter over db.
func NewDBStateWriter(db kv.RwDB) *DBStateWriter {
	return &DBStateWriter{db: db}
}

// ApplyStateUpdates commits block's StateUpdates atomically:
// commit() is all-or-nothing, so every table mutated here happens inside
// one RwTx.
func (w *DBStateWriter) ApplyStateUpdates(ctx context.Context, block types.BlockNumber, updates *types.StateUpdates) error {
	return w.db.Update(ctx, func(tx kv.RwTx) error {
		return ApplyStateUpdatesTx(tx, block, updates)
	})
}

// ApplyStateUpdatesTx is the tx-scoped form of ApplyStateUpdates, for
// callers that already hold the block's write transaction open — the
// block producer applies updates, trie commitments, and the sealed header
// inside one RwTx.
func ApplyStateUpdatesTx(tx kv.RwTx, block types.BlockNumber, updates *types.StateUpdates) error {
	blockKey := tables.EncodeUint64(uint64(block))

	for addr, nonce := range updates.NonceUpdates {
		if err := mergeContractInfo(tx, addr, &nonce, nil); err != nil {
			return err
		}
		if err := appendHistoryRow(tx, tables.NonceChangeHistory, blockKey, addr.Bytes(), nonce.Bytes()); err != nil {
			return err
		}
		if err := growChangeSet(tx, tables.ContractInfoChangeSet, addr.Bytes(), uint64(block)); err != nil {
			return err
		}
	}

	for addr, classHash := range updates.DeployedContracts {
		if err := applyClassAssignment(tx, blockKey, block, addr, classHash); err != nil {
			return err
		}
	}
	for addr, classHash := range updates.ReplacedClasses {
		if err := applyClassAssignment(tx, blockKey, block, addr, classHash); err != nil {
			return err
		}
	}

	for addr, diff := range updates.StorageUpdates {
		for key, value := range diff {
			if err := applyStorageUpdate(tx, blockKey, addr, key, value); err != nil {
				return err
			}
		}
	}

	for classHash, compiledHash := range updates.DeclaredClasses {
		if err := tx.Put(tables.CompiledClassHashes, classHash.Bytes(), compiledHash.Bytes()); err != nil {
			return err
		}
		if err := tx.Put(tables.ClassDeclarationBlock, classHash.Bytes(), blockKey); err != nil {
			return err
		}
		c, err := tx.RwCursorDupSort(tables.ClassDeclarations)
		if err != nil {
			return err
		}
		if err := c.PutNoDupData(blockKey, classHash.Bytes()); err != nil {
			c.Close()
			return err
		}
		c.Close()
	}

	for classHash, body := range updates.ClassBodies {
		compressed := (tables.ZstdCompressor{}).Compress(encodeContractClass(body))
		if err := tx.Put(tables.Classes, classHash.Bytes(), compressed); err != nil {
			return err
		}
	}

	return nil
}

func applyClassAssignment(tx kv.RwTx, blockKey []byte, block types.BlockNumber, addr felt.ContractAddress, classHash felt.ClassHash) error {
	if err := mergeContractInfo(tx, addr, nil, &classHash); err != nil {
		return err
	}
	if err := appendHistoryRow(tx, tables.ClassChangeHistory, blockKey, addr.Bytes(), classHash.Bytes()); err != nil {
		return err
	}
	return growChangeSet(tx, tables.ContractInfoChangeSet, addr.Bytes(), uint64(block))
}

// mergeContractInfo reads the current ContractInfo row (if any) and
// overwrites only the field the caller supplies, preserving the other.
func mergeContractInfo(tx kv.RwTx, addr felt.ContractAddress, nonce *types.Nonce, classHash *felt.ClassHash) error {
	info := contractInfo{}
	cur, err := tx.GetOne(tables.ContractInfo, addr.Bytes())
	if err != nil {
		return err
	}
	if cur != nil {
		info, err = decodeContractInfo(cur)
		if err != nil {
			return err
		}
	}
	if nonce != nil {
		info.Nonce = *nonce
	}
	if classHash != nil {
		info.ClassHash = *classHash
	}
	return tx.Put(tables.ContractInfo, addr.Bytes(), info.encode())
}

// applyStorageUpdate writes the latest ContractStorage row, appends a
// StorageChangeHistory row, and grows the StorageChangeSet BlockList for
// (addr, key).
func applyStorageUpdate(tx kv.RwTx, blockKey []byte, addr felt.ContractAddress, key felt.StorageKey, value felt.StorageValue) error {
	c, err := tx.RwCursorDupSort(tables.ContractStorage)
	if err != nil {
		return err
	}
	// ContractStorage is dup-sorted per address by the embedded key, so a
	// write first deletes any existing duplicate for this key before
	// inserting the new value.
	if v, err := c.SeekBothRange(addr.Bytes(), key.Bytes()); err == nil && v != nil && len(v) >= felt.Size && string(v[:felt.Size]) == string(key.Bytes()) {
		if err := c.DeleteCurrentDuplicates(); err != nil {
			c.Close()
			return err
		}
	}
	err = c.PutNoDupData(addr.Bytes(), tables.ConcatKeys(key.Bytes(), value.Bytes()))
	c.Close()
	if err != nil {
		return err
	}

	entityKey := tables.ConcatKeys(addr.Bytes(), key.Bytes())
	if err := appendHistoryRow(tx, tables.StorageChangeHistory, blockKey, entityKey, value.Bytes()); err != nil {
		return err
	}
	return growChangeSet(tx, tables.StorageChangeSet, entityKey, decodeBlockNum(blockKey))
}

// appendHistoryRow writes a {entityKey, payload} duplicate under blockKey
// in historyTable, the row shape HistoricalStateProvider.getAsOf expects.
func appendHistoryRow(tx kv.RwTx, historyTable string, blockKey, entityKey, payload []byte) error {
	c, err := tx.RwCursorDupSort(historyTable)
	if err != nil {
		return err
	}
	defer c.Close()
	return c.PutNoDupData(blockKey, tables.ConcatKeys(entityKey, payload))
}

// growChangeSet loads entityKey's BlockList, inserts block, and writes it
// back, the bookkeeping every mutation to a historized table performs
// alongside its latest-table write and history row.
func growChangeSet(tx kv.RwTx, changeSetTable string, entityKey []byte, block uint64) error {
	cur, err := tx.GetOne(changeSetTable, entityKey)
	if err != nil {
		return err
	}
	var bl *blocklist.BlockList
	if cur != nil {
		bl, err = blocklist.Decode(cur)
		if err != nil {
			return err
		}
	} else {
		bl = blocklist.New()
	}
	bl.Insert(block)
	return tx.Put(changeSetTable, entityKey, bl.Encode())
}

func decodeBlockNum(blockKey []byte) uint64 {
	v, _ := tables.DecodeUint64(blockKey)
	return v
}
