package chain

import (
	"errors"

	"github.com/starknet-sequencer/sequencer/felt"
	"github.com/starknet-sequencer/sequencer/kv"
	"github.com/starknet-sequencer/sequencer/kv/tables"
	"github.com/starknet-sequencer/sequencer/types"
)

var errMalformedRow = errors.New("chain: malformed history row")

// StateDiff is the per-block shape starknet_getStateUpdate returns: the same
// four mappings as types.StateUpdates, reconstructed after
// the fact from the change-history tables rather than carried as its own
// stored blob.
type StateDiff struct {
	NonceUpdates map[felt.ContractAddress]types.Nonce
	StorageUpdates map[felt.ContractAddress]types.StorageDiff
	DeployedContracts map[felt.ContractAddress]felt.ClassHash
	DeclaredClasses map[felt.ClassHash]felt.CompiledClassHash
}

// GetStateDiff reconstructs the state diff committed at block by scanning
// each change-history table for exactly the duplicates filed under block's
// key, the inverse of the {entityKey, payload} row convention
// ApplyStateUpdatesTx writes.
//
// ClassChangeHistory does not distinguish a first deployment from a class
// replacement, so every entry surfaces under DeployedContracts; a reader
// that needs the distinction should consult ContractInfoChangeSet's prior
// entries instead.
func GetStateDiff(tx kv.Tx, block types.BlockNumber) (*StateDiff, error) {
	blockKey := tables.EncodeUint64(uint64(block))
	diff := &StateDiff{
		NonceUpdates: make(map[felt.ContractAddress]types.Nonce),
		StorageUpdates: make(map[felt.ContractAddress]types.StorageDiff),
		DeployedContracts: make(map[felt.ContractAddress]felt.ClassHash),
		DeclaredClasses: make(map[felt.ClassHash]felt.CompiledClassHash),
	}

	if err := walkBlockDups(tx, tables.NonceChangeHistory, blockKey, felt.Size, func(entityKey, payload []byte) error {
		var addr felt.ContractAddress
		addr.SetBytes(entityKey)
		var nonce types.Nonce
		nonce.SetBytes(payload)
		diff.NonceUpdates[addr] = nonce
		return nil
	}); err != nil {
		return nil, err
	}

	if err := walkBlockDups(tx, tables.ClassChangeHistory, blockKey, felt.Size, func(entityKey, payload []byte) error {
		var addr felt.ContractAddress
		addr.SetBytes(entityKey)
		var classHash felt.ClassHash
		classHash.SetBytes(payload)
		diff.DeployedContracts[addr] = classHash
		return nil
	}); err != nil {
		return nil, err
	}

	if err := walkBlockDups(tx, tables.StorageChangeHistory, blockKey, 2*felt.Size, func(entityKey, payload []byte) error {
		var addr felt.ContractAddress
		addr.SetBytes(entityKey[:felt.Size])
		var key felt.StorageKey
		key.SetBytes(entityKey[felt.Size:])
		var value felt.StorageValue
		value.SetBytes(payload)
		sub, ok := diff.StorageUpdates[addr]
		if !ok {
			sub = make(types.StorageDiff)
			diff.StorageUpdates[addr] = sub
		}
		sub[key] = value
		return nil
	}); err != nil {
		return nil, err
	}

	c, err := tx.CursorDupSort(tables.ClassDeclarations)
	if err != nil {
		return nil, err
	}
	defer c.Close()
	k, v, err := c.Seek(blockKey)
	if err != nil {
		return nil, err
	}
	for k != nil && string(k) == string(blockKey) {
		var classHash felt.ClassHash
		classHash.SetBytes(v)
		compiled, err := tx.GetOne(tables.CompiledClassHashes, classHash.Bytes())
		if err != nil {
			return nil, err
		}
		if compiled != nil {
			var ch felt.CompiledClassHash
			ch.SetBytes(compiled)
			diff.DeclaredClasses[classHash] = ch
		}
		k, v, err = c.NextDup()
		if err != nil {
			return nil, err
		}
	}

	return diff, nil
}

// walkBlockDups iterates every duplicate filed under blockKey in table,
// splitting each {entityKey, payload} row at entityKeyLen before calling f.
func walkBlockDups(tx kv.Tx, table string, blockKey []byte, entityKeyLen int, f func(entityKey, payload []byte) error) error {
	c, err := tx.CursorDupSort(table)
	if err != nil {
		return err
	}
	defer c.Close()
	k, v, err := c.Seek(blockKey)
	if err != nil {
		return err
	}
	for k != nil && string(k) == string(blockKey) {
		if len(v) < entityKeyLen {
			return errMalformedRow
		}
		if err := f(v[:entityKeyLen], v[entityKeyLen:]); err != nil {
			return err
		}
		k, v, err = c.NextDup()
		if err != nil {
			return err
		}
	}
	return nil
}
