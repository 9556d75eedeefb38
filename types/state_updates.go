package types

import "github.com/starknet-sequencer/sequencer/felt"

// StorageDiff is the set of (key -> value) changes for one contract.
type StorageDiff map[felt.StorageKey]felt.StorageValue

// StateUpdates is the four mappings, plus declared class
// bodies:
//
//	nonce_updates, storage_updates, deployed_contracts (+ replaced_classes),
//	declared_classes, plus the class bytecode bodies indexed by class hash.
type StateUpdates struct {
	NonceUpdates map[felt.ContractAddress]Nonce
	StorageUpdates map[felt.ContractAddress]StorageDiff
	DeployedContracts map[felt.ContractAddress]felt.ClassHash
	ReplacedClasses map[felt.ContractAddress]felt.ClassHash
	DeclaredClasses map[felt.ClassHash]felt.CompiledClassHash
	ClassBodies map[felt.ClassHash]ContractClass
}

// NewStateUpdates returns an empty, ready-to-populate StateUpdates.
func NewStateUpdates() *StateUpdates {
	return &StateUpdates{
		NonceUpdates: make(map[felt.ContractAddress]Nonce),
		StorageUpdates: make(map[felt.ContractAddress]StorageDiff),
		DeployedContracts: make(map[felt.ContractAddress]felt.ClassHash),
		ReplacedClasses: make(map[felt.ContractAddress]felt.ClassHash),
		DeclaredClasses: make(map[felt.ClassHash]felt.CompiledClassHash),
		ClassBodies: make(map[felt.ClassHash]ContractClass),
	}
}

// Merge folds other into su, with other's entries taking precedence —
// the operation the optimistic executor uses to merge a single tx's
// StateUpdates into the speculative overlay.
func (su *StateUpdates) Merge(other *StateUpdates) {
	for k, v := range other.NonceUpdates {
		su.NonceUpdates[k] = v
	}
	for addr, diff := range other.StorageUpdates {
		cur, ok := su.StorageUpdates[addr]
		if !ok {
			cur = make(StorageDiff, len(diff))
			su.StorageUpdates[addr] = cur
		}
		for k, v := range diff {
			cur[k] = v
		}
	}
	for k, v := range other.DeployedContracts {
		su.DeployedContracts[k] = v
	}
	for k, v := range other.ReplacedClasses {
		su.ReplacedClasses[k] = v
	}
	for k, v := range other.DeclaredClasses {
		su.DeclaredClasses[k] = v
	}
	for k, v := range other.ClassBodies {
		su.ClassBodies[k] = v
	}
}

// StorageRoot/ClassHash zero-value invariants are
// enforced by providers, not by this struct; see core/state.
