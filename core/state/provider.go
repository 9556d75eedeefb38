// Package state implements the four StateProvider variants: Latest,
// Historical, Cached, Forked, behind one capability interface. The
// historical lookup follows a change-set/floor-block pattern: consult a
// change-set for the floor block, then read the historical value at that
// block.
package state

import (
	"context"

	"github.com/starknet-sequencer/sequencer/felt"
	"github.com/starknet-sequencer/sequencer/types"
)

// StateProvider is the read-only capability every block producer,
// validator, and RPC handler programs against.
type StateProvider interface {
	Nonce(ctx context.Context, addr felt.ContractAddress) (types.Nonce, error)
	Storage(ctx context.Context, addr felt.ContractAddress, key felt.StorageKey) (felt.StorageValue, error)
	ClassHash(ctx context.Context, addr felt.ContractAddress) (felt.ClassHash, error)
	Class(ctx context.Context, hash felt.ClassHash) (*types.ContractClass, error)
	CompiledClassHash(ctx context.Context, hash felt.ClassHash) (felt.CompiledClassHash, error)
	// Close releases the underlying read transaction.
	Close() error
}

// StateWriter mutates only the "latest" tables and appends change-set /
// history rows for the block currently being produced.
type StateWriter interface {
	ApplyStateUpdates(ctx context.Context, block types.BlockNumber, updates *types.StateUpdates) error
}

// ResettableCache is implemented by CachedStateProvider so callers can drop
// every cached entry (Clear) or fold a just-executed transaction's writes
// into it (MergeStateUpdates).
type ResettableCache interface {
	Clear()
	MergeStateUpdates(updates *types.StateUpdates)
}
