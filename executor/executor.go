// Package executor defines the VM boundary: the Cairo bytecode interpreter
// is consumed through these capabilities, not re-specified.
// Every concrete VM implementation — in production a Cairo VM binding, in
// tests a scripted stand-in — satisfies these two interfaces.
package executor

import (
	"context"

	"github.com/starknet-sequencer/sequencer/core/state"
	"github.com/starknet-sequencer/sequencer/felt"
	"github.com/starknet-sequencer/sequencer/types"
)

// BlockEnv is the block context every execution, validation, and fee
// estimate reads. It is a plain value: Producer and the optimistic Actor
// each keep their own copy under their own mutex, and RPC builds one from
// the latest header.
type BlockEnv struct {
	Number types.BlockNumber
	Timestamp uint64
	SequencerAddress felt.ContractAddress
	L1GasPrice types.GasPricePair
	L1DataGasPrice types.GasPricePair
	L2GasPrice types.GasPricePair
	DAMode types.DAMode
	StarknetVersion string
}

// ExecutionFlags toggles validation/fee-check behavior a caller may disable.
type ExecutionFlags struct {
	SkipValidate bool
	SkipFeeCheck bool
}

// StatefulValidator is the VM capability the pool's admission protocol
// drives: validate a transaction's signature and
// fee affordability against a live state snapshot, without executing it.
type StatefulValidator interface {
	ValidateStateful(ctx context.Context, state state.StateProvider, env BlockEnv, tx types.Transaction, flags ExecutionFlags) error
}

// Executor runs transactions to completion, returning the resulting
// StateUpdates and Receipt. One Executor instance is bound to one state
// snapshot + block env and is not safe for concurrent Execute calls —
// callers serialize through the producer/optimistic-actor single-threaded
// protocol.
type Executor interface {
	Execute(ctx context.Context, tx types.Transaction) (types.ExecutionResult, *types.StateUpdates, types.Receipt, error)
}

// Factory constructs an Executor seeded with (state, block env): a VM
// executor bound to a given state snapshot and block context, built fresh
// everywhere an execution needs isolated VM state, including block
// production, validation, optimistic execution, and RPC simulation.
type Factory interface {
	New(state state.StateProvider, env BlockEnv) Executor
}
