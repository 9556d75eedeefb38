package executor

import (
	"context"
	"sync"

	"github.com/starknet-sequencer/sequencer/core/state"
	"github.com/starknet-sequencer/sequencer/felt"
	"github.com/starknet-sequencer/sequencer/types"
)

// StubVM is a placeholder Cairo VM binding: it satisfies both Factory and
// StatefulValidator without interpreting any bytecode, the same role
// crypto.StubHasher plays for Poseidon/Pedersen. It lets the rest of the
// node be built, wired, and driven end to end before a real VM binding is
// plugged in behind these same two interfaces.
//
// Execute always succeeds with an empty StateUpdates and zero resources;
// ValidateStateful always accepts. Neither performs signature checks, fee
// accounting, or any actual computation.
type StubVM struct{}

var _ Factory = StubVM{}
var _ StatefulValidator = StubVM{}

// New implements Factory.
func (StubVM) New(st state.StateProvider, env BlockEnv) Executor {
	return stubExecutor{}
}

// ValidateStateful implements StatefulValidator.
func (StubVM) ValidateStateful(ctx context.Context, st state.StateProvider, env BlockEnv, tx types.Transaction, flags ExecutionFlags) error {
	return nil
}

type stubExecutor struct{}

func (stubExecutor) Execute(ctx context.Context, tx types.Transaction) (types.ExecutionResult, *types.StateUpdates, types.Receipt, error) {
	result := types.ExecutionResult{Status: types.Succeeded}
	updates := types.NewStateUpdates()
	receipt := types.Receipt{
		ActualFee: felt.Zero,
		FeeUnit: "WEI",
		ExecutionResult: result,
	}
	return result, updates, receipt, nil
}

// validatorPermit is a package-level serial permit shared by every
// StatefulValidator built over StubVM, since the VM capability is not
// parallel-safe per instance.
var validatorPermit sync.Mutex

// Permit returns the shared serial permit a StatefulValidator construction
// needs; a real VM binding would instead hand out one permit per VM
// instance it owns.
func Permit() *sync.Mutex { return &validatorPermit }
