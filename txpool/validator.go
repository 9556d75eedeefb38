package txpool

import (
	"context"
	"sync"

	"github.com/starknet-sequencer/sequencer/core/state"
	"github.com/starknet-sequencer/sequencer/executor"
	"github.com/starknet-sequencer/sequencer/felt"
	"github.com/starknet-sequencer/sequencer/types"
)

// Outcome is the tagged result of Validator.Validate: a
// Go struct with a Kind discriminant rather than an interface hierarchy,
// matching how Transaction itself is modeled.
type OutcomeKind uint8

const (
	OutcomeValid OutcomeKind = iota
	OutcomeDependent
	OutcomeInvalid
)

type Outcome struct {
	Kind OutcomeKind

	// Valid
	Tx types.Transaction

	// Dependent
	CurrentNonce types.Nonce
	ReceivedTx types.Transaction

	// Invalid
	Err error
}

// Validator is mutated in place on each call: it owns the
// state snapshot, block env, and serial permit a stateful validation run
// needs.
type Validator interface {
	Validate(ctx context.Context, tx types.Transaction) (Outcome, error)
}

// ChainSpec carries the chain parameters handed to a validator. It holds
// only the chain ID, and Validate does not read it; producers/tests
// construct it directly.
type ChainSpec struct {
	ChainID string
}

// CfgOverrides lets operators relax specific validations, e.g. for a
// devnet fork.
type CfgOverrides struct {
	SkipFeeCheck bool
}

// StatefulValidator implements Validator against one state snapshot.
// pool_nonces is owned by the enclosing Pool, not the validator, but the
// validator reads
// and mutates it through the accessor functions supplied at construction so
// the pool's lock discipline stays centralized in pool.go.
type StatefulValidator struct {
	state state.StateProvider
	env executor.BlockEnv
	flags executor.ExecutionFlags
	spec ChainSpec
	cfg CfgOverrides
	vm executor.StatefulValidator
	permit *sync.Mutex // serial permit: the VM is not parallel-safe per instance

	poolNonce func(sender felt.ContractAddress) (types.Nonce, bool)
	setNonce func(sender felt.ContractAddress, nonce types.Nonce)
}

var _ Validator = (*StatefulValidator)(nil)

// NewStatefulValidator constructs a validator over one state snapshot.
// poolNonce/setNonce read and write the pool's pool_nonces accelerator map.
func NewStatefulValidator(
	st state.StateProvider,
	env executor.BlockEnv,
	flags executor.ExecutionFlags,
	spec ChainSpec,
	cfg CfgOverrides,
	vm executor.StatefulValidator,
	permit *sync.Mutex,
	poolNonce func(felt.ContractAddress) (types.Nonce, bool),
	setNonce func(felt.ContractAddress, types.Nonce),
) *StatefulValidator {
	return &StatefulValidator{
		state: st, env: env, flags: flags, spec: spec, cfg: cfg,
		vm: vm, permit: permit, poolNonce: poolNonce, setNonce: setNonce,
	}
}

// Validate runs the admission protocol: class presence, nonce ordering,
// balance/fee checks, then the VM's own signature and resource validation,
// serialized through permit since the VM is not parallel-safe.
func (v *StatefulValidator) Validate(ctx context.Context, tx types.Transaction) (Outcome, error) {
	v.permit.Lock()
	defer v.permit.Unlock()

	if tx.Kind == types.TxDeclare {
		if cls, err := v.state.Class(ctx, tx.ClassHash); err != nil {
			return Outcome{}, err
		} else if cls != nil {
			return Outcome{Kind: OutcomeInvalid, Err: &InvalidTransactionError{
				Reason: ClassAlreadyDeclared, Address: tx.Sender, ClassHash: tx.ClassHash,
				Detail: "class already declared",
			}}, nil
		}
	}

	currentNonce, ok := v.poolNonce(tx.Sender)
	if !ok {
		stateNonce, err := v.state.Nonce(ctx, tx.Sender)
		if err != nil {
			return Outcome{}, err
		}
		currentNonce = stateNonce
	}

	switch c := tx.Nonce.Cmp(currentNonce); {
	case c > 0:
		return Outcome{Kind: OutcomeDependent, CurrentNonce: currentNonce, ReceivedTx: tx}, nil
	case c < 0:
		return Outcome{Kind: OutcomeInvalid, Err: &InvalidTransactionError{
			Reason: InvalidNonce, Address: tx.Sender, Detail: "nonce below current accepted nonce",
		}}, nil
	}

	flags := v.flags
	if currentNonce == felt.Zero && tx.Nonce == felt.One && tx.Kind == types.TxInvoke {
		flags.SkipValidate = true
	}
	flags.SkipFeeCheck = flags.SkipFeeCheck || v.cfg.SkipFeeCheck

	if err := v.vm.ValidateStateful(ctx, v.state, v.env, tx, flags); err != nil {
		return Outcome{Kind: OutcomeInvalid, Err: translateVMError(err, tx)}, nil
	}

	v.setNonce(tx.Sender, currentNonce.Add(felt.One))
	return Outcome{Kind: OutcomeValid, Tx: tx}, nil
}

// translateVMError maps a raw VM validation error into the
// InvalidTransactionError taxonomy. VM errors that
// already carry the taxonomy pass through unchanged.
func translateVMError(err error, tx types.Transaction) error {
	if ite, ok := err.(*InvalidTransactionError); ok {
		return ite
	}
	return &InvalidTransactionError{
		Reason: ValidationFailure, Address: tx.Sender, ClassHash: tx.ClassHash,
		Detail: err.Error(),
	}
}
