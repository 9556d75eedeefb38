package txpool

import (
	"errors"
	"fmt"

	"github.com/starknet-sequencer/sequencer/felt"
)

// InvalidReason enumerates the VM-translated rejection kinds the stateful
// validator reports.
type InvalidReason uint8

const (
	InvalidNonce InvalidReason = iota
	InsufficientFunds
	InsufficientIntrinsicFee
	ValidationFailure
	ClassAlreadyDeclared
)

func (r InvalidReason) String() string {
	switch r {
	case InvalidNonce:
		return "InvalidNonce"
	case InsufficientFunds:
		return "InsufficientFunds"
	case InsufficientIntrinsicFee:
		return "InsufficientIntrinsicFee"
	case ValidationFailure:
		return "ValidationFailure"
	case ClassAlreadyDeclared:
		return "ClassAlreadyDeclared"
	default:
		return "Unknown"
	}
}

// InvalidTransactionError is the error the admission protocol returns for
// the Invalid{error} outcome, preserving the
// address/class-hash/reason fields the VM surfaced.
type InvalidTransactionError struct {
	Reason InvalidReason
	Address felt.ContractAddress
	ClassHash felt.ClassHash
	Detail string
}

func (e *InvalidTransactionError) Error() string {
	return fmt.Sprintf("txpool: %s (address=%s, class_hash=%s): %s", e.Reason, e.Address.Hex(), e.ClassHash.Hex(), e.Detail)
}

// ErrInvalidNonce is returned by add_transaction for the Dependent outcome.
var ErrInvalidNonce = errors.New("txpool: nonce greater than the currently accepted nonce")

// ErrPoolClosed reports a pool that has been shut down. Pool has no
// shutdown path, and nothing in this package returns it.
var ErrPoolClosed = errors.New("txpool: pool is closed")
