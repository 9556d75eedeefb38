package txpool

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/starknet-sequencer/sequencer/felt"
	"github.com/starknet-sequencer/sequencer/types"
)

// fixedValidator always returns outcome for any tx, the shape every
// AddTransaction test needs without standing up a real state provider.
type fixedValidator struct {
	outcome Outcome
	err error
}

func (f fixedValidator) Validate(ctx context.Context, tx types.Transaction) (Outcome, error) {
	return f.outcome, f.err
}

func acceptAll() func() Validator {
	return func() Validator {
		return fixedValidator{outcome: Outcome{Kind: OutcomeValid}}
	}
}

func addr(b byte) felt.ContractAddress {
	var a felt.ContractAddress
	a[felt.Size-1] = b
	return a
}

func hashOf(b byte) felt.Hash {
	var h felt.Hash
	h[felt.Size-1] = b
	return h
}

func TestAddTransactionAdmitsAndNotifies(t *testing.T) {
	p := NewPool(FIFOOrd{}, acceptAll())
	sub := p.Subscribe()

	tx := types.Transaction{Sender: addr(1), Nonce: felt.FromUint64(0)}
	h, err := p.AddTransaction(context.Background(), tx, hashOf(1))
	require.NoError(t, err)
	require.Equal(t, hashOf(1), h)

	select {
	case ptx := <-sub:
		require.Equal(t, hashOf(1), ptx.TxHash)
	default:
		t.Fatal("expected a subscriber notification")
	}

	require.Len(t, p.Drain(0), 1)
}

func TestAddTransactionRejectsDependent(t *testing.T) {
	p := NewPool(FIFOOrd{}, func() func() Validator {
		return func() Validator {
			return fixedValidator{outcome: Outcome{Kind: OutcomeDependent}}
		}
	}())
	_, err := p.AddTransaction(context.Background(), types.Transaction{}, hashOf(1))
	require.ErrorIs(t, err, ErrInvalidNonce)
	require.Empty(t, p.Drain(0))
}

func TestAddTransactionRejectsInvalid(t *testing.T) {
	wantErr := &InvalidTransactionError{Reason: ValidationFailure, Detail: "boom"}
	p := NewPool(FIFOOrd{}, func() func() Validator {
		return func() Validator {
			return fixedValidator{outcome: Outcome{Kind: OutcomeInvalid, Err: wantErr}}
		}
	}())
	_, err := p.AddTransaction(context.Background(), types.Transaction{}, hashOf(1))
	require.Equal(t, wantErr, err)
}

func TestDrainOrdersByTipDescending(t *testing.T) {
	p := NewPool(TipOrd{}, acceptAll())
	low := types.Transaction{Sender: addr(1), Nonce: felt.FromUint64(0), Tip: 1}
	high := types.Transaction{Sender: addr(2), Nonce: felt.FromUint64(0), Tip: 99}

	_, err := p.AddTransaction(context.Background(), low, hashOf(1))
	require.NoError(t, err)
	_, err = p.AddTransaction(context.Background(), high, hashOf(2))
	require.NoError(t, err)

	drained := p.Drain(0)
	require.Len(t, drained, 2)
	require.Equal(t, hashOf(2), drained[0].TxHash)
	require.Equal(t, hashOf(1), drained[1].TxHash)
}

func TestDrainRespectsMax(t *testing.T) {
	p := NewPool(FIFOOrd{}, acceptAll())
	for i := byte(1); i <= 3; i++ {
		tx := types.Transaction{Sender: addr(i), Nonce: felt.FromUint64(0)}
		_, err := p.AddTransaction(context.Background(), tx, hashOf(i))
		require.NoError(t, err)
	}
	require.Len(t, p.Drain(2), 2)
}

func TestRemoveByHash(t *testing.T) {
	p := NewPool(FIFOOrd{}, acceptAll())
	tx := types.Transaction{Sender: addr(1), Nonce: felt.FromUint64(0)}
	_, err := p.AddTransaction(context.Background(), tx, hashOf(1))
	require.NoError(t, err)

	p.RemoveByHash(hashOf(1))
	require.Empty(t, p.Drain(0))

	// Removing an unknown hash must not panic.
	p.RemoveByHash(hashOf(2))
}

func TestRemoveStaleDropsBelowStateNonce(t *testing.T) {
	p := NewPool(FIFOOrd{}, acceptAll())
	stale := types.Transaction{Sender: addr(1), Nonce: felt.FromUint64(0)}
	fresh := types.Transaction{Sender: addr(1), Nonce: felt.FromUint64(5)}
	_, err := p.AddTransaction(context.Background(), stale, hashOf(1))
	require.NoError(t, err)
	_, err = p.AddTransaction(context.Background(), fresh, hashOf(2))
	require.NoError(t, err)

	p.RemoveStale(func(felt.ContractAddress) types.Nonce { return felt.FromUint64(5) })

	drained := p.Drain(0)
	require.Len(t, drained, 1)
	require.Equal(t, hashOf(2), drained[0].TxHash)
}

// TestUpdateClearsPoolNonces guards a recurring regression: pool_nonces
// must be cleared on every Update call, never merely overwritten
// key-by-key, or a sender who is absent from the new block leaves a stale
// accelerator entry behind.
func TestUpdateClearsPoolNonces(t *testing.T) {
	p := NewPool(FIFOOrd{}, acceptAll())
	p.SetPoolNonce(addr(1), felt.FromUint64(7))

	_, ok := p.GetNonce(addr(1))
	require.True(t, ok)

	p.Update(acceptAll(), func(felt.ContractAddress) types.Nonce { return felt.Zero })

	_, ok = p.GetNonce(addr(1))
	require.False(t, ok, "pool_nonces must be fully cleared on Update, not merely stale")
}

func TestGetNonceMissingSender(t *testing.T) {
	p := NewPool(FIFOOrd{}, acceptAll())
	_, ok := p.GetNonce(addr(1))
	require.False(t, ok)
}
