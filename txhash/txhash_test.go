package txhash

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/starknet-sequencer/sequencer/crypto"
	"github.com/starknet-sequencer/sequencer/felt"
	"github.com/starknet-sequencer/sequencer/types"
)

func TestComputeDeterministic(t *testing.T) {
	h := crypto.StubHasher{}
	tx := types.Transaction{
		Kind: types.TxInvoke,
		Sender: felt.FromUint64(1),
		Nonce: felt.FromUint64(0),
		Calldata: []felt.Felt{felt.FromUint64(9)},
	}
	a := Compute(h, "SN_SEPOLIA", tx)
	b := Compute(h, "SN_SEPOLIA", tx)
	require.Equal(t, a, b)
}

func TestComputeSensitiveToChainID(t *testing.T) {
	h := crypto.StubHasher{}
	tx := types.Transaction{Sender: felt.FromUint64(1), Nonce: felt.FromUint64(0)}
	a := Compute(h, "SN_MAIN", tx)
	b := Compute(h, "SN_SEPOLIA", tx)
	require.NotEqual(t, a, b)
}

func TestComputeSensitiveToNonce(t *testing.T) {
	h := crypto.StubHasher{}
	base := types.Transaction{Sender: felt.FromUint64(1)}
	withNonce0 := base
	withNonce0.Nonce = felt.FromUint64(0)
	withNonce1 := base
	withNonce1.Nonce = felt.FromUint64(1)

	require.NotEqual(t, Compute(h, "SN_MAIN", withNonce0), Compute(h, "SN_MAIN", withNonce1))
}

func TestComputeSensitiveToCalldata(t *testing.T) {
	h := crypto.StubHasher{}
	base := types.Transaction{Sender: felt.FromUint64(1), Nonce: felt.FromUint64(0)}
	a := base
	a.Calldata = []felt.Felt{felt.FromUint64(1)}
	b := base
	b.Calldata = []felt.Felt{felt.FromUint64(2)}

	require.NotEqual(t, Compute(h, "SN_MAIN", a), Compute(h, "SN_MAIN", b))
}
