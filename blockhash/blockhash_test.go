package blockhash

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/starknet-sequencer/sequencer/crypto"
	"github.com/starknet-sequencer/sequencer/felt"
	"github.com/starknet-sequencer/sequencer/types"
)

// TestDeterminism exercises the bit-exactness property: two independently
// computed block hashes over equal Header values must be bit-equal.
func TestDeterminism(t *testing.T) {
	parent, _ := felt.FromHex("0xA")
	root, _ := felt.FromHex("0xB")
	seq, _ := felt.FromHex("0xC")
	price := felt.FromUint64(1)

	h := types.Header{
		Number: 100,
		ParentHash: parent,
		StateRoot: root,
		SequencerAddress: seq,
		Timestamp: 100,
		L1GasPrice: types.GasPricePair{PriceInEth: price, PriceInStrk: price},
		L1DataGasPrice: types.GasPricePair{PriceInEth: price, PriceInStrk: price},
		DAMode: types.DAModeCalldata,
		StarknetVersion: "0.13.0",
	}

	hasher := crypto.StubHasher{}
	a := Compute(hasher, h)
	b := Compute(hasher, h)
	require.Equal(t, a, b)
}

func TestConcatCountsBlobFlag(t *testing.T) {
	h := types.Header{TxCount: 1, EventCount: 2, StateDiffLength: 3, DAMode: types.DAModeBlob}
	f := concatCounts(h)
	require.Equal(t, byte(0x80), f[24])

	h.DAMode = types.DAModeCalldata
	f = concatCounts(h)
	require.Equal(t, byte(0x00), f[24])
}
