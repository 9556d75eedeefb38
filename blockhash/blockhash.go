// Package blockhash computes the bit-exact Starknet block hash. Two
// independent implementations of this function must agree bit-for-bit;
// keeping it in its own small, dependency-free package makes that property
// easy to test in isolation.
package blockhash

import (
	"encoding/binary"

	"github.com/starknet-sequencer/sequencer/crypto"
	"github.com/starknet-sequencer/sequencer/felt"
	"github.com/starknet-sequencer/sequencer/types"
)

// concatCounts packs tx_count, event_count, state_diff_length, and the DA
// mode byte into a single Felt:
//
//	[tx_count (8) | event_count (8) | state_diff_length (8) | da_mode_byte (1) | zeros (7)]
func concatCounts(h types.Header) felt.Felt {
	var buf [32]byte
	binary.BigEndian.PutUint64(buf[0:8], h.TxCount)
	binary.BigEndian.PutUint64(buf[8:16], h.EventCount)
	binary.BigEndian.PutUint64(buf[16:24], h.StateDiffLength)
	if h.DAMode == types.DAModeBlob {
		buf[24] = 0x80
	} else {
		buf[24] = 0x00
	}
	var f felt.Felt
	f.SetBytes(buf[:])
	return f
}

// Compute returns the block hash for h, hashing the fixed-order Poseidon
// tuple below with the domain separator "STARKNET_BLOCK_HASH0".
func Compute(hasher crypto.Hasher, h types.Header) felt.Felt {
	inputs := []felt.Felt{
		felt.ShortString("STARKNET_BLOCK_HASH0"),
		felt.FromUint64(uint64(h.Number)),
		h.StateRoot,
		h.SequencerAddress,
		felt.FromUint64(h.Timestamp),
		concatCounts(h),
		h.StateDiffCommitment,
		h.TransactionsCommitment,
		h.EventsCommitment,
		h.ReceiptsCommitment,
		h.L1GasPrice.PriceInEth,
		h.L1GasPrice.PriceInStrk,
		h.L1DataGasPrice.PriceInEth,
		h.L1DataGasPrice.PriceInStrk,
		felt.ShortString(h.StarknetVersion),
		felt.Zero,
		h.ParentHash,
	}
	return hasher.Poseidon(inputs...)
}
