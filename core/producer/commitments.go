package producer

import (
	"sort"

	"github.com/starknet-sequencer/sequencer/crypto"
	"github.com/starknet-sequencer/sequencer/felt"
	"github.com/starknet-sequencer/sequencer/types"
)

// sortedKeys returns m's Felt keys in ascending order, since Go map
// iteration order is random and every commitment below must be a
// deterministic function of its StateUpdates.
func sortedKeys[V any](m map[felt.Felt]V) []felt.Felt {
	out := make([]felt.Felt, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Cmp(out[j]) < 0 })
	return out
}

// transactionsCommitment, eventsCommitment, receiptsCommitment, and
// stateDiffCommitment fold an ordered sequence of per-item felts into one
// felt via the same Poseidon domain-separated scheme as blockhash.Compute,
// so a block's four commitments and its hash are all instances of one
// "hash an ordered tuple" primitive.
func transactionsCommitment(hasher crypto.Hasher, body []types.TxWithHash) felt.Felt {
	inputs := make([]felt.Felt, 0, len(body)+1)
	inputs = append(inputs, felt.ShortString("STARKNET_TRANSACTIONS_COMMITMENT"))
	for _, twh := range body {
		inputs = append(inputs, twh.Hash)
	}
	return hasher.Poseidon(inputs...)
}

func eventsCommitment(hasher crypto.Hasher, receipts []types.Receipt) felt.Felt {
	inputs := []felt.Felt{felt.ShortString("STARKNET_EVENTS_COMMITMENT")}
	for _, r := range receipts {
		for _, ev := range r.Events {
			inputs = append(inputs, ev.FromAddress)
			inputs = append(inputs, ev.Keys...)
			inputs = append(inputs, ev.Data...)
		}
	}
	return hasher.Poseidon(inputs...)
}

func receiptsCommitment(hasher crypto.Hasher, receipts []types.Receipt) felt.Felt {
	inputs := make([]felt.Felt, 0, len(receipts)+1)
	inputs = append(inputs, felt.ShortString("STARKNET_RECEIPTS_COMMITMENT"))
	for _, r := range receipts {
		inputs = append(inputs, r.TxHash, r.ActualFee)
	}
	return hasher.Poseidon(inputs...)
}

// stateDiffCommitment counts and hashes one StateUpdates into the state-diff
// commitment plus its length, the `state_diff_length` the header carries
// separately.
func stateDiffCommitment(hasher crypto.Hasher, updates *types.StateUpdates) (felt.Felt, uint64) {
	inputs := []felt.Felt{felt.ShortString("STARKNET_STATE_DIFF_COMMITMENT")}
	var length uint64

	for _, addr := range sortedKeys(updates.NonceUpdates) {
		inputs = append(inputs, addr, updates.NonceUpdates[addr])
		length++
	}
	for _, addr := range sortedKeys(updates.DeployedContracts) {
		inputs = append(inputs, addr, updates.DeployedContracts[addr])
		length++
	}
	for _, addr := range sortedKeys(updates.ReplacedClasses) {
		inputs = append(inputs, addr, updates.ReplacedClasses[addr])
		length++
	}
	for _, addr := range sortedKeys(updates.StorageUpdates) {
		diff := updates.StorageUpdates[addr]
		for _, key := range sortedKeys(diff) {
			inputs = append(inputs, addr, key, diff[key])
			length++
		}
	}
	for _, classHash := range sortedKeys(updates.DeclaredClasses) {
		inputs = append(inputs, classHash, updates.DeclaredClasses[classHash])
		length++
	}

	return hasher.Poseidon(inputs...), length
}
