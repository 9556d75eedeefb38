// Package txhash computes the hash a Transaction is addressed by
// everywhere else in the system (the pool's notification fan-out, the
// TxNumbers index, receipts). Like blockhash, it folds an ordered Felt
// tuple through the shared crypto.Hasher capability so the scheme stays
// consistent with the rest of the commitment machinery.
package txhash

import (
	"github.com/starknet-sequencer/sequencer/crypto"
	"github.com/starknet-sequencer/sequencer/felt"
	"github.com/starknet-sequencer/sequencer/types"
)

// Compute returns tx's hash, an RPC handler's responsibility to attach
// before handing a freshly decoded Transaction to the pool. The pool keys
// transactions by (sender, nonce); the hash is a separate,
// externally-visible identity this function provides.
func Compute(hasher crypto.Hasher, chainID string, tx types.Transaction) felt.Hash {
	inputs := []felt.Felt{
		felt.ShortString("STARKNET_TRANSACTION_HASH"),
		felt.ShortString(chainID),
		felt.FromUint64(uint64(tx.Kind)),
		felt.FromUint64(uint64(tx.Version)),
		tx.Sender,
		tx.Nonce,
	}
	inputs = append(inputs, tx.Calldata...)
	inputs = append(inputs, tx.Signature...)
	inputs = append(inputs, tx.ClassHash, tx.CompiledClassHash)
	inputs = append(inputs, tx.ContractAddressSalt)
	inputs = append(inputs, tx.ConstructorCalldata...)
	inputs = append(inputs, felt.FromUint64(tx.L1HandlerNonce))
	return hasher.Poseidon(inputs...)
}
