package types

import "github.com/starknet-sequencer/sequencer/felt"

// TxKind tags the Transaction union.
type TxKind uint8

const (
	TxInvoke TxKind = iota
	TxDeclare
	TxDeployAccount
	TxL1Handler
	TxDeploy
)

// TxID is the (sender, nonce) pair the pool keys PendingTx by.
type TxID struct {
	Sender felt.ContractAddress
	Nonce Nonce
}

// Less orders TxIDs ascending by (sender, nonce), the tie-break used after
// priority in the pool's ordered set.
func (id TxID) Less(other TxID) bool {
	if c := id.Sender.Cmp(other.Sender); c != 0 {
		return c < 0
	}
	return id.Nonce.Cmp(other.Nonce) < 0
}

// PaymasterData is optional paymaster calldata carried by a transaction.
type PaymasterData struct {
	PaymasterAddress felt.ContractAddress
	Data []felt.Felt
}

// Transaction is the tagged union {Invoke, Declare, DeployAccount,
// L1Handler, Deploy}, each with version sub-variants. A single struct with
// a Kind discriminant is used rather than a Go interface hierarchy per
// variant.
type Transaction struct {
	Kind TxKind
	Version uint8
	Sender felt.ContractAddress
	Nonce Nonce
	Calldata []felt.Felt
	Signature []felt.Felt

	ResourceBounds ResourceBoundsMapping
	Tip uint64 // priority fee, consumed by the Tip ordering strategy
	Paymaster *PaymasterData

	// Declare-specific.
	ClassHash felt.ClassHash
	CompiledClassHash felt.CompiledClassHash

	// DeployAccount/Deploy-specific.
	ContractAddressSalt felt.Felt
	ConstructorCalldata []felt.Felt

	// L1Handler-specific.
	L1HandlerNonce uint64
}

// ID returns the (sender, nonce) pool key.
func (t Transaction) ID() TxID { return TxID{Sender: t.Sender, Nonce: t.Nonce} }

// TxWithHash pairs a Transaction with its precomputed hash, the unit the
// block body and the pool both operate on.
type TxWithHash struct {
	Hash felt.Hash
	Tx Transaction
}

// PendingTx is (id, tx, priority). Priority is produced by a pool Ordering
// strategy.
type PendingTx struct {
	ID TxID
	TxHash felt.Hash
	Tx Transaction
	Priority uint64
}
