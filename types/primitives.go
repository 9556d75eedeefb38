// Package types defines the logical entities: Block, Transaction, Receipt,
// StateUpdates, ContractClass, PendingTx.
package types

import "github.com/starknet-sequencer/sequencer/felt"

// BlockNumber is an unsigned 64-bit block height.
type BlockNumber uint64

// TxNumber is a monotonic global index across all historical transactions.
type TxNumber uint64

// Nonce is a Felt incremented per sender on each successful transaction.
type Nonce = felt.Felt

// DAMode selects how a block's state diff is published.
type DAMode uint8

const (
	DAModeCalldata DAMode = iota
	DAModeBlob
)

// GasPricePair carries the ETH- and STRK-denominated price of one gas
// resource.
type GasPricePair struct {
	PriceInEth felt.Felt
	PriceInStrk felt.Felt
}

// BlockStatus is the chain-acceptance state of a block.
type BlockStatus uint8

const (
	AcceptedOnL2 BlockStatus = iota
	AcceptedOnL1
)
