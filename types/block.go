package types

import "github.com/starknet-sequencer/sequencer/felt"

// Header carries parent hash, number, state_root, the four commitments,
// three gas-price pairs, DA mode, and protocol version.
type Header struct {
	ParentHash felt.Hash
	Number BlockNumber
	StateRoot felt.Hash
	SequencerAddress felt.ContractAddress
	Timestamp uint64
	TransactionsCommitment felt.Hash
	EventsCommitment felt.Hash
	ReceiptsCommitment felt.Hash
	StateDiffCommitment felt.Hash
	TxCount uint64
	EventCount uint64
	StateDiffLength uint64
	L1GasPrice GasPricePair
	L1DataGasPrice GasPricePair
	L2GasPrice GasPricePair
	DAMode DAMode
	StarknetVersion string
	Hash felt.Hash // populated once sealed; zero for a pending block
}

// Block is (header, body); body is an ordered sequence of TxWithHash.
type Block struct {
	Header Header
	Body []TxWithHash
	Status BlockStatus
}

// BlockBodyIndex is the BlockBodyIndices table value.
type BlockBodyIndex struct {
	FirstTxNumber TxNumber
	TxCount uint64
}

// BlockIDKind tags BlockIdOrTag.
type BlockIDKind uint8

const (
	BlockIDHash BlockIDKind = iota
	BlockIDNumber
	BlockIDLatest
	BlockIDPreConfirmed
)

// BlockIDOrTag selects a block by hash, number, "latest", or the
// pre-confirmed pending block.
type BlockIDOrTag struct {
	Kind BlockIDKind
	Hash felt.Hash
	Number BlockNumber
}
