package types

import "github.com/starknet-sequencer/sequencer/felt"

// ExecutionStatus tags ExecutionResult.
type ExecutionStatus uint8

const (
	Succeeded ExecutionStatus = iota
	Reverted
)

// ExecutionResult is {Succeeded, Reverted{reason}}. Reverted
// is a successful consensus outcome, not an error.
type ExecutionResult struct {
	Status ExecutionStatus
	RevertReason string
}

// L2ToL1Message is one outgoing message queued for L1 settlement.
type L2ToL1Message struct {
	FromAddress felt.ContractAddress
	ToAddress felt.Felt
	Payload []felt.Felt
}

// Event is a single emitted Starknet event.
type Event struct {
	FromAddress felt.ContractAddress
	Keys []felt.Felt
	Data []felt.Felt
}

// ExecutionResources tracks VM step/builtin usage for a single execution,
// consumed through the TransactionExecutor capability and
// surfaced on the receipt for fee accounting.
type ExecutionResources struct {
	Steps uint64
	MemoryHoles uint64
	BuiltinCounters map[string]uint64
}

// Receipt is fee paid, events, L2->L1 messages, execution resources, and
// the execution result.
type Receipt struct {
	TxHash felt.Hash
	ActualFee felt.Felt
	FeeUnit string // "WEI" or "FRI"
	Events []Event
	Messages []L2ToL1Message
	Resources ExecutionResources
	ExecutionResult ExecutionResult
	GasPrices [3]GasPricePair // l1, l1-data, l2 — the env's prices at execution time
}
