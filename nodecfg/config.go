// Package nodecfg enumerates the node's configuration surface as a flat
// struct of primitives; cmd/sequencer overrides a few of its fields from
// CLI flags at startup.
package nodecfg

import "time"

// ProducerMode selects instant vs interval block production.
type ProducerMode uint8

const (
	ModeInstant ProducerMode = iota
	ModeInterval
)

// PoolOrdering selects the transaction pool's priority strategy.
type PoolOrdering uint8

const (
	OrderingFIFO PoolOrdering = iota
	OrderingTip
)

// ExecutionFlagsCfg toggles the three validation behaviors an operator can
// relax.
type ExecutionFlagsCfg struct {
	AccountValidation bool
	Fee bool
	NonceCheck bool
}

// VersionedConstantsOverrides lets an operator override the VM's built-in
// resource ceilings.
type VersionedConstantsOverrides struct {
	InvokeTxMaxNSteps uint64
	ValidateMaxNSteps uint64
	MaxRecursionDepth uint64
}

// RPCLimits bounds the cost of a single RPC call.
type RPCLimits struct {
	MaxCallGas uint64
	MaxProofKeys uint64
	MaxEventPageSize uint64
	MaxConcurrentEstimateFeeRequests int
}

// PoolCfg configures the transaction pool.
type PoolCfg struct {
	Ordering PoolOrdering
	ListenerQueueSize int
}

// PrunerCfg configures the pruner's default KeepLastN mode.
type PrunerCfg struct {
	KeepLastN uint64
	BatchSize int
}

// ForkedCfg configures ForkedStateProvider.
type ForkedCfg struct {
	ForkURL string
	ForkBlockID string
}

// Config is the complete, enumerated node configuration. Default supplies
// every value; cmd/sequencer overrides DataDir, ProducerMode and
// ProducerInterval from its CLI flags.
type Config struct {
	DataDir string

	ProducerMode ProducerMode
	ProducerInterval time.Duration

	ExecutionFlags ExecutionFlagsCfg
	Constants VersionedConstantsOverrides
	RPC RPCLimits
	Pool PoolCfg
	Pruner PrunerCfg
	Forked ForkedCfg

	BlockPollInterval time.Duration // read by no component in this tree
}

// Default returns a Config with conservative defaults throughout, matching
// the one explicit value operators commonly rely on (batch_size=1000).
func Default() Config {
	return Config{
		ProducerMode: ModeInstant,
		ProducerInterval: 2 * time.Second,
		ExecutionFlags: ExecutionFlagsCfg{
			AccountValidation: true,
			Fee: true,
			NonceCheck: true,
		},
		Constants: VersionedConstantsOverrides{
			InvokeTxMaxNSteps: 4_000_000,
			ValidateMaxNSteps: 1_000_000,
			MaxRecursionDepth: 50,
		},
		RPC: RPCLimits{
			MaxCallGas: 1_000_000_000,
			MaxProofKeys: 10_000,
			MaxEventPageSize: 1024,
			MaxConcurrentEstimateFeeRequests: 16,
		},
		Pool: PoolCfg{
			Ordering: OrderingFIFO,
			ListenerQueueSize: 2048,
		},
		Pruner: PrunerCfg{
			KeepLastN: 100_000,
			BatchSize: 1000,
		},
		BlockPollInterval: 3 * time.Second,
	}
}
