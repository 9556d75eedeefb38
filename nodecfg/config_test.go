package nodecfg

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultEnablesAllValidation(t *testing.T) {
	cfg := Default()
	require.True(t, cfg.ExecutionFlags.AccountValidation)
	require.True(t, cfg.ExecutionFlags.Fee)
	require.True(t, cfg.ExecutionFlags.NonceCheck)
}

func TestDefaultUsesInstantProducer(t *testing.T) {
	cfg := Default()
	require.Equal(t, ModeInstant, cfg.ProducerMode)
}

func TestDefaultPrunerBatchSize(t *testing.T) {
	cfg := Default()
	require.Equal(t, 1000, cfg.Pruner.BatchSize)
	require.Equal(t, uint64(100_000), cfg.Pruner.KeepLastN)
}
