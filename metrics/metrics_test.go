package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestPoolSizeGaugeReportsSetValue(t *testing.T) {
	PoolSize.Set(7)
	require.Equal(t, float64(7), testutil.ToFloat64(PoolSize))
}

func TestPoolAdmittedCountsByOutcomeLabel(t *testing.T) {
	PoolAdmitted.Reset()
	PoolAdmitted.WithLabelValues("valid").Inc()
	PoolAdmitted.WithLabelValues("valid").Inc()
	PoolAdmitted.WithLabelValues("invalid").Inc()

	require.Equal(t, float64(2), testutil.ToFloat64(PoolAdmitted.WithLabelValues("valid")))
	require.Equal(t, float64(1), testutil.ToFloat64(PoolAdmitted.WithLabelValues("invalid")))
}

func TestBlocksProducedCounterIncrements(t *testing.T) {
	before := testutil.ToFloat64(BlocksProduced)
	BlocksProduced.Inc()
	require.Equal(t, before+1, testutil.ToFloat64(BlocksProduced))
}

func TestOptimisticExecutionsPartitionsByResult(t *testing.T) {
	OptimisticExecutions.Reset()
	OptimisticExecutions.WithLabelValues("executed").Inc()
	OptimisticExecutions.WithLabelValues("failed").Inc()
	OptimisticExecutions.WithLabelValues("failed").Inc()

	require.Equal(t, float64(1), testutil.ToFloat64(OptimisticExecutions.WithLabelValues("executed")))
	require.Equal(t, float64(2), testutil.ToFloat64(OptimisticExecutions.WithLabelValues("failed")))
}

func TestPrunedRowsPartitionsByTable(t *testing.T) {
	PrunedRows.Reset()
	PrunedRows.WithLabelValues("classes_trie_history").Add(12)

	require.Equal(t, float64(12), testutil.ToFloat64(PrunedRows.WithLabelValues("classes_trie_history")))
}
