// Package metrics exposes the node's Prometheus instrumentation:
// package-level collectors registered once, incremented inline by the
// components that own the events.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// PoolSize tracks the live pool-resident transaction count.
	PoolSize = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "sequencer",
		Subsystem: "pool",
		Name:      "size",
		Help:      "Number of pool-resident transactions.",
	})

	// PoolAdmitted counts transactions accepted into the pool, partitioned
	// by the validator's Outcome.
	PoolAdmitted = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sequencer",
		Subsystem: "pool",
		Name:      "admitted_total",
		Help:      "Transactions processed by add_transaction, by outcome.",
	}, []string{"outcome"})

	// BlocksProduced counts sealed blocks.
	BlocksProduced = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "sequencer",
		Subsystem: "producer",
		Name:      "blocks_total",
		Help:      "Blocks sealed by produce_block().",
	})

	// BlockProductionSeconds times one produce_block() call end to end.
	BlockProductionSeconds = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "sequencer",
		Subsystem: "producer",
		Name:      "block_seconds",
		Help:      "Wall-clock time spent sealing one block.",
		Buckets:   prometheus.DefBuckets,
	})

	// OptimisticExecutions counts speculative single-tx executions run by
	// the optimistic executor actor, by result.
	OptimisticExecutions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sequencer",
		Subsystem: "optimistic",
		Name:      "executions_total",
		Help:      "Speculative transaction executions, by result.",
	}, []string{"result"})

	// PrunedRows counts rows removed by the pruner, by table.
	PrunedRows = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "sequencer",
		Subsystem: "prune",
		Name:      "rows_total",
		Help:      "Rows removed by a prune run, by table.",
	}, []string{"table"})
)

func init() {
	prometheus.MustRegister(
		PoolSize,
		PoolAdmitted,
		BlocksProduced,
		BlockProductionSeconds,
		OptimisticExecutions,
		PrunedRows,
	)
}
