package txpool

import "github.com/starknet-sequencer/sequencer/types"

// PoolOrd assigns a priority to a transaction entering the pool; the
// ordered set compares priority descending, then id ascending. One method,
// in the same style as a table comparator.
type PoolOrd interface {
	Priority(tx types.Transaction, seq uint64) uint64
}

// FIFOOrd orders strictly by insertion sequence: earliest arrival wins.
// Priority must be descending-comparable, so it inverts the monotonic
// counter rather than using it directly.
type FIFOOrd struct{}

func (FIFOOrd) Priority(tx types.Transaction, seq uint64) uint64 {
	return ^seq // larger for smaller seq, so "descending priority" serves FIFO order
}

// TipOrd orders by the transaction's tip, highest first; ties fall back to
// id order via the pool's own tie-break.
type TipOrd struct{}

func (TipOrd) Priority(tx types.Transaction, seq uint64) uint64 {
	return tx.Tip
}
