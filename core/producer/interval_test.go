package producer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/starknet-sequencer/sequencer/felt"
	"github.com/starknet-sequencer/sequencer/types"
)

func TestIntervalProducerAccumulatePreviewsWithoutRemovingFromPool(t *testing.T) {
	pool := newFakePool()
	p := newTestProducer(t, pool)
	ip := NewIntervalProducer(p, 0)

	ptx := pendingTx(felt.FromUint64(1), 0)
	pool.queue(ptx)

	ip.accumulate(context.Background())

	twh, ok := ip.PendingTransaction(ptx.TxHash)
	require.True(t, ok, "accumulate must record the drained transaction in the pending preview")
	require.Equal(t, ptx.TxHash, twh.Hash)

	_, ok = ip.PendingReceipt(ptx.TxHash)
	require.True(t, ok)

	require.False(t, pool.removed[ptx.TxHash], "the preview pass must not remove the transaction from the pool")
}

func TestIntervalProducerAccumulateDoesNotReexecuteAlreadyPreviewedTx(t *testing.T) {
	pool := newFakePool()
	p := newTestProducer(t, pool)
	ip := NewIntervalProducer(p, 0)

	ptx := pendingTx(felt.FromUint64(1), 0)
	pool.queue(ptx)

	ip.accumulate(context.Background())
	ip.accumulate(context.Background())

	_, pending, receipts := ip.PendingState()
	require.Len(t, pending, 1, "a tx already previewed must not be executed again on the next accumulate pass")
	require.Len(t, receipts, 1)
}

func TestIntervalProducerSealResetsPreviewAndAdvancesEnv(t *testing.T) {
	pool := newFakePool()
	p := newTestProducer(t, pool)
	ip := NewIntervalProducer(p, 0)

	previewed := pendingTx(felt.FromUint64(1), 0)
	pool.queue(previewed)
	ip.accumulate(context.Background())
	_, pending, _ := ip.PendingState()
	require.Len(t, pending, 1)

	// seal() drives the real Producer.ProduceBlock, which drains and
	// commits the same queued transaction, advancing p's block number.
	ip.seal(context.Background())

	env, pending, receipts := ip.PendingState()
	require.Empty(t, pending, "seal must clear the preview once the block is actually committed")
	require.Empty(t, receipts)
	require.Equal(t, types.BlockNumber(1), env.Number, "the preview env must track the producer's advanced block number")
}
