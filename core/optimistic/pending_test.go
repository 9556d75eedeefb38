package optimistic

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/starknet-sequencer/sequencer/felt"
	"github.com/starknet-sequencer/sequencer/types"
)

type fakeUpstreamClient struct {
	block *types.Block
	err error
}

func (f fakeUpstreamClient) LatestBlock(ctx context.Context) (*types.Block, error) {
	return f.block, f.err
}

func TestGetPendingTransactionHitsActorOverlay(t *testing.T) {
	a := newTestActor(&fakeFactory{}, &fakePool{})
	a.shared.append(executedTx{tx: types.TxWithHash{Hash: felt.FromUint64(1), Tx: types.Transaction{Sender: felt.FromUint64(9)}}})

	p := NewOptimisticPendingBlockProvider(a, fakeUpstreamClient{})
	twh, ok, err := p.GetPendingTransaction(context.Background(), felt.FromUint64(1))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, felt.FromUint64(9), twh.Tx.Sender)
}

func TestGetPendingTransactionFallsBackToUpstream(t *testing.T) {
	a := newTestActor(&fakeFactory{}, &fakePool{})
	block := &types.Block{Body: []types.TxWithHash{{Hash: felt.FromUint64(5)}}}
	p := NewOptimisticPendingBlockProvider(a, fakeUpstreamClient{block: block})

	twh, ok, err := p.GetPendingTransaction(context.Background(), felt.FromUint64(5))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, felt.FromUint64(5), twh.Hash)
}

func TestGetPendingTransactionMissingEverywhere(t *testing.T) {
	a := newTestActor(&fakeFactory{}, &fakePool{})
	p := NewOptimisticPendingBlockProvider(a, fakeUpstreamClient{block: &types.Block{}})

	_, ok, err := p.GetPendingTransaction(context.Background(), felt.FromUint64(1))
	require.NoError(t, err)
	require.False(t, ok)
}

func TestGetPendingReceiptHitsActorOverlay(t *testing.T) {
	a := newTestActor(&fakeFactory{}, &fakePool{})
	a.shared.append(executedTx{
		tx: types.TxWithHash{Hash: felt.FromUint64(2)},
		result: types.ExecutionResult{Status: types.Reverted},
	})

	p := NewOptimisticPendingBlockProvider(a, fakeUpstreamClient{})
	r, ok, err := p.GetPendingReceipt(context.Background(), felt.FromUint64(2))
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, types.Reverted, r.ExecutionResult.Status)
}

func TestGetPendingBlockWithTxHashesPrefersOverlay(t *testing.T) {
	a := newTestActor(&fakeFactory{}, &fakePool{})
	a.shared.append(executedTx{tx: types.TxWithHash{Hash: felt.FromUint64(3)}})

	p := NewOptimisticPendingBlockProvider(a, fakeUpstreamClient{block: &types.Block{Body: []types.TxWithHash{{Hash: felt.FromUint64(4)}}}})
	hashes, err := p.GetPendingBlockWithTxHashes(context.Background())
	require.NoError(t, err)
	require.Equal(t, []felt.Hash{felt.FromUint64(3)}, hashes)
}

func TestGetPendingBlockWithTxHashesFallsBackWhenOverlayEmpty(t *testing.T) {
	a := newTestActor(&fakeFactory{}, &fakePool{})
	p := NewOptimisticPendingBlockProvider(a, fakeUpstreamClient{block: &types.Block{Body: []types.TxWithHash{{Hash: felt.FromUint64(4)}}}})

	hashes, err := p.GetPendingBlockWithTxHashes(context.Background())
	require.NoError(t, err)
	require.Equal(t, []felt.Hash{felt.FromUint64(4)}, hashes)
}

func TestGetPendingTransactionByIndex(t *testing.T) {
	a := newTestActor(&fakeFactory{}, &fakePool{})
	a.shared.append(executedTx{tx: types.TxWithHash{Hash: felt.FromUint64(1)}})
	a.shared.append(executedTx{tx: types.TxWithHash{Hash: felt.FromUint64(2)}})

	p := NewOptimisticPendingBlockProvider(a, fakeUpstreamClient{})
	twh, ok := p.GetPendingTransactionByIndex(1)
	require.True(t, ok)
	require.Equal(t, felt.FromUint64(2), twh.Hash)

	_, ok = p.GetPendingTransactionByIndex(5)
	require.False(t, ok)
}
