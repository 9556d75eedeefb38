package optimistic

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/starknet-sequencer/sequencer/felt"
	"github.com/starknet-sequencer/sequencer/types"
)

func TestPruneTaskTickRemovesConfirmedAndRewritesBlockEnv(t *testing.T) {
	a := newTestActor(&fakeFactory{}, &fakePool{})
	a.shared.append(executedTx{tx: types.TxWithHash{Hash: felt.FromUint64(1)}})
	a.shared.append(executedTx{tx: types.TxWithHash{Hash: felt.FromUint64(2)}})

	block := &types.Block{
		Header: types.Header{Number: 10, Timestamp: 123, SequencerAddress: felt.FromUint64(7)},
		Body: []types.TxWithHash{{Hash: felt.FromUint64(1)}},
	}
	task := NewPruneTask(a, fakeUpstreamClient{block: block}, 0)
	task.tick(context.Background())

	remaining := a.shared.Transactions()
	require.Len(t, remaining, 1)
	require.Equal(t, felt.FromUint64(2), remaining[0].Hash)

	env := a.currentBlockEnv()
	require.Equal(t, types.BlockNumber(11), env.Number)
	require.Equal(t, uint64(123), env.Timestamp)
	require.Equal(t, felt.FromUint64(7), env.SequencerAddress)
}

// flakyUpstreamClient fails the first failUntil calls, then returns block.
type flakyUpstreamClient struct {
	failUntil int
	calls int
	block *types.Block
}

func (f *flakyUpstreamClient) LatestBlock(ctx context.Context) (*types.Block, error) {
	f.calls++
	if f.calls <= f.failUntil {
		return nil, errors.New("transient upstream hiccup")
	}
	return f.block, nil
}

func TestPruneTaskTickRetriesTransientUpstreamErrorThenSucceeds(t *testing.T) {
	a := newTestActor(&fakeFactory{}, &fakePool{})
	block := &types.Block{Header: types.Header{Number: 10}}
	upstream := &flakyUpstreamClient{failUntil: 2, block: block}

	task := NewPruneTask(a, upstream, 0)
	task.tick(context.Background())

	require.Greater(t, upstream.calls, 2, "tick must retry past the transient failures")
	require.Equal(t, types.BlockNumber(11), a.currentBlockEnv().Number, "tick must still succeed once the upstream recovers")
}

func TestPruneTaskTickNoopWhenUpstreamErrors(t *testing.T) {
	a := newTestActor(&fakeFactory{}, &fakePool{})
	a.shared.append(executedTx{tx: types.TxWithHash{Hash: felt.FromUint64(1)}})

	task := NewPruneTask(a, fakeUpstreamClient{err: context.Canceled}, 0)
	task.tick(context.Background())

	require.Len(t, a.shared.Transactions(), 1)
	require.Equal(t, types.BlockNumber(1), a.currentBlockEnv().Number, "a failed upstream poll must not rewrite the block env")
}
