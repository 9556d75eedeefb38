package optimistic

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/starknet-sequencer/sequencer/core/state"
	"github.com/starknet-sequencer/sequencer/executor"
	"github.com/starknet-sequencer/sequencer/felt"
	"github.com/starknet-sequencer/sequencer/types"
)

// fakeExecutor and fakeFactory let tests control whether a speculative
// execution succeeds or fails without a real VM binding.
type fakeExecutor struct {
	result types.ExecutionResult
	updates *types.StateUpdates
	receipt types.Receipt
	err error
}

func (f fakeExecutor) Execute(ctx context.Context, tx types.Transaction) (types.ExecutionResult, *types.StateUpdates, types.Receipt, error) {
	return f.result, f.updates, f.receipt, f.err
}

type fakeFactory struct {
	exec fakeExecutor
	calls int
}

func (f *fakeFactory) New(st state.StateProvider, env executor.BlockEnv) executor.Executor {
	f.calls++
	return f.exec
}

// fakePool records RemoveByHash calls.
type fakePool struct {
	removed []felt.Hash
}

func (p *fakePool) RemoveByHash(hash felt.Hash) {
	p.removed = append(p.removed, hash)
}

func newTestActor(factory *fakeFactory, pool *fakePool) *Actor {
	base := &countingProviderStub{}
	pending := make(chan types.PendingTx)
	return New(pool, base, factory, pending, executor.BlockEnv{Number: 1}, nil)
}

// countingProviderStub is a minimal zero-value StateProvider good enough to
// seed a CachedStateProvider overlay in these tests.
type countingProviderStub struct{}

func (countingProviderStub) Nonce(ctx context.Context, addr felt.ContractAddress) (types.Nonce, error) {
	return felt.Zero, nil
}
func (countingProviderStub) Storage(ctx context.Context, addr felt.ContractAddress, key felt.StorageKey) (felt.StorageValue, error) {
	return felt.Zero, nil
}
func (countingProviderStub) ClassHash(ctx context.Context, addr felt.ContractAddress) (felt.ClassHash, error) {
	return felt.Zero, nil
}
func (countingProviderStub) Class(ctx context.Context, hash felt.ClassHash) (*types.ContractClass, error) {
	return nil, nil
}
func (countingProviderStub) CompiledClassHash(ctx context.Context, hash felt.ClassHash) (felt.CompiledClassHash, error) {
	return felt.Zero, nil
}
func (countingProviderStub) Close() error { return nil }

func TestActorExecuteOneSuccessRecordsAndRemoves(t *testing.T) {
	updates := types.NewStateUpdates()
	updates.NonceUpdates[felt.FromUint64(1)] = felt.FromUint64(5)

	factory := &fakeFactory{exec: fakeExecutor{
		result: types.ExecutionResult{Status: types.Succeeded},
		updates: updates,
	}}
	pool := &fakePool{}
	a := newTestActor(factory, pool)

	ptx := types.PendingTx{TxHash: felt.FromUint64(42), Tx: types.Transaction{Sender: felt.FromUint64(1)}}
	a.executeOne(context.Background(), ptx)

	twh, result, ok := a.shared.Lookup(felt.FromUint64(42))
	require.True(t, ok)
	require.Equal(t, felt.FromUint64(42), twh.Hash)
	require.Equal(t, types.Succeeded, result.Status)

	require.Equal(t, []felt.Hash{felt.FromUint64(42)}, pool.removed)

	n, err := a.shared.State.Nonce(context.Background(), felt.FromUint64(1))
	require.NoError(t, err)
	require.Equal(t, felt.FromUint64(5), n, "merged state update must be visible through the shared overlay")
}

func TestActorExecuteOneFailureSkipsAndDoesNotRemove(t *testing.T) {
	factory := &fakeFactory{exec: fakeExecutor{err: errors.New("vm failure")}}
	pool := &fakePool{}
	a := newTestActor(factory, pool)

	ptx := types.PendingTx{TxHash: felt.FromUint64(7)}
	a.executeOne(context.Background(), ptx)

	_, _, ok := a.shared.Lookup(felt.FromUint64(7))
	require.False(t, ok)
	require.Empty(t, pool.removed)
}

func TestSharedStateTransactionsOrderAndRemoveHashes(t *testing.T) {
	s := newSharedState(countingProviderStub{})
	s.append(executedTx{tx: types.TxWithHash{Hash: felt.FromUint64(1)}})
	s.append(executedTx{tx: types.TxWithHash{Hash: felt.FromUint64(2)}})
	s.append(executedTx{tx: types.TxWithHash{Hash: felt.FromUint64(3)}})

	txs := s.Transactions()
	require.Len(t, txs, 3)
	require.Equal(t, felt.FromUint64(1), txs[0].Hash)
	require.Equal(t, felt.FromUint64(3), txs[2].Hash)

	s.removeHashes(map[felt.Hash]struct{}{felt.FromUint64(2): {}})
	remaining := s.Transactions()
	require.Len(t, remaining, 2)
	require.Equal(t, felt.FromUint64(1), remaining[0].Hash)
	require.Equal(t, felt.FromUint64(3), remaining[1].Hash)
}

func TestActorSetBlockEnvIsVisibleToCurrentBlockEnv(t *testing.T) {
	a := newTestActor(&fakeFactory{}, &fakePool{})
	a.SetBlockEnv(executor.BlockEnv{Number: 99})
	require.Equal(t, types.BlockNumber(99), a.currentBlockEnv().Number)
}
