package state

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/starknet-sequencer/sequencer/felt"
	"github.com/starknet-sequencer/sequencer/types"
)

// countingProvider wraps fixed values and counts how many times each method
// is called, so tests can assert the cache only reads through on a miss.
type countingProvider struct {
	nonce felt.Felt
	nonceCalls int
	closed bool
}

func (c *countingProvider) Nonce(ctx context.Context, addr felt.ContractAddress) (types.Nonce, error) {
	c.nonceCalls++
	return c.nonce, nil
}
func (c *countingProvider) Storage(ctx context.Context, addr felt.ContractAddress, key felt.StorageKey) (felt.StorageValue, error) {
	return felt.Zero, nil
}
func (c *countingProvider) ClassHash(ctx context.Context, addr felt.ContractAddress) (felt.ClassHash, error) {
	return felt.Zero, nil
}
func (c *countingProvider) Class(ctx context.Context, hash felt.ClassHash) (*types.ContractClass, error) {
	return nil, nil
}
func (c *countingProvider) CompiledClassHash(ctx context.Context, hash felt.ClassHash) (felt.CompiledClassHash, error) {
	return felt.Zero, nil
}
func (c *countingProvider) Close() error { c.closed = true; return nil }

func TestCachedStateProviderReadsThroughOnce(t *testing.T) {
	base := &countingProvider{nonce: felt.FromUint64(3)}
	c := NewCachedStateProvider(base)

	n1, err := c.Nonce(context.Background(), addr(1))
	require.NoError(t, err)
	n2, err := c.Nonce(context.Background(), addr(1))
	require.NoError(t, err)

	require.Equal(t, felt.FromUint64(3), n1)
	require.Equal(t, n1, n2)
	require.Equal(t, 1, base.nonceCalls)
}

func TestCachedStateProviderClearForcesRereadThrough(t *testing.T) {
	base := &countingProvider{nonce: felt.FromUint64(3)}
	c := NewCachedStateProvider(base)

	_, err := c.Nonce(context.Background(), addr(1))
	require.NoError(t, err)
	c.Clear()
	_, err = c.Nonce(context.Background(), addr(1))
	require.NoError(t, err)

	require.Equal(t, 2, base.nonceCalls)
}

func TestCachedStateProviderMergeStateUpdatesShadowsBase(t *testing.T) {
	base := &countingProvider{nonce: felt.FromUint64(1)}
	c := NewCachedStateProvider(base)

	updates := types.NewStateUpdates()
	updates.NonceUpdates[addr(1)] = felt.FromUint64(9)
	c.MergeStateUpdates(updates)

	n, err := c.Nonce(context.Background(), addr(1))
	require.NoError(t, err)
	require.Equal(t, felt.FromUint64(9), n)
	require.Zero(t, base.nonceCalls, "merged value must shadow the base read entirely")
}

func TestCachedStateProviderCloseClosesBase(t *testing.T) {
	base := &countingProvider{}
	c := NewCachedStateProvider(base)
	require.NoError(t, c.Close())
	require.True(t, base.closed)
}
