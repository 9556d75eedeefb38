package optimistic

import (
	"context"

	"github.com/starknet-sequencer/sequencer/felt"
	"github.com/starknet-sequencer/sequencer/types"
)

// OptimisticPendingBlockProvider answers pending-state RPC queries by
// checking the optimistic overlay first, then falling back to an upstream
// client.
type OptimisticPendingBlockProvider struct {
	actor *Actor
	upstream UpstreamClient
}

// NewOptimisticPendingBlockProvider wires actor's speculative state ahead of
// upstream as the read path for pending queries.
func NewOptimisticPendingBlockProvider(actor *Actor, upstream UpstreamClient) *OptimisticPendingBlockProvider {
	return &OptimisticPendingBlockProvider{actor: actor, upstream: upstream}
}

// GetPendingTransaction returns the speculative execution of hash if the
// actor has already run it, else falls back to upstream's latest block.
func (o *OptimisticPendingBlockProvider) GetPendingTransaction(ctx context.Context, hash felt.Hash) (types.TxWithHash, bool, error) {
	if twh, _, ok := o.actor.State().Lookup(hash); ok {
		return twh, true, nil
	}
	block, err := o.upstream.LatestBlock(ctx)
	if err != nil || block == nil {
		return types.TxWithHash{}, false, err
	}
	for _, twh := range block.Body {
		if twh.Hash == hash {
			return twh, true, nil
		}
	}
	return types.TxWithHash{}, false, nil
}

// GetPendingReceipt returns the speculative receipt for hash, synthesized
// from the actor's recorded ExecutionResult. A hash not in the overlay is
// reported as not found: upstream's latest block is fetched only so its
// error is returned, and no receipt is ever taken from upstream.
func (o *OptimisticPendingBlockProvider) GetPendingReceipt(ctx context.Context, hash felt.Hash) (types.Receipt, bool, error) {
	if twh, result, ok := o.actor.State().Lookup(hash); ok {
		return types.Receipt{TxHash: twh.Hash, ExecutionResult: result}, true, nil
	}
	block, err := o.upstream.LatestBlock(ctx)
	if err != nil || block == nil {
		return types.Receipt{}, false, err
	}
	return types.Receipt{}, false, nil
}

// GetPendingBlockWithTxHashes returns the optimistic overlay's accumulated
// transaction hashes; upstream is consulted only if the overlay is empty.
func (o *OptimisticPendingBlockProvider) GetPendingBlockWithTxHashes(ctx context.Context) ([]felt.Hash, error) {
	txs := o.actor.State().Transactions()
	if len(txs) > 0 {
		hashes := make([]felt.Hash, len(txs))
		for i, twh := range txs {
			hashes[i] = twh.Hash
		}
		return hashes, nil
	}
	block, err := o.upstream.LatestBlock(ctx)
	if err != nil || block == nil {
		return nil, err
	}
	hashes := make([]felt.Hash, len(block.Body))
	for i, twh := range block.Body {
		hashes[i] = twh.Hash
	}
	return hashes, nil
}

// GetPendingTransactionByIndex returns the i-th speculative transaction.
func (o *OptimisticPendingBlockProvider) GetPendingTransactionByIndex(i int) (types.TxWithHash, bool) {
	txs := o.actor.State().Transactions()
	if i < 0 || i >= len(txs) {
		return types.TxWithHash{}, false
	}
	return txs[i], true
}
