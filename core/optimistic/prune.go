package optimistic

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/starknet-sequencer/sequencer/executor"
	"github.com/starknet-sequencer/sequencer/felt"
	"github.com/starknet-sequencer/sequencer/types"
)

// UpstreamClient is the minimal capability the pruning task and the pending
// block provider need from an upstream/canonical chain client.
type UpstreamClient interface {
	LatestBlock(ctx context.Context) (*types.Block, error)
}

// PruneTask is the optional block-polling task: every tick it fetches the
// latest canonical block and drops every optimistic tx that block already
// confirmed, then rewrites the actor's block env to the canonical one.
type PruneTask struct {
	actor *Actor
	upstream UpstreamClient
	interval time.Duration
}

// NewPruneTask constructs a prune task polling upstream every interval.
func NewPruneTask(actor *Actor, upstream UpstreamClient, interval time.Duration) *PruneTask {
	return &PruneTask{actor: actor, upstream: upstream, interval: interval}
}

// Run polls until ctx is cancelled.
func (t *PruneTask) Run(ctx context.Context) {
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.tick(ctx)
		}
	}
}

// upstreamBackoff bounds how long tick retries a transient upstream error:
// a handful of short exponential attempts, not a long stall that would
// delay the next scheduled tick.
func upstreamBackoff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 10 * time.Millisecond
	b.MaxElapsedTime = 100 * time.Millisecond
	return b
}

func (t *PruneTask) tick(ctx context.Context) {
	var block *types.Block
	err := backoff.Retry(func() error {
		b, err := t.upstream.LatestBlock(ctx)
		if err != nil {
			return err
		}
		block = b
		return nil
	}, backoff.WithContext(upstreamBackoff(), ctx))
	if err != nil || block == nil {
		return
	}

	hashes := make(map[felt.Hash]struct{}, len(block.Body))
	for _, twh := range block.Body {
		hashes[twh.Hash] = struct{}{}
	}
	t.actor.shared.removeHashes(hashes)

	t.actor.SetBlockEnv(executor.BlockEnv{
		Number: block.Header.Number + 1,
		Timestamp: block.Header.Timestamp,
		SequencerAddress: block.Header.SequencerAddress,
		L1GasPrice: block.Header.L1GasPrice,
		L1DataGasPrice: block.Header.L1DataGasPrice,
		L2GasPrice: block.Header.L2GasPrice,
		DAMode: block.Header.DAMode,
		StarknetVersion: block.Header.StarknetVersion,
	})
}
