package producer

import (
	"context"
	"sync"
	"time"

	"github.com/starknet-sequencer/sequencer/core/state"
	"github.com/starknet-sequencer/sequencer/executor"
	"github.com/starknet-sequencer/sequencer/felt"
	"github.com/starknet-sequencer/sequencer/types"
)

// PendingBlockProvider is the read surface RPC drives against a growing
// pending block while interval mode holds it open.
type PendingBlockProvider interface {
	PendingState() (executor.BlockEnv, []types.TxWithHash, []types.Receipt)
	PendingTransaction(hash felt.Hash) (types.TxWithHash, bool)
	PendingReceipt(hash felt.Hash) (types.Receipt, bool)
	PendingTransactionByIndex(i int) (types.TxWithHash, bool)
}

// previewInterval bounds how often the standing executor re-drains the pool
// to pick up transactions admitted since the last preview pass. It runs
// independently of (and much more often than) the sealing cadence.
const previewInterval = 200 * time.Millisecond

// IntervalProducer runs the interval-mode protocol: a background cooperative
// task holds a long-lived VM executor keyed to a growing pending block,
// sealing it exactly as instant mode does on a fixed cadence or an explicit
// trigger. Between seals it re-drains the pool on previewInterval and
// executes newly-seen transactions against a standing copy-on-write overlay,
// so PendingState/PendingTransaction reflect the block as it is being built
// instead of only ever showing the last sealed (i.e. now empty) result.
//
// The preview pass never removes transactions from the pool — only the
// seal's own ProduceBlock call does that, on commit — so a transaction
// previewed here is still guaranteed to be drained and actually included
// when the next seal runs.
type IntervalProducer struct {
	p *Producer
	interval time.Duration

	mu sync.RWMutex
	pending []types.TxWithHash
	receipts []types.Receipt
	env executor.BlockEnv
	overlay *state.CachedStateProvider

	trigger chan struct{}
}

var _ PendingBlockProvider = (*IntervalProducer)(nil)

// NewIntervalProducer wraps p to seal on a fixed cadence instead of per
// call; p.ProduceBlock still performs the actual seal, so the two modes
// share every invariant about commit atomicity and pool notification.
func NewIntervalProducer(p *Producer, interval time.Duration) *IntervalProducer {
	return &IntervalProducer{p: p, interval: interval, env: p.CurrentEnv(), trigger: make(chan struct{}, 1)}
}

// Trigger requests an out-of-cadence seal, e.g. when the pending block reaches a size limit.
func (ip *IntervalProducer) Trigger() {
	select {
	case ip.trigger <- struct{}{}:
	default:
	}
}

// Run drives the interval loop until ctx is cancelled. A fixed-cadence
// ticker (or an explicit Trigger) seals the pending block exactly as
// instant mode does; a faster previewInterval ticker runs the standing
// executor forward so reads in between seals see a growing pending block
// rather than a stale, always-empty one.
func (ip *IntervalProducer) Run(ctx context.Context) {
	ticker := time.NewTicker(ip.interval)
	defer ticker.Stop()
	preview := time.NewTicker(previewInterval)
	defer preview.Stop()

	for {
		select {
		case <-ctx.Done():
			ip.closeOverlay()
			return
		case <-ticker.C:
			ip.seal(ctx)
		case <-ip.trigger:
			ip.seal(ctx)
		case <-preview.C:
			ip.accumulate(ctx)
		}
	}
}

// seal commits the pending block via the shared Producer, then resets the
// preview overlay so the next accumulate pass starts from the freshly
// committed tip instead of replaying state the block already superseded.
func (ip *IntervalProducer) seal(ctx context.Context) {
	block, err := ip.p.ProduceBlock(ctx)
	if err != nil || block == nil {
		return
	}
	ip.resetOverlay()
}

// resetOverlay drops the standing executor overlay and clears the
// accumulated preview, pinning the next one to the producer's now-advanced
// block env.
func (ip *IntervalProducer) resetOverlay() {
	ip.mu.Lock()
	defer ip.mu.Unlock()
	if ip.overlay != nil {
		ip.overlay.Close()
		ip.overlay = nil
	}
	ip.pending = nil
	ip.receipts = nil
	ip.env = ip.p.CurrentEnv()
}

func (ip *IntervalProducer) closeOverlay() {
	ip.mu.Lock()
	defer ip.mu.Unlock()
	if ip.overlay != nil {
		ip.overlay.Close()
		ip.overlay = nil
	}
}

// accumulate re-drains the pool and executes every not-yet-previewed
// transaction against the standing overlay, recording the result into
// ip.pending/ip.receipts. It is the interval-mode analogue of the
// optimistic executor's executeOne, except it never removes a transaction
// from the pool: that stays the seal's job, so nothing previewed here can
// be lost if it is never actually sealed.
func (ip *IntervalProducer) accumulate(ctx context.Context) {
	overlay, env, err := ip.ensureOverlay(ctx)
	if err != nil || overlay == nil {
		return
	}

	drained := ip.p.pool.Drain(BatchSize)
	if len(drained) == 0 {
		return
	}

	ip.mu.RLock()
	seen := make(map[felt.Hash]struct{}, len(ip.pending))
	for _, twh := range ip.pending {
		seen[twh.Hash] = struct{}{}
	}
	ip.mu.RUnlock()

	exec := ip.p.factory.New(overlay, env)
	for _, ptx := range drained {
		if _, ok := seen[ptx.TxHash]; ok {
			continue
		}
		result, updates, receipt, err := exec.Execute(ctx, ptx.Tx)
		if err != nil {
			// Left in the pool; the seal's own execution pass will decide
			// its fate for real.
			continue
		}
		receipt.TxHash = ptx.TxHash
		receipt.ExecutionResult = result
		receipt.GasPrices = [3]types.GasPricePair{env.L1GasPrice, env.L1DataGasPrice, env.L2GasPrice}
		overlay.MergeStateUpdates(updates)

		ip.mu.Lock()
		ip.pending = append(ip.pending, types.TxWithHash{Hash: ptx.TxHash, Tx: ptx.Tx})
		ip.receipts = append(ip.receipts, receipt)
		ip.mu.Unlock()
	}
}

// ensureOverlay lazily opens the standing read-only snapshot + cache the
// first time a preview pass needs it, or after seal/resetOverlay dropped it.
func (ip *IntervalProducer) ensureOverlay(ctx context.Context) (*state.CachedStateProvider, executor.BlockEnv, error) {
	ip.mu.Lock()
	defer ip.mu.Unlock()
	if ip.overlay != nil {
		return ip.overlay, ip.env, nil
	}
	roTx, err := ip.p.db.BeginRo(ctx)
	if err != nil {
		return nil, executor.BlockEnv{}, err
	}
	ip.overlay = state.NewCachedStateProvider(state.NewLatestStateProvider(roTx))
	ip.env = ip.p.CurrentEnv()
	return ip.overlay, ip.env, nil
}

// PendingState returns the current block env and the transactions/receipts
// accumulated so far in the pending block.
func (ip *IntervalProducer) PendingState() (executor.BlockEnv, []types.TxWithHash, []types.Receipt) {
	ip.mu.RLock()
	defer ip.mu.RUnlock()
	return ip.env, append([]types.TxWithHash(nil), ip.pending...), append([]types.Receipt(nil), ip.receipts...)
}

func (ip *IntervalProducer) PendingTransaction(hash felt.Hash) (types.TxWithHash, bool) {
	ip.mu.RLock()
	defer ip.mu.RUnlock()
	for _, twh := range ip.pending {
		if twh.Hash == hash {
			return twh, true
		}
	}
	return types.TxWithHash{}, false
}

func (ip *IntervalProducer) PendingReceipt(hash felt.Hash) (types.Receipt, bool) {
	ip.mu.RLock()
	defer ip.mu.RUnlock()
	for _, r := range ip.receipts {
		if r.TxHash == hash {
			return r, true
		}
	}
	return types.Receipt{}, false
}

func (ip *IntervalProducer) PendingTransactionByIndex(i int) (types.TxWithHash, bool) {
	ip.mu.RLock()
	defer ip.mu.RUnlock()
	if i < 0 || i >= len(ip.pending) {
		return types.TxWithHash{}, false
	}
	return ip.pending[i], true
}
