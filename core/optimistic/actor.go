// Package optimistic implements the optimistic executor actor: a
// single-threaded cooperative loop that races ahead of the canonical block
// producer, executing pool transactions speculatively against a
// copy-on-write state overlay so RPC reads can observe their effect before
// the block producer ever seals them.
package optimistic

import (
	"context"
	"sync"

	"github.com/starknet-sequencer/sequencer/core/state"
	"github.com/starknet-sequencer/sequencer/executor"
	"github.com/starknet-sequencer/sequencer/felt"
	"github.com/starknet-sequencer/sequencer/internal/logging"
	"github.com/starknet-sequencer/sequencer/metrics"
	"github.com/starknet-sequencer/sequencer/types"
)

// RemovableByHash is the pool capability the actor drives once a
// speculatively-executed tx has been recorded, so it is not picked up and
// re-executed on a later pass.
type RemovableByHash interface {
	RemoveByHash(hash felt.Hash)
}

// SharedState is the optimistic_state: a CachedStateProvider copy-on-write
// overlay plus the ordered (tx, result) list accumulated so far. The overlay
// is guarded by the cache's own lock and the list by mu, so a PendingBlockProvider
// (OptimisticPendingBlockProvider) can read concurrently with the actor's
// single writer.
type SharedState struct {
	mu sync.RWMutex
	State *state.CachedStateProvider

	transactions []executedTx
}

type executedTx struct {
	tx types.TxWithHash
	result types.ExecutionResult
}

func newSharedState(base state.StateProvider) *SharedState {
	return &SharedState{State: state.NewCachedStateProvider(base)}
}

// Transactions returns the speculative (tx, result) pairs accumulated so
// far, in execution order.
func (s *SharedState) Transactions() []types.TxWithHash {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.TxWithHash, len(s.transactions))
	for i, e := range s.transactions {
		out[i] = e.tx
	}
	return out
}

// Lookup finds a speculatively-executed tx by hash.
func (s *SharedState) Lookup(hash felt.Hash) (types.TxWithHash, types.ExecutionResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, e := range s.transactions {
		if e.tx.Hash == hash {
			return e.tx, e.result, true
		}
	}
	return types.TxWithHash{}, types.ExecutionResult{}, false
}

func (s *SharedState) append(e executedTx) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions = append(s.transactions, e)
}

// removeHashes drops every entry whose hash is in hashes, the prune step run
// after a block commits.
func (s *SharedState) removeHashes(hashes map[felt.Hash]struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.transactions[:0]
	for _, e := range s.transactions {
		if _, dead := hashes[e.tx.Hash]; !dead {
			out = append(out, e)
		}
	}
	s.transactions = out
}

// Actor runs the speculative-execution loop against one pool subscription.
// One Actor instance is single-threaded: Run must not be called
// concurrently with itself.
type Actor struct {
	pool RemovableByHash
	storage state.StateProvider // latest_state; the base of the shared overlay, wrapped once in New
	factory executor.Factory
	pending <-chan types.PendingTx

	mu sync.RWMutex
	blockEnv executor.BlockEnv

	shared *SharedState

	log logging.Logger
}

// New constructs an Actor. storage supplies latest_state for each dispatched
// task; pending is the pool's subscription stream from Pool.Subscribe(). A
// nil log falls back to a package-scoped default.
func New(pool RemovableByHash, storage state.StateProvider, factory executor.Factory, pending <-chan types.PendingTx, initialEnv executor.BlockEnv, log logging.Logger) *Actor {
	if log == nil {
		log = logging.New("optimistic")
	}
	return &Actor{
		pool: pool, storage: storage, factory: factory, pending: pending,
		blockEnv: initialEnv, shared: newSharedState(storage), log: log,
	}
}

// SetBlockEnv rewrites the shared block env; the pruning task calls it on
// each canonical-block tick.
func (a *Actor) SetBlockEnv(env executor.BlockEnv) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.blockEnv = env
}

func (a *Actor) currentBlockEnv() executor.BlockEnv {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.blockEnv
}

// State exposes the shared optimistic overlay for OptimisticPendingBlockProvider.
func (a *Actor) State() *SharedState { return a.shared }

// Run drives the actor until ctx is cancelled or pending closes. Each
// iteration runs one dispatched task to completion before polling pending
// again, since Go channels already serialize the loop without a separate
// "is a task running" flag.
func (a *Actor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ptx, ok := <-a.pending:
			if !ok {
				return
			}
			a.executeOne(ctx, ptx)
		}
	}
}

// executeOne speculatively executes one pool transaction against the
// shared cached overlay, recording the result and dropping the tx from the
// pool on success. A VM failure is logged and skipped, not retried: one
// pathological tx must not stall the actor.
func (a *Actor) executeOne(ctx context.Context, ptx types.PendingTx) {
	env := a.currentBlockEnv()
	cached := a.shared.State

	exec := a.factory.New(cached, env)
	result, updates, _, err := exec.Execute(ctx, ptx.Tx)
	if err != nil {
		metrics.OptimisticExecutions.WithLabelValues("failed").Inc()
		a.log.Warn("optimistic execution failed", "tx", ptx.TxHash.Hex(), "err", err)
		return
	}
	metrics.OptimisticExecutions.WithLabelValues("executed").Inc()

	cached.MergeStateUpdates(updates)
	a.shared.append(executedTx{tx: types.TxWithHash{Hash: ptx.TxHash, Tx: ptx.Tx}, result: result})
	a.pool.RemoveByHash(ptx.TxHash)
}
