// Package txpool implements the transaction pool: an ordered, nonce-aware
// admission queue with a pluggable ordering strategy and a notification
// fan-out, grounded on the event.Feed-guarded-by-one-RWMutex shape of
// ethereum/go-ethereum's core/txpool.TxPool.
package txpool

import (
	"context"
	"sort"
	"strconv"
	"sync"

	"github.com/starknet-sequencer/sequencer/felt"
	"github.com/starknet-sequencer/sequencer/metrics"
	"github.com/starknet-sequencer/sequencer/types"
)

func outcomeLabel(k OutcomeKind) string {
	switch k {
	case OutcomeValid:
		return "valid"
	case OutcomeDependent:
		return "dependent"
	case OutcomeInvalid:
		return "invalid"
	default:
		return strconv.Itoa(int(k))
	}
}

// listenerQueueSize is the bound on hash-broadcast listener channels;
// beyond it a slow listener drops the newest hash rather than blocking the
// pool.
const listenerQueueSize = 2048

// entry is one pool-resident transaction plus the bookkeeping its ordered
// position needs.
type entry struct {
	tx types.PendingTx
	priority uint64
	seq uint64
}

// Pool is the single in-memory, RW-lock-guarded transaction pool.
// The zero value is not usable; construct with NewPool.
type Pool struct {
	mu sync.RWMutex

	ord PoolOrd

	byID map[types.TxID]*entry
	byTx map[felt.Hash]*entry

	// poolNonces accelerates get_nonce(sender) in O(1); it MUST be cleared
	// entirely on every update() call.
	poolNonces map[felt.ContractAddress]types.Nonce

	nextSeq uint64

	listeners []chan felt.Hash
	subscribers []chan types.PendingTx

	validatorFactory func() Validator
}

// NewPool constructs an empty pool using ord for prioritization.
// validatorFactory returns a fresh Validator bound to the pool's current
// state snapshot and block env; producers/RPC call Pool.AddTransaction,
// which drives it.
func NewPool(ord PoolOrd, validatorFactory func() Validator) *Pool {
	return &Pool{
		ord: ord,
		byID: make(map[types.TxID]*entry),
		byTx: make(map[felt.Hash]*entry),
		poolNonces: make(map[felt.ContractAddress]types.Nonce),
		validatorFactory: validatorFactory,
	}
}

// GetNonce serves get_nonce(sender) in O(1) off the pool_nonces
// accelerator, falling back to ok=false when the sender has no
// pool-resident transaction.
func (p *Pool) GetNonce(sender felt.ContractAddress) (types.Nonce, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	n, ok := p.poolNonces[sender]
	return n, ok
}

// SetPoolNonce records the next nonce expected from sender (one past the
// highest nonce the validator has accepted this block), the write half of
// the pool_nonces accelerator. Exposed
// so a Validator constructed outside this package (core/producer's
// validator factory) can still route through the pool's own lock.
func (p *Pool) SetPoolNonce(sender felt.ContractAddress, nonce types.Nonce) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.poolNonces[sender] = nonce
}

// AddTransaction runs the admission protocol: validate, then admit into the
// ordered set and notify subscribers.
func (p *Pool) AddTransaction(ctx context.Context, tx types.Transaction, hash felt.Hash) (felt.Hash, error) {
	validator := p.validatorFactory()
	outcome, err := validator.Validate(ctx, tx)
	if err != nil {
		return felt.Hash{}, err
	}
	metrics.PoolAdmitted.WithLabelValues(outcomeLabel(outcome.Kind)).Inc()

	switch outcome.Kind {
	case OutcomeDependent:
		return felt.Hash{}, ErrInvalidNonce
	case OutcomeInvalid:
		return felt.Hash{}, outcome.Err
	}

	id := tx.ID()
	p.mu.Lock()
	p.nextSeq++
	seq := p.nextSeq
	priority := p.ord.Priority(tx, seq)
	e := &entry{
		tx: types.PendingTx{ID: id, TxHash: hash, Tx: tx, Priority: priority},
		priority: priority,
		seq: seq,
	}
	p.byID[id] = e
	p.byTx[hash] = e
	metrics.PoolSize.Set(float64(len(p.byID)))
	listeners := append([]chan felt.Hash(nil), p.listeners...)
	subscribers := append([]chan types.PendingTx(nil), p.subscribers...)
	p.mu.Unlock()

	p.notify(listeners, subscribers, hash, e.tx)
	return hash, nil
}

// notify fans hash/PendingTx out to listeners and subscribers without
// holding the pool lock. A full bounded listener channel drops the hash for
// that listener only; a subscriber whose buffer is full counts as a send
// failure and is removed from the pool here, after the fan-out.
func (p *Pool) notify(listeners []chan felt.Hash, subscribers []chan types.PendingTx, hash felt.Hash, tx types.PendingTx) {
	var deadListeners []chan felt.Hash
	for _, l := range listeners {
		select {
		case l <- hash:
		default:
			// bounded + full: drop for this listener only.
		}
	}
	var deadSubscribers []chan types.PendingTx
	for _, s := range subscribers {
		if !sendToSubscriber(s, tx) {
			deadSubscribers = append(deadSubscribers, s)
		}
	}
	if len(deadListeners) == 0 && len(deadSubscribers) == 0 {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listeners = pruneListeners(p.listeners, deadListeners)
	p.subscribers = pruneSubscribers(p.subscribers, deadSubscribers)
}

// sendToSubscriber delivers tx to a subscriber channel backed by a
// generous buffer standing in for "unbounded". A full buffer here means the subscriber has fallen far enough
// behind to count as a send failure, so it is removed.
func sendToSubscriber(s chan types.PendingTx, tx types.PendingTx) bool {
	select {
	case s <- tx:
		return true
	default:
		return false
	}
}

func pruneListeners(all, dead []chan felt.Hash) []chan felt.Hash {
	if len(dead) == 0 {
		return all
	}
	deadSet := make(map[chan felt.Hash]bool, len(dead))
	for _, d := range dead {
		deadSet[d] = true
	}
	out := all[:0]
	for _, c := range all {
		if !deadSet[c] {
			out = append(out, c)
		}
	}
	return out
}

func pruneSubscribers(all, dead []chan types.PendingTx) []chan types.PendingTx {
	if len(dead) == 0 {
		return all
	}
	deadSet := make(map[chan types.PendingTx]bool, len(dead))
	for _, d := range dead {
		deadSet[d] = true
	}
	out := all[:0]
	for _, c := range all {
		if !deadSet[c] {
			out = append(out, c)
		}
	}
	return out
}

// subscriberQueueSize stands in for "unbounded": generous enough that a
// healthy consumer never observes backpressure.
const subscriberQueueSize = 65536

// Subscribe registers a full-PendingTx broadcast channel.
func (p *Pool) Subscribe() chan types.PendingTx {
	p.mu.Lock()
	defer p.mu.Unlock()
	ch := make(chan types.PendingTx, subscriberQueueSize)
	p.subscribers = append(p.subscribers, ch)
	return ch
}

// Listen registers a bounded hash-broadcast listener channel.
func (p *Pool) Listen() chan felt.Hash {
	p.mu.Lock()
	defer p.mu.Unlock()
	ch := make(chan felt.Hash, listenerQueueSize)
	p.listeners = append(p.listeners, ch)
	return ch
}

// Drain returns up to max pool-resident transactions in priority order
// (descending priority, ascending id tie-break), the order the block
// producer executes them in.
// It does not remove them; callers remove by hash once committed.
func (p *Pool) Drain(max int) []types.PendingTx {
	p.mu.RLock()
	defer p.mu.RUnlock()

	entries := make([]*entry, 0, len(p.byID))
	for _, e := range p.byID {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].priority != entries[j].priority {
			return entries[i].priority > entries[j].priority
		}
		return entries[i].tx.ID.Less(entries[j].tx.ID)
	})
	if max > 0 && max < len(entries) {
		entries = entries[:max]
	}
	out := make([]types.PendingTx, len(entries))
	for i, e := range entries {
		out[i] = e.tx
	}
	return out
}

// RemoveByHash removes a committed transaction from the pool.
func (p *Pool) RemoveByHash(hash felt.Hash) {
	p.mu.Lock()
	defer p.mu.Unlock()
	e, ok := p.byTx[hash]
	if !ok {
		return
	}
	delete(p.byTx, hash)
	delete(p.byID, e.tx.ID)
	metrics.PoolSize.Set(float64(len(p.byID)))
}

// RemoveStale drops every pool entry whose nonce is now below
// stateNonce(sender), called at block commit to flush transactions the new
// state has already superseded.
func (p *Pool) RemoveStale(stateNonce func(felt.ContractAddress) types.Nonce) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for id, e := range p.byID {
		if id.Nonce.Cmp(stateNonce(id.Sender)) < 0 {
			delete(p.byID, id)
			delete(p.byTx, e.tx.TxHash)
		}
	}
	metrics.PoolSize.Set(float64(len(p.byID)))
}

// Update runs after a block commits: it clears pool_nonces entirely (a
// stale entry left behind here is a recurring regression class — never
// overwrite keys one by one, always rebuild the map from scratch), swaps in
// a fresh state snapshot and block env via newValidatorFactory, and finally
// drops stale entries against the new state.
func (p *Pool) Update(newValidatorFactory func() Validator, stateNonce func(felt.ContractAddress) types.Nonce) {
	p.mu.Lock()
	p.poolNonces = make(map[felt.ContractAddress]types.Nonce)
	p.validatorFactory = newValidatorFactory
	p.mu.Unlock()

	p.RemoveStale(stateNonce)
}
