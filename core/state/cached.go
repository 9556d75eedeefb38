package state

import (
	"context"
	"sync"

	"github.com/starknet-sequencer/sequencer/felt"
	"github.com/starknet-sequencer/sequencer/types"
)

// storageCacheKey flattens (address, key) into one map key for the storage
// overlay.
type storageCacheKey struct {
	addr felt.ContractAddress
	key felt.StorageKey
}

// CachedStateProvider wraps a base StateProvider with an in-memory,
// read-through cache guarded by a single RWMutex: a miss reads through to
// base and populates the cache; a hit never touches base again for the
// lifetime of the block being produced.
type CachedStateProvider struct {
	mu sync.RWMutex

	base StateProvider

	nonce map[felt.ContractAddress]types.Nonce
	storage map[storageCacheKey]felt.StorageValue
	classHash map[felt.ContractAddress]felt.ClassHash
	class map[felt.ClassHash]*types.ContractClass
	compiledClassHash map[felt.ClassHash]felt.CompiledClassHash
}

var _ StateProvider = (*CachedStateProvider)(nil)
var _ ResettableCache = (*CachedStateProvider)(nil)

// NewCachedStateProvider wraps base in a read-through cache. base is owned
// by the cache and released on Close.
func NewCachedStateProvider(base StateProvider) *CachedStateProvider {
	return &CachedStateProvider{
		base: base,
		nonce: make(map[felt.ContractAddress]types.Nonce),
		storage: make(map[storageCacheKey]felt.StorageValue),
		classHash: make(map[felt.ContractAddress]felt.ClassHash),
		class: make(map[felt.ClassHash]*types.ContractClass),
		compiledClassHash: make(map[felt.ClassHash]felt.CompiledClassHash),
	}
}

func (c *CachedStateProvider) Close() error { return c.base.Close() }

func (c *CachedStateProvider) Nonce(ctx context.Context, addr felt.ContractAddress) (types.Nonce, error) {
	c.mu.RLock()
	if v, ok := c.nonce[addr]; ok {
		c.mu.RUnlock()
		return v, nil
	}
	c.mu.RUnlock()

	v, err := c.base.Nonce(ctx, addr)
	if err != nil {
		return felt.Zero, err
	}
	c.mu.Lock()
	c.nonce[addr] = v
	c.mu.Unlock()
	return v, nil
}

func (c *CachedStateProvider) Storage(ctx context.Context, addr felt.ContractAddress, key felt.StorageKey) (felt.StorageValue, error) {
	sk := storageCacheKey{addr, key}
	c.mu.RLock()
	if v, ok := c.storage[sk]; ok {
		c.mu.RUnlock()
		return v, nil
	}
	c.mu.RUnlock()

	v, err := c.base.Storage(ctx, addr, key)
	if err != nil {
		return felt.Zero, err
	}
	c.mu.Lock()
	c.storage[sk] = v
	c.mu.Unlock()
	return v, nil
}

func (c *CachedStateProvider) ClassHash(ctx context.Context, addr felt.ContractAddress) (felt.ClassHash, error) {
	c.mu.RLock()
	if v, ok := c.classHash[addr]; ok {
		c.mu.RUnlock()
		return v, nil
	}
	c.mu.RUnlock()

	v, err := c.base.ClassHash(ctx, addr)
	if err != nil {
		return felt.Zero, err
	}
	c.mu.Lock()
	c.classHash[addr] = v
	c.mu.Unlock()
	return v, nil
}

func (c *CachedStateProvider) Class(ctx context.Context, hash felt.ClassHash) (*types.ContractClass, error) {
	c.mu.RLock()
	if v, ok := c.class[hash]; ok {
		c.mu.RUnlock()
		return v, nil
	}
	c.mu.RUnlock()

	v, err := c.base.Class(ctx, hash)
	if err != nil || v == nil {
		return v, err
	}
	c.mu.Lock()
	c.class[hash] = v
	c.mu.Unlock()
	return v, nil
}

func (c *CachedStateProvider) CompiledClassHash(ctx context.Context, hash felt.ClassHash) (felt.CompiledClassHash, error) {
	c.mu.RLock()
	if v, ok := c.compiledClassHash[hash]; ok {
		c.mu.RUnlock()
		return v, nil
	}
	c.mu.RUnlock()

	v, err := c.base.CompiledClassHash(ctx, hash)
	if err != nil {
		return felt.Zero, err
	}
	c.mu.Lock()
	c.compiledClassHash[hash] = v
	c.mu.Unlock()
	return v, nil
}

// Clear drops every cached entry, so the next read of any key goes back
// to base.
func (c *CachedStateProvider) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.nonce = make(map[felt.ContractAddress]types.Nonce)
	c.storage = make(map[storageCacheKey]felt.StorageValue)
	c.classHash = make(map[felt.ContractAddress]felt.ClassHash)
	c.class = make(map[felt.ClassHash]*types.ContractClass)
	c.compiledClassHash = make(map[felt.ClassHash]felt.CompiledClassHash)
}

// MergeStateUpdates folds a just-executed transaction's StateUpdates
// directly into the cache, the copy-on-write overlay the optimistic
// executor uses to race ahead of the canonical producer without issuing a fresh read transaction per key.
func (c *CachedStateProvider) MergeStateUpdates(updates *types.StateUpdates) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for addr, n := range updates.NonceUpdates {
		c.nonce[addr] = n
	}
	for addr, diff := range updates.StorageUpdates {
		for k, v := range diff {
			c.storage[storageCacheKey{addr, k}] = v
		}
	}
	for addr, ch := range updates.DeployedContracts {
		c.classHash[addr] = ch
	}
	for addr, ch := range updates.ReplacedClasses {
		c.classHash[addr] = ch
	}
	for ch, cch := range updates.DeclaredClasses {
		c.compiledClassHash[ch] = cch
	}
	for ch, body := range updates.ClassBodies {
		b := body
		c.class[ch] = &b
	}
}
