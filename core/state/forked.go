package state

import (
	"context"

	"github.com/starknet-sequencer/sequencer/felt"
	"github.com/starknet-sequencer/sequencer/kv"
	"github.com/starknet-sequencer/sequencer/kv/tables"
	"github.com/starknet-sequencer/sequencer/types"
)

// RemoteStateClient is the capability a ForkedStateProvider uses to fetch
// state from a remote node as of a fixed base block. It is deliberately
// small so a gRPC-backed implementation and an in-process test double both
// satisfy it without depending on wire types here.
type RemoteStateClient struct {
	Nonce func(ctx context.Context, addr felt.ContractAddress) (types.Nonce, error)
	Storage func(ctx context.Context, addr felt.ContractAddress, key felt.StorageKey) (felt.StorageValue, error)
	ClassHash func(ctx context.Context, addr felt.ContractAddress) (felt.ClassHash, error)
	Class func(ctx context.Context, hash felt.ClassHash) (*types.ContractClass, error)
	CompiledClassHash func(ctx context.Context, hash felt.ClassHash) (felt.CompiledClassHash, error)
}

// ForkedStateProvider serves reads from a local overlay database, promoting
// ("copy-on-read") values from a remote base state the first time they are
// requested: a miss in the local overlay is fetched once from baseBlock on
// the remote chain and written into the overlay so every later read — and
// every write the producer makes while building on top of the fork — is
// purely local from that point on.
//
// asOf gates that promotion against baseBlock: at or before the fork point
// the remote is still authoritative, so a local miss falls back to it as
// described above. Strictly after the fork point the remote chain may have
// continued on its own and cannot answer for this node's local history, so
// a miss there returns the zero value instead of consulting it.
type ForkedStateProvider struct {
	local kv.RwDB
	remote RemoteStateClient
	baseBlock types.BlockNumber
	asOf types.BlockNumber
}

var _ StateProvider = (*ForkedStateProvider)(nil)

// NewForkedStateProvider returns a StateProvider over local, promoting
// misses from remote as of baseBlock — the live, at-the-fork-point case.
// local is NOT owned by the provider (it typically outlives many
// ForkedStateProvider instances); Close is a no-op.
func NewForkedStateProvider(local kv.RwDB, remote RemoteStateClient, baseBlock types.BlockNumber) *ForkedStateProvider {
	return NewForkedStateProviderAt(local, remote, baseBlock, baseBlock)
}

// NewForkedStateProviderAt returns a StateProvider reading as of block asOf
// against a chain forked at baseBlock: asOf <= baseBlock promotes misses
// from remote exactly as NewForkedStateProvider does; asOf > baseBlock
// never consults remote and serves a miss as the zero value, since that
// height is strictly local history the remote has no knowledge of.
func NewForkedStateProviderAt(local kv.RwDB, remote RemoteStateClient, baseBlock, asOf types.BlockNumber) *ForkedStateProvider {
	return &ForkedStateProvider{local: local, remote: remote, baseBlock: baseBlock, asOf: asOf}
}

// pastFork reports whether this provider's asOf height is strictly past the
// fork point, and so must not fall back to remote on a local miss.
func (f *ForkedStateProvider) pastFork() bool { return f.asOf > f.baseBlock }

func (f *ForkedStateProvider) Close() error { return nil }

func (f *ForkedStateProvider) Nonce(ctx context.Context, addr felt.ContractAddress) (types.Nonce, error) {
	var out types.Nonce
	var hit bool
	err := f.local.View(ctx, func(tx kv.Tx) error {
		v, err := tx.GetOne(tables.ContractInfo, addr.Bytes())
		if err != nil || v == nil {
			return err
		}
		info, err := decodeContractInfo(v)
		if err != nil {
			return err
		}
		out, hit = info.Nonce, true
		return nil
	})
	if err != nil || hit {
		return out, err
	}
	if f.remote.Nonce == nil || f.pastFork() {
		return felt.Zero, nil
	}
	v, err := f.remote.Nonce(ctx, addr)
	if err != nil {
		return felt.Zero, err
	}
	return v, f.promoteNonce(ctx, addr, v)
}

func (f *ForkedStateProvider) promoteNonce(ctx context.Context, addr felt.ContractAddress, nonce types.Nonce) error {
	return f.local.Update(ctx, func(tx kv.RwTx) error {
		cur, err := tx.GetOne(tables.ContractInfo, addr.Bytes())
		info := contractInfo{Nonce: nonce}
		if err == nil && cur != nil {
			if decoded, derr := decodeContractInfo(cur); derr == nil {
				info.ClassHash = decoded.ClassHash
			}
		}
		return tx.Put(tables.ContractInfo, addr.Bytes(), info.encode())
	})
}

func (f *ForkedStateProvider) ClassHash(ctx context.Context, addr felt.ContractAddress) (felt.ClassHash, error) {
	var out felt.ClassHash
	var hit bool
	err := f.local.View(ctx, func(tx kv.Tx) error {
		v, err := tx.GetOne(tables.ContractInfo, addr.Bytes())
		if err != nil || v == nil {
			return err
		}
		info, err := decodeContractInfo(v)
		if err != nil {
			return err
		}
		if info.ClassHash != felt.Zero {
			out, hit = info.ClassHash, true
		}
		return nil
	})
	if err != nil || hit {
		return out, err
	}
	if f.remote.ClassHash == nil || f.pastFork() {
		return felt.Zero, nil
	}
	v, err := f.remote.ClassHash(ctx, addr)
	if err != nil {
		return felt.Zero, err
	}
	return v, f.promoteClassHash(ctx, addr, v)
}

func (f *ForkedStateProvider) promoteClassHash(ctx context.Context, addr felt.ContractAddress, hash felt.ClassHash) error {
	return f.local.Update(ctx, func(tx kv.RwTx) error {
		cur, err := tx.GetOne(tables.ContractInfo, addr.Bytes())
		info := contractInfo{ClassHash: hash}
		if err == nil && cur != nil {
			if decoded, derr := decodeContractInfo(cur); derr == nil {
				info.Nonce = decoded.Nonce
			}
		}
		return tx.Put(tables.ContractInfo, addr.Bytes(), info.encode())
	})
}

func (f *ForkedStateProvider) Storage(ctx context.Context, addr felt.ContractAddress, key felt.StorageKey) (felt.StorageValue, error) {
	var out felt.StorageValue
	var hit bool
	err := f.local.View(ctx, func(tx kv.Tx) error {
		c, err := tx.CursorDupSort(tables.ContractStorage)
		if err != nil {
			return err
		}
		defer c.Close()
		v, err := c.SeekBothRange(addr.Bytes(), key.Bytes())
		if err != nil || v == nil {
			return err
		}
		out.SetBytes(v[felt.Size:])
		hit = true
		return nil
	})
	if err != nil || hit {
		return out, err
	}
	if f.remote.Storage == nil || f.pastFork() {
		return felt.Zero, nil
	}
	v, err := f.remote.Storage(ctx, addr, key)
	if err != nil {
		return felt.Zero, err
	}
	return v, f.local.Update(ctx, func(tx kv.RwTx) error {
		c, err := tx.RwCursorDupSort(tables.ContractStorage)
		if err != nil {
			return err
		}
		defer c.Close()
		return c.PutNoDupData(addr.Bytes(), tables.ConcatKeys(key.Bytes(), v.Bytes()))
	})
}

func (f *ForkedStateProvider) Class(ctx context.Context, hash felt.ClassHash) (*types.ContractClass, error) {
	var out *types.ContractClass
	err := f.local.View(ctx, func(tx kv.Tx) error {
		raw, err := tx.GetOne(tables.Classes, hash.Bytes())
		if err != nil || raw == nil {
			return err
		}
		decompressed, err := (tables.ZstdCompressor{}).Decompress(raw)
		if err != nil {
			return err
		}
		out, err = decodeContractClass(decompressed)
		return err
	})
	if err != nil || out != nil {
		return out, err
	}
	if f.remote.Class == nil || f.pastFork() {
		return nil, nil
	}
	class, err := f.remote.Class(ctx, hash)
	if err != nil || class == nil {
		return class, err
	}
	return class, f.local.Update(ctx, func(tx kv.RwTx) error {
		compressed := (tables.ZstdCompressor{}).Compress(encodeContractClass(*class))
		return tx.Put(tables.Classes, hash.Bytes(), compressed)
	})
}

func (f *ForkedStateProvider) CompiledClassHash(ctx context.Context, hash felt.ClassHash) (felt.CompiledClassHash, error) {
	var out felt.CompiledClassHash
	var hit bool
	err := f.local.View(ctx, func(tx kv.Tx) error {
		v, err := tx.GetOne(tables.CompiledClassHashes, hash.Bytes())
		if err != nil || v == nil {
			return err
		}
		out.SetBytes(v)
		hit = true
		return nil
	})
	if err != nil || hit {
		return out, err
	}
	if f.remote.CompiledClassHash == nil || f.pastFork() {
		return felt.Zero, nil
	}
	v, err := f.remote.CompiledClassHash(ctx, hash)
	if err != nil {
		return felt.Zero, err
	}
	return v, f.local.Update(ctx, func(tx kv.RwTx) error {
		return tx.Put(tables.CompiledClassHashes, hash.Bytes(), v.Bytes())
	})
}
