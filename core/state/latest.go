package state

import (
	"context"

	"github.com/starknet-sequencer/sequencer/felt"
	"github.com/starknet-sequencer/sequencer/kv"
	"github.com/starknet-sequencer/sequencer/kv/tables"
	"github.com/starknet-sequencer/sequencer/types"
)

// LatestStateProvider reads the "latest snapshot" tables directly.
type LatestStateProvider struct {
	tx kv.Tx
}

var _ StateProvider = (*LatestStateProvider)(nil)

// NewLatestStateProvider returns a StateProvider over the current head,
// owning tx until Close.
func NewLatestStateProvider(tx kv.Tx) *LatestStateProvider {
	return &LatestStateProvider{tx: tx}
}

func (l *LatestStateProvider) Close() error {
	l.tx.Rollback()
	return nil
}

func (l *LatestStateProvider) info(addr felt.ContractAddress) (contractInfo, bool, error) {
	v, err := l.tx.GetOne(tables.ContractInfo, addr.Bytes())
	if err != nil || v == nil {
		return contractInfo{}, false, err
	}
	info, err := decodeContractInfo(v)
	return info, true, err
}

func (l *LatestStateProvider) Nonce(ctx context.Context, addr felt.ContractAddress) (types.Nonce, error) {
	info, ok, err := l.info(addr)
	if err != nil || !ok {
		return felt.Zero, err
	}
	return info.Nonce, nil
}

func (l *LatestStateProvider) ClassHash(ctx context.Context, addr felt.ContractAddress) (felt.ClassHash, error) {
	info, ok, err := l.info(addr)
	if err != nil || !ok {
		return felt.Zero, err
	}
	return info.ClassHash, nil
}

func (l *LatestStateProvider) Storage(ctx context.Context, addr felt.ContractAddress, key felt.StorageKey) (felt.StorageValue, error) {
	c, err := l.tx.CursorDupSort(tables.ContractStorage)
	if err != nil {
		return felt.Zero, err
	}
	defer c.Close()
	v, err := c.SeekBothRange(addr.Bytes(), key.Bytes())
	if err != nil || v == nil {
		return felt.Zero, err
	}
	var out felt.Felt
	// Value is stored as key(32)+value(32); skip the key prefix.
	out.SetBytes(v[felt.Size:])
	return out, nil
}

func (l *LatestStateProvider) Class(ctx context.Context, hash felt.ClassHash) (*types.ContractClass, error) {
	raw, err := l.tx.GetOne(tables.Classes, hash.Bytes())
	if err != nil || raw == nil {
		return nil, err
	}
	decompressed, err := (tables.ZstdCompressor{}).Decompress(raw)
	if err != nil {
		return nil, err
	}
	return decodeContractClass(decompressed)
}

func (l *LatestStateProvider) CompiledClassHash(ctx context.Context, hash felt.ClassHash) (felt.CompiledClassHash, error) {
	v, err := l.tx.GetOne(tables.CompiledClassHashes, hash.Bytes())
	if err != nil || v == nil {
		return felt.Zero, err
	}
	var out felt.Felt
	out.SetBytes(v)
	return out, nil
}
