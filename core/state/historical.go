package state

import (
	"context"
	"fmt"

	"github.com/starknet-sequencer/sequencer/felt"
	"github.com/starknet-sequencer/sequencer/kv"
	"github.com/starknet-sequencer/sequencer/kv/blocklist"
	"github.com/starknet-sequencer/sequencer/kv/tables"
	"github.com/starknet-sequencer/sequencer/types"
)

// PrunedError describes a historical read that falls before the window the
// pruner has kept. Nothing in this package returns it:
// HistoricalStateProvider does not track the retained window and answers
// such a read from whatever change-set rows remain.
var PrunedError = fmt.Errorf("state: requested block predates the retained history window")

// HistoricalStateProvider reads state as of a fixed block N by walking the
// "...ChangeSet" -> "...ChangeHistory" tables: consult the change-set for
// the floor block, then read the historical value at that block.
type HistoricalStateProvider struct {
	tx kv.Tx
	block types.BlockNumber
}

var _ StateProvider = (*HistoricalStateProvider)(nil)

// NewHistoricalStateProvider returns a StateProvider reading state as of
// block N against the given read transaction, which the provider owns and
// releases on Close.
func NewHistoricalStateProvider(tx kv.Tx, block types.BlockNumber) *HistoricalStateProvider {
	return &HistoricalStateProvider{tx: tx, block: block}
}

func (h *HistoricalStateProvider) Close() error {
	h.tx.Rollback()
	return nil
}

// getAsOf implements the floor lookup:
// 1. consult the changeSetTable for entityKey's BlockList
// 2. find the largest b <= h.block in that set
// 3. read historyTable at (b, entityKey)
// 4. if no such b exists, fall through to the latest table only if
// h.block == latest; otherwise the value is the default (zero).
//
// History rows are always stored as {entityKey, payload}, so the returned
// slice has entityKey's own length stripped before it reaches the caller —
// the caller never has to know how wide the dup subkey was.
func (h *HistoricalStateProvider) getAsOf(changeSetTable, historyTable string, entityKey []byte, latestLookup func() ([]byte, error)) ([]byte, error) {
	raw, err := h.tx.GetOne(changeSetTable, entityKey)
	if err != nil {
		return nil, err
	}
	if raw != nil {
		bl, err := blocklist.Decode(raw)
		if err != nil {
			return nil, err
		}
		if b, ok := bl.FloorLE(uint64(h.block)); ok {
			c, err := h.tx.CursorDupSort(historyTable)
			if err != nil {
				return nil, err
			}
			defer c.Close()
			v, err := c.SeekBothRange(tables.EncodeUint64(b), entityKey)
			if err != nil || v == nil {
				return nil, err
			}
			if len(v) < len(entityKey) {
				return nil, fmt.Errorf("state: malformed history row in %s", historyTable)
			}
			return v[len(entityKey):], nil
		}
	}
	latest, err := isLatestBlock(h.tx, h.block)
	if err != nil {
		return nil, err
	}
	if latest {
		return latestLookup()
	}
	return nil, nil
}

func isLatestBlock(tx kv.Tx, block types.BlockNumber) (bool, error) {
	c, err := tx.Cursor(tables.Headers)
	if err != nil {
		return false, err
	}
	defer c.Close()
	k, _, err := c.Last()
	if err != nil {
		return false, err
	}
	if k == nil {
		return false, kv.ErrMissingLatestBlockNum
	}
	latest, err := tables.DecodeUint64(k)
	if err != nil {
		return false, err
	}
	return types.BlockNumber(latest) == block, nil
}

// infoField reads one 32-byte field out of the combined ContractInfo row,
// so the latest-snapshot fallback returns the same shape as a
// NonceChangeHistory/ClassChangeHistory payload.
func (h *HistoricalStateProvider) infoField(addr felt.ContractAddress, classHash bool) ([]byte, error) {
	v, err := h.tx.GetOne(tables.ContractInfo, addr.Bytes())
	if err != nil || v == nil {
		return nil, err
	}
	info, err := decodeContractInfo(v)
	if err != nil {
		return nil, err
	}
	if classHash {
		return info.ClassHash.Bytes(), nil
	}
	return info.Nonce.Bytes(), nil
}

func (h *HistoricalStateProvider) Nonce(ctx context.Context, addr felt.ContractAddress) (types.Nonce, error) {
	v, err := h.getAsOf(tables.ContractInfoChangeSet, tables.NonceChangeHistory, addr.Bytes(), func() ([]byte, error) {
		return h.infoField(addr, false)
	})
	if err != nil || v == nil {
		return felt.Zero, err
	}
	var out felt.Felt
	out.SetBytes(v)
	return out, nil
}

func (h *HistoricalStateProvider) ClassHash(ctx context.Context, addr felt.ContractAddress) (felt.ClassHash, error) {
	v, err := h.getAsOf(tables.ContractInfoChangeSet, tables.ClassChangeHistory, addr.Bytes(), func() ([]byte, error) {
		return h.infoField(addr, true)
	})
	if err != nil || v == nil {
		return felt.Zero, err
	}
	var out felt.Felt
	out.SetBytes(v)
	return out, nil
}

func (h *HistoricalStateProvider) Storage(ctx context.Context, addr felt.ContractAddress, key felt.StorageKey) (felt.StorageValue, error) {
	entityKey := tables.ConcatKeys(addr.Bytes(), key.Bytes())
	v, err := h.getAsOf(tables.StorageChangeSet, tables.StorageChangeHistory, entityKey, func() ([]byte, error) {
		c, err := h.tx.CursorDupSort(tables.ContractStorage)
		if err != nil {
			return nil, err
		}
		defer c.Close()
		raw, err := c.SeekBothRange(addr.Bytes(), key.Bytes())
		if err != nil || raw == nil {
			return nil, err
		}
		// ContractStorage's dup value is {key(32), value(32)}; keep only
		// the value half to match the history-row payload shape.
		return raw[felt.Size:], nil
	})
	if err != nil || v == nil {
		return felt.Zero, err
	}
	var val felt.Felt
	val.SetBytes(v)
	return val, nil
}

func (h *HistoricalStateProvider) Class(ctx context.Context, hash felt.ClassHash) (*types.ContractClass, error) {
	raw, err := h.tx.GetOne(tables.Classes, hash.Bytes())
	if err != nil || raw == nil {
		return nil, err
	}
	decompressed, err := (tables.ZstdCompressor{}).Decompress(raw)
	if err != nil {
		return nil, err
	}
	return decodeContractClass(decompressed)
}

func (h *HistoricalStateProvider) CompiledClassHash(ctx context.Context, hash felt.ClassHash) (felt.CompiledClassHash, error) {
	v, err := h.tx.GetOne(tables.CompiledClassHashes, hash.Bytes())
	if err != nil || v == nil {
		return felt.Zero, err
	}
	var out felt.Felt
	out.SetBytes(v)
	return out, nil
}
