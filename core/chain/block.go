package chain

import (
	"fmt"

	"github.com/starknet-sequencer/sequencer/felt"
	"github.com/starknet-sequencer/sequencer/kv"
	"github.com/starknet-sequencer/sequencer/kv/tables"
	"github.com/starknet-sequencer/sequencer/types"
)

// AppendBlock persists a sealed block into the block/transaction-index
// table group: Headers, BlockHashes, BlockNumbers,
// BlockBodyIndices, BlockStatuses, and, per transaction, TxNumbers,
// TxHashes, TxBlocks, Transactions, Receipts. nextTxNumber is the first
// global TxNumber this block's transactions occupy; AppendBlock returns
// the next free TxNumber for the caller to persist into StageCheckpoints.
func AppendBlock(tx kv.RwTx, block types.Block, receipts []types.Receipt, nextTxNumber types.TxNumber) (types.TxNumber, error) {
	if len(block.Body) != len(receipts) {
		return 0, fmt.Errorf("chain: %d transactions but %d receipts", len(block.Body), len(receipts))
	}

	blockKey := tables.EncodeUint64(uint64(block.Header.Number))

	headerBytes, err := EncodeHeader(block.Header)
	if err != nil {
		return 0, err
	}
	if err := tx.Put(tables.Headers, blockKey, headerBytes); err != nil {
		return 0, err
	}
	if err := tx.Put(tables.BlockHashes, blockKey, block.Header.Hash.Bytes()); err != nil {
		return 0, err
	}
	if err := tx.Put(tables.BlockNumbers, block.Header.Hash.Bytes(), blockKey); err != nil {
		return 0, err
	}
	if err := tx.Put(tables.BlockStatuses, blockKey, []byte{byte(block.Status)}); err != nil {
		return 0, err
	}

	firstTxNumber := nextTxNumber
	for i, twh := range block.Body {
		txNumber := nextTxNumber
		txNumberKey := tables.EncodeUint64(uint64(txNumber))

		if err := tx.Put(tables.TxNumbers, twh.Hash.Bytes(), txNumberKey); err != nil {
			return 0, err
		}
		if err := tx.Put(tables.TxHashes, txNumberKey, twh.Hash.Bytes()); err != nil {
			return 0, err
		}
		if err := tx.Put(tables.TxBlocks, txNumberKey, blockKey); err != nil {
			return 0, err
		}
		if err := tx.Put(tables.Transactions, txNumberKey, EncodeTx(twh.Tx)); err != nil {
			return 0, err
		}
		if err := tx.Put(tables.Receipts, txNumberKey, EncodeReceipt(receipts[i])); err != nil {
			return 0, err
		}
		nextTxNumber++
	}

	bodyIndex := types.BlockBodyIndex{FirstTxNumber: firstTxNumber, TxCount: uint64(len(block.Body))}
	if err := tx.Put(tables.BlockBodyIndices, blockKey, encodeBlockBodyIndex(bodyIndex)); err != nil {
		return 0, err
	}

	return nextTxNumber, nil
}

func encodeBlockBodyIndex(b types.BlockBodyIndex) []byte {
	w := &byteWriter{}
	w.u64(uint64(b.FirstTxNumber))
	w.u64(b.TxCount)
	return w.b
}

func decodeBlockBodyIndex(b []byte) (types.BlockBodyIndex, error) {
	r := &byteReader{b: b}
	first, err := r.u64()
	if err != nil {
		return types.BlockBodyIndex{}, err
	}
	count, err := r.u64()
	if err != nil {
		return types.BlockBodyIndex{}, err
	}
	return types.BlockBodyIndex{FirstTxNumber: types.TxNumber(first), TxCount: count}, nil
}

// GetHeader reads the header at block, or ok=false if it has not been
// persisted.
func GetHeader(tx kv.Tx, block types.BlockNumber) (types.Header, bool, error) {
	v, err := tx.GetOne(tables.Headers, tables.EncodeUint64(uint64(block)))
	if err != nil || v == nil {
		return types.Header{}, false, err
	}
	h, err := DecodeHeader(v)
	return h, err == nil, err
}

// GetBlock reconstructs the full block (header + body) at block, reading
// its transactions out of the index tables.
func GetBlock(tx kv.Tx, block types.BlockNumber) (*types.Block, error) {
	header, ok, err := GetHeader(tx, block)
	if err != nil || !ok {
		return nil, err
	}
	statusRaw, err := tx.GetOne(tables.BlockStatuses, tables.EncodeUint64(uint64(block)))
	if err != nil {
		return nil, err
	}
	var status types.BlockStatus
	if statusRaw != nil {
		status = types.BlockStatus(statusRaw[0])
	}

	bodyIdxRaw, err := tx.GetOne(tables.BlockBodyIndices, tables.EncodeUint64(uint64(block)))
	if err != nil {
		return nil, err
	}
	if bodyIdxRaw == nil {
		return &types.Block{Header: header, Status: status}, nil
	}
	bodyIdx, err := decodeBlockBodyIndex(bodyIdxRaw)
	if err != nil {
		return nil, err
	}

	body := make([]types.TxWithHash, 0, bodyIdx.TxCount)
	for i := uint64(0); i < bodyIdx.TxCount; i++ {
		txNumber := uint64(bodyIdx.FirstTxNumber) + i
		key := tables.EncodeUint64(txNumber)
		hashRaw, err := tx.GetOne(tables.TxHashes, key)
		if err != nil {
			return nil, err
		}
		txRaw, err := tx.GetOne(tables.Transactions, key)
		if err != nil {
			return nil, err
		}
		if hashRaw == nil || txRaw == nil {
			return nil, fmt.Errorf("chain: missing tx at number %d for block %d", txNumber, block)
		}
		decoded, err := DecodeTx(txRaw)
		if err != nil {
			return nil, err
		}
		var hash felt.Hash
		hash.SetBytes(hashRaw)
		body = append(body, types.TxWithHash{Hash: hash, Tx: decoded})
	}

	return &types.Block{Header: header, Body: body, Status: status}, nil
}

// GetReceipt reads the receipt for txHash, or ok=false if unknown.
func GetReceipt(tx kv.Tx, txHash felt.Hash) (types.Receipt, bool, error) {
	numRaw, err := tx.GetOne(tables.TxNumbers, txHash.Bytes())
	if err != nil || numRaw == nil {
		return types.Receipt{}, false, err
	}
	raw, err := tx.GetOne(tables.Receipts, numRaw)
	if err != nil || raw == nil {
		return types.Receipt{}, false, err
	}
	r, err := DecodeReceipt(raw)
	return r, err == nil, err
}

// LatestBlockNumber returns the highest persisted block number.
func LatestBlockNumber(tx kv.Tx) (types.BlockNumber, bool, error) {
	c, err := tx.Cursor(tables.Headers)
	if err != nil {
		return 0, false, err
	}
	defer c.Close()
	k, _, err := c.Last()
	if err != nil || k == nil {
		return 0, false, err
	}
	n, err := tables.DecodeUint64(k)
	if err != nil {
		return 0, false, err
	}
	return types.BlockNumber(n), true, nil
}
