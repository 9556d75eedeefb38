package rpc

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/starknet-sequencer/sequencer/core/chain"
	"github.com/starknet-sequencer/sequencer/crypto"
	"github.com/starknet-sequencer/sequencer/felt"
	"github.com/starknet-sequencer/sequencer/kv"
	"github.com/starknet-sequencer/sequencer/kv/bbolt"
	"github.com/starknet-sequencer/sequencer/txpool"
	"github.com/starknet-sequencer/sequencer/types"
)

func openTestAPIDB(t *testing.T) kv.RwDB {
	t.Helper()
	db, err := bbolt.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newTestAPI(t *testing.T, db kv.RwDB) (*StarknetAPI, *Dispatcher) {
	t.Helper()
	pool := txpool.NewPool(txpool.FIFOOrd{}, func() txpool.Validator { return nil })
	d := NewDispatcher()
	api := NewStarknetAPI(db, pool, "0x534e5f5345504f4c4941", crypto.StubHasher{}, nil, nil, d)
	return api, d
}

func seedOneBlock(t *testing.T, db kv.RwDB) (felt.Hash, felt.Hash) {
	t.Helper()
	txHash := felt.FromUint64(55)
	blockHash := felt.FromUint64(1)
	block := types.Block{
		Header: types.Header{Number: 0, Hash: blockHash},
		Body: []types.TxWithHash{{Hash: txHash, Tx: types.Transaction{Kind: types.TxInvoke, Sender: felt.FromUint64(3)}}},
		Status: types.AcceptedOnL2,
	}
	receipt := types.Receipt{TxHash: txHash, ExecutionResult: types.ExecutionResult{Status: types.Succeeded}}
	require.NoError(t, db.Update(context.Background(), func(tx kv.RwTx) error {
		_, err := chain.AppendBlock(tx, block, []types.Receipt{receipt}, 0)
		return err
	}))
	return txHash, blockHash
}

func TestStarknetAPIChainID(t *testing.T) {
	_, d := newTestAPI(t, openTestAPIDB(t))
	resp := d.Handle(Request{Method: "starknet_chainId"})
	require.Nil(t, resp.Error)
	require.Equal(t, "0x534e5f5345504f4c4941", resp.Result)
}

func TestStarknetAPIBlockNumber(t *testing.T) {
	db := openTestAPIDB(t)
	seedOneBlock(t, db)
	_, d := newTestAPI(t, db)

	resp := d.Handle(Request{Method: "starknet_blockNumber"})
	require.Nil(t, resp.Error)
	require.Equal(t, uint64(0), resp.Result)
}

func TestStarknetAPIBlockNumberNoBlocksErrors(t *testing.T) {
	_, d := newTestAPI(t, openTestAPIDB(t))
	resp := d.Handle(Request{Method: "starknet_blockNumber"})
	require.NotNil(t, resp.Error)
}

func latestBlockIDParams(t *testing.T) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(blockIDParams{BlockID: types.BlockIDOrTag{Kind: types.BlockIDLatest}})
	require.NoError(t, err)
	return b
}

func TestStarknetAPIGetBlockWithTxHashes(t *testing.T) {
	db := openTestAPIDB(t)
	txHash, _ := seedOneBlock(t, db)
	_, d := newTestAPI(t, db)

	resp := d.Handle(Request{Method: "starknet_getBlockWithTxHashes", Params: latestBlockIDParams(t)})
	require.Nil(t, resp.Error)
	hashes, ok := resp.Result.([]string)
	require.True(t, ok)
	require.Equal(t, []string{txHash.Hex()}, hashes)
}

func TestStarknetAPIGetBlockWithTxsMissingBlockErrors(t *testing.T) {
	_, d := newTestAPI(t, openTestAPIDB(t))
	resp := d.Handle(Request{Method: "starknet_getBlockWithTxs", Params: latestBlockIDParams(t)})
	require.NotNil(t, resp.Error)
}

func TestStarknetAPIGetBlockTransactionCount(t *testing.T) {
	db := openTestAPIDB(t)
	seedOneBlock(t, db)
	_, d := newTestAPI(t, db)

	resp := d.Handle(Request{Method: "starknet_getBlockTransactionCount", Params: latestBlockIDParams(t)})
	require.Nil(t, resp.Error)
	require.Equal(t, 1, resp.Result)
}

func TestStarknetAPIGetTransactionReceipt(t *testing.T) {
	db := openTestAPIDB(t)
	txHash, _ := seedOneBlock(t, db)
	_, d := newTestAPI(t, db)

	params, err := json.Marshal(map[string]string{"transaction_hash": txHash.Hex()})
	require.NoError(t, err)
	resp := d.Handle(Request{Method: "starknet_getTransactionReceipt", Params: params})
	require.Nil(t, resp.Error)
	receipt, ok := resp.Result.(types.Receipt)
	require.True(t, ok)
	require.Equal(t, txHash, receipt.TxHash)
}

func TestStarknetAPIGetTransactionReceiptMissing(t *testing.T) {
	_, d := newTestAPI(t, openTestAPIDB(t))
	params, err := json.Marshal(map[string]string{"transaction_hash": felt.FromUint64(404).Hex()})
	require.NoError(t, err)
	resp := d.Handle(Request{Method: "starknet_getTransactionReceipt", Params: params})
	require.NotNil(t, resp.Error)
}

func TestStarknetAPIGetNonceFallsBackToState(t *testing.T) {
	db := openTestAPIDB(t)
	seedOneBlock(t, db)
	_, d := newTestAPI(t, db)

	params, err := json.Marshal(map[string]string{"contract_address": felt.FromUint64(3).Hex()})
	require.NoError(t, err)
	resp := d.Handle(Request{Method: "starknet_getNonce", Params: params})
	require.Nil(t, resp.Error)
	require.Equal(t, felt.Zero.Hex(), resp.Result)
}

func TestStarknetAPIGetClassNotFound(t *testing.T) {
	db := openTestAPIDB(t)
	seedOneBlock(t, db)
	_, d := newTestAPI(t, db)

	params, err := json.Marshal(map[string]interface{}{"block_id": types.BlockIDOrTag{Kind: types.BlockIDLatest}, "class_hash": felt.FromUint64(999).Hex()})
	require.NoError(t, err)
	resp := d.Handle(Request{Method: "starknet_getClass", Params: params})
	require.NotNil(t, resp.Error)
}

func TestStarknetAPIGetStorageProofUnsupported(t *testing.T) {
	_, d := newTestAPI(t, openTestAPIDB(t))
	resp := d.Handle(Request{Method: "starknet_getStorageProof"})
	require.NotNil(t, resp.Error)
}

func TestStarknetAPIGetEventsEmptyRange(t *testing.T) {
	db := openTestAPIDB(t)
	seedOneBlock(t, db)
	_, d := newTestAPI(t, db)

	params, err := json.Marshal(map[string]interface{}{
		"from_block": types.BlockIDOrTag{Kind: types.BlockIDLatest},
		"to_block": types.BlockIDOrTag{Kind: types.BlockIDLatest},
	})
	require.NoError(t, err)
	resp := d.Handle(Request{Method: "starknet_getEvents", Params: params})
	require.Nil(t, resp.Error)
	out, ok := resp.Result.(map[string]interface{})
	require.True(t, ok)
	require.Empty(t, out["events"])
}
