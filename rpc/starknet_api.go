package rpc

import (
	"context"
	"encoding/json"
	"errors"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/starknet-sequencer/sequencer/core/chain"
	"github.com/starknet-sequencer/sequencer/core/optimistic"
	"github.com/starknet-sequencer/sequencer/core/producer"
	"github.com/starknet-sequencer/sequencer/core/state"
	"github.com/starknet-sequencer/sequencer/crypto"
	"github.com/starknet-sequencer/sequencer/executor"
	"github.com/starknet-sequencer/sequencer/felt"
	"github.com/starknet-sequencer/sequencer/kv"
	"github.com/starknet-sequencer/sequencer/kv/tables"
	"github.com/starknet-sequencer/sequencer/txhash"
	"github.com/starknet-sequencer/sequencer/txpool"
	"github.com/starknet-sequencer/sequencer/types"
)

// StarknetAPI implements the RPC surface over one RwDB and transaction
// pool; every method here is a thin decode-dispatch-encode wrapper, the
// real logic living in core/chain, core/state, and txpool.
type StarknetAPI struct {
	db kv.RwDB
	pool *txpool.Pool
	chainID string
	hasher crypto.Hasher
	factory executor.Factory
	pending *optimistic.OptimisticPendingBlockProvider // nil when the node runs without an optimistic executor

	// classCache memoizes decompressed ContractClass bodies by hash. Classes
	// are immutable once declared, so a hit never needs invalidation; this
	// only saves repeated zstd decompression for hot classes (wallets, common
	// account contracts) under starknet_getClass/getClassAt traffic.
	classCache *lru.Cache[felt.ClassHash, *types.ContractClass]
}

const classCacheSize = 1024

// NewStarknetAPI constructs the API and registers every starknet_* method
// onto d. pending may be nil: starknet_getTransactionStatus then reports
// only committed transactions. starknet_call and the estimateFee family
// always read the latest committed block and never consult pending.
func NewStarknetAPI(db kv.RwDB, pool *txpool.Pool, chainID string, hasher crypto.Hasher, factory executor.Factory, pending *optimistic.OptimisticPendingBlockProvider, d *Dispatcher) *StarknetAPI {
	cache, _ := lru.New[felt.ClassHash, *types.ContractClass](classCacheSize)
	api := &StarknetAPI{db: db, pool: pool, chainID: chainID, hasher: hasher, factory: factory, pending: pending, classCache: cache}
	api.register(d)
	return api
}

// lookupClass serves classHash from classCache before falling through to the
// state provider, populating the cache on a miss.
func (a *StarknetAPI) lookupClass(ctx context.Context, tx kv.Tx, classHash felt.ClassHash) (*types.ContractClass, error) {
	if c, ok := a.classCache.Get(classHash); ok {
		return c, nil
	}
	st := state.NewLatestStateProvider(tx)
	class, err := st.Class(ctx, classHash)
	if err != nil || class == nil {
		return class, err
	}
	a.classCache.Add(classHash, class)
	return class, nil
}

func (a *StarknetAPI) register(d *Dispatcher) {
	d.Register("starknet_chainId", a.chainIDHandler)
	d.Register("starknet_blockNumber", a.blockNumber)
	d.Register("starknet_blockHashAndNumber", a.blockHashAndNumber)
	d.Register("starknet_getBlockWithTxHashes", a.getBlockWithTxHashes)
	d.Register("starknet_getBlockWithTxs", a.getBlockWithTxs)
	d.Register("starknet_getBlockWithReceipts", a.getBlockWithReceipts)
	d.Register("starknet_getStateUpdate", a.getStateUpdate)
	d.Register("starknet_getStorageAt", a.getStorageAt)
	d.Register("starknet_getNonce", a.getNonce)
	d.Register("starknet_getTransactionByHash", a.getTransactionByHash)
	d.Register("starknet_getTransactionByBlockIdAndIndex", a.getTransactionByBlockIDAndIndex)
	d.Register("starknet_getTransactionReceipt", a.getTransactionReceipt)
	d.Register("starknet_getTransactionStatus", a.getTransactionStatus)
	d.Register("starknet_getClass", a.getClass)
	d.Register("starknet_getClassAt", a.getClassAt)
	d.Register("starknet_getClassHashAt", a.getClassHashAt)
	d.Register("starknet_getBlockTransactionCount", a.getBlockTransactionCount)
	d.Register("starknet_call", a.call)
	d.Register("starknet_estimateFee", a.estimateFee)
	d.Register("starknet_estimateMessageFee", a.estimateMessageFee)
	d.Register("starknet_getEvents", a.getEvents)
	d.Register("starknet_getStorageProof", a.getStorageProof)
	d.Register("starknet_addInvokeTransaction", a.addInvokeTransaction)
	d.Register("starknet_addDeclareTransaction", a.addDeclareTransaction)
	d.Register("starknet_addDeployAccountTransaction", a.addDeployAccountTransaction)
}

func (a *StarknetAPI) chainIDHandler(params json.RawMessage) (interface{}, error) {
	return a.chainID, nil
}

func (a *StarknetAPI) blockNumber(params json.RawMessage) (interface{}, error) {
	var out uint64
	err := a.view(func(tx kv.Tx) error {
		n, ok, err := chain.LatestBlockNumber(tx)
		if err != nil {
			return err
		}
		if !ok {
			return errors.New("no blocks")
		}
		out = uint64(n)
		return nil
	})
	return out, err
}

func (a *StarknetAPI) blockHashAndNumber(params json.RawMessage) (interface{}, error) {
	var result struct {
		BlockHash string `json:"block_hash"`
		BlockNumber uint64 `json:"block_number"`
	}
	err := a.view(func(tx kv.Tx) error {
		n, ok, err := chain.LatestBlockNumber(tx)
		if err != nil || !ok {
			return err
		}
		h, ok, err := chain.GetHeader(tx, n)
		if err != nil || !ok {
			return err
		}
		result.BlockHash = h.Hash.Hex()
		result.BlockNumber = uint64(n)
		return nil
	})
	return result, err
}

type blockIDParams struct {
	BlockID types.BlockIDOrTag `json:"block_id"`
}

func (a *StarknetAPI) resolveBlockNumber(tx kv.Tx, id types.BlockIDOrTag) (types.BlockNumber, error) {
	switch id.Kind {
	case types.BlockIDNumber:
		return id.Number, nil
	case types.BlockIDHash:
		v, err := tx.GetOne(tables.BlockNumbers, id.Hash.Bytes())
		if err != nil || v == nil {
			return 0, errors.New("block not found")
		}
		n, err := tables.DecodeUint64(v)
		return types.BlockNumber(n), err
	default: // Latest, PreConfirmed both resolve to the latest sealed block here
		n, ok, err := chain.LatestBlockNumber(tx)
		if err != nil {
			return 0, err
		}
		if !ok {
			return 0, errors.New("no blocks")
		}
		return n, nil
	}
}

func (a *StarknetAPI) getBlockWithTxHashes(params json.RawMessage) (interface{}, error) {
	var p blockIDParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, err
	}
	var hashes []string
	err := a.view(func(tx kv.Tx) error {
		n, err := a.resolveBlockNumber(tx, p.BlockID)
		if err != nil {
			return err
		}
		block, err := chain.GetBlock(tx, n)
		if err != nil || block == nil {
			return errors.New("block not found")
		}
		for _, twh := range block.Body {
			hashes = append(hashes, twh.Hash.Hex())
		}
		return nil
	})
	return hashes, err
}

func (a *StarknetAPI) getBlockWithTxs(params json.RawMessage) (interface{}, error) {
	var p blockIDParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, err
	}
	var block *types.Block
	err := a.view(func(tx kv.Tx) error {
		n, err := a.resolveBlockNumber(tx, p.BlockID)
		if err != nil {
			return err
		}
		block, err = chain.GetBlock(tx, n)
		if err != nil || block == nil {
			return errors.New("block not found")
		}
		return nil
	})
	return block, err
}

func (a *StarknetAPI) getBlockWithReceipts(params json.RawMessage) (interface{}, error) {
	var p blockIDParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, err
	}
	type withReceipts struct {
		Header types.Header `json:"header"`
		Receipts []types.Receipt `json:"receipts"`
	}
	var out withReceipts
	err := a.view(func(tx kv.Tx) error {
		n, err := a.resolveBlockNumber(tx, p.BlockID)
		if err != nil {
			return err
		}
		block, err := chain.GetBlock(tx, n)
		if err != nil || block == nil {
			return errors.New("block not found")
		}
		out.Header = block.Header
		for _, twh := range block.Body {
			r, ok, err := chain.GetReceipt(tx, twh.Hash)
			if err != nil {
				return err
			}
			if ok {
				out.Receipts = append(out.Receipts, r)
			}
		}
		return nil
	})
	return out, err
}

func (a *StarknetAPI) getBlockTransactionCount(params json.RawMessage) (interface{}, error) {
	var p blockIDParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, err
	}
	var count int
	err := a.view(func(tx kv.Tx) error {
		n, err := a.resolveBlockNumber(tx, p.BlockID)
		if err != nil {
			return err
		}
		block, err := chain.GetBlock(tx, n)
		if err != nil || block == nil {
			return errors.New("block not found")
		}
		count = len(block.Body)
		return nil
	})
	return count, err
}

func (a *StarknetAPI) getStorageAt(params json.RawMessage) (interface{}, error) {
	var p struct {
		ContractAddress string `json:"contract_address"`
		Key string `json:"key"`
		BlockID types.BlockIDOrTag `json:"block_id"`
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, err
	}
	addr, err := felt.FromHex(p.ContractAddress)
	if err != nil {
		return nil, err
	}
	key, err := felt.FromHex(p.Key)
	if err != nil {
		return nil, err
	}
	var value felt.Felt
	err = a.view(func(tx kv.Tx) error {
		st := state.NewLatestStateProvider(tx)
		v, err := st.Storage(context.Background(), addr, key)
		value = v
		return err
	})
	return value.Hex(), err
}

func (a *StarknetAPI) getNonce(params json.RawMessage) (interface{}, error) {
	var p struct {
		ContractAddress string `json:"contract_address"`
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, err
	}
	addr, err := felt.FromHex(p.ContractAddress)
	if err != nil {
		return nil, err
	}
	if n, ok := a.pool.GetNonce(addr); ok {
		return n.Hex(), nil
	}
	var nonce felt.Felt
	err = a.view(func(tx kv.Tx) error {
		st := state.NewLatestStateProvider(tx)
		n, err := st.Nonce(context.Background(), addr)
		nonce = n
		return err
	})
	return nonce.Hex(), err
}

func (a *StarknetAPI) getClassHashAt(params json.RawMessage) (interface{}, error) {
	var p struct {
		ContractAddress string `json:"contract_address"`
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, err
	}
	addr, err := felt.FromHex(p.ContractAddress)
	if err != nil {
		return nil, err
	}
	var classHash felt.Felt
	err = a.view(func(tx kv.Tx) error {
		st := state.NewLatestStateProvider(tx)
		ch, err := st.ClassHash(context.Background(), addr)
		classHash = ch
		return err
	})
	return classHash.Hex(), err
}

func (a *StarknetAPI) getTransactionByHash(params json.RawMessage) (interface{}, error) {
	var p struct {
		TransactionHash string `json:"transaction_hash"`
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, err
	}
	hash, err := felt.FromHex(p.TransactionHash)
	if err != nil {
		return nil, err
	}
	var found types.Transaction
	err = a.view(func(tx kv.Tx) error {
		numRaw, err := tx.GetOne(tables.TxNumbers, hash.Bytes())
		if err != nil || numRaw == nil {
			return errors.New("transaction not found")
		}
		raw, err := tx.GetOne(tables.Transactions, numRaw)
		if err != nil || raw == nil {
			return errors.New("transaction not found")
		}
		found, err = chain.DecodeTx(raw)
		return err
	})
	return found, err
}

func (a *StarknetAPI) getTransactionReceipt(params json.RawMessage) (interface{}, error) {
	var p struct {
		TransactionHash string `json:"transaction_hash"`
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, err
	}
	hash, err := felt.FromHex(p.TransactionHash)
	if err != nil {
		return nil, err
	}
	var receipt types.Receipt
	err = a.view(func(tx kv.Tx) error {
		r, ok, err := chain.GetReceipt(tx, hash)
		if err != nil || !ok {
			return errors.New("receipt not found")
		}
		receipt = r
		return nil
	})
	return receipt, err
}

func (a *StarknetAPI) addInvokeTransaction(params json.RawMessage) (interface{}, error) {
	return a.addTransaction(params, types.TxInvoke)
}

func (a *StarknetAPI) addDeclareTransaction(params json.RawMessage) (interface{}, error) {
	return a.addTransaction(params, types.TxDeclare)
}

func (a *StarknetAPI) addDeployAccountTransaction(params json.RawMessage) (interface{}, error) {
	return a.addTransaction(params, types.TxDeployAccount)
}

func (a *StarknetAPI) addTransaction(params json.RawMessage, kind types.TxKind) (interface{}, error) {
	var tx types.Transaction
	if err := json.Unmarshal(params, &tx); err != nil {
		return nil, err
	}
	tx.Kind = kind
	hash := txhash.Compute(a.hasher, a.chainID, tx)
	result, err := a.pool.AddTransaction(context.Background(), tx, hash)
	if err != nil {
		return nil, err
	}
	switch kind {
	case types.TxDeclare:
		return map[string]string{"transaction_hash": result.Hex(), "class_hash": tx.ClassHash.Hex()}, nil
	case types.TxDeployAccount:
		return map[string]string{"transaction_hash": result.Hex(), "contract_address": tx.Sender.Hex()}, nil
	default:
		return map[string]string{"transaction_hash": result.Hex()}, nil
	}
}

func (a *StarknetAPI) getStateUpdate(params json.RawMessage) (interface{}, error) {
	var p blockIDParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, err
	}
	var header types.Header
	var diff *chain.StateDiff
	err := a.view(func(tx kv.Tx) error {
		n, err := a.resolveBlockNumber(tx, p.BlockID)
		if err != nil {
			return err
		}
		h, ok, err := chain.GetHeader(tx, n)
		if err != nil || !ok {
			return errors.New("block not found")
		}
		header = h
		diff, err = chain.GetStateDiff(tx, n)
		return err
	})
	if err != nil {
		return nil, err
	}
	return struct {
		BlockHash string `json:"block_hash"`
		NewRoot string `json:"new_root"`
		StateDiff *chain.StateDiff `json:"state_diff"`
	}{BlockHash: header.Hash.Hex(), NewRoot: header.StateDiffCommitment.Hex(), StateDiff: diff}, nil
}

func (a *StarknetAPI) getTransactionByBlockIDAndIndex(params json.RawMessage) (interface{}, error) {
	var p struct {
		BlockID types.BlockIDOrTag `json:"block_id"`
		Index int `json:"index"`
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, err
	}
	var found types.TxWithHash
	err := a.view(func(tx kv.Tx) error {
		n, err := a.resolveBlockNumber(tx, p.BlockID)
		if err != nil {
			return err
		}
		block, err := chain.GetBlock(tx, n)
		if err != nil || block == nil {
			return errors.New("block not found")
		}
		if p.Index < 0 || p.Index >= len(block.Body) {
			return errors.New("index out of range")
		}
		found = block.Body[p.Index]
		return nil
	})
	return found, err
}

func (a *StarknetAPI) getTransactionStatus(params json.RawMessage) (interface{}, error) {
	var p struct {
		TransactionHash string `json:"transaction_hash"`
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, err
	}
	hash, err := felt.FromHex(p.TransactionHash)
	if err != nil {
		return nil, err
	}
	var status string
	err = a.view(func(tx kv.Tx) error {
		if _, ok, err := chain.GetReceipt(tx, hash); err == nil && ok {
			status = "ACCEPTED_ON_L2"
			return nil
		}
		status = ""
		return nil
	})
	if err != nil {
		return nil, err
	}
	if status == "" {
		if a.pending != nil {
			if _, ok, _ := a.pending.GetPendingTransaction(context.Background(), hash); ok {
				return map[string]string{"finality_status": "PRE_CONFIRMED"}, nil
			}
		}
		return nil, errors.New("transaction hash not found")
	}
	return map[string]string{"finality_status": status}, nil
}

func (a *StarknetAPI) getClass(params json.RawMessage) (interface{}, error) {
	var p struct {
		BlockID types.BlockIDOrTag `json:"block_id"`
		ClassHash string `json:"class_hash"`
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, err
	}
	classHash, err := felt.FromHex(p.ClassHash)
	if err != nil {
		return nil, err
	}
	var class *types.ContractClass
	err = a.view(func(tx kv.Tx) error {
		c, err := a.lookupClass(context.Background(), tx, classHash)
		class = c
		return err
	})
	if err != nil {
		return nil, err
	}
	if class == nil {
		return nil, errors.New("class not found")
	}
	return class, nil
}

func (a *StarknetAPI) getClassAt(params json.RawMessage) (interface{}, error) {
	var p struct {
		BlockID types.BlockIDOrTag `json:"block_id"`
		ContractAddress string `json:"contract_address"`
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, err
	}
	addr, err := felt.FromHex(p.ContractAddress)
	if err != nil {
		return nil, err
	}
	var class *types.ContractClass
	err = a.view(func(tx kv.Tx) error {
		st := state.NewLatestStateProvider(tx)
		classHash, err := st.ClassHash(context.Background(), addr)
		if err != nil {
			return err
		}
		c, err := a.lookupClass(context.Background(), tx, classHash)
		class = c
		return err
	})
	if err != nil {
		return nil, err
	}
	if class == nil {
		return nil, errors.New("class not found")
	}
	return class, nil
}

// simulateOne runs tx to completion against env's latest state without
// committing, the shared path starknet_call and the estimateFee family use.
func (a *StarknetAPI) simulateOne(ctx context.Context, env executor.BlockEnv, tx types.Transaction) (types.ExecutionResult, types.Receipt, error) {
	var result types.ExecutionResult
	var receipt types.Receipt
	err := a.view(func(roTx kv.Tx) error {
		st := state.NewLatestStateProvider(roTx)
		exec := a.factory.New(st, env)
		r, _, rcpt, err := exec.Execute(ctx, tx)
		if err != nil {
			return err
		}
		result, receipt = r, rcpt
		return nil
	})
	return result, receipt, err
}

func (a *StarknetAPI) currentBlockEnv(tx kv.Tx) (executor.BlockEnv, error) {
	n, ok, err := chain.LatestBlockNumber(tx)
	if err != nil {
		return executor.BlockEnv{}, err
	}
	env := executor.BlockEnv{Number: 0}
	if ok {
		h, hok, err := chain.GetHeader(tx, n)
		if err != nil {
			return executor.BlockEnv{}, err
		}
		if hok {
			env = executor.BlockEnv{
				Number: h.Number + 1,
				Timestamp: h.Timestamp,
				SequencerAddress: h.SequencerAddress,
				L1GasPrice: h.L1GasPrice,
				L1DataGasPrice: h.L1DataGasPrice,
				L2GasPrice: h.L2GasPrice,
				DAMode: h.DAMode,
				StarknetVersion: h.StarknetVersion,
			}
		}
	}
	return env, nil
}

func (a *StarknetAPI) call(params json.RawMessage) (interface{}, error) {
	var p struct {
		BlockID types.BlockIDOrTag `json:"block_id"`
		Tx types.Transaction `json:"request"`
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, err
	}
	var env executor.BlockEnv
	err := a.view(func(tx kv.Tx) error {
		e, err := a.currentBlockEnv(tx)
		env = e
		return err
	})
	if err != nil {
		return nil, err
	}
	result, _, err := a.simulateOne(context.Background(), env, p.Tx)
	if err != nil {
		return nil, err
	}
	if result.Status == types.Reverted {
		return nil, errors.New("call reverted: " + result.RevertReason)
	}
	return []string{}, nil // the VM's return-data channel is outside executor.Executor's surface
}

func (a *StarknetAPI) estimateFee(params json.RawMessage) (interface{}, error) {
	var p struct {
		BlockID types.BlockIDOrTag `json:"block_id"`
		Transactions []types.Transaction `json:"request"`
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, err
	}
	var env executor.BlockEnv
	err := a.view(func(tx kv.Tx) error {
		e, err := a.currentBlockEnv(tx)
		env = e
		return err
	})
	if err != nil {
		return nil, err
	}
	estimates := make([]types.FeeEstimate, 0, len(p.Transactions))
	for _, tx := range p.Transactions {
		_, receipt, err := a.simulateOne(context.Background(), env, tx)
		if err != nil {
			return nil, err
		}
		estimates = append(estimates, producer.EstimateFee(env, receipt.Resources, receipt.FeeUnit))
	}
	return estimates, nil
}

func (a *StarknetAPI) estimateMessageFee(params json.RawMessage) (interface{}, error) {
	var p struct {
		BlockID types.BlockIDOrTag `json:"block_id"`
		Message types.Transaction `json:"message"`
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, err
	}
	p.Message.Kind = types.TxInvoke
	out, err := a.estimateFee(mustMarshal(struct {
		BlockID types.BlockIDOrTag `json:"block_id"`
		Transactions []types.Transaction `json:"request"`
	}{p.BlockID, []types.Transaction{p.Message}}))
	if err != nil {
		return nil, err
	}
	estimates := out.([]types.FeeEstimate)
	if len(estimates) == 0 {
		return nil, errors.New("no estimate produced")
	}
	return estimates[0], nil
}

func (a *StarknetAPI) getEvents(params json.RawMessage) (interface{}, error) {
	var p struct {
		FromBlock types.BlockIDOrTag `json:"from_block"`
		ToBlock types.BlockIDOrTag `json:"to_block"`
		Address string `json:"address"`
		Keys [][]string `json:"keys"`
		ChunkSize int `json:"chunk_size"`
	}
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, err
	}
	var addrFilter *felt.ContractAddress
	if p.Address != "" {
		addr, err := felt.FromHex(p.Address)
		if err != nil {
			return nil, err
		}
		addrFilter = &addr
	}
	chunk := p.ChunkSize
	if chunk <= 0 || chunk > 1024 {
		chunk = 1024
	}
	var events []types.Event
	err := a.view(func(tx kv.Tx) error {
		from, err := a.resolveBlockNumber(tx, p.FromBlock)
		if err != nil {
			return err
		}
		to, err := a.resolveBlockNumber(tx, p.ToBlock)
		if err != nil {
			return err
		}
		for n := from; n <= to && len(events) < chunk; n++ {
			block, err := chain.GetBlock(tx, n)
			if err != nil || block == nil {
				continue
			}
			for _, twh := range block.Body {
				r, ok, err := chain.GetReceipt(tx, twh.Hash)
				if err != nil || !ok {
					continue
				}
				for _, ev := range r.Events {
					if addrFilter != nil && ev.FromAddress != *addrFilter {
						continue
					}
					if !matchesKeys(ev, p.Keys) {
						continue
					}
					events = append(events, ev)
					if len(events) >= chunk {
						break
					}
				}
			}
		}
		return nil
	})
	return map[string]interface{}{"events": events}, err
}

func matchesKeys(ev types.Event, filter [][]string) bool {
	for i, options := range filter {
		if len(options) == 0 {
			continue
		}
		if i >= len(ev.Keys) {
			return false
		}
		matched := false
		for _, opt := range options {
			want, err := felt.FromHex(opt)
			if err == nil && want == ev.Keys[i] {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}

// getStorageProof is unimplemented: proof generation needs the trie's
// Merkle-path witness API, which core/trie does not expose beyond Root()
// and Commit().
func (a *StarknetAPI) getStorageProof(params json.RawMessage) (interface{}, error) {
	return nil, errors.New("starknet_getStorageProof: not supported, no Merkle witness API on this trie")
}

func mustMarshal(v interface{}) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}

func (a *StarknetAPI) view(f func(tx kv.Tx) error) error {
	return a.db.View(context.Background(), f)
}
