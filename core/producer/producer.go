// Package producer implements the block producer: instant mode (a single
// opaque write transaction per call) and interval mode (a long-lived
// pending block finalized on a timer or a sealing trigger), both holding to
// a "one block, one transaction, commit or rollback" discipline.
package producer

import (
	"context"
	"sync"
	"time"

	"github.com/starknet-sequencer/sequencer/blockhash"
	"github.com/starknet-sequencer/sequencer/core/chain"
	"github.com/starknet-sequencer/sequencer/core/state"
	"github.com/starknet-sequencer/sequencer/core/trie"
	"github.com/starknet-sequencer/sequencer/crypto"
	"github.com/starknet-sequencer/sequencer/executor"
	"github.com/starknet-sequencer/sequencer/felt"
	"github.com/starknet-sequencer/sequencer/kv"
	"github.com/starknet-sequencer/sequencer/kv/tables"
	"github.com/starknet-sequencer/sequencer/metrics"
	"github.com/starknet-sequencer/sequencer/txpool"
	"github.com/starknet-sequencer/sequencer/types"
)

// stageNextTxNumber is the StageCheckpoints key this package owns: the
// first free, never-yet-assigned TxNumber, carried across produce_block
// calls the way a staged-sync checkpoint threads forward between runs.
const stageNextTxNumber = "NextTxNumber"

// BatchSize bounds how many transactions one produce_block() call drains
// from the pool.
const BatchSize = 128

// Pool is the subset of txpool.Pool the producer drives.
type Pool interface {
	Drain(max int) []types.PendingTx
	RemoveByHash(hash felt.Hash)
	Update(newValidatorFactory func() txpool.Validator, stateNonce func(felt.ContractAddress) types.Nonce)
}

// Producer runs instant-mode block production against db.
type Producer struct {
	db kv.RwDB
	pool Pool
	factory executor.Factory
	hasher crypto.Hasher
	tries *trie.Families

	mu sync.Mutex // serializes produce_block calls
	env executor.BlockEnv

	// lastSnapshot is the read snapshot handed to the pool's new validator
	// after each committed block; closed when superseded.
	lastSnapshot state.StateProvider

	// newValidator builds a pool Validator bound to a fresh state
	// snapshot + the given block env, for the Update() call at the end of
	// each block.
	newValidator func(state.StateProvider, executor.BlockEnv) txpool.Validator
}

// New constructs an instant-mode Producer.
func New(
	db kv.RwDB,
	pool Pool,
	factory executor.Factory,
	hasher crypto.Hasher,
	tries *trie.Families,
	initialEnv executor.BlockEnv,
	newValidator func(state.StateProvider, executor.BlockEnv) txpool.Validator,
) *Producer {
	return &Producer{
		db: db, pool: pool, factory: factory, hasher: hasher, tries: tries,
		env: initialEnv, newValidator: newValidator,
	}
}

// SetBlockEnv installs the block env the next produce_block() call will
// use, replacing the one ProduceBlock advances on its own after each seal.
func (p *Producer) SetBlockEnv(env executor.BlockEnv) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.env = env
}

// CurrentEnv returns the block env the next ProduceBlock call will seal
// against. IntervalProducer uses this to keep its pending-block preview
// pinned to the same header the producer itself is about to build.
func (p *Producer) CurrentEnv() executor.BlockEnv {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.env
}

// ProduceBlock executes the instant-mode protocol end to end: drain the
// pool, execute, commit the state diff and tries, seal the header, and
// persist the block. Returns (nil, nil) if the pool had nothing to drain or
// every drained tx failed to execute.
func (p *Producer) ProduceBlock(ctx context.Context) (*types.Block, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	start := time.Now()
	defer func() { metrics.BlockProductionSeconds.Observe(time.Since(start).Seconds()) }()

	env := p.env
	pending := p.pool.Drain(BatchSize)
	if len(pending) == 0 {
		return nil, nil
	}

	var sealed *types.Block
	var receipts []types.Receipt

	err := p.db.Update(ctx, func(tx kv.RwTx) error {
		parentHash := felt.Zero
		if env.Number > 0 {
			if parent, ok, err := chain.GetHeader(tx, env.Number-1); err != nil {
				return err
			} else if ok {
				parentHash = parent.Hash
			}
		}

		st := state.NewLatestStateProvider(tx)
		defer st.Close()

		exec := p.factory.New(st, env)
		aggregate := types.NewStateUpdates()

		body := make([]types.TxWithHash, 0, len(pending))
		var committed []types.PendingTx

		for _, ptx := range pending {
			result, updates, receipt, err := exec.Execute(ctx, ptx.Tx)
			if err != nil {
				// A VM-level failure (not a Reverted ExecutionResult) drops
				// the tx from this block; it stays in the pool for a later
				// attempt.
				continue
			}
			body = append(body, types.TxWithHash{Hash: ptx.TxHash, Tx: ptx.Tx})
			receipt.TxHash = ptx.TxHash
			receipt.ExecutionResult = result
			receipt.GasPrices = [3]types.GasPricePair{env.L1GasPrice, env.L1DataGasPrice, env.L2GasPrice}
			receipts = append(receipts, receipt)
			aggregate.Merge(updates)
			committed = append(committed, ptx)
		}

		if len(body) == 0 {
			return nil
		}

		if err := state.ApplyStateUpdatesTx(tx, env.Number, aggregate); err != nil {
			return err
		}

		p.tries.ApplyStateUpdates(aggregate)
		classesRoot, err := p.tries.Classes.Root(ctx, tx)
		if err != nil {
			return err
		}
		contractsRoot, err := p.tries.Contracts.Root(ctx, tx)
		if err != nil {
			return err
		}
		storagesRoot, err := p.tries.Storages.Root(ctx, tx)
		if err != nil {
			return err
		}
		stateRoot := p.hasher.Poseidon(classesRoot, contractsRoot, storagesRoot)

		if err := p.tries.Classes.Commit(ctx, tx, env.Number); err != nil {
			return err
		}
		if err := p.tries.Contracts.Commit(ctx, tx, env.Number); err != nil {
			return err
		}
		if err := p.tries.Storages.Commit(ctx, tx, env.Number); err != nil {
			return err
		}

		stateDiffRoot, stateDiffLen := stateDiffCommitment(p.hasher, aggregate)

		var eventCount uint64
		for _, r := range receipts {
			eventCount += uint64(len(r.Events))
		}

		header := types.Header{
			ParentHash: parentHash,
			Number: env.Number,
			StateRoot: stateRoot,
			SequencerAddress: env.SequencerAddress,
			Timestamp: env.Timestamp,
			TransactionsCommitment: transactionsCommitment(p.hasher, body),
			EventsCommitment: eventsCommitment(p.hasher, receipts),
			ReceiptsCommitment: receiptsCommitment(p.hasher, receipts),
			StateDiffCommitment: stateDiffRoot,
			TxCount: uint64(len(body)),
			EventCount: eventCount,
			StateDiffLength: stateDiffLen,
			L1GasPrice: env.L1GasPrice,
			L1DataGasPrice: env.L1DataGasPrice,
			L2GasPrice: env.L2GasPrice,
			DAMode: env.DAMode,
			StarknetVersion: env.StarknetVersion,
		}
		header.Hash = blockhash.Compute(p.hasher, header)

		block := types.Block{Header: header, Body: body, Status: types.AcceptedOnL2}

		nextTxNumber, err := loadNextTxNumber(tx)
		if err != nil {
			return err
		}
		nextTxNumber, err = chain.AppendBlock(tx, block, receipts, nextTxNumber)
		if err != nil {
			return err
		}
		if err := saveNextTxNumber(tx, nextTxNumber); err != nil {
			return err
		}

		sealed = &block
		for _, ptx := range committed {
			p.pool.RemoveByHash(ptx.TxHash)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if sealed == nil {
		return nil, nil
	}
	metrics.BlocksProduced.Inc()

	// Advance the next block's number now that env.Number has been sealed;
	// nothing else in the tree bumps Number, and leaving it unchanged would
	// make the next ProduceBlock call overwrite this same block.
	p.env.Number = env.Number + 1
	nextEnv := p.env

	if err := p.refreshPoolValidator(ctx, nextEnv); err != nil {
		return sealed, err
	}

	return sealed, nil
}

// refreshPoolValidator opens a fresh read snapshot over the just-committed
// block and hands it to the pool, closing the previous snapshot.
func (p *Producer) refreshPoolValidator(ctx context.Context, env executor.BlockEnv) error {
	roTx, err := p.db.BeginRo(ctx)
	if err != nil {
		return err
	}
	snapshot := state.NewLatestStateProvider(roTx)

	prev := p.lastSnapshot
	p.lastSnapshot = snapshot
	if prev != nil {
		prev.Close()
	}

	p.pool.Update(
		func() txpool.Validator { return p.newValidator(snapshot, env) },
		func(sender felt.ContractAddress) types.Nonce {
			n, err := snapshot.Nonce(ctx, sender)
			if err != nil {
				return felt.Zero
			}
			return n
		},
	)
	return nil
}

func loadNextTxNumber(tx kv.Tx) (types.TxNumber, error) {
	v, err := tx.GetOne(tables.StageCheckpoints, []byte(stageNextTxNumber))
	if err != nil {
		return 0, err
	}
	if v == nil {
		return 0, nil
	}
	n, err := tables.DecodeUint64(v)
	return types.TxNumber(n), err
}

func saveNextTxNumber(tx kv.RwTx, n types.TxNumber) error {
	return tx.Put(tables.StageCheckpoints, []byte(stageNextTxNumber), tables.EncodeUint64(uint64(n)))
}
