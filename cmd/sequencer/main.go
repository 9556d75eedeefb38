// Command sequencer is the node's entrypoint: it opens the chain store,
// wires the transaction pool, block producer, optimistic executor, and
// JSON-RPC/metrics servers together, and runs until interrupted. The flag
// layout and single long-lived "run" command follow an App-with-one-command
// shape.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/starknet-sequencer/sequencer/core/chain"
	"github.com/starknet-sequencer/sequencer/core/optimistic"
	"github.com/starknet-sequencer/sequencer/core/producer"
	"github.com/starknet-sequencer/sequencer/core/state"
	"github.com/starknet-sequencer/sequencer/core/trie"
	"github.com/starknet-sequencer/sequencer/crypto"
	"github.com/starknet-sequencer/sequencer/executor"
	"github.com/starknet-sequencer/sequencer/felt"
	"github.com/starknet-sequencer/sequencer/internal/logging"
	"github.com/starknet-sequencer/sequencer/kv"
	"github.com/starknet-sequencer/sequencer/kv/bbolt"
	"github.com/starknet-sequencer/sequencer/kv/mdbx"
	"github.com/starknet-sequencer/sequencer/nodecfg"
	"github.com/starknet-sequencer/sequencer/rpc"
	"github.com/starknet-sequencer/sequencer/txpool"
	"github.com/starknet-sequencer/sequencer/types"
)

var log = logging.New("cmd-sequencer")

func main() {
	app := &cli.App{
		Name: "sequencer",
		Usage: "run a Starknet sequencer node",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "datadir", Value: "./chaindata", Usage: "chain store directory"},
			&cli.StringFlag{Name: "backend", Value: "mdbx", Usage: "storage backend: mdbx or bbolt"},
			&cli.StringFlag{Name: "chain-id", Value: "SN_SEQUENCER"},
			&cli.StringFlag{Name: "rpc-addr", Value: "127.0.0.1:6060"},
			&cli.StringFlag{Name: "metrics-addr", Value: "127.0.0.1:9090"},
			&cli.StringFlag{Name: "producer-mode", Value: "instant", Usage: "instant or interval"},
			&cli.DurationFlag{Name: "producer-interval", Value: 2 * time.Second},
			&cli.BoolFlag{Name: "optimistic", Value: true, Usage: "run the optimistic executor ahead of the producer"},
		},
		Action: run,
	}
	if err := app.Run(os.Args); err != nil {
		log.Error("sequencer exited", "err", err)
		os.Exit(1)
	}
}

// defaultGasPrice seeds a nonzero ETH/STRK price pair for the initial
// block env, which the producer copies into sealed headers and receipts
// and fee estimates price against.
func defaultGasPrice() types.GasPricePair {
	one := felt.FromUint64(1)
	return types.GasPricePair{PriceInEth: one, PriceInStrk: one}
}

func run(c *cli.Context) error {
	cfg := nodecfg.Default()
	cfg.DataDir = c.String("datadir")
	if c.String("producer-mode") == "interval" {
		cfg.ProducerMode = nodecfg.ModeInterval
	}
	cfg.ProducerInterval = c.Duration("producer-interval")
	chainID := c.String("chain-id")

	db, err := openDB(c.String("backend"), cfg.DataDir)
	if err != nil {
		return fmt.Errorf("open chain store: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go waitForSignal(cancel)

	hasher := crypto.StubHasher{}
	tries := trie.NewFamilies(hasher)
	vm := executor.StubVM{}

	var pool *txpool.Pool
	pool = txpool.NewPool(orderingFor(cfg.Pool.Ordering), bootstrapValidatorFactory(db, chainID, vm))

	initialEnv := executor.BlockEnv{
		Number: 0,
		Timestamp: uint64(time.Now().Unix()),
		L1GasPrice: defaultGasPrice(),
		L1DataGasPrice: defaultGasPrice(),
		L2GasPrice: defaultGasPrice(),
		StarknetVersion: "0.13.0",
	}

	newValidator := func(st state.StateProvider, env executor.BlockEnv) txpool.Validator {
		return txpool.NewStatefulValidator(
			st, env, executionFlags(cfg), txpool.ChainSpec{ChainID: chainID}, txpool.CfgOverrides{},
			vm, executor.Permit(), pool.GetNonce, pool.SetPoolNonce,
		)
	}

	prod := producer.New(db, pool, vm, hasher, tries, initialEnv, newValidator)

	eg, egCtx := errgroup.WithContext(ctx)
	runProducer(egCtx, eg, cfg, prod)

	var pendingProvider *optimistic.OptimisticPendingBlockProvider
	if c.Bool("optimistic") {
		pendingProvider = runOptimisticExecutor(egCtx, eg, pool, db, vm, initialEnv)
	}

	if err := serveRPC(ctx, c.String("rpc-addr"), db, pool, chainID, hasher, vm, pendingProvider); err != nil {
		return err
	}
	serveMetrics(c.String("metrics-addr"))

	<-ctx.Done()
	return eg.Wait()
}

// runProducer schedules the block-sealing loop onto eg: the interval mode
// delegates entirely to producer.IntervalProducer, while instant mode polls
// ProduceBlock on a short fixed tick and keeps running past a single failed
// attempt (a bad pending tx must not wedge the whole loop).
func runProducer(ctx context.Context, eg *errgroup.Group, cfg nodecfg.Config, prod *producer.Producer) {
	if cfg.ProducerMode == nodecfg.ModeInterval {
		ip := producer.NewIntervalProducer(prod, cfg.ProducerInterval)
		eg.Go(func() error {
			ip.Run(ctx)
			return nil
		})
		return
	}
	eg.Go(func() error {
		ticker := time.NewTicker(500 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				if _, err := prod.ProduceBlock(ctx); err != nil {
					log.Warn("produce_block failed", "err", err)
				}
			}
		}
	})
}

// localChainClient answers optimistic.UpstreamClient against this node's
// own committed chain, the single-process stand-in for a remote canonical
// feed.
type localChainClient struct{ db kv.RwDB }

func (l localChainClient) LatestBlock(ctx context.Context) (*types.Block, error) {
	var block *types.Block
	err := l.db.View(ctx, func(tx kv.Tx) error {
		n, ok, err := chain.LatestBlockNumber(tx)
		if err != nil || !ok {
			return err
		}
		block, err = chain.GetBlock(tx, n)
		return err
	})
	return block, err
}

func runOptimisticExecutor(ctx context.Context, eg *errgroup.Group, pool *txpool.Pool, db kv.RwDB, vm executor.StubVM, env executor.BlockEnv) *optimistic.OptimisticPendingBlockProvider {
	roTx, err := db.BeginRo(ctx)
	if err != nil {
		log.Warn("optimistic executor disabled: no read snapshot", "err", err)
		return nil
	}
	storage := state.NewLatestStateProvider(roTx)
	upstream := localChainClient{db: db}
	actor := optimistic.New(pool, storage, vm, pool.Subscribe(), env, logging.New("optimistic"))

	eg.Go(func() error {
		actor.Run(ctx)
		return nil
	})

	prune := optimistic.NewPruneTask(actor, upstream, 2*time.Second)
	eg.Go(func() error {
		prune.Run(ctx)
		return nil
	})

	return optimistic.NewOptimisticPendingBlockProvider(actor, upstream)
}

func serveRPC(ctx context.Context, addr string, db kv.RwDB, pool *txpool.Pool, chainID string, hasher crypto.Hasher, vm executor.StubVM, pending *optimistic.OptimisticPendingBlockProvider) error {
	d := rpc.NewDispatcher()
	rpc.NewStarknetAPI(db, pool, chainID, hasher, vm, pending, d)

	srv := &http.Server{Addr: addr, Handler: d.Router()}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	go func() {
		log.Info("rpc listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("rpc server stopped", "err", err)
		}
	}()
	return nil
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	go func() {
		log.Info("metrics listening", "addr", addr)
		if err := http.ListenAndServe(addr, mux); err != nil && err != http.ErrServerClosed {
			log.Error("metrics server stopped", "err", err)
		}
	}()
}

func waitForSignal(cancel context.CancelFunc) {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	cancel()
}

// bootstrapValidatorFactory builds the Validator the pool uses before the
// first block commits (Producer.refreshPoolValidator replaces it via
// Pool.Update after every subsequent block).
func bootstrapValidatorFactory(db kv.RwDB, chainID string, vm executor.StubVM) func() txpool.Validator {
	return func() txpool.Validator {
		roTx, err := db.BeginRo(context.Background())
		if err != nil {
			return nil
		}
		st := state.NewLatestStateProvider(roTx)
		noPoolNonce := func(felt.ContractAddress) (types.Nonce, bool) { return felt.Zero, false }
		noSetNonce := func(felt.ContractAddress, types.Nonce) {}
		return txpool.NewStatefulValidator(
			st, executor.BlockEnv{}, executor.ExecutionFlags{}, txpool.ChainSpec{ChainID: chainID}, txpool.CfgOverrides{},
			vm, executor.Permit(), noPoolNonce, noSetNonce,
		)
	}
}

func executionFlags(cfg nodecfg.Config) executor.ExecutionFlags {
	return executor.ExecutionFlags{
		SkipValidate: !cfg.ExecutionFlags.AccountValidation,
		SkipFeeCheck: !cfg.ExecutionFlags.Fee,
	}
}

func openDB(backend, datadir string) (kv.RwDB, error) {
	switch backend {
	case "bbolt":
		return bbolt.Open(datadir)
	default:
		if err := os.MkdirAll(datadir, 0o755); err != nil {
			return nil, err
		}
		return mdbx.Open(datadir, 64)
	}
}

func orderingFor(o nodecfg.PoolOrdering) txpool.PoolOrd {
	if o == nodecfg.OrderingTip {
		return txpool.TipOrd{}
	}
	return txpool.FIFOOrd{}
}
