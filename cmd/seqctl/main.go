// Command seqctl is the node's offline maintenance CLI, wrapping the
// subcommands operators run against a stopped (or otherwise not actively
// producing) chain store: the pruning utility today, with room for
// siblings as satellite binaries alongside the main node (cmd/ holds one
// binary per operator-facing concern rather than one monolithic CLI).
package main

import (
	"os"

	"github.com/urfave/cli/v2"

	"github.com/starknet-sequencer/sequencer/internal/logging"
	"github.com/starknet-sequencer/sequencer/kv"
	"github.com/starknet-sequencer/sequencer/kv/bbolt"
	"github.com/starknet-sequencer/sequencer/kv/mdbx"
	"github.com/starknet-sequencer/sequencer/prune"
)

var log = logging.New("cmd-seqctl")

// backend is set by the top-level --backend flag before any subcommand
// Action runs; prune.Command's openDB callback reads it.
var backend = "mdbx"

func main() {
	app := &cli.App{
		Name: "seqctl",
		Usage: "offline maintenance for a sequencer chain store",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "backend", Value: "mdbx", Usage: "storage backend: mdbx or bbolt", Destination: &backend},
		},
		Commands: []*cli.Command{
			prune.Command(openDB),
		},
	}
	if err := app.Run(os.Args); err != nil {
		log.Error("seqctl failed", "err", err)
		os.Exit(1)
	}
}

func openDB(path string) (kv.RwDB, error) {
	if backend == "bbolt" {
		return bbolt.Open(path)
	}
	return mdbx.Open(path, 64)
}
