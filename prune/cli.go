package prune

import (
	"context"
	"fmt"
	"os"

	"github.com/jedib0t/go-pretty/v6/progress"
	"github.com/urfave/cli/v2"

	"github.com/starknet-sequencer/sequencer/kv"
)

// Command builds the "prune" CLI surface:
//
//	prune --path <DIR> [--latest | --keep-last <N>] [-y]
//
// openDB opens the store at the given path; kept as a parameter so this
// command stays agnostic of which kv.RwDB backend (mdbx or bbolt) the
// caller wires in.
func Command(openDB func(path string) (kv.RwDB, error)) *cli.Command {
	return &cli.Command{
		Name: "prune",
		Usage: "shrink trie history and changeset tables",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Required: true, Usage: "database directory"},
			&cli.BoolFlag{Name: "latest", Usage: "clear all trie history unconditionally"},
			&cli.Uint64Flag{Name: "keep-last", Usage: "retain history for the last N blocks"},
			&cli.BoolFlag{Name: "y", Usage: "skip the confirmation prompt"},
		},
		Action: func(c *cli.Context) error {
			db, err := openDB(c.String("path"))
			if err != nil {
				return fmt.Errorf("prune: open db: %w", err)
			}
			defer db.Close()

			mode, err := modeFromFlags(c)
			if err != nil {
				return err
			}

			return runCLI(c.Context, db, mode, c.Bool("y"))
		},
	}
}

func modeFromFlags(c *cli.Context) (Mode, error) {
	if c.Bool("latest") && c.IsSet("keep-last") {
		return Mode{}, fmt.Errorf("prune: --latest and --keep-last are mutually exclusive")
	}
	if c.Bool("latest") {
		return Mode{Kind: Latest}, nil
	}
	if c.IsSet("keep-last") {
		return Mode{Kind: KeepLastN, Keep: c.Uint64("keep-last")}, nil
	}
	return Mode{}, fmt.Errorf("prune: one of --latest or --keep-last is required")
}

// runCLI prints the statistics pre-pass, prompts for confirmation unless
// skipped, then runs the prune with a six-step progress bar.
func runCLI(ctx context.Context, db kv.RwDB, mode Mode, skipConfirm bool) error {
	p := New(db)

	if mode.Kind == KeepLastN {
		stats, err := p.Statistics(ctx, mode.Keep)
		if err != nil {
			return err
		}
		for _, s := range stats {
			fmt.Printf("%-10s history=%-10d changeset=%-10d\n", s.Table, s.HistoryEntries, s.ChangeSetEntries)
		}
	}

	if !skipConfirm {
		fmt.Print("proceed? [y/N] ")
		var answer string
		fmt.Fscanln(os.Stdin, &answer)
		if answer != "y" && answer != "Y" {
			return fmt.Errorf("prune: cancelled")
		}
	}

	pw := progress.NewWriter()
	pw.SetAutoStop(true)
	tracker := &progress.Tracker{Message: "pruning", Total: 6}
	pw.AppendTracker(tracker)
	go pw.Render()

	err := p.Run(ctx, mode, func(table string) {
		tracker.Increment(1)
	})
	if err != nil {
		tracker.MarkAsErrored()
		return err
	}
	tracker.MarkAsDone()
	return nil
}
