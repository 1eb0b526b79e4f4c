package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"samplesort/internal/fileutil"
	"samplesort/internal/ledger"
	"samplesort/internal/logging"
	"samplesort/internal/pathpolicy"
)

func newUndoCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "undo [run-id]",
		Short: "Move the files of a recorded run back to their original paths",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openLedger()
			if err != nil {
				return err
			}
			defer store.Close()

			run, err := resolveRun(store, args)
			if err != nil {
				return err
			}
			if run.Mode == "copy" {
				return fmt.Errorf("run %s copied files; the originals are still in place, nothing to undo", shortID(run.ID))
			}

			moves, err := store.Moves(context.Background(), run.ID)
			if err != nil {
				return err
			}

			logger := ctx.ensureLogger()
			restored, missing, failed := 0, 0, 0
			for i := len(moves) - 1; i >= 0; i-- {
				move := moves[i]
				if _, statErr := os.Stat(move.Dest); statErr != nil {
					missing++
					continue
				}
				target, uniqueErr := pathpolicy.UniquePath(move.Src)
				if uniqueErr != nil {
					failed++
					continue
				}
				if dryRun {
					fmt.Fprintf(cmd.OutOrStdout(), "would restore %s -> %s\n", move.Dest, target)
					restored++
					continue
				}
				if moveErr := fileutil.MoveFile(move.Dest, target); moveErr != nil {
					logger.Warn("undo move failed",
						logging.String(logging.FieldFile, move.Dest), logging.Error(moveErr))
					failed++
					continue
				}
				restored++
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Run %s: restored %d, missing %d, failed %d\n",
				shortID(run.ID), restored, missing, failed)
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report what would be restored without moving anything")
	return cmd
}

// resolveRun finds the run to undo: the latest non-dry run by default, or the
// run whose id matches the given full id or unique prefix.
func resolveRun(store *ledger.Store, args []string) (*ledger.Run, error) {
	if len(args) == 0 {
		return store.LatestRun(context.Background())
	}

	wanted := strings.TrimSpace(args[0])
	if run, err := store.GetRun(context.Background(), wanted); err == nil {
		return run, nil
	}

	runs, err := store.ListRuns(context.Background(), 1000)
	if err != nil {
		return nil, err
	}
	var match *ledger.Run
	for i := range runs {
		if strings.HasPrefix(runs[i].ID, wanted) {
			if match != nil {
				return nil, fmt.Errorf("run id prefix %q is ambiguous", wanted)
			}
			match = &runs[i]
		}
	}
	if match == nil {
		return nil, fmt.Errorf("no run matching %q", wanted)
	}
	return match, nil
}
