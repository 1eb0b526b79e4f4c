package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"samplesort/internal/archive"
	"samplesort/internal/classify"
	"samplesort/internal/config"
	"samplesort/internal/dedupe"
	"samplesort/internal/ledger"
	"samplesort/internal/logging"
	"samplesort/internal/media"
	"samplesort/internal/organize"
)

func newOrganizeCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool
	var seedExisting bool
	var sourceFlag string
	var destFlag string

	cmd := &cobra.Command{
		Use:   "organize",
		Short: "Classify and place samples from the source directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := applyPathOverrides(cfg, sourceFlag, destFlag); err != nil {
				return err
			}

			compiled, err := ctx.compileRules()
			if err != nil {
				return fmt.Errorf("compile rules: %w", err)
			}

			logger := ctx.ensureLogger()
			var prober classify.DurationProber
			if cfg.Organize.CheckLength {
				prober = media.NewProber(cfg.TempoKey.FFprobeBinary, logger)
			}
			classifier := classify.New(cfg, compiled, prober, logger)
			expander := archive.NewExpander(logger)
			var checker *dedupe.Checker
			if cfg.Dedupe.Enabled {
				checker = dedupe.NewChecker(dedupe.NewIndex(), cfg.Dedupe.Algorithm, logger)
			}

			runner := organize.NewRunner(cfg, classifier, expander, checker, logger)

			runCtx, stop := signalContext(cmd.Context())
			defer stop()

			summary, err := runner.Run(runCtx, organize.Options{
				DryRun:          dryRun,
				SeedDestination: seedExisting || cfg.Dedupe.SeedDestination,
			})
			if err != nil {
				return err
			}

			if !summary.DryRun {
				if err := recordSummary(ctx, summary); err != nil {
					logger.Warn("failed to record run in ledger", logging.Error(err))
				}
			}

			printSummary(cmd, summary)
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report planned placements without touching any file")
	cmd.Flags().BoolVar(&seedExisting, "seed-existing", false, "Hash the destination tree into the duplicate index first")
	cmd.Flags().StringVar(&sourceFlag, "source", "", "Override the configured source directory")
	cmd.Flags().StringVar(&destFlag, "dest", "", "Override the configured destination directory")
	return cmd
}

func applyPathOverrides(cfg *config.Config, source, dest string) error {
	if trimmed := strings.TrimSpace(source); trimmed != "" {
		expanded, err := config.ExpandPath(trimmed)
		if err != nil {
			return err
		}
		cfg.Paths.SourceDir = expanded
	}
	if trimmed := strings.TrimSpace(dest); trimmed != "" {
		expanded, err := config.ExpandPath(trimmed)
		if err != nil {
			return err
		}
		cfg.Paths.DestDir = expanded
	}
	return nil
}

func recordSummary(ctx *commandContext, summary *organize.Summary) error {
	store, err := ctx.openLedger()
	if err != nil {
		return err
	}
	defer store.Close()

	moves := make([]ledger.Move, 0, len(summary.Moved))
	for _, moved := range summary.Moved {
		moves = append(moves, ledger.Move{Src: moved.Src, Dest: moved.Dest})
	}
	run := ledger.Run{
		ID:              summary.RunID,
		StartedAt:       summary.StartedAt,
		FinishedAt:      summary.FinishedAt,
		SourceRoot:      summary.SourceRoot,
		DestinationRoot: summary.DestinationRoot,
		Mode:            summary.Mode,
		DryRun:          summary.DryRun,
		Moved:           len(summary.Moved),
		Skipped:         summary.Skipped,
		Duplicates:      summary.Duplicates,
		Errors:          summary.Errors,
	}
	return store.RecordRun(context.Background(), run, moves)
}

func printSummary(cmd *cobra.Command, summary *organize.Summary) {
	out := cmd.OutOrStdout()

	headers := []string{"PLACED", "SKIPPED", "DUPLICATES", "ERRORS", "ARCHIVES"}
	rows := [][]string{{
		strconv.Itoa(len(summary.Moved)),
		strconv.Itoa(summary.Skipped),
		strconv.Itoa(summary.Duplicates),
		strconv.Itoa(summary.Errors),
		strconv.Itoa(summary.Archives),
	}}
	aligns := []columnAlignment{alignRight, alignRight, alignRight, alignRight, alignRight}
	fmt.Fprintln(out, renderTable(headers, rows, aligns))

	label := "Run"
	if summary.DryRun {
		label = "Dry run"
	}
	fmt.Fprintf(out, "%s %s finished in %s\n", label, shortID(summary.RunID),
		summary.FinishedAt.Sub(summary.StartedAt).Round(timeRounding))
	if summary.Cancelled {
		fmt.Fprintln(out, "Run was cancelled; counts above are partial")
	}
}
