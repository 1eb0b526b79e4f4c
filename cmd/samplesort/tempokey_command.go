package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"samplesort/internal/config"
	"samplesort/internal/logging"
	"samplesort/internal/media"
	"samplesort/internal/scan"
	"samplesort/internal/tempokey"
)

func newTempoKeyCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "tempokey [path]",
		Short: "Sort placed samples into BPM and key folders",
		Long: "Runs the tempo/key pass over a directory tree, or over the files " +
			"placed by the most recent organize run when no path is given.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			logger := ctx.ensureLogger()

			var targets []string
			if len(args) == 1 {
				targets, err = collectTree(cfg, args[0])
			} else {
				targets, err = collectLastRun(ctx, cfg)
			}
			if err != nil {
				return err
			}

			detector := media.TempoDetector(media.NullDetector{})
			if cfg.TempoKey.DetectorBinary != "" {
				detector = media.NewExecDetector(
					cfg.TempoKey.DetectorBinary,
					int64(cfg.TempoKey.DecodeSizeCapMB)<<20,
					logger)
			}
			placer := tempokey.NewPlacer(logger)

			runCtx, stop := signalContext(cmd.Context())
			defer stop()

			var placed, skipped, failed int
			for _, path := range targets {
				if runCtx.Err() != nil {
					fmt.Fprintln(cmd.OutOrStdout(), "Cancelled; counts below are partial")
					break
				}

				base := filepath.Base(path)
				bpm, haveBPM := 0.0, false
				if cfg.TempoKey.FilenameBPM {
					bpm, haveBPM = media.ParseTempoFromName(base)
				}
				if !haveBPM {
					detected, ok, detectErr := detector.Detect(runCtx, path)
					if detectErr != nil {
						logger.Warn("tempo detection failed",
							logging.String(logging.FieldFile, path), logging.Error(detectErr))
					}
					bpm, haveBPM = detected, ok
				}

				key := ""
				if cfg.TempoKey.SortByKey {
					key, _ = tempokey.DeriveKey(base)
				}

				switch {
				case haveBPM:
					if _, err := placer.PlaceTempo(path, bpm, key, dryRun); err != nil {
						logger.Warn("tempo placement failed",
							logging.String(logging.FieldFile, path), logging.Error(err))
						failed++
						continue
					}
					placed++
				case key != "":
					if _, err := placer.PlaceKey(path, key, dryRun); err != nil {
						logger.Warn("key placement failed",
							logging.String(logging.FieldFile, path), logging.Error(err))
						failed++
						continue
					}
					placed++
				default:
					skipped++
				}
			}

			out := cmd.OutOrStdout()
			rows := [][]string{{strconv.Itoa(placed), strconv.Itoa(skipped), strconv.Itoa(failed)}}
			fmt.Fprintln(out, renderTable(
				[]string{"PLACED", "SKIPPED", "ERRORS"},
				rows,
				[]columnAlignment{alignRight, alignRight, alignRight}))
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Report planned placements without touching any file")
	return cmd
}

// collectTree gathers audio files under root, honoring the extension
// allow-list and skipping MIDI (which carries no audio to analyze).
func collectTree(cfg *config.Config, root string) ([]string, error) {
	expanded, err := config.ExpandPath(root)
	if err != nil {
		return nil, err
	}
	files, err := scan.Collect(expanded)
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", expanded, err)
	}
	var targets []string
	for _, path := range files {
		ext := strings.ToLower(filepath.Ext(path))
		if ext == ".mid" || ext == ".midi" {
			continue
		}
		if !cfg.AcceptsExtension(ext) {
			continue
		}
		targets = append(targets, path)
	}
	return targets, nil
}

// collectLastRun resolves the destinations recorded by the most recent
// organize run, dropping files that have since moved or disappeared.
func collectLastRun(ctx *commandContext, cfg *config.Config) ([]string, error) {
	store, err := ctx.openLedger()
	if err != nil {
		return nil, err
	}
	defer store.Close()

	run, err := store.LatestRun(context.Background())
	if err != nil {
		return nil, fmt.Errorf("resolve last run: %w", err)
	}
	moves, err := store.Moves(context.Background(), run.ID)
	if err != nil {
		return nil, err
	}

	var targets []string
	for _, move := range moves {
		ext := strings.ToLower(filepath.Ext(move.Dest))
		if ext == ".mid" || ext == ".midi" {
			continue
		}
		if _, statErr := os.Stat(move.Dest); statErr != nil {
			continue
		}
		targets = append(targets, move.Dest)
	}
	return targets, nil
}
