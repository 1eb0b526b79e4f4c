// Package organize drives a full run: walking the source tree, expanding
// archives, consulting the duplicate index, and handing each file to the
// classifier. The runner owns cancellation and the run summary; per-file
// failures are logged and counted, never fatal.
package organize

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"samplesort/internal/archive"
	"samplesort/internal/classify"
	"samplesort/internal/config"
	"samplesort/internal/dedupe"
	"samplesort/internal/fileutil"
	"samplesort/internal/logging"
	"samplesort/internal/pathpolicy"
	"samplesort/internal/scan"
	"samplesort/internal/services"
)

// LockFileName is created under the destination root to serialize runs.
const LockFileName = ".samplesort.lock"

// yieldEvery is the file cadence at which the run loop yields the processor.
const yieldEvery = 64

// MovedRecord is one executed (or dry-run planned) relocation.
type MovedRecord struct {
	Src  string
	Dest string
}

// Summary aggregates the outcome of one run. A cancelled run carries the
// partial counts accumulated before the context fired.
type Summary struct {
	RunID           string
	SourceRoot      string
	DestinationRoot string
	Mode            string
	DryRun          bool
	StartedAt       time.Time
	FinishedAt      time.Time
	Moved           []MovedRecord
	Skipped         int
	Duplicates      int
	Errors          int
	Archives        int
	Seeded          int
	Cancelled       bool
}

// Options are per-invocation switches layered over the loaded configuration.
type Options struct {
	DryRun bool
	// SeedDestination pre-hashes the destination tree into the duplicate
	// index before any source file is touched.
	SeedDestination bool
}

// Runner executes organize runs against a fixed configuration and rule set.
type Runner struct {
	cfg        *config.Config
	classifier *classify.Classifier
	expander   *archive.Expander
	checker    *dedupe.Checker
	logger     *slog.Logger
}

// NewRunner wires the pipeline stages. checker may be nil when deduplication
// is disabled.
func NewRunner(cfg *config.Config, classifier *classify.Classifier, expander *archive.Expander, checker *dedupe.Checker, logger *slog.Logger) *Runner {
	return &Runner{
		cfg:        cfg,
		classifier: classifier,
		expander:   expander,
		checker:    checker,
		logger:     logging.NewComponentLogger(logger, "organize"),
	}
}

// Run walks the configured source tree and places every accepted file under
// the destination root. Cancellation stops the walk at the next file boundary
// and returns the partial summary with a nil error; only pre-run problems
// (bad roots, busy destination lock) surface as errors.
func (r *Runner) Run(ctx context.Context, opts Options) (*Summary, error) {
	source := r.cfg.Paths.SourceDir
	dest := r.cfg.Paths.DestDir
	if err := validateRoots(source, dest, opts.DryRun); err != nil {
		return nil, err
	}

	summary := &Summary{
		RunID:           uuid.NewString(),
		SourceRoot:      source,
		DestinationRoot: dest,
		Mode:            r.cfg.Organize.Mode,
		DryRun:          opts.DryRun,
		StartedAt:       time.Now(),
	}
	logger := r.logger.With(logging.String(logging.FieldRunID, summary.RunID))

	if !opts.DryRun {
		lock := flock.New(filepath.Join(dest, LockFileName))
		locked, err := lock.TryLock()
		if err != nil {
			return nil, services.Wrap(services.ErrTransient, "organize", "acquire lock", "", err)
		}
		if !locked {
			return nil, services.Wrap(services.ErrTransient, "organize", "acquire lock",
				"destination is in use by another run", nil)
		}
		defer func() {
			_ = lock.Unlock()
		}()
	}

	if r.checker != nil && opts.SeedDestination {
		seeded, err := r.checker.SeedFromTree(ctx, dest, func(path string) bool {
			return r.cfg.AcceptsExtension(filepath.Ext(path))
		})
		summary.Seeded = seeded
		if err != nil {
			// Seeding only stops on cancellation. A half-seeded index would
			// misclassify duplicates, so the run does not start.
			logger.Warn("run cancelled during destination seeding",
				logging.Int("seeded", seeded))
			summary.Cancelled = true
			summary.FinishedAt = time.Now()
			return summary, nil
		}
		logger.Info("destination seeded into duplicate index", logging.Int("seeded", seeded))
	}

	logger.Info("run started",
		logging.String("source", source),
		logging.String("dest", dest),
		logging.Bool("dry_run", opts.DryRun))

	processed := 0
	for path, walkErr := range scan.Walk(source) {
		if ctx.Err() != nil {
			summary.Cancelled = true
			break
		}
		processed++
		if processed%yieldEvery == 0 {
			runtime.Gosched()
		}
		if walkErr != nil {
			logger.Warn("walk error", logging.String(logging.FieldFile, path), logging.Error(walkErr))
			summary.Errors++
			continue
		}
		if underScratch(path) {
			continue
		}

		if r.cfg.Organize.ExpandArchives && archive.IsArchive(path) {
			if cancelled := r.processArchive(ctx, logger, path, opts, summary); cancelled {
				summary.Cancelled = true
				break
			}
			continue
		}

		r.processFile(ctx, logger, path, source, opts, summary)
	}

	summary.FinishedAt = time.Now()
	logger.Info("run finished",
		logging.String(logging.FieldEventType, "success"),
		logging.Int("moved", len(summary.Moved)),
		logging.Int("skipped", summary.Skipped),
		logging.Int("duplicates", summary.Duplicates),
		logging.Int("errors", summary.Errors),
		logging.Int("archives", summary.Archives),
		logging.Bool("cancelled", summary.Cancelled))
	return summary, nil
}

func validateRoots(source, dest string, dryRun bool) error {
	info, err := os.Stat(source)
	if err != nil || !info.IsDir() {
		return services.Wrap(services.ErrConfiguration, "organize", "validate source",
			fmt.Sprintf("source directory %q is not usable", source), err)
	}
	if dest == "" {
		return services.Wrap(services.ErrConfiguration, "organize", "validate destination",
			"destination directory is not configured", nil)
	}
	if dryRun {
		return nil
	}
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return services.Wrap(services.ErrConfiguration, "organize", "validate destination", "", err)
	}
	return nil
}

// processArchive expands one archive into a sibling scratch directory and
// classifies the extracted files before removing the scratch tree. The
// returned flag reports cancellation mid-archive.
func (r *Runner) processArchive(ctx context.Context, logger *slog.Logger, path string, opts Options, summary *Summary) bool {
	if opts.DryRun {
		logger.Info("would expand archive", logging.String(logging.FieldFile, path))
		summary.Archives++
		return false
	}

	scratch := filepath.Join(filepath.Dir(path), archive.ScratchDirName(path))
	defer func() {
		if err := os.RemoveAll(scratch); err != nil {
			logger.Warn("failed to remove scratch dir",
				logging.String(logging.FieldFile, scratch), logging.Error(err))
		}
	}()

	files, err := r.expander.Expand(ctx, path, scratch, r.cfg.Organize.KeepArchives)
	if err != nil {
		logger.Warn("archive expansion failed",
			logging.String(logging.FieldFile, path), logging.Error(err))
		summary.Errors++
		return false
	}
	summary.Archives++

	// Extracted paths classify relative to the scratch parent so the pack
	// label comes from the archive name.
	root := filepath.Dir(scratch)
	for _, extracted := range files {
		if ctx.Err() != nil {
			return true
		}
		r.processFile(ctx, logger, extracted, root, opts, summary)
	}
	return false
}

func (r *Runner) processFile(ctx context.Context, logger *slog.Logger, path, root string, opts Options, summary *Summary) {
	if r.checker != nil {
		result, err := r.checker.Check(path)
		switch {
		case err != nil:
			// Hash failures fall through as non-duplicates.
			logger.Warn("hash failed", logging.String(logging.FieldFile, path), logging.Error(err))
		case result.Duplicate:
			r.handleDuplicate(logger, path, result, opts, summary)
			return
		}
	}

	plan, ok := r.classifier.Plan(ctx, path, root)
	if !ok {
		summary.Skipped++
		return
	}
	placement, err := r.classifier.Place(plan, summary.DestinationRoot, opts.DryRun)
	if err != nil {
		logger.Warn("placement failed", logging.String(logging.FieldFile, path), logging.Error(err))
		summary.Errors++
		return
	}
	summary.Moved = append(summary.Moved, MovedRecord{Src: placement.Src, Dest: placement.Dest})
}

func (r *Runner) handleDuplicate(logger *slog.Logger, path string, result dedupe.Result, opts Options, summary *Summary) {
	summary.Duplicates++
	logger.Info("duplicate detected",
		logging.String(logging.FieldFile, path),
		logging.String("first_seen", result.FirstSeen),
		logging.String("hash", result.Hash))

	if dedupe.Policy(r.cfg.Dedupe.Policy) != dedupe.PolicyQuarantine {
		return
	}

	target := filepath.Join(summary.DestinationRoot, r.cfg.Dedupe.QuarantineDir)
	dest, err := pathpolicy.UniquePath(filepath.Join(target, filepath.Base(path)))
	if err != nil {
		logger.Warn("quarantine failed", logging.String(logging.FieldFile, path), logging.Error(err))
		summary.Errors++
		return
	}
	if opts.DryRun {
		logger.Info("would quarantine duplicate",
			logging.String(logging.FieldFile, path), logging.String("dest", dest))
		return
	}
	if err := os.MkdirAll(target, 0o755); err != nil {
		logger.Warn("quarantine failed", logging.String(logging.FieldFile, path), logging.Error(err))
		summary.Errors++
		return
	}
	// Copy-mode runs leave the source tree untouched, duplicates included.
	transfer := fileutil.MoveFile
	if r.cfg.Organize.Mode == "copy" {
		transfer = fileutil.CopyFile
	}
	if err := transfer(path, dest); err != nil {
		logger.Warn("quarantine failed", logging.String(logging.FieldFile, path), logging.Error(err))
		summary.Errors++
		return
	}
	logger.Info("duplicate quarantined",
		logging.String(logging.FieldFile, path), logging.String("dest", dest))
}

// underScratch reports whether any path segment is a scratch directory.
// Scratch contents are classified inline by processArchive; the outer walk
// must never pick them up a second time.
func underScratch(path string) bool {
	for _, segment := range strings.Split(path, string(os.PathSeparator)) {
		if strings.HasPrefix(segment, archive.ScratchPrefix) {
			return true
		}
	}
	return false
}
