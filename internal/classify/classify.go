// Package classify maps one file to a destination-relative path using the
// compiled keyword rules and performs the resulting move or copy. MIDI
// routing, pack-label attachment, parent-folder fallback, and long-sample
// suffixing all happen here; collision handling is delegated to pathpolicy.
package classify

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"samplesort/internal/archive"
	"samplesort/internal/config"
	"samplesort/internal/fileutil"
	"samplesort/internal/logging"
	"samplesort/internal/pathpolicy"
	"samplesort/internal/rules"
)

// DurationProber resolves a file's audio duration in seconds. Failures are
// reported as ok=false and disable the length check for that file.
type DurationProber interface {
	Duration(ctx context.Context, path string) (float64, bool)
}

// Plan is the classification decision for one file, destination-relative.
type Plan struct {
	Source          string
	RelativeDir     string
	Category        string
	IsMIDI          bool
	PackLabel       string
	UsedParentMatch bool
}

// Placement records an executed (or planned, under dry-run) relocation.
type Placement struct {
	Src  string
	Dest string
}

// Classifier applies the per-run rule set and options.
type Classifier struct {
	cfg    *config.Config
	rules  *rules.Compiled
	prober DurationProber
	logger *slog.Logger
	titler cases.Caser
}

// New builds a classifier. prober may be nil when the length check is off.
func New(cfg *config.Config, compiled *rules.Compiled, prober DurationProber, logger *slog.Logger) *Classifier {
	return &Classifier{
		cfg:    cfg,
		rules:  compiled,
		prober: prober,
		logger: logging.NewComponentLogger(logger, "classifier"),
		titler: cases.Title(language.Und),
	}
}

var midiExtensions = map[string]struct{}{
	".mid":  {},
	".midi": {},
}

func isMIDI(path string) bool {
	_, ok := midiExtensions[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Plan classifies path against the rule order and returns the destination-
// relative target. ok=false means the file is skipped (extension rejected).
func (c *Classifier) Plan(ctx context.Context, path, sourceRoot string) (Plan, bool) {
	ext := filepath.Ext(path)
	if !c.cfg.AcceptsExtension(ext) {
		c.logger.Debug("skipping file outside extension allow-list",
			logging.String(logging.FieldFile, path))
		return Plan{}, false
	}

	plan := Plan{Source: path, IsMIDI: isMIDI(path)}
	if c.cfg.Organize.KeepPackSubfolder {
		plan.PackLabel = c.packLabel(path, sourceRoot)
	}

	if plan.IsMIDI && c.cfg.Organize.SortMIDI {
		// MIDI overrides category and length rules entirely.
		plan.Category = c.cfg.Organize.MIDIFolderName
		plan.RelativeDir = c.cfg.Organize.MIDIFolderName
		if plan.PackLabel != "" {
			plan.RelativeDir = filepath.Join(plan.RelativeDir, plan.PackLabel)
		}
		return plan, true
	}

	base := filepath.Base(path)
	rule, matched := c.rules.Match(rules.NormalizeHaystack(base))
	if !matched && c.cfg.Organize.CheckParentFolder {
		parent := filepath.Base(filepath.Dir(path))
		rule, matched = c.rules.Match(rules.NormalizeHaystack(parent))
		if matched {
			plan.UsedParentMatch = true
		}
	}

	if matched {
		plan.Category = rule.Category
		plan.RelativeDir = rule.RelativeDir()
	} else {
		plan.Category = c.cfg.Organize.FallbackCategory
		plan.RelativeDir = c.cfg.Organize.FallbackCategory
	}

	if c.cfg.Organize.CheckLength && c.prober != nil {
		plan.RelativeDir = c.appendLengthSuffix(ctx, plan, path)
	}

	if plan.PackLabel != "" {
		plan.RelativeDir = filepath.Join(plan.RelativeDir, plan.PackLabel)
	}

	return plan, true
}

func (c *Classifier) appendLengthSuffix(ctx context.Context, plan Plan, path string) string {
	threshold := c.cfg.Organize.LengthThreshold
	duration, ok := c.prober.Duration(ctx, path)
	if !ok || duration <= threshold {
		return plan.RelativeDir
	}
	suffix := fmt.Sprintf("%s - Over %s seconds", plan.Category, formatThreshold(threshold))
	if filepath.Base(plan.RelativeDir) == suffix {
		return plan.RelativeDir
	}
	return filepath.Join(plan.RelativeDir, suffix)
}

func formatThreshold(threshold float64) string {
	return strconv.FormatFloat(threshold, 'f', -1, 64)
}

// packLabel derives the originating pack (and optional collection) folder
// name for a file, or the archive base name when the file came out of a
// scratch directory.
func (c *Classifier) packLabel(path, sourceRoot string) string {
	rel, err := filepath.Rel(sourceRoot, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return ""
	}
	segments := strings.Split(rel, string(os.PathSeparator))
	if len(segments) < 2 {
		return ""
	}
	first := segments[0]
	if strings.HasPrefix(first, archive.ScratchPrefix) {
		return c.archiveLabel(first)
	}
	label := first
	if len(segments) >= 3 {
		label = fmt.Sprintf("%s (%s)", first, segments[1])
	}
	return pathpolicy.SanitizeLabel(label)
}

func (c *Classifier) archiveLabel(scratchName string) string {
	name := strings.TrimPrefix(scratchName, archive.ScratchPrefix)
	name = strings.Map(func(r rune) rune {
		switch r {
		case '-', '_':
			return ' '
		}
		return r
	}, name)
	name = strings.Join(strings.Fields(name), " ")
	return pathpolicy.SanitizeLabel(c.titler.String(name))
}

// Place resolves the final unique destination under destRoot and executes the
// move or copy. Under dry-run the would-be placement is returned with no
// filesystem mutation. A nil placement with an error means the file was
// skipped; the run continues.
func (c *Classifier) Place(plan Plan, destRoot string, dryRun bool) (*Placement, error) {
	destDir := filepath.Join(destRoot, plan.RelativeDir)
	dest, err := pathpolicy.UniquePath(filepath.Join(destDir, filepath.Base(plan.Source)))
	if err != nil {
		return nil, fmt.Errorf("resolve destination: %w", err)
	}

	if dryRun {
		c.logger.Info("would place file",
			logging.String(logging.FieldFile, plan.Source),
			logging.String("dest", dest),
			logging.Bool("parent_match", plan.UsedParentMatch))
		return &Placement{Src: plan.Source, Dest: dest}, nil
	}

	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, fmt.Errorf("create destination dir: %w", err)
	}
	if c.cfg.Organize.Mode == "copy" {
		err = fileutil.CopyFile(plan.Source, dest)
	} else {
		err = fileutil.MoveFile(plan.Source, dest)
	}
	if err != nil {
		return nil, err
	}

	c.logger.Info("file placed",
		logging.String(logging.FieldFile, plan.Source),
		logging.String("dest", dest),
		logging.Bool("parent_match", plan.UsedParentMatch))
	return &Placement{Src: plan.Source, Dest: dest}, nil
}
