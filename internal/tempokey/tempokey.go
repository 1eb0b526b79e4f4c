// Package tempokey performs the second organizing pass: moving already-placed
// files into "<N> BPM" and "<Key>" subfolders. Placement decisions depend only
// on the file's current path and the supplied values, so both operations are
// idempotent — a correctly placed file is returned unchanged with no move.
package tempokey

import (
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	"samplesort/internal/fileutil"
	"samplesort/internal/logging"
	"samplesort/internal/pathpolicy"
	"samplesort/internal/services"
)

// Placer moves files into tempo and key folders.
type Placer struct {
	logger *slog.Logger
}

// NewPlacer returns a placer logging through the given logger.
func NewPlacer(logger *slog.Logger) *Placer {
	return &Placer{logger: logging.NewComponentLogger(logger, "tempokey")}
}

// PlaceTempo moves path into "<round(bpm)> BPM[/<key>]" under the file's base
// directory (the first ancestor that is not a tempo or key folder). An empty
// key places the file directly in the tempo folder. Under dry-run the
// would-be path is returned with no filesystem change.
func (p *Placer) PlaceTempo(path string, bpm float64, key string, dryRun bool) (string, error) {
	if math.IsNaN(bpm) || math.IsInf(bpm, 0) || bpm <= 0 {
		return "", services.Wrap(services.ErrValidation, "tempo placement", "validate bpm",
			fmt.Sprintf("bpm value %v is not usable", bpm), nil)
	}
	rounded := int(math.Round(bpm))
	if key != "" {
		key = pathpolicy.SanitizeLabel(key)
	}

	if current, placed := alreadyPlaced(path, rounded, key); placed {
		p.logger.Debug("file already placed",
			logging.String(logging.FieldFile, path),
			logging.Int("bpm", rounded))
		return current, nil
	}

	base := pathpolicy.BaseDir(path)
	targetDir := filepath.Join(base, pathpolicy.TempoFolderName(rounded))
	if key != "" {
		targetDir = filepath.Join(targetDir, key)
	}
	return p.moveInto(path, targetDir, dryRun)
}

// alreadyPlaced checks the idempotence rule: the immediate parent is the
// matching tempo folder, or — when a key is requested — a matching key folder
// whose parent is the matching tempo folder.
func alreadyPlaced(path string, bpm int, key string) (string, bool) {
	parent := filepath.Dir(path)
	parentRole := pathpolicy.ClassifyDirRole(filepath.Base(parent))

	if key == "" {
		if parentRole.Kind == pathpolicy.RoleTempo && parentRole.BPM == bpm {
			return path, true
		}
		return "", false
	}

	if parentRole.Kind != pathpolicy.RoleKey || parentRole.Key != key {
		return "", false
	}
	grand := pathpolicy.ClassifyDirRole(filepath.Base(filepath.Dir(parent)))
	if grand.Kind == pathpolicy.RoleTempo && grand.BPM == bpm {
		return path, true
	}
	return "", false
}

// PlaceKey moves path into a "<key>" folder directly under its current
// directory. A file already inside a matching key folder is left alone.
func (p *Placer) PlaceKey(path, key string, dryRun bool) (string, error) {
	key = pathpolicy.SanitizeLabel(key)
	if key == "" {
		return "", services.Wrap(services.ErrValidation, "key placement", "validate key",
			"empty key label", nil)
	}

	parent := filepath.Dir(path)
	parentRole := pathpolicy.ClassifyDirRole(filepath.Base(parent))
	if parentRole.Kind == pathpolicy.RoleKey && parentRole.Key == key {
		p.logger.Debug("file already in key folder",
			logging.String(logging.FieldFile, path),
			logging.String("key", key))
		return path, nil
	}

	return p.moveInto(path, filepath.Join(parent, key), dryRun)
}

func (p *Placer) moveInto(path, targetDir string, dryRun bool) (string, error) {
	dest, err := pathpolicy.UniquePath(filepath.Join(targetDir, filepath.Base(path)))
	if err != nil {
		return "", err
	}
	if dryRun {
		p.logger.Info("would move file",
			logging.String(logging.FieldFile, path),
			logging.String("dest", dest))
		return dest, nil
	}
	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		return "", err
	}
	if err := fileutil.MoveFile(path, dest); err != nil {
		return "", err
	}
	p.logger.Info("file moved",
		logging.String(logging.FieldFile, path),
		logging.String("dest", dest))
	return dest, nil
}
