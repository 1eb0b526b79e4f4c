// Package archive extracts compressed sample packs into scratch directories.
// Extraction guards against path traversal, flattens redundant wrapper
// directories, and returns the flat list of usable files regardless of what
// the archive format reported.
package archive

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"samplesort/internal/logging"
	"samplesort/internal/scan"
)

// ScratchPrefix marks per-archive scratch directories. The classifier derives
// pack labels from the remainder of the directory name.
const ScratchPrefix = "_temp_"

var archiveExtensions = map[string]struct{}{
	".zip": {},
	".tar": {},
	".tgz": {},
	".gz":  {},
	".7z":  {},
}

// IsArchive reports whether path looks like a supported archive.
func IsArchive(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	_, ok := archiveExtensions[ext]
	return ok
}

// StripArchiveExt removes the archive extension (including .tar.gz) from a
// base name.
func StripArchiveExt(base string) string {
	lower := strings.ToLower(base)
	for _, suffix := range []string{".tar.gz", ".tgz", ".tar", ".zip", ".7z", ".gz"} {
		if strings.HasSuffix(lower, suffix) {
			return base[:len(base)-len(suffix)]
		}
	}
	return base
}

// ScratchDirName returns the scratch directory base name for an archive.
func ScratchDirName(archivePath string) string {
	return ScratchPrefix + StripArchiveExt(filepath.Base(archivePath))
}

// Expander extracts archives into scratch directories.
type Expander struct {
	logger *slog.Logger
}

// NewExpander returns an expander logging through the given logger.
func NewExpander(logger *slog.Logger) *Expander {
	return &Expander{logger: logging.NewComponentLogger(logger, "archive")}
}

// Expand extracts archivePath into scratchDir, flattens single-child nesting,
// and returns the flat list of extracted files. The scratch directory is the
// caller's to remove once the returned paths are consumed. When keepArchive
// is false the source archive is deleted after successful extraction;
// deletion failures are swallowed.
func (e *Expander) Expand(ctx context.Context, archivePath, scratchDir string, keepArchive bool) ([]string, error) {
	if err := os.MkdirAll(scratchDir, 0o755); err != nil {
		return nil, fmt.Errorf("create scratch dir: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(archivePath))
	var err error
	switch ext {
	case ".zip":
		err = e.extractZip(ctx, archivePath, scratchDir)
	case ".tar", ".tgz", ".gz":
		err = e.extractTar(ctx, archivePath, scratchDir)
	case ".7z":
		err = e.extractSevenZip(ctx, archivePath, scratchDir)
	default:
		return nil, fmt.Errorf("unsupported archive format %q", ext)
	}
	if err != nil {
		return nil, err
	}

	if err := Flatten(scratchDir); err != nil {
		return nil, fmt.Errorf("flatten scratch dir: %w", err)
	}

	files, err := scan.Collect(scratchDir)
	if err != nil {
		return nil, fmt.Errorf("list extracted files: %w", err)
	}

	if !keepArchive {
		if err := os.Remove(archivePath); err != nil {
			e.logger.Warn("failed to delete archive after extraction",
				logging.String(logging.FieldFile, archivePath), logging.Error(err))
		}
	}

	e.logger.Info("archive expanded",
		logging.String(logging.FieldFile, archivePath),
		logging.Int("files", len(files)))
	return files, nil
}

// writeEntry streams one archive entry to its target path inside scratchDir,
// rejecting entries that would resolve outside it.
func (e *Expander) writeEntry(scratchDir, entryName string, r io.Reader) error {
	target, ok := secureJoin(scratchDir, entryName)
	if !ok {
		e.logger.Warn("dropping archive entry escaping scratch dir",
			logging.String("entry", entryName))
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return err
	}
	defer func() {
		_ = out.Close()
	}()
	if _, err := io.Copy(out, r); err != nil {
		_ = os.Remove(target)
		return err
	}
	return out.Close()
}

// secureJoin resolves an archive-relative entry name under root, reporting
// false for absolute names and names whose cleaned path escapes root.
func secureJoin(root, name string) (string, bool) {
	rel := filepath.FromSlash(name)
	if rel == "" || filepath.IsAbs(rel) {
		return "", false
	}
	target := filepath.Join(root, rel)
	if target == root {
		return "", false
	}
	if !strings.HasPrefix(target, root+string(os.PathSeparator)) {
		return "", false
	}
	return target, true
}

// Flatten repeatedly collapses a root whose only visible content is a single
// subdirectory by hoisting that subdirectory's children up one level.
func Flatten(root string) error {
	for {
		entries, err := os.ReadDir(root)
		if err != nil {
			return err
		}
		var visible []os.DirEntry
		for _, entry := range entries {
			if scan.IsJunkName(entry.Name()) {
				continue
			}
			visible = append(visible, entry)
		}
		if len(visible) != 1 || !visible[0].IsDir() {
			return nil
		}

		wrapper := filepath.Join(root, visible[0].Name())
		staging := filepath.Join(root, ".flatten-staging")
		if err := os.Rename(wrapper, staging); err != nil {
			return err
		}
		children, err := os.ReadDir(staging)
		if err != nil {
			return err
		}
		for _, child := range children {
			src := filepath.Join(staging, child.Name())
			dst := filepath.Join(root, child.Name())
			if err := os.Rename(src, dst); err != nil {
				return err
			}
		}
		if err := os.RemoveAll(staging); err != nil {
			return err
		}
	}
}
