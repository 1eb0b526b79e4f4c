// Package scan enumerates source trees as lazy file sequences, filtering out
// hidden files and the OS junk that ships inside sample packs.
package scan

import (
	"errors"
	"io/fs"
	"iter"
	"path/filepath"
	"strings"
)

var junkNames = map[string]struct{}{
	".DS_Store":       {},
	"Thumbs.db":       {},
	"desktop.ini":     {},
	"__MACOSX":        {},
	".Spotlight-V100": {},
}

// IsJunkName reports whether a file or directory name is hidden or known OS
// litter that should never be classified or extracted.
func IsJunkName(name string) bool {
	if name == "" {
		return true
	}
	if strings.HasPrefix(name, ".") {
		return true
	}
	_, junk := junkNames[name]
	return junk
}

// Walk yields every non-junk regular file beneath root in lexical order. The
// sequence is finite and restartable; each invocation walks the tree anew.
// Traversal errors are yielded with the offending path and the walk continues
// where possible.
func Walk(root string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		stop := errors.New("walk stopped")
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				if !yield(path, walkErr) {
					return stop
				}
				if d != nil && d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			name := d.Name()
			if d.IsDir() {
				if path != root && IsJunkName(name) {
					return filepath.SkipDir
				}
				return nil
			}
			if IsJunkName(name) {
				return nil
			}
			if !yield(path, nil) {
				return stop
			}
			return nil
		})
		_ = err // only the sentinel can surface here
	}
}

// Collect materializes the walk into a slice, dropping errored entries.
func Collect(root string) ([]string, error) {
	var files []string
	var firstErr error
	for path, err := range Walk(root) {
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		files = append(files, path)
	}
	return files, firstErr
}
