// Package pathpolicy holds the naming and collision rules for destination
// paths: sanitizing folder labels, allocating unique file names, and
// recognizing the tempo/key marker folders the placement passes create.
package pathpolicy

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

const maxUniqueAttempts = 10000

var (
	tempoFolderPattern = regexp.MustCompile(`^(\d{2,3}) BPM$`)
	keyFolderPattern   = regexp.MustCompile(`^([A-G][#b]?)(?: (Maj|Min))?$`)
)

// SanitizeLabel strips filesystem-illegal characters from a folder label and
// trims surrounding whitespace and dots.
func SanitizeLabel(label string) string {
	var b strings.Builder
	for _, r := range label {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			continue
		}
		if r < 0x20 {
			continue
		}
		b.WriteRune(r)
	}
	return strings.Trim(b.String(), " .")
}

// UniquePath returns path when nothing exists there, otherwise the first
// "name (2).ext", "name (3).ext", ... variant that is free at call time.
func UniquePath(path string) (string, error) {
	if free, err := pathFree(path); err != nil {
		return "", err
	} else if free {
		return path, nil
	}
	dir := filepath.Dir(path)
	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(filepath.Base(path), ext)
	for attempt := 2; attempt < maxUniqueAttempts; attempt++ {
		candidate := filepath.Join(dir, fmt.Sprintf("%s (%d)%s", stem, attempt, ext))
		if free, err := pathFree(candidate); err != nil {
			return "", err
		} else if free {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("exhausted unique name slots for %s", path)
}

func pathFree(path string) (bool, error) {
	_, err := os.Lstat(path)
	if err == nil {
		return false, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return true, nil
	}
	return false, err
}

// DirRole identifies what a directory name means to the placement passes.
type DirRole int

const (
	RoleNone DirRole = iota
	RoleTempo
	RoleKey
)

// Role describes a classified directory name.
type Role struct {
	Kind DirRole
	BPM  int
	Key  string
}

// ClassifyDirRole is a pure predicate over a directory base name. Tempo
// folders look like "120 BPM"; key folders like "F# Min" or a bare note name.
// Bare note names must match because key derivation can yield a quality-less
// key, which means a library folder literally named "A" through "G" also reads
// as a key marker and BaseDir will walk past it.
func ClassifyDirRole(name string) Role {
	if m := tempoFolderPattern.FindStringSubmatch(name); m != nil {
		bpm, err := strconv.Atoi(m[1])
		if err == nil {
			return Role{Kind: RoleTempo, BPM: bpm}
		}
	}
	if keyFolderPattern.MatchString(name) {
		return Role{Kind: RoleKey, Key: name}
	}
	return Role{Kind: RoleNone}
}

// TempoFolderName renders the canonical folder name for a rounded BPM value.
func TempoFolderName(bpm int) string {
	return fmt.Sprintf("%d BPM", bpm)
}

// BaseDir returns the first ancestor directory of path that is neither a
// tempo folder nor a key folder, so re-placement starts from the real base.
func BaseDir(path string) string {
	dir := filepath.Dir(path)
	for {
		parent := filepath.Dir(dir)
		if parent == dir {
			return dir
		}
		if ClassifyDirRole(filepath.Base(dir)).Kind == RoleNone {
			return dir
		}
		dir = parent
	}
}
