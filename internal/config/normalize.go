package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

func (c *Config) normalize() error {
	var err error
	if c.Paths.SourceDir, err = expandOptionalPath(c.Paths.SourceDir); err != nil {
		return err
	}
	if c.Paths.DestDir, err = expandOptionalPath(c.Paths.DestDir); err != nil {
		return err
	}
	if c.Paths.LogDir, err = expandOptionalPath(c.Paths.LogDir); err != nil {
		return err
	}
	if c.Organize.RulesFile, err = expandOptionalPath(c.Organize.RulesFile); err != nil {
		return err
	}

	c.Organize.Mode = strings.ToLower(strings.TrimSpace(c.Organize.Mode))
	c.Organize.FallbackCategory = strings.TrimSpace(c.Organize.FallbackCategory)
	if c.Organize.FallbackCategory == "" {
		c.Organize.FallbackCategory = defaultFallback
	}
	c.Organize.MIDIFolderName = strings.TrimSpace(c.Organize.MIDIFolderName)
	if c.Organize.MIDIFolderName == "" {
		c.Organize.MIDIFolderName = defaultMIDIFolder
	}

	exts := make([]string, 0, len(c.Organize.Extensions))
	for _, ext := range c.Organize.Extensions {
		normalized := normalizeExtension(ext)
		if normalized == "" {
			continue
		}
		exts = append(exts, normalized)
	}
	c.Organize.Extensions = exts

	c.Dedupe.Algorithm = strings.ToLower(strings.TrimSpace(c.Dedupe.Algorithm))
	c.Dedupe.Policy = strings.ToLower(strings.TrimSpace(c.Dedupe.Policy))
	c.Dedupe.QuarantineDir = strings.TrimSpace(c.Dedupe.QuarantineDir)
	if c.Dedupe.QuarantineDir == "" {
		c.Dedupe.QuarantineDir = defaultQuarantineDir
	}

	c.TempoKey.DetectorBinary = strings.TrimSpace(c.TempoKey.DetectorBinary)
	c.TempoKey.FFprobeBinary = strings.TrimSpace(c.TempoKey.FFprobeBinary)
	if c.TempoKey.FFprobeBinary == "" {
		c.TempoKey.FFprobeBinary = defaultFFprobeBinary
	}

	return nil
}

func normalizeExtension(ext string) string {
	trimmed := strings.ToLower(strings.TrimSpace(ext))
	if trimmed == "" || trimmed == "." {
		return ""
	}
	if !strings.HasPrefix(trimmed, ".") {
		trimmed = "." + trimmed
	}
	return trimmed
}

func expandOptionalPath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", nil
	}
	return expandPath(path)
}

// ExpandPath expands a leading ~ and resolves the result to an absolute path.
func ExpandPath(path string) (string, error) {
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", nil
	}
	if trimmed == "~" || strings.HasPrefix(trimmed, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if trimmed == "~" {
			return home, nil
		}
		trimmed = filepath.Join(home, trimmed[2:])
	}
	abs, err := filepath.Abs(trimmed)
	if err != nil {
		return "", fmt.Errorf("resolve path %s: %w", path, err)
	}
	return abs, nil
}
