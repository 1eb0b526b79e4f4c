package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	SourceDir string `toml:"source_dir"`
	DestDir   string `toml:"dest_dir"`
	LogDir    string `toml:"log_dir"`
}

// Organize contains configuration for the classification pass.
type Organize struct {
	// Mode selects whether classified files are moved or copied ("move"/"copy").
	Mode string `toml:"mode"`
	// Extensions is the allow-list of file extensions; empty accepts everything.
	Extensions        []string `toml:"extensions"`
	FallbackCategory  string   `toml:"fallback_category"`
	CheckParentFolder bool     `toml:"check_parent_folder"`
	CheckLength       bool     `toml:"check_length"`
	LengthThreshold   float64  `toml:"length_threshold_seconds"`
	KeepPackSubfolder bool     `toml:"keep_pack_subfolder"`
	SortMIDI          bool     `toml:"sort_midi"`
	MIDIFolderName    string   `toml:"midi_folder_name"`
	ExpandArchives    bool     `toml:"expand_archives"`
	KeepArchives      bool     `toml:"keep_archives"`
	// RulesFile points at a TOML category-rules file; empty uses built-in rules.
	RulesFile string `toml:"rules_file"`
}

// Dedupe contains configuration for content-hash deduplication.
type Dedupe struct {
	Enabled         bool   `toml:"enabled"`
	Algorithm       string `toml:"algorithm"` // sha256, sha1, md5
	Policy          string `toml:"policy"`    // skip, quarantine
	SeedDestination bool   `toml:"seed_destination"`
	QuarantineDir   string `toml:"quarantine_dir"`
}

// TempoKey contains configuration for the tempo/key placement pass.
type TempoKey struct {
	SortByKey   bool `toml:"sort_by_key"`
	FilenameBPM bool `toml:"filename_bpm"`
	// DetectorBinary is the external tempo detector; empty disables detection.
	DetectorBinary  string `toml:"detector_binary"`
	FFprobeBinary   string `toml:"ffprobe_binary"`
	DecodeSizeCapMB int    `toml:"decode_size_cap_mb"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for samplesort.
//
// Sections by subsystem:
//   - Paths: source, destination, and log directories
//   - Organize: classification options for the organize pass
//   - Dedupe: content-hash duplicate handling
//   - TempoKey: BPM/key folder placement and external detectors
//   - Logging: log format and level
type Config struct {
	Paths    Paths    `toml:"paths"`
	Organize Organize `toml:"organize"`
	Dedupe   Dedupe   `toml:"dedupe"`
	TempoKey TempoKey `toml:"tempo_key"`
	Logging  Logging  `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/samplesort/config.toml")
}

// SampleConfig returns the embedded annotated sample configuration.
func SampleConfig() string {
	return sampleConfig
}

// CreateSample writes the annotated sample configuration to path.
func CreateSample(path string) error {
	return os.WriteFile(path, []byte(sampleConfig), 0o644)
}

// Load locates, parses, and validates a configuration file. The returned
// config has all path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("samplesort.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	return defaultPath, false, nil
}

// EnsureDirectories creates the directories the tool needs to operate.
func (c *Config) EnsureDirectories() error {
	if c.Paths.LogDir == "" {
		return nil
	}
	if err := os.MkdirAll(c.Paths.LogDir, 0o755); err != nil {
		return fmt.Errorf("ensure log dir: %w", err)
	}
	return nil
}

// AcceptsExtension reports whether ext (with or without leading dot) passes the
// configured allow-list. An empty allow-list accepts every extension.
func (c *Config) AcceptsExtension(ext string) bool {
	if len(c.Organize.Extensions) == 0 {
		return true
	}
	normalized := normalizeExtension(ext)
	for _, allowed := range c.Organize.Extensions {
		if allowed == normalized {
			return true
		}
	}
	return false
}
