package testsupport

import (
	"path/filepath"
	"testing"

	"samplesort/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.SourceDir = filepath.Join(base, "incoming")
	cfgVal.Paths.DestDir = filepath.Join(base, "library")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithMode sets the organize mode ("move" or "copy") on the test config.
func WithMode(mode string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Organize.Mode = mode
	}
}

// WithDedupe enables deduplication with the given policy.
func WithDedupe(policy string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Dedupe.Enabled = true
		b.cfg.Dedupe.Policy = policy
	}
}

// WithExtensions restricts the accepted extension allow-list.
func WithExtensions(exts ...string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Organize.Extensions = exts
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.SourceDir)
}
