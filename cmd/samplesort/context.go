package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"

	"samplesort/internal/config"
	"samplesort/internal/ledger"
	"samplesort/internal/logging"
	"samplesort/internal/rules"
	"samplesort/internal/services"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *slog.Logger
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

// configPath returns the trimmed value of the root --config flag.
func (c *commandContext) configPath() string {
	if c.configFlag == nil {
		return ""
	}
	return strings.TrimSpace(*c.configFlag)
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, _, _, err := config.Load(c.configPath())
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// ensureLogger builds the shared logger from the loaded configuration. Logger
// construction problems degrade to a no-op logger rather than blocking the
// command.
func (c *commandContext) ensureLogger() *slog.Logger {
	c.loggerOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.logger = logging.NewNop()
			return
		}
		logger, err := logging.New(logging.Options{
			Level:  cfg.Logging.Level,
			Format: cfg.Logging.Format,
			Output: os.Stderr,
		})
		if err != nil {
			c.logger = logging.NewNop()
			return
		}
		c.logger = logger
	})
	return c.logger
}

// openLedger opens the run ledger scoped to the destination library.
func (c *commandContext) openLedger() (*ledger.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if cfg.Paths.DestDir == "" {
		return nil, services.Wrap(services.ErrConfiguration, "ledger", "resolve path",
			"destination directory is not configured", nil)
	}
	return ledger.Open(filepath.Join(cfg.Paths.DestDir, ".samplesort", "ledger.db"))
}

// compileRules loads the configured rules file, falling back to the built-in
// category groups.
func (c *commandContext) compileRules() (*rules.Compiled, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	groups := rules.DefaultGroups()
	if cfg.Organize.RulesFile != "" {
		groups, err = rules.LoadFile(cfg.Organize.RulesFile)
		if err != nil {
			return nil, err
		}
	}
	return rules.Compile(groups)
}

// signalContext derives a context cancelled by SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
