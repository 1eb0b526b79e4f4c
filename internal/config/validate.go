package config

import (
	"errors"
	"fmt"
)

// Validate ensures the configuration is usable. Source and destination
// directories are checked at run start instead, so read-only commands work
// without them.
func (c *Config) Validate() error {
	if err := c.validateOrganize(); err != nil {
		return err
	}
	if err := c.validateDedupe(); err != nil {
		return err
	}
	if err := c.validateTempoKey(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validateOrganize() error {
	switch c.Organize.Mode {
	case "move", "copy":
	default:
		return fmt.Errorf("organize.mode must be \"move\" or \"copy\", got %q", c.Organize.Mode)
	}
	if c.Organize.CheckLength && c.Organize.LengthThreshold < 0 {
		return errors.New("organize.length_threshold_seconds must be >= 0")
	}
	return nil
}

func (c *Config) validateDedupe() error {
	switch c.Dedupe.Algorithm {
	case "sha256", "sha1", "md5":
	default:
		return fmt.Errorf("dedupe.algorithm must be sha256, sha1, or md5, got %q", c.Dedupe.Algorithm)
	}
	switch c.Dedupe.Policy {
	case "skip", "quarantine":
	default:
		return fmt.Errorf("dedupe.policy must be \"skip\" or \"quarantine\", got %q", c.Dedupe.Policy)
	}
	return nil
}

func (c *Config) validateTempoKey() error {
	if c.TempoKey.DecodeSizeCapMB < 0 {
		return errors.New("tempo_key.decode_size_cap_mb must be >= 0")
	}
	return nil
}
