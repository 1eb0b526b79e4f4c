// Package config loads, normalizes, and validates the TOML configuration for
// samplesort. Defaults live in defaults.go; Load applies the file on top of
// them, expands every path field, and rejects unusable values before a run
// starts.
package config
