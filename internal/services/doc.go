// Package services defines the shared error taxonomy used across pipeline
// stages. Errors are wrapped with a sentinel marker plus stage/operation
// context so callers can decide between aborting a run (configuration
// problems) and skipping a single file (everything else).
package services
