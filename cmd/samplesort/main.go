package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"samplesort/internal/services"
)

func main() {
	cmd := newRootCommand()
	err := cmd.Execute()
	if err == nil {
		return
	}
	if !errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, err)
	}
	os.Exit(exitCode(err))
}

// exitCode maps configuration failures to 2 so callers can tell a bad setup
// apart from a run that hit per-file trouble.
func exitCode(err error) int {
	if services.IsFatal(err) {
		return 2
	}
	return 1
}
