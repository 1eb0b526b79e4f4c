package media

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	"samplesort/internal/logging"
)

// TempoDetector resolves a BPM value for an audio file. Implementations are
// opaque and may be slow; ok=false means no tempo could be determined, which
// is not an error condition.
type TempoDetector interface {
	Detect(ctx context.Context, path string) (bpm float64, ok bool, err error)
}

// NullDetector never detects a tempo. Used when no detector binary is
// configured.
type NullDetector struct{}

func (NullDetector) Detect(context.Context, string) (float64, bool, error) {
	return 0, false, nil
}

// ExecDetector shells out to an aubio-style tempo binary whose output begins
// with a BPM number. Files larger than MaxBytes are skipped before any decode
// work happens.
type ExecDetector struct {
	Binary   string
	MaxBytes int64
	Logger   *slog.Logger
}

// NewExecDetector builds a detector around the given binary with a decode
// size cap in bytes (0 disables the cap).
func NewExecDetector(binary string, maxBytes int64, logger *slog.Logger) *ExecDetector {
	return &ExecDetector{
		Binary:   binary,
		MaxBytes: maxBytes,
		Logger:   logging.NewComponentLogger(logger, "tempo-detect"),
	}
}

func (d *ExecDetector) Detect(ctx context.Context, path string) (float64, bool, error) {
	if d.MaxBytes > 0 {
		info, err := os.Stat(path)
		if err != nil {
			return 0, false, err
		}
		if info.Size() > d.MaxBytes {
			d.Logger.Debug("skipping tempo detection over size cap",
				logging.String(logging.FieldFile, path),
				logging.Int64("size", info.Size()))
			return 0, false, nil
		}
	}

	cmd := exec.CommandContext(ctx, d.Binary, "tempo", "-i", path)
	output, err := cmd.Output()
	if err != nil {
		return 0, false, fmt.Errorf("tempo detector: %w", err)
	}
	bpm, ok := parseDetectorOutput(string(output))
	return bpm, ok, nil
}

func parseDetectorOutput(output string) (float64, bool) {
	fields := strings.Fields(output)
	if len(fields) == 0 {
		return 0, false
	}
	bpm, err := strconv.ParseFloat(fields[0], 64)
	if err != nil || bpm <= 0 {
		return 0, false
	}
	return bpm, true
}

// filenameBPMPattern matches "120bpm", "120 BPM", or "bpm120" style tokens.
var filenameBPMPattern = regexp.MustCompile(`(?i)(?:^|[^0-9a-z])(\d{2,3})\s?bpm|(?:^|[^0-9a-z])bpm\s?(\d{2,3})`)

// ParseTempoFromName extracts a BPM value embedded in a file name, accepting
// only the plausible musical range so stray numbers are not misread.
func ParseTempoFromName(name string) (float64, bool) {
	m := filenameBPMPattern.FindStringSubmatch(name)
	if m == nil {
		return 0, false
	}
	digits := m[1]
	if digits == "" {
		digits = m[2]
	}
	value, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	if value < 40 || value > 250 {
		return 0, false
	}
	return float64(value), true
}
