// Package media wraps the external audio collaborators: ffprobe for duration
// lookups and an optional tempo-detector binary. Both are opaque tools; their
// failures never propagate past this boundary.
package media

import (
	"context"
	"encoding/json"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"samplesort/internal/logging"
)

const probeCacheSize = 1024

// Prober resolves audio durations via ffprobe, memoizing results per path.
type Prober struct {
	binary string
	cache  *lru.Cache[string, float64]
	logger *slog.Logger
}

// NewProber builds a prober around the given ffprobe binary.
func NewProber(binary string, logger *slog.Logger) *Prober {
	if strings.TrimSpace(binary) == "" {
		binary = "ffprobe"
	}
	cache, err := lru.New[string, float64](probeCacheSize)
	if err != nil {
		// Only reachable with a non-positive size constant.
		panic(err)
	}
	return &Prober{
		binary: binary,
		cache:  cache,
		logger: logging.NewComponentLogger(logger, "probe"),
	}
}

type probeFormat struct {
	Duration string `json:"duration"`
}

type probeResult struct {
	Format probeFormat `json:"format"`
}

// Duration returns the audio duration of path in seconds. Probe failures are
// logged and reported as ok=false, never as errors.
func (p *Prober) Duration(ctx context.Context, path string) (float64, bool) {
	if cached, ok := p.cache.Get(path); ok {
		return cached, cached >= 0
	}

	cmd := exec.CommandContext(ctx, p.binary, "-v", "error", "-hide_banner", "-show_format", "-of", "json", "--", path)
	output, err := cmd.Output()
	if err != nil {
		p.logger.Warn("duration probe failed",
			logging.String(logging.FieldFile, path), logging.Error(err))
		p.cache.Add(path, -1)
		return 0, false
	}

	var result probeResult
	if err := json.Unmarshal(output, &result); err != nil {
		p.logger.Warn("duration probe parse failed",
			logging.String(logging.FieldFile, path), logging.Error(err))
		p.cache.Add(path, -1)
		return 0, false
	}

	seconds, err := strconv.ParseFloat(strings.TrimSpace(result.Format.Duration), 64)
	if err != nil || seconds < 0 {
		p.cache.Add(path, -1)
		return 0, false
	}
	p.cache.Add(path, seconds)
	return seconds, true
}
