package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"samplesort/internal/config"
	"samplesort/internal/services"
	"samplesort/internal/testsupport"
)

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	encoded, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, encoded, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, configPath string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCommand()
	full := append([]string{"--config", configPath}, args...)
	cmd.SetArgs(full)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	err := cmd.Execute()
	return out.String(), err
}

func requireContains(t *testing.T, haystack, needle string) {
	t.Helper()
	if !strings.Contains(haystack, needle) {
		t.Fatalf("expected output to contain %q, got:\n%s", needle, haystack)
	}
}

func TestOrganizeHistoryUndoTempoKey(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	base := testsupport.BaseDir(cfg)
	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, cfg)

	testsupport.WriteFile(t, filepath.Join(cfg.Paths.SourceDir, "kick_120bpm.wav"), "pcm")

	out, err := runCLI(t, configPath, "organize")
	if err != nil {
		t.Fatalf("organize: %v\n%s", err, out)
	}
	placed := filepath.Join(cfg.Paths.DestDir, "Drums", "Kicks", "kick_120bpm.wav")
	if _, err := os.Stat(placed); err != nil {
		t.Fatalf("expected placed file at %s: %v", placed, err)
	}

	out, err = runCLI(t, configPath, "history")
	if err != nil {
		t.Fatalf("history: %v\n%s", err, out)
	}
	requireContains(t, out, "move")

	out, err = runCLI(t, configPath, "undo", "--dry-run")
	if err != nil {
		t.Fatalf("undo --dry-run: %v\n%s", err, out)
	}
	requireContains(t, out, "restored 1")

	out, err = runCLI(t, configPath, "tempokey")
	if err != nil {
		t.Fatalf("tempokey: %v\n%s", err, out)
	}
	sorted := filepath.Join(cfg.Paths.DestDir, "Drums", "Kicks", "120 BPM", "kick_120bpm.wav")
	if _, err := os.Stat(sorted); err != nil {
		t.Fatalf("expected tempo-sorted file at %s: %v", sorted, err)
	}
}

func TestConfigInit(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	configPath := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	writeTestConfig(t, configPath, cfg)

	tmp := t.TempDir()
	target := filepath.Join(tmp, "config.toml")
	out, err := runCLI(t, configPath, "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v\n%s", err, out)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}
}

func TestConfigCommandsHonorConfigFlag(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	configPath := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	writeTestConfig(t, configPath, cfg)

	out, err := runCLI(t, configPath, "config", "show")
	if err != nil {
		t.Fatalf("config show: %v\n%s", err, out)
	}
	requireContains(t, out, "# loaded from "+configPath)
	requireContains(t, out, cfg.Paths.SourceDir)

	out, err = runCLI(t, configPath, "config", "validate")
	if err != nil {
		t.Fatalf("config validate: %v\n%s", err, out)
	}
	requireContains(t, out, "Config path: "+configPath)
	requireContains(t, out, "Configuration valid")
}

func TestExitCode(t *testing.T) {
	cfgErr := services.Wrap(services.ErrConfiguration, "organize", "validate source", "", nil)
	if got := exitCode(cfgErr); got != 2 {
		t.Fatalf("configuration errors must exit 2, got %d", got)
	}
	if got := exitCode(errors.New("disk on fire")); got != 1 {
		t.Fatalf("other errors must exit 1, got %d", got)
	}
}

func TestRulesCommandListsCompiledOrder(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	configPath := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	writeTestConfig(t, configPath, cfg)

	out, err := runCLI(t, configPath, "rules")
	if err != nil {
		t.Fatalf("rules: %v\n%s", err, out)
	}
	requireContains(t, out, "Kicks")
	requireContains(t, out, "Sub Bass")
}
