package organize_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"samplesort/internal/archive"
	"samplesort/internal/classify"
	"samplesort/internal/config"
	"samplesort/internal/dedupe"
	"samplesort/internal/logging"
	"samplesort/internal/organize"
	"samplesort/internal/rules"
	"samplesort/internal/testsupport"
)

func newRunner(t *testing.T, cfg *config.Config) *organize.Runner {
	t.Helper()
	compiled, err := rules.Compile(rules.DefaultGroups())
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	logger := logging.NewNop()
	classifier := classify.New(cfg, compiled, nil, logger)
	expander := archive.NewExpander(logger)
	var checker *dedupe.Checker
	if cfg.Dedupe.Enabled {
		checker = dedupe.NewChecker(dedupe.NewIndex(), cfg.Dedupe.Algorithm, logger)
	}
	return organize.NewRunner(cfg, classifier, expander, checker, logger)
}

func TestRunClassifiesSourceTree(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.SourceDir, "kick_01.wav"), "one")
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.SourceDir, "snare_tight.wav"), "two")
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.SourceDir, ".DS_Store"), "junk")

	summary, err := newRunner(t, cfg).Run(context.Background(), organize.Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(summary.Moved) != 2 || summary.Errors != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	for _, want := range []string{
		filepath.Join(cfg.Paths.DestDir, "Drums", "Kicks", "kick_01.wav"),
		filepath.Join(cfg.Paths.DestDir, "Drums", "Snares", "snare_tight.wav"),
	} {
		if _, err := os.Stat(want); err != nil {
			t.Fatalf("expected %s: %v", want, err)
		}
	}
	if _, err := os.Stat(filepath.Join(cfg.Paths.SourceDir, "kick_01.wav")); !os.IsNotExist(err) {
		t.Fatalf("move mode must drain the source: %v", err)
	}
}

func TestRunSkipsDuplicates(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithDedupe("skip"))
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.SourceDir, "kick_a.wav"), "same bytes")
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.SourceDir, "sub", "kick_b.wav"), "same bytes")

	summary, err := newRunner(t, cfg).Run(context.Background(), organize.Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(summary.Moved) != 1 || summary.Duplicates != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if _, err := os.Stat(filepath.Join(cfg.Paths.SourceDir, "sub", "kick_b.wav")); err != nil {
		t.Fatalf("skip policy must leave the duplicate in place: %v", err)
	}
}

func TestRunQuarantinesDuplicates(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithDedupe("quarantine"))
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.SourceDir, "kick_a.wav"), "same bytes")
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.SourceDir, "sub", "kick_b.wav"), "same bytes")

	summary, err := newRunner(t, cfg).Run(context.Background(), organize.Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Duplicates != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	quarantined := filepath.Join(cfg.Paths.DestDir, cfg.Dedupe.QuarantineDir, "kick_b.wav")
	if _, err := os.Stat(quarantined); err != nil {
		t.Fatalf("expected quarantined duplicate at %s: %v", quarantined, err)
	}
}

func TestRunQuarantineCopyModeLeavesSource(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithMode("copy"), testsupport.WithDedupe("quarantine"))
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.SourceDir, "kick_a.wav"), "same bytes")
	dup := filepath.Join(cfg.Paths.SourceDir, "sub", "kick_b.wav")
	testsupport.WriteFile(t, dup, "same bytes")

	summary, err := newRunner(t, cfg).Run(context.Background(), organize.Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Duplicates != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	quarantined := filepath.Join(cfg.Paths.DestDir, cfg.Dedupe.QuarantineDir, "kick_b.wav")
	if _, err := os.Stat(quarantined); err != nil {
		t.Fatalf("expected quarantined duplicate at %s: %v", quarantined, err)
	}
	if _, err := os.Stat(dup); err != nil {
		t.Fatalf("copy mode must not move the duplicate out of the source: %v", err)
	}
}

func TestRunSeedsDestination(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithDedupe("skip"))
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.DestDir, "Drums", "Kicks", "kick.wav"), "already placed")
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.SourceDir, "kick_copy.wav"), "already placed")

	summary, err := newRunner(t, cfg).Run(context.Background(), organize.Options{SeedDestination: true})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Seeded != 1 {
		t.Fatalf("expected one seeded hash, got %d", summary.Seeded)
	}
	if summary.Duplicates != 1 || len(summary.Moved) != 0 {
		t.Fatalf("seeded hash should catch the re-download: %+v", summary)
	}
}

func TestRunExpandsArchives(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Organize.KeepPackSubfolder = true
	archivePath := filepath.Join(cfg.Paths.SourceDir, "Ultimate-Drums.zip")
	testsupport.WriteZip(t, archivePath, map[string]string{
		"wrapper/kick_01.wav":  "one",
		"wrapper/snare_01.wav": "two",
	})

	summary, err := newRunner(t, cfg).Run(context.Background(), organize.Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if summary.Archives != 1 || len(summary.Moved) != 2 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	want := filepath.Join(cfg.Paths.DestDir, "Drums", "Kicks", "Ultimate Drums", "kick_01.wav")
	if _, err := os.Stat(want); err != nil {
		t.Fatalf("expected %s: %v", want, err)
	}
	if _, err := os.Stat(archivePath); !os.IsNotExist(err) {
		t.Fatalf("archive should be deleted after extraction: %v", err)
	}
	entries, err := os.ReadDir(cfg.Paths.SourceDir)
	if err != nil {
		t.Fatalf("read source: %v", err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			t.Fatalf("scratch dir %s left behind", entry.Name())
		}
	}
}

func TestRunDryRunTouchesNothing(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	src := filepath.Join(cfg.Paths.SourceDir, "kick_01.wav")
	testsupport.WriteFile(t, src, "one")
	testsupport.WriteZip(t, filepath.Join(cfg.Paths.SourceDir, "pack.zip"), map[string]string{
		"loop.wav": "bytes",
	})

	summary, err := newRunner(t, cfg).Run(context.Background(), organize.Options{DryRun: true})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(summary.Moved) != 1 || summary.Archives != 1 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
	if _, err := os.Stat(src); err != nil {
		t.Fatalf("dry run must not move files: %v", err)
	}
	if _, err := os.Stat(cfg.Paths.DestDir); !os.IsNotExist(err) {
		t.Fatalf("dry run must not create the destination: %v", err)
	}
}

func TestRunCancellationReturnsPartialSummary(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.WriteFile(t, filepath.Join(cfg.Paths.SourceDir, "kick_01.wav"), "one")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	summary, err := newRunner(t, cfg).Run(ctx, organize.Options{})
	if err != nil {
		t.Fatalf("cancelled run should not error: %v", err)
	}
	if !summary.Cancelled || len(summary.Moved) != 0 {
		t.Fatalf("unexpected summary: %+v", summary)
	}
}

func TestRunRejectsMissingSource(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Paths.SourceDir = filepath.Join(testsupport.BaseDir(cfg), "nope")
	if _, err := newRunner(t, cfg).Run(context.Background(), organize.Options{}); err == nil {
		t.Fatal("missing source dir should abort the run")
	}
}
