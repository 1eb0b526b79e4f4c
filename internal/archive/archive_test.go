package archive_test

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"testing"

	"samplesort/internal/archive"
	"samplesort/internal/logging"
)

func writeZip(t *testing.T, path string, entries map[string]string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("create zip: %v", err)
	}
	defer file.Close()

	zw := zip.NewWriter(file)
	for name, content := range entries {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("create entry %s: %v", name, err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("write entry %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip: %v", err)
	}
}

func TestExpandZip(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "pack.zip")
	writeZip(t, archivePath, map[string]string{
		"kick.wav":        "kick",
		"loops/break.wav": "break",
	})

	scratch := filepath.Join(dir, archive.ScratchDirName(archivePath))
	expander := archive.NewExpander(logging.NewNop())
	files, err := expander.Expand(context.Background(), archivePath, scratch, true)
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("expected 2 files, got %v", files)
	}
	if _, err := os.Stat(archivePath); err != nil {
		t.Fatalf("keepArchive=true must preserve the archive: %v", err)
	}
}

func TestExpandDeletesArchive(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "pack.zip")
	writeZip(t, archivePath, map[string]string{"kick.wav": "kick"})

	scratch := filepath.Join(dir, "_temp_pack")
	expander := archive.NewExpander(logging.NewNop())
	if _, err := expander.Expand(context.Background(), archivePath, scratch, false); err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if _, err := os.Stat(archivePath); !os.IsNotExist(err) {
		t.Fatalf("archive should be deleted, stat err=%v", err)
	}
}

func TestExpandRejectsTraversal(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "evil.zip")
	writeZip(t, archivePath, map[string]string{
		"../escape.wav": "evil",
		"safe.wav":      "fine",
	})

	scratch := filepath.Join(dir, "scratch")
	expander := archive.NewExpander(logging.NewNop())
	files, err := expander.Expand(context.Background(), archivePath, scratch, true)
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if len(files) != 1 || filepath.Base(files[0]) != "safe.wav" {
		t.Fatalf("only the safe entry should be extracted, got %v", files)
	}
	if _, err := os.Stat(filepath.Join(dir, "escape.wav")); !os.IsNotExist(err) {
		t.Fatalf("traversal entry must never land outside scratch, stat err=%v", err)
	}
}

func TestFlattenCollapsesNestedWrappers(t *testing.T) {
	root := t.TempDir()
	deep := filepath.Join(root, "wrapper", "inner")
	if err := os.MkdirAll(deep, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	for _, name := range []string{"a.wav", "b.wav", "c.wav"} {
		if err := os.WriteFile(filepath.Join(deep, name), []byte(name), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if err := os.WriteFile(filepath.Join(root, "wrapper", ".DS_Store"), []byte("junk"), 0o644); err != nil {
		t.Fatalf("write junk: %v", err)
	}

	if err := archive.Flatten(root); err != nil {
		t.Fatalf("Flatten: %v", err)
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		t.Fatalf("read root: %v", err)
	}
	wavs := 0
	for _, entry := range entries {
		if entry.IsDir() {
			t.Fatalf("no wrapper directory should remain, found %s", entry.Name())
		}
		if filepath.Ext(entry.Name()) == ".wav" {
			wavs++
		}
	}
	if wavs != 3 {
		t.Fatalf("expected 3 files hoisted to root, got %d", wavs)
	}
}

func TestFlattenLeavesMultiEntryRootsAlone(t *testing.T) {
	root := t.TempDir()
	for _, sub := range []string{"one", "two"} {
		if err := os.MkdirAll(filepath.Join(root, sub), 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
	}
	if err := archive.Flatten(root); err != nil {
		t.Fatalf("Flatten: %v", err)
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		t.Fatalf("read root: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected both directories untouched, got %d entries", len(entries))
	}
}

func TestIsArchiveAndScratchName(t *testing.T) {
	if !archive.IsArchive("x/pack.ZIP") || !archive.IsArchive("pack.7z") || !archive.IsArchive("pack.tar.gz") {
		t.Fatal("expected archive extensions to be recognized")
	}
	if archive.IsArchive("kick.wav") {
		t.Fatal("wav is not an archive")
	}
	if got := archive.ScratchDirName("/src/Ultimate Drums.tar.gz"); got != "_temp_Ultimate Drums" {
		t.Fatalf("ScratchDirName = %q", got)
	}
	if got := archive.ScratchDirName("pack.zip"); got != "_temp_pack" {
		t.Fatalf("ScratchDirName = %q", got)
	}
}
