package fileutil_test

import (
	"os"
	"path/filepath"
	"testing"

	"samplesort/internal/fileutil"
)

func TestCopyFileCreatesParents(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.wav")
	if err := os.WriteFile(src, []byte("pcm"), 0o644); err != nil {
		t.Fatalf("write src: %v", err)
	}
	dst := filepath.Join(dir, "nested", "deep", "a.wav")
	if err := fileutil.CopyFile(src, dst); err != nil {
		t.Fatalf("CopyFile: %v", err)
	}
	data, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("read dst: %v", err)
	}
	if string(data) != "pcm" {
		t.Fatalf("content mismatch: %q", data)
	}
	if _, err := os.Stat(src); err != nil {
		t.Fatalf("copy must leave source intact: %v", err)
	}
}

func TestMoveFileRenames(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "b.wav")
	if err := os.WriteFile(src, []byte("pcm"), 0o644); err != nil {
		t.Fatalf("write src: %v", err)
	}
	dst := filepath.Join(dir, "sub", "b.wav")
	if err := fileutil.MoveFile(src, dst); err != nil {
		t.Fatalf("MoveFile: %v", err)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Fatalf("source should be gone, stat err=%v", err)
	}
	if _, err := os.Stat(dst); err != nil {
		t.Fatalf("destination missing: %v", err)
	}
}
