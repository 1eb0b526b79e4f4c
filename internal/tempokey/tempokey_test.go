package tempokey_test

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"samplesort/internal/logging"
	"samplesort/internal/tempokey"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte("pcm"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestPlaceTempoWithKey(t *testing.T) {
	base := t.TempDir()
	file := filepath.Join(base, "Bb_Min_Loop 120bpm.wav")
	writeFile(t, file)

	placer := tempokey.NewPlacer(logging.NewNop())
	final, err := placer.PlaceTempo(file, 120, "Bb Min", false)
	if err != nil {
		t.Fatalf("PlaceTempo: %v", err)
	}
	want := filepath.Join(base, "120 BPM", "Bb Min", "Bb_Min_Loop 120bpm.wav")
	if final != want {
		t.Fatalf("final = %s, want %s", final, want)
	}
	if _, err := os.Stat(final); err != nil {
		t.Fatalf("placed file missing: %v", err)
	}
}

func TestPlaceTempoIdempotent(t *testing.T) {
	base := t.TempDir()
	file := filepath.Join(base, "loop.wav")
	writeFile(t, file)

	placer := tempokey.NewPlacer(logging.NewNop())
	first, err := placer.PlaceTempo(file, 119.6, "", false)
	if err != nil {
		t.Fatalf("first PlaceTempo: %v", err)
	}
	if filepath.Dir(first) != filepath.Join(base, "120 BPM") {
		t.Fatalf("expected rounding into 120 BPM, got %s", first)
	}

	second, err := placer.PlaceTempo(first, 120, "", false)
	if err != nil {
		t.Fatalf("second PlaceTempo: %v", err)
	}
	if second != first {
		t.Fatalf("idempotent call moved the file: %s != %s", second, first)
	}
	if _, err := os.Stat(first); err != nil {
		t.Fatalf("file vanished on repeat placement: %v", err)
	}
}

func TestPlaceTempoRePlacesFromStaleTempoFolder(t *testing.T) {
	base := t.TempDir()
	file := filepath.Join(base, "100 BPM", "loop.wav")
	writeFile(t, file)

	placer := tempokey.NewPlacer(logging.NewNop())
	final, err := placer.PlaceTempo(file, 128, "", false)
	if err != nil {
		t.Fatalf("PlaceTempo: %v", err)
	}
	if final != filepath.Join(base, "128 BPM", "loop.wav") {
		t.Fatalf("re-placement should start from the base dir, got %s", final)
	}
}

func TestPlaceTempoKeyFolderOutsideTargetTempoIsMoved(t *testing.T) {
	base := t.TempDir()
	file := filepath.Join(base, "100 BPM", "Bb Min", "loop.wav")
	writeFile(t, file)

	placer := tempokey.NewPlacer(logging.NewNop())
	final, err := placer.PlaceTempo(file, 128, "Bb Min", false)
	if err != nil {
		t.Fatalf("PlaceTempo: %v", err)
	}
	if final != filepath.Join(base, "128 BPM", "Bb Min", "loop.wav") {
		t.Fatalf("key folder under a stale tempo folder must be re-placed, got %s", final)
	}
}

func TestPlaceTempoRejectsNonFinite(t *testing.T) {
	placer := tempokey.NewPlacer(logging.NewNop())
	for _, bpm := range []float64{math.NaN(), math.Inf(1), -10, 0} {
		if _, err := placer.PlaceTempo("/tmp/x.wav", bpm, "", true); err == nil {
			t.Fatalf("bpm %v should be rejected", bpm)
		}
	}
}

func TestPlaceTempoDryRun(t *testing.T) {
	base := t.TempDir()
	file := filepath.Join(base, "loop.wav")
	writeFile(t, file)

	placer := tempokey.NewPlacer(logging.NewNop())
	final, err := placer.PlaceTempo(file, 90, "", true)
	if err != nil {
		t.Fatalf("PlaceTempo: %v", err)
	}
	if final != filepath.Join(base, "90 BPM", "loop.wav") {
		t.Fatalf("dry run should report target path, got %s", final)
	}
	if _, err := os.Stat(filepath.Join(base, "90 BPM")); !os.IsNotExist(err) {
		t.Fatalf("dry run must not create directories: %v", err)
	}
	if _, err := os.Stat(file); err != nil {
		t.Fatalf("dry run must not move the file: %v", err)
	}
}

func TestPlaceKey(t *testing.T) {
	base := t.TempDir()
	file := filepath.Join(base, "chord.wav")
	writeFile(t, file)

	placer := tempokey.NewPlacer(logging.NewNop())
	final, err := placer.PlaceKey(file, "F# Maj", false)
	if err != nil {
		t.Fatalf("PlaceKey: %v", err)
	}
	if final != filepath.Join(base, "F# Maj", "chord.wav") {
		t.Fatalf("final = %s", final)
	}

	again, err := placer.PlaceKey(final, "F# Maj", false)
	if err != nil {
		t.Fatalf("repeat PlaceKey: %v", err)
	}
	if again != final {
		t.Fatalf("repeat placement should be a no-op, got %s", again)
	}
}

func TestDeriveKey(t *testing.T) {
	tests := []struct {
		name string
		key  string
		ok   bool
	}{
		{"Bb_Min_Loop 120bpm.wav", "Bb Min", true},
		{"F#_maj_lead.wav", "F# Maj", true},
		{"Cmaj_chord.wav", "C Maj", true},
		{"pad (A minor).wav", "A Min", true},
		{"Gm_arp.wav", "G Min", true},
		{"kick_01.wav", "", false},
		{"snare tight.wav", "", false},
		{"about.wav", "", false},
	}
	for _, tt := range tests {
		key, ok := tempokey.DeriveKey(tt.name)
		if ok != tt.ok || key != tt.key {
			t.Errorf("DeriveKey(%q) = %q,%v want %q,%v", tt.name, key, ok, tt.key, tt.ok)
		}
	}
}
