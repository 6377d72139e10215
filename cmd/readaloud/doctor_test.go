package main

import (
	"os"
	"path/filepath"
	"testing"
)

func TestProbeSynthVersion_MissingExecutable(t *testing.T) {
	_, err := probeSynthVersion("/nonexistent/synth-binary", "")
	if err == nil {
		t.Fatal("expected error for missing executable")
	}
}

func TestProbeSynthVersion_FakeExecutable(t *testing.T) {
	// A tiny script that prints a fixed string, simulating a piper-style
	// binary that honours --version.
	tmp := t.TempDir()

	script := filepath.Join(tmp, "fake-synth")

	writeErr := os.WriteFile(script, []byte("#!/bin/sh\necho 'piper 1.2.0'\n"), 0o755)
	if writeErr != nil {
		t.Fatalf("WriteFile: %v", writeErr)
	}

	got, err := probeSynthVersion(script, "")
	if err != nil {
		t.Fatalf("probeSynthVersion: %v", err)
	}

	if got != "piper 1.2.0" {
		t.Errorf("unexpected version output: %q", got)
	}
}

func TestCountCatalogVoices(t *testing.T) {
	path := filepath.Join(t.TempDir(), "voices.yaml")
	data := `locales: [en-US, de-DE]
voices:
  - id: local:en_US-amy-medium
    name: Amy
    lang: en-US
  - id: local:de_DE-eva_k-x_low
    name: Eva
    lang: de-DE
`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	got, err := countCatalogVoices(path)
	if err != nil {
		t.Fatalf("countCatalogVoices: %v", err)
	}
	if got != 2 {
		t.Errorf("got %d voices, want 2", got)
	}
}

func TestCountCatalogVoices_MissingFile(t *testing.T) {
	_, err := countCatalogVoices("/nonexistent/voices.yaml")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestListPlaybackDeviceNames(t *testing.T) {
	names, err := listPlaybackDeviceNames()
	if err != nil {
		t.Skipf("audio backend unavailable: %v", err)
	}

	for i, n := range names {
		if n == "" {
			t.Errorf("device %d has an empty name", i)
		}
	}
}
