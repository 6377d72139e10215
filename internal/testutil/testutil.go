// Package testutil provides shared skip helpers for integration tests.
//
// Each helper calls t.Skip with a clear human-readable reason when the named
// prerequisite is absent, so integration tests remain runnable in partial
// environments without failing noisily.
//
// Typical usage:
//
//	func TestMyIntegration(t *testing.T) {
//	    testutil.RequireSynthCLI(t)
//	    ...
//	}
package testutil

import (
	"os"
	"os/exec"
	"testing"

	"github.com/example/readaloud/internal/audio"
	"github.com/example/readaloud/internal/synth"
)

// RequireSynthCLI skips the test if the speech synthesis executable is not
// found in PATH or at the path given by the READALOUD_SYNTH_CLI environment
// variable.
func RequireSynthCLI(tb testing.TB) {
	tb.Helper()

	exe := os.Getenv("READALOUD_SYNTH_CLI")
	if exe == "" {
		exe = "piper"
	}

	if _, err := exec.LookPath(exe); err != nil {
		tb.Skipf("synthesis CLI not available (%q not in PATH); set READALOUD_SYNTH_CLI to override", exe)
	}
}

// RequirePlaybackDevice skips the test when the host has no usable audio
// output device, as on most CI machines.
func RequirePlaybackDevice(tb testing.TB) {
	tb.Helper()

	devices, err := audio.ListPlaybackDevices()
	if err != nil {
		tb.Skipf("audio playback unavailable: %v", err)
	}
	if len(devices) == 0 {
		tb.Skipf("no audio playback devices found")
	}
}

// RequireVoice skips the test if the voice identified by id cannot be
// resolved from the YAML catalog at the path in READALOUD_VOICES_FILE, or
// from voices.yaml relative to the working directory when unset.
func RequireVoice(tb testing.TB, id string) {
	tb.Helper()

	path := os.Getenv("READALOUD_VOICES_FILE")
	if path == "" {
		path = "voices.yaml"
	}

	voices, err := synth.LoadCatalog(path)
	if err != nil {
		tb.Skipf("voice catalog not available at %q: %v", path, err)
		return
	}

	for _, v := range voices {
		if v.ID == id {
			return
		}
	}
	tb.Skipf("voice %q not in catalog %s", id, path)
}
