// Package doctor provides environment preflight checks for the reader.
package doctor

import (
	"fmt"
	"io"
	"os"
)

// PassMark and FailMark are the prefix symbols printed for each check result.
const (
	PassMark = "✓"
	FailMark = "✗"
)

// VersionFunc returns a version string or an error if the component is unavailable.
type VersionFunc func() (string, error)

// Config holds injectable dependencies for each doctor check.
type Config struct {
	// SynthVersion returns the output of the synthesis CLI `--version`.
	SynthVersion VersionFunc
	// SkipSynth skips the synthesis CLI check (no engine configured).
	SkipSynth bool
	// LibraryDir is the document library path to verify on disk.
	LibraryDir string
	// VoicesFile is the voice catalog path to parse. Empty means the
	// built-in catalog is in use.
	VoicesFile string
	// LoadVoices parses a catalog file and returns the number of voices.
	LoadVoices func(path string) (int, error)
	// ListDevices returns the names of usable audio playback devices.
	ListDevices func() ([]string, error)
	// SkipAudio skips the playback device check (audio disabled).
	SkipAudio bool
}

// Result collects the outcome of all checks.
type Result struct {
	failures []string
}

// Failed returns true if any check failed.
func (r *Result) Failed() bool { return len(r.failures) > 0 }

// Failures returns the list of failure messages.
func (r *Result) Failures() []string { return append([]string(nil), r.failures...) }

// AddFailure appends an external failure message to the result.
func (r *Result) AddFailure(msg string) { r.failures = append(r.failures, msg) }

func (r *Result) fail(msg string) { r.failures = append(r.failures, msg) }

// Run executes all configured checks and writes human-readable output to w.
// Each check line is prefixed with PassMark or FailMark.
func Run(cfg Config, w io.Writer) Result {
	var res Result

	// ---- synthesis CLI -----------------------------------------------------
	if cfg.SkipSynth {
		fmt.Fprintf(w, "%s synthesis cli: skipped\n", PassMark)
	} else {
		ver, err := cfg.SynthVersion()
		if err != nil {
			res.fail(fmt.Sprintf("synthesis cli: %v", err))
			fmt.Fprintf(w, "%s synthesis cli: not found (%v)\n", FailMark, err)
		} else {
			fmt.Fprintf(w, "%s synthesis cli: %s\n", PassMark, ver)
		}
	}

	// ---- document library --------------------------------------------------
	if cfg.LibraryDir == "" {
		res.fail("library: no directory configured")
		fmt.Fprintf(w, "%s library: no directory configured\n", FailMark)
	} else if info, err := os.Stat(cfg.LibraryDir); err != nil {
		res.fail(fmt.Sprintf("library %q: %v", cfg.LibraryDir, err))
		fmt.Fprintf(w, "%s library %s: not found\n", FailMark, cfg.LibraryDir)
	} else if !info.IsDir() {
		res.fail(fmt.Sprintf("library %q: not a directory", cfg.LibraryDir))
		fmt.Fprintf(w, "%s library %s: not a directory\n", FailMark, cfg.LibraryDir)
	} else {
		fmt.Fprintf(w, "%s library: %s\n", PassMark, cfg.LibraryDir)
	}

	// ---- voice catalog -----------------------------------------------------
	if cfg.VoicesFile == "" {
		fmt.Fprintf(w, "%s voice catalog: built-in\n", PassMark)
	} else {
		n, err := cfg.LoadVoices(cfg.VoicesFile)
		if err != nil {
			res.fail(fmt.Sprintf("voice catalog %q: %v", cfg.VoicesFile, err))
			fmt.Fprintf(w, "%s voice catalog %s: %v\n", FailMark, cfg.VoicesFile, err)
		} else {
			fmt.Fprintf(w, "%s voice catalog: %s (%d voices)\n", PassMark, cfg.VoicesFile, n)
		}
	}

	// ---- playback device ---------------------------------------------------
	if cfg.SkipAudio {
		fmt.Fprintf(w, "%s playback device: skipped\n", PassMark)
	} else {
		names, err := cfg.ListDevices()
		if err != nil {
			res.fail(fmt.Sprintf("playback device: %v", err))
			fmt.Fprintf(w, "%s playback device: %v\n", FailMark, err)
		} else if len(names) == 0 {
			res.fail("playback device: none found")
			fmt.Fprintf(w, "%s playback device: none found\n", FailMark)
		} else {
			fmt.Fprintf(w, "%s playback device: %d found\n", PassMark, len(names))
		}
	}

	return res
}
