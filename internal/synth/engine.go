package synth

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/example/readaloud/internal/audio"
)

// localVoicePrefix marks catalog IDs that resolve to CLI engine models.
const localVoicePrefix = "local:"

// CLIEngine renders speech through an external piper-style executable that
// reads text on stdin and writes a WAV stream to stdout.
type CLIEngine struct {
	// Path is the executable; "piper" when empty.
	Path string
	// ModelDir, when set, resolves voice IDs to model files inside it.
	ModelDir string
	// ExtraArgs are appended to every invocation.
	ExtraArgs []string
}

// Synthesize runs the CLI and decodes its WAV output into normalized PCM
// with short anti-click fades.
func (e *CLIEngine) Synthesize(ctx context.Context, text, voiceID string) ([]float32, int, error) {
	args := []string{"--output_file", "-"}
	if model := e.modelFor(voiceID); model != "" {
		args = append(args, "--model", model)
	}
	args = append(args, e.ExtraArgs...)

	cmd := exec.CommandContext(ctx, e.executable(), args...)
	cmd.Stdin = strings.NewReader(text)

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = io.Discard

	if err := cmd.Run(); err != nil {
		return nil, 0, fmt.Errorf("synthesis cli: %w", err)
	}

	samples, rate, err := audio.DecodeWAV(out.Bytes())
	if err != nil {
		return nil, 0, fmt.Errorf("decode synthesis output: %w", err)
	}

	samples = audio.ApplyHooks(samples,
		audio.PeakNormalize,
		func(s []float32) []float32 { return audio.DCBlock(s, rate) },
		func(s []float32) []float32 { return audio.FadeIn(s, rate, 5) },
		func(s []float32) []float32 { return audio.FadeOut(s, rate, 8) },
	)
	return samples, rate, nil
}

// Version probes the executable, for preflight checks.
func (e *CLIEngine) Version(ctx context.Context) (string, error) {
	out, err := exec.CommandContext(ctx, e.executable(), "--version").CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("%s --version: %w", e.executable(), err)
	}
	return strings.TrimSpace(string(out)), nil
}

func (e *CLIEngine) executable() string {
	if e.Path == "" {
		return "piper"
	}
	return e.Path
}

// modelFor maps a catalog voice ID to the CLI's model argument. Catalog IDs
// carry the local prefix over a piper model name.
func (e *CLIEngine) modelFor(voiceID string) string {
	name := strings.TrimPrefix(voiceID, localVoicePrefix)
	if name == "" {
		return ""
	}
	if e.ModelDir != "" {
		return filepath.Join(e.ModelDir, name+".onnx")
	}
	return name
}
