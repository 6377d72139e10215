package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/example/readaloud/internal/audio"
	"github.com/example/readaloud/internal/config"
	"github.com/example/readaloud/internal/highlight"
	"github.com/example/readaloud/internal/reader"
	"github.com/example/readaloud/internal/synth"
	"github.com/example/readaloud/internal/tts"
	"github.com/example/readaloud/internal/view"
	"github.com/example/readaloud/internal/voice"
)

// buildShell assembles a full reader: synthesizer, voice selection, console
// view, highlight renderer, speech controller, and the shell tying them
// together. The view prints to out; headless surfaces pass io.Discard. The
// returned cleanup releases the playback device, if one was opened.
func buildShell(cfg config.Config, out io.Writer) (*reader.Shell, func(), error) {
	log := slog.Default()

	policy, catalog, err := loadVoicesFile(cfg.Paths.VoicesFile)
	if err != nil {
		return nil, nil, err
	}

	synthOpts := []synth.Option{synth.WithLogger(log)}
	if len(catalog) > 0 {
		synthOpts = append(synthOpts, synth.WithCatalog(catalog))
	}
	if cfg.Speech.RateWPM > 0 {
		synthOpts = append(synthOpts, synth.WithWordsPerMinute(float64(cfg.Speech.RateWPM)))
	}
	synthOpts = append(synthOpts, synth.WithVolume(cfg.Speech.Volume))
	if cfg.Speech.EngineCLI != "" {
		synthOpts = append(synthOpts, synth.WithEngine(&synth.CLIEngine{
			Path:     cfg.Speech.EngineCLI,
			ModelDir: cfg.Speech.ModelDir,
		}))
	}

	// A playback device is only worth opening when an engine can produce
	// samples for it; the silent clock path never plays audio.
	cleanup := func() {}
	if cfg.Audio.Enabled && cfg.Speech.EngineCLI != "" {
		if cfg.Audio.Device != "" {
			if _, err := audio.FindPlaybackDevice(cfg.Audio.Device); err != nil {
				log.Warn("configured audio device not found, using default",
					slog.String("device", cfg.Audio.Device), slog.Any("err", err))
			}
		}
		dev, err := audio.NewDevice()
		if err != nil {
			return nil, nil, fmt.Errorf("open playback device: %w", err)
		}
		synthOpts = append(synthOpts,
			synth.WithPlayer(dev),
			synth.WithSampleRate(cfg.Audio.SampleRate),
		)
		cleanup = func() { _ = dev.Close() }
	}

	speech := synth.NewLocal(synthOpts...)
	selector := voice.NewSelector(speech, policy)
	switch {
	case cfg.Speech.Voice != "":
		selector.Select(cfg.Speech.Voice)
	case cfg.Speech.Language != "":
		selector.AutoSelect(cfg.Speech.Language)
	}

	console := view.NewConsole(out)
	marks := highlight.New(highlight.Capabilities{Overlays: console}, highlight.WithLogger(log))
	ctrl := tts.New(tts.Deps{
		View:       console,
		Synth:      speech,
		Voices:     selector,
		Highlights: marks,
		Log:        log,
	})

	shell := reader.NewShell(console, ctrl, reader.WithLogger(log))
	if cfg.Paths.AnnotationsDir != "" {
		importAnnotationDir(shell, cfg.Paths.AnnotationsDir, log)
	}
	return shell, cleanup, nil
}

// loadVoicesFile reads the policy and catalog halves of a voices file. An
// empty path keeps the compiled-in policy and the bundled catalog.
func loadVoicesFile(path string) (voice.Policy, []voice.Voice, error) {
	if path == "" {
		return voice.DefaultPolicy(), nil, nil
	}
	policy, err := voice.LoadPolicy(path)
	if err != nil {
		return voice.Policy{}, nil, fmt.Errorf("load voice policy: %w", err)
	}
	catalog, err := synth.LoadCatalog(path)
	if err != nil {
		return voice.Policy{}, nil, fmt.Errorf("load voice catalog: %w", err)
	}
	return policy, catalog, nil
}

// importAnnotationDir feeds every annotation file in dir into the shell.
// Unreadable files are logged and skipped.
func importAnnotationDir(shell *reader.Shell, dir string, log *slog.Logger) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		log.Warn("annotation directory unreadable", slog.String("dir", dir), slog.Any("err", err))
		return
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch filepath.Ext(e.Name()) {
		case ".json", ".yaml", ".yml":
		default:
			continue
		}
		path := filepath.Join(dir, e.Name())
		n, err := shell.ImportAnnotations(path)
		if err != nil {
			log.Warn("annotation import failed", slog.String("path", path), slog.Any("err", err))
			continue
		}
		log.Debug("annotations imported", slog.String("path", path), slog.Int("count", n))
	}
}
