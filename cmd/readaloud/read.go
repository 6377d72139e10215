package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/example/readaloud/internal/audio"
	"github.com/example/readaloud/internal/config"
	"github.com/example/readaloud/internal/document"
	"github.com/example/readaloud/internal/input"
	"github.com/example/readaloud/internal/synth"
	"github.com/example/readaloud/internal/text"
	"github.com/example/readaloud/internal/tts"
	"github.com/spf13/cobra"
)

func newReadCmd() *cobra.Command {
	var from float64
	var hotkeyCombo string
	var wavPath string

	cmd := &cobra.Command{
		Use:   "read [document]",
		Short: "Read a document aloud with word highlighting",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			target := cfg.Paths.LibraryDir
			if len(args) == 1 {
				target, err = resolveDocumentPath(args[0], cfg.Paths.LibraryDir)
				if err != nil {
					return err
				}
			}

			if wavPath != "" {
				return renderWAV(cmd.Context(), cfg, target, from, wavPath)
			}

			shell, cleanup, err := buildShell(cfg, os.Stdout)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := shell.Open(target); err != nil {
				return err
			}
			if from > 0 {
				if err := shell.View().GoToFraction(from); err != nil {
					return err
				}
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			ctrl := shell.Controller()
			if err := ctrl.Toggle(); err != nil {
				return err
			}

			if hotkeyCombo != "" {
				mgr := input.NewManager(func() {
					if err := ctrl.Toggle(); err != nil {
						slog.Warn("toggle failed", slog.Any("err", err))
					}
				})
				if err := mgr.Start(ctx, hotkeyCombo); err != nil {
					return err
				}
				defer mgr.Stop()

				<-ctx.Done()
				ctrl.Cancel()
				return nil
			}

			// Without a hotkey nothing can resume stopped speech, so an
			// idle controller means the read is done.
			ticker := time.NewTicker(200 * time.Millisecond)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					ctrl.Cancel()
					return nil
				case <-ticker.C:
					if ctrl.State() == tts.Idle {
						return nil
					}
				}
			}
		},
	}

	cmd.Flags().Float64Var(&from, "from", 0, "Starting position as a fraction of the document (0..1)")
	cmd.Flags().StringVar(&hotkeyCombo, "hotkey", "", "Global play/pause key, e.g. ctrl+alt+p")
	cmd.Flags().StringVar(&wavPath, "wav", "", "Render the starting section to a WAV file instead of playing")

	return cmd
}

// resolveDocumentPath locates arg as given, relative to the working
// directory, or inside the library, in that order.
func resolveDocumentPath(arg, libraryDir string) (string, error) {
	if filepath.IsAbs(arg) {
		return arg, nil
	}
	if _, err := os.Stat(arg); err == nil {
		return arg, nil
	}
	if libraryDir != "" {
		joined := filepath.Join(libraryDir, arg)
		if _, err := os.Stat(joined); err == nil {
			return joined, nil
		}
	}
	return "", fmt.Errorf("document %q not found", arg)
}

// renderWAV synthesizes one section to a WAV file without opening a
// playback device.
func renderWAV(ctx context.Context, cfg config.Config, target string, from float64, outPath string) error {
	if cfg.Speech.EngineCLI == "" {
		return errors.New("wav rendering needs a synthesis engine; set speech.engine_cli")
	}

	info, err := os.Stat(target)
	if err != nil {
		return err
	}
	var doc *document.Document
	if info.IsDir() {
		doc, err = document.LoadDir(target)
	} else {
		doc, err = document.Load(target)
	}
	if err != nil {
		return err
	}

	section := sectionForFraction(from, len(doc.Sections))
	sec := &doc.Sections[section]
	walker, err := document.NewWalker(sec, document.WholeSection(sec))
	if err != nil {
		return err
	}
	content := walker.Text()
	if text.IsBlank(content) {
		return fmt.Errorf("section %d has no spoken text", section)
	}

	engine := &synth.CLIEngine{Path: cfg.Speech.EngineCLI, ModelDir: cfg.Speech.ModelDir}
	samples, rate, err := engine.Synthesize(ctx, content, cfg.Speech.Voice)
	if err != nil {
		return err
	}
	if cfg.Audio.SampleRate > 0 && rate != cfg.Audio.SampleRate {
		samples = audio.Resample(samples, rate, cfg.Audio.SampleRate)
		rate = cfg.Audio.SampleRate
	}

	data, err := audio.EncodeWAV(samples, rate)
	if err != nil {
		return err
	}
	return os.WriteFile(outPath, data, 0o644)
}

// sectionForFraction maps a document fraction to a section index the same
// way view navigation does.
func sectionForFraction(f float64, n int) int {
	if n <= 1 {
		return 0
	}
	if f < 0 {
		f = 0
	}
	if f > 1 {
		f = 1
	}
	return int(math.Round(f * float64(n-1)))
}
