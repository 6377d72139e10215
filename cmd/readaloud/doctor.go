package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/example/readaloud/internal/audio"
	"github.com/example/readaloud/internal/doctor"
	"github.com/example/readaloud/internal/synth"
	"github.com/example/readaloud/internal/voice"
	"github.com/spf13/cobra"
)

func newDoctorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Check the reader's environment",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := requireConfig()
			if err != nil {
				return err
			}

			dcfg := doctor.Config{
				SynthVersion: func() (string, error) {
					return probeSynthVersion(cfg.Speech.EngineCLI, cfg.Speech.ModelDir)
				},
				SkipSynth:   cfg.Speech.EngineCLI == "",
				LibraryDir:  cfg.Paths.LibraryDir,
				VoicesFile:  cfg.Paths.VoicesFile,
				LoadVoices:  countCatalogVoices,
				ListDevices: listPlaybackDeviceNames,
				SkipAudio:   !cfg.Audio.Enabled,
			}

			result := doctor.Run(dcfg, os.Stdout)
			if result.Failed() {
				for _, f := range result.Failures() {
					fmt.Fprintf(os.Stderr, "FAIL: %s\n", f)
				}

				return errors.New("doctor checks failed")
			}

			_, _ = fmt.Fprintln(os.Stdout, "doctor checks passed")

			return nil
		},
	}

	return cmd
}

// probeSynthVersion runs the synthesis CLI with --version.
func probeSynthVersion(exe, modelDir string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	engine := &synth.CLIEngine{Path: exe, ModelDir: modelDir}
	return engine.Version(ctx)
}

// countCatalogVoices parses both halves of a voices file and reports how
// many catalog entries it carries.
func countCatalogVoices(path string) (int, error) {
	if _, err := voice.LoadPolicy(path); err != nil {
		return 0, err
	}
	catalog, err := synth.LoadCatalog(path)
	if err != nil {
		return 0, err
	}
	return len(catalog), nil
}

// listPlaybackDeviceNames enumerates output devices by name.
func listPlaybackDeviceNames() ([]string, error) {
	infos, err := audio.ListPlaybackDevices()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(infos))
	for _, d := range infos {
		names = append(names, d.Name)
	}
	return names, nil
}
