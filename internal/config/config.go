// Package config loads reader settings from defaults, an optional config
// file, environment variables (READALOUD_ prefix), and command-line flags,
// in rising precedence.
package config

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

type Config struct {
	Paths    PathsConfig  `mapstructure:"paths"`
	Speech   SpeechConfig `mapstructure:"speech"`
	Audio    AudioConfig  `mapstructure:"audio"`
	Server   ServerConfig `mapstructure:"server"`
	LogLevel string       `mapstructure:"log_level"`
}

// PathsConfig locates external assets.
type PathsConfig struct {
	LibraryDir     string `mapstructure:"library_dir"`
	VoicesFile     string `mapstructure:"voices_file"`
	AnnotationsDir string `mapstructure:"annotations_dir"`
}

// SpeechConfig selects the voice and pacing. EngineCLI names an optional
// piper-style executable; empty runs the silent clock-only path.
type SpeechConfig struct {
	Voice     string  `mapstructure:"voice"`
	Language  string  `mapstructure:"language"`
	RateWPM   int     `mapstructure:"rate_wpm"`
	Volume    float64 `mapstructure:"volume"`
	EngineCLI string  `mapstructure:"engine_cli"`
	ModelDir  string  `mapstructure:"model_dir"`
}

// AudioConfig controls the playback device. With Enabled false the reader
// runs silent: word timing and highlighting still happen on the clock.
type AudioConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Device     string `mapstructure:"device"`
	SampleRate int    `mapstructure:"sample_rate"`
}

type ServerConfig struct {
	ListenAddr      string `mapstructure:"listen_addr"`
	MaxBodyBytes    int    `mapstructure:"max_body_bytes"`
	RequestTimeout  int    `mapstructure:"request_timeout"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"`
}

type LoadOptions struct {
	Cmd        flagBinder
	ConfigFile string
	Defaults   Config
}

type flagBinder interface {
	Flags() *pflag.FlagSet
}

func DefaultConfig() Config {
	return Config{
		Paths: PathsConfig{
			LibraryDir:     "library",
			VoicesFile:     "",
			AnnotationsDir: "",
		},
		Speech: SpeechConfig{
			Voice:     "",
			Language:  "",
			RateWPM:   0,
			Volume:    1.0,
			EngineCLI: "",
			ModelDir:  "",
		},
		Audio: AudioConfig{
			Enabled:    true,
			Device:     "",
			SampleRate: 22050,
		},
		Server: ServerConfig{
			ListenAddr:      ":8035",
			MaxBodyBytes:    4096,
			RequestTimeout:  15,
			ShutdownTimeout: 10,
		},
		LogLevel: "info",
	}
}

func RegisterFlags(fs *pflag.FlagSet, defaults Config) {
	fs.String("paths-library-dir", defaults.Paths.LibraryDir, "Directory of readable documents")
	fs.String("paths-voices-file", defaults.Paths.VoicesFile, "Voice policy/catalog YAML file")
	fs.String("paths-annotations-dir", defaults.Paths.AnnotationsDir, "Directory of annotation exports")
	fs.String("speech-voice", defaults.Speech.Voice, "Voice ID to speak with")
	fs.String("speech-language", defaults.Speech.Language, "Language tag overriding the document's")
	fs.Int("speech-rate-wpm", defaults.Speech.RateWPM, "Speaking rate in words per minute (0 = default)")
	fs.Float64("speech-volume", defaults.Speech.Volume, "Playback volume 0..1")
	fs.String("speech-engine-cli", defaults.Speech.EngineCLI, "Synthesis CLI executable (empty = silent clock)")
	fs.String("speech-model-dir", defaults.Speech.ModelDir, "Directory of synthesis model files")
	fs.Bool("audio-enabled", defaults.Audio.Enabled, "Play synthesized audio (false reads silently)")
	fs.String("audio-device", defaults.Audio.Device, "Playback device name substring")
	fs.Int("audio-sample-rate", defaults.Audio.SampleRate, "Playback sample rate in Hz")
	fs.String("server-listen-addr", defaults.Server.ListenAddr, "HTTP listen address")
	fs.Int("server-max-body-bytes", defaults.Server.MaxBodyBytes, "Max request body size in bytes")
	fs.Int("server-request-timeout", defaults.Server.RequestTimeout, "Per-request timeout in seconds")
	fs.Int("server-shutdown-timeout", defaults.Server.ShutdownTimeout, "Graceful shutdown timeout in seconds")
	fs.String("log-level", defaults.LogLevel, "Log level (debug|info|warn|error)")
}

func Load(opts LoadOptions) (Config, error) {
	v := viper.New()

	setDefaults(v, opts.Defaults)
	if opts.Cmd != nil {
		if err := v.BindPFlags(opts.Cmd.Flags()); err != nil {
			return Config{}, fmt.Errorf("bind flags: %w", err)
		}
	}
	registerAliases(v)

	v.SetEnvPrefix("READALOUD")
	replacer := strings.NewReplacer("-", "_", ".", "_", "__", "_")
	v.SetEnvKeyReplacer(replacer)
	v.AutomaticEnv()

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	} else {
		v.SetConfigName("readaloud")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
				return Config{}, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}

	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validate(c Config) error {
	if c.Speech.RateWPM < 0 {
		return fmt.Errorf("speech.rate_wpm must be >= 0, got %d", c.Speech.RateWPM)
	}
	if c.Speech.Volume < 0 || c.Speech.Volume > 1 {
		return fmt.Errorf("speech.volume must be in 0..1, got %g", c.Speech.Volume)
	}
	if c.Audio.SampleRate <= 0 {
		return fmt.Errorf("audio.sample_rate must be positive, got %d", c.Audio.SampleRate)
	}
	if c.Server.MaxBodyBytes <= 0 {
		return fmt.Errorf("server.max_body_bytes must be positive, got %d", c.Server.MaxBodyBytes)
	}
	return nil
}

func setDefaults(v *viper.Viper, c Config) {
	v.SetDefault("paths.library_dir", c.Paths.LibraryDir)
	v.SetDefault("paths.voices_file", c.Paths.VoicesFile)
	v.SetDefault("paths.annotations_dir", c.Paths.AnnotationsDir)
	v.SetDefault("speech.voice", c.Speech.Voice)
	v.SetDefault("speech.language", c.Speech.Language)
	v.SetDefault("speech.rate_wpm", c.Speech.RateWPM)
	v.SetDefault("speech.volume", c.Speech.Volume)
	v.SetDefault("speech.engine_cli", c.Speech.EngineCLI)
	v.SetDefault("speech.model_dir", c.Speech.ModelDir)
	v.SetDefault("audio.enabled", c.Audio.Enabled)
	v.SetDefault("audio.device", c.Audio.Device)
	v.SetDefault("audio.sample_rate", c.Audio.SampleRate)
	v.SetDefault("server.listen_addr", c.Server.ListenAddr)
	v.SetDefault("server.max_body_bytes", c.Server.MaxBodyBytes)
	v.SetDefault("server.request_timeout", c.Server.RequestTimeout)
	v.SetDefault("server.shutdown_timeout", c.Server.ShutdownTimeout)
	v.SetDefault("log_level", c.LogLevel)
}

func registerAliases(v *viper.Viper) {
	v.RegisterAlias("paths.library_dir", "paths-library-dir")
	v.RegisterAlias("paths.voices_file", "paths-voices-file")
	v.RegisterAlias("paths.annotations_dir", "paths-annotations-dir")
	v.RegisterAlias("speech.voice", "speech-voice")
	v.RegisterAlias("speech.language", "speech-language")
	v.RegisterAlias("speech.rate_wpm", "speech-rate-wpm")
	v.RegisterAlias("speech.volume", "speech-volume")
	v.RegisterAlias("speech.engine_cli", "speech-engine-cli")
	v.RegisterAlias("speech.model_dir", "speech-model-dir")
	v.RegisterAlias("audio.enabled", "audio-enabled")
	v.RegisterAlias("audio.device", "audio-device")
	v.RegisterAlias("audio.sample_rate", "audio-sample-rate")
	v.RegisterAlias("server.listen_addr", "server-listen-addr")
	v.RegisterAlias("server.max_body_bytes", "server-max-body-bytes")
	v.RegisterAlias("server.request_timeout", "server-request-timeout")
	v.RegisterAlias("server.shutdown_timeout", "server-shutdown-timeout")
	v.RegisterAlias("log_level", "log-level")
}
