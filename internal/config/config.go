// Package config loads the autonrec configuration: a YAML file, then
// AUTONREC_* environment overrides, then validation.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "AUTONREC_"

// Config represents the complete recorder configuration
type Config struct {
	Sampling    SamplingConfig `yaml:"sampling" envPrefix:"SAMPLING_"`
	Slots       SlotsConfig    `yaml:"slots" envPrefix:"SLOTS_"`
	Skills      SkillsConfig   `yaml:"skills" envPrefix:"SKILLS_"`
	Storage     StorageConfig  `yaml:"storage" envPrefix:"STORAGE_"`
	Capture     CaptureConfig  `yaml:"capture" envPrefix:"CAPTURE_"`
	Playback    PlaybackConfig `yaml:"playback" envPrefix:"PLAYBACK_"`
	Log         LogConfig      `yaml:"log" envPrefix:"LOG_"`
	SessionFile string         `yaml:"session_file" env:"SESSION_FILE"` // composite run state between invocations
}

// SamplingConfig fixes the trace timing
type SamplingConfig struct {
	RateHz   int           `yaml:"rate_hz" env:"RATE_HZ"`   // ticks per second (default: 50)
	Duration time.Duration `yaml:"duration" env:"DURATION"` // trace length (default: 15s)
}

// SlotsConfig bounds the regular slots
type SlotsConfig struct {
	Max     int    `yaml:"max" env:"MAX"`         // highest regular slot (default: 10)
	Default string `yaml:"default" env:"DEFAULT"` // played when nothing is loaded (default: "1")
}

// SkillsConfig describes the composite run
type SkillsConfig struct {
	Segments int `yaml:"segments" env:"SEGMENTS"` // default: 4
}

// StorageConfig selects the stream backend
type StorageConfig struct {
	Backend string `yaml:"backend" env:"BACKEND"` // dir, sqlite, memory
	Path    string `yaml:"path" env:"PATH"`       // directory or database file
}

// CaptureConfig contains capture settings
type CaptureConfig struct {
	Countdown time.Duration `yaml:"countdown" env:"COUNTDOWN"` // announced before sampling starts
	Sampler   string        `yaml:"sampler" env:"SAMPLER"`     // sim, zero
}

// PlaybackConfig contains playback settings
type PlaybackConfig struct {
	Orientation int    `yaml:"orientation" env:"ORIENTATION"` // +1 or -1 (mirror turn)
	Sink        string `yaml:"sink" env:"SINK"`               // log, jsonl
	JSONLPath   string `yaml:"jsonl_path" env:"JSONL_PATH"`   // jsonl sink output, "-" for stdout
}

// LogConfig contains logging settings
type LogConfig struct {
	Level string `yaml:"level" env:"LEVEL"` // debug, info, warn, error
	File  string `yaml:"file" env:"FILE"`   // optional JSON log file
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Sampling:    SamplingConfig{RateHz: 50, Duration: 15 * time.Second},
		Slots:       SlotsConfig{Max: 10, Default: "1"},
		Skills:      SkillsConfig{Segments: 4},
		Storage:     StorageConfig{Backend: "dir", Path: "traces"},
		Capture:     CaptureConfig{Countdown: 3 * time.Second, Sampler: "sim"},
		Playback:    PlaybackConfig{Orientation: 1, Sink: "log"},
		Log:         LogConfig{Level: "info"},
		SessionFile: "autonrec.session",
	}
}

// Load reads path over the defaults, applies environment overrides and
// validates the result. An empty path skips the file; a missing file is
// an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("config file not found: %s", path)
			}
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}
