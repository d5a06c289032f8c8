package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/e7canasta/motion-recorder/modules/slotstore"
	"github.com/e7canasta/motion-recorder/modules/trace"
)

// Validate checks if the configuration is valid
func Validate(cfg *Config) error {
	if err := cfg.Timing().Validate(); err != nil {
		return fmt.Errorf("sampling: %w", err)
	}

	if err := cfg.Layout().Validate(); err != nil {
		return fmt.Errorf("slots: %w", err)
	}
	def, err := cfg.DefaultSlot()
	if err != nil {
		return fmt.Errorf("slots.default: %w", err)
	}
	if err := cfg.Layout().Check(def); err != nil {
		return fmt.Errorf("slots.default: %w", err)
	}

	switch cfg.Storage.Backend {
	case "dir", "sqlite":
		if cfg.Storage.Path == "" {
			return fmt.Errorf("storage.path is required for the %s backend", cfg.Storage.Backend)
		}
	case "memory":
	default:
		return fmt.Errorf("storage.backend must be dir, sqlite or memory (got %q)", cfg.Storage.Backend)
	}

	if cfg.Capture.Countdown < 0 {
		return fmt.Errorf("capture.countdown must be >= 0")
	}
	switch cfg.Capture.Sampler {
	case "sim", "zero":
	default:
		return fmt.Errorf("capture.sampler must be sim or zero (got %q)", cfg.Capture.Sampler)
	}

	if cfg.Playback.Orientation != 1 && cfg.Playback.Orientation != -1 {
		return fmt.Errorf("playback.orientation must be 1 or -1 (got %d)", cfg.Playback.Orientation)
	}
	switch cfg.Playback.Sink {
	case "log":
	case "jsonl":
		if cfg.Playback.JSONLPath == "" {
			cfg.Playback.JSONLPath = "-" // default: stdout
		}
	default:
		return fmt.Errorf("playback.sink must be log or jsonl (got %q)", cfg.Playback.Sink)
	}

	if _, err := cfg.Log.SlogLevel(); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	return nil
}

// Timing returns the trace timing.
func (c *Config) Timing() trace.Timing {
	return trace.Timing{RateHz: c.Sampling.RateHz, Duration: c.Sampling.Duration}
}

// Layout returns the slot layout.
func (c *Config) Layout() slotstore.Layout {
	return slotstore.Layout{MaxSlots: c.Slots.Max, Segments: c.Skills.Segments}
}

// DefaultSlot parses slots.default.
func (c *Config) DefaultSlot() (slotstore.Slot, error) {
	return slotstore.ParseSlot(c.Slots.Default)
}

// SlogLevel parses the configured level.
func (l LogConfig) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(l.Level))); err != nil {
		return 0, err
	}
	return level, nil
}
