package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/e7canasta/motion-recorder/internal/config"
	"github.com/e7canasta/motion-recorder/internal/drivers"
	"github.com/e7canasta/motion-recorder/internal/logging"
	"github.com/e7canasta/motion-recorder/internal/sessionfile"
	"github.com/e7canasta/motion-recorder/modules/recorder"
	"github.com/e7canasta/motion-recorder/modules/slotstore"
	"github.com/e7canasta/motion-recorder/modules/tickbus"
)

// app is what every subcommand runs against: configuration, logger and
// the opened trace store.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	backend  slotstore.Backend
	store    *slotstore.Store
	closeLog func() error

	in     io.Reader
	out    io.Writer
	errOut io.Writer
	g      *globalFlags
}

func openApp(cmd *cobra.Command, g *globalFlags) (*app, error) {
	cfg, err := config.Load(g.configPath)
	if err != nil {
		return nil, err
	}
	if err := applyFlags(cmd.Flags(), cfg); err != nil {
		return nil, err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	level, _ := cfg.Log.SlogLevel()
	logger, closeLog, err := logging.New(logging.Options{
		Level:   level,
		Console: cmd.ErrOrStderr(),
		File:    cfg.Log.File,
	})
	if err != nil {
		return nil, err
	}

	backend, err := openBackend(cfg.Storage)
	if err != nil {
		closeLog()
		return nil, err
	}
	store, err := slotstore.New(slotstore.Config{
		Backend: backend,
		Timing:  cfg.Timing(),
		Layout:  cfg.Layout(),
		Logger:  logger,
	})
	if err != nil {
		backend.Close()
		closeLog()
		return nil, err
	}

	logger.Debug("autonrec: store opened",
		"backend", cfg.Storage.Backend,
		"path", cfg.Storage.Path,
		"rate_hz", cfg.Sampling.RateHz,
		"duration", cfg.Sampling.Duration)

	return &app{
		cfg:      cfg,
		logger:   logger,
		backend:  backend,
		store:    store,
		closeLog: closeLog,
		in:       cmd.InOrStdin(),
		out:      cmd.OutOrStdout(),
		errOut:   cmd.ErrOrStderr(),
		g:        g,
	}, nil
}

// applyFlags overrides configuration with the flags set on the command
// line.
func applyFlags(fs *pflag.FlagSet, cfg *config.Config) error {
	overrides := []struct {
		flag   string
		target *string
	}{
		{"backend", &cfg.Storage.Backend},
		{"path", &cfg.Storage.Path},
		{"log-level", &cfg.Log.Level},
		{"session-file", &cfg.SessionFile},
	}
	for _, o := range overrides {
		if fs.Lookup(o.flag) == nil || !fs.Changed(o.flag) {
			continue
		}
		v, err := fs.GetString(o.flag)
		if err != nil {
			return err
		}
		*o.target = v
	}
	return nil
}

func openBackend(cfg config.StorageConfig) (slotstore.Backend, error) {
	switch cfg.Backend {
	case "dir":
		return slotstore.NewDirBackend(cfg.Path)
	case "sqlite":
		return slotstore.OpenSQLiteBackend(cfg.Path)
	case "memory":
		return slotstore.NewMemoryBackend(), nil
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

func (a *app) Close() error {
	return errors.Join(a.backend.Close(), a.closeLog())
}

// sink builds the configured actuator sink. The returned function
// closes whatever the sink writes to and reports its errors.
func (a *app) sink() (recorder.Sink, func() error, error) {
	switch a.cfg.Playback.Sink {
	case "jsonl":
		if a.cfg.Playback.JSONLPath == "-" {
			s := drivers.NewJSONLSink(a.out)
			return s, s.Err, nil
		}
		f, err := os.Create(a.cfg.Playback.JSONLPath)
		if err != nil {
			return nil, nil, fmt.Errorf("jsonl sink: %w", err)
		}
		s := drivers.NewJSONLSink(f)
		return s, func() error { return errors.Join(s.Err(), f.Close()) }, nil
	default:
		return drivers.NewLogSink(a.logger), func() error { return nil }, nil
	}
}

func (a *app) sampler() recorder.Sampler {
	if a.cfg.Capture.Sampler == "zero" {
		return drivers.ZeroSampler{}
	}
	return drivers.NewSimSampler()
}

// chooser maps a --slot value to a SlotChooser: "ask" prompts on the
// terminal, anything else is parsed as a fixed slot.
func (a *app) chooser(value string) (recorder.SlotChooser, error) {
	if value == "ask" {
		return drivers.NewPromptChooser(a.store, a.in, a.errOut), nil
	}
	slot, err := a.parseSlot(value)
	if err != nil {
		return nil, err
	}
	return recorder.FixedSlot(slot), nil
}

func (a *app) parseSlot(value string) (slotstore.Slot, error) {
	slot, err := slotstore.ParseSlot(value)
	if err != nil {
		return slotstore.Slot{}, err
	}
	if err := a.store.Layout().Check(slot); err != nil {
		return slotstore.Slot{}, err
	}
	return slot, nil
}

// session wires a recorder to the session file.
type session struct {
	rec  *recorder.Recorder
	path string
}

func (a *app) newSession(cfg recorder.Config) (*session, error) {
	def, err := a.cfg.DefaultSlot()
	if err != nil {
		return nil, err
	}
	cfg.Store = a.store
	cfg.DefaultSlot = &def
	cfg.Logger = a.logger
	if cfg.Fallback == nil {
		cfg.Fallback = drivers.DefaultScript(a.cfg.Timing().Period())
	}
	rec, err := recorder.New(cfg)
	if err != nil {
		return nil, err
	}

	rf, err := sessionfile.Load(a.cfg.SessionFile)
	if err != nil {
		return nil, err
	}
	snap, err := rf.Snapshot()
	if err != nil {
		return nil, err
	}
	if err := rec.Restore(snap); err != nil {
		a.logger.Warn("autonrec: discarding stale session", "path", a.cfg.SessionFile, "error", err)
	}
	return &session{rec: rec, path: a.cfg.SessionFile}, nil
}

func (s *session) persist() error {
	return sessionfile.Save(s.path, sessionfile.FromSnapshot(s.rec.Snapshot(), time.Now()))
}

// telemetry starts the progress bar on the bus if enabled. The returned
// function closes the bus and waits for the bar to finish.
func (a *app) telemetry(perTrace int) (tickbus.Bus, func()) {
	bus := tickbus.New()
	if !a.g.progress {
		return bus, bus.Close
	}
	r, err := bus.SubscribeLatest("progress")
	if err != nil {
		return bus, bus.Close
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		drivers.NewProgress(a.errOut, perTrace, 100*time.Millisecond).Run(r)
	}()
	return bus, func() {
		bus.Close()
		wg.Wait()
	}
}

// interrupt returns a cancel signal raised by Ctrl+C. Operations keep
// running under the command's own context so that a Ctrl+C ends the
// loop cleanly instead of aborting storage I/O.
func interrupt(parent context.Context) (recorder.CancelSignal, context.CancelFunc) {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	return recorder.CancelOnDone(ctx), stop
}
