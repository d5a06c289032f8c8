package recorder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/e7canasta/motion-recorder/modules/recorder/internal/schedule"
	"github.com/e7canasta/motion-recorder/modules/recorder/internal/timing"
	"github.com/e7canasta/motion-recorder/modules/slotstore"
	"github.com/e7canasta/motion-recorder/modules/tickbus"
	"github.com/e7canasta/motion-recorder/modules/trace"
)

var (
	// ErrBusy is returned when an operation starts while another one
	// (capture, load, play or save) is still running.
	ErrBusy = errors.New("recorder: another operation is in progress")

	// ErrBadOrientation is returned by Play for orientations other than ±1.
	ErrBadOrientation = errors.New("recorder: orientation must be +1 or -1")

	// ErrNothingToSave is returned by Save when the buffer holds neither a
	// capture nor a loaded slot.
	ErrNothingToSave = errors.New("recorder: nothing to save")

	// ErrNoSampler is returned by Capture when no Sampler is configured.
	ErrNoSampler = errors.New("recorder: no sampler configured")

	// ErrNoChooser is returned by Save when a slot must be chosen and no
	// SlotChooser is configured.
	ErrNoChooser = errors.New("recorder: no slot chooser configured")
)

// Clock is the time source the loops run on.
type Clock = schedule.Clock

// RealClock returns the system clock.
func RealClock() Clock { return schedule.Real() }

// TimingReport describes how closely a loop held its tick period.
type TimingReport = timing.Report

// Config configures a Recorder.
type Config struct {
	// Store persists traces (required). Its timing sizes the buffer.
	Store *slotstore.Store
	// Sink receives every emitted frame (required).
	Sink Sink
	// Sampler reads live controls. Required for Capture only.
	Sampler Sampler
	// Cancel is polled once per tick. Nil means never.
	Cancel CancelSignal
	// Chooser picks slots for Save and for Play with nothing loaded.
	Chooser SlotChooser
	// DefaultSlot is played when nothing is loaded and there is no
	// Chooser. Nil means Regular(1); None makes such a Play a no-op.
	DefaultSlot *slotstore.Slot
	// Fallback runs when the Hardcoded slot is played.
	Fallback Routine
	// Countdown is waited before capture starts, announced once per
	// second. Zero skips it.
	Countdown time.Duration
	// Bus, if set, receives a Tick for every emitted frame.
	Bus tickbus.Bus
	// Clock defaults to RealClock().
	Clock Clock
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Recorder owns the live trace buffer and runs capture, playback and
// persistence against it. Operations are mutually exclusive; one that
// starts while another is running fails with ErrBusy. Status may be
// called at any time.
type Recorder struct {
	store    *slotstore.Store
	sink     Sink
	sampler  Sampler
	cancel   CancelSignal
	chooser  SlotChooser
	fallback Routine
	defSlot  slotstore.Slot

	countdown time.Duration
	bus       tickbus.Bus
	clock     Clock
	logger    *slog.Logger

	op  sync.Mutex // held for the whole of one operation
	buf *trace.Buffer

	mu   sync.Mutex // guards sess
	sess session
}

// New validates cfg and returns an idle Recorder with an empty buffer.
func New(cfg Config) (*Recorder, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("recorder: store is required")
	}
	if cfg.Sink == nil {
		return nil, fmt.Errorf("recorder: sink is required")
	}
	if cfg.Cancel == nil {
		cfg.Cancel = neverCancel{}
	}
	defSlot := slotstore.Regular(1)
	if cfg.DefaultSlot != nil {
		defSlot = *cfg.DefaultSlot
	}
	if err := cfg.Store.Layout().Check(defSlot); err != nil {
		return nil, fmt.Errorf("recorder: default slot: %w", err)
	}
	if cfg.Countdown < 0 {
		return nil, fmt.Errorf("recorder: countdown must be >= 0 (got %v)", cfg.Countdown)
	}
	if cfg.Clock == nil {
		cfg.Clock = schedule.Real()
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &Recorder{
		store:     cfg.Store,
		sink:      cfg.Sink,
		sampler:   cfg.Sampler,
		cancel:    cfg.Cancel,
		chooser:   cfg.Chooser,
		fallback:  cfg.Fallback,
		defSlot:   defSlot,
		countdown: cfg.Countdown,
		bus:       cfg.Bus,
		clock:     cfg.Clock,
		logger:    cfg.Logger,
		buf:       trace.NewBuffer(cfg.Store.Timing()),
	}, nil
}

// Status returns a snapshot of the session.
func (r *Recorder) Status() Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sess.status()
}

// Snapshot returns the persistent part of the session.
func (r *Recorder) Snapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	return Snapshot{
		SkillsRecording: r.sess.skillsRecording,
		SkillsCursor:    r.sess.cursor,
		LastSaved:       r.sess.lastSaved,
	}
}

// Restore reinstates a composite run in progress from a previous
// process. The buffer stays as it is.
func (r *Recorder) Restore(s Snapshot) error {
	if s.SkillsCursor < 0 || s.SkillsCursor >= r.store.Layout().Segments {
		return fmt.Errorf("recorder: snapshot cursor %d out of range [0,%d)", s.SkillsCursor, r.store.Layout().Segments)
	}
	if !s.SkillsRecording && s.SkillsCursor != 0 {
		return fmt.Errorf("recorder: snapshot cursor %d without a run in progress", s.SkillsCursor)
	}
	if !r.op.TryLock() {
		return ErrBusy
	}
	defer r.op.Unlock()

	r.mu.Lock()
	r.sess.skillsRecording = s.SkillsRecording
	r.sess.cursor = s.SkillsCursor
	r.sess.lastSaved = s.LastSaved
	r.mu.Unlock()
	return nil
}

// Buffer returns a copy of the live buffer.
func (r *Recorder) Buffer() (*trace.Buffer, error) {
	if !r.op.TryLock() {
		return nil, ErrBusy
	}
	defer r.op.Unlock()
	return r.buf.Clone(), nil
}

// BeginSkillsRun starts a composite run: the next Save writes segment 0.
// A run already in progress restarts from segment 0.
func (r *Recorder) BeginSkillsRun() error {
	if !r.op.TryLock() {
		return ErrBusy
	}
	defer r.op.Unlock()

	r.mu.Lock()
	r.sess.skillsRecording = true
	r.sess.cursor = 0
	r.mu.Unlock()
	r.logger.Info("recorder: programming skills run started", "segments", r.store.Layout().Segments)
	return nil
}

// AbortSkillsRun abandons a composite run. Segments already saved stay
// in storage.
func (r *Recorder) AbortSkillsRun() error {
	if !r.op.TryLock() {
		return ErrBusy
	}
	defer r.op.Unlock()

	r.mu.Lock()
	cursor := r.sess.cursor
	r.sess.skillsRecording = false
	r.sess.cursor = 0
	r.mu.Unlock()
	r.logger.Info("recorder: programming skills run aborted", "saved_segments", cursor)
	return nil
}

func (r *Recorder) setPhase(p Phase, segment int, run string) {
	r.mu.Lock()
	r.sess.phase = p
	r.sess.segment = segment
	r.sess.run = run
	r.mu.Unlock()
}

func (r *Recorder) update(fn func(s *session)) {
	r.mu.Lock()
	fn(&r.sess)
	r.mu.Unlock()
}

func (r *Recorder) cancelRequested(ctx context.Context) bool {
	return ctx.Err() != nil || r.cancel.CancelRequested()
}

func (r *Recorder) publish(run string, phase tickbus.Phase, segment, index int, f trace.Frame, at time.Time) {
	if r.bus == nil {
		return
	}
	r.bus.Publish(tickbus.Tick{
		Run:     run,
		Phase:   phase,
		Segment: segment,
		Index:   index,
		Frame:   f,
		At:      at,
	})
}

func newRunID() string { return uuid.NewString() }
