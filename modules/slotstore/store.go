package slotstore

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"time"

	"github.com/e7canasta/motion-recorder/modules/trace"
)

// Config configures a Store.
type Config struct {
	// Backend is the named byte-stream store (required).
	Backend Backend
	// Timing fixes the trace length every stream is read and written at.
	Timing trace.Timing
	// Layout bounds the slot space. Zero value means DefaultLayout.
	Layout Layout
	// Logger receives debug output. Nil means slog.Default().
	Logger *slog.Logger
}

// Store maps slots to stream names and moves whole traces between a
// Backend and trace buffers.
//
// A Store holds no per-stream state; the one live stream handle during
// composite playback belongs to the Prefetcher returned by StreamNext.
// Callers must not run Write, Read and a Prefetcher against the same
// buffer from more than one loop.
type Store struct {
	backend Backend
	timing  trace.Timing
	layout  Layout
	logger  *slog.Logger
	now     func() time.Time
}

// New validates cfg and returns a Store.
func New(cfg Config) (*Store, error) {
	if cfg.Backend == nil {
		return nil, fmt.Errorf("slotstore: backend is required")
	}
	if err := cfg.Timing.Validate(); err != nil {
		return nil, fmt.Errorf("slotstore: %w", err)
	}
	if cfg.Layout == (Layout{}) {
		cfg.Layout = DefaultLayout
	}
	if err := cfg.Layout.Validate(); err != nil {
		return nil, err
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Store{
		backend: cfg.Backend,
		timing:  cfg.Timing,
		layout:  cfg.Layout,
		logger:  cfg.Logger,
		now:     time.Now,
	}, nil
}

// Timing returns the store's trace timing.
func (s *Store) Timing() trace.Timing { return s.timing }

// Layout returns the store's slot layout.
func (s *Store) Layout() Layout { return s.layout }

// NameFor maps a slot to its stream name: regular slot n is "a<n>",
// segment k is "p<k>" and the whole composite run resolves to its first
// segment. None and Hardcoded have no stream.
func (s *Store) NameFor(slot Slot) (string, error) {
	if err := s.layout.Check(slot); err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoBackingStream, err)
	}
	var name string
	switch slot.Kind {
	case KindRegular:
		name = fmt.Sprintf("a%d", slot.N)
	case KindSkillsSegment:
		name = fmt.Sprintf("p%d", slot.N)
	case KindSkills:
		name = "p0"
	default:
		return "", fmt.Errorf("%w: %s", ErrNoBackingStream, slot)
	}
	if len(name) > MaxNameLen {
		return "", fmt.Errorf("%w: name %q exceeds %d bytes", ErrNoBackingStream, name, MaxNameLen)
	}
	return name, nil
}

// Write stores buf in slot, truncating prior contents. On a failure part
// way through, a writer implementing Aborter is aborted (the SQLite
// backend keeps the previous stream); otherwise the truncated stream is
// left behind, not rolled back.
func (s *Store) Write(ctx context.Context, slot Slot, buf *trace.Buffer) error {
	name, err := s.NameFor(slot)
	if err != nil {
		return err
	}
	if buf.Len() != s.timing.Len() {
		return fmt.Errorf("slotstore: buffer has %d frames, store expects %d", buf.Len(), s.timing.Len())
	}

	start := time.Now()
	w, err := s.backend.Create(ctx, name)
	if err != nil {
		return &IOError{Op: "create", Name: name, Err: err}
	}

	bw := bufio.NewWriterSize(w, 4096)
	enc := trace.NewEncoder(bw)
	for i := 0; i < buf.Len(); i++ {
		if err := enc.Encode(buf.At(i)); err != nil {
			discard(w)
			return &IOError{Op: "write", Name: name, Err: err}
		}
	}
	if err := bw.Flush(); err != nil {
		discard(w)
		return &IOError{Op: "write", Name: name, Err: err}
	}
	if err := w.Close(); err != nil {
		return &IOError{Op: "close", Name: name, Err: err}
	}

	s.logger.Debug("slotstore: trace written",
		"slot", slot.String(),
		"stream", name,
		"frames", enc.Count(),
		"bytes", enc.Count()*trace.FrameSize,
		"elapsed", time.Since(start),
	)
	return nil
}

// discard releases a writer whose stream is incomplete. The caller
// already holds the error that matters.
func discard(w io.WriteCloser) {
	if a, ok := w.(Aborter); ok {
		_ = a.Abort()
		return
	}
	_ = w.Close()
}

// Read loads slot into a freshly allocated buffer.
//
// Returns ErrNotFound if the slot has no stream, and a *ShortReadError
// (matching ErrMalformedFrame) if the stream holds fewer frames than the
// trace length. In both cases no buffer is returned, so whatever the
// caller already holds stays untouched. Bytes past the trace length are
// ignored.
func (s *Store) Read(ctx context.Context, slot Slot) (*trace.Buffer, error) {
	name, err := s.NameFor(slot)
	if err != nil {
		return nil, err
	}
	rc, err := s.open(ctx, slot, name)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	buf := trace.NewBuffer(s.timing)
	dec := trace.NewDecoder(bufio.NewReaderSize(rc, 4096))
	for i := 0; i < buf.Len(); i++ {
		if i%s.timing.RateHz == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		f, err := dec.Decode()
		switch {
		case err == nil:
			buf.Set(i, f)
		case errors.Is(err, io.EOF), errors.Is(err, trace.ErrMalformedFrame):
			return nil, &ShortReadError{Name: name, Decoded: dec.Count(), Want: buf.Len()}
		default:
			return nil, &IOError{Op: "read", Name: name, Err: err}
		}
	}

	s.logger.Debug("slotstore: trace read",
		"slot", slot.String(),
		"stream", name,
		"frames", buf.Len(),
	)
	return buf, nil
}

func (s *Store) open(ctx context.Context, slot Slot, name string) (io.ReadCloser, error) {
	rc, err := s.backend.Open(ctx, name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s (%s)", ErrNotFound, slot, name)
	}
	if err != nil {
		return nil, &IOError{Op: "open", Name: name, Err: err}
	}
	return rc, nil
}

// Exists reports whether slot has a stream.
func (s *Store) Exists(ctx context.Context, slot Slot) (bool, error) {
	name, err := s.NameFor(slot)
	if err != nil {
		return false, err
	}
	_, err = s.backend.Stat(ctx, name)
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, &IOError{Op: "stat", Name: name, Err: err}
	}
	return true, nil
}

// Remove deletes the stream behind slot.
func (s *Store) Remove(ctx context.Context, slot Slot) error {
	name, err := s.NameFor(slot)
	if err != nil {
		return err
	}
	err = s.backend.Remove(ctx, name)
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s (%s)", ErrNotFound, slot, name)
	}
	if err != nil {
		return &IOError{Op: "remove", Name: name, Err: err}
	}
	return nil
}

// Entry describes one slot for listings.
type Entry struct {
	Slot Slot
	Name string
	// Size is the stream size in bytes, zero when Empty.
	Size int64
	// Empty is true when the slot has no stream.
	Empty bool
	// Complete is true when the stream holds at least one full trace.
	Complete bool
}

// List describes every slot of the layout, regular slots first.
func (s *Store) List(ctx context.Context) ([]Entry, error) {
	slots := s.layout.Slots()
	out := make([]Entry, 0, len(slots))
	for _, slot := range slots {
		name, err := s.NameFor(slot)
		if err != nil {
			return nil, err
		}
		e := Entry{Slot: slot, Name: name}
		size, err := s.backend.Stat(ctx, name)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			e.Empty = true
		case err != nil:
			return nil, &IOError{Op: "stat", Name: name, Err: err}
		default:
			e.Size = size
			e.Complete = size >= s.timing.StreamSize()
		}
		out = append(out, e)
	}
	return out, nil
}
