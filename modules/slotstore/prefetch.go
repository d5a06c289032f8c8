package slotstore

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/e7canasta/motion-recorder/modules/trace"
)

// Prefetcher streams the next composite segment into a playback buffer
// one frame per call.
//
// The playback engine calls NextInto(buf, i) once per tick, right after
// it has emitted buf[i]. The write therefore only ever touches a
// position that has already been played this segment, and by the time
// the last tick of the current segment completes the buffer holds the
// whole next segment.
//
//	play cursor ─┐
//	             ▼
//	buf: [ next | next | next | cur  | cur  | cur ]
//	                       ▲
//	       fill cursor ────┘ (never ahead of the play cursor)
//
// Decoding one 5-byte frame is far below the tick budget, so the
// per-tick read never stalls output. If storage latency does exceed the
// tick period, ticks slip; data is never corrupted.
type Prefetcher struct {
	slot   Slot
	name   string
	rc     io.ReadCloser
	dec    *trace.Decoder
	filled int
	done   bool
	err    error
}

// StreamNext opens slot for frame-at-a-time streaming.
// Returns ErrNotFound when the segment was never recorded.
func (s *Store) StreamNext(ctx context.Context, slot Slot) (*Prefetcher, error) {
	name, err := s.NameFor(slot)
	if err != nil {
		return nil, err
	}
	rc, err := s.open(ctx, slot, name)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("slotstore: streaming next segment", "slot", slot.String(), "stream", name)
	return &Prefetcher{
		slot: slot,
		name: name,
		rc:   rc,
		dec:  trace.NewDecoder(bufio.NewReaderSize(rc, 512)),
	}, nil
}

// Slot returns the segment being streamed.
func (p *Prefetcher) Slot() Slot { return p.slot }

// Filled returns the number of frames written into buffers so far.
func (p *Prefetcher) Filled() int { return p.filled }

// Err returns the error that ended the stream early, if any: a short
// trailing frame (ErrMalformedFrame) or an I/O failure. A clean end of
// stream leaves Err nil.
func (p *Prefetcher) Err() error { return p.err }

// NextInto decodes the next frame into buf[i].
//
// Returns ErrEndOfStream once the segment is exhausted; every later call
// returns it too. A read failure also ends the stream: the returned
// error matches ErrEndOfStream and wraps the cause.
func (p *Prefetcher) NextInto(buf *trace.Buffer, i int) error {
	if p.done {
		return ErrEndOfStream
	}
	if i < 0 || i >= buf.Len() {
		return fmt.Errorf("slotstore: prefetch index %d out of range [0,%d)", i, buf.Len())
	}
	f, err := p.dec.Decode()
	switch {
	case err == nil:
		buf.Set(i, f)
		p.filled++
		return nil
	case errors.Is(err, io.EOF):
		p.done = true
		return ErrEndOfStream
	case errors.Is(err, trace.ErrMalformedFrame):
		p.done = true
		p.err = &ShortReadError{Name: p.name, Decoded: p.dec.Count(), Want: buf.Len()}
		return fmt.Errorf("%w: %w", ErrEndOfStream, p.err)
	default:
		p.done = true
		p.err = &IOError{Op: "read", Name: p.name, Err: err}
		return fmt.Errorf("%w: %w", ErrEndOfStream, p.err)
	}
}

// Close releases the stream handle. Safe to call more than once.
func (p *Prefetcher) Close() error {
	if p.rc == nil {
		return nil
	}
	err := p.rc.Close()
	p.rc = nil
	p.done = true
	return err
}
