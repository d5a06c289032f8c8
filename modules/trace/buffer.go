package trace

import (
	"fmt"
	"time"
)

// Timing fixes the sampling rate and duration of a trace. Both are
// constant for the lifetime of a process: the buffer length derives
// from them and is never changed.
type Timing struct {
	// RateHz is the sampling rate in ticks per second.
	RateHz int
	// Duration is the length of one trace (one slot, one segment).
	Duration time.Duration
}

// DefaultTiming is the autonomous-period timing: 50 Hz for 15 seconds.
var DefaultTiming = Timing{RateHz: 50, Duration: 15 * time.Second}

// Validate checks that the timing describes a whole number of ticks.
func (t Timing) Validate() error {
	if t.RateHz <= 0 {
		return fmt.Errorf("trace: invalid rate %d Hz (must be > 0)", t.RateHz)
	}
	if t.Duration <= 0 {
		return fmt.Errorf("trace: invalid duration %v (must be > 0)", t.Duration)
	}
	if time.Second%time.Duration(t.RateHz) != 0 {
		return fmt.Errorf("trace: rate %d Hz does not divide one second evenly", t.RateHz)
	}
	if t.Duration%t.Period() != 0 {
		return fmt.Errorf("trace: duration %v is not a multiple of the %v tick period",
			t.Duration, t.Period())
	}
	return nil
}

// Period is the fixed tick period (1/RateHz).
func (t Timing) Period() time.Duration {
	return time.Second / time.Duration(t.RateHz)
}

// Len is the number of frames in one trace.
func (t Timing) Len() int {
	return int(t.Duration / t.Period())
}

// StreamSize is the encoded size of one full trace in bytes.
func (t Timing) StreamSize() int64 {
	return int64(t.Len()) * FrameSize
}

// Buffer is a fixed-length, temporally ordered sequence of frames.
//
// A Buffer is owned by exactly one recorder session. It is not safe for
// concurrent use; capture, playback and the segment prefetcher take
// turns on it within a tick.
type Buffer struct {
	timing Timing
	frames []Frame
}

// NewBuffer allocates an all-zero buffer sized for t. It panics if t is
// invalid; callers validate configuration before building buffers.
func NewBuffer(t Timing) *Buffer {
	if err := t.Validate(); err != nil {
		panic(err)
	}
	return &Buffer{
		timing: t,
		frames: make([]Frame, t.Len()),
	}
}

// Timing returns the timing the buffer was built for.
func (b *Buffer) Timing() Timing { return b.timing }

// Len returns the fixed number of frames.
func (b *Buffer) Len() int { return len(b.frames) }

// At returns frame i.
func (b *Buffer) At(i int) Frame { return b.frames[i] }

// Set overwrites frame i.
func (b *Buffer) Set(i int, f Frame) { b.frames[i] = f }

// ZeroFrom sets frames [i, Len) to the zero frame.
func (b *Buffer) ZeroFrom(i int) {
	if i < 0 {
		i = 0
	}
	for ; i < len(b.frames); i++ {
		b.frames[i] = Zero
	}
}

// CopyFrom overwrites b with the contents of src. Both buffers must have
// the same length.
func (b *Buffer) CopyFrom(src *Buffer) error {
	if src.Len() != b.Len() {
		return fmt.Errorf("trace: buffer length mismatch (have %d, got %d)", b.Len(), src.Len())
	}
	copy(b.frames, src.frames)
	return nil
}

// Clone returns an independent copy of b.
func (b *Buffer) Clone() *Buffer {
	c := &Buffer{timing: b.timing, frames: make([]Frame, len(b.frames))}
	copy(c.frames, b.frames)
	return c
}

// Frames returns a copy of the frames.
func (b *Buffer) Frames() []Frame {
	out := make([]Frame, len(b.frames))
	copy(out, b.frames)
	return out
}
