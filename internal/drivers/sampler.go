// Package drivers provides the stand-in hardware used by the autonrec
// CLI: a synthetic joystick, actuator sinks that log or serialize what
// they are told, an interactive slot chooser and a scripted fallback
// routine.
package drivers

import (
	"sync/atomic"

	"github.com/e7canasta/motion-recorder/modules/trace"
)

// SimSampler simulates a driver working the sticks.
//
// It produces a deterministic pattern (triangle waves on the drive axes,
// periodic button presses on aux and lift) so captures are reproducible
// and easy to eyeball in a playback log.
type SimSampler struct {
	tick atomic.Uint64
}

// NewSimSampler creates a sampler starting at tick 0.
func NewSimSampler() *SimSampler {
	return &SimSampler{}
}

// Sample returns the controls for the next tick.
func (s *SimSampler) Sample() trace.Frame {
	i := int(s.tick.Add(1) - 1)
	f := trace.Frame{
		Speed:   triangle(i, 100, 100),
		Lateral: triangle(i+20, 40, 75),
		Turn:    triangle(i, 60, 250),
	}
	if (i/50)%4 == 1 {
		f.Aux = 127
	}
	if (i/75)%3 == 2 {
		f.Lift = -127
	}
	return f
}

// Samples returns the number of ticks sampled so far.
func (s *SimSampler) Samples() uint64 {
	return s.tick.Load()
}

// triangle is a wave in [-amp, amp] with the given period in ticks,
// starting at 0 and rising.
func triangle(i, amp, period int) int8 {
	p := i % period
	q := period / 4
	var v int
	switch {
	case p < q:
		v = amp * p / q
	case p < 3*q:
		v = amp - amp*(p-q)/q
	default:
		v = -amp + amp*(p-3*q)/q
	}
	return int8(max(-127, min(127, v)))
}

// ZeroSampler reports centered sticks and no buttons on every tick.
type ZeroSampler struct{}

// Sample returns the zero frame.
func (ZeroSampler) Sample() trace.Frame { return trace.Zero }
