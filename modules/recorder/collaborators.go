package recorder

import (
	"context"

	"github.com/e7canasta/motion-recorder/modules/slotstore"
	"github.com/e7canasta/motion-recorder/modules/trace"
)

// Sampler reads the operator's controls once per capture tick.
//
// Implementations must guarantee:
//   - Sample() returns immediately (it is called inside the tick budget)
//   - Sample() is only called from the capture loop goroutine
//
// The returned frame is stored verbatim; no deadband or scaling happens
// between the sampler and the buffer.
type Sampler interface {
	Sample() trace.Frame
}

// Sink drives the actuators.
//
// Implementations must guarantee:
//   - Emit() applies the frame immediately and does not block for a tick
//   - Stop() halts every actuator and is safe to call more than once
//
// Emit is called once per tick by both loops (capture echoes the live
// controls so the operator feels the robot respond). Stop is called once
// at the end of every playback run, including cancelled ones.
type Sink interface {
	Emit(f trace.Frame)
	Stop()
}

// CancelSignal is polled once per tick, after the tick's frame has been
// emitted. Cancellation is never preemptive.
type CancelSignal interface {
	CancelRequested() bool
}

// SlotChooser asks the operator for a slot. It is consulted when an
// operation needs an explicit slot and none was supplied: saving outside a
// composite run, and playing with nothing loaded.
type SlotChooser interface {
	ChooseSlot(ctx context.Context) (slotstore.Slot, error)
}

// Routine is the built-in autonomous program behind the Hardcoded slot.
// It drives the sink itself; orientation is +1 or -1. The recorder polls
// the cancel signal after every Emit and cancels ctx when it fires, so a
// routine must return promptly once ctx is done. Frames emitted after
// that are dropped.
type Routine interface {
	Run(ctx context.Context, sink Sink, orientation int) error
}

// SamplerFunc adapts a function to Sampler.
type SamplerFunc func() trace.Frame

// Sample calls f.
func (f SamplerFunc) Sample() trace.Frame { return f() }

// SinkFuncs adapts a pair of functions to Sink. Nil fields are no-ops.
type SinkFuncs struct {
	EmitFunc func(trace.Frame)
	StopFunc func()
}

// Emit calls EmitFunc.
func (s SinkFuncs) Emit(f trace.Frame) {
	if s.EmitFunc != nil {
		s.EmitFunc(f)
	}
}

// Stop calls StopFunc.
func (s SinkFuncs) Stop() {
	if s.StopFunc != nil {
		s.StopFunc()
	}
}

// CancelFunc adapts a function to CancelSignal.
type CancelFunc func() bool

// CancelRequested calls f.
func (f CancelFunc) CancelRequested() bool { return f() }

// CancelOnDone reports cancellation once ctx is done.
func CancelOnDone(ctx context.Context) CancelSignal {
	return CancelFunc(func() bool { return ctx.Err() != nil })
}

// FixedSlot is a SlotChooser that always answers the same slot.
type FixedSlot slotstore.Slot

// ChooseSlot returns the fixed slot.
func (s FixedSlot) ChooseSlot(context.Context) (slotstore.Slot, error) {
	return slotstore.Slot(s), nil
}

// RoutineFunc adapts a function to Routine.
type RoutineFunc func(ctx context.Context, sink Sink, orientation int) error

// Run calls f.
func (f RoutineFunc) Run(ctx context.Context, sink Sink, orientation int) error {
	return f(ctx, sink, orientation)
}

type neverCancel struct{}

func (neverCancel) CancelRequested() bool { return false }
