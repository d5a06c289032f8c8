// Package recorder records a driver's joystick input as a fixed-rate
// motion trace and plays it back through the actuators.
//
// # Overview
//
// A Recorder owns one live trace buffer (see package trace) and runs four
// operations against it, one at a time:
//
//	Capture  sample the controls every tick into the buffer
//	Save     write the buffer to a storage slot (see package slotstore)
//	Load     fill the buffer from a slot
//	Play     emit the buffer through the sink at the capture rate
//
// An operation started while another is running fails with ErrBusy.
// Status can be read at any time, from any goroutine.
//
// # Timing
//
// Both loops run on a single drift-free schedule: tick i ends at
// start + (i+1)·period, so the work inside a tick shortens the following
// sleep instead of adding to it. Ticks that overrun are counted and the
// loop carries on; nothing is skipped. Each result carries a TimingReport
// (rate, jitter, overruns, stability).
//
// Cancellation is polled once per tick, after the tick's frame has been
// emitted. A cancelled capture zero-fills the rest of the buffer and
// returns immediately. A cancelled playback stops the sink.
//
// # Programming skills
//
// The composite run is four 15 s segments recorded one after another:
//
//	BeginSkillsRun (or a chooser answering Skills) → Save writes p0
//	Capture, Save → p1
//	Capture, Save → p2
//	Capture, Save → p3, cursor wraps to 0, run complete
//
// Playing Skills emits all segments back to back with no gap tick. While
// segment k plays, segment k+1 is streamed one frame per tick into the
// buffer positions that have just been played, so the buffer holds
// segment k+1 by the time segment k ends. A missing segment ends the run
// after the current one; a short segment is zero-filled.
//
// # Collaborators
//
// The recorder reaches the outside world only through small interfaces:
// Sampler (controls), Sink (actuators), CancelSignal, SlotChooser and
// Routine (the hardcoded fallback). Ticks can also be mirrored to a
// tickbus.Bus for telemetry.
//
// # Example
//
//	rec, err := recorder.New(recorder.Config{
//	    Store:   store,
//	    Sampler: sampler,
//	    Sink:    sink,
//	    Cancel:  recorder.CancelOnDone(ctx),
//	    Chooser: recorder.FixedSlot(slotstore.Regular(3)),
//	})
//	if err != nil {
//	    return err
//	}
//	if _, err := rec.Capture(ctx); err != nil {
//	    return err
//	}
//	if _, err := rec.Save(ctx); err != nil {
//	    return err
//	}
//	res, err := rec.Play(ctx, -1) // mirrored
package recorder
