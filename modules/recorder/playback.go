package recorder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/e7canasta/motion-recorder/modules/recorder/internal/schedule"
	"github.com/e7canasta/motion-recorder/modules/recorder/internal/timing"
	"github.com/e7canasta/motion-recorder/modules/slotstore"
	"github.com/e7canasta/motion-recorder/modules/tickbus"
	"github.com/e7canasta/motion-recorder/modules/trace"
)

// PlayResult describes a finished playback.
type PlayResult struct {
	Run string
	// Slot is what was played: the loaded slot, or None for a fresh
	// capture (see Captured) and for the no-op None selection.
	Slot     slotstore.Slot
	Captured bool
	// Frames is the number of frames emitted.
	Frames int
	// Segments is the number of composite segments started.
	Segments  int
	Cancelled bool
	// Routine is true when the Hardcoded fallback ran instead of a trace.
	Routine bool
	Timing  TimingReport
}

// Play replays the live buffer through the sink at the capture rate.
//
// With nothing loaded, the chooser's slot (or the default slot) is
// loaded first. A None selection is a no-op; Hardcoded runs the fallback
// routine. Skills plays every composite segment back to back, streaming
// segment k+1 into the buffer behind the play cursor while segment k is
// playing, with no gap tick in between. A next segment that was never
// recorded ends the run early and a short one is zero-filled, but a read
// failure aborts playback with the *slotstore.IOError. Orientation -1
// mirrors the turn axis at emit time only; the buffer is never modified
// by it. The sink is always stopped at the end, cancelled or not.
func (r *Recorder) Play(ctx context.Context, orientation int) (*PlayResult, error) {
	if orientation != 1 && orientation != -1 {
		return nil, fmt.Errorf("%w (got %d)", ErrBadOrientation, orientation)
	}
	if !r.op.TryLock() {
		return nil, ErrBusy
	}
	defer r.op.Unlock()

	run := newRunID()
	log := r.logger.With("run", run)
	defer r.setPhase(PhaseIdle, 0, "")

	if r.Status().State == Unloaded {
		slot := r.defSlot
		if r.chooser != nil {
			var err error
			if slot, err = r.chooser.ChooseSlot(ctx); err != nil {
				return nil, fmt.Errorf("recorder: choose slot: %w", err)
			}
		}
		if err := r.load(ctx, slot, log); err != nil {
			return nil, err
		}
	}

	sess := r.Status()
	res := &PlayResult{Run: run, Slot: sess.Slot, Captured: sess.State == Captured}

	switch {
	case sess.State == Loaded && sess.Slot.IsNone():
		log.Info("recorder: nothing selected, playback skipped")
		return res, nil

	case sess.State == Loaded && sess.Slot.Kind == slotstore.KindHardcoded:
		return res, r.runFallback(ctx, run, orientation, res, log)

	case sess.State == Loaded && sess.Slot.Kind == slotstore.KindSkills && sess.ResidentSegment != 0:
		// The buffer was left holding a later segment (or a mix of two)
		// by the previous composite run.
		if err := r.reload(ctx, slotstore.SkillsSegment(0), log); err != nil {
			return nil, err
		}
	}

	segments := 1
	if sess.State == Loaded && sess.Slot.Kind == slotstore.KindSkills {
		segments = r.store.Layout().Segments
	}

	err := r.playSegments(ctx, run, orientation, segments, res, log)
	r.sink.Stop()
	if err != nil {
		return nil, err
	}

	log.Info("recorder: playback complete",
		"slot", res.Slot.String(),
		"frames", res.Frames,
		"segments", res.Segments,
		"cancelled", res.Cancelled,
		"overruns", res.Timing.Overruns)
	return res, nil
}

func (r *Recorder) runFallback(ctx context.Context, run string, orientation int, res *PlayResult, log *slog.Logger) error {
	if r.fallback == nil {
		log.Warn("recorder: hardcoded slot selected but no routine configured")
		return nil
	}
	r.setPhase(PhasePlaying, 0, run)
	log.Info("recorder: running hardcoded routine", "orientation", orientation)
	res.Routine = true

	routineCtx, stop := context.WithCancel(ctx)
	defer stop()
	sink := &watchedSink{
		sink:      r.sink,
		requested: func() bool { return r.cancelRequested(ctx) },
		stop:      stop,
	}
	err := r.fallback.Run(routineCtx, sink, orientation)
	r.sink.Stop()
	res.Frames = sink.emitted
	res.Cancelled = sink.cancelled || ctx.Err() != nil

	switch {
	case res.Cancelled && (err == nil || errors.Is(err, context.Canceled)):
		log.Info("recorder: hardcoded routine cancelled", "frames", res.Frames)
		return nil
	case err != nil:
		return fmt.Errorf("recorder: hardcoded routine: %w", err)
	}
	log.Info("recorder: hardcoded routine complete", "frames", res.Frames)
	return nil
}

// watchedSink forwards a routine's frames and polls the cancel signal
// after each one, the way the trace loops do.
type watchedSink struct {
	sink      Sink
	requested func() bool
	stop      context.CancelFunc
	emitted   int
	cancelled bool
}

func (w *watchedSink) Emit(f trace.Frame) {
	if w.cancelled {
		return
	}
	w.sink.Emit(f)
	w.emitted++
	if w.requested() {
		w.cancelled = true
		w.stop()
	}
}

// Stop is left to the recorder.
func (w *watchedSink) Stop() {}

// reload reads src into the buffer unconditionally and marks the
// composite slot resident from segment 0.
func (r *Recorder) reload(ctx context.Context, src slotstore.Slot, log *slog.Logger) error {
	buf, err := r.store.Read(ctx, src)
	if err != nil {
		logStoreError(log, "recorder: reload failed", src, err)
		return err
	}
	if err := r.buf.CopyFrom(buf); err != nil {
		return err
	}
	r.update(func(s *session) { s.resident = 0 })
	return nil
}

// playSegments emits the buffer once per segment on a single schedule.
// For every segment but the last, the next one is prefetched into the
// positions just played.
func (r *Recorder) playSegments(ctx context.Context, run string, orientation, segments int, res *PlayResult, log *slog.Logger) error {
	n := r.buf.Len()
	period := r.store.Timing().Period()
	sched := schedule.Start(r.clock, period)
	times := make([]time.Time, 0, n*segments)
	tick := 0

	defer func() {
		res.Timing = timing.Calculate(times, period, sched.Overruns())
	}()

	for seg := 0; seg < segments; seg++ {
		r.setPhase(PhasePlaying, seg, run)
		res.Segments++

		var pf *slotstore.Prefetcher
		last := seg == segments-1
		if !last {
			next := slotstore.SkillsSegment(seg + 1)
			var err error
			pf, err = r.store.StreamNext(ctx, next)
			switch {
			case errors.Is(err, slotstore.ErrNotFound):
				log.Warn("recorder: next segment not recorded, run ends after this segment",
					"segment", seg, "next", next.String())
				last = true
			case err != nil:
				logStoreError(log, "recorder: cannot open next segment", next, err)
				return err
			}
		}

		for i := 0; i < n; i++ {
			at := r.clock.Now()
			times = append(times, at)

			f := r.buf.At(i).Mirrored(orientation)
			r.sink.Emit(f)
			r.publish(run, tickbus.PhasePlayback, seg, i, f, at)
			res.Frames++

			if pf != nil {
				// End of stream is handled after the segment; a failed
				// read is not.
				if err := pf.NextInto(r.buf, i); err != nil && isIOError(pf.Err()) {
					r.closePrefetch(pf, log)
					r.abandonSegment(seg, pf.Filled())
					logStoreError(log, "recorder: next segment unreadable, playback aborted", pf.Slot(), pf.Err())
					return pf.Err()
				}
			}

			if r.cancelRequested(ctx) {
				res.Cancelled = true
				break
			}
			sched.Wait(tick)
			tick++
		}

		if pf != nil {
			filled := pf.Filled()
			r.closePrefetch(pf, log)
			if res.Cancelled {
				r.abandonSegment(seg, filled)
				return nil
			}
			if filled < n {
				log.Warn("recorder: next segment short, remainder zero-filled",
					"segment", seg+1, "frames", filled, "want", n, "error", pf.Err())
				r.buf.ZeroFrom(filled)
			}
			r.update(func(s *session) { s.resident = seg + 1 })
		}

		if res.Cancelled || last {
			return nil
		}
	}
	return nil
}

// abandonSegment records what the buffer holds when a composite run
// stops part way through segment seg with filled frames of the next one
// already streamed in.
func (r *Recorder) abandonSegment(seg, filled int) {
	resident := seg
	if filled > 0 {
		resident = MixedSegment
	}
	r.update(func(s *session) { s.resident = resident })
}

func (r *Recorder) closePrefetch(pf *slotstore.Prefetcher, log *slog.Logger) {
	if err := pf.Close(); err != nil {
		log.Debug("recorder: close prefetch stream", "slot", pf.Slot().String(), "error", err)
	}
}

func isIOError(err error) bool {
	var ioErr *slotstore.IOError
	return errors.As(err, &ioErr)
}
