package recorder

import (
	"context"
	"log/slog"
	"time"

	"github.com/e7canasta/motion-recorder/modules/recorder/internal/schedule"
	"github.com/e7canasta/motion-recorder/modules/recorder/internal/timing"
	"github.com/e7canasta/motion-recorder/modules/tickbus"
)

// CaptureResult describes a finished capture.
type CaptureResult struct {
	Run string
	// Ticks is the number of frames sampled. Positions from Ticks on are
	// zero.
	Ticks int
	// Cancelled is true when the operator stopped the capture early.
	// A capture cancelled during the countdown samples nothing and
	// leaves the buffer untouched.
	Cancelled bool
	Timing    TimingReport
}

// Capture records one trace into the live buffer.
//
// After the countdown, the sampler is read once per tick for exactly one
// trace length. Each sample is stored at the tick's position and echoed
// to the sink. The cancel signal is polled after each tick's emission;
// on cancel the rest of the buffer is zero-filled and the loop returns at
// once without sleeping out the remaining ticks. Either way the sink is
// stopped and the session becomes Captured.
func (r *Recorder) Capture(ctx context.Context) (*CaptureResult, error) {
	if r.sampler == nil {
		return nil, ErrNoSampler
	}
	if !r.op.TryLock() {
		return nil, ErrBusy
	}
	defer r.op.Unlock()

	run := newRunID()
	log := r.logger.With("run", run)
	defer r.setPhase(PhaseIdle, 0, "")

	if r.countdown > 0 {
		r.setPhase(PhaseCountdown, 0, run)
		if !r.waitCountdown(ctx, log) {
			log.Info("recorder: capture cancelled during countdown")
			return &CaptureResult{Run: run, Cancelled: true}, nil
		}
	}

	r.setPhase(PhaseCapturing, 0, run)
	n := r.buf.Len()
	period := r.store.Timing().Period()
	log.Info("recorder: capture started", "frames", n, "period", period)

	sched := schedule.Start(r.clock, period)
	times := make([]time.Time, 0, n)
	res := &CaptureResult{Run: run}

	for i := 0; i < n; i++ {
		at := r.clock.Now()
		times = append(times, at)

		f := r.sampler.Sample()
		r.buf.Set(i, f)
		r.sink.Emit(f)
		r.publish(run, tickbus.PhaseCapture, 0, i, f, at)
		res.Ticks = i + 1

		if r.cancelRequested(ctx) {
			r.buf.ZeroFrom(i + 1)
			res.Cancelled = true
			break
		}
		sched.Wait(i)
	}
	r.sink.Stop()

	r.update(func(s *session) { s.setCaptured() })
	res.Timing = timing.Calculate(times, period, sched.Overruns())

	log.Info("recorder: capture complete",
		"ticks", res.Ticks,
		"cancelled", res.Cancelled,
		"overruns", res.Timing.Overruns,
		"rate_hz", res.Timing.RateMean,
		"stable", res.Timing.IsStable)
	return res, nil
}

// waitCountdown announces the seconds left before capture. It reports
// false if cancellation was requested meanwhile.
func (r *Recorder) waitCountdown(ctx context.Context, log *slog.Logger) bool {
	remaining := r.countdown
	for remaining > 0 {
		if r.cancelRequested(ctx) {
			return false
		}
		step := min(time.Second, remaining)
		log.Info("recorder: capture starts in", "remaining", remaining.Round(time.Second))
		r.clock.Sleep(step)
		remaining -= step
	}
	return !r.cancelRequested(ctx)
}
