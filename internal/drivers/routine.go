package drivers

import (
	"context"
	"time"

	"github.com/e7canasta/motion-recorder/modules/recorder"
	"github.com/e7canasta/motion-recorder/modules/trace"
)

// Step holds one command for a duration.
type Step struct {
	Frame trace.Frame
	For   time.Duration
}

// ScriptRoutine is the hardcoded fallback: a fixed list of steps emitted
// at the trace period. Turn is mirrored by the orientation, like
// recorded playback.
type ScriptRoutine struct {
	Steps  []Step
	Period time.Duration
	// Clock paces the steps. Nil means recorder.RealClock().
	Clock recorder.Clock
}

// DefaultScript drives forward, turns, backs off and stops.
func DefaultScript(period time.Duration) *ScriptRoutine {
	return &ScriptRoutine{
		Period: period,
		Steps: []Step{
			{Frame: trace.Frame{Speed: 100}, For: 2 * time.Second},
			{Frame: trace.Frame{Turn: 80}, For: 500 * time.Millisecond},
			{Frame: trace.Frame{Speed: 100, Lift: 127}, For: time.Second},
			{Frame: trace.Frame{Aux: 127}, For: 500 * time.Millisecond},
			{Frame: trace.Frame{Speed: -80}, For: time.Second},
		},
	}
}

// Run emits every step until done or ctx is cancelled. Ticks fall on
// start + k·Period, so a slow sink does not stretch the script. The
// caller stops the sink.
func (r *ScriptRoutine) Run(ctx context.Context, sink recorder.Sink, orientation int) error {
	clock := r.Clock
	if clock == nil {
		clock = recorder.RealClock()
	}
	start := clock.Now()
	tick := 0

	for _, step := range r.Steps {
		f := step.Frame.Mirrored(orientation)
		for n := step.For / r.Period; n > 0; n-- {
			if err := ctx.Err(); err != nil {
				return err
			}
			sink.Emit(f)
			tick++
			if wait := start.Add(time.Duration(tick) * r.Period).Sub(clock.Now()); wait > 0 {
				clock.Sleep(wait)
			}
		}
	}
	return nil
}
