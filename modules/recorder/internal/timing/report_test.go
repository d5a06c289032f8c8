package timing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func ticks(intervals ...time.Duration) []time.Time {
	out := []time.Time{epoch}
	at := epoch
	for _, d := range intervals {
		at = at.Add(d)
		out = append(out, at)
	}
	return out
}

func TestCalculate_PerfectPacing(t *testing.T) {
	period := 20 * time.Millisecond
	intervals := make([]time.Duration, 49)
	for i := range intervals {
		intervals[i] = period
	}

	r := Calculate(ticks(intervals...), period, 0)

	assert.Equal(t, 50, r.Ticks)
	assert.Equal(t, 49*period, r.Elapsed)
	assert.InDelta(t, 50.0, r.RateMean, 1e-6)
	assert.InDelta(t, 50.0, r.RateMin, 1e-6)
	assert.InDelta(t, 50.0, r.RateMax, 1e-6)
	assert.InDelta(t, 0.0, r.JitterMax, 1e-9)
	assert.True(t, r.IsStable)
}

func TestCalculate_JitteryIsUnstable(t *testing.T) {
	period := 20 * time.Millisecond
	r := Calculate(ticks(10*time.Millisecond, 30*time.Millisecond, 10*time.Millisecond, 30*time.Millisecond), period, 2)

	assert.Equal(t, 2, r.Overruns)
	assert.InDelta(t, 0.010, r.JitterMean, 1e-9)
	assert.InDelta(t, 0.010, r.JitterMax, 1e-9)
	assert.InDelta(t, 100.0, r.RateMax, 1e-6)
	assert.False(t, r.IsStable)
}

func TestCalculate_TooFewTicks(t *testing.T) {
	assert.Equal(t, Report{Period: time.Second}, Calculate(nil, time.Second, 0))

	r := Calculate(ticks(), time.Second, 0)
	assert.Equal(t, 1, r.Ticks)
	assert.False(t, r.IsStable)
}
