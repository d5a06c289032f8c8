// Package timing summarizes how closely a capture or playback loop held
// its tick period.
package timing

import (
	"math"
	"time"
)

const (
	// rateStabilityThreshold is the maximum allowed rate standard deviation
	// as a fraction of the target rate.
	// Example: 50 Hz target → stable if stddev < 7.5 Hz
	rateStabilityThreshold = 0.15

	// jitterStabilityThreshold is the maximum allowed mean jitter as a
	// fraction of the tick period.
	// Example: 20ms period → stable if mean jitter < 4ms
	jitterStabilityThreshold = 0.20
)

// Report describes the observed pacing of one loop run.
type Report struct {
	Ticks    int
	Elapsed  time.Duration
	Period   time.Duration
	Overruns int

	// Tick rate in Hz, from consecutive tick start times.
	RateMean   float64
	RateStdDev float64
	RateMin    float64
	RateMax    float64

	// Jitter is |interval - period|, in seconds.
	JitterMean   float64
	JitterStdDev float64
	JitterMax    float64

	IsStable bool
}

// Calculate builds a Report from the start time of every tick.
//
// Mean rate is measured over the whole run (ticks-1 intervals), the
// spread from per-interval instantaneous rates. A run is stable when the
// rate stddev stays under 15% of the target rate and the mean jitter
// under 20% of the period.
func Calculate(tickTimes []time.Time, period time.Duration, overruns int) Report {
	n := len(tickTimes)
	r := Report{Ticks: n, Period: period, Overruns: overruns}
	if n < 2 || period <= 0 {
		return r
	}

	r.Elapsed = tickTimes[n-1].Sub(tickTimes[0])
	if r.Elapsed <= 0 {
		return r
	}
	r.RateMean = float64(n-1) / r.Elapsed.Seconds()

	expected := period.Seconds()
	target := 1.0 / expected

	rates := make([]float64, 0, n-1)
	jitters := make([]float64, 0, n-1)
	for i := 1; i < n; i++ {
		interval := tickTimes[i].Sub(tickTimes[i-1]).Seconds()
		jitters = append(jitters, math.Abs(interval-expected))
		if interval > 0 {
			rates = append(rates, 1.0/interval)
		}
	}

	if len(rates) > 0 {
		r.RateMin, r.RateMax = rates[0], rates[0]
		for _, v := range rates {
			r.RateMin = math.Min(r.RateMin, v)
			r.RateMax = math.Max(r.RateMax, v)
		}
		r.RateStdDev = stddev(rates, r.RateMean)
	}

	var sum float64
	for _, j := range jitters {
		sum += j
		r.JitterMax = math.Max(r.JitterMax, j)
	}
	r.JitterMean = sum / float64(len(jitters))
	r.JitterStdDev = stddev(jitters, r.JitterMean)

	r.IsStable = r.RateStdDev < target*rateStabilityThreshold &&
		r.JitterMean < expected*jitterStabilityThreshold
	return r
}

func stddev(values []float64, mean float64) float64 {
	var sumSquares float64
	for _, v := range values {
		d := v - mean
		sumSquares += d * d
	}
	return math.Sqrt(sumSquares / float64(len(values)))
}
