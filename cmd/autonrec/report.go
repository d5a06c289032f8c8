package main

import (
	"fmt"
	"io"
	"time"

	"github.com/e7canasta/motion-recorder/modules/recorder"
	"github.com/e7canasta/motion-recorder/modules/tickbus"
)

// printTiming prints how well a loop held its period.
func printTiming(w io.Writer, title string, rep recorder.TimingReport, bus tickbus.Bus) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, "╔═════════════════════════════════════════════════════════════════╗")
	fmt.Fprintf(w, "║ %s\n", title)
	fmt.Fprintln(w, "╠═════════════════════════════════════════════════════════════════╣")
	fmt.Fprintf(w, "║   Ticks:              %6d\n", rep.Ticks)
	fmt.Fprintf(w, "║   Elapsed:            %v\n", rep.Elapsed.Round(time.Millisecond))
	fmt.Fprintf(w, "║   Target Rate:        %6.2f Hz\n", targetRate(rep.Period))
	fmt.Fprintf(w, "║   Real Rate:          %6.2f Hz (σ=%.2f, min=%.2f, max=%.2f)\n",
		rep.RateMean, rep.RateStdDev, rep.RateMin, rep.RateMax)
	fmt.Fprintf(w, "║   Jitter:             %6.2f ms (σ=%.2f, max=%.2f)\n",
		rep.JitterMean*1000, rep.JitterStdDev*1000, rep.JitterMax*1000)
	fmt.Fprintf(w, "║   Overruns:           %6d\n", rep.Overruns)

	if bus != nil {
		stats := bus.Stats()
		fmt.Fprintf(w, "║   Telemetry Drops:    %6d (%.1f%%)\n",
			stats.TotalDropped, tickbus.DropRate(stats)*100)
	}

	if rep.Ticks >= 2 {
		if rep.IsStable {
			fmt.Fprintln(w, "║   Status:             ✓ stable")
		} else {
			fmt.Fprintln(w, "║   Status:             ⚠ unstable, trace may replay off-pace")
		}
	}
	fmt.Fprintln(w, "╚═════════════════════════════════════════════════════════════════╝")
}

func targetRate(period time.Duration) float64 {
	if period <= 0 {
		return 0
	}
	return float64(time.Second) / float64(period)
}
