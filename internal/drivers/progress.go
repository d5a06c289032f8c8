package drivers

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/e7canasta/motion-recorder/modules/tickbus"
)

// Progress prints a one-line progress bar for the run in flight.
//
// It reads ticks latest-only from the bus, so a slow terminal never
// holds back the loop: it simply redraws less often.
type Progress struct {
	out      io.Writer
	perTrace int
	interval time.Duration
}

// NewProgress creates a reporter for traces of perTrace frames, redrawn
// at most once per interval.
func NewProgress(out io.Writer, perTrace int, interval time.Duration) *Progress {
	return &Progress{out: out, perTrace: perTrace, interval: interval}
}

// Run draws until r is closed. It returns the number of redraws.
func (p *Progress) Run(r tickbus.Receiver) int {
	var last time.Time
	draws := 0
	for {
		tick, ok := r.Receive()
		if !ok {
			if draws > 0 {
				fmt.Fprintln(p.out)
			}
			return draws
		}
		if !last.IsZero() && tick.At.Sub(last) < p.interval && tick.Index != p.perTrace-1 {
			continue
		}
		last = tick.At
		fmt.Fprintf(p.out, "\r%s", p.line(tick))
		draws++
	}
}

func (p *Progress) line(t tickbus.Tick) string {
	const width = 30
	done := (t.Index + 1) * width / max(p.perTrace, 1)
	bar := strings.Repeat("█", done) + strings.Repeat("░", width-done)
	return fmt.Sprintf("%-8s seg %d │%s│ %4d/%d  %s",
		t.Phase, t.Segment, bar, t.Index+1, p.perTrace, t.Frame)
}
