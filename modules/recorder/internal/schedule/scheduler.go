package schedule

import "time"

// Scheduler paces a loop at a fixed period without drift.
//
// Deadlines are computed from the loop start, not from the previous
// wake-up: tick i ends at start + (i+1)·period. Time spent inside a tick
// therefore shortens the following sleep instead of accumulating. A tick
// that overruns its deadline is not made up; the loop continues at once
// and the overrun is counted (soft real-time: ticks slip, data does not
// change).
type Scheduler struct {
	clock    Clock
	period   time.Duration
	start    time.Time
	overruns int
}

// Start anchors a scheduler at the current clock time.
func Start(clock Clock, period time.Duration) *Scheduler {
	return &Scheduler{
		clock:  clock,
		period: period,
		start:  clock.Now(),
	}
}

// Period returns the tick period.
func (s *Scheduler) Period() time.Duration { return s.period }

// Deadline returns the end of tick i.
func (s *Scheduler) Deadline(i int) time.Time {
	return s.start.Add(time.Duration(i+1) * s.period)
}

// Wait sleeps until the end of tick i. It reports false, without
// sleeping, when the deadline has already passed.
func (s *Scheduler) Wait(i int) bool {
	remaining := s.Deadline(i).Sub(s.clock.Now())
	if remaining < 0 {
		s.overruns++
		return false
	}
	s.clock.Sleep(remaining)
	return true
}

// Overruns returns the number of ticks that missed their deadline.
func (s *Scheduler) Overruns() int { return s.overruns }
