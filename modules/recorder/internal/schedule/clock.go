// Package schedule provides the fixed-period tick scheduler used by the
// capture and playback loops, and the clock it runs on.
package schedule

import (
	"sync"
	"time"
)

// Clock abstracts the two time operations the loops need. Production
// code uses Real(); tests use a Fake whose Sleep advances time instantly.
type Clock interface {
	// Now returns the current time (with a monotonic reading for Real).
	Now() time.Time
	// Sleep pauses for at least d. Non-positive d returns immediately.
	Sleep(d time.Duration)
}

type realClock struct{}

// Real returns the wall/monotonic clock.
func Real() Clock { return realClock{} }

func (realClock) Now() time.Time        { return time.Now() }
func (realClock) Sleep(d time.Duration) { time.Sleep(d) }

// Fake is a deterministic clock. Sleep advances the fake time by d and
// returns at once, so a 15 s loop runs in microseconds.
type Fake struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
	// OnSleep, if set, is called after each Sleep with the slept
	// duration. Tests use it to inject latency via Advance.
	OnSleep func(d time.Duration)
}

// NewFake returns a fake clock starting at start.
func NewFake(start time.Time) *Fake {
	return &Fake{now: start}
}

// Now returns the fake time.
func (f *Fake) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

// Sleep advances the fake time by d.
func (f *Fake) Sleep(d time.Duration) {
	f.mu.Lock()
	if d > 0 {
		f.now = f.now.Add(d)
	}
	f.sleeps = append(f.sleeps, d)
	hook := f.OnSleep
	f.mu.Unlock()
	if hook != nil {
		hook(d)
	}
}

// Advance moves the fake time forward without recording a sleep,
// simulating work that takes d.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

// Sleeps returns every duration passed to Sleep, in order.
func (f *Fake) Sleeps() []time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]time.Duration, len(f.sleeps))
	copy(out, f.sleeps)
	return out
}
