package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestScheduler_DriftFree(t *testing.T) {
	clock := NewFake(epoch)
	period := 20 * time.Millisecond
	s := Start(clock, period)

	for i := 0; i < 100; i++ {
		// 3ms of work per tick must not accumulate.
		clock.Advance(3 * time.Millisecond)
		require.True(t, s.Wait(i))
		assert.Equal(t, epoch.Add(time.Duration(i+1)*period), clock.Now())
	}
	assert.Zero(t, s.Overruns())
	for _, d := range clock.Sleeps() {
		assert.Equal(t, 17*time.Millisecond, d)
	}
}

func TestScheduler_OverrunSlipsWithoutCatchUp(t *testing.T) {
	clock := NewFake(epoch)
	period := 20 * time.Millisecond
	s := Start(clock, period)

	clock.Advance(45 * time.Millisecond) // tick 0 blows through two deadlines
	assert.False(t, s.Wait(0))
	assert.Equal(t, 1, s.Overruns())

	assert.False(t, s.Wait(1)) // deadline 40ms already passed
	assert.True(t, s.Wait(2))  // back on the 60ms grid
	assert.Equal(t, epoch.Add(60*time.Millisecond), clock.Now())
	assert.Equal(t, 2, s.Overruns())
}

func TestFake_OnSleepHook(t *testing.T) {
	clock := NewFake(epoch)
	var seen []time.Duration
	clock.OnSleep = func(d time.Duration) { seen = append(seen, d) }

	clock.Sleep(5 * time.Millisecond)
	clock.Sleep(0)

	assert.Equal(t, []time.Duration{5 * time.Millisecond, 0}, seen)
	assert.Equal(t, epoch.Add(5*time.Millisecond), clock.Now())
}

func TestReal_Sleeps(t *testing.T) {
	c := Real()
	start := c.Now()
	c.Sleep(2 * time.Millisecond)
	assert.GreaterOrEqual(t, c.Now().Sub(start), 2*time.Millisecond)
}
