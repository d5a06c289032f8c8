package recorder

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/e7canasta/motion-recorder/modules/recorder/internal/schedule"
	"github.com/e7canasta/motion-recorder/modules/slotstore"
	"github.com/e7canasta/motion-recorder/modules/tickbus"
	"github.com/e7canasta/motion-recorder/modules/trace"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// 10 frames per trace, 100ms period.
var (
	testTiming = trace.Timing{RateHz: 10, Duration: time.Second}
	testPeriod = 100 * time.Millisecond
	epoch      = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
)

type recordingSink struct {
	mu     sync.Mutex
	clock  Clock
	frames []trace.Frame
	times  []time.Time
	stops  int
}

func (s *recordingSink) Emit(f trace.Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames = append(s.frames, f)
	s.times = append(s.times, s.clock.Now())
}

func (s *recordingSink) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stops++
}

func (s *recordingSink) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames, s.times, s.stops = nil, nil, 0
}

// countingSampler returns Speed 1, 2, 3, ... on successive ticks.
type countingSampler struct{ n int }

func (c *countingSampler) Sample() trace.Frame {
	c.n++
	return trace.Frame{Speed: int8(c.n), Lateral: -int8(c.n), Turn: 3, Aux: 1, Lift: -1}
}

// cancelAfter requests cancellation from the limit-th poll on. A limit
// of 0 never cancels.
type cancelAfter struct {
	mu    sync.Mutex
	polls int
	limit int
}

func (c *cancelAfter) CancelRequested() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.polls++
	return c.limit > 0 && c.polls >= c.limit
}

func (c *cancelAfter) set(limit int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.polls, c.limit = 0, limit
}

type fixture struct {
	rec    *Recorder
	store  *slotstore.Store
	mem    *slotstore.MemoryBackend
	sink   *recordingSink
	clock  *schedule.Fake
	cancel *cancelAfter
}

func newFixture(t *testing.T, mutate func(cfg *Config)) *fixture {
	t.Helper()
	mem := slotstore.NewMemoryBackend()
	store, err := slotstore.New(slotstore.Config{Backend: mem, Timing: testTiming})
	require.NoError(t, err)
	return newFixtureOn(t, store, mem, mutate)
}

func newFixtureOn(t *testing.T, store *slotstore.Store, mem *slotstore.MemoryBackend, mutate func(cfg *Config)) *fixture {
	t.Helper()
	clock := schedule.NewFake(epoch)
	f := &fixture{
		store:  store,
		mem:    mem,
		sink:   &recordingSink{clock: clock},
		clock:  clock,
		cancel: &cancelAfter{},
	}
	cfg := Config{
		Store:   store,
		Sink:    f.sink,
		Sampler: &countingSampler{},
		Cancel:  f.cancel,
		Clock:   clock,
	}
	if mutate != nil {
		mutate(&cfg)
	}
	rec, err := New(cfg)
	require.NoError(t, err)
	f.rec = rec
	return f
}

func patternBuffer(seed int8) *trace.Buffer {
	buf := trace.NewBuffer(testTiming)
	for i := 0; i < buf.Len(); i++ {
		v := seed + int8(i)
		buf.Set(i, trace.Frame{Speed: v, Lateral: -v, Turn: v + 1, Aux: 1, Lift: 2})
	}
	return buf
}

func (f *fixture) seed(t *testing.T, slot slotstore.Slot, seed int8) *trace.Buffer {
	t.Helper()
	buf := patternBuffer(seed)
	require.NoError(t, f.store.Write(context.Background(), slot, buf))
	return buf
}

func TestNew_Validation(t *testing.T) {
	mem := slotstore.NewMemoryBackend()
	store, err := slotstore.New(slotstore.Config{Backend: mem, Timing: testTiming})
	require.NoError(t, err)
	sink := SinkFuncs{}

	_, err = New(Config{Sink: sink})
	assert.Error(t, err)
	_, err = New(Config{Store: store})
	assert.Error(t, err)
	bad := slotstore.Regular(99)
	_, err = New(Config{Store: store, Sink: sink, DefaultSlot: &bad})
	assert.Error(t, err)
	_, err = New(Config{Store: store, Sink: sink, Countdown: -time.Second})
	assert.Error(t, err)

	rec, err := New(Config{Store: store, Sink: sink})
	require.NoError(t, err)
	st := rec.Status()
	assert.Equal(t, Unloaded, st.State)
	assert.Equal(t, PhaseIdle, st.Phase)
}

func TestBusy(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	f := newFixture(t, func(cfg *Config) {
		cfg.Sampler = SamplerFunc(func() trace.Frame {
			once.Do(func() {
				close(started)
				<-release
			})
			return trace.Frame{Speed: 1}
		})
		cfg.Chooser = FixedSlot(slotstore.Regular(1))
	})

	done := make(chan error, 1)
	go func() {
		_, err := f.rec.Capture(context.Background())
		done <- err
	}()
	<-started

	st := f.rec.Status()
	assert.Equal(t, PhaseCapturing, st.Phase)
	assert.NotEmpty(t, st.Run)

	_, err := f.rec.Play(context.Background(), 1)
	assert.ErrorIs(t, err, ErrBusy)
	_, err = f.rec.Save(context.Background())
	assert.ErrorIs(t, err, ErrBusy)
	assert.ErrorIs(t, f.rec.Load(context.Background(), slotstore.Regular(1)), ErrBusy)
	_, err = f.rec.Capture(context.Background())
	assert.ErrorIs(t, err, ErrBusy)
	assert.ErrorIs(t, f.rec.BeginSkillsRun(), ErrBusy)
	_, err = f.rec.Buffer()
	assert.ErrorIs(t, err, ErrBusy)

	close(release)
	require.NoError(t, <-done)
	assert.Equal(t, PhaseIdle, f.rec.Status().Phase)
}

func TestBus_PublishesEveryTick(t *testing.T) {
	bus := tickbus.New()
	defer bus.Close()
	ch := make(chan tickbus.Tick, 32)
	require.NoError(t, bus.Subscribe("test", ch))

	f := newFixture(t, func(cfg *Config) { cfg.Bus = bus })
	res, err := f.rec.Capture(context.Background())
	require.NoError(t, err)

	require.Len(t, ch, 10)
	for i := 0; i < 10; i++ {
		tick := <-ch
		assert.Equal(t, res.Run, tick.Run)
		assert.Equal(t, tickbus.PhaseCapture, tick.Phase)
		assert.Equal(t, i, tick.Index)
		assert.Equal(t, epoch.Add(time.Duration(i)*testPeriod), tick.At)
	}
}

func TestSnapshotRestore(t *testing.T) {
	f := newFixture(t, nil)

	require.Error(t, f.rec.Restore(Snapshot{SkillsRecording: true, SkillsCursor: 4}))
	require.Error(t, f.rec.Restore(Snapshot{SkillsCursor: 2}))

	require.NoError(t, f.rec.Restore(Snapshot{SkillsRecording: true, SkillsCursor: 2}))
	_, err := f.rec.Capture(context.Background())
	require.NoError(t, err)

	res, err := f.rec.Save(context.Background())
	require.NoError(t, err)
	assert.Equal(t, slotstore.SkillsSegment(2), res.Slot)
	assert.Equal(t, "p2", res.Stream)

	snap := f.rec.Snapshot()
	assert.True(t, snap.SkillsRecording)
	assert.Equal(t, 3, snap.SkillsCursor)
	assert.Equal(t, slotstore.SkillsSegment(2), snap.LastSaved)
}

// failingBackend fails every Create while fail is set.
type failingBackend struct {
	slotstore.Backend
	mu   sync.Mutex
	fail bool
}

func (b *failingBackend) Create(ctx context.Context, name string) (io.WriteCloser, error) {
	b.mu.Lock()
	fail := b.fail
	b.mu.Unlock()
	if fail {
		return nil, errors.New("disk full")
	}
	return b.Backend.Create(ctx, name)
}

func (b *failingBackend) setFail(v bool) {
	b.mu.Lock()
	b.fail = v
	b.mu.Unlock()
}
