package drivers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/e7canasta/motion-recorder/modules/recorder"
	"github.com/e7canasta/motion-recorder/modules/slotstore"
	"github.com/e7canasta/motion-recorder/modules/tickbus"
	"github.com/e7canasta/motion-recorder/modules/trace"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestSimSampler_Deterministic(t *testing.T) {
	a, b := NewSimSampler(), NewSimSampler()
	moving := 0
	for i := 0; i < 750; i++ {
		fa, fb := a.Sample(), b.Sample()
		require.Equal(t, fa, fb, "tick %d", i)
		assert.GreaterOrEqual(t, fa.Speed, int8(-100))
		assert.LessOrEqual(t, fa.Speed, int8(100))
		if !fa.IsZero() {
			moving++
		}
	}
	assert.EqualValues(t, 750, a.Samples())
	assert.Greater(t, moving, 700)
	assert.Equal(t, trace.Zero, ZeroSampler{}.Sample())
}

func TestTriangle(t *testing.T) {
	assert.Equal(t, int8(0), triangle(0, 100, 100))
	assert.Equal(t, int8(100), triangle(25, 100, 100))
	assert.Equal(t, int8(0), triangle(50, 100, 100))
	assert.Equal(t, int8(-100), triangle(75, 100, 100))
	assert.Equal(t, int8(0), triangle(100, 100, 100))
}

func TestLogSink_Stats(t *testing.T) {
	s := NewLogSink(slog.New(slog.NewTextHandler(io.Discard, nil)))
	s.Emit(trace.Frame{Speed: 1})
	s.Emit(trace.Zero)
	s.Emit(trace.Zero)
	s.Emit(trace.Frame{Lift: -1})
	s.Stop()

	st := s.Stats()
	assert.EqualValues(t, 4, st.Emitted)
	assert.EqualValues(t, 2, st.Moving)
	assert.EqualValues(t, 1, st.Stops)
	assert.InDelta(t, 50.0, st.IdleRate(), 1e-9)
	assert.Equal(t, 0.0, SinkStats{}.IdleRate())
}

func TestJSONLSink(t *testing.T) {
	var out bytes.Buffer
	s := NewJSONLSink(&out)
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return at }

	s.Emit(trace.Frame{Speed: 10, Lateral: -5, Turn: 3, Aux: 1, Lift: -1})
	s.Stop()
	require.NoError(t, s.Err())

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)

	var first, second jsonlRecord
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &first))
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &second))
	assert.Equal(t, jsonlRecord{Seq: 0, Event: "emit", At: at, Speed: 10, Lateral: -5, Turn: 3, Aux: 1, Lift: -1}, first)
	assert.Equal(t, "stop", second.Event)
	assert.EqualValues(t, 1, second.Seq)
}

func newStore(t *testing.T) *slotstore.Store {
	t.Helper()
	s, err := slotstore.New(slotstore.Config{
		Backend: slotstore.NewMemoryBackend(),
		Timing:  trace.Timing{RateHz: 10, Duration: time.Second},
		Layout:  slotstore.Layout{MaxSlots: 3, Segments: 4},
	})
	require.NoError(t, err)
	return s
}

func TestPromptChooser(t *testing.T) {
	store := newStore(t)
	require.NoError(t, store.Write(context.Background(), slotstore.Regular(2), trace.NewBuffer(store.Timing())))

	var out bytes.Buffer
	c := NewPromptChooser(store, strings.NewReader("9\nbanana\n2\n"), &out)

	slot, err := c.ChooseSlot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, slotstore.Regular(2), slot)

	menu := out.String()
	assert.Contains(t, menu, "(EMPTY)")
	assert.Contains(t, menu, "  2\n")
	assert.Equal(t, 2, strings.Count(menu, "(EMPTY)"))
	assert.Contains(t, menu, "skills")
	assert.Contains(t, menu, "out of range")
	assert.Contains(t, menu, "invalid slot")
}

func TestPromptChooser_EOF(t *testing.T) {
	c := NewPromptChooser(newStore(t), strings.NewReader(""), io.Discard)
	_, err := c.ChooseSlot(context.Background())
	assert.ErrorIs(t, err, io.EOF)
}

type countingSink struct {
	clock  *stepClock
	frames []trace.Frame
	times  []time.Time
	stops  int
}

func (s *countingSink) Emit(f trace.Frame) {
	s.frames = append(s.frames, f)
	if s.clock != nil {
		s.times = append(s.times, s.clock.Now())
	}
}

func (s *countingSink) Stop() { s.stops++ }

// stepClock is a clock whose Sleep returns at once, moving time forward.
type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *stepClock) Sleep(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestScriptRoutine(t *testing.T) {
	clock := &stepClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	r := &ScriptRoutine{
		Period: 20 * time.Millisecond,
		Clock:  clock,
		Steps: []Step{
			{Frame: trace.Frame{Speed: 50}, For: 60 * time.Millisecond},
			{Frame: trace.Frame{Turn: 20}, For: 40 * time.Millisecond},
		},
	}
	sink := &countingSink{clock: clock}
	require.NoError(t, r.Run(context.Background(), sink, -1))

	require.Len(t, sink.frames, 5)
	assert.Equal(t, trace.Frame{Speed: 50}, sink.frames[0])
	assert.Equal(t, trace.Frame{Turn: -20}, sink.frames[4])
	for i := 1; i < len(sink.times); i++ {
		assert.Equal(t, 20*time.Millisecond, sink.times[i].Sub(sink.times[i-1]))
	}
	assert.Zero(t, sink.stops)
}

func TestScriptRoutine_Cancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sink := &countingSink{}
	err := DefaultScript(time.Millisecond).Run(ctx, sink, 1)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, sink.frames)
}

func TestScriptRoutine_CancelledByRecorder(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	clock := &stepClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
	script := DefaultScript(store.Timing().Period())
	script.Clock = clock

	polls := 0
	sink := &countingSink{clock: clock}
	rec, err := recorder.New(recorder.Config{
		Store:    store,
		Sink:     sink,
		Fallback: script,
		Clock:    clock,
		Cancel: recorder.CancelFunc(func() bool {
			polls++
			return polls >= 3
		}),
	})
	require.NoError(t, err)
	require.NoError(t, rec.Load(ctx, slotstore.Hardcoded()))

	res, err := rec.Play(ctx, 1)
	require.NoError(t, err)
	assert.True(t, res.Routine)
	assert.True(t, res.Cancelled)
	assert.Len(t, sink.frames, 3)
	assert.Equal(t, 1, sink.stops)
}

// syncBuffer is a bytes.Buffer safe for one writer and one reader.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestProgress(t *testing.T) {
	bus := tickbus.New()
	r, err := bus.SubscribeLatest("progress")
	require.NoError(t, err)

	out := &syncBuffer{}
	p := NewProgress(out, 10, 0)
	done := make(chan int)
	go func() { done <- p.Run(r) }()

	bus.Publish(tickbus.Tick{Phase: tickbus.PhasePlayback, Index: 4, At: time.Now()})
	require.Eventually(t, func() bool {
		return strings.Contains(out.String(), "5/10")
	}, time.Second, time.Millisecond)
	bus.Close()

	assert.Equal(t, 1, <-done)
	assert.True(t, strings.HasSuffix(out.String(), "\n"))
}

func TestProgress_Line(t *testing.T) {
	p := NewProgress(io.Discard, 10, time.Second)
	line := p.line(tickbus.Tick{Phase: tickbus.PhaseCapture, Segment: 2, Index: 4})
	assert.Contains(t, line, "capture")
	assert.Contains(t, line, "seg 2")
	assert.Contains(t, line, "5/10")
	assert.Equal(t, 15, strings.Count(line, "█"))
}
