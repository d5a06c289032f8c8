package recorder

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/e7canasta/motion-recorder/modules/slotstore"
	"github.com/e7canasta/motion-recorder/modules/trace"
)

func TestSaveLoad_RoundTrip(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, func(cfg *Config) { cfg.Chooser = FixedSlot(slotstore.Regular(2)) })

	_, err := f.rec.Capture(ctx)
	require.NoError(t, err)
	captured, err := f.rec.Buffer()
	require.NoError(t, err)

	res, err := f.rec.Save(ctx)
	require.NoError(t, err)
	assert.Equal(t, slotstore.Regular(2), res.Slot)
	assert.Equal(t, "a2", res.Stream)
	assert.False(t, res.RunComplete)

	st := f.rec.Status()
	assert.Equal(t, Loaded, st.State)
	assert.Equal(t, slotstore.Regular(2), st.Slot)

	// A fresh process reads back the identical trace.
	g := newFixtureOn(t, f.store, f.mem, nil)
	require.NoError(t, g.rec.Load(ctx, slotstore.Regular(2)))
	loaded, err := g.rec.Buffer()
	require.NoError(t, err)
	assert.Equal(t, captured.Frames(), loaded.Frames())
}

func TestSave_CancelledCaptureKeepsZeros(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, func(cfg *Config) { cfg.Chooser = FixedSlot(slotstore.Regular(1)) })
	f.cancel.set(3)

	_, err := f.rec.Capture(ctx)
	require.NoError(t, err)
	_, err = f.rec.Save(ctx)
	require.NoError(t, err)

	buf, err := f.store.Read(ctx, slotstore.Regular(1))
	require.NoError(t, err)
	assert.Equal(t, 10, buf.Len(), "a cancelled capture still saves a full-length trace")
	for i := 3; i < buf.Len(); i++ {
		assert.True(t, buf.At(i).IsZero())
	}
}

func TestSave_NothingToSave(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, func(cfg *Config) { cfg.Chooser = FixedSlot(slotstore.Regular(1)) })

	_, err := f.rec.Save(ctx)
	assert.ErrorIs(t, err, ErrNothingToSave)

	require.NoError(t, f.rec.Load(ctx, slotstore.None()))
	_, err = f.rec.Save(ctx)
	assert.ErrorIs(t, err, ErrNothingToSave)

	require.NoError(t, f.rec.Load(ctx, slotstore.Hardcoded()))
	_, err = f.rec.Save(ctx)
	assert.ErrorIs(t, err, ErrNothingToSave)
}

func TestSave_ChooserNoneSkips(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, func(cfg *Config) { cfg.Chooser = FixedSlot(slotstore.None()) })

	_, err := f.rec.Capture(ctx)
	require.NoError(t, err)

	res, err := f.rec.Save(ctx)
	require.NoError(t, err)
	assert.True(t, res.Slot.IsNone())

	entries, err := f.store.List(ctx)
	require.NoError(t, err)
	for _, e := range entries {
		assert.True(t, e.Empty, "%s should be empty", e.Name)
	}
	assert.Equal(t, Captured, f.rec.Status().State)
}

func TestSave_NoChooser(t *testing.T) {
	f := newFixture(t, nil)
	_, err := f.rec.Capture(context.Background())
	require.NoError(t, err)

	_, err = f.rec.Save(context.Background())
	assert.ErrorIs(t, err, ErrNoChooser)
}

func TestSave_Hardcoded(t *testing.T) {
	f := newFixture(t, func(cfg *Config) { cfg.Chooser = FixedSlot(slotstore.Hardcoded()) })
	_, err := f.rec.Capture(context.Background())
	require.NoError(t, err)

	_, err = f.rec.Save(context.Background())
	assert.ErrorIs(t, err, slotstore.ErrNoBackingStream)
}

func TestSave_SkillsCursorWraps(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, func(cfg *Config) { cfg.Chooser = FixedSlot(slotstore.Regular(5)) })
	require.NoError(t, f.rec.BeginSkillsRun())

	for k := 0; k < 4; k++ {
		_, err := f.rec.Capture(ctx)
		require.NoError(t, err)

		res, err := f.rec.Save(ctx)
		require.NoError(t, err)
		assert.Equal(t, slotstore.SkillsSegment(k), res.Slot)
		assert.Equal(t, k == 3, res.RunComplete, "segment %d", k)

		st := f.rec.Status()
		assert.Equal(t, slotstore.Skills(), st.Slot)
		assert.Equal(t, k, st.ResidentSegment)
		assert.Equal(t, (k+1)%4, st.SkillsCursor)
		assert.Equal(t, k < 3, st.SkillsRecording)
	}

	for k := 0; k < 4; k++ {
		ok, err := f.store.Exists(ctx, slotstore.SkillsSegment(k))
		require.NoError(t, err)
		assert.True(t, ok, "p%d", k)
	}
	ok, err := f.store.Exists(ctx, slotstore.Regular(5))
	require.NoError(t, err)
	assert.False(t, ok, "the chooser is not consulted during a run")

	// After the run completes the chooser is back in charge.
	res, err := f.rec.Save(ctx)
	require.NoError(t, err)
	assert.Equal(t, slotstore.Regular(5), res.Slot)
}

func TestSave_ChooserSkillsBeginsRun(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, func(cfg *Config) { cfg.Chooser = FixedSlot(slotstore.Skills()) })
	require.NoError(t, f.rec.Restore(Snapshot{}))

	_, err := f.rec.Capture(ctx)
	require.NoError(t, err)
	res, err := f.rec.Save(ctx)
	require.NoError(t, err)

	assert.Equal(t, slotstore.SkillsSegment(0), res.Slot)
	assert.Equal(t, "p0", res.Stream)
	st := f.rec.Status()
	assert.True(t, st.SkillsRecording)
	assert.Equal(t, 1, st.SkillsCursor)
}

func TestSave_FailureKeepsCursor(t *testing.T) {
	ctx := context.Background()
	backend := &failingBackend{Backend: slotstore.NewMemoryBackend()}
	store, err := slotstore.New(slotstore.Config{Backend: backend, Timing: testTiming})
	require.NoError(t, err)
	f := newFixtureOn(t, store, nil, nil)

	require.NoError(t, f.rec.BeginSkillsRun())
	_, err = f.rec.Capture(ctx)
	require.NoError(t, err)
	_, err = f.rec.Save(ctx)
	require.NoError(t, err)
	before := f.rec.Status()

	backend.setFail(true)
	_, err = f.rec.Save(ctx)
	require.Error(t, err)
	assert.Equal(t, slotstore.CategoryIO, slotstore.Classify(err))

	after := f.rec.Status()
	assert.Equal(t, before.SkillsCursor, after.SkillsCursor)
	assert.Equal(t, 1, after.SkillsCursor)
	assert.True(t, after.SkillsRecording)
	assert.Equal(t, before.Slot, after.Slot)

	backend.setFail(false)
	res, err := f.rec.Save(ctx)
	require.NoError(t, err)
	assert.Equal(t, slotstore.SkillsSegment(1), res.Slot, "the failed segment is retried")
}

func TestAbortSkillsRun(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, func(cfg *Config) { cfg.Chooser = FixedSlot(slotstore.Regular(3)) })
	require.NoError(t, f.rec.BeginSkillsRun())
	_, err := f.rec.Capture(ctx)
	require.NoError(t, err)
	_, err = f.rec.Save(ctx)
	require.NoError(t, err)

	require.NoError(t, f.rec.AbortSkillsRun())
	st := f.rec.Status()
	assert.False(t, st.SkillsRecording)
	assert.Zero(t, st.SkillsCursor)

	res, err := f.rec.Save(ctx)
	require.NoError(t, err)
	assert.Equal(t, slotstore.Regular(3), res.Slot)

	ok, err := f.store.Exists(ctx, slotstore.SkillsSegment(0))
	require.NoError(t, err)
	assert.True(t, ok, "saved segments stay in storage")
}

func TestLoad_NotFoundLeavesSessionUntouched(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	_, err := f.rec.Capture(ctx)
	require.NoError(t, err)
	before, err := f.rec.Buffer()
	require.NoError(t, err)

	err = f.rec.Load(ctx, slotstore.Regular(3))
	require.ErrorIs(t, err, slotstore.ErrNotFound)

	after, err := f.rec.Buffer()
	require.NoError(t, err)
	assert.Equal(t, before.Frames(), after.Frames())
	assert.Equal(t, Captured, f.rec.Status().State)
}

func TestLoad_ShortStreamIsRejected(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	f.mem.Put("a4", trace.MarshalFrames(patternBuffer(1).Frames()[:7]))

	err := f.rec.Load(ctx, slotstore.Regular(4))
	require.ErrorIs(t, err, slotstore.ErrMalformedFrame)

	var short *slotstore.ShortReadError
	require.ErrorAs(t, err, &short)
	assert.Equal(t, 7, short.Decoded)

	assert.Equal(t, Unloaded, f.rec.Status().State)
	buf, err := f.rec.Buffer()
	require.NoError(t, err)
	for _, fr := range buf.Frames() {
		assert.True(t, fr.IsZero())
	}
}

func TestLoad_SameSlotIsNotReread(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	want := f.seed(t, slotstore.Regular(1), 10)
	require.NoError(t, f.rec.Load(ctx, slotstore.Regular(1)))

	f.seed(t, slotstore.Regular(1), 90)
	require.NoError(t, f.rec.Load(ctx, slotstore.Regular(1)))

	buf, err := f.rec.Buffer()
	require.NoError(t, err)
	assert.Equal(t, want.Frames(), buf.Frames())
}

func TestLoad_SpecialSlots(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)

	require.NoError(t, f.rec.Load(ctx, slotstore.None()))
	st := f.rec.Status()
	assert.Equal(t, Loaded, st.State)
	assert.True(t, st.Slot.IsNone())

	require.NoError(t, f.rec.Load(ctx, slotstore.Hardcoded()))
	assert.Equal(t, slotstore.Hardcoded(), f.rec.Status().Slot)

	assert.Error(t, f.rec.Load(ctx, slotstore.Regular(11)))
}

func TestLoad_SkillsReadsFirstSegment(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, nil)
	want := f.seed(t, slotstore.SkillsSegment(0), 10)
	f.seed(t, slotstore.SkillsSegment(1), 30)

	require.NoError(t, f.rec.Load(ctx, slotstore.Skills()))

	buf, err := f.rec.Buffer()
	require.NoError(t, err)
	assert.Equal(t, want.Frames(), buf.Frames())
	st := f.rec.Status()
	assert.Equal(t, slotstore.Skills(), st.Slot)
	assert.Zero(t, st.ResidentSegment)
}
