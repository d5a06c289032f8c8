package sessionfile

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/e7canasta/motion-recorder/modules/recorder"
	"github.com/e7canasta/motion-recorder/modules/slotstore"
)

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "autonrec.session")
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	snap := recorder.Snapshot{
		SkillsRecording: true,
		SkillsCursor:    2,
		LastSaved:       slotstore.SkillsSegment(1),
	}

	require.NoError(t, Save(path, FromSnapshot(snap, now)))

	rec, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "skills:1", rec.LastSaved)
	assert.True(t, rec.UpdatedAt.Equal(now))

	got, err := rec.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, snap, got)
}

func TestLoad_MissingIsFresh(t *testing.T) {
	rec, err := Load(filepath.Join(t.TempDir(), "none"))
	require.NoError(t, err)

	snap, err := rec.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, recorder.Snapshot{LastSaved: slotstore.None()}, snap)
}

func TestLoad_Rejects(t *testing.T) {
	dir := t.TempDir()

	garbage := filepath.Join(dir, "garbage")
	require.NoError(t, os.WriteFile(garbage, []byte{0xc1}, 0o644))
	_, err := Load(garbage)
	assert.ErrorContains(t, err, "decode")

	future := filepath.Join(dir, "future")
	data, err := msgpack.Marshal(&Record{Version: 99})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(future, data, 0o644))
	_, err = Load(future)
	assert.ErrorContains(t, err, "version 99")
}
