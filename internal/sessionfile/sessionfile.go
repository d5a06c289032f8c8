// Package sessionfile keeps the recorder session between CLI
// invocations, so a composite run can span several record commands.
package sessionfile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/e7canasta/motion-recorder/modules/recorder"
	"github.com/e7canasta/motion-recorder/modules/slotstore"
)

// Version is the record layout written by Save.
const Version = 1

// Record is the on-disk session.
type Record struct {
	Version         int       `msgpack:"v"`
	SkillsRecording bool      `msgpack:"skills_recording"`
	SkillsCursor    int       `msgpack:"skills_cursor"`
	LastSaved       string    `msgpack:"last_saved"`
	UpdatedAt       time.Time `msgpack:"updated_at"`
}

// FromSnapshot converts a recorder snapshot.
func FromSnapshot(s recorder.Snapshot, now time.Time) Record {
	return Record{
		Version:         Version,
		SkillsRecording: s.SkillsRecording,
		SkillsCursor:    s.SkillsCursor,
		LastSaved:       s.LastSaved.String(),
		UpdatedAt:       now,
	}
}

// Snapshot converts the record back.
func (r Record) Snapshot() (recorder.Snapshot, error) {
	last, err := slotstore.ParseSlot(r.LastSaved)
	if err != nil {
		return recorder.Snapshot{}, fmt.Errorf("sessionfile: last saved slot: %w", err)
	}
	return recorder.Snapshot{
		SkillsRecording: r.SkillsRecording,
		SkillsCursor:    r.SkillsCursor,
		LastSaved:       last,
	}, nil
}

// Load reads the session at path. A missing file yields a fresh record
// and no error.
func Load(path string) (Record, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Record{Version: Version, LastSaved: slotstore.None().String()}, nil
	}
	if err != nil {
		return Record{}, fmt.Errorf("sessionfile: read %s: %w", path, err)
	}

	var rec Record
	if err := msgpack.Unmarshal(data, &rec); err != nil {
		return Record{}, fmt.Errorf("sessionfile: decode %s: %w", path, err)
	}
	if rec.Version != Version {
		return Record{}, fmt.Errorf("sessionfile: %s has version %d, want %d", path, rec.Version, Version)
	}
	return rec, nil
}

// Save writes rec to path atomically (temp file + rename).
func Save(path string, rec Record) error {
	rec.Version = Version
	data, err := msgpack.Marshal(&rec)
	if err != nil {
		return fmt.Errorf("sessionfile: encode: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("sessionfile: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return fmt.Errorf("sessionfile: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("sessionfile: write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("sessionfile: write: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("sessionfile: %w", err)
	}
	return nil
}
