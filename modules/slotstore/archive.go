package slotstore

import (
	"context"
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/e7canasta/motion-recorder/modules/trace"
)

// ArchiveVersion is the current archive document version.
const ArchiveVersion = 1

// Archive is a self-describing copy of one stored trace, used to move
// routines between robots or keep them under version control. The raw
// stream has no header, so the archive carries the timing it was
// recorded with.
type Archive struct {
	Version    int       `cbor:"version"`
	Slot       string    `cbor:"slot"`
	Name       string    `cbor:"name"`
	RateHz     int       `cbor:"rate_hz"`
	DurationMS int64     `cbor:"duration_ms"`
	Frames     []byte    `cbor:"frames"`
	ExportedAt time.Time `cbor:"exported_at"`
}

var (
	archiveEnc cbor.EncMode
	archiveDec cbor.DecMode
)

func init() {
	var err error
	// Core Deterministic Encoding: the same trace always produces the
	// same bytes.
	archiveEnc, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("slotstore: CBOR encoder initialization failed: " + err.Error())
	}
	archiveDec, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("slotstore: CBOR decoder initialization failed: " + err.Error())
	}
}

// MarshalArchive encodes a to CBOR.
func MarshalArchive(a *Archive) ([]byte, error) {
	return archiveEnc.Marshal(a)
}

// UnmarshalArchive decodes a CBOR archive.
func UnmarshalArchive(data []byte) (*Archive, error) {
	var a Archive
	if err := archiveDec.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("slotstore: decode archive: %w", err)
	}
	if a.Version != ArchiveVersion {
		return nil, fmt.Errorf("slotstore: unsupported archive version %d", a.Version)
	}
	return &a, nil
}

// Export reads slot into an archive.
func (s *Store) Export(ctx context.Context, slot Slot) (*Archive, error) {
	name, err := s.NameFor(slot)
	if err != nil {
		return nil, err
	}
	buf, err := s.Read(ctx, slot)
	if err != nil {
		return nil, err
	}
	return &Archive{
		Version:    ArchiveVersion,
		Slot:       slot.String(),
		Name:       name,
		RateHz:     s.timing.RateHz,
		DurationMS: s.timing.Duration.Milliseconds(),
		Frames:     trace.MarshalFrames(buf.Frames()),
		ExportedAt: s.now().UTC(),
	}, nil
}

// Import writes an archive into slot. The archive must match the store
// timing exactly.
func (s *Store) Import(ctx context.Context, a *Archive, slot Slot) error {
	if a.RateHz != s.timing.RateHz || a.DurationMS != s.timing.Duration.Milliseconds() {
		return fmt.Errorf("%w: archive %d Hz/%d ms, store %d Hz/%d ms", ErrTimingMismatch,
			a.RateHz, a.DurationMS, s.timing.RateHz, s.timing.Duration.Milliseconds())
	}
	frames, err := trace.UnmarshalFrames(a.Frames)
	if err != nil {
		return fmt.Errorf("slotstore: archive %q: %w", a.Name, err)
	}
	buf := trace.NewBuffer(s.timing)
	if len(frames) != buf.Len() {
		return &ShortReadError{Name: a.Name, Decoded: len(frames), Want: buf.Len()}
	}
	for i, f := range frames {
		buf.Set(i, f)
	}
	return s.Write(ctx, slot, buf)
}
