package recorder

import (
	"fmt"

	"github.com/e7canasta/motion-recorder/modules/slotstore"
)

// LoadState says where the live buffer's contents came from.
type LoadState uint8

const (
	// Unloaded means nothing has been captured or loaded yet.
	Unloaded LoadState = iota
	// Captured means the buffer holds a fresh, unsaved capture.
	Captured
	// Loaded means the buffer mirrors a slot (see Status.Slot).
	Loaded
)

func (s LoadState) String() string {
	switch s {
	case Unloaded:
		return "unloaded"
	case Captured:
		return "captured"
	case Loaded:
		return "loaded"
	default:
		return fmt.Sprintf("LoadState(%d)", s)
	}
}

// Phase is what the recorder is doing right now.
type Phase uint8

const (
	PhaseIdle Phase = iota
	PhaseCountdown
	PhaseCapturing
	PhaseLoading
	PhasePlaying
	PhaseSaving
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseCountdown:
		return "countdown"
	case PhaseCapturing:
		return "capturing"
	case PhaseLoading:
		return "loading"
	case PhasePlaying:
		return "playing"
	case PhaseSaving:
		return "saving"
	default:
		return fmt.Sprintf("Phase(%d)", p)
	}
}

// MixedSegment is Status.ResidentSegment when a cancelled composite run
// left the buffer holding parts of two segments.
const MixedSegment = -1

// Status is a snapshot of the recorder session.
type Status struct {
	State LoadState
	// Slot is the loaded slot when State is Loaded.
	Slot slotstore.Slot
	// ResidentSegment is the composite segment the buffer holds when Slot
	// is Skills, MixedSegment after a cancelled composite run, and 0
	// otherwise.
	ResidentSegment int

	// SkillsRecording is true between the first and last segment save
	// of a composite run; SkillsCursor is the next segment to save.
	SkillsRecording bool
	SkillsCursor    int

	Phase Phase
	// Segment is the composite segment being played when Phase is
	// PhasePlaying.
	Segment int
	// Run identifies the capture or playback run in progress.
	Run string
}

// Snapshot is the part of a session that survives a process restart.
// The buffer itself is not part of it.
type Snapshot struct {
	SkillsRecording bool
	SkillsCursor    int
	LastSaved       slotstore.Slot
}

// session is the mutable state behind Status. Guarded by Recorder.mu.
type session struct {
	state           LoadState
	slot            slotstore.Slot
	resident        int
	skillsRecording bool
	cursor          int
	lastSaved       slotstore.Slot

	phase   Phase
	segment int
	run     string
}

func (s *session) status() Status {
	return Status{
		State:           s.state,
		Slot:            s.slot,
		ResidentSegment: s.resident,
		SkillsRecording: s.skillsRecording,
		SkillsCursor:    s.cursor,
		Phase:           s.phase,
		Segment:         s.segment,
		Run:             s.run,
	}
}

// holds reports whether the buffer already mirrors slot from its start.
func (s *session) holds(slot slotstore.Slot) bool {
	return s.state == Loaded && s.slot == slot && s.resident == 0
}

func (s *session) setLoaded(slot slotstore.Slot, resident int) {
	s.state = Loaded
	s.slot = slot
	s.resident = resident
}

func (s *session) setCaptured() {
	s.state = Captured
	s.slot = slotstore.None()
	s.resident = 0
}

// advance moves the composite cursor past a saved segment. It reports
// whether the run just completed (cursor wrapped to 0).
func (s *session) advance(segments int) bool {
	s.skillsRecording = true
	s.cursor++
	if s.cursor >= segments {
		s.cursor = 0
		s.skillsRecording = false
		return true
	}
	return false
}
