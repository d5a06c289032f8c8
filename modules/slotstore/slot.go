package slotstore

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind discriminates slot identifiers.
type Kind uint8

const (
	// KindNone selects nothing; loading or playing it is a no-op.
	KindNone Kind = iota
	// KindRegular is a numbered autonomous slot backed by one stream.
	KindRegular
	// KindSkills is the whole composite (programming skills) run.
	KindSkills
	// KindSkillsSegment is one stored quarter of the composite run.
	KindSkillsSegment
	// KindHardcoded is the built-in routine with no storage representation.
	KindHardcoded
)

// String returns a human-readable kind name.
func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindRegular:
		return "regular"
	case KindSkills:
		return "skills"
	case KindSkillsSegment:
		return "skills-segment"
	case KindHardcoded:
		return "hardcoded"
	default:
		return "unknown"
	}
}

// Slot identifies a trace location. N is the slot number for
// KindRegular and the segment index for KindSkillsSegment; it is zero
// for every other kind.
type Slot struct {
	Kind Kind
	N    int
}

// None returns the empty selection.
func None() Slot { return Slot{Kind: KindNone} }

// Regular returns regular slot n (1-based).
func Regular(n int) Slot { return Slot{Kind: KindRegular, N: n} }

// Skills returns the whole composite run.
func Skills() Slot { return Slot{Kind: KindSkills} }

// SkillsSegment returns composite segment k (0-based).
func SkillsSegment(k int) Slot { return Slot{Kind: KindSkillsSegment, N: k} }

// Hardcoded returns the built-in fallback routine.
func Hardcoded() Slot { return Slot{Kind: KindHardcoded} }

// IsNone reports whether s is the empty selection.
func (s Slot) IsNone() bool { return s.Kind == KindNone }

// HasStream reports whether s maps to a named byte stream.
func (s Slot) HasStream() bool {
	switch s.Kind {
	case KindRegular, KindSkills, KindSkillsSegment:
		return true
	default:
		return false
	}
}

// String formats s in the syntax ParseSlot accepts.
func (s Slot) String() string {
	switch s.Kind {
	case KindNone:
		return "none"
	case KindRegular:
		return strconv.Itoa(s.N)
	case KindSkills:
		return "skills"
	case KindSkillsSegment:
		return "skills:" + strconv.Itoa(s.N)
	case KindHardcoded:
		return "hardcoded"
	default:
		return fmt.Sprintf("slot(%d,%d)", s.Kind, s.N)
	}
}

// ParseSlot parses "none", "<n>", "skills", "skills:<k>" or "hardcoded".
// Range checks against a Layout happen in Layout.Check.
func ParseSlot(s string) (Slot, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	switch v {
	case "", "none":
		return None(), nil
	case "skills":
		return Skills(), nil
	case "hardcoded":
		return Hardcoded(), nil
	}
	if rest, ok := strings.CutPrefix(v, "skills:"); ok {
		k, err := strconv.Atoi(rest)
		if err != nil {
			return Slot{}, fmt.Errorf("slotstore: invalid segment %q", rest)
		}
		return SkillsSegment(k), nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return Slot{}, fmt.Errorf("slotstore: invalid slot %q", s)
	}
	return Regular(n), nil
}

// MaxNameLen bounds stream names (the brain's flash file system limit).
const MaxNameLen = 8

// Layout bounds the slot space.
type Layout struct {
	// MaxSlots is the highest regular slot number.
	MaxSlots int
	// Segments is the number of segments in a composite run.
	Segments int
}

// DefaultLayout is 10 regular slots and a 4-segment composite run
// (60 s programming skills / 15 s per trace).
var DefaultLayout = Layout{MaxSlots: 10, Segments: 4}

// Validate checks the layout bounds.
func (l Layout) Validate() error {
	if l.MaxSlots < 1 {
		return fmt.Errorf("slotstore: max slots must be >= 1 (got %d)", l.MaxSlots)
	}
	if l.Segments < 1 {
		return fmt.Errorf("slotstore: segments must be >= 1 (got %d)", l.Segments)
	}
	return nil
}

// Check validates s against the layout.
func (l Layout) Check(s Slot) error {
	switch s.Kind {
	case KindNone, KindSkills, KindHardcoded:
		return nil
	case KindRegular:
		if s.N < 1 || s.N > l.MaxSlots {
			return fmt.Errorf("slotstore: regular slot %d out of range [1,%d]", s.N, l.MaxSlots)
		}
		return nil
	case KindSkillsSegment:
		if s.N < 0 || s.N >= l.Segments {
			return fmt.Errorf("slotstore: segment %d out of range [0,%d]", s.N, l.Segments-1)
		}
		return nil
	default:
		return fmt.Errorf("slotstore: unknown slot kind %d", s.Kind)
	}
}

// Slots enumerates every slot with a backing stream: regular slots
// first, then the composite segments.
func (l Layout) Slots() []Slot {
	out := make([]Slot, 0, l.MaxSlots+l.Segments)
	for n := 1; n <= l.MaxSlots; n++ {
		out = append(out, Regular(n))
	}
	for k := 0; k < l.Segments; k++ {
		out = append(out, SkillsSegment(k))
	}
	return out
}
