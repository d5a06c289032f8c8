package slotstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSlot(t *testing.T) {
	tests := map[string]Slot{
		"":          None(),
		"none":      None(),
		"3":         Regular(3),
		"skills":    Skills(),
		"Skills:2":  SkillsSegment(2),
		"hardcoded": Hardcoded(),
	}
	for in, want := range tests {
		got, err := ParseSlot(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, bad := range []string{"x", "skills:x", "1.5"} {
		_, err := ParseSlot(bad)
		assert.Error(t, err, bad)
	}
}

func TestSlot_StringRoundTrip(t *testing.T) {
	for _, s := range []Slot{None(), Regular(1), Regular(10), Skills(), SkillsSegment(3), Hardcoded()} {
		got, err := ParseSlot(s.String())
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}
}

func TestLayout_Check(t *testing.T) {
	l := DefaultLayout
	assert.NoError(t, l.Check(Regular(1)))
	assert.NoError(t, l.Check(Regular(10)))
	assert.Error(t, l.Check(Regular(0)))
	assert.Error(t, l.Check(Regular(11)))
	assert.NoError(t, l.Check(SkillsSegment(3)))
	assert.Error(t, l.Check(SkillsSegment(4)))
	assert.NoError(t, l.Check(None()))
	assert.Len(t, l.Slots(), 14)
}

func TestSlot_HasStream(t *testing.T) {
	assert.True(t, Regular(1).HasStream())
	assert.True(t, Skills().HasStream())
	assert.True(t, SkillsSegment(0).HasStream())
	assert.False(t, None().HasStream())
	assert.False(t, Hardcoded().HasStream())
}
