// Package slotstore persists traces in named storage slots.
//
// # Slots
//
// A Slot is one of:
//
//	None                nothing selected (no-op)
//	Regular(n)          autonomous slot n in [1, MaxSlots]  → stream "a<n>"
//	Skills              the whole composite run              → starts at "p0"
//	SkillsSegment(k)    one quarter of the composite run     → stream "p<k>"
//	Hardcoded           built-in routine, no stream
//
// Stream names are limited to MaxNameLen bytes.
//
// # Storage
//
// Streams live in a Backend (the named byte-stream collaborator): a
// directory of files, a SQLite database or process memory. A stream is a
// flat sequence of 5-byte frames (see package trace), RateHz × Duration
// frames long.
//
// # Errors
//
// Store operations fail with one of:
//
//	ErrNotFound         slot is empty (expected, non-fatal)
//	*IOError            open/read/write/close failed
//	*ShortReadError     stream shorter than one trace (matches ErrMalformedFrame)
//	ErrNoBackingStream  None/Hardcoded reached storage (programmer error)
//
// Classify maps any of them to an ErrorCategory for logging. None of them
// leave a loaded buffer half-overwritten: Read is strict and returns no
// buffer on failure.
//
// # Composite prefetch
//
// StreamNext opens the next programming-skills segment and hands back a
// Prefetcher that decodes one frame per playback tick into the positions
// that were just played. See Prefetcher.
package slotstore
