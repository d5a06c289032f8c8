package slotstore

import (
	"errors"
	"fmt"

	"github.com/e7canasta/motion-recorder/modules/trace"
)

var (
	// ErrNotFound means the slot has no stream yet. Expected and
	// non-fatal: callers surface it as "empty slot".
	ErrNotFound = errors.New("slotstore: slot is empty")

	// ErrNoBackingStream means a slot kind without a file representation
	// (None, Hardcoded) reached the storage layer. Programmer error.
	ErrNoBackingStream = errors.New("slotstore: slot has no backing stream")

	// ErrEndOfStream is returned by Prefetcher.NextInto once the segment
	// is exhausted.
	ErrEndOfStream = errors.New("slotstore: end of stream")

	// ErrTimingMismatch is returned when an archive was recorded with a
	// different rate or duration.
	ErrTimingMismatch = errors.New("slotstore: timing mismatch")

	// ErrMalformedFrame is the codec's short-frame error, re-exported so
	// callers only need this package.
	ErrMalformedFrame = trace.ErrMalformedFrame
)

// IOError reports a failed open, read, write or close on a stream.
type IOError struct {
	Op   string
	Name string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("slotstore: %s %q: %v", e.Op, e.Name, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// ShortReadError reports a stream holding fewer than the expected number
// of frames. Reads are strict: no partial buffer is returned.
type ShortReadError struct {
	Name    string
	Decoded int
	Want    int
}

func (e *ShortReadError) Error() string {
	return fmt.Sprintf("slotstore: stream %q is short: %d of %d frames", e.Name, e.Decoded, e.Want)
}

func (e *ShortReadError) Unwrap() error { return ErrMalformedFrame }

// ErrorCategory classifies storage failures for logging and display.
type ErrorCategory int

const (
	// CategoryNotFound is an empty slot.
	CategoryNotFound ErrorCategory = iota
	// CategoryIO is an open/read/write/close failure.
	CategoryIO
	// CategoryMalformed is a stream shorter than expected.
	CategoryMalformed
	// CategoryNoBackingStream is a slot kind with no stream.
	CategoryNoBackingStream
	// CategoryUnknown is anything else.
	CategoryUnknown
)

// String returns a human-readable category name.
func (c ErrorCategory) String() string {
	switch c {
	case CategoryNotFound:
		return "not_found"
	case CategoryIO:
		return "io_failure"
	case CategoryMalformed:
		return "malformed_frame"
	case CategoryNoBackingStream:
		return "no_backing_stream"
	default:
		return "unknown"
	}
}

// Classify maps an error returned by this package to its category.
// Most specific first: a short read wraps ErrMalformedFrame and an
// IOError may wrap anything.
func Classify(err error) ErrorCategory {
	var ioErr *IOError
	switch {
	case err == nil:
		return CategoryUnknown
	case errors.Is(err, ErrNotFound):
		return CategoryNotFound
	case errors.Is(err, ErrNoBackingStream):
		return CategoryNoBackingStream
	case errors.Is(err, ErrMalformedFrame):
		return CategoryMalformed
	case errors.As(err, &ioErr):
		return CategoryIO
	default:
		return CategoryUnknown
	}
}
