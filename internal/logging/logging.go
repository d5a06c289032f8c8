// Package logging builds the process logger: human-readable text on
// stderr, optionally fanned out to a JSON file.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	slogmulti "github.com/samber/slog-multi"
)

// Options configures New.
type Options struct {
	Level slog.Level
	// Console receives text output. Nil means os.Stderr.
	Console io.Writer
	// File, if set, also receives every record as JSON (appended).
	File string
}

// New returns the process logger and a close function for the log file.
func New(opts Options) (*slog.Logger, func() error, error) {
	console := opts.Console
	if console == nil {
		console = os.Stderr
	}
	handlerOpts := &slog.HandlerOptions{Level: opts.Level}

	handlers := []slog.Handler{slog.NewTextHandler(console, handlerOpts)}
	closeFn := func() error { return nil }

	if opts.File != "" {
		f, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("logging: open %s: %w", opts.File, err)
		}
		handlers = append(handlers, slog.NewJSONHandler(f, handlerOpts))
		closeFn = f.Close
	}

	return slog.New(slogmulti.Fanout(handlers...)), closeFn, nil
}
