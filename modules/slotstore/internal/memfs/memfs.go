// Package memfs keeps named streams in process memory.
package memfs

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"io/fs"
	"sync"
)

// FS is an in-memory stream store. Safe for concurrent use.
type FS struct {
	mu      sync.Mutex
	streams map[string][]byte
}

// New returns an empty store.
func New() *FS {
	return &FS{streams: make(map[string][]byte)}
}

// Create truncates name and returns a writer appending to it.
func (m *FS) Create(ctx context.Context, name string) (io.WriteCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.streams[name] = nil
	m.mu.Unlock()
	return &writer{fs: m, name: name}, nil
}

// Open returns a reader over a snapshot of name.
func (m *FS) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	data, ok := m.streams[name]
	m.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("memfs: %s: %w", name, fs.ErrNotExist)
	}
	return io.NopCloser(bytes.NewReader(bytes.Clone(data))), nil
}

// Stat returns the size of name.
func (m *FS) Stat(ctx context.Context, name string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.streams[name]
	if !ok {
		return 0, fmt.Errorf("memfs: %s: %w", name, fs.ErrNotExist)
	}
	return int64(len(data)), nil
}

// Remove deletes name.
func (m *FS) Remove(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.streams[name]; !ok {
		return fmt.Errorf("memfs: %s: %w", name, fs.ErrNotExist)
	}
	delete(m.streams, name)
	return nil
}

// Put replaces name with data. Test helper for seeding short or
// corrupt streams.
func (m *FS) Put(name string, data []byte) {
	m.mu.Lock()
	m.streams[name] = bytes.Clone(data)
	m.mu.Unlock()
}

// Close is a no-op.
func (m *FS) Close() error { return nil }

type writer struct {
	fs     *FS
	name   string
	closed bool
}

func (w *writer) Write(p []byte) (int, error) {
	if w.closed {
		return 0, fs.ErrClosed
	}
	w.fs.mu.Lock()
	w.fs.streams[w.name] = append(w.fs.streams[w.name], p...)
	w.fs.mu.Unlock()
	return len(p), nil
}

func (w *writer) Close() error {
	if w.closed {
		return fs.ErrClosed
	}
	w.closed = true
	return nil
}
