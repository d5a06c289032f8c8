package slotstore

import (
	"context"
	"io"

	"github.com/e7canasta/motion-recorder/modules/slotstore/internal/dirfs"
	"github.com/e7canasta/motion-recorder/modules/slotstore/internal/memfs"
	"github.com/e7canasta/motion-recorder/modules/slotstore/internal/sqlitedb"
)

// Backend is the named byte-stream store the Store reads and writes
// through. It is the storage collaborator: open/read/write/close by name.
//
// Implementations must guarantee:
//   - Create truncates (or atomically replaces) prior contents
//   - Open and Stat on a missing name return an error satisfying
//     errors.Is(err, fs.ErrNotExist)
//   - readers and writers returned are used by one goroutine at a time
type Backend interface {
	// Create opens name for writing.
	Create(ctx context.Context, name string) (io.WriteCloser, error)

	// Open opens name for sequential reading.
	Open(ctx context.Context, name string) (io.ReadCloser, error)

	// Stat returns the stream size in bytes.
	Stat(ctx context.Context, name string) (int64, error)

	// Remove deletes name.
	Remove(ctx context.Context, name string) error

	// Close releases backend resources.
	Close() error
}

// Aborter is implemented by writers that can drop a write in progress.
// Store.Write calls Abort instead of Close when encoding fails, so a
// backend that replaces streams atomically keeps the previous contents.
type Aborter interface {
	Abort() error
}

// DirBackend is re-exported from internal/dirfs.
type DirBackend = dirfs.Dir

// SQLiteBackend is re-exported from internal/sqlitedb.
type SQLiteBackend = sqlitedb.DB

// MemoryBackend is re-exported from internal/memfs.
type MemoryBackend = memfs.FS

// NewDirBackend stores one file per stream under root, the layout of
// the robot brain's flash file system.
func NewDirBackend(root string) (*DirBackend, error) {
	return dirfs.New(root)
}

// OpenSQLiteBackend stores streams as blobs in the SQLite database at
// path, creating it if needed.
func OpenSQLiteBackend(path string) (*SQLiteBackend, error) {
	return sqlitedb.Open(path)
}

// NewMemoryBackend keeps streams in memory. Used by tests and the
// simulator.
func NewMemoryBackend() *MemoryBackend {
	return memfs.New()
}

var (
	_ Backend = (*DirBackend)(nil)
	_ Backend = (*SQLiteBackend)(nil)
	_ Backend = (*MemoryBackend)(nil)
)
