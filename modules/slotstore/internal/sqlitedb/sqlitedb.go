// Package sqlitedb stores named streams as blobs in a SQLite database.
//
// Writers buffer in memory and upsert on Close, so a stream is replaced
// atomically: a write that is aborted, or whose upsert fails, leaves the
// previous contents in place.
package sqlitedb

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS streams (
	name       TEXT PRIMARY KEY,
	data       BLOB NOT NULL,
	updated_at INTEGER NOT NULL
);`

// DB is a SQLite-backed stream store.
type DB struct {
	sqlDB *sql.DB
}

// Open opens (or creates) the database at path and applies the schema.
func Open(path string) (*DB, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlitedb: database path is required")
	}
	dsn := filepath.Clean(path) + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlitedb: open: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("sqlitedb: ping: %w", err)
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("sqlitedb: apply schema: %w", err)
	}
	return &DB{sqlDB: sqlDB}, nil
}

// Close closes the database handle.
func (d *DB) Close() error {
	if d == nil || d.sqlDB == nil {
		return nil
	}
	return d.sqlDB.Close()
}

// Create returns a writer that stores name when closed.
func (d *DB) Create(ctx context.Context, name string) (io.WriteCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &blobWriter{ctx: ctx, db: d, name: name}, nil
}

// Open returns a reader over the stored blob. Missing streams satisfy
// errors.Is(err, fs.ErrNotExist).
func (d *DB) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	var data []byte
	err := d.sqlDB.QueryRowContext(ctx, `SELECT data FROM streams WHERE name = ?`, name).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("sqlitedb: %s: %w", name, fs.ErrNotExist)
	}
	if err != nil {
		return nil, fmt.Errorf("sqlitedb: select %s: %w", name, err)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

// Stat returns the blob length.
func (d *DB) Stat(ctx context.Context, name string) (int64, error) {
	var size int64
	err := d.sqlDB.QueryRowContext(ctx, `SELECT length(data) FROM streams WHERE name = ?`, name).Scan(&size)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("sqlitedb: %s: %w", name, fs.ErrNotExist)
	}
	if err != nil {
		return 0, fmt.Errorf("sqlitedb: stat %s: %w", name, err)
	}
	return size, nil
}

// Remove deletes name.
func (d *DB) Remove(ctx context.Context, name string) error {
	res, err := d.sqlDB.ExecContext(ctx, `DELETE FROM streams WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("sqlitedb: delete %s: %w", name, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlitedb: delete %s: %w", name, err)
	}
	if n == 0 {
		return fmt.Errorf("sqlitedb: %s: %w", name, fs.ErrNotExist)
	}
	return nil
}

type blobWriter struct {
	ctx    context.Context
	db     *DB
	name   string
	buf    bytes.Buffer
	closed bool
}

func (w *blobWriter) Write(p []byte) (int, error) {
	if w.closed {
		return 0, fs.ErrClosed
	}
	return w.buf.Write(p)
}

func (w *blobWriter) Close() error {
	if w.closed {
		return fs.ErrClosed
	}
	w.closed = true
	_, err := w.db.sqlDB.ExecContext(w.ctx, `
INSERT INTO streams (name, data, updated_at) VALUES (?, ?, ?)
ON CONFLICT(name) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		w.name, append([]byte{}, w.buf.Bytes()...), time.Now().UTC().UnixMilli())
	if err != nil {
		return fmt.Errorf("sqlitedb: upsert %s: %w", w.name, err)
	}
	return nil
}

// Abort drops the buffered data without touching the stored stream.
func (w *blobWriter) Abort() error {
	if w.closed {
		return fs.ErrClosed
	}
	w.closed = true
	w.buf.Reset()
	return nil
}
