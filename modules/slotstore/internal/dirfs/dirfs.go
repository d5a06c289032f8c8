// Package dirfs stores each named stream as one file in a directory.
package dirfs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Dir is a directory of stream files.
type Dir struct {
	root string
}

// New returns a backend rooted at root. The directory is created lazily
// on the first write.
func New(root string) (*Dir, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("dirfs: root directory is required")
	}
	return &Dir{root: filepath.Clean(root)}, nil
}

// Root returns the backing directory.
func (d *Dir) Root() string { return d.root }

func (d *Dir) path(name string) (string, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", fmt.Errorf("dirfs: invalid stream name %q", name)
	}
	return filepath.Join(d.root, name), nil
}

// Create opens name for writing, truncating prior contents.
func (d *Dir) Create(ctx context.Context, name string) (io.WriteCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := d.path(name)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(d.root, 0o755); err != nil {
		return nil, err
	}
	return os.Create(p)
}

// Open opens name for reading. Missing streams satisfy
// errors.Is(err, fs.ErrNotExist).
func (d *Dir) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p, err := d.path(name)
	if err != nil {
		return nil, err
	}
	return os.Open(p)
}

// Stat returns the size of name in bytes.
func (d *Dir) Stat(ctx context.Context, name string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	p, err := d.path(name)
	if err != nil {
		return 0, err
	}
	info, err := os.Stat(p)
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

// Remove deletes name.
func (d *Dir) Remove(ctx context.Context, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p, err := d.path(name)
	if err != nil {
		return err
	}
	return os.Remove(p)
}

// Close is a no-op; files are closed by their handles.
func (d *Dir) Close() error { return nil }
