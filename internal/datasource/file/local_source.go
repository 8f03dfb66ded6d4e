// Package file implements the local filesystem input source for the dealer
// and sales exports.
package file

import (
	"context"
	"fmt"
	"io"
	"os"
)

// Local opens a single export file from the local disk.
type Local struct{ path string }

// NewLocal returns a Local bound to path.
func NewLocal(path string) *Local { return &Local{path: path} }

// Path returns the configured path.
func (l *Local) Path() string { return l.path }

// Check verifies that the path exists and is a regular file without opening
// it. A missing path keeps fs.ErrNotExist in the error chain.
func (l *Local) Check() error {
	fi, err := os.Stat(l.path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", l.path, err)
	}
	if fi.IsDir() {
		return fmt.Errorf("%s is a directory, not a file", l.path)
	}
	return nil
}

// Open opens the configured path for reading. The caller owns the returned
// ReadCloser and must close it on every path.
//
// If ctx is already done, Open returns ctx.Err() without touching the
// filesystem. Filesystem errors are wrapped with the path and remain
// matchable with errors.Is (e.g. os.ErrNotExist).
func (l *Local) Open(ctx context.Context) (io.ReadCloser, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", l.path, err)
	}
	return f, nil
}
