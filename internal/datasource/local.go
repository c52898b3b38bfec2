package datasource

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Local is a filesystem data source.
type Local struct{ path string }

// NewLocal returns a Local source bound to path.
func NewLocal(path string) *Local { return &Local{path: path} }

// Name returns the path's base name.
func (l *Local) Name() string { return filepath.Base(l.path) }

// Open opens the file for reading. A context already canceled at call time
// returns the context error without touching the filesystem; filesystem
// errors are wrapped with the path while staying errors.Is-compatible
// (e.g. os.ErrNotExist).
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
