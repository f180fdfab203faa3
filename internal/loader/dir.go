package loader

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// DirLoader reads documents named "<id>.xlsx" from a directory.
type DirLoader struct {
	dir string
	ext string
}

// NewDirLoader returns a loader over dir.
func NewDirLoader(dir string) *DirLoader {
	return &DirLoader{dir: dir, ext: ".xlsx"}
}

// Fetch returns the bytes of <dir>/<id>.xlsx, or nil when the file does not exist.
func (l *DirLoader) Fetch(ctx context.Context, id string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if id == "" || strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return nil, fmt.Errorf("invalid record id %q", id)
	}
	content, err := os.ReadFile(filepath.Join(l.dir, id+l.ext))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	return content, nil
}
