package processor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/crmsheet/internal/models"
	"github.com/hyperjump/crmsheet/internal/recordid"
	"github.com/hyperjump/crmsheet/internal/storage"
)

// Importer places spreadsheet files into the record store.
type Importer struct {
	store  storage.Storage
	logger *zap.Logger
}

// NewImporter returns an importer writing to store.
func NewImporter(store storage.Storage, logger *zap.Logger) *Importer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Importer{store: store, logger: logger}
}

// ImportBytes stores content as a record. An empty id gets a fresh random one.
// Returns the record id.
func (im *Importer) ImportBytes(ctx context.Context, id, name string, content []byte) (string, error) {
	if id == "" {
		id = recordid.New()
	} else {
		canonical, err := recordid.Parse(id)
		if err != nil {
			return "", fmt.Errorf("%w %q: %v", ErrInvalidRecordID, id, err)
		}
		id = canonical
	}
	rec := &models.Record{ID: id, Name: name, Content: content}
	if err := im.store.CreateRecord(ctx, rec); err != nil {
		return "", fmt.Errorf("failed to store record: %w", err)
	}
	im.logger.Debug("record imported", zap.String("record_id", id), zap.String("name", name), zap.Int64("size", rec.Size))
	return id, nil
}

// ImportFile reads the file at path and stores it under an id derived from its
// absolute path, so importing the same path again replaces the record. If
// allowedExts is non-empty the file's extension must be in it (case-insensitive).
func (im *Importer) ImportFile(ctx context.Context, path string, allowedExts []string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("absolute path: %w", err)
	}
	if len(allowedExts) > 0 && !extensionAllowed(filepath.Ext(absPath), allowedExts) {
		return "", fmt.Errorf("extension %q not in allowed list", filepath.Ext(absPath))
	}
	info, err := os.Stat(absPath)
	if err != nil {
		return "", fmt.Errorf("stat file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("not a regular file: %s", absPath)
	}
	content, err := os.ReadFile(absPath)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	return im.ImportBytes(ctx, recordid.FromPath(absPath), filepath.Base(absPath), content)
}

// RemoveFile deletes the record imported from path, along with its cells.
func (im *Importer) RemoveFile(ctx context.Context, path string) (string, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("absolute path: %w", err)
	}
	id := recordid.FromPath(absPath)
	if err := im.store.DeleteRecord(ctx, id); err != nil {
		return "", fmt.Errorf("delete record: %w", err)
	}
	im.logger.Debug("record removed", zap.String("record_id", id), zap.String("path", absPath))
	return id, nil
}

func extensionAllowed(ext string, allowed []string) bool {
	extNorm := strings.ToLower(strings.TrimPrefix(ext, "."))
	for _, a := range allowed {
		if strings.ToLower(strings.TrimPrefix(a, ".")) == extNorm {
			return true
		}
	}
	return false
}
