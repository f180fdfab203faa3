package storage

import (
	"context"
	"fmt"

	"github.com/hyperjump/crmsheet/internal/models"
)

// Summarize collects record and cell counts plus the on-disk size of the
// database at dbPath. Loader, sink and watch fields are left for the caller.
func Summarize(ctx context.Context, s Storage, dbPath string) (*models.Status, error) {
	records, err := s.CountRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("count records: %w", err)
	}
	cells, err := s.CountCells(ctx)
	if err != nil {
		return nil, fmt.Errorf("count cells: %w", err)
	}
	st := &models.Status{Records: records, Cells: cells, DatabasePath: dbPath}
	if size, err := DatabaseSizeBytes(dbPath); err == nil {
		st.DatabaseSizeBytes = size
	}
	return st, nil
}
