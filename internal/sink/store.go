package sink

import (
	"context"
	"fmt"

	"github.com/hyperjump/crmsheet/internal/models"
	"github.com/hyperjump/crmsheet/internal/storage"
)

// StoreSink persists tables into the record store's extracted_cells table.
type StoreSink struct {
	store storage.Storage
}

// NewStoreSink returns a sink backed by store.
func NewStoreSink(store storage.Storage) *StoreSink {
	return &StoreSink{store: store}
}

// Accept upserts every cell of table under its record and sheet.
func (s *StoreSink) Accept(ctx context.Context, table *models.ExtractedTable) error {
	if table.RecordID == "" {
		return fmt.Errorf("store sink: table for sheet %q has no record id", table.Sheet)
	}
	cells := make([]*models.StoredCell, 0, len(table.Cells))
	for _, ref := range SortedRefs(table.Cells) {
		cells = append(cells, &models.StoredCell{
			RecordID:   table.RecordID,
			Sheet:      table.Sheet,
			Coordinate: ref,
			Value:      table.Cells[ref],
		})
	}
	if err := s.store.SaveCells(ctx, cells); err != nil {
		return fmt.Errorf("save cells: %w", err)
	}
	return nil
}

// Reset removes the cells stored for recordID.
func (s *StoreSink) Reset(ctx context.Context, recordID string) error {
	if err := s.store.DeleteCells(ctx, recordID); err != nil {
		return fmt.Errorf("delete cells: %w", err)
	}
	return nil
}
