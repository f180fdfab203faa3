// Package extract reads spreadsheet documents and extracts fixed cell ranges
// from recognized sheets.
package extract

import (
	"context"
	"fmt"
	"os"

	"github.com/hyperjump/crmsheet/internal/models"
)

// Extractor opens spreadsheet documents and routes their sheets through a
// dispatcher built once from a sheet → ranges table.
type Extractor struct {
	dispatcher *Dispatcher
}

// NewExtractor returns an Extractor for the given sheet → ranges table.
// A nil or empty table uses DefaultSheetRanges.
func NewExtractor(sheets map[string][]models.RangeBoundary, opts ...Option) *Extractor {
	if len(sheets) == 0 {
		sheets = DefaultSheetRanges()
	}
	return &Extractor{dispatcher: NewRangeDispatcher(sheets, opts...)}
}

// Extract reads the spreadsheet at path and extracts it; see ExtractBytes.
func (e *Extractor) Extract(ctx context.Context, path string, emit Emit) ([]string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return e.ExtractBytes(ctx, content, emit)
}

// ExtractBytes opens content as a workbook, dispatches its sheets and passes
// every extracted table to emit. The workbook is closed on every return path.
// Returns the names of the sheets that were handled.
func (e *Extractor) ExtractBytes(ctx context.Context, content []byte, emit Emit) ([]string, error) {
	wb, err := OpenWorkbook(content)
	if err != nil {
		return nil, err
	}
	defer wb.Close()
	return e.dispatcher.Dispatch(ctx, wb.Sheets(), emit)
}

// Collect returns an Emit that appends tables to dst.
func Collect(dst *[]*models.ExtractedTable) Emit {
	return func(_ context.Context, t *models.ExtractedTable) error {
		*dst = append(*dst, t)
		return nil
	}
}
