package extract

import (
	"context"
	"fmt"

	"github.com/hyperjump/crmsheet/internal/models"
)

// BusinessSummarySheet is the sheet name recognized by default.
const BusinessSummarySheet = "Business Summary"

// BusinessSummaryRanges are the ranges extracted from the Business Summary sheet
// by default. C17:D22, A29:D34 and A38:D42 hold further tables that are not
// extracted yet.
var BusinessSummaryRanges = []models.RangeBoundary{
	{Start: "C3", End: "D15"},
}

// Emit receives each table a handler extracts.
type Emit func(ctx context.Context, table *models.ExtractedTable) error

// RangeHandler returns a handler that extracts each range from the sheet, in
// order, and passes every table to emit. Nothing is emitted for a sheet whose
// extraction fails.
func RangeHandler(ranges []models.RangeBoundary) Handler {
	ranges = append([]models.RangeBoundary(nil), ranges...)
	return func(ctx context.Context, ws Worksheet, emit Emit) error {
		rows, err := ws.Rows()
		if err != nil {
			return err
		}
		tables := make([]*models.ExtractedTable, 0, len(ranges))
		for _, r := range ranges {
			cells, err := ExtractTable(rows, r)
			if err != nil {
				return fmt.Errorf("extract %s: %w", r, err)
			}
			tables = append(tables, &models.ExtractedTable{
				Sheet: ws.Name(),
				Range: r.String(),
				Cells: cells,
			})
		}
		for _, t := range tables {
			if err := emit(ctx, t); err != nil {
				return err
			}
		}
		return nil
	}
}

// DefaultSheetRanges returns the built-in sheet → ranges table.
func DefaultSheetRanges() map[string][]models.RangeBoundary {
	return map[string][]models.RangeBoundary{
		BusinessSummarySheet: append([]models.RangeBoundary(nil), BusinessSummaryRanges...),
	}
}

// NewRangeDispatcher builds a dispatcher with one RangeHandler per sheet.
func NewRangeDispatcher(sheets map[string][]models.RangeBoundary, opts ...Option) *Dispatcher {
	handlers := make(map[string]Handler, len(sheets))
	for name, ranges := range sheets {
		handlers[name] = RangeHandler(ranges)
	}
	return NewDispatcher(handlers, opts...)
}
