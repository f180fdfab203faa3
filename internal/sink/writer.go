package sink

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/hyperjump/crmsheet/internal/models"
)

// WriterSink writes each table as human-readable "<coordinate>: <value>" lines.
// It stands in for the data platform integration when none is configured.
type WriterSink struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterSink returns a sink writing to w.
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

// Accept writes a header naming the sheet and range, then one line per cell.
func (s *WriterSink) Accept(_ context.Context, table *models.ExtractedTable) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := fmt.Fprintf(s.w, "Pushing data from %q (%s):\n", table.Sheet, table.Range); err != nil {
		return err
	}
	for _, ref := range SortedRefs(table.Cells) {
		if _, err := fmt.Fprintf(s.w, "%s: %s\n", ref, table.Cells[ref]); err != nil {
			return err
		}
	}
	return nil
}
