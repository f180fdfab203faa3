// Package sink delivers extracted tables to the downstream data platform.
package sink

import (
	"context"
	"sort"

	"github.com/hyperjump/crmsheet/internal/extract"
	"github.com/hyperjump/crmsheet/internal/models"
)

// Sink accepts extracted tables for persistence.
type Sink interface {
	Accept(ctx context.Context, table *models.ExtractedTable) error
}

// Resetter is implemented by sinks that keep state per record. Reset drops
// what the sink holds for recordID before the record is extracted again.
type Resetter interface {
	Reset(ctx context.Context, recordID string) error
}

// Reset calls Reset on s when it implements Resetter.
func Reset(ctx context.Context, s Sink, recordID string) error {
	if r, ok := s.(Resetter); ok {
		return r.Reset(ctx, recordID)
	}
	return nil
}

// Func adapts a function to the Sink interface.
type Func func(ctx context.Context, table *models.ExtractedTable) error

// Accept calls f.
func (f Func) Accept(ctx context.Context, table *models.ExtractedTable) error {
	return f(ctx, table)
}

type multi []Sink

// Multi returns a sink that hands each table to every sink in order and stops
// at the first failure.
func Multi(sinks ...Sink) Sink {
	return multi(append([]Sink(nil), sinks...))
}

func (m multi) Accept(ctx context.Context, table *models.ExtractedTable) error {
	for _, s := range m {
		if err := s.Accept(ctx, table); err != nil {
			return err
		}
	}
	return nil
}

func (m multi) Reset(ctx context.Context, recordID string) error {
	for _, s := range m {
		if err := Reset(ctx, s, recordID); err != nil {
			return err
		}
	}
	return nil
}

// SortedRefs returns the table's coordinates ordered by row, then column.
// Coordinates that do not parse sort after the rest, lexically.
func SortedRefs(cells map[string]string) []string {
	refs := make([]string, 0, len(cells))
	for ref := range cells {
		refs = append(refs, ref)
	}
	sort.Slice(refs, func(i, j int) bool {
		a, errA := extract.ParseCoordinate(refs[i])
		b, errB := extract.ParseCoordinate(refs[j])
		switch {
		case errA != nil && errB != nil:
			return refs[i] < refs[j]
		case errA != nil:
			return false
		case errB != nil:
			return true
		case a.Row != b.Row:
			return a.Row < b.Row
		case a.Column != b.Column:
			return a.Column < b.Column
		}
		return refs[i] < refs[j]
	})
	return refs
}
