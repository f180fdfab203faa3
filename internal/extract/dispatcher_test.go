package extract

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/hyperjump/crmsheet/internal/models"
)

type memSheet struct {
	name string
	rows []models.Row
	err  error
}

func (s memSheet) Name() string                { return s.name }
func (s memSheet) Rows() ([]models.Row, error) { return s.rows, s.err }

func noEmit(context.Context, *models.ExtractedTable) error { return nil }

func TestDispatcher_invokesRecognizedSheetsInOrder(t *testing.T) {
	var calls []string
	record := func(ctx context.Context, ws Worksheet, emit Emit) error {
		calls = append(calls, ws.Name())
		return nil
	}
	d := NewDispatcher(map[string]Handler{"First": record, "Second": record})
	sheets := []Worksheet{memSheet{name: "Second"}, memSheet{name: "Other"}, memSheet{name: "First"}}

	handled, err := d.Dispatch(context.Background(), sheets, noEmit)
	require.NoError(t, err)
	assert.Equal(t, []string{"Second", "First"}, calls)
	assert.Equal(t, []string{"Second", "First"}, handled)
}

func TestDispatcher_unrecognizedSheetNeverReachesSink(t *testing.T) {
	emitted := 0
	emit := func(context.Context, *models.ExtractedTable) error {
		emitted++
		return nil
	}
	d := NewRangeDispatcher(DefaultSheetRanges())
	sheets := []Worksheet{memSheet{name: "Other Sheet", rows: rowsOf(models.Cell{Ref: "C3", Value: "x"})}}

	handled, err := d.Dispatch(context.Background(), sheets, emit)
	require.NoError(t, err)
	assert.Empty(t, handled)
	assert.Zero(t, emitted)
}

func TestDispatcher_handlerFailureStopsDispatch(t *testing.T) {
	boom := errors.New("boom")
	var calls []string
	d := NewDispatcher(map[string]Handler{
		"A": func(ctx context.Context, ws Worksheet, emit Emit) error { calls = append(calls, "A"); return boom },
		"B": func(ctx context.Context, ws Worksheet, emit Emit) error { calls = append(calls, "B"); return nil },
	})
	_, err := d.Dispatch(context.Background(), []Worksheet{memSheet{name: "A"}, memSheet{name: "B"}}, noEmit)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	var ee *ExtractionError
	require.ErrorAs(t, err, &ee)
	assert.Equal(t, "A", ee.Sheet)
	assert.Equal(t, []string{"A"}, calls)
}

func TestDispatcher_copiesTable(t *testing.T) {
	table := map[string]Handler{"A": func(context.Context, Worksheet, Emit) error { return nil }}
	d := NewDispatcher(table)
	delete(table, "A")
	assert.True(t, d.Recognizes("A"))
	assert.False(t, d.Recognizes("B"))
}

func TestRangeHandler_emitsBusinessSummary(t *testing.T) {
	var tables []*models.ExtractedTable
	d := NewRangeDispatcher(DefaultSheetRanges())
	sheet := memSheet{name: BusinessSummarySheet, rows: rowsOf(
		models.Cell{Ref: "B3", Value: "ignored"},
		models.Cell{Ref: "C3", Value: "Revenue"},
		models.Cell{Ref: "D3", Value: "1000"},
	)}

	_, err := d.Dispatch(context.Background(), []Worksheet{sheet}, Collect(&tables))
	require.NoError(t, err)
	require.Len(t, tables, 1)
	assert.Equal(t, BusinessSummarySheet, tables[0].Sheet)
	assert.Equal(t, "C3:D15", tables[0].Range)
	assert.Equal(t, map[string]string{"C3": "Revenue", "D3": "1000"}, tables[0].Cells)
}

func TestRangeHandler_parseErrorEmitsNothing(t *testing.T) {
	var tables []*models.ExtractedTable
	h := RangeHandler([]models.RangeBoundary{{Start: "C3", End: "D15"}, {Start: "C17", End: "D22"}})
	sheet := memSheet{name: "S", rows: rowsOf(models.Cell{Ref: "C3", Value: "ok"}, models.Cell{Ref: "C"})}

	err := h(context.Background(), sheet, Collect(&tables))
	assert.ErrorIs(t, err, ErrParse)
	assert.Empty(t, tables)
}

func TestRangeHandler_rowsError(t *testing.T) {
	boom := errors.New("read failed")
	h := RangeHandler(BusinessSummaryRanges)
	err := h(context.Background(), memSheet{name: "S", err: boom}, noEmit)
	assert.ErrorIs(t, err, boom)
}

func TestDispatcher_logsHandlerEntry(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	d := NewRangeDispatcher(DefaultSheetRanges(), WithLogger(zap.New(core)))
	sheets := []Worksheet{
		memSheet{name: "Cover"},
		memSheet{name: BusinessSummarySheet},
	}

	_, err := d.Dispatch(context.Background(), sheets, noEmit)
	require.NoError(t, err)
	entries := logs.FilterMessage("processing sheet").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, BusinessSummarySheet, entries[0].ContextMap()["sheet"])
}
