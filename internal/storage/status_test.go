package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/hyperjump/crmsheet/internal/models"
)

func TestSummarize(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.db")
	store, err := NewSQLiteStorage(path)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	ctx := context.Background()

	if err := store.CreateRecord(ctx, &models.Record{ID: recID, Name: "a.xlsx", Content: []byte("x")}); err != nil {
		t.Fatal(err)
	}
	cells := []*models.StoredCell{
		{RecordID: recID, Sheet: "Business Summary", Coordinate: "C3", Value: "Revenue"},
		{RecordID: recID, Sheet: "Business Summary", Coordinate: "D3", Value: "1000"},
	}
	if err := store.SaveCells(ctx, cells); err != nil {
		t.Fatal(err)
	}

	st, err := Summarize(ctx, store, path)
	if err != nil {
		t.Fatal(err)
	}
	if st.Records != 1 || st.Cells != 2 {
		t.Errorf("counts = %d records, %d cells", st.Records, st.Cells)
	}
	if st.DatabasePath != path {
		t.Errorf("DatabasePath = %s", st.DatabasePath)
	}
	if st.DatabaseSizeBytes <= 0 {
		t.Errorf("DatabaseSizeBytes = %d, want > 0", st.DatabaseSizeBytes)
	}
}
