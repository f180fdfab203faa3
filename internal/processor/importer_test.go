package processor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/hyperjump/crmsheet/internal/recordid"
	"github.com/hyperjump/crmsheet/internal/storage"
)

func TestExtensionAllowed(t *testing.T) {
	tests := []struct {
		ext     string
		allowed []string
		want    bool
	}{
		{".xlsx", []string{".xlsx", ".xlsm"}, true},
		{".XLSX", []string{".xlsx"}, true},
		{".xlsm", []string{"xlsm"}, true},
		{".csv", []string{".xlsx"}, false},
		{"", []string{".xlsx"}, false},
	}
	for _, tt := range tests {
		got := extensionAllowed(tt.ext, tt.allowed)
		if got != tt.want {
			t.Errorf("extensionAllowed(%q, %v) = %v, want %v", tt.ext, tt.allowed, got, tt.want)
		}
	}
}

func testImporter(t *testing.T) (*Importer, storage.Storage) {
	t.Helper()
	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "records.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return NewImporter(store, nil), store
}

func TestImportFile(t *testing.T) {
	im, store := testImporter(t)
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "summary.xlsx")
	if err := os.WriteFile(path, []byte("v1"), 0600); err != nil {
		t.Fatal(err)
	}

	id, err := im.ImportFile(ctx, path, []string{".xlsx"})
	if err != nil {
		t.Fatal(err)
	}
	if id != recordid.FromPath(path) {
		t.Errorf("id = %s, want path-derived id", id)
	}
	rec, err := store.GetRecord(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if rec.Name != "summary.xlsx" || string(rec.Content) != "v1" {
		t.Errorf("got %+v", rec)
	}

	// re-import replaces
	if err := os.WriteFile(path, []byte("v2"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := im.ImportFile(ctx, path, nil); err != nil {
		t.Fatal(err)
	}
	n, _ := store.CountRecords(ctx)
	if n != 1 {
		t.Errorf("expected 1 record, got %d", n)
	}

	if _, err := im.RemoveFile(ctx, path); err != nil {
		t.Fatal(err)
	}
	if _, err := store.GetRecord(ctx, id); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound after remove, got %v", err)
	}
}

func TestImportFile_rejected(t *testing.T) {
	im, _ := testImporter(t)
	ctx := context.Background()
	dir := t.TempDir()
	csv := filepath.Join(dir, "data.csv")
	if err := os.WriteFile(csv, []byte("a,b"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := im.ImportFile(ctx, csv, []string{".xlsx"}); err == nil {
		t.Error("expected extension error")
	}
	if _, err := im.ImportFile(ctx, filepath.Join(dir, "missing.xlsx"), nil); err == nil {
		t.Error("expected stat error")
	}
	if _, err := im.ImportFile(ctx, dir, nil); err == nil {
		t.Error("expected not-a-regular-file error")
	}
}

func TestImportBytes(t *testing.T) {
	im, store := testImporter(t)
	ctx := context.Background()

	id, err := im.ImportBytes(ctx, "", "upload.xlsx", []byte("doc"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := recordid.Parse(id); err != nil {
		t.Errorf("generated id should be a UUID: %v", err)
	}
	if _, err := store.GetRecord(ctx, id); err != nil {
		t.Error(err)
	}

	if _, err := im.ImportBytes(ctx, "not-a-uuid", "x.xlsx", nil); !errors.Is(err, ErrInvalidRecordID) {
		t.Errorf("expected ErrInvalidRecordID, got %v", err)
	}
}
