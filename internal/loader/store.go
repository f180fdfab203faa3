package loader

import (
	"context"
	"errors"
	"fmt"

	"github.com/hyperjump/crmsheet/internal/storage"
)

// StoreLoader reads documents from the SQLite record store.
type StoreLoader struct {
	store storage.Storage
}

// NewStoreLoader returns a loader backed by store.
func NewStoreLoader(store storage.Storage) *StoreLoader {
	return &StoreLoader{store: store}
}

// Fetch returns the content of record id, or nil when the record is unknown
// or has no content.
func (l *StoreLoader) Fetch(ctx context.Context, id string) ([]byte, error) {
	rec, err := l.store.GetRecord(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get record %s: %w", id, err)
	}
	if len(rec.Content) == 0 {
		return nil, nil
	}
	return rec.Content, nil
}
