// Package storage defines the persistence interface for records and extracted cells.
package storage

import (
	"context"
	"errors"

	"github.com/hyperjump/crmsheet/internal/models"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

// Storage defines record and extracted-cell persistence operations.
type Storage interface {
	// Record operations
	CreateRecord(ctx context.Context, rec *models.Record) error
	GetRecord(ctx context.Context, id string) (*models.Record, error)
	DeleteRecord(ctx context.Context, id string) error
	ListRecords(ctx context.Context, offset, limit int) ([]*models.Record, error)

	// Cell operations
	SaveCells(ctx context.Context, cells []*models.StoredCell) error
	GetCells(ctx context.Context, recordID string) ([]*models.StoredCell, error)
	DeleteCells(ctx context.Context, recordID string) error

	// Stats
	CountRecords(ctx context.Context) (int64, error)
	CountCells(ctx context.Context) (int64, error)

	Close() error
}
