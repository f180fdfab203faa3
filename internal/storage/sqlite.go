// Package storage provides SQLite implementation of the Storage interface.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/crmsheet/internal/models"
)

// SQLiteStorage implements Storage using SQLite.
type SQLiteStorage struct {
	db *sql.DB
}

// NewSQLiteStorage opens or creates a SQLite database at dbPath and initializes the schema.
// Parent directories are created if they do not exist.
func NewSQLiteStorage(dbPath string) (*SQLiteStorage, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteStorage{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS records (
		id TEXT PRIMARY KEY,
		name TEXT,
		content BLOB,
		size INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_records_created_at ON records(created_at);

	CREATE TABLE IF NOT EXISTS extracted_cells (
		record_id TEXT NOT NULL,
		sheet TEXT NOT NULL,
		coordinate TEXT NOT NULL,
		value TEXT NOT NULL,
		extracted_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (record_id, sheet, coordinate)
	);

	CREATE INDEX IF NOT EXISTS idx_cells_record_id ON extracted_cells(record_id);
	`
	_, err := db.Exec(schema)
	return err
}

// CreateRecord inserts a record, replacing any record with the same ID.
// Cells extracted from a replaced record are removed with it.
func (s *SQLiteStorage) CreateRecord(ctx context.Context, rec *models.Record) error {
	rec.CreatedAt = time.Now()
	rec.Size = int64(len(rec.Content))
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `DELETE FROM extracted_cells WHERE record_id = ?`, rec.ID); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO records (id, name, content, size, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		rec.ID, rec.Name, rec.Content, rec.Size, rec.CreatedAt,
	); err != nil {
		return err
	}
	return tx.Commit()
}

// GetRecord returns a record by ID, including its document content.
func (s *SQLiteStorage) GetRecord(ctx context.Context, id string) (*models.Record, error) {
	var rec models.Record
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, content, size, created_at FROM records WHERE id = ?`, id,
	).Scan(&rec.ID, &rec.Name, &rec.Content, &rec.Size, &rec.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// DeleteRecord removes a record and its extracted cells.
func (s *SQLiteStorage) DeleteRecord(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `DELETE FROM extracted_cells WHERE record_id = ?`, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM records WHERE id = ?`, id); err != nil {
		return err
	}
	return tx.Commit()
}

// ListRecords returns record metadata (without content) with offset and limit.
func (s *SQLiteStorage) ListRecords(ctx context.Context, offset, limit int) ([]*models.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, size, created_at
		 FROM records ORDER BY created_at DESC LIMIT ? OFFSET ?`,
		limit, offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []*models.Record
	for rows.Next() {
		var rec models.Record
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.Size, &rec.CreatedAt); err != nil {
			return nil, err
		}
		recs = append(recs, &rec)
	}
	return recs, rows.Err()
}

// SaveCells upserts cells in a transaction. Saving the same cell twice keeps one row
// holding the latest value.
func (s *SQLiteStorage) SaveCells(ctx context.Context, cells []*models.StoredCell) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO extracted_cells (record_id, sheet, coordinate, value, extracted_at)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(record_id, sheet, coordinate)
		 DO UPDATE SET value = excluded.value, extracted_at = excluded.extracted_at`,
	)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now()
	for _, c := range cells {
		c.ExtractedAt = now
		if _, err := stmt.ExecContext(ctx, c.RecordID, c.Sheet, c.Coordinate, c.Value, c.ExtractedAt); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// GetCells returns all cells extracted for a record, ordered by sheet and coordinate.
func (s *SQLiteStorage) GetCells(ctx context.Context, recordID string) ([]*models.StoredCell, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT record_id, sheet, coordinate, value, extracted_at
		 FROM extracted_cells WHERE record_id = ? ORDER BY sheet, coordinate`,
		recordID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cells []*models.StoredCell
	for rows.Next() {
		var c models.StoredCell
		if err := rows.Scan(&c.RecordID, &c.Sheet, &c.Coordinate, &c.Value, &c.ExtractedAt); err != nil {
			return nil, err
		}
		cells = append(cells, &c)
	}
	return cells, rows.Err()
}

// DeleteCells removes all cells extracted for a record.
func (s *SQLiteStorage) DeleteCells(ctx context.Context, recordID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM extracted_cells WHERE record_id = ?`, recordID)
	return err
}

// CountRecords returns the total number of records.
func (s *SQLiteStorage) CountRecords(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM records`).Scan(&count)
	return count, err
}

// CountCells returns the total number of extracted cells.
func (s *SQLiteStorage) CountCells(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM extracted_cells`).Scan(&count)
	return count, err
}

// Close closes the database connection.
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
