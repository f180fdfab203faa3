// Package models defines the data structures shared by loaders, extractors, sinks and storage.
package models

import "time"

// Record is a stored CRM record with its attached spreadsheet document.
type Record struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Content   []byte    `json:"-" db:"content"`
	Size      int64     `json:"size" db:"size"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// StoredCell is one extracted cell as persisted by the store sink.
type StoredCell struct {
	RecordID    string    `json:"record_id" db:"record_id"`
	Sheet       string    `json:"sheet" db:"sheet"`
	Coordinate  string    `json:"coordinate" db:"coordinate"`
	Value       string    `json:"value" db:"value"`
	ExtractedAt time.Time `json:"extracted_at" db:"extracted_at"`
}

// Status summarizes the record store for the status command and endpoint.
type Status struct {
	Records           int64    `json:"records"`
	Cells             int64    `json:"cells"`
	DatabasePath      string   `json:"database_path"`
	DatabaseSizeBytes int64    `json:"database_size_bytes"`
	Loader            string   `json:"loader"`
	Sink              string   `json:"sink"`
	WatchDirectories  []string `json:"watch_directories,omitempty"`
}
