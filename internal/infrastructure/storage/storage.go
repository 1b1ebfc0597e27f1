// Package storage provides SQLite persistence for the reconciliation
// pipeline: an embedding cache keyed by raw label text, and run records
// tracking each pipeline execution.
package storage

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Storage provides SQLite database access.
// It implements the Repository interface.
type Storage struct {
	db *sql.DB
}

// Compile-time check that Storage implements Repository
var _ Repository = (*Storage)(nil)

// NewStorage creates a new storage instance with SQLite database
func NewStorage(dbPath string) (*Storage, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	// Enable foreign key constraints (SQLite-specific)
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	s := &Storage{db: db}

	// Run all pending migrations
	if err := s.runMigrations(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

// Close closes the database connection
func (s *Storage) Close() error {
	return s.db.Close()
}

// SaveRun saves or updates a run record
func (s *Storage) SaveRun(record *RunRecord) error {
	stagesJSON, _ := json.Marshal(record.Stages)

	query := `
	INSERT OR REPLACE INTO runs
	(id, started_at, completed_at, status, error_message, dates_processed, stages_json)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.Exec(query,
		record.ID,
		record.StartedAt,
		record.CompletedAt,
		record.Status,
		record.ErrorMessage,
		record.DatesProcessed,
		string(stagesJSON),
	)

	return err
}

// GetRun retrieves a run by ID
func (s *Storage) GetRun(id string) (*RunRecord, error) {
	query := `
	SELECT id, started_at, completed_at, status, error_message, dates_processed, stages_json
	FROM runs WHERE id = ?
	`

	record := &RunRecord{}
	err := s.db.QueryRow(query, id).Scan(
		&record.ID,
		&record.StartedAt,
		&record.CompletedAt,
		&record.Status,
		&record.ErrorMessage,
		&record.DatesProcessed,
		&record.StagesJSON,
	)
	if err != nil {
		return nil, err
	}

	if record.StagesJSON != "" {
		_ = json.Unmarshal([]byte(record.StagesJSON), &record.Stages)
	}

	return record, nil
}

// ListRuns returns the most recent runs, newest first
func (s *Storage) ListRuns(limit int) ([]*RunRecord, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
	SELECT id, started_at, completed_at, status, error_message, dates_processed, stages_json
	FROM runs ORDER BY started_at DESC LIMIT ?
	`

	rows, err := s.db.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var runs []*RunRecord
	for rows.Next() {
		record := &RunRecord{}
		if err := rows.Scan(
			&record.ID,
			&record.StartedAt,
			&record.CompletedAt,
			&record.Status,
			&record.ErrorMessage,
			&record.DatesProcessed,
			&record.StagesJSON,
		); err != nil {
			return nil, err
		}
		if record.StagesJSON != "" {
			_ = json.Unmarshal([]byte(record.StagesJSON), &record.Stages)
		}
		runs = append(runs, record)
	}

	return runs, rows.Err()
}

// Get returns the cached embedding vector for a text, if present
func (s *Storage) Get(text string) ([]float64, bool) {
	var vectorJSON string
	err := s.db.QueryRow(`SELECT vector_json FROM embeddings WHERE text = ?`, text).Scan(&vectorJSON)
	if err != nil {
		return nil, false
	}

	var vector []float64
	if err := json.Unmarshal([]byte(vectorJSON), &vector); err != nil {
		return nil, false
	}
	return vector, true
}

// Put stores an embedding vector for a text
func (s *Storage) Put(text string, vector []float64) error {
	vectorJSON, err := json.Marshal(vector)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(`
		INSERT OR REPLACE INTO embeddings (text, vector_json) VALUES (?, ?)
	`, text, string(vectorJSON))
	return err
}
