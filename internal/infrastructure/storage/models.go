package storage

import (
	"time"
)

// RunRecord captures one reconciliation run end to end.
type RunRecord struct {
	ID             string    `json:"id"` // UUID assigned at run start
	StartedAt      time.Time `json:"started_at"`
	CompletedAt    time.Time `json:"completed_at"`
	Status         string    `json:"status"` // "running", "completed", "failed"
	ErrorMessage   string    `json:"error_message,omitempty"`
	DatesProcessed int       `json:"dates_processed"`

	// Per-stage outcomes stored as JSON
	Stages     []StageResult `json:"stages"`
	StagesJSON string        `json:"-"` // For DB storage
}

// StageResult summarizes one pipeline stage within a run.
type StageResult struct {
	Stage     string `json:"stage"`
	Processed int    `json:"processed"`
	Skipped   int    `json:"skipped"`
	Failed    int    `json:"failed"`
}

// Run status values
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)
