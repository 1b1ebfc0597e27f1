package storage

// Repository defines the complete storage interface.
// This interface allows swapping implementations (SQLite, PostgreSQL, etc.)
// and makes testing with mocks straightforward.
type Repository interface {
	RunRepository
	EmbeddingCache
	Close() error
}

// RunRepository persists reconciliation run records
type RunRepository interface {
	// SaveRun saves or updates a run record
	SaveRun(record *RunRecord) error

	// GetRun retrieves a run by ID
	GetRun(id string) (*RunRecord, error)

	// ListRuns returns the most recent runs, newest first
	ListRuns(limit int) ([]*RunRecord, error)
}

// EmbeddingCache persists embedding vectors keyed by raw text.
// It satisfies the similarity provider's cache contract.
type EmbeddingCache interface {
	// Get returns the cached vector for a text, if present
	Get(text string) ([]float64, bool)

	// Put stores a vector for a text
	Put(text string, vector []float64) error
}
