package storage

import "errors"

var errRunNotFound = errors.New("run not found")

// MockRepository is an in-memory implementation of Repository for testing.
// It stores all data in maps, making tests fast and isolated.
type MockRepository struct {
	runs       map[string]*RunRecord
	embeddings map[string][]float64

	// Hooks for test assertions
	SaveRunCalled bool
	LastSavedRun  *RunRecord
	PutCalled     int
	GetCalled     int

	// Error injection for testing error paths
	SaveRunErr error
	PutErr     error
}

// Compile-time check that MockRepository implements Repository
var _ Repository = (*MockRepository)(nil)

// NewMockRepository creates a new mock repository for testing
func NewMockRepository() *MockRepository {
	return &MockRepository{
		runs:       make(map[string]*RunRecord),
		embeddings: make(map[string][]float64),
	}
}

// SaveRun saves a run record in memory
func (m *MockRepository) SaveRun(record *RunRecord) error {
	m.SaveRunCalled = true
	m.LastSavedRun = record
	if m.SaveRunErr != nil {
		return m.SaveRunErr
	}
	m.runs[record.ID] = record
	return nil
}

// GetRun retrieves a run by ID
func (m *MockRepository) GetRun(id string) (*RunRecord, error) {
	record, ok := m.runs[id]
	if !ok {
		return nil, errRunNotFound
	}
	return record, nil
}

// ListRuns returns all stored runs
func (m *MockRepository) ListRuns(limit int) ([]*RunRecord, error) {
	var runs []*RunRecord
	for _, r := range m.runs {
		runs = append(runs, r)
		if limit > 0 && len(runs) >= limit {
			break
		}
	}
	return runs, nil
}

// Get returns a cached embedding vector
func (m *MockRepository) Get(text string) ([]float64, bool) {
	m.GetCalled++
	v, ok := m.embeddings[text]
	return v, ok
}

// Put stores an embedding vector
func (m *MockRepository) Put(text string, vector []float64) error {
	m.PutCalled++
	if m.PutErr != nil {
		return m.PutErr
	}
	m.embeddings[text] = vector
	return nil
}

// Close is a no-op for the mock
func (m *MockRepository) Close() error {
	return nil
}
