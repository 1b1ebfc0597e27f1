package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	store, err := NewStorage(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestStorage_SaveAndGetRun(t *testing.T) {
	store := newTestStorage(t)

	record := &RunRecord{
		ID:             uuid.NewString(),
		StartedAt:      time.Now().Truncate(time.Second),
		CompletedAt:    time.Now().Add(time.Minute).Truncate(time.Second),
		Status:         RunStatusCompleted,
		DatesProcessed: 3,
		Stages: []StageResult{
			{Stage: "intake", Processed: 6},
			{Stage: "enrich", Processed: 3, Skipped: 1},
			{Stage: "cascade", Processed: 3},
		},
	}
	require.NoError(t, store.SaveRun(record))

	got, err := store.GetRun(record.ID)
	require.NoError(t, err)
	assert.Equal(t, record.ID, got.ID)
	assert.Equal(t, RunStatusCompleted, got.Status)
	assert.Equal(t, 3, got.DatesProcessed)
	require.Len(t, got.Stages, 3)
	assert.Equal(t, "enrich", got.Stages[1].Stage)
	assert.Equal(t, 1, got.Stages[1].Skipped)
}

func TestStorage_SaveRunUpdatesExisting(t *testing.T) {
	store := newTestStorage(t)

	record := &RunRecord{
		ID:        uuid.NewString(),
		StartedAt: time.Now(),
		Status:    RunStatusRunning,
	}
	require.NoError(t, store.SaveRun(record))

	record.Status = RunStatusFailed
	record.ErrorMessage = "missing source folder"
	require.NoError(t, store.SaveRun(record))

	got, err := store.GetRun(record.ID)
	require.NoError(t, err)
	assert.Equal(t, RunStatusFailed, got.Status)
	assert.Equal(t, "missing source folder", got.ErrorMessage)
}

func TestStorage_ListRunsNewestFirst(t *testing.T) {
	store := newTestStorage(t)

	base := time.Now().Truncate(time.Second)
	for i := 0; i < 3; i++ {
		require.NoError(t, store.SaveRun(&RunRecord{
			ID:        uuid.NewString(),
			StartedAt: base.Add(time.Duration(i) * time.Hour),
			Status:    RunStatusCompleted,
		}))
	}

	runs, err := store.ListRuns(2)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.True(t, runs[0].StartedAt.After(runs[1].StartedAt))
}

func TestStorage_EmbeddingCacheRoundTrip(t *testing.T) {
	store := newTestStorage(t)

	_, ok := store.Get("season tickets")
	assert.False(t, ok)

	vector := []float64{0.1, -0.2, 0.3}
	require.NoError(t, store.Put("season tickets", vector))

	got, ok := store.Get("season tickets")
	require.True(t, ok)
	assert.Equal(t, vector, got)
}

func TestStorage_EmbeddingCacheOverwrite(t *testing.T) {
	store := newTestStorage(t)

	require.NoError(t, store.Put("label", []float64{1, 2}))
	require.NoError(t, store.Put("label", []float64{3, 4}))

	got, ok := store.Get("label")
	require.True(t, ok)
	assert.Equal(t, []float64{3, 4}, got)
}

func TestStorage_MigrationsIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")

	store, err := NewStorage(dbPath)
	require.NoError(t, err)
	require.NoError(t, store.Put("label", []float64{1}))
	require.NoError(t, store.Close())

	// Reopening reruns the migration pass against the same file.
	store, err = NewStorage(dbPath)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	got, ok := store.Get("label")
	require.True(t, ok)
	assert.Equal(t, []float64{1}, got)
}
