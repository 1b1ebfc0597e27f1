package matcher

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubEmbedder returns canned vectors keyed by text.
type stubEmbedder struct {
	vectors map[string][]float64
	err     error
	calls   int
}

func (s *stubEmbedder) Embed(_ context.Context, texts []string) ([][]float64, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	out := make([][]float64, len(texts))
	for i, text := range texts {
		v, ok := s.vectors[text]
		if !ok {
			v = []float64{0, 0, 0}
		}
		out[i] = v
	}
	return out, nil
}

func poolWithEmbeddings(t *testing.T, emb *stubEmbedder, candidates []Candidate) *Pool {
	t.Helper()
	pool := NewPool(candidates)
	vectors, err := emb.Embed(context.Background(), pool.Labels())
	require.NoError(t, err)
	require.NoError(t, pool.SetEmbeddings(vectors))
	return pool
}

func TestMatchExactNormalized(t *testing.T) {
	m := New(DefaultConfig(), nil)
	pool := NewPool([]Candidate{
		{Label: "Season Tickets", Value: "900.00"},
		{Label: "Preston North End Coach - 26/4/25", Value: "120.00"},
	})

	match, err := m.Match(context.Background(), "Preston North End Co", pool)
	require.NoError(t, err)
	require.NotNil(t, match)
	assert.Equal(t, 1, match.Index)
	assert.Equal(t, 1.0, match.Score)
	assert.Equal(t, "120.00", pool.Value(match.Index))
}

func TestMatchExactWinsOverFallbacks(t *testing.T) {
	emb := &stubEmbedder{vectors: map[string][]float64{}}
	m := New(DefaultConfig(), emb)
	pool := poolWithEmbeddings(t, emb, []Candidate{
		{Label: "Bristol Rovers Tickets", Value: "50.00"},
	})
	emb.calls = 0

	match, err := m.Match(context.Background(), "Bristol Rovers Tickets", pool)
	require.NoError(t, err)
	require.NotNil(t, match)
	assert.Equal(t, 1.0, match.Score)
	assert.Zero(t, emb.calls, "exact match must not call the embedder")
}

func TestMatchExactWithPluralFillerWords(t *testing.T) {
	m := New(DefaultConfig(), nil)
	pool := NewPool([]Candidate{
		{Label: "Wycombe Wanderers Travel", Value: "250.00"},
	})

	// "Travels" and "Travel" collapse to the same normalized key; the plural
	// form must land in the exact tier, not fall through unmatched.
	match, err := m.Match(context.Background(), "Wycombe Wanderers Travels", pool)
	require.NoError(t, err)
	require.NotNil(t, match)
	assert.Equal(t, 0, match.Index)
	assert.Equal(t, 1.0, match.Score)
}

func TestMatchPrefixWithFillerWordLabel(t *testing.T) {
	m := New(DefaultConfig(), nil)
	pool := NewPool([]Candidate{
		{Label: "Away Wycombe Wanderers Travel Coach Club", Value: "80.00"},
	})

	// The filler word drops out of both sides before token comparison, so the
	// label tokens line up with the candidate's leading tokens.
	match, err := m.Match(context.Background(), "Away Wycombe Wanderers Travels", pool)
	require.NoError(t, err)
	require.NotNil(t, match)
	assert.Equal(t, 0, match.Index)
	assert.Equal(t, 0.95, match.Score)
}

func TestMatchSingleUseInvariant(t *testing.T) {
	m := New(DefaultConfig(), nil)
	pool := NewPool([]Candidate{
		{Label: "Season Tickets", Value: "900.00"},
	})

	first, err := m.Match(context.Background(), "Season Tickets", pool)
	require.NoError(t, err)
	require.NotNil(t, first)
	pool.MarkUsed(first.Index)

	second, err := m.Match(context.Background(), "Season Tickets", pool)
	require.NoError(t, err)
	assert.Nil(t, second, "a candidate is spent exactly once")
}

func TestMatchNeverCrossesPartition(t *testing.T) {
	m := New(DefaultConfig(), nil)
	pool := NewPool([]Candidate{
		{Label: "Preston North End", Value: "300.00"}, // non-travel
	})

	// Travel-branded label must not take the non-travel candidate even though
	// the normalized forms share every token but "coach".
	match, err := m.Match(context.Background(), "Preston North End Coach", pool)
	require.NoError(t, err)
	assert.Nil(t, match)
}

func TestMatchPrefixFallback(t *testing.T) {
	m := New(DefaultConfig(), nil)
	pool := NewPool([]Candidate{
		{Label: "Wycombe Wanderers Home Leg Adults", Value: "75.00"},
	})

	// Truncated label: shares 3 leading tokens, one trailing token missing.
	match, err := m.Match(context.Background(), "Wycombe Wanderers Home Leg", pool)
	require.NoError(t, err)
	require.NotNil(t, match)
	assert.Equal(t, 0, match.Index)
	assert.Equal(t, 0.95, match.Score)
}

func TestMatchPrefixTooShortFallsThrough(t *testing.T) {
	emb := &stubEmbedder{vectors: map[string][]float64{
		"Wycombe Wanderers Cup":                 {1, 0, 0},
		"Wycombe Wanderers Home Leg Adults Cup": {0, 1, 0},
	}}
	m := New(DefaultConfig(), emb)
	pool := poolWithEmbeddings(t, emb, []Candidate{
		{Label: "Wycombe Wanderers Home Leg Adults Cup", Value: "75.00"},
	})

	// Only two common leading tokens and three trailing label tokens missing:
	// prefix tier must reject, embedding tier scores 0 and rejects too.
	match, err := m.Match(context.Background(), "Wycombe Wanderers Cup", pool)
	require.NoError(t, err)
	assert.Nil(t, match)
}

func TestMatchEmbeddingFallback(t *testing.T) {
	emb := &stubEmbedder{vectors: map[string][]float64{
		"PNE Awayday":           {1, 0.2, 0},
		"Preston North End Cup": {1, 0.1, 0},
		"Gift Vouchers":         {0, 0, 1},
	}}
	m := New(DefaultConfig(), emb)
	pool := poolWithEmbeddings(t, emb, []Candidate{
		{Label: "Preston North End Cup", Value: "300.00"},
		{Label: "Gift Vouchers", Value: "40.00"},
	})

	match, err := m.Match(context.Background(), "PNE Awayday", pool)
	require.NoError(t, err)
	require.NotNil(t, match)
	assert.Equal(t, 0, match.Index)
	assert.Greater(t, match.Score, 0.9)
}

func TestMatchEmbeddingBelowThreshold(t *testing.T) {
	emb := &stubEmbedder{vectors: map[string][]float64{
		"Mystery Event":  {1, 0, 0},
		"Season Tickets": {0.55, 0.835, 0}, // cosine vs label = 0.55
	}}
	m := New(DefaultConfig(), emb)
	pool := poolWithEmbeddings(t, emb, []Candidate{
		{Label: "Season Tickets", Value: "900.00"},
	})

	match, err := m.Match(context.Background(), "Mystery Event", pool)
	require.NoError(t, err)
	assert.Nil(t, match, "scores below 0.7 must not produce a guess")
}

func TestMatchEmbedderErrorSurfaces(t *testing.T) {
	emb := &stubEmbedder{vectors: map[string][]float64{"X Y Z": {1, 0, 0}}}
	m := New(DefaultConfig(), emb)
	pool := poolWithEmbeddings(t, emb, []Candidate{
		{Label: "X Y Z", Value: "1.00"},
	})
	emb.err = errors.New("boom")

	_, err := m.Match(context.Background(), "Completely Different", pool)
	assert.Error(t, err)
}

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, Cosine([]float64{1, 2}, []float64{2, 4}), 1e-9)
	assert.InDelta(t, 0.0, Cosine([]float64{1, 0}, []float64{0, 1}), 1e-9)
	assert.InDelta(t, -1.0, Cosine([]float64{1, 0}, []float64{-1, 0}), 1e-9)
	assert.Equal(t, 0.0, Cosine([]float64{0, 0}, []float64{1, 1}), "zero norm yields 0")
}

func TestPoolNormalizedDuplicatesKeepFirst(t *testing.T) {
	pool := NewPool([]Candidate{
		{Label: "Season Tickets", Value: "1.00"},
		{Label: "season ticket", Value: "2.00"}, // same normalized key
	})
	m := New(DefaultConfig(), nil)

	match, err := m.Match(context.Background(), "Season Tickets", pool)
	require.NoError(t, err)
	require.NotNil(t, match)
	assert.Equal(t, 0, match.Index)
}
