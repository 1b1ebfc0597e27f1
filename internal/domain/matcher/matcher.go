// Package matcher pairs free-text event labels against charge-total labels
// with no shared key. Strategies run in strict order and the first success
// wins: exact normalized lookup, common-token-prefix fallback for truncated
// labels, then embedding similarity.
//
// Matching never crosses the travel/non-travel partition and never reuses a
// candidate: the caller marks the returned index used before processing the
// next label.
package matcher

import (
	"context"
	"math"
	"strings"

	"github.com/venueops/tktsrecon/internal/domain/labels"
)

// Embedder turns texts into comparable vectors. Batched and order-preserving.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}

// Config holds matcher thresholds.
type Config struct {
	MinSimilarity   float64 // embedding score floor (default 0.7)
	PrefixMinTokens int     // minimum common leading tokens (default 3)
}

// DefaultConfig returns the shipping thresholds.
func DefaultConfig() Config {
	return Config{
		MinSimilarity:   0.7,
		PrefixMinTokens: 3,
	}
}

// Scores reported for non-embedding strategies.
const (
	exactScore  = 1.0
	prefixScore = 0.95
)

// Match is an accepted pairing of a label with a pool candidate.
type Match struct {
	Index int
	Score float64
}

// Matcher matches event labels against a candidate pool.
type Matcher struct {
	config   Config
	embedder Embedder
}

// New creates a matcher. embedder may be nil, in which case the embedding
// fallback is skipped and only lexical strategies run.
func New(config Config, embedder Embedder) *Matcher {
	return &Matcher{config: config, embedder: embedder}
}

// Match finds the best unused same-partition candidate for label. A nil
// result with nil error means no confident match; callers must encode that as
// an empty/zero value, never fabricate a guess. A non-nil error means the
// similarity provider call failed for this label.
func (m *Matcher) Match(ctx context.Context, label string, pool *Pool) (*Match, error) {
	travel := labels.IsTravelLike(label)
	norm := labels.Normalize(label)

	// 1. Exact normalized lookup.
	if idx, ok := pool.byNorm[norm]; ok {
		if pool.entries[idx].travel == travel && !pool.used[idx] {
			return &Match{Index: idx, Score: exactScore}, nil
		}
	}

	// 2. Common-prefix fallback for labels cut short by layout limits.
	if match := m.prefixMatch(norm, travel, pool); match != nil {
		return match, nil
	}

	// 3. Embedding similarity.
	return m.embeddingMatch(ctx, label, travel, pool)
}

// prefixMatch accepts the unused same-partition candidate sharing the longest
// token prefix with the label, provided the prefix has at least
// PrefixMinTokens tokens and covers all but at most one trailing label token.
func (m *Matcher) prefixMatch(norm string, travel bool, pool *Pool) *Match {
	// norm is already normalized; splitting it keeps the token list identical
	// to the one behind the pool's exact-lookup keys.
	labelTokens := strings.Fields(norm)
	if len(labelTokens) < m.config.PrefixMinTokens {
		return nil
	}

	bestIdx := -1
	bestLen := 0
	for i, e := range pool.entries {
		if pool.used[i] || e.travel != travel {
			continue
		}
		n := commonPrefixLen(labelTokens, e.tokens)
		if n > bestLen {
			bestLen = n
			bestIdx = i
		}
	}

	if bestIdx < 0 || bestLen < m.config.PrefixMinTokens || bestLen < len(labelTokens)-1 {
		return nil
	}
	return &Match{Index: bestIdx, Score: prefixScore}
}

func commonPrefixLen(a, b []string) int {
	n := 0
	for n < len(a) && n < len(b) && a[n] == b[n] {
		n++
	}
	return n
}

func (m *Matcher) embeddingMatch(ctx context.Context, label string, travel bool, pool *Pool) (*Match, error) {
	if m.embedder == nil || !pool.HasEmbeddings() {
		return nil, nil
	}

	vectors, err := m.embedder.Embed(ctx, []string{label})
	if err != nil {
		return nil, err
	}
	labelVec := vectors[0]

	bestIdx := -1
	bestScore := math.Inf(-1)
	for i, e := range pool.entries {
		if pool.used[i] || e.travel != travel {
			continue
		}
		score := Cosine(labelVec, e.embedding)
		if score > bestScore {
			bestScore = score
			bestIdx = i
		}
	}

	if bestIdx < 0 || bestScore < m.config.MinSimilarity {
		return nil, nil
	}
	return &Match{Index: bestIdx, Score: bestScore}, nil
}

// Cosine returns the cosine similarity of two vectors in [-1, 1], or 0 when
// either vector has zero norm.
func Cosine(a, b []float64) float64 {
	var dot, normA, normB float64
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}
	denom := math.Sqrt(normA) * math.Sqrt(normB)
	if denom == 0 {
		return 0
	}
	return dot / denom
}
