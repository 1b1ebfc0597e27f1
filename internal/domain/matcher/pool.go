package matcher

import (
	"fmt"

	"github.com/venueops/tktsrecon/internal/domain/labels"
)

// Candidate is one named charge total available for matching within a single
// document.
type Candidate struct {
	Label string
	Value string
}

type poolEntry struct {
	label     string
	value     string
	travel    bool
	norm      string
	tokens    []string
	embedding []float64
}

// Pool holds the charge-total candidates for one document, partitioned by the
// travel classifier, together with the used-index set. A pool lives for one
// document's matching pass; each candidate can be consumed at most once.
type Pool struct {
	entries []poolEntry
	used    map[int]bool
	byNorm  map[string]int
}

// NewPool builds a pool from candidates. Normalized keys map to the first
// candidate index that produced them; duplicates keep the first occurrence.
func NewPool(candidates []Candidate) *Pool {
	p := &Pool{
		entries: make([]poolEntry, 0, len(candidates)),
		used:    make(map[int]bool),
		byNorm:  make(map[string]int),
	}
	for i, c := range candidates {
		norm := labels.Normalize(c.Label)
		p.entries = append(p.entries, poolEntry{
			label:  c.Label,
			value:  c.Value,
			travel: labels.IsTravelLike(c.Label),
			norm:   norm,
			tokens: labels.Tokens(c.Label),
		})
		if _, ok := p.byNorm[norm]; !ok {
			p.byNorm[norm] = i
		}
	}
	return p
}

// Len returns the number of candidates.
func (p *Pool) Len() int { return len(p.entries) }

// Labels returns the raw candidate labels in pool order, for batch embedding.
func (p *Pool) Labels() []string {
	out := make([]string, len(p.entries))
	for i, e := range p.entries {
		out[i] = e.label
	}
	return out
}

// SetEmbeddings attaches one vector per candidate, in pool order.
func (p *Pool) SetEmbeddings(vectors [][]float64) error {
	if len(vectors) != len(p.entries) {
		return fmt.Errorf("embedding count %d does not match pool size %d", len(vectors), len(p.entries))
	}
	for i := range p.entries {
		p.entries[i].embedding = vectors[i]
	}
	return nil
}

// HasEmbeddings reports whether SetEmbeddings has been called on a non-empty
// pool.
func (p *Pool) HasEmbeddings() bool {
	return len(p.entries) > 0 && p.entries[0].embedding != nil
}

// MarkUsed consumes a candidate index so no later label can match it.
func (p *Pool) MarkUsed(i int) { p.used[i] = true }

// IsUsed reports whether the candidate index has been consumed.
func (p *Pool) IsUsed(i int) bool { return p.used[i] }

// Label returns the raw label of candidate i.
func (p *Pool) Label(i int) string { return p.entries[i].label }

// Value returns the charge value of candidate i.
func (p *Pool) Value(i int) string { return p.entries[i].value }
