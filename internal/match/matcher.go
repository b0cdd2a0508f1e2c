// Package match finds the catalog entry whose description is lexically
// closest to a free-text question.
package match

import (
	"github.com/kamusis/answerhub/internal/catalog"
)

// Matcher pairs a catalog with the vector space fitted to its descriptions.
type Matcher struct {
	cat   *catalog.Catalog
	model *Model
}

// New fits a model to the catalog's descriptions.
func New(cat *catalog.Catalog) (*Matcher, error) {
	if cat == nil || cat.Len() == 0 {
		return nil, ErrEmptyCatalog
	}
	model, err := Build(cat.Descriptions())
	if err != nil {
		return nil, err
	}
	return &Matcher{cat: cat, model: model}, nil
}

// Catalog returns the catalog the matcher was built from.
func (m *Matcher) Catalog() *catalog.Catalog { return m.cat }

// Model returns the fitted vector space.
func (m *Matcher) Model() *Model { return m.model }

// Match returns the single best entry for question. It never fails for a
// non-empty catalog: when nothing overlaps, every score is 0 and the first
// entry wins.
func (m *Matcher) Match(question string) (Result, error) {
	if m == nil || m.cat.Len() == 0 {
		return Result{}, ErrEmptyCatalog
	}
	scores := m.model.Similarities(question)
	best := 0
	for i := 1; i < len(scores); i++ {
		if scores[i] > scores[best] {
			best = i
		}
	}
	return m.result(best, scores[best]), nil
}

// Rank scores every entry and returns the top k in SortResults order.
// k <= 0 returns all entries.
func (m *Matcher) Rank(question string, k int) ([]Result, error) {
	if m == nil || m.cat.Len() == 0 {
		return nil, ErrEmptyCatalog
	}
	scores := m.model.Similarities(question)
	out := make([]Result, len(scores))
	for i, s := range scores {
		out[i] = m.result(i, s)
	}
	SortResults(out)
	if k > 0 && len(out) > k {
		out = out[:k]
	}
	return out, nil
}

func (m *Matcher) result(i int, score float64) Result {
	e := m.cat.At(i)
	return Result{
		Key:         e.Key,
		Description: e.Description,
		Handler:     e.Handler,
		Score:       score,
		Position:    i,
	}
}
