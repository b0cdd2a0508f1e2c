package match

import (
	"math"
	"sort"
)

// Model is a TF-IDF vector space fitted to a fixed set of documents.
// It is read-only once built and safe for concurrent use.
type Model struct {
	vocab map[string]int
	terms []string
	idf   []float64
	docs  []sparse
}

// Build fits a model to docs. Dimensions are assigned in sorted term order so
// the same documents always produce the same space.
func Build(docs []string) (*Model, error) {
	if len(docs) == 0 {
		return nil, ErrEmptyCatalog
	}

	tokenized := make([][]string, len(docs))
	df := map[string]int{}
	for i, d := range docs {
		toks := Tokenize(d)
		tokenized[i] = toks
		seen := map[string]bool{}
		for _, t := range toks {
			if !seen[t] {
				seen[t] = true
				df[t]++
			}
		}
	}

	terms := make([]string, 0, len(df))
	for t := range df {
		terms = append(terms, t)
	}
	sort.Strings(terms)

	m := &Model{
		vocab: make(map[string]int, len(terms)),
		terms: terms,
		idf:   make([]float64, len(terms)),
		docs:  make([]sparse, len(docs)),
	}
	n := float64(len(docs))
	for i, t := range terms {
		m.vocab[t] = i
		// Smoothed idf: as if one extra document contained every term once.
		m.idf[i] = math.Log((1+n)/(1+float64(df[t]))) + 1
	}
	for i, toks := range tokenized {
		m.docs[i] = m.weigh(toks)
	}
	return m, nil
}

// transform projects text into the model's space. Unknown terms are ignored.
func (m *Model) transform(text string) sparse {
	return m.weigh(Tokenize(text))
}

// Similarities returns the cosine similarity of text against every document, in document order.
func (m *Model) Similarities(text string) []float64 {
	q := m.transform(text)
	out := make([]float64, len(m.docs))
	for i, d := range m.docs {
		out[i] = cosine(q, d)
	}
	return out
}

func (m *Model) weigh(tokens []string) sparse {
	tf := map[int]float64{}
	for _, t := range tokens {
		if i, ok := m.vocab[t]; ok {
			tf[i]++
		}
	}
	v := sparse{idx: make([]int, 0, len(tf)), val: make([]float64, 0, len(tf))}
	for i := range tf {
		v.idx = append(v.idx, i)
	}
	sort.Ints(v.idx)
	for _, i := range v.idx {
		v.val = append(v.val, tf[i]*m.idf[i])
	}
	return normalizeL2(v)
}
