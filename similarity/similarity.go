// Package similarity ranks embedded texts against a query vector.
//
// The index is rebuilt on every call: candidate sets number in the tens, so
// an exact scan beats maintaining an incremental structure.
package similarity

import (
	"fmt"
	"math"
	"sort"
)

// Candidate is one embeddable knowledge item.
type Candidate struct {
	Source    string
	Text      string
	Embedding []float32
}

// Result is one ranked match. Score is cosine similarity, in [-1, 1],
// higher is better.
type Result struct {
	Rank   int
	Score  float64
	Source string
	Text   string
}

// Search returns the topN candidates most similar to the query vector,
// best first. topN is clamped to [1, len(candidates)]. An empty candidate
// set yields an empty result, never an error. Vectors of differing lengths
// are an error; they are never truncated or padded.
func Search(query []float32, candidates []Candidate, topN int) ([]Result, error) {
	if len(candidates) == 0 {
		return nil, nil
	}
	if len(query) == 0 {
		return nil, fmt.Errorf("query embedding is empty")
	}

	for i, candidate := range candidates {
		if len(candidate.Embedding) != len(query) {
			return nil, fmt.Errorf(
				"embedding dimension mismatch: candidate %d (%s) has %d dimensions, query has %d",
				i, candidate.Source, len(candidate.Embedding), len(query),
			)
		}
	}

	if topN < 1 {
		topN = 1
	}
	if topN > len(candidates) {
		topN = len(candidates)
	}

	normalizedQuery := normalize(query)

	scored := make([]Result, len(candidates))
	for i, candidate := range candidates {
		scored[i] = Result{
			Score:  dot(normalizedQuery, normalize(candidate.Embedding)),
			Source: candidate.Source,
			Text:   candidate.Text,
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	results := scored[:topN]
	for i := range results {
		results[i].Rank = i + 1
	}
	return results, nil
}

// normalize returns the unit-length copy of v. With unit vectors the inner
// product equals cosine similarity.
func normalize(v []float32) []float64 {
	out := make([]float64, len(v))
	var sum float64
	for i, value := range v {
		f := float64(value)
		out[i] = f
		sum += f * f
	}
	norm := math.Sqrt(sum)
	if norm == 0 {
		return out
	}
	for i := range out {
		out[i] /= norm
	}
	return out
}

func dot(a, b []float64) float64 {
	var sum float64
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}
