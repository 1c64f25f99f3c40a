// Package similarity implements the in-process cosine similarity math used
// by the vector-search fallback path and the recommendation tests.
package similarity

import (
	"errors"
	"math"
	"sort"
)

var (
	ErrZeroVector        = errors.New("zero vector is not a valid embedding")
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)

// Cosine returns dot(normalize(a), normalize(b)). A zero vector on either
// side is invalid input.
func Cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, ErrDimensionMismatch
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	normA = math.Sqrt(normA)
	normB = math.Sqrt(normB)
	if normA == 0 || normB == 0 {
		return 0, ErrZeroVector
	}

	return dot / (normA * normB), nil
}

// IsZero reports whether every component of v is zero.
func IsZero(v []float32) bool {
	for _, x := range v {
		if x != 0 {
			return false
		}
	}
	return true
}

// Scored pairs an opaque id with a similarity score.
type Scored struct {
	ID    string
	Score float64
}

// TopK sorts by descending score with id as the deterministic tie-break and
// truncates to k.
func TopK(items []Scored, k int) []Scored {
	sort.Slice(items, func(i, j int) bool {
		if items[i].Score != items[j].Score {
			return items[i].Score > items[j].Score
		}
		return items[i].ID < items[j].ID
	})
	if k >= 0 && len(items) > k {
		items = items[:k]
	}
	return items
}
