// Package scoring ranks stored embeddings by cosine similarity for the
// brute-force vector index backends.
package scoring

import (
	"math"
	"sort"

	"github.com/nutrigenie/nutrigenie-cli/internal/core/domain"
)

// Cosine returns the cosine similarity of a and b.
// Vectors of different length, or with zero norm, score 0.
func Cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// TopK scores every entry against query and returns the best topK hits,
// highest score first. Ties keep insertion order. The result is never nil.
func TopK(entries []domain.VectorIndexEntry, query []float32, topK int) []domain.VectorHit {
	if topK <= 0 || len(entries) == 0 {
		return []domain.VectorHit{}
	}
	hits := make([]domain.VectorHit, len(entries))
	for i, e := range entries {
		hits[i] = domain.VectorHit{Entry: e, Score: Cosine(query, e.Embedding)}
	}
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})
	if topK < len(hits) {
		hits = hits[:topK]
	}
	return hits
}

// CheckEntries verifies every entry matches the index dimensions and has an ID.
func CheckEntries(sig domain.IndexSignature, entries []domain.VectorIndexEntry) error {
	seen := make(map[string]bool, len(entries))
	for i, e := range entries {
		if e.ID == "" {
			return domainError("entry %d has no id", i)
		}
		if seen[e.ID] {
			return domainError("duplicate entry id %q", e.ID)
		}
		seen[e.ID] = true
		if len(e.Embedding) != sig.Dimensions {
			return domainError("entry %q has %d dimensions, index %s", e.ID, len(e.Embedding), sig)
		}
	}
	return nil
}
