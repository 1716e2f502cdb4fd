package driven

import (
	"context"

	"github.com/nutrigenie/nutrigenie-cli/internal/core/domain"
)

// VectorIndex is the persistent nearest-neighbour store over recipes.
//
// Population is an idempotent bootstrap, not an upsert: callers check
// Count() == 0 before calling Populate.
type VectorIndex interface {
	// Count returns the number of stored entries.
	Count(ctx context.Context) (int, error)

	// Populate inserts all entries. Every embedding must match the index signature.
	Populate(ctx context.Context, entries []domain.VectorIndexEntry) error

	// Query returns up to topK entries ordered by non-increasing cosine similarity.
	// An empty index, or topK <= 0, returns an empty slice.
	Query(ctx context.Context, embedding []float32, topK int) ([]domain.VectorHit, error)

	// Signature returns the embedder signature the index was built with.
	Signature() domain.IndexSignature

	// Close releases resources.
	Close() error
}
