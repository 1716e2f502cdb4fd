package memory

import (
	"context"
	"sync"

	"github.com/nutrigenie/nutrigenie-cli/internal/adapters/driven/storage/scoring"
	"github.com/nutrigenie/nutrigenie-cli/internal/core/domain"
	"github.com/nutrigenie/nutrigenie-cli/internal/core/ports/driven"
)

// Ensure VectorIndex implements the interface.
var _ driven.VectorIndex = (*VectorIndex)(nil)

// VectorIndex is a brute-force, in-memory implementation of driven.VectorIndex.
// Its contents are lost when the process exits.
type VectorIndex struct {
	mu      sync.RWMutex
	sig     domain.IndexSignature
	entries []domain.VectorIndexEntry
}

// NewVectorIndex creates an empty index for embeddings of the given signature.
func NewVectorIndex(sig domain.IndexSignature) *VectorIndex {
	return &VectorIndex{sig: sig}
}

// Count returns the number of stored entries.
func (v *VectorIndex) Count(_ context.Context) (int, error) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.entries), nil
}

// Populate inserts all entries.
func (v *VectorIndex) Populate(_ context.Context, entries []domain.VectorIndexEntry) error {
	if err := scoring.CheckEntries(v.sig, entries); err != nil {
		return err
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.entries = append(v.entries, entries...)
	return nil
}

// Query returns up to topK entries, most similar first.
func (v *VectorIndex) Query(_ context.Context, embedding []float32, topK int) ([]domain.VectorHit, error) {
	if len(embedding) != v.sig.Dimensions {
		return nil, domain.ErrInvalidInput
	}
	v.mu.RLock()
	defer v.mu.RUnlock()
	return scoring.TopK(v.entries, embedding, topK), nil
}

// Signature returns the embedder signature of the index.
func (v *VectorIndex) Signature() domain.IndexSignature {
	return v.sig
}

// Close releases resources.
func (v *VectorIndex) Close() error {
	return nil
}
