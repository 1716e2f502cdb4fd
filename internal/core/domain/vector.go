package domain

import "fmt"

// IndexSignature identifies the embedder a vector index was built with.
// An index may only be queried with embeddings from the same signature.
type IndexSignature struct {
	// Model is the embedding model name.
	Model string

	// Dimensions is the embedding vector size.
	Dimensions int
}

// IsZero returns true if no signature has been recorded yet.
func (s IndexSignature) IsZero() bool {
	return s.Model == "" && s.Dimensions == 0
}

// Check returns ErrIndexSignatureMismatch if other was produced by a different embedder.
func (s IndexSignature) Check(other IndexSignature) error {
	if s.Model != other.Model || s.Dimensions != other.Dimensions {
		return fmt.Errorf("%w: index has %s, embedder is %s", ErrIndexSignatureMismatch, s, other)
	}
	return nil
}

// String returns the signature as "model/dimensions".
func (s IndexSignature) String() string {
	return fmt.Sprintf("%s/%d", s.Model, s.Dimensions)
}

// VectorIndexEntry pairs a reference document with its embedding.
// The document is a denormalised copy so query results need no second lookup.
type VectorIndexEntry struct {
	// ID matches Document.ID.
	ID string

	// Embedding is the document vector.
	Embedding []float32

	// Document is the recipe metadata.
	Document ReferenceDocument
}

// VectorHit is a single similarity search result.
type VectorHit struct {
	// Entry is the matched index entry.
	Entry VectorIndexEntry

	// Score is the cosine similarity between the query and the entry.
	Score float64
}
