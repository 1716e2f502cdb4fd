package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/nutrigenie/nutrigenie-cli/internal/core/domain"
	"github.com/nutrigenie/nutrigenie-cli/internal/core/ports/driven"
	"github.com/nutrigenie/nutrigenie-cli/internal/core/ports/driving"
	"github.com/nutrigenie/nutrigenie-cli/internal/logger"
)

// Ensure Retriever implements the interface.
var _ driving.RetrievalService = (*Retriever)(nil)

// Retriever finds the recipes closest to a query in the vector index.
type Retriever struct {
	embedder driven.EmbeddingService
	index    driven.VectorIndex
	topK     int
}

// NewRetriever creates a retriever. topK <= 0 uses domain.DefaultTopK.
func NewRetriever(embedder driven.EmbeddingService, index driven.VectorIndex, topK int) *Retriever {
	if topK <= 0 {
		topK = domain.DefaultTopK
	}
	return &Retriever{
		embedder: embedder,
		index:    index,
		topK:     topK,
	}
}

// Retrieve returns up to topK recipes, most similar first.
func (r *Retriever) Retrieve(ctx context.Context, query string, topK int) ([]domain.ReferenceDocument, error) {
	hits, err := r.RetrieveScored(ctx, query, topK)
	if err != nil {
		return nil, err
	}
	docs := make([]domain.ReferenceDocument, len(hits))
	for i, hit := range hits {
		docs[i] = hit.Entry.Document
	}
	return docs, nil
}

// RetrieveScored returns up to topK hits with their cosine similarity.
func (r *Retriever) RetrieveScored(ctx context.Context, query string, topK int) ([]domain.VectorHit, error) {
	if strings.TrimSpace(query) == "" {
		return []domain.VectorHit{}, nil
	}
	if r.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	if r.index == nil {
		return nil, domain.ErrVectorIndexUnavailable
	}
	if topK <= 0 {
		topK = r.topK
	}

	logger.Debug("Retrieving top %d recipes for %q", topK, query)

	embedding, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	hits, err := r.index.Query(ctx, embedding, topK)
	if err != nil {
		return nil, fmt.Errorf("query vector index: %w", err)
	}
	if hits == nil {
		hits = []domain.VectorHit{}
	}

	for i, hit := range hits {
		logger.Debug("  %d. %s (score %.3f)", i+1, hit.Entry.Document.Title, hit.Score)
	}
	return hits, nil
}
