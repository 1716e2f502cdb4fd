package services

import (
	"context"
	"fmt"

	"github.com/nutrigenie/nutrigenie-cli/internal/core/domain"
	"github.com/nutrigenie/nutrigenie-cli/internal/core/ports/driven"
	"github.com/nutrigenie/nutrigenie-cli/internal/core/ports/driving"
	"github.com/nutrigenie/nutrigenie-cli/internal/logger"
)

// Ensure BootstrapService implements the interface.
var _ driving.Bootstrapper = (*BootstrapService)(nil)

// embedBatchSize bounds the texts sent per EmbedBatch call.
const embedBatchSize = 64

// BootstrapService populates an empty vector index from the reference dataset.
type BootstrapService struct {
	dataset  driven.DatasetLoader
	embedder driven.EmbeddingService
	index    driven.VectorIndex
}

// NewBootstrapService creates a bootstrap service.
func NewBootstrapService(
	dataset driven.DatasetLoader,
	embedder driven.EmbeddingService,
	index driven.VectorIndex,
) *BootstrapService {
	return &BootstrapService{
		dataset:  dataset,
		embedder: embedder,
		index:    index,
	}
}

// Bootstrap inserts the dataset when the index is empty. It is a no-op
// returning 0 when the index already holds entries.
func (s *BootstrapService) Bootstrap(ctx context.Context) (int, error) {
	if s.index == nil {
		return 0, domain.ErrVectorIndexUnavailable
	}

	count, err := s.index.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count index entries: %w", err)
	}
	if count > 0 {
		logger.Debug("Vector index already holds %d entries, skipping bootstrap", count)
		return 0, nil
	}
	if s.dataset == nil {
		return 0, fmt.Errorf("%w: no dataset configured", domain.ErrDatasetUnavailable)
	}

	logger.Section("Bootstrap")

	docs, err := s.dataset.LoadDocuments(ctx)
	if err != nil {
		return 0, fmt.Errorf("load recipes: %w", err)
	}
	if len(docs) == 0 {
		return 0, fmt.Errorf("%w: dataset has no recipes", domain.ErrDatasetUnavailable)
	}
	if err := checkDocuments(docs); err != nil {
		return 0, err
	}

	embeddings, err := s.dataset.LoadEmbeddings(ctx)
	if err != nil {
		return 0, fmt.Errorf("load embeddings: %w", err)
	}
	if embeddings == nil {
		logger.Info("No embeddings file configured, embedding %d recipes", len(docs))
		if embeddings, err = s.embedDocuments(ctx, docs); err != nil {
			return 0, err
		}
	}
	if len(embeddings) != len(docs) {
		return 0, fmt.Errorf("%w: %d embeddings for %d recipes", domain.ErrDatasetUnavailable, len(embeddings), len(docs))
	}

	sig := s.index.Signature()
	entries := make([]domain.VectorIndexEntry, len(docs))
	for i, doc := range docs {
		if len(embeddings[i]) != sig.Dimensions {
			return 0, fmt.Errorf("%w: embedding %d has %d dimensions, index %s",
				domain.ErrIndexSignatureMismatch, i, len(embeddings[i]), sig)
		}
		entries[i] = domain.VectorIndexEntry{
			ID:        doc.ID,
			Embedding: embeddings[i],
			Document:  doc,
		}
	}

	if err := s.index.Populate(ctx, entries); err != nil {
		return 0, fmt.Errorf("populate index: %w", err)
	}

	logger.Info("Bootstrapped vector index with %d recipes", len(entries))
	return len(entries), nil
}

func (s *BootstrapService) embedDocuments(ctx context.Context, docs []domain.ReferenceDocument) ([][]float32, error) {
	if s.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	out := make([][]float32, 0, len(docs))
	for start := 0; start < len(docs); start += embedBatchSize {
		end := min(start+embedBatchSize, len(docs))
		texts := make([]string, 0, end-start)
		for _, doc := range docs[start:end] {
			texts = append(texts, doc.EmbeddingText())
		}
		vectors, err := s.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, fmt.Errorf("embed recipes %d-%d: %w", start, end-1, err)
		}
		out = append(out, vectors...)
		logger.Debug("Embedded %d/%d recipes", len(out), len(docs))
	}
	return out, nil
}

func checkDocuments(docs []domain.ReferenceDocument) error {
	seen := make(map[string]bool, len(docs))
	for i, doc := range docs {
		if err := doc.Validate(); err != nil {
			return fmt.Errorf("%w: recipe %d: %w", domain.ErrDatasetUnavailable, i, err)
		}
		if seen[doc.ID] {
			return fmt.Errorf("%w: duplicate recipe id %q", domain.ErrDatasetUnavailable, doc.ID)
		}
		seen[doc.ID] = true
	}
	return nil
}
