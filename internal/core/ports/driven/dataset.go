package driven

import (
	"context"

	"github.com/nutrigenie/nutrigenie-cli/internal/core/domain"
)

// DatasetLoader reads the offline reference dataset.
type DatasetLoader interface {
	// LoadDocuments returns the recipes in file order.
	LoadDocuments(ctx context.Context) ([]domain.ReferenceDocument, error)

	// LoadEmbeddings returns the precomputed embeddings, row i belonging to
	// document i. It returns (nil, nil) when no embeddings file is configured.
	LoadEmbeddings(ctx context.Context) ([][]float32, error)
}

// LabelledDatasetLoader reads labelled queries for classifier training.
type LabelledDatasetLoader interface {
	// LoadExamples returns the labelled examples in file order.
	LoadExamples(ctx context.Context) ([]domain.LabelledExample, error)
}
