package driving

import (
	"context"

	"github.com/nutrigenie/nutrigenie-cli/internal/core/domain"
)

// RetrievalService finds recipes relevant to a query.
type RetrievalService interface {
	// Retrieve returns up to topK recipes, most similar first.
	// topK <= 0 uses the default.
	Retrieve(ctx context.Context, query string, topK int) ([]domain.ReferenceDocument, error)

	// RetrieveScored is Retrieve with similarity scores.
	RetrieveScored(ctx context.Context, query string, topK int) ([]domain.VectorHit, error)
}

// Bootstrapper populates the vector index from the reference dataset.
type Bootstrapper interface {
	// Bootstrap inserts the dataset if the index is empty and returns the
	// number of entries inserted (zero when the index was already populated).
	Bootstrap(ctx context.Context) (int, error)
}

// TitleService runs the one-shot helper completions.
type TitleService interface {
	// SummarizeTitle returns a title of at most 30 characters.
	SummarizeTitle(ctx context.Context, text string) (string, error)

	// ExtractRecipeTitles returns the distinct recipe titles mentioned in text.
	ExtractRecipeTitles(ctx context.Context, text string) ([]string, error)
}
