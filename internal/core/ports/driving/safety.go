package driving

import (
	"context"

	"github.com/nutrigenie/nutrigenie-cli/internal/core/domain"
)

// SafetyService exposes the safety classifier.
type SafetyService interface {
	// Predict returns true if the query is classified as safe.
	Predict(ctx context.Context, query string) (bool, error)

	// Score returns the probability that the query is unsafe.
	Score(ctx context.Context, query string) (float64, error)

	// IncrementalLearn applies one online update and persists the state.
	IncrementalLearn(ctx context.Context, query string, label domain.Label) error

	// State returns a copy of the current classifier state.
	State() *domain.ClassifierState
}

// LanguageService exposes the language guard.
type LanguageService interface {
	// IsSupported returns true if the query is in a supported language.
	IsSupported(query string) bool
}

// GuardrailTrainer fits and persists a fresh safety classifier.
type GuardrailTrainer interface {
	// Train fits a new state on the labelled examples and persists it,
	// replacing any existing state. epochs <= 0 uses the default.
	Train(ctx context.Context, examples []domain.LabelledExample, epochs int) (*domain.ClassifierState, error)
}
