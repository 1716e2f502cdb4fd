package services

import (
	"context"
	"fmt"

	"github.com/nutrigenie/nutrigenie-cli/internal/core/domain"
	"github.com/nutrigenie/nutrigenie-cli/internal/core/ports/driven"
	"github.com/nutrigenie/nutrigenie-cli/internal/core/ports/driving"
	"github.com/nutrigenie/nutrigenie-cli/internal/logger"
)

// Ensure GuardrailTrainingService implements the interface.
var _ driving.GuardrailTrainer = (*GuardrailTrainingService)(nil)

// GuardrailTrainingService trains the safety classifier offline and
// persists the result through the state store.
type GuardrailTrainingService struct {
	embedder driven.EmbeddingService
	store    driven.ClassifierStateStore
}

// NewGuardrailTrainingService creates a training service.
func NewGuardrailTrainingService(embedder driven.EmbeddingService, store driven.ClassifierStateStore) *GuardrailTrainingService {
	return &GuardrailTrainingService{embedder: embedder, store: store}
}

// Train fits a state and saves it. The revision continues from any
// readable existing state so running watchers pick the new one up.
func (s *GuardrailTrainingService) Train(
	ctx context.Context,
	examples []domain.LabelledExample,
	epochs int,
) (*domain.ClassifierState, error) {
	if s.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	if s.store == nil {
		return nil, fmt.Errorf("%w: no state store", domain.ErrGuardrailUnavailable)
	}

	state, err := TrainClassifier(ctx, s.embedder, examples, TrainOptions{Epochs: epochs})
	if err != nil {
		return nil, err
	}

	if prev, err := s.store.Load(ctx); err == nil && prev != nil {
		state.Revision = prev.Revision + 1
	}
	if err := s.store.Save(ctx, state); err != nil {
		return nil, fmt.Errorf("save classifier state: %w", err)
	}
	logger.Info("Guardrail state written to %s (revision %d)", s.store.Path(), state.Revision)
	return state.Clone(), nil
}
