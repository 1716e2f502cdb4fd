package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/nutrigenie/nutrigenie-cli/internal/core/domain"
	"github.com/nutrigenie/nutrigenie-cli/internal/core/ports/driven"
	"github.com/nutrigenie/nutrigenie-cli/internal/core/ports/driving"
	"github.com/nutrigenie/nutrigenie-cli/internal/logger"
)

// Ensure SafetyClassifier implements the interface.
var _ driving.SafetyService = (*SafetyClassifier)(nil)

// unsafeThreshold is the probability at or above which a query is unsafe.
const unsafeThreshold = 0.5

// SafetyClassifier is a logistic regression over query embeddings that
// flags unsafe queries and learns online from confirmed injections.
//
// The classifier fails closed: it cannot be constructed without a valid
// persisted state matching the running embedder.
type SafetyClassifier struct {
	mu       sync.Mutex
	embedder driven.EmbeddingService
	store    driven.ClassifierStateStore
	state    *domain.ClassifierState
	now      func() time.Time
}

// NewSafetyClassifier loads the persisted state. A missing, corrupt or
// incompatible state returns an error wrapping domain.ErrGuardrailUnavailable.
func NewSafetyClassifier(
	ctx context.Context,
	embedder driven.EmbeddingService,
	store driven.ClassifierStateStore,
) (*SafetyClassifier, error) {
	if embedder == nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrGuardrailUnavailable, domain.ErrEmbeddingUnavailable)
	}
	if store == nil {
		return nil, fmt.Errorf("%w: no state store", domain.ErrGuardrailUnavailable)
	}

	state, err := store.Load(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrGuardrailUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", domain.ErrGuardrailUnavailable, err)
	}

	c := &SafetyClassifier{
		embedder: embedder,
		store:    store,
		now:      time.Now,
	}
	if err := c.checkState(state); err != nil {
		return nil, err
	}
	c.state = state

	logger.Debug("Guardrail loaded from %s (revision %d, %d updates)", store.Path(), state.Revision, state.Updates)
	return c, nil
}

// checkState verifies a state is usable with the running embedder.
func (c *SafetyClassifier) checkState(state *domain.ClassifierState) error {
	if err := state.Validate(); err != nil {
		return err
	}
	if state.Dimensions != c.embedder.Dimensions() {
		return fmt.Errorf("%w: state has %d dimensions, embedder %s has %d",
			domain.ErrGuardrailUnavailable, state.Dimensions, c.embedder.ModelName(), c.embedder.Dimensions())
	}
	if state.EmbedderModel != "" && state.EmbedderModel != c.embedder.ModelName() {
		return fmt.Errorf("%w: state trained on %s, embedder is %s",
			domain.ErrGuardrailUnavailable, state.EmbedderModel, c.embedder.ModelName())
	}
	return nil
}

// Score returns the probability that query is unsafe.
func (c *SafetyClassifier) Score(ctx context.Context, query string) (float64, error) {
	x, err := c.embedder.Embed(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("embed query: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if len(x) != len(c.state.Weights) {
		return 0, fmt.Errorf("%w: embedding has %d dimensions, classifier %d",
			domain.ErrGuardrailUnavailable, len(x), len(c.state.Weights))
	}
	return probability(c.state, x), nil
}

// Predict returns true if query is classified as safe (label != 1).
func (c *SafetyClassifier) Predict(ctx context.Context, query string) (bool, error) {
	p, err := c.Score(ctx, query)
	if err != nil {
		return false, err
	}
	label := domain.LabelSafe
	if p >= unsafeThreshold {
		label = domain.LabelUnsafe
	}
	logger.Debug("Guardrail score %.3f -> %s", p, label)
	return label != domain.LabelUnsafe, nil
}

// IncrementalLearn applies one SGD step for (query, label) and persists the
// whole state before returning. If persisting fails the update is discarded.
func (c *SafetyClassifier) IncrementalLearn(ctx context.Context, query string, label domain.Label) error {
	if !label.IsValid() {
		return fmt.Errorf("incremental learn: %w: label %d", domain.ErrInvalidInput, int(label))
	}

	x, err := c.embedder.Embed(ctx, query)
	if err != nil {
		return fmt.Errorf("embed query: %w", err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if len(x) != len(c.state.Weights) {
		return fmt.Errorf("%w: embedding has %d dimensions, classifier %d",
			domain.ErrGuardrailUnavailable, len(x), len(c.state.Weights))
	}

	next := c.state.Clone()
	sgdStep(next, x, label)
	next.Revision++
	next.Updates++
	next.UpdatedAt = c.now().UTC()

	if err := c.store.Save(ctx, next); err != nil {
		return fmt.Errorf("persist classifier state: %w", err)
	}
	c.state = next

	logger.Info("Guardrail learned %s example (revision %d)", label, next.Revision)
	return nil
}

// State returns a copy of the current state.
func (c *SafetyClassifier) State() *domain.ClassifierState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Clone()
}

// Reload swaps in state if it is valid and newer than the current one.
// It reports whether the state was applied.
func (c *SafetyClassifier) Reload(state *domain.ClassifierState) bool {
	if err := c.checkState(state); err != nil {
		logger.Warn("ignoring classifier state: %v", err)
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if state.Revision <= c.state.Revision {
		return false
	}
	c.state = state.Clone()
	logger.Debug("Guardrail reloaded (revision %d)", state.Revision)
	return true
}

// WatchState reloads the state whenever another process persists a newer
// revision, until ctx is done. It returns nil at once if the store cannot be watched.
func (c *SafetyClassifier) WatchState(ctx context.Context) error {
	watcher, ok := c.store.(driven.ClassifierStateWatcher)
	if !ok {
		return nil
	}
	return watcher.Watch(ctx, func(state *domain.ClassifierState) {
		c.Reload(state)
	})
}

func probability(state *domain.ClassifierState, x []float32) float64 {
	z := state.Bias
	for i, w := range state.Weights {
		z += w * float64(x[i])
	}
	return sigmoid(z)
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

// sgdStep applies one log-loss gradient step with L2 weight decay.
func sgdStep(state *domain.ClassifierState, x []float32, label domain.Label) {
	g := probability(state, x) - float64(label)
	for i := range state.Weights {
		state.Weights[i] -= state.LearningRate * (g*float64(x[i]) + state.L2*state.Weights[i])
	}
	state.Bias -= state.LearningRate * g
}

// Training defaults.
const (
	DefaultTrainEpochs       = 30
	DefaultTrainLearningRate = 0.5
	DefaultTrainL2           = 1e-4
)

// TrainOptions configures offline classifier training.
type TrainOptions struct {
	// Epochs is the number of passes over the examples (default: 30).
	Epochs int

	// LearningRate is the SGD step size, also kept for incremental updates (default: 0.5).
	LearningRate float64

	// L2 is the weight decay (default: 1e-4).
	L2 float64
}

// TrainClassifier fits a fresh state on labelled examples. The examples are
// visited in order on every epoch, so training is deterministic.
func TrainClassifier(
	ctx context.Context,
	embedder driven.EmbeddingService,
	examples []domain.LabelledExample,
	opts TrainOptions,
) (*domain.ClassifierState, error) {
	if len(examples) == 0 {
		return nil, fmt.Errorf("train classifier: %w: no examples", domain.ErrInvalidInput)
	}
	if opts.Epochs <= 0 {
		opts.Epochs = DefaultTrainEpochs
	}
	if opts.LearningRate <= 0 {
		opts.LearningRate = DefaultTrainLearningRate
	}
	if opts.L2 < 0 {
		opts.L2 = 0
	} else if opts.L2 == 0 {
		opts.L2 = DefaultTrainL2
	}

	texts := make([]string, len(examples))
	for i, ex := range examples {
		if !ex.Label.IsValid() {
			return nil, fmt.Errorf("train classifier: %w: example %d has label %d", domain.ErrInvalidInput, i, int(ex.Label))
		}
		texts[i] = ex.Text
	}

	vectors, err := embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed examples: %w", err)
	}

	dims := embedder.Dimensions()
	state := &domain.ClassifierState{
		Version:       domain.ClassifierStateVersion,
		EmbedderModel: embedder.ModelName(),
		Dimensions:    dims,
		Weights:       make([]float64, dims),
		LearningRate:  opts.LearningRate,
		L2:            opts.L2,
	}

	for epoch := 0; epoch < opts.Epochs; epoch++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for i, x := range vectors {
			if len(x) != dims {
				return nil, fmt.Errorf("train classifier: %w: example %d has %d dimensions", domain.ErrInvalidInput, i, len(x))
			}
			sgdStep(state, x, examples[i].Label)
		}
	}

	state.Revision = 1
	state.UpdatedAt = time.Now().UTC()
	if err := state.Validate(); err != nil {
		return nil, err
	}
	logger.Info("Trained guardrail on %d examples over %d epochs", len(examples), opts.Epochs)
	return state, nil
}
