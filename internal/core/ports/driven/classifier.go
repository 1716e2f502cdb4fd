package driven

import (
	"context"

	"github.com/nutrigenie/nutrigenie-cli/internal/core/domain"
)

// ClassifierStateStore persists the safety classifier parameters.
// The state is overwritten wholesale on every save.
type ClassifierStateStore interface {
	// Load reads the persisted state. A missing or unreadable state is an
	// error wrapping domain.ErrGuardrailUnavailable; there is no default.
	Load(ctx context.Context) (*domain.ClassifierState, error)

	// Save persists the full state synchronously.
	Save(ctx context.Context, state *domain.ClassifierState) error

	// Path returns the location of the persisted state.
	Path() string
}

// ClassifierStateWatcher is an optional interface for stores that can
// notify when another process rewrites the state.
type ClassifierStateWatcher interface {
	// Watch calls onChange with each newly persisted state until ctx is done.
	Watch(ctx context.Context, onChange func(*domain.ClassifierState)) error
}
