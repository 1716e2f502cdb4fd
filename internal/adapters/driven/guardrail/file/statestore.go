// Package file persists the safety classifier state as a JSON file and
// watches it for rewrites by other processes.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/nutrigenie/nutrigenie-cli/internal/core/domain"
	"github.com/nutrigenie/nutrigenie-cli/internal/core/ports/driven"
	"github.com/nutrigenie/nutrigenie-cli/internal/logger"
)

// Ensure StateStore implements the interfaces.
var (
	_ driven.ClassifierStateStore   = (*StateStore)(nil)
	_ driven.ClassifierStateWatcher = (*StateStore)(nil)
)

// DefaultDebounce is how long Watch waits for writes to settle before reloading.
const DefaultDebounce = 100 * time.Millisecond

// StateStore keeps the classifier state in a single JSON file.
// Saves write a temporary file and rename it over the target, so readers
// never observe a partial state.
type StateStore struct {
	mu       sync.Mutex
	path     string
	debounce time.Duration
}

// NewStateStore creates a store for the state file at path.
// If path is empty, defaults to ~/.nutrigenie/guardrail/guardrail.json.
func NewStateStore(path string) (*StateStore, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		path = filepath.Join(home, ".nutrigenie", "guardrail", "guardrail.json")
	}
	return &StateStore{path: path, debounce: DefaultDebounce}, nil
}

// Path returns the state file path.
func (s *StateStore) Path() string {
	return s.path
}

// Load reads and decodes the state file.
func (s *StateStore) Load(ctx context.Context) (*domain.ClassifierState, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: no classifier state at %s, run 'nutrigenie guardrail train'",
			domain.ErrGuardrailUnavailable, s.path)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: read classifier state: %w", domain.ErrGuardrailUnavailable, err)
	}

	var state domain.ClassifierState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("%w: decode classifier state: %w", domain.ErrGuardrailUnavailable, err)
	}
	return &state, nil
}

// Save writes the full state and fsyncs it before returning.
func (s *StateStore) Save(ctx context.Context, state *domain.ClassifierState) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if state == nil {
		return fmt.Errorf("%w: nil classifier state", domain.ErrInvalidInput)
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encode classifier state: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".classifier-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write state: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync state: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close state: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0600); err != nil {
		return fmt.Errorf("chmod state: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace state: %w", err)
	}
	return nil
}

// Watch calls onChange with each state persisted to the file until ctx is
// done. The parent directory is watched because Save replaces the file.
// Unreadable intermediate states are logged and skipped.
func (s *StateStore) Watch(ctx context.Context, onChange func(*domain.ClassifierState)) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	name := filepath.Base(s.path)
	var (
		timer   *time.Timer
		timerCh <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			// Coalesce bursts of events from a single save.
			if timer == nil {
				timer = time.NewTimer(s.debounce)
			} else {
				timer.Reset(s.debounce)
			}
			timerCh = timer.C

		case <-timerCh:
			timerCh = nil
			state, err := s.Load(ctx)
			if err != nil {
				logger.Debug("skipping classifier state change: %v", err)
				continue
			}
			onChange(state)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("classifier state watcher error: %v", err)
		}
	}
}
