package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nutrigenie/nutrigenie-cli/internal/core/domain"
	"github.com/nutrigenie/nutrigenie-cli/internal/core/ports/driven"
)

// Ensure ConversationStore implements the interface.
var _ driven.ConversationStore = (*ConversationStore)(nil)

// ConversationStore is an in-memory implementation of driven.ConversationStore.
type ConversationStore struct {
	mu            sync.RWMutex
	conversations map[string]domain.Conversation
	turns         map[string][]domain.ConversationTurn
	suggestions   []string
	now           func() time.Time
}

// NewConversationStore creates a new in-memory conversation store.
func NewConversationStore() *ConversationStore {
	return &ConversationStore{
		conversations: make(map[string]domain.Conversation),
		turns:         make(map[string][]domain.ConversationTurn),
		now:           time.Now,
	}
}

// CreateConversation stores a new conversation with a generated ID.
func (s *ConversationStore) CreateConversation(_ context.Context, title string) (domain.Conversation, error) {
	if title == "" {
		title = domain.DefaultConversationTitle
	}
	now := s.now().UTC()
	conv := domain.Conversation{
		ID:        uuid.New().String(),
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.conversations[conv.ID] = conv
	return conv, nil
}

// GetConversation retrieves a conversation by ID.
func (s *ConversationStore) GetConversation(_ context.Context, id string) (domain.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	conv, ok := s.conversations[id]
	if !ok {
		return domain.Conversation{}, domain.ErrNotFound
	}
	return conv, nil
}

// ListConversations returns conversations, most recently used first.
func (s *ConversationStore) ListConversations(_ context.Context) ([]domain.Conversation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Conversation, 0, len(s.conversations))
	for _, c := range s.conversations {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

// UpdateTitle renames a conversation.
func (s *ConversationStore) UpdateTitle(_ context.Context, id, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.conversations[id]
	if !ok {
		return domain.ErrNotFound
	}
	conv.Title = title
	s.conversations[id] = conv
	return nil
}

// Touch marks a conversation as used now.
func (s *ConversationStore) Touch(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	conv, ok := s.conversations[id]
	if !ok {
		return domain.ErrNotFound
	}
	conv.UpdatedAt = s.now().UTC()
	s.conversations[id] = conv
	return nil
}

// DeleteConversation removes a conversation and its turns.
func (s *ConversationStore) DeleteConversation(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.conversations[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.conversations, id)
	delete(s.turns, id)
	return nil
}

// LoadHistory returns the turns of a conversation in recording order.
func (s *ConversationStore) LoadHistory(_ context.Context, id string) ([]domain.ConversationTurn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.conversations[id]; !ok {
		return nil, domain.ErrNotFound
	}
	out := make([]domain.ConversationTurn, len(s.turns[id]))
	copy(out, s.turns[id])
	return out, nil
}

// SaveTurn appends a turn to a conversation.
func (s *ConversationStore) SaveTurn(_ context.Context, id string, turn domain.ConversationTurn) error {
	if turn.Role != domain.RoleUser && turn.Role != domain.RoleAssistant {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.conversations[id]; !ok {
		return domain.ErrNotFound
	}
	s.turns[id] = append(s.turns[id], turn)
	return nil
}

// LoadSuggestions returns stored recipe suggestions in insertion order.
func (s *ConversationStore) LoadSuggestions(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.suggestions))
	copy(out, s.suggestions)
	return out, nil
}

// SaveSuggestions appends suggestions not already stored (case-insensitive).
func (s *ConversationStore) SaveSuggestions(_ context.Context, titles []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	seen := make(map[string]bool, len(s.suggestions))
	for _, t := range s.suggestions {
		seen[strings.ToLower(t)] = true
	}
	for _, t := range titles {
		key := strings.ToLower(t)
		if t == "" || seen[key] {
			continue
		}
		seen[key] = true
		s.suggestions = append(s.suggestions, t)
	}
	return nil
}
