package services

import (
	"context"
	"fmt"

	"github.com/nutrigenie/nutrigenie-cli/internal/core/domain"
	"github.com/nutrigenie/nutrigenie-cli/internal/core/ports/driven"
	"github.com/nutrigenie/nutrigenie-cli/internal/core/ports/driving"
)

// Ensure conversationService implements the interface.
var _ driving.ConversationService = (*conversationService)(nil)

// conversationService manages stored conversations.
type conversationService struct {
	store driven.ConversationStore
}

// NewConversationService creates a new conversation service.
func NewConversationService(store driven.ConversationStore) driving.ConversationService {
	return &conversationService{store: store}
}

// List returns conversations, most recently used first.
func (s *conversationService) List(ctx context.Context) ([]domain.Conversation, error) {
	return s.store.ListConversations(ctx)
}

// Get returns a conversation with its turns.
func (s *conversationService) Get(ctx context.Context, id string) (domain.Conversation, []domain.ConversationTurn, error) {
	if id == "" {
		return domain.Conversation{}, nil, domain.ErrInvalidInput
	}
	conv, err := s.store.GetConversation(ctx, id)
	if err != nil {
		return domain.Conversation{}, nil, err
	}
	turns, err := s.store.LoadHistory(ctx, id)
	if err != nil {
		return domain.Conversation{}, nil, fmt.Errorf("load history: %w", err)
	}
	return conv, turns, nil
}

// Delete removes a conversation and its turns.
func (s *conversationService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return domain.ErrInvalidInput
	}
	if _, err := s.store.GetConversation(ctx, id); err != nil {
		return err
	}
	return s.store.DeleteConversation(ctx, id)
}

// Suggestions returns the stored recipe suggestions.
func (s *conversationService) Suggestions(ctx context.Context) ([]string, error) {
	return s.store.LoadSuggestions(ctx)
}
