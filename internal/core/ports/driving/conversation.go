package driving

import (
	"context"

	"github.com/nutrigenie/nutrigenie-cli/internal/core/domain"
)

// ConversationService manages stored conversations.
type ConversationService interface {
	// List returns conversations, most recently used first.
	List(ctx context.Context) ([]domain.Conversation, error)

	// Get returns a conversation with its turns.
	Get(ctx context.Context, id string) (domain.Conversation, []domain.ConversationTurn, error)

	// Delete removes a conversation.
	Delete(ctx context.Context, id string) error

	// Suggestions returns the stored recipe suggestions.
	Suggestions(ctx context.Context) ([]string, error)
}
