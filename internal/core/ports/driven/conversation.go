package driven

import (
	"context"

	"github.com/nutrigenie/nutrigenie-cli/internal/core/domain"
)

// ConversationStore persists conversations, their turns and the recipe
// suggestions extracted from answers.
type ConversationStore interface {
	// CreateConversation stores a new conversation with a generated ID.
	CreateConversation(ctx context.Context, title string) (domain.Conversation, error)

	// GetConversation returns domain.ErrNotFound if the conversation does not exist.
	GetConversation(ctx context.Context, id string) (domain.Conversation, error)

	// ListConversations returns conversations, most recently used first.
	ListConversations(ctx context.Context) ([]domain.Conversation, error)

	// UpdateTitle renames a conversation.
	UpdateTitle(ctx context.Context, id, title string) error

	// Touch marks a conversation as used now.
	Touch(ctx context.Context, id string) error

	// DeleteConversation removes a conversation and its turns.
	DeleteConversation(ctx context.Context, id string) error

	// LoadHistory returns the turns of a conversation in recording order.
	LoadHistory(ctx context.Context, id string) ([]domain.ConversationTurn, error)

	// SaveTurn appends a turn to a conversation.
	SaveTurn(ctx context.Context, id string, turn domain.ConversationTurn) error

	// LoadSuggestions returns stored recipe suggestions in insertion order.
	LoadSuggestions(ctx context.Context) ([]string, error)

	// SaveSuggestions appends recipe suggestions, ignoring ones already stored.
	SaveSuggestions(ctx context.Context, titles []string) error
}
