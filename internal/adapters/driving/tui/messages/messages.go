// Package messages defines Bubbletea message types for the TUI.
package messages

import (
	"github.com/nutrigenie/nutrigenie-cli/internal/core/domain"
	"github.com/nutrigenie/nutrigenie-cli/internal/core/ports/driving"
)

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewChat is the transcript and message input.
	ViewChat ViewType = iota
	// ViewConversations lists stored conversations.
	ViewConversations
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewChat:
		return "chat"
	case ViewConversations:
		return "conversations"
	default:
		return "unknown"
	}
}

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// StreamEventReceived carries one stream event of the running turn.
type StreamEventReceived struct {
	Event driving.StreamEvent
}

// TurnCompleted carries the outcome of a chat turn.
type TurnCompleted struct {
	Outcome *domain.TurnOutcome
	Err     error
}

// PaceTick releases the next buffered chunk to the transcript.
type PaceTick struct{}

// ConversationsLoaded carries the stored conversations and suggestions.
type ConversationsLoaded struct {
	Conversations []domain.Conversation
	Suggestions   []string
	Err           error
}

// ConversationSelected asks the app to open a conversation.
type ConversationSelected struct {
	ID string
}

// ConversationLoaded carries a conversation and its turns.
type ConversationLoaded struct {
	Conversation domain.Conversation
	Turns        []domain.ConversationTurn
	Err          error
}

// ConversationDeleted signals a conversation was removed.
type ConversationDeleted struct {
	ID  string
	Err error
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}

// Quit signals the application should exit.
type Quit struct{}
