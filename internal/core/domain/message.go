package domain

import "time"

// Role identifies the author of a chat message.
type Role string

// Available message roles.
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// IsValid returns true if the role is recognised.
func (r Role) IsValid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (r Role) String() string {
	return string(r)
}

// Message is a single entry in the message list sent to the language model.
type Message struct {
	Role    Role
	Content string
}

// ConversationTurn is a stored chat message with its processing metadata.
type ConversationTurn struct {
	// Role is either RoleUser or RoleAssistant.
	Role Role

	// Content is the message text.
	Content string

	// Timestamp is when the turn was recorded.
	Timestamp time.Time

	// Latency is the generation time for assistant turns, zero for user turns.
	Latency time.Duration

	// Cost is the provider cost attributed to the turn, when known.
	Cost float64

	// Emissions is the estimated CO2 equivalent in grams, when known.
	Emissions float64
}

// Message converts the turn into a model message.
func (t ConversationTurn) Message() Message {
	return Message{Role: t.Role, Content: t.Content}
}

// DefaultConversationTitle is the title given to conversations before one is generated.
const DefaultConversationTitle = "Nouvelle conversation"

// Conversation is a persisted chat thread.
type Conversation struct {
	// ID is a UUID.
	ID string

	// Title is a short summary of the first message.
	Title string

	// CreatedAt is when the conversation was created.
	CreatedAt time.Time

	// UpdatedAt is when the conversation was last used.
	UpdatedAt time.Time
}

// HasDefaultTitle returns true if the title was never generated.
func (c Conversation) HasDefaultTitle() bool {
	return c.Title == "" || c.Title == DefaultConversationTitle
}
