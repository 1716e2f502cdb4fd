// Package tui provides an interactive terminal chat for NutriGenie.
// It is a driving adapter: every action goes through the driving ports.
package tui

import (
	"time"

	"github.com/nutrigenie/nutrigenie-cli/internal/core/ports/driving"
)

// Ports aggregates the driving ports and options the TUI needs.
type Ports struct {
	// Chat runs turns.
	Chat driving.ChatService

	// Conversations lists, opens and deletes stored conversations.
	Conversations driving.ConversationService

	// Pacing is the delay between displayed answer chunks.
	Pacing time.Duration
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Chat == nil {
		return ErrMissingChatService
	}
	if p.Conversations == nil {
		return ErrMissingConversationService
	}
	return nil
}
