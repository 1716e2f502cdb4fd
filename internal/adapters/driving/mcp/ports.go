package mcp

import (
	"github.com/nutrigenie/nutrigenie-cli/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
type Ports struct {
	// Retrieval finds recipes for a query.
	Retrieval driving.RetrievalService

	// Language gates queries by language. Optional.
	Language driving.LanguageService

	// Safety classifies queries. Optional; classify_query fails without it.
	Safety driving.SafetyService

	// Titles runs the helper completions. Optional.
	Titles driving.TitleService

	// Conversations backs the conversation resources. Optional.
	Conversations driving.ConversationService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Retrieval == nil {
		return ErrMissingRetrievalService
	}
	return nil
}
