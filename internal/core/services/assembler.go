package services

import (
	"strings"

	"github.com/nutrigenie/nutrigenie-cli/internal/core/domain"
	"github.com/nutrigenie/nutrigenie-cli/internal/core/ports/driven"
)

// Ensure PromptAssembler implements the interface.
var _ driven.PromptStoreAware = (*PromptAssembler)(nil)

// PromptAssembler builds the message list sent to the model for a turn.
type PromptAssembler struct {
	prompts driven.PromptStore
}

// NewPromptAssembler creates an assembler using the built-in prompts.
func NewPromptAssembler() *PromptAssembler {
	return &PromptAssembler{}
}

// SetPromptStore sets the prompt store for loading customisable prompts.
func (a *PromptAssembler) SetPromptStore(store driven.PromptStore) {
	a.prompts = store
}

// Assemble returns [system policy, context, ...history]. history must already
// end with the new user message; it is neither reordered nor truncated.
func (a *PromptAssembler) Assemble(history []domain.Message, retrieved []domain.ReferenceDocument) []domain.Message {
	messages := make([]domain.Message, 0, len(history)+2)
	messages = append(messages,
		domain.Message{Role: domain.RoleSystem, Content: loadPrompt(a.prompts, driven.PromptSystemPolicy)},
		domain.Message{Role: domain.RoleAssistant, Content: a.contextMessage(retrieved)},
	)
	return append(messages, history...)
}

func (a *PromptAssembler) contextMessage(retrieved []domain.ReferenceDocument) string {
	if len(retrieved) == 0 {
		return loadPrompt(a.prompts, driven.PromptNoContext)
	}
	parts := make([]string, 0, len(retrieved)+1)
	parts = append(parts, loadPrompt(a.prompts, driven.PromptContextHeader))
	for _, doc := range retrieved {
		parts = append(parts, doc.ContextText())
	}
	return strings.Join(parts, "\n\n")
}
