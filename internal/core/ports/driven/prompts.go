package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files, embed them in the binary,
// or fetch them from a remote configuration service.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// If the prompt is not found, implementations return the embedded default
	// when one exists, or an error otherwise.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Well-known prompt names used throughout the application.
const (
	// PromptSystemPolicy is the nutrition-expert persona with the embedded
	// injection-detection layer. No format placeholders.
	PromptSystemPolicy = "system_policy"

	// PromptContextHeader introduces retrieved recipes in the context message.
	// No format placeholders; recipes are appended after it.
	PromptContextHeader = "context_header"

	// PromptNoContext is the context message used when retrieval found nothing.
	PromptNoContext = "no_context"

	// PromptTitle asks for a short conversation title. No format placeholders;
	// the text to summarise is sent as the user message.
	PromptTitle = "title"

	// PromptRecipeExtraction asks for the recipe titles mentioned in an answer,
	// one per line. No format placeholders.
	PromptRecipeExtraction = "recipe_extraction"
)

// PromptStoreAware is an optional interface for services that can use custom prompts.
type PromptStoreAware interface {
	// SetPromptStore sets the prompt store for loading customisable prompts.
	// If not set, the service should use its embedded default prompts.
	SetPromptStore(store PromptStore)
}
