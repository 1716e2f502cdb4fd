package driven

import "github.com/nutrigenie/nutrigenie-cli/internal/core/domain"

// AIConfigValidator checks AI provider configurations by contacting the
// underlying services.
type AIConfigValidator interface {
	// ValidateEmbedding pings the embedding provider.
	// Returns nil if the configuration is not set up.
	ValidateEmbedding(config *domain.EmbeddingSettings) error

	// ValidateLLM pings the LLM provider.
	// Returns nil if the configuration is not set up.
	ValidateLLM(config *domain.LLMSettings) error
}
