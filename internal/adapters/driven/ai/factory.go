// Package ai provides factory functions for creating AI service adapters.
package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/nutrigenie/nutrigenie-cli/internal/adapters/driven/embedding/cache"
	"github.com/nutrigenie/nutrigenie-cli/internal/adapters/driven/embedding/hashing"
	ollamaembed "github.com/nutrigenie/nutrigenie-cli/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/nutrigenie/nutrigenie-cli/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/nutrigenie/nutrigenie-cli/internal/adapters/driven/llm/anthropic"
	ollamallm "github.com/nutrigenie/nutrigenie-cli/internal/adapters/driven/llm/ollama"
	openaillm "github.com/nutrigenie/nutrigenie-cli/internal/adapters/driven/llm/openai"
	"github.com/nutrigenie/nutrigenie-cli/internal/core/domain"
	"github.com/nutrigenie/nutrigenie-cli/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// CreateAndValidateEmbeddingService creates an embedding service, validates
// connectivity and wraps it in the query cache.
func CreateAndValidateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. Run 'nutrigenie settings' to fix",
			domain.ErrEmbeddingUnavailable, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		_ = svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w). Run 'nutrigenie settings' to fix",
			domain.ErrEmbeddingUnavailable, err)
	}

	cached, err := cache.New(svc, settings.CacheSize)
	if err != nil {
		_ = svc.Close()
		return nil, err
	}
	return cached, nil
}

// CreateAndValidateLLMService creates an LLM service and validates connectivity.
func CreateAndValidateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	svc, err := CreateLLMService(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. Run 'nutrigenie settings' to fix",
			domain.ErrLLMUnavailable, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		_ = svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w). Run 'nutrigenie settings' to fix",
			domain.ErrLLMUnavailable, err)
	}

	return svc, nil
}

// ValidateEmbeddingConfig creates an embedding service and pings it.
// Unconfigured settings are not an error.
func ValidateEmbeddingConfig(settings *domain.EmbeddingSettings) error {
	if settings == nil || !settings.IsConfigured() {
		return nil
	}

	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	return svc.Ping(ctx)
}

// ValidateLLMConfig creates an LLM service and pings it.
// Unconfigured settings are not an error.
func ValidateLLMConfig(settings *domain.LLMSettings) error {
	if settings == nil || !settings.IsConfigured() {
		return nil
	}

	svc, err := CreateLLMService(settings)
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	return svc.Ping(ctx)
}

// CreateEmbeddingService creates the embedding service selected by settings.
func CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil {
		return nil, fmt.Errorf("embedding settings are missing")
	}
	if settings.Provider.RequiresAPIKey() && settings.APIKey == "" {
		return nil, fmt.Errorf("%w: set %s", domain.ErrMissingAPIKey, settings.Provider.APIKeyEnv())
	}

	switch settings.Provider {
	case domain.AIProviderHashing:
		return hashing.NewEmbeddingService(hashing.Config{Dimensions: settings.Dimensions})

	case domain.AIProviderOllama:
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:    settings.BaseURL,
			Model:      settings.Model,
			Dimensions: settings.Dimensions,
		}), nil

	case domain.AIProviderMistral:
		cfg := openaiembed.MistralConfig(settings.APIKey)
		return openaiembed.NewEmbeddingService(overrideEmbedding(cfg, settings))

	case domain.AIProviderOpenAI:
		cfg := openaiembed.Config{APIKey: settings.APIKey}
		return openaiembed.NewEmbeddingService(overrideEmbedding(cfg, settings))

	case domain.AIProviderAnthropic:
		return nil, fmt.Errorf("anthropic does not support embeddings, use hashing, ollama, mistral or openai")

	default:
		return nil, fmt.Errorf("%w: embedding provider %q", domain.ErrUnsupportedType, settings.Provider)
	}
}

// CreateLLMService creates the LLM service selected by settings.
func CreateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil {
		return nil, fmt.Errorf("llm settings are missing")
	}
	if settings.Provider.RequiresAPIKey() && settings.APIKey == "" {
		return nil, fmt.Errorf("%w: set %s", domain.ErrMissingAPIKey, settings.Provider.APIKeyEnv())
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return ollamallm.NewLLMService(ollamallm.LLMConfig{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		}), nil

	case domain.AIProviderMistral:
		cfg := openaillm.MistralLLMConfig(settings.APIKey)
		return openaillm.NewLLMService(overrideLLM(cfg, settings))

	case domain.AIProviderOpenAI:
		cfg := openaillm.LLMConfig{APIKey: settings.APIKey}
		return openaillm.NewLLMService(overrideLLM(cfg, settings))

	case domain.AIProviderAnthropic:
		return anthropicllm.NewLLMService(anthropicllm.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
		})

	case domain.AIProviderHashing:
		return nil, fmt.Errorf("hashing is an embedding-only provider")

	default:
		return nil, fmt.Errorf("%w: LLM provider %q", domain.ErrUnsupportedType, settings.Provider)
	}
}

func overrideEmbedding(cfg openaiembed.Config, settings *domain.EmbeddingSettings) openaiembed.Config {
	if settings.BaseURL != "" {
		cfg.BaseURL = settings.BaseURL
	}
	if settings.Model != "" {
		cfg.Model = settings.Model
	}
	cfg.Dimensions = settings.Dimensions
	return cfg
}

func overrideLLM(cfg openaillm.LLMConfig, settings *domain.LLMSettings) openaillm.LLMConfig {
	if settings.BaseURL != "" {
		cfg.BaseURL = settings.BaseURL
	}
	if settings.Model != "" {
		cfg.Model = settings.Model
	}
	return cfg
}

// Ensure ConfigValidator implements the interface.
var _ driven.AIConfigValidator = (*ConfigValidator)(nil)

// ConfigValidator lets the settings service ping providers without
// depending on this package.
type ConfigValidator struct{}

// NewConfigValidator creates a new AI config validator.
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{}
}

// ValidateEmbedding pings the embedding provider.
func (v *ConfigValidator) ValidateEmbedding(config *domain.EmbeddingSettings) error {
	return ValidateEmbeddingConfig(config)
}

// ValidateLLM pings the LLM provider.
func (v *ConfigValidator) ValidateLLM(config *domain.LLMSettings) error {
	return ValidateLLMConfig(config)
}
