package services

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/nutrigenie/nutrigenie-cli/internal/core/domain"
	"github.com/nutrigenie/nutrigenie-cli/internal/core/ports/driven"
	"github.com/nutrigenie/nutrigenie-cli/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
const (
	keyEmbedProvider   = "embedding.provider"
	keyEmbedModel      = "embedding.model"
	keyEmbedBaseURL    = "embedding.base_url"
	keyEmbedDims       = "embedding.dimensions"
	keyEmbedCacheSize  = "embedding.cache_size"
	keyLLMProvider     = "llm.provider"
	keyLLMModel        = "llm.model"
	keyLLMBaseURL      = "llm.base_url"
	keyVectorBackend   = "vector_index.backend"
	keyVectorDSN       = "vector_index.dsn"
	keyDatasetRecipes  = "dataset.recipes"
	keyDatasetEmbeds   = "dataset.embeddings"
	keyGuardrailState  = "guardrail.state_path"
	keyGuardrailWatch  = "guardrail.watch"
	keyChatTemperature = "chat.temperature"
	keyChatTopK        = "chat.top_k"
	keyChatPacing      = "chat.pacing"
)

// maxTemperature bounds chat.temperature.
const maxTemperature = 2.0

// settingKind is the value type of a config key.
type settingKind int

const (
	kindString settingKind = iota
	kindInt
	kindFloat
	kindBool
	kindDuration
)

var settingKinds = map[string]settingKind{
	keyEmbedProvider:   kindString,
	keyEmbedModel:      kindString,
	keyEmbedBaseURL:    kindString,
	keyEmbedDims:       kindInt,
	keyEmbedCacheSize:  kindInt,
	keyLLMProvider:     kindString,
	keyLLMModel:        kindString,
	keyLLMBaseURL:      kindString,
	keyVectorBackend:   kindString,
	keyVectorDSN:       kindString,
	keyDatasetRecipes:  kindString,
	keyDatasetEmbeds:   kindString,
	keyGuardrailState:  kindString,
	keyGuardrailWatch:  kindBool,
	keyChatTemperature: kindFloat,
	keyChatTopK:        kindInt,
	keyChatPacing:      kindDuration,
}

// SettingKeys returns every settable config key in sorted order.
func SettingKeys() []string {
	keys := make([]string, 0, len(settingKinds))
	for k := range settingKinds {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SettingsService maps the configuration file onto domain.AppSettings.
// API keys come from the secret source, never from the file.
type SettingsService struct {
	configStore driven.ConfigStore
	secrets     driven.SecretSource
	aiValidator driven.AIConfigValidator
}

// NewSettingsService creates a new settings service. secrets and aiValidator may be nil.
func NewSettingsService(
	configStore driven.ConfigStore,
	secrets driven.SecretSource,
	aiValidator driven.AIConfigValidator,
) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		secrets:     secrets,
		aiValidator: aiValidator,
	}
}

// Get retrieves current application settings with defaults applied.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	embedProvider := s.getProvider(keyEmbedProvider, defaults.Embedding.Provider)
	embedModel := s.getString(keyEmbedModel, "")
	if embedModel == "" {
		embedModel = domain.DefaultEmbeddingModels()[embedProvider]
	}
	embedDims := s.getInt(keyEmbedDims, 0)
	if embedDims == 0 {
		embedDims = domain.EmbeddingDimensions()[embedModel]
	}
	if embedDims == 0 && embedProvider == domain.AIProviderHashing {
		embedDims = defaults.Embedding.Dimensions
	}

	llmProvider := s.getProvider(keyLLMProvider, defaults.LLM.Provider)
	llmModel := s.getString(keyLLMModel, "")
	if llmModel == "" {
		llmModel = domain.DefaultLLMModels()[llmProvider]
	}

	pacing := defaults.Chat.Pacing
	if raw := s.configStore.GetString(keyChatPacing); raw != "" {
		if d, err := time.ParseDuration(raw); err == nil && d >= 0 {
			pacing = d
		}
	}

	temperature := defaults.Chat.Temperature
	if raw, ok := s.configStore.Get(keyChatTemperature); ok {
		switch raw.(type) {
		case float64, int64, int:
			if t := s.configStore.GetFloat(keyChatTemperature); t >= 0 && t <= maxTemperature {
				temperature = t
			}
		}
	}

	settings := &domain.AppSettings{
		Embedding: domain.EmbeddingSettings{
			Provider:   embedProvider,
			Model:      embedModel,
			BaseURL:    s.configStore.GetString(keyEmbedBaseURL),
			APIKey:     s.apiKey(embedProvider),
			Dimensions: embedDims,
			CacheSize:  s.getInt(keyEmbedCacheSize, defaults.Embedding.CacheSize),
		},
		LLM: domain.LLMSettings{
			Provider: llmProvider,
			Model:    llmModel,
			BaseURL:  s.configStore.GetString(keyLLMBaseURL),
			APIKey:   s.apiKey(llmProvider),
		},
		VectorIndex: domain.VectorIndexSettings{
			Backend: s.getBackend(defaults.VectorIndex.Backend),
			DSN:     s.configStore.GetString(keyVectorDSN),
		},
		Dataset: domain.DatasetSettings{
			RecipesPath:    s.configStore.GetString(keyDatasetRecipes),
			EmbeddingsPath: s.configStore.GetString(keyDatasetEmbeds),
		},
		Guardrail: domain.GuardrailSettings{
			StatePath: s.configStore.GetString(keyGuardrailState),
			Watch:     s.getBool(keyGuardrailWatch, defaults.Guardrail.Watch),
		},
		Chat: domain.ChatSettings{
			Temperature: temperature,
			TopK:        s.getInt(keyChatTopK, defaults.Chat.TopK),
			Pacing:      pacing,
		},
	}

	return settings, nil
}

// Set parses, validates and stores a single setting.
func (s *SettingsService) Set(key, value string) error {
	key = strings.TrimSpace(key)
	value = strings.TrimSpace(value)

	if strings.HasSuffix(key, "api_key") {
		return fmt.Errorf("%w: API keys are read from the environment, not the config file", domain.ErrInvalidInput)
	}
	kind, ok := settingKinds[key]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	parsed, err := parseSetting(key, kind, value)
	if err != nil {
		return err
	}
	if err := checkSetting(key, parsed); err != nil {
		return err
	}

	if err := s.configStore.Set(key, parsed); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

func parseSetting(key string, kind settingKind, value string) (any, error) {
	switch kind {
	case kindInt:
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("%w: %s must be an integer", domain.ErrInvalidInput, key)
		}
		return int64(n), nil
	case kindFloat:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %s must be a number", domain.ErrInvalidInput, key)
		}
		return f, nil
	case kindBool:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return nil, fmt.Errorf("%w: %s must be true or false", domain.ErrInvalidInput, key)
		}
		return b, nil
	case kindDuration:
		d, err := time.ParseDuration(value)
		if err != nil || d < 0 {
			return nil, fmt.Errorf("%w: %s must be a duration such as 30ms", domain.ErrInvalidInput, key)
		}
		return d.String(), nil
	default:
		return value, nil
	}
}

func checkSetting(key string, value any) error {
	switch key {
	case keyEmbedProvider:
		p := domain.AIProvider(value.(string))
		if !supports(domain.AllEmbeddingProviders(), p) {
			return fmt.Errorf("%w: %s does not provide embeddings", domain.ErrInvalidInput, p)
		}
	case keyLLMProvider:
		p := domain.AIProvider(value.(string))
		if !supports(domain.AllLLMProviders(), p) {
			return fmt.Errorf("%w: %s does not provide chat completions", domain.ErrInvalidInput, p)
		}
	case keyVectorBackend:
		if b := domain.VectorBackend(value.(string)); !b.IsValid() {
			return fmt.Errorf("%w: unknown vector backend %q", domain.ErrInvalidInput, b)
		}
	case keyChatTemperature:
		if t := value.(float64); t < 0 || t > maxTemperature {
			return fmt.Errorf("%w: chat.temperature must be in [0, %g]", domain.ErrInvalidInput, maxTemperature)
		}
	case keyChatTopK, keyEmbedDims:
		if n := value.(int64); n <= 0 {
			return fmt.Errorf("%w: %s must be positive", domain.ErrInvalidInput, key)
		}
	case keyEmbedCacheSize:
		if n := value.(int64); n < 0 {
			return fmt.Errorf("%w: %s must not be negative", domain.ErrInvalidInput, key)
		}
	}
	return nil
}

func supports(providers []domain.AIProvider, p domain.AIProvider) bool {
	for _, candidate := range providers {
		if candidate == p {
			return true
		}
	}
	return false
}

// Validate checks that the current settings can start a chat session.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	if settings.LLM.Provider.RequiresAPIKey() && settings.LLM.APIKey == "" {
		return fmt.Errorf("%w: set %s for the %s provider",
			domain.ErrMissingAPIKey, settings.LLM.Provider.APIKeyEnv(), settings.LLM.Provider)
	}
	if !settings.LLM.IsConfigured() {
		return fmt.Errorf("%w: provider %s cannot answer chat turns", domain.ErrLLMUnavailable, settings.LLM.Provider)
	}

	if settings.Embedding.Provider.RequiresAPIKey() && settings.Embedding.APIKey == "" {
		return fmt.Errorf("%w: set %s for the %s embedder",
			domain.ErrMissingAPIKey, settings.Embedding.Provider.APIKeyEnv(), settings.Embedding.Provider)
	}
	if !settings.Embedding.IsConfigured() {
		return fmt.Errorf("%w: provider %s cannot embed", domain.ErrEmbeddingUnavailable, settings.Embedding.Provider)
	}
	if settings.Embedding.Dimensions <= 0 {
		return fmt.Errorf("%w: unknown dimensions for %s, set %s",
			domain.ErrEmbeddingUnavailable, settings.Embedding.Model, keyEmbedDims)
	}

	if settings.VectorIndex.Backend == domain.VectorBackendPgvector && settings.VectorIndex.DSN == "" {
		return fmt.Errorf("%w: %s is required for the pgvector backend", domain.ErrVectorIndexUnavailable, keyVectorDSN)
	}

	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateEmbeddingConfig pings the configured embedding provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// ValidateLLMConfig pings the configured LLM provider.
func (s *SettingsService) ValidateLLMConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateLLM(&settings.LLM)
}

// Helper methods for reading config with defaults.

func (s *SettingsService) apiKey(provider domain.AIProvider) string {
	env := provider.APIKeyEnv()
	if env == "" || s.secrets == nil {
		return ""
	}
	key, _ := s.secrets.Lookup(env)
	return strings.TrimSpace(key)
}

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func (s *SettingsService) getBackend(defaultVal domain.VectorBackend) domain.VectorBackend {
	val := s.configStore.GetString(keyVectorBackend)
	if val == "" {
		return defaultVal
	}
	backend := domain.VectorBackend(val)
	if !backend.IsValid() {
		return defaultVal
	}
	return backend
}
