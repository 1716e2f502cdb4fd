package domain

import "time"

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or LLM.
type AIProvider string

// Available AI providers.
const (
	// AIProviderHashing is the built-in offline embedder.
	AIProviderHashing AIProvider = "hashing"

	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderMistral is the Mistral cloud API.
	AIProviderMistral AIProvider = "mistral"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderHashing, AIProviderOllama, AIProviderMistral, AIProviderOpenAI, AIProviderAnthropic:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderMistral || p == AIProviderOpenAI || p == AIProviderAnthropic
}

// APIKeyEnv returns the environment variable holding the provider's API key.
func (p AIProvider) APIKeyEnv() string {
	switch p {
	case AIProviderMistral:
		return "MISTRAL_API_KEY"
	case AIProviderOpenAI:
		return "OPENAI_API_KEY"
	case AIProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	default:
		return ""
	}
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama || p == AIProviderHashing
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderHashing:
		return "Hashing (built-in, offline)"
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderMistral:
		return "Mistral (cloud)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	default:
		return unknownDescription
	}
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint override.
	BaseURL string

	// APIKey is resolved from the environment, never from the config file.
	APIKey string

	// Dimensions overrides the model's known vector size.
	Dimensions int

	// CacheSize is the number of query embeddings kept in memory (0 disables).
	CacheSize int
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() || e.Provider == AIProviderAnthropic {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds LLM provider configuration.
type LLMSettings struct {
	// Provider is the LLM service provider.
	Provider AIProvider

	// Model is the LLM model name.
	Model string

	// BaseURL is the API endpoint override.
	BaseURL string

	// APIKey is resolved from the environment, never from the config file.
	APIKey string
}

// IsConfigured returns true if the LLM provider is set up.
func (l LLMSettings) IsConfigured() bool {
	if !l.Provider.IsValid() || l.Provider == AIProviderHashing {
		return false
	}
	if l.Provider.RequiresAPIKey() && l.APIKey == "" {
		return false
	}
	return true
}

// VectorBackend selects the vector index implementation.
type VectorBackend string

// Available vector backends.
const (
	// VectorBackendMemory keeps the index in process memory only.
	VectorBackendMemory VectorBackend = "memory"

	// VectorBackendSQLite stores the index in the application database.
	VectorBackendSQLite VectorBackend = "sqlite"

	// VectorBackendPgvector stores the index in PostgreSQL with pgvector.
	VectorBackendPgvector VectorBackend = "pgvector"
)

// IsValid returns true if the backend is recognised.
func (b VectorBackend) IsValid() bool {
	switch b {
	case VectorBackendMemory, VectorBackendSQLite, VectorBackendPgvector:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (b VectorBackend) String() string {
	return string(b)
}

// VectorIndexSettings holds vector index configuration.
type VectorIndexSettings struct {
	// Backend is the index implementation.
	Backend VectorBackend

	// DSN is the PostgreSQL connection string for the pgvector backend.
	DSN string
}

// DatasetSettings locates the offline reference dataset.
type DatasetSettings struct {
	// RecipesPath is a .csv or .xlsx recipe table.
	RecipesPath string

	// EmbeddingsPath is the parallel embeddings file. Empty means embed at bootstrap.
	EmbeddingsPath string
}

// GuardrailSettings configures the safety classifier.
type GuardrailSettings struct {
	// StatePath is the classifier state file.
	StatePath string

	// Watch reloads the state when another process rewrites it.
	Watch bool
}

// ChatSettings configures chat turns.
type ChatSettings struct {
	// Temperature is the sampling temperature for answers.
	Temperature float64

	// TopK is the number of recipes retrieved per turn.
	TopK int

	// Pacing is the delay between displayed chunks (presentation only).
	Pacing time.Duration
}

// AppSettings holds all application settings.
type AppSettings struct {
	Embedding   EmbeddingSettings
	LLM         LLMSettings
	VectorIndex VectorIndexSettings
	Dataset     DatasetSettings
	Guardrail   GuardrailSettings
	Chat        ChatSettings
}

// Chat defaults.
const (
	DefaultTemperature           = 0.5
	DefaultExtractionTemperature = 0.3
	DefaultTopK                  = 3
	DefaultPacing                = 30 * time.Millisecond
)

// DefaultAppSettings returns settings with sensible defaults.
// The LLM API key is left empty; it is resolved from the environment.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Embedding: EmbeddingSettings{
			Provider:   AIProviderHashing,
			Model:      DefaultEmbeddingModels()[AIProviderHashing],
			Dimensions: 384,
			CacheSize:  1024,
		},
		LLM: LLMSettings{
			Provider: AIProviderMistral,
			Model:    DefaultLLMModels()[AIProviderMistral],
		},
		VectorIndex: VectorIndexSettings{
			Backend: VectorBackendSQLite,
		},
		Guardrail: GuardrailSettings{
			Watch: true,
		},
		Chat: ChatSettings{
			Temperature: DefaultTemperature,
			TopK:        DefaultTopK,
			Pacing:      DefaultPacing,
		},
	}
}

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderHashing,
		AIProviderOllama,
		AIProviderMistral,
		AIProviderOpenAI,
	}
}

// AllLLMProviders returns providers that support LLM operations.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderMistral,
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
	}
}

// DefaultEmbeddingModels returns default models for each embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderHashing: "hashing-v1",
		AIProviderOllama:  "nomic-embed-text",
		AIProviderMistral: "mistral-embed",
		AIProviderOpenAI:  "text-embedding-3-small",
	}
}

// DefaultLLMModels returns default models for each LLM provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderMistral:   "mistral-large-latest",
		AIProviderOllama:    "llama3.2",
		AIProviderOpenAI:    "gpt-4o-mini",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":                      768,
		"mxbai-embed-large":                     1024,
		"all-minilm":                            384,
		"paraphrase-multilingual-minilm-l12-v2": 384,
		// Mistral models
		"mistral-embed": 1024,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}
