package driven

import (
	"context"
	"iter"

	"github.com/nutrigenie/nutrigenie-cli/internal/core/domain"
)

// LLMService provides language model completions.
//
// Errors returned by Complete, and yielded by Stream, are *domain.ModelError
// when the provider rejected the request, so callers can tell rate limits
// (retryable) from everything else (fatal for the turn).
//
// Implementations:
//   - Mistral and OpenAI (OpenAI-compatible chat completions)
//   - Anthropic (Messages API)
//   - Ollama (local models)
type LLMService interface {
	// Complete returns a one-shot, non-streamed completion.
	Complete(ctx context.Context, messages []domain.Message, opts CompletionOptions) (string, error)

	// Stream returns the completion as a lazy sequence of text fragments.
	// The request is sent when iteration starts. A failure is yielded once
	// as the final element. The underlying connection is released when the
	// sequence ends, when the consumer stops early, or when ctx is cancelled.
	Stream(ctx context.Context, messages []domain.Message, opts CompletionOptions) iter.Seq2[string, error]

	// ModelName returns the name of the LLM model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// CompletionOptions configures generation behaviour.
type CompletionOptions struct {
	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64

	// MaxTokens is the maximum number of tokens to generate (0 = provider default).
	MaxTokens int
}
