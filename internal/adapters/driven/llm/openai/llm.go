// Package openai provides an LLM service adapter for OpenAI-compatible chat
// completion APIs, including Mistral.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"net/http"
	"time"

	"github.com/nutrigenie/nutrigenie-cli/internal/adapters/driven/llm/wire"
	"github.com/nutrigenie/nutrigenie-cli/internal/core/domain"
	"github.com/nutrigenie/nutrigenie-cli/internal/core/ports/driven"
)

// Ensure LLMService implements the interface.
var _ driven.LLMService = (*LLMService)(nil)

// Default configuration values.
const (
	DefaultBaseURL    = "https://api.openai.com/v1"
	DefaultLLMModel   = "gpt-4o-mini"
	DefaultLLMTimeout = 120 * time.Second

	MistralBaseURL  = "https://api.mistral.ai/v1"
	MistralLLMModel = "mistral-large-latest"
)

// LLMConfig holds configuration for the chat completion service.
type LLMConfig struct {
	// Provider names the service in errors (default: openai).
	Provider string

	// APIKey is the bearer token (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.openai.com/v1).
	BaseURL string

	// Model is the LLM model to use (default: gpt-4o-mini).
	Model string

	// Timeout bounds a whole request, streamed body included (default: 120s).
	Timeout time.Duration
}

// MistralLLMConfig returns an LLMConfig preset for Mistral chat completions.
func MistralLLMConfig(apiKey string) LLMConfig {
	return LLMConfig{
		Provider: domain.AIProviderMistral.String(),
		APIKey:   apiKey,
		BaseURL:  MistralBaseURL,
		Model:    MistralLLMModel,
	}
}

// LLMService talks to a /chat/completions endpoint.
type LLMService struct {
	client   *http.Client
	provider string
	baseURL  string
	apiKey   string
	model    string
}

type chatCompletionRequest struct {
	Model       string              `json:"model"`
	Messages    []chatCompletionMsg `json:"messages"`
	MaxTokens   int                 `json:"max_tokens,omitempty"`
	Temperature float64             `json:"temperature,omitempty"`
	Stream      bool                `json:"stream,omitempty"`
}

type chatCompletionMsg struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type chatCompletionChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
}

// NewLLMService creates a new chat completion service.
func NewLLMService(cfg LLMConfig) (*LLMService, error) {
	if cfg.Provider == "" {
		cfg.Provider = domain.AIProviderOpenAI.String()
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%s: %w", cfg.Provider, domain.ErrMissingAPIKey)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultLLMModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultLLMTimeout
	}

	return &LLMService{
		client:   &http.Client{Timeout: cfg.Timeout},
		provider: cfg.Provider,
		baseURL:  cfg.BaseURL,
		apiKey:   cfg.APIKey,
		model:    cfg.Model,
	}, nil
}

// Complete returns a one-shot completion.
func (s *LLMService) Complete(ctx context.Context, messages []domain.Message, opts driven.CompletionOptions) (string, error) {
	resp, err := s.send(ctx, s.request(messages, opts, false))
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	var chatResp chatCompletionResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return "", domain.NewModelError(s.provider, resp.StatusCode, "no response choices returned")
	}

	return chatResp.Choices[0].Message.Content, nil
}

// Stream yields content deltas from a streamed completion.
func (s *LLMService) Stream(ctx context.Context, messages []domain.Message, opts driven.CompletionOptions) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		resp, err := s.send(ctx, s.request(messages, opts, true))
		if err != nil {
			yield("", err)
			return
		}
		defer resp.Body.Close()

		stopped := false
		err = wire.ReadSSE(resp.Body, func(ev wire.Event) (bool, error) {
			if ev.Data == "[DONE]" {
				return false, nil
			}
			var chunk chatCompletionChunk
			if err := json.Unmarshal([]byte(ev.Data), &chunk); err != nil {
				return false, fmt.Errorf("decode stream chunk: %w", err)
			}
			for _, choice := range chunk.Choices {
				if choice.Delta.Content == "" {
					continue
				}
				if !yield(choice.Delta.Content, nil) {
					stopped = true
					return false, nil
				}
			}
			return true, nil
		})
		if err != nil && !stopped {
			yield("", fmt.Errorf("%s: read stream: %w", s.provider, err))
		}
	}
}

func (s *LLMService) request(messages []domain.Message, opts driven.CompletionOptions, stream bool) chatCompletionRequest {
	msgs := make([]chatCompletionMsg, len(messages))
	for i, m := range messages {
		msgs[i] = chatCompletionMsg{Role: m.Role.String(), Content: m.Content}
	}
	return chatCompletionRequest{
		Model:       s.model,
		Messages:    msgs,
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
		Stream:      stream,
	}
}

// send posts the request and returns the response when the status is 200.
// Any other status is returned as a *domain.ModelError.
func (s *LLMService) send(ctx context.Context, reqBody chatCompletionRequest) (*http.Response, error) {
	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/chat/completions", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	if reqBody.Stream {
		req.Header.Set("Accept", "text/event-stream")
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: send request: %w", s.provider, err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		return nil, wire.StatusError(s.provider, resp)
	}
	return resp, nil
}

// ModelName returns the name of the LLM model being used.
func (s *LLMService) ModelName() string {
	return s.model
}

// Ping validates the API key against the /models endpoint without running inference.
func (s *LLMService) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/models", http.NoBody)
	if err != nil {
		return fmt.Errorf("%s: failed to create ping request: %w", s.provider, err)
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: ping failed: %w", s.provider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return wire.StatusError(s.provider, resp)
	}
	return nil
}

// Close releases resources.
func (s *LLMService) Close() error {
	return nil
}
