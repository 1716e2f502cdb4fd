package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown provider or backend.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrLLMUnavailable indicates the LLM service is not configured or unreachable.
	// Chat turns cannot be answered without it.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	// Retrieval and the safety classifier both depend on it.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrVectorIndexUnavailable indicates the vector index could not be opened.
	ErrVectorIndexUnavailable = errors.New("vector index unavailable")

	// ErrIndexSignatureMismatch indicates the vector index was built with a
	// different embedder model or dimension than the one currently running.
	ErrIndexSignatureMismatch = errors.New("vector index built with a different embedder")

	// ErrGuardrailUnavailable indicates the safety classifier state is missing,
	// corrupt or incompatible. Chat is blocked until it is restored.
	ErrGuardrailUnavailable = errors.New("guardrail unavailable")

	// ErrDatasetUnavailable indicates the reference dataset or its embeddings
	// file is missing or inconsistent.
	ErrDatasetUnavailable = errors.New("reference dataset unavailable")

	// ErrMissingAPIKey indicates the model provider credential is absent from the environment.
	ErrMissingAPIKey = errors.New("missing API key")

	// Model Errors.

	// ErrRateLimited indicates the model API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")

	// ErrRateLimitExhausted indicates every retry attempt was rate limited.
	ErrRateLimitExhausted = errors.New("rate limit retries exhausted")
)
