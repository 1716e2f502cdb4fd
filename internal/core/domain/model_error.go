package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// ModelErrorKind classifies a language model failure.
type ModelErrorKind int

// Model failures are either retryable rate limits or fatal for the turn.
const (
	ModelErrorFatal ModelErrorKind = iota
	ModelErrorRateLimited
)

// String returns the kind name.
func (k ModelErrorKind) String() string {
	if k == ModelErrorRateLimited {
		return "rate_limited"
	}
	return "fatal"
}

// ModelError is returned by LLM adapters when the provider rejects a request.
type ModelError struct {
	// Provider is the adapter name (e.g. "mistral").
	Provider string

	// StatusCode is the HTTP status, zero for transport failures.
	StatusCode int

	// Kind is the retry classification.
	Kind ModelErrorKind

	// Message is the provider error message.
	Message string
}

// NewModelError builds a ModelError from an HTTP status. 429 is rate limited,
// everything else is fatal.
func NewModelError(provider string, status int, message string) *ModelError {
	kind := ModelErrorFatal
	if status == http.StatusTooManyRequests {
		kind = ModelErrorRateLimited
	}
	return &ModelError{
		Provider:   provider,
		StatusCode: status,
		Kind:       kind,
		Message:    message,
	}
}

// Error implements the error interface.
func (e *ModelError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("%s error: %s", e.Provider, e.Message)
	}
	return fmt.Sprintf("%s error (status %d): %s", e.Provider, e.StatusCode, e.Message)
}

// Is makes errors.Is(err, ErrRateLimited) hold for rate-limited errors.
func (e *ModelError) Is(target error) bool {
	return target == ErrRateLimited && e.Kind == ModelErrorRateLimited
}

// IsRateLimited returns true if err is, or wraps, a rate-limited model error.
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}
