package services

import (
	"context"
	"fmt"
	"iter"
	"strings"

	"github.com/nutrigenie/nutrigenie-cli/internal/core/domain"
	"github.com/nutrigenie/nutrigenie-cli/internal/core/ports/driven"
	"github.com/nutrigenie/nutrigenie-cli/internal/core/ports/driving"
	"github.com/nutrigenie/nutrigenie-cli/internal/logger"
)

// StreamResult is a fully consumed answer stream.
type StreamResult struct {
	// Text is the accumulated text of the final attempt, or the failure
	// message when retries were exhausted.
	Text string

	// Attempts is the number of model calls made.
	Attempts int

	// Exhausted is true when every attempt was rate limited.
	Exhausted bool

	// Injection is true when the model answered with the injection sentinel.
	Injection bool
}

// IsInjectionSentinel reports whether an accumulated answer is exactly the
// model-side injection marker.
func IsInjectionSentinel(text string) bool {
	return strings.TrimSpace(text) == domain.InjectionSentinel
}

// ResponseStreamer streams model answers with bounded retry on rate limits.
type ResponseStreamer struct {
	llm    driven.LLMService
	policy RetryPolicy
}

// NewResponseStreamer creates a streamer over the given model.
func NewResponseStreamer(llm driven.LLMService, policy RetryPolicy) *ResponseStreamer {
	return &ResponseStreamer{
		llm:    llm,
		policy: policy.withDefaults(),
	}
}

// Stream returns the answer as a lazy sequence of events.
//
// Each attempt's fragments are yielded as StreamChunk events. A rate-limited
// attempt yields StreamRetry before the back-off; after the last attempt a
// StreamExhausted event carries the failure message. Any other error is
// yielded once and ends the sequence. Stopping iteration early releases the
// model connection.
func (s *ResponseStreamer) Stream(
	ctx context.Context,
	messages []domain.Message,
	temperature float64,
) iter.Seq2[driving.StreamEvent, error] {
	opts := driven.CompletionOptions{Temperature: temperature}

	return func(yield func(driving.StreamEvent, error) bool) {
		r := s.policy.start()
		for {
			attempt := r.begin()
			logger.Debug("Streaming attempt %d/%d (%d messages)", attempt, s.policy.MaxAttempts, len(messages))

			var attemptErr error
			for chunk, err := range s.llm.Stream(ctx, messages, opts) {
				if err != nil {
					attemptErr = err
					break
				}
				if !yield(driving.StreamEvent{Kind: driving.StreamChunk, Text: chunk, Attempt: attempt}, nil) {
					return
				}
			}

			switch r.record(attemptErr) {
			case stateSucceeded:
				return
			case stateFailed:
				yield(driving.StreamEvent{Attempt: attempt}, fmt.Errorf("stream attempt %d: %w", attempt, attemptErr))
				return
			case stateExhausted:
				yield(exhaustedEvent(attempt), nil)
				return
			}

			if !yield(driving.StreamEvent{Kind: driving.StreamRetry, Attempt: attempt, Delay: r.delay}, nil) {
				return
			}
			next, err := r.wait(ctx)
			if err != nil {
				yield(driving.StreamEvent{Attempt: attempt}, err)
				return
			}
			if next == stateExhausted {
				logger.Warn("rate limit retries exhausted after %d attempts", attempt)
				yield(exhaustedEvent(attempt), nil)
				return
			}
		}
	}
}

func exhaustedEvent(attempt int) driving.StreamEvent {
	return driving.StreamEvent{
		Kind:    driving.StreamExhausted,
		Text:    domain.RateLimitFailureMessage,
		Attempt: attempt,
	}
}

// Collect consumes Stream, forwarding each event to onEvent (may be nil),
// and returns the accumulated result. Retry exhaustion is not an error.
func (s *ResponseStreamer) Collect(
	ctx context.Context,
	messages []domain.Message,
	temperature float64,
	onEvent func(driving.StreamEvent),
) (*StreamResult, error) {
	var text strings.Builder
	result := &StreamResult{}

	for ev, err := range s.Stream(ctx, messages, temperature) {
		if err != nil {
			return nil, err
		}
		result.Attempts = ev.Attempt
		switch ev.Kind {
		case driving.StreamChunk:
			text.WriteString(ev.Text)
		case driving.StreamRetry:
			text.Reset()
		case driving.StreamExhausted:
			text.Reset()
			text.WriteString(ev.Text)
			result.Exhausted = true
		}
		if onEvent != nil {
			onEvent(ev)
		}
	}

	result.Text = text.String()
	result.Injection = !result.Exhausted && IsInjectionSentinel(result.Text)
	return result, nil
}
