package driving

import (
	"context"
	"time"

	"github.com/nutrigenie/nutrigenie-cli/internal/core/domain"
)

// StreamEventKind distinguishes the events emitted while an answer streams.
type StreamEventKind int

// Stream event kinds.
const (
	// StreamChunk carries a text fragment of the current attempt.
	StreamChunk StreamEventKind = iota

	// StreamRetry means the current attempt was rate limited. Text already
	// shown for this attempt must be discarded; Delay is the wait before the next one.
	StreamRetry

	// StreamExhausted means every attempt was rate limited. Text is the failure message.
	StreamExhausted
)

// StreamEvent is one element of a streamed answer.
type StreamEvent struct {
	Kind    StreamEventKind
	Text    string
	Attempt int
	Delay   time.Duration
}

// ChatService runs moderated, retrieval-grounded chat turns.
type ChatService interface {
	// Turn processes one user message. onEvent, when non-nil, receives stream
	// events as they arrive. Policy rejections are reported in the outcome,
	// not as errors.
	Turn(ctx context.Context, req domain.TurnRequest, onEvent func(StreamEvent)) (*domain.TurnOutcome, error)

	// Verdict runs the language and safety gates without calling the model.
	Verdict(ctx context.Context, query string) (domain.SafetyVerdict, error)
}
