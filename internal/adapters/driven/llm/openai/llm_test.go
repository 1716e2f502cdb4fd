package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/nutrigenie/nutrigenie-cli/internal/core/domain"
	"github.com/nutrigenie/nutrigenie-cli/internal/core/ports/driven"
)

var testMessages = []domain.Message{
	{Role: domain.RoleSystem, Content: "Tu es nutritionniste."},
	{Role: domain.RoleAssistant, Content: "Contexte : soupe de lentilles."},
	{Role: domain.RoleUser, Content: "Une idée de dîner ?"},
}

func newTestService(t *testing.T, url string) *LLMService {
	t.Helper()
	cfg := MistralLLMConfig("k")
	cfg.BaseURL = url
	svc, err := NewLLMService(cfg)
	require.NoError(t, err)
	return svc
}

func sseHandler(t *testing.T, chunks []string, got *chatCompletionRequest) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer k", r.Header.Get("Authorization"))
		if got != nil {
			require.NoError(t, json.NewDecoder(r.Body).Decode(got))
		}
		w.Header().Set("Content-Type", "text/event-stream")
		for _, c := range chunks {
			fmt.Fprintf(w, "data: {\"choices\":[{\"delta\":{\"content\":%q}}]}\n\n", c)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}
}

func TestNewLLMService(t *testing.T) {
	_, err := NewLLMService(LLMConfig{})
	assert.ErrorIs(t, err, domain.ErrMissingAPIKey)

	svc, err := NewLLMService(LLMConfig{APIKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, DefaultLLMModel, svc.ModelName())
	assert.Equal(t, "openai", svc.provider)

	mistral, err := NewLLMService(MistralLLMConfig("k"))
	require.NoError(t, err)
	assert.Equal(t, "mistral-large-latest", mistral.ModelName())
	assert.Equal(t, "https://api.mistral.ai/v1", mistral.baseURL)
}

func TestComplete(t *testing.T) {
	var got chatCompletionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"Dîner léger"}}]}`))
	}))
	defer server.Close()
	svc := newTestService(t, server.URL)

	text, err := svc.Complete(context.Background(), testMessages, driven.CompletionOptions{Temperature: 0.5})

	require.NoError(t, err)
	assert.Equal(t, "Dîner léger", text)
	assert.Equal(t, "mistral-large-latest", got.Model)
	assert.False(t, got.Stream)
	assert.InDelta(t, 0.5, got.Temperature, 1e-9)
	require.Len(t, got.Messages, 3)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "assistant", got.Messages[1].Role)
	assert.Equal(t, "user", got.Messages[2].Role)
}

func TestComplete_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	_, err := newTestService(t, server.URL).Complete(context.Background(), testMessages, driven.CompletionOptions{})

	assert.ErrorContains(t, err, "no response choices")
}

func TestComplete_RateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"message":"Requests rate limit exceeded"}`))
	}))
	defer server.Close()

	_, err := newTestService(t, server.URL).Complete(context.Background(), testMessages, driven.CompletionOptions{})

	assert.ErrorIs(t, err, domain.ErrRateLimited)
	assert.ErrorContains(t, err, "Requests rate limit exceeded")
}

func TestStream(t *testing.T) {
	var got chatCompletionRequest
	server := httptest.NewServer(sseHandler(t, []string{"Une ", "soupe ", "de lentilles."}, &got))
	defer server.Close()

	var chunks []string
	for chunk, err := range newTestService(t, server.URL).Stream(context.Background(), testMessages, driven.CompletionOptions{}) {
		require.NoError(t, err)
		chunks = append(chunks, chunk)
	}

	assert.Equal(t, []string{"Une ", "soupe ", "de lentilles."}, chunks)
	assert.True(t, got.Stream)
}

func TestStream_StatusErrors(t *testing.T) {
	for _, status := range []int{http.StatusTooManyRequests, http.StatusBadRequest, http.StatusInternalServerError} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(status)
				_, _ = w.Write([]byte(`{"error":{"message":"nope"}}`))
			}))
			defer server.Close()

			var errs []error
			for chunk, err := range newTestService(t, server.URL).Stream(context.Background(), testMessages, driven.CompletionOptions{}) {
				assert.Empty(t, chunk)
				errs = append(errs, err)
			}

			require.Len(t, errs, 1)
			var modelErr *domain.ModelError
			require.ErrorAs(t, errs[0], &modelErr)
			assert.Equal(t, status, modelErr.StatusCode)
			assert.Equal(t, status == http.StatusTooManyRequests, domain.IsRateLimited(errs[0]))
		})
	}
}

func TestStream_MalformedChunk(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"ok\"}}]}\n\ndata: {broken\n\n")
	}))
	defer server.Close()

	var chunks []string
	var lastErr error
	for chunk, err := range newTestService(t, server.URL).Stream(context.Background(), testMessages, driven.CompletionOptions{}) {
		if err != nil {
			lastErr = err
			continue
		}
		chunks = append(chunks, chunk)
	}

	assert.Equal(t, []string{"ok"}, chunks)
	assert.ErrorContains(t, lastErr, "decode stream chunk")
}

func TestStream_EarlyBreakReleasesConnection(t *testing.T) {
	defer goleak.VerifyNone(t,
		goleak.IgnoreCurrent(),
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
	)

	released := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"premier\"}}]}\n\n")
		w.(http.Flusher).Flush()
		<-r.Context().Done()
		close(released)
	}))
	defer server.Close()

	for chunk, err := range newTestService(t, server.URL).Stream(context.Background(), testMessages, driven.CompletionOptions{}) {
		require.NoError(t, err)
		assert.Equal(t, "premier", chunk)
		break
	}

	select {
	case <-released:
	case <-time.After(5 * time.Second):
		t.Fatal("stream connection was not released after early break")
	}
}

func TestStream_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(sseHandler(t, []string{"x"}, nil))
	defer server.Close()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var errs []error
	for _, err := range newTestService(t, server.URL).Stream(ctx, testMessages, driven.CompletionOptions{}) {
		errs = append(errs, err)
	}

	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], context.Canceled)
	assert.False(t, domain.IsRateLimited(errs[0]))
}

func TestPing(t *testing.T) {
	var status atomic.Int32
	status.Store(http.StatusOK)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models", r.URL.Path)
		w.WriteHeader(int(status.Load()))
	}))
	defer server.Close()
	svc := newTestService(t, server.URL)

	assert.NoError(t, svc.Ping(context.Background()))
	status.Store(http.StatusUnauthorized)
	assert.Error(t, svc.Ping(context.Background()))
	assert.NoError(t, svc.Close())
}
