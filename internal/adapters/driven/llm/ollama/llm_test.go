package ollama

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nutrigenie/nutrigenie-cli/internal/core/domain"
	"github.com/nutrigenie/nutrigenie-cli/internal/core/ports/driven"
)

var testMessages = []domain.Message{
	{Role: domain.RoleSystem, Content: "Tu es nutritionniste."},
	{Role: domain.RoleUser, Content: "Une idée de dîner ?"},
}

func TestNewLLMService_Defaults(t *testing.T) {
	svc := NewLLMService(LLMConfig{})

	assert.Equal(t, DefaultLLMModel, svc.ModelName())
	assert.Equal(t, DefaultBaseURL, svc.baseURL)
	assert.NoError(t, svc.Close())
}

func TestComplete(t *testing.T) {
	var got chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"message":{"role":"assistant","content":"Omelette aux épinards"},"done":true}`))
	}))
	defer server.Close()

	text, err := NewLLMService(LLMConfig{BaseURL: server.URL}).
		Complete(context.Background(), testMessages, driven.CompletionOptions{Temperature: 0.3})

	require.NoError(t, err)
	assert.Equal(t, "Omelette aux épinards", text)
	assert.False(t, got.Stream)
	require.NotNil(t, got.Options)
	assert.InDelta(t, 0.3, got.Options.Temperature, 1e-9)
	assert.Equal(t, "system", got.Messages[0].Role)
}

func TestComplete_NoOptions(t *testing.T) {
	svc := NewLLMService(LLMConfig{})

	req := svc.request(testMessages, driven.CompletionOptions{}, false)

	assert.Nil(t, req.Options)
}

func TestStream(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		assert.True(t, req.Stream)
		for _, part := range []string{"Un ", "curry ", "de pois chiches."} {
			fmt.Fprintf(w, "{\"message\":{\"role\":\"assistant\",\"content\":%q},\"done\":false}\n", part)
		}
		fmt.Fprint(w, "{\"message\":{\"role\":\"assistant\",\"content\":\"\"},\"done\":true}\n")
		fmt.Fprint(w, "{\"message\":{\"role\":\"assistant\",\"content\":\"after done\"},\"done\":false}\n")
	}))
	defer server.Close()

	var chunks []string
	for chunk, err := range NewLLMService(LLMConfig{BaseURL: server.URL}).Stream(context.Background(), testMessages, driven.CompletionOptions{}) {
		require.NoError(t, err)
		chunks = append(chunks, chunk)
	}

	assert.Equal(t, []string{"Un ", "curry ", "de pois chiches."}, chunks)
}

func TestStream_InlineError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "{\"message\":{\"content\":\"Un \"},\"done\":false}\n{\"error\":\"model crashed\"}\n")
	}))
	defer server.Close()

	var lastErr error
	for _, err := range NewLLMService(LLMConfig{BaseURL: server.URL}).Stream(context.Background(), testMessages, driven.CompletionOptions{}) {
		if err != nil {
			lastErr = err
		}
	}

	var modelErr *domain.ModelError
	require.ErrorAs(t, lastErr, &modelErr)
	assert.Equal(t, "model crashed", modelErr.Message)
	assert.False(t, domain.IsRateLimited(lastErr))
}

func TestStream_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"model \"llama3.2\" not found"}`))
	}))
	defer server.Close()

	var errs []error
	for _, err := range NewLLMService(LLMConfig{BaseURL: server.URL}).Stream(context.Background(), testMessages, driven.CompletionOptions{}) {
		errs = append(errs, err)
	}

	require.Len(t, errs, 1)
	assert.ErrorContains(t, errs[0], "not found")
}

func TestStream_EarlyBreakReleasesConnection(t *testing.T) {
	released := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "{\"message\":{\"content\":\"premier\"},\"done\":false}\n")
		w.(http.Flusher).Flush()
		<-r.Context().Done()
		close(released)
	}))
	defer server.Close()

	for range NewLLMService(LLMConfig{BaseURL: server.URL}).Stream(context.Background(), testMessages, driven.CompletionOptions{}) {
		break
	}

	select {
	case <-released:
	case <-time.After(5 * time.Second):
		t.Fatal("stream connection was not released after early break")
	}
}

func TestPing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
	}))
	defer server.Close()

	assert.NoError(t, NewLLMService(LLMConfig{BaseURL: server.URL}).Ping(context.Background()))
	assert.Error(t, NewLLMService(LLMConfig{BaseURL: "http://127.0.0.1:1"}).Ping(context.Background()))
}
