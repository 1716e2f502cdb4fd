package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nutrigenie/nutrigenie-cli/internal/core/domain"
)

func TestNewEmbeddingService_Defaults(t *testing.T) {
	svc := NewEmbeddingService(Config{})

	assert.Equal(t, DefaultModel, svc.ModelName())
	assert.Equal(t, 768, svc.Dimensions())
	assert.Equal(t, DefaultBaseURL, svc.baseURL)
}

func TestNewEmbeddingService_KnownModelDimensions(t *testing.T) {
	assert.Equal(t, 384, NewEmbeddingService(Config{Model: "all-minilm"}).Dimensions())
	assert.Equal(t, 768, NewEmbeddingService(Config{Model: "custom"}).Dimensions())
	assert.Equal(t, 12, NewEmbeddingService(Config{Model: "custom", Dimensions: 12}).Dimensions())
}

func TestEmbed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embeddings", r.URL.Path)
		var req embedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "all-minilm", req.Model)
		assert.Equal(t, "lentilles", req.Prompt)
		_, _ = w.Write([]byte(`{"embedding":[0.25,0.75]}`))
	}))
	defer server.Close()
	svc := NewEmbeddingService(Config{BaseURL: server.URL, Model: "all-minilm", Dimensions: 2})

	vec, err := svc.Embed(context.Background(), "lentilles")

	require.NoError(t, err)
	assert.Equal(t, []float32{0.25, 0.75}, vec)
}

func TestEmbed_StatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer server.Close()
	svc := NewEmbeddingService(Config{BaseURL: server.URL, Dimensions: 2})

	_, err := svc.Embed(context.Background(), "x")

	var modelErr *domain.ModelError
	require.ErrorAs(t, err, &modelErr)
	assert.Equal(t, http.StatusNotFound, modelErr.StatusCode)
	assert.Contains(t, modelErr.Message, "model not found")
}

func TestEmbed_WrongDimensions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"embedding":[1,2,3]}`))
	}))
	defer server.Close()
	svc := NewEmbeddingService(Config{BaseURL: server.URL, Dimensions: 2})

	_, err := svc.Embed(context.Background(), "x")

	assert.ErrorIs(t, err, domain.ErrIndexSignatureMismatch)
}

func TestEmbedBatch(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		var req embedRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		if req.Prompt == "bad" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(`{"embedding":[1,0]}`))
	}))
	defer server.Close()
	svc := NewEmbeddingService(Config{BaseURL: server.URL, Dimensions: 2})

	out, err := svc.EmbedBatch(context.Background(), []string{"a", "b"})
	require.NoError(t, err)
	assert.Len(t, out, 2)
	assert.Equal(t, int32(2), calls.Load())

	_, err = svc.EmbedBatch(context.Background(), []string{"a", "bad"})
	assert.ErrorContains(t, err, "embed text 1")
}

func TestPing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		_, _ = w.Write([]byte(`{"models":[]}`))
	}))
	defer server.Close()
	svc := NewEmbeddingService(Config{BaseURL: server.URL})

	assert.NoError(t, svc.Ping(context.Background()))

	unreachable := NewEmbeddingService(Config{BaseURL: "http://127.0.0.1:1"})
	assert.Error(t, unreachable.Ping(context.Background()))
}
