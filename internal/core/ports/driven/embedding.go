package driven

import "context"

// EmbeddingService generates vector embeddings from text.
// One instance is built at startup and shared by the Retriever and the
// safety classifier; implementations must be safe for concurrent use.
//
// Note: This is separate from VectorIndex which stores and searches vectors.
// EmbeddingService generates vectors; VectorIndex stores them.
//
// Implementations:
//   - hashing (built-in, offline)
//   - Ollama (nomic-embed-text, all-minilm)
//   - OpenAI-compatible APIs (OpenAI, Mistral)
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts, in input order.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size.
	// This must match the VectorIndex signature and the classifier state.
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
