package driven

import "context"

// EmbeddingService generates vector embeddings from text.
//
// The vector dimension is fixed at construction and never changes for
// the lifetime of the service. Anything persisted must match it; a
// mismatch against existing storage is an explicit migration concern,
// never an implicit overwrite.
//
// Implementations include:
//   - Ollama (all-minilm, 384 dimensions)
//   - OpenAI (text-embedding-3-small, 1536 dimensions)
//   - Simple deterministic hash embeddings (fallback of last resort)
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the embedding vector size (e.g. 128, 384, 1536).
	Dimensions() int

	// Name returns the provider name for logging and stats.
	Name() string

	// Ping validates the service is reachable with a lightweight request.
	// Used at construction to probe availability before committing to a
	// provider.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
