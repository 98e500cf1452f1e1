package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrEmptyContent indicates document content with no text.
	ErrEmptyContent = errors.New("document content is empty")

	// ErrDimensionMismatch indicates the embedding provider's vector
	// dimension does not match what the store was initialised with.
	// Switching providers requires an explicit migration; it is never
	// applied implicitly.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrEmbeddingUnavailable indicates the embedding service is not
	// configured. Similarity search is disabled without embeddings.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrStorageUnavailable indicates the chunk store is not configured
	// or not reachable.
	ErrStorageUnavailable = errors.New("chunk store unavailable")
)
