package driven

import (
	"context"

	"github.com/berrydev-ai/berry-rag/internal/core/domain"
)

// ChunkStore persists chunks and their vectors.
//
// Two backends implement it with identical observable behaviour: a
// SQLite metadata table paired with per-chunk vector blob files, and a
// PostgreSQL table with a native pgvector column. Writes are idempotent
// on chunk ID, and whole-document deduplication is keyed on
// (URL, content hash).
type ChunkStore interface {
	// SaveChunk stores a chunk and its vector. A chunk with a nil
	// embedding is stored without a vector; it remains retrievable by
	// metadata but is excluded from similarity search.
	SaveChunk(ctx context.Context, chunk *domain.Chunk) error

	// GetChunk retrieves a chunk by ID, including its vector if present.
	GetChunk(ctx context.Context, id string) (*domain.Chunk, error)

	// FindDocID returns the doc ID of an existing document with the
	// given URL and full-content hash, or domain.ErrNotFound.
	// The dedup check runs before any embeddings are generated.
	FindDocID(ctx context.Context, url, contentHash string) (string, error)

	// Scan returns all chunks that have a vector, most recent first.
	// Chunks whose vector is missing or unreadable are skipped and
	// logged, never failing the whole scan.
	Scan(ctx context.Context) ([]domain.Chunk, error)

	// ListDocuments returns one summary per (URL, Title) group with the
	// latest timestamp, total chunk count and first-seen metadata,
	// most recent first.
	ListDocuments(ctx context.Context) ([]domain.DocumentSummary, error)

	// Stats reports the backend's storage footprint.
	Stats(ctx context.Context) (domain.StorageStats, error)

	// Close releases resources.
	Close() error
}

// SimilaritySearcher is implemented by stores that push similarity
// ranking down to the backend instead of relying on the engine's
// in-process scan. Results follow the same ordering contract as the
// engine: similarity descending, then most recent timestamp, then ID.
type SimilaritySearcher interface {
	// SearchSimilar ranks stored chunks against the query embedding,
	// excluding chunks without a vector and chunks scoring below
	// threshold, returning at most topK results.
	SearchSimilar(ctx context.Context, embedding []float32, topK int, threshold float64) ([]domain.QueryResult, error)
}
