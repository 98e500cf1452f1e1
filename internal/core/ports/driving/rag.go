package driving

import (
	"context"

	"github.com/berrydev-ai/berry-rag/internal/core/domain"
)

// SearchOptions controls similarity search behaviour.
type SearchOptions struct {
	// TopK is the maximum number of results (default 5).
	TopK int

	// Threshold excludes chunks scoring strictly below it (default 0.1).
	// Valid range is [0, 1].
	Threshold float64
}

// RAGService provides document ingestion and similarity retrieval to
// external actors.
type RAGService interface {
	// AddDocument chunks, embeds and persists a document, returning its
	// doc ID. Re-ingesting identical (url, content) returns the existing
	// doc ID without writing anything.
	AddDocument(ctx context.Context, url, title, content string, metadata map[string]any) (string, error)

	// Search ranks stored chunks against the query by cosine similarity.
	Search(ctx context.Context, query string, opts SearchOptions) ([]domain.QueryResult, error)

	// ContextForQuery formats the best matches into a context block
	// bounded by maxChars, suitable for inclusion in an LLM prompt.
	ContextForQuery(ctx context.Context, query string, maxChars int) (string, error)

	// ListDocuments returns one summary per ingested document.
	ListDocuments(ctx context.Context) ([]domain.DocumentSummary, error)

	// Stats reports document/chunk counts, the active embedding
	// provider and the storage footprint.
	Stats(ctx context.Context) (domain.Stats, error)
}
