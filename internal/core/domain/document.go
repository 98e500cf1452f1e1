package domain

import "time"

// System-reserved metadata keys attached to every stored chunk.
// Caller-supplied metadata is carried alongside these untouched.
const (
	// MetaTotalChunks is the chunk count of the parent document.
	MetaTotalChunks = "total_chunks"

	// MetaContentHash is the hash of the full original content.
	MetaContentHash = "content_hash"

	// MetaOriginalLength is the character length of the original content.
	MetaOriginalLength = "original_length"
)

// Chunk is the atomic unit of storage and retrieval: a contiguous,
// boundary-aware substring of an ingested document together with its
// vector embedding.
type Chunk struct {
	// ID is the unique chunk identifier, formatted "{DocID}_{Index}".
	ID string

	// DocID is the 12-character identifier shared by all chunks of a
	// document, derived from hashing the URL and creation timestamp.
	DocID string

	// URL is the caller-supplied provenance location. Not unique; the
	// same URL may be re-ingested with different content.
	URL string

	// Title is the caller-supplied document title.
	Title string

	// Content is the chunk text. Never empty.
	Content string

	// Index is the 0-based position within the parent document.
	Index int

	// Timestamp is the creation instant. Chunks are insert-only.
	Timestamp time.Time

	// ContentHash is the hash of the full original document content,
	// used for whole-document deduplication.
	ContentHash string

	// Metadata carries caller context plus the system-reserved keys.
	Metadata map[string]any

	// Embedding is the vector representation. Nil when embedding
	// generation failed; such chunks are excluded from similarity
	// search but remain retrievable by metadata.
	Embedding []float32
}

// QueryResult is a single ranked similarity match.
type QueryResult struct {
	// Chunk is the matched chunk, fully hydrated.
	Chunk Chunk

	// Similarity is the cosine similarity against the query embedding.
	Similarity float64
}

// DocumentSummary is one aggregate row per ingested document,
// grouped by (URL, Title).
type DocumentSummary struct {
	URL           string    `json:"url"`
	Title         string    `json:"title"`
	Timestamp     time.Time `json:"timestamp"`
	ChunkCount    int       `json:"chunk_count"`
	ContentLength int       `json:"content_length"`
	Source        string    `json:"source"`
}

// StorageStats describes a backend's footprint.
type StorageStats struct {
	// DocumentCount is the number of distinct ingested documents.
	DocumentCount int

	// ChunkCount is the total number of stored chunks.
	ChunkCount int

	// MetadataBytes is the size of the relational metadata store.
	MetadataBytes int64

	// VectorBytes is the size of the stored vectors.
	VectorBytes int64

	// Path describes the storage location (directory or DSN host).
	Path string
}

// Stats combines storage and provider information for reporting.
type Stats struct {
	DocumentCount     int    `json:"document_count"`
	ChunkCount        int    `json:"chunk_count"`
	EmbeddingProvider string `json:"embedding_provider"`
	EmbeddingDim      int    `json:"embedding_dimension"`
	MetadataBytes     int64  `json:"metadata_bytes"`
	VectorBytes       int64  `json:"vector_bytes"`
	TotalBytes        int64  `json:"total_bytes"`
	StoragePath       string `json:"storage_path"`
}
