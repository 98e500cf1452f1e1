package pgvector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgv "github.com/pgvector/pgvector-go"
	pgxvec "github.com/pgvector/pgvector-go/pgx"

	"github.com/berrydev-ai/berry-rag/internal/core/domain"
	"github.com/berrydev-ai/berry-rag/internal/core/ports/driven"
	"github.com/berrydev-ai/berry-rag/internal/logger"
)

// Ensure Store implements both interfaces.
var (
	_ driven.ChunkStore         = (*Store)(nil)
	_ driven.SimilaritySearcher = (*Store)(nil)
)

const dimensionKey = "embedding_dimension"

// Store persists chunks in PostgreSQL with a pgvector column per
// chunk, and answers similarity queries server-side.
type Store struct {
	pool       *pgxpool.Pool
	dimensions int
	host       string
}

// NewStore connects to PostgreSQL at databaseURL and ensures the
// schema exists. dimensions fixes the vector column width; reopening
// an existing database with a different value fails with
// domain.ErrDimensionMismatch.
func NewStore(ctx context.Context, databaseURL string, dimensions int) (*Store, error) {
	if databaseURL == "" {
		return nil, fmt.Errorf("%w: database URL is empty", domain.ErrInvalidInput)
	}
	if dimensions <= 0 {
		return nil, fmt.Errorf("%w: invalid dimension %d", domain.ErrInvalidInput, dimensions)
	}

	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing database URL: %w", err)
	}
	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvec.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	s := &Store{
		pool:       pool,
		dimensions: dimensions,
		host:       cfg.ConnConfig.Host,
	}

	if err := s.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	if err := s.checkDimension(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return s, nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// Path identifies the storage location for reporting.
func (s *Store) Path() string {
	return "postgresql://" + s.host
}

func (s *Store) ensureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS chunks (
			id TEXT PRIMARY KEY,
			doc_id TEXT NOT NULL,
			url TEXT NOT NULL,
			title TEXT NOT NULL DEFAULT '',
			content TEXT NOT NULL,
			chunk_index INTEGER NOT NULL DEFAULT 0,
			timestamp TIMESTAMPTZ NOT NULL,
			metadata JSONB NOT NULL DEFAULT '{}',
			content_hash TEXT NOT NULL,
			embedding vector(%d)
		)`, s.dimensions),
		`CREATE INDEX IF NOT EXISTS idx_chunks_url ON chunks(url)`,
		`CREATE INDEX IF NOT EXISTS idx_chunks_timestamp ON chunks(timestamp)`,
		`CREATE INDEX IF NOT EXISTS idx_chunks_content_hash ON chunks(content_hash)`,
		`CREATE INDEX IF NOT EXISTS idx_chunks_embedding ON chunks
			USING ivfflat (embedding vector_cosine_ops) WITH (lists = 100)`,
		`CREATE TABLE IF NOT EXISTS system_config (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
	}

	for _, stmt := range stmts {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensuring schema: %w", err)
		}
	}
	return nil
}

func (s *Store) checkDimension(ctx context.Context) error {
	var stored string
	err := s.pool.QueryRow(ctx,
		"SELECT value FROM system_config WHERE key = $1", dimensionKey).Scan(&stored)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		_, err = s.pool.Exec(ctx,
			"INSERT INTO system_config (key, value) VALUES ($1, $2)",
			dimensionKey, strconv.Itoa(s.dimensions))
		if err != nil {
			return fmt.Errorf("recording embedding dimension: %w", err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("reading embedding dimension: %w", err)
	}

	storedDim, err := strconv.Atoi(stored)
	if err != nil {
		return fmt.Errorf("parsing stored embedding dimension %q: %w", stored, err)
	}
	if storedDim != s.dimensions {
		return fmt.Errorf("%w: store initialised with %d, provider declares %d (run a migration to switch providers)",
			domain.ErrDimensionMismatch, storedDim, s.dimensions)
	}
	return nil
}

// SaveChunk stores or replaces a chunk with its vector.
func (s *Store) SaveChunk(ctx context.Context, chunk *domain.Chunk) error {
	if chunk.ID == "" || chunk.Content == "" {
		return domain.ErrInvalidInput
	}

	metadataJSON, err := json.Marshal(chunk.Metadata)
	if err != nil {
		return fmt.Errorf("marshalling metadata: %w", err)
	}

	var embedding any
	if chunk.Embedding != nil {
		embedding = pgv.NewVector(chunk.Embedding)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO chunks (id, doc_id, url, title, content, chunk_index, timestamp, metadata, content_hash, embedding)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			doc_id = EXCLUDED.doc_id,
			url = EXCLUDED.url,
			title = EXCLUDED.title,
			content = EXCLUDED.content,
			chunk_index = EXCLUDED.chunk_index,
			timestamp = EXCLUDED.timestamp,
			metadata = EXCLUDED.metadata,
			content_hash = EXCLUDED.content_hash,
			embedding = EXCLUDED.embedding
	`, chunk.ID, chunk.DocID, chunk.URL, chunk.Title, chunk.Content,
		chunk.Index, chunk.Timestamp.UTC(), metadataJSON, chunk.ContentHash, embedding)

	if err != nil {
		return fmt.Errorf("saving chunk: %w", err)
	}
	return nil
}

// GetChunk retrieves a chunk by ID.
func (s *Store) GetChunk(ctx context.Context, id string) (*domain.Chunk, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, doc_id, url, title, content, chunk_index, timestamp, metadata, content_hash, embedding
		FROM chunks WHERE id = $1
	`, id)

	chunk, err := scanChunk(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting chunk: %w", err)
	}
	return chunk, nil
}

// FindDocID returns the doc ID of an existing (url, content hash) pair.
func (s *Store) FindDocID(ctx context.Context, url, contentHash string) (string, error) {
	var docID string
	err := s.pool.QueryRow(ctx,
		"SELECT doc_id FROM chunks WHERE url = $1 AND content_hash = $2 LIMIT 1",
		url, contentHash).Scan(&docID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", domain.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("finding document: %w", err)
	}
	return docID, nil
}

// Scan returns all chunks with a vector, most recent first.
func (s *Store) Scan(ctx context.Context) ([]domain.Chunk, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, doc_id, url, title, content, chunk_index, timestamp, metadata, content_hash, embedding
		FROM chunks WHERE embedding IS NOT NULL
		ORDER BY timestamp DESC, id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var chunks []domain.Chunk
	for rows.Next() {
		chunk, err := scanChunk(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning chunk: %w", err)
		}
		chunks = append(chunks, *chunk)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}
	return chunks, nil
}

// SearchSimilar ranks chunks by cosine similarity server-side. Only
// chunks at or above threshold are returned, best match first.
func (s *Store) SearchSimilar(ctx context.Context, embedding []float32, topK int, threshold float64) ([]domain.QueryResult, error) {
	if len(embedding) == 0 {
		return nil, fmt.Errorf("%w: empty query embedding", domain.ErrInvalidInput)
	}

	query := pgv.NewVector(embedding)
	rows, err := s.pool.Query(ctx, `
		SELECT id, doc_id, url, title, content, chunk_index, timestamp, metadata, content_hash, embedding,
			1 - (embedding <=> $1) AS similarity
		FROM chunks
		WHERE embedding IS NOT NULL AND 1 - (embedding <=> $1) >= $2
		ORDER BY similarity DESC, timestamp DESC, id
		LIMIT $3
	`, query, threshold, topK)
	if err != nil {
		return nil, fmt.Errorf("searching chunks: %w", err)
	}
	defer rows.Close()

	var results []domain.QueryResult
	for rows.Next() {
		var chunk domain.Chunk
		var metadataJSON []byte
		var vec pgv.Vector
		var ts time.Time
		var similarity float64

		err := rows.Scan(&chunk.ID, &chunk.DocID, &chunk.URL, &chunk.Title, &chunk.Content,
			&chunk.Index, &ts, &metadataJSON, &chunk.ContentHash, &vec, &similarity)
		if err != nil {
			return nil, fmt.Errorf("scanning search result: %w", err)
		}

		chunk.Timestamp = ts
		chunk.Metadata = parseMetadata(metadataJSON, chunk.ID)
		chunk.Embedding = vec.Slice()

		results = append(results, domain.QueryResult{Chunk: chunk, Similarity: similarity})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating search results: %w", err)
	}
	return results, nil
}

// ListDocuments returns one summary per (URL, Title) group, the
// representative metadata taken from the first chunk of the most
// recent ingestion.
func (s *Store) ListDocuments(ctx context.Context) ([]domain.DocumentSummary, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT url, title, MAX(timestamp) AS latest, COUNT(*) AS chunk_count,
			(SELECT metadata FROM chunks c2
			 WHERE c2.url = c1.url AND c2.title = c1.title
			 ORDER BY c2.timestamp DESC, c2.chunk_index ASC LIMIT 1) AS metadata
		FROM chunks c1
		GROUP BY url, title
		ORDER BY latest DESC, url
	`)
	if err != nil {
		return nil, fmt.Errorf("querying documents: %w", err)
	}
	defer rows.Close()

	var summaries []domain.DocumentSummary
	for rows.Next() {
		var sum domain.DocumentSummary
		var metadataJSON []byte
		if err := rows.Scan(&sum.URL, &sum.Title, &sum.Timestamp, &sum.ChunkCount, &metadataJSON); err != nil {
			return nil, fmt.Errorf("scanning document summary: %w", err)
		}

		meta := parseMetadata(metadataJSON, sum.URL)
		if v, ok := meta[domain.MetaOriginalLength].(float64); ok {
			sum.ContentLength = int(v)
		}
		sum.Source = "unknown"
		if v, ok := meta["source"].(string); ok && v != "" {
			sum.Source = v
		}

		summaries = append(summaries, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating document summaries: %w", err)
	}
	return summaries, nil
}

// Stats reports the backend's storage footprint. Metadata and vector
// sizes come from the server's own accounting.
func (s *Store) Stats(ctx context.Context) (domain.StorageStats, error) {
	var stats domain.StorageStats
	stats.Path = s.Path()

	err := s.pool.QueryRow(ctx,
		"SELECT COUNT(DISTINCT url), COUNT(*) FROM chunks").
		Scan(&stats.DocumentCount, &stats.ChunkCount)
	if err != nil {
		return domain.StorageStats{}, fmt.Errorf("counting chunks: %w", err)
	}

	err = s.pool.QueryRow(ctx,
		"SELECT COALESCE(pg_total_relation_size('chunks'), 0)").Scan(&stats.MetadataBytes)
	if err != nil {
		return domain.StorageStats{}, fmt.Errorf("measuring table size: %w", err)
	}

	// Vectors share the table; report their column payload separately.
	err = s.pool.QueryRow(ctx, `
		SELECT COALESCE(SUM(pg_column_size(embedding)), 0)
		FROM chunks WHERE embedding IS NOT NULL
	`).Scan(&stats.VectorBytes)
	if err != nil {
		return domain.StorageStats{}, fmt.Errorf("measuring vector size: %w", err)
	}

	return stats, nil
}

// scanChunk reads the common chunk column set from a row.
func scanChunk(row pgx.Row) (*domain.Chunk, error) {
	var chunk domain.Chunk
	var metadataJSON []byte
	var vec *pgv.Vector
	var ts time.Time

	err := row.Scan(&chunk.ID, &chunk.DocID, &chunk.URL, &chunk.Title, &chunk.Content,
		&chunk.Index, &ts, &metadataJSON, &chunk.ContentHash, &vec)
	if err != nil {
		return nil, err
	}

	chunk.Timestamp = ts
	chunk.Metadata = parseMetadata(metadataJSON, chunk.ID)
	if vec != nil {
		chunk.Embedding = vec.Slice()
	}
	return &chunk, nil
}

func parseMetadata(metadataJSON []byte, owner string) map[string]any {
	meta := make(map[string]any)
	if len(metadataJSON) == 0 {
		return meta
	}
	if err := json.Unmarshal(metadataJSON, &meta); err != nil {
		logger.Warn("Malformed metadata for %s, treating as empty: %v", owner, err)
		return make(map[string]any)
	}
	return meta
}
