package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/berrydev-ai/berry-rag/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/berrydev-ai/berry-rag/internal/core/domain"
	"github.com/berrydev-ai/berry-rag/internal/core/ports/driven"
	"github.com/berrydev-ai/berry-rag/internal/logger"
)

// Ensure Store implements the interface.
var _ driven.ChunkStore = (*Store)(nil)

// dimensionKey is the system_config entry recording the embedding
// dimension the store was initialised with.
const dimensionKey = "embedding_dimension"

// vectorExt is the file extension of per-chunk vector blobs.
const vectorExt = ".vec"

// Store persists chunk metadata in SQLite and chunk vectors as blob
// files addressable by chunk id.
type Store struct {
	db         *sql.DB
	dbPath     string
	vectorsDir string
	dataDir    string
}

// NewStore creates a SQLite-backed chunk store at the specified data
// directory. If dataDir is empty, defaults to ~/.berryrag/storage.
//
// dimensions is the embedding dimension of the active provider. The
// first open records it; a later open with a different value fails with
// domain.ErrDimensionMismatch, since switching providers requires an
// explicit migration of the stored vectors.
func NewStore(dataDir string, dimensions int) (*Store, error) {
	s, err := open(dataDir)
	if err != nil {
		return nil, err
	}

	if err := s.checkDimension(dimensions); err != nil {
		s.db.Close()
		return nil, err
	}

	return s, nil
}

// OpenExisting opens a store adopting whatever dimension it was
// initialised with, instead of declaring one. Maintenance flows (like
// migrating to another backend) use this to read stores written under
// a previous provider.
func OpenExisting(dataDir string) (*Store, error) {
	s, err := open(dataDir)
	if err != nil {
		return nil, err
	}

	if _, err := s.Dimensions(); err != nil {
		s.db.Close()
		return nil, err
	}

	return s, nil
}

// open prepares the directory layout, the database and the schema.
func open(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".berryrag", "storage")
	}

	vectorsDir := filepath.Join(dataDir, "vectors")
	if err := os.MkdirAll(vectorsDir, 0700); err != nil {
		return nil, fmt.Errorf("creating vectors directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "metadata.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:         db,
		dbPath:     dbPath,
		vectorsDir: vectorsDir,
		dataDir:    dataDir,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Dimensions returns the embedding dimension recorded at first open.
func (s *Store) Dimensions() (int, error) {
	var stored string
	err := s.db.QueryRow("SELECT value FROM system_config WHERE key = ?", dimensionKey).Scan(&stored)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("%w: store has no recorded embedding dimension", domain.ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("reading embedding dimension: %w", err)
	}

	dims, err := strconv.Atoi(stored)
	if err != nil {
		return 0, fmt.Errorf("parsing stored embedding dimension %q: %w", stored, err)
	}
	return dims, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the store's data directory.
func (s *Store) Path() string {
	return s.dataDir
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// checkDimension records the embedding dimension on first open and
// rejects a mismatch on subsequent opens.
func (s *Store) checkDimension(dimensions int) error {
	if dimensions <= 0 {
		return fmt.Errorf("%w: invalid dimension %d", domain.ErrInvalidInput, dimensions)
	}

	stored, err := s.Dimensions()
	if errors.Is(err, domain.ErrNotFound) {
		_, err = s.db.Exec(
			"INSERT INTO system_config (key, value) VALUES (?, ?)",
			dimensionKey, strconv.Itoa(dimensions))
		if err != nil {
			return fmt.Errorf("recording embedding dimension: %w", err)
		}
		return nil
	}
	if err != nil {
		return err
	}

	if stored != dimensions {
		return fmt.Errorf("%w: store initialised with %d, provider declares %d (run a migration to switch providers)",
			domain.ErrDimensionMismatch, stored, dimensions)
	}
	return nil
}

// SaveChunk stores or replaces a chunk and its vector.
func (s *Store) SaveChunk(ctx context.Context, chunk *domain.Chunk) error {
	if chunk.ID == "" || chunk.Content == "" {
		return domain.ErrInvalidInput
	}

	metadataJSON, err := json.Marshal(chunk.Metadata)
	if err != nil {
		return fmt.Errorf("marshalling metadata: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO chunks (id, doc_id, url, title, content, chunk_index, timestamp, metadata, content_hash)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			doc_id = excluded.doc_id,
			url = excluded.url,
			title = excluded.title,
			content = excluded.content,
			chunk_index = excluded.chunk_index,
			timestamp = excluded.timestamp,
			metadata = excluded.metadata,
			content_hash = excluded.content_hash
	`, chunk.ID, chunk.DocID, chunk.URL, chunk.Title, chunk.Content,
		chunk.Index, chunk.Timestamp.UTC(), string(metadataJSON), chunk.ContentHash)

	if err != nil {
		return fmt.Errorf("saving chunk: %w", err)
	}

	vectorPath := s.vectorPath(chunk.ID)
	if chunk.Embedding == nil {
		// Recorded without a vector: retrievable by metadata, excluded
		// from similarity search.
		if err := os.Remove(vectorPath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("removing stale vector: %w", err)
		}
		return nil
	}

	if err := os.WriteFile(vectorPath, float32SliceToBytes(chunk.Embedding), 0600); err != nil {
		return fmt.Errorf("writing vector: %w", err)
	}
	return nil
}

// GetChunk retrieves a chunk by ID, including its vector if present.
func (s *Store) GetChunk(ctx context.Context, id string) (*domain.Chunk, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, doc_id, url, title, content, chunk_index, timestamp, metadata, content_hash
		FROM chunks WHERE id = ?
	`, id)

	chunk, err := scanChunkRow(row)
	if err != nil {
		return nil, err
	}

	if vec, err := s.readVector(chunk.ID); err == nil {
		chunk.Embedding = vec
	}

	return chunk, nil
}

// FindDocID returns the doc ID of an existing (url, content hash) pair.
func (s *Store) FindDocID(ctx context.Context, url, contentHash string) (string, error) {
	var docID string
	err := s.db.QueryRowContext(ctx, `
		SELECT doc_id FROM chunks WHERE url = ? AND content_hash = ? LIMIT 1
	`, url, contentHash).Scan(&docID)
	if err == sql.ErrNoRows {
		return "", domain.ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("finding document: %w", err)
	}
	return docID, nil
}

// Scan returns all chunks with a vector, most recent first. Chunks
// whose vector blob is missing or unreadable are skipped and logged.
func (s *Store) Scan(ctx context.Context) ([]domain.Chunk, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, doc_id, url, title, content, chunk_index, timestamp, metadata, content_hash
		FROM chunks ORDER BY timestamp DESC, id
	`)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %w", err)
	}
	defer rows.Close()

	var chunks []domain.Chunk //nolint:prealloc // size unknown from query
	for rows.Next() {
		chunk, err := scanChunkRows(rows)
		if err != nil {
			return nil, err
		}

		vec, err := s.readVector(chunk.ID)
		if err != nil {
			logger.Warn("Skipping chunk %s: %v", chunk.ID, err)
			continue
		}
		chunk.Embedding = vec
		chunks = append(chunks, *chunk)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %w", err)
	}

	return chunks, nil
}

// ListDocuments returns one summary per (URL, Title) group with the
// latest timestamp and total chunk count. The representative metadata
// is taken from the first chunk of the most recent ingestion.
func (s *Store) ListDocuments(ctx context.Context) ([]domain.DocumentSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
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

	var summaries []domain.DocumentSummary //nolint:prealloc // size unknown from query
	for rows.Next() {
		var sum domain.DocumentSummary
		var metadataJSON sql.NullString
		if err := rows.Scan(&sum.URL, &sum.Title, &sum.Timestamp, &sum.ChunkCount, &metadataJSON); err != nil {
			return nil, fmt.Errorf("scanning document summary: %w", err)
		}

		meta := parseMetadata(metadataJSON.String, sum.URL)
		sum.ContentLength = metadataInt(meta, domain.MetaOriginalLength)
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

// Stats reports the backend's storage footprint.
func (s *Store) Stats(ctx context.Context) (domain.StorageStats, error) {
	var stats domain.StorageStats
	stats.Path = s.dataDir

	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(DISTINCT url), COUNT(*) FROM chunks").
		Scan(&stats.DocumentCount, &stats.ChunkCount)
	if err != nil {
		return domain.StorageStats{}, fmt.Errorf("counting chunks: %w", err)
	}

	if info, err := os.Stat(s.dbPath); err == nil {
		stats.MetadataBytes = info.Size()
	}

	entries, err := os.ReadDir(s.vectorsDir)
	if err != nil {
		return domain.StorageStats{}, fmt.Errorf("reading vectors directory: %w", err)
	}
	for _, entry := range entries {
		if !strings.HasSuffix(entry.Name(), vectorExt) {
			continue
		}
		if info, err := entry.Info(); err == nil {
			stats.VectorBytes += info.Size()
		}
	}

	return stats, nil
}

// vectorPath returns the blob file path for a chunk id.
func (s *Store) vectorPath(id string) string {
	return filepath.Join(s.vectorsDir, id+vectorExt)
}

// readVector loads a chunk's vector blob.
func (s *Store) readVector(id string) ([]float32, error) {
	data, err := os.ReadFile(s.vectorPath(id))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("vector blob missing")
		}
		return nil, fmt.Errorf("reading vector blob: %w", err)
	}
	if len(data) == 0 || len(data)%4 != 0 {
		return nil, fmt.Errorf("vector blob corrupt (%d bytes)", len(data))
	}
	return bytesToFloat32Slice(data), nil
}

// ==================== Helper Functions ====================

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}

// scanChunkRow scans a chunk from *sql.Row.
func scanChunkRow(row *sql.Row) (*domain.Chunk, error) {
	var chunk domain.Chunk
	var metadataJSON sql.NullString
	var ts time.Time

	if err := row.Scan(&chunk.ID, &chunk.DocID, &chunk.URL, &chunk.Title, &chunk.Content,
		&chunk.Index, &ts, &metadataJSON, &chunk.ContentHash); err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scanning chunk: %w", err)
	}

	chunk.Timestamp = ts
	chunk.Metadata = parseMetadata(metadataJSON.String, chunk.ID)
	return &chunk, nil
}

// scanChunkRows scans a chunk from *sql.Rows.
func scanChunkRows(rows *sql.Rows) (*domain.Chunk, error) {
	var chunk domain.Chunk
	var metadataJSON sql.NullString
	var ts time.Time

	if err := rows.Scan(&chunk.ID, &chunk.DocID, &chunk.URL, &chunk.Title, &chunk.Content,
		&chunk.Index, &ts, &metadataJSON, &chunk.ContentHash); err != nil {
		return nil, fmt.Errorf("scanning chunk: %w", err)
	}

	chunk.Timestamp = ts
	chunk.Metadata = parseMetadata(metadataJSON.String, chunk.ID)
	return &chunk, nil
}

// parseMetadata unmarshals a metadata JSON document. Malformed
// metadata is treated as empty with a logged warning, never a failure.
func parseMetadata(metadataJSON, owner string) map[string]any {
	meta := make(map[string]any)
	if metadataJSON == "" || metadataJSON == "null" {
		return meta
	}
	if err := json.Unmarshal([]byte(metadataJSON), &meta); err != nil {
		logger.Warn("Malformed metadata for %s, treating as empty: %v", owner, err)
		return make(map[string]any)
	}
	return meta
}

// metadataInt reads an integer metadata value, tolerating the numeric
// types JSON unmarshalling produces.
func metadataInt(meta map[string]any, key string) int {
	switch v := meta[key].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}
