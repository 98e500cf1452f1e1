package services

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/berrydev-ai/berry-rag/internal/chunker"
	"github.com/berrydev-ai/berry-rag/internal/core/domain"
	"github.com/berrydev-ai/berry-rag/internal/core/ports/driven"
	"github.com/berrydev-ai/berry-rag/internal/core/ports/driving"
	"github.com/berrydev-ai/berry-rag/internal/logger"
)

// Ensure RAGService implements the interface.
var _ driving.RAGService = (*RAGService)(nil)

// Search defaults, applied when the caller leaves the option unset.
const (
	DefaultTopK      = 5
	DefaultThreshold = 0.1

	// DefaultMaxChars caps ContextForQuery output.
	DefaultMaxChars = 4000

	// contextPoolSize is the candidate pool ContextForQuery draws from
	// before applying the character budget.
	contextPoolSize = 10

	// truncationMinBudget is the smallest remaining budget worth
	// filling with a truncated block.
	truncationMinBudget = 200
)

// RAGService orchestrates chunking, embedding, persistence and
// similarity retrieval.
type RAGService struct {
	store    driven.ChunkStore
	embedder driven.EmbeddingService
	splitter *chunker.Chunker
	snapshot driven.SnapshotWriter

	// now is the clock, replaceable in tests.
	now func() time.Time
}

// NewRAGService creates the retrieval engine on top of a chunk store
// and an embedding provider.
func NewRAGService(store driven.ChunkStore, embedder driven.EmbeddingService, splitter *chunker.Chunker) *RAGService {
	return &RAGService{
		store:    store,
		embedder: embedder,
		splitter: splitter,
		now:      time.Now,
	}
}

// SetSnapshotWriter enables snapshot republication after each
// successful ingestion. Optional.
func (s *RAGService) SetSnapshotWriter(w driven.SnapshotWriter) {
	s.snapshot = w
}

// AddDocument chunks, embeds and persists a document, returning its
// doc ID. An identical (url, content) pair short-circuits to the
// existing doc ID before any embedding work.
func (s *RAGService) AddDocument(ctx context.Context, url, title, content string, metadata map[string]any) (string, error) {
	if url == "" {
		return "", fmt.Errorf("%w: url is required", domain.ErrInvalidInput)
	}
	if strings.TrimSpace(content) == "" {
		return "", domain.ErrEmptyContent
	}
	if s.store == nil {
		return "", domain.ErrStorageUnavailable
	}

	contentHash := md5Hex(content)

	// Dedup check runs before any embedding calls. A lookup failure
	// aborts the call: proceeding would mint a second doc ID for the
	// same (url, content) pair.
	existing, err := s.store.FindDocID(ctx, url, contentHash)
	if err == nil {
		logger.Info("Document already exists: %s", title)
		return existing, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return "", fmt.Errorf("checking for existing document: %w", err)
	}

	timestamp := s.now().UTC()
	docID := md5Hex(url + timestamp.Format(time.RFC3339Nano))[:12]

	chunks := s.splitter.Split(content)
	logger.Info("Processing document: %s (%d chunks)", title, len(chunks))

	for i, text := range chunks {
		chunk := &domain.Chunk{
			ID:          fmt.Sprintf("%s_%d", docID, i),
			DocID:       docID,
			URL:         url,
			Title:       title,
			Content:     text,
			Index:       i,
			Timestamp:   timestamp,
			ContentHash: contentHash,
			Metadata:    chunkMetadata(metadata, len(chunks), contentHash, len(content)),
		}

		embedding, err := s.embed(ctx, text)
		if err != nil {
			// Recorded without a vector; retrievable by metadata only.
			logger.Error("Failed to generate embedding for chunk %d: %v", i, err)
		} else {
			chunk.Embedding = embedding
		}

		if err := s.store.SaveChunk(ctx, chunk); err != nil {
			return "", fmt.Errorf("saving chunk %d: %w", i, err)
		}
	}

	logger.Info("Added document: %s (ID: %s)", title, docID)
	s.publishSnapshot(ctx)
	return docID, nil
}

// Search ranks stored chunks against the query by cosine similarity,
// best match first, ties broken by most recent timestamp.
func (s *RAGService) Search(ctx context.Context, query string, opts driving.SearchOptions) ([]domain.QueryResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []domain.QueryResult{}, nil
	}
	if s.store == nil {
		return nil, domain.ErrStorageUnavailable
	}

	topK := opts.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}
	threshold := opts.Threshold
	if threshold == 0 {
		threshold = DefaultThreshold
	}

	queryEmbedding, err := s.embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	// Backends with native vector support rank server-side.
	if searcher, ok := s.store.(driven.SimilaritySearcher); ok {
		logger.Debug("Similarity search pushed down to store")
		return searcher.SearchSimilar(ctx, queryEmbedding, topK, threshold)
	}

	chunks, err := s.store.Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("scanning chunks: %w", err)
	}

	var results []domain.QueryResult
	for _, chunk := range chunks {
		similarity := cosineSimilarity(queryEmbedding, chunk.Embedding)
		if similarity < threshold {
			continue
		}
		results = append(results, domain.QueryResult{Chunk: chunk, Similarity: similarity})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Similarity != results[j].Similarity {
			return results[i].Similarity > results[j].Similarity
		}
		return results[i].Chunk.Timestamp.After(results[j].Chunk.Timestamp)
	})

	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// ContextForQuery formats the best matches into a context block
// bounded by maxChars.
func (s *RAGService) ContextForQuery(ctx context.Context, query string, maxChars int) (string, error) {
	if maxChars <= 0 {
		maxChars = DefaultMaxChars
	}

	results, err := s.Search(ctx, query, driving.SearchOptions{TopK: contextPoolSize})
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		return fmt.Sprintf("No relevant context found for query: %s", query), nil
	}

	var sb strings.Builder
	header := fmt.Sprintf("🔍 Context for query: '%s'\n", query)
	sb.WriteString(header)
	total := len(header)

	for i, result := range results {
		block := fmt.Sprintf("\n📄 Source %d: %s\n🔗 URL: %s\n📊 Similarity: %.3f\n📝 Content:\n%s\n\n---\n",
			i+1, result.Chunk.Title, result.Chunk.URL, result.Similarity, result.Chunk.Content)

		if total+len(block) <= maxChars {
			sb.WriteString(block)
			total += len(block)
			continue
		}

		// Fill a meaningful remainder with a truncated block, then stop.
		remaining := maxChars - total
		if remaining > truncationMinBudget {
			cut := remaining - 50
			for cut > 0 && !utf8.RuneStart(block[cut]) {
				cut--
			}
			sb.WriteString(block[:cut])
			sb.WriteString("\n[Content truncated...]\n---\n")
		}
		break
	}

	return sb.String(), nil
}

// ListDocuments returns one summary per ingested document.
func (s *RAGService) ListDocuments(ctx context.Context) ([]domain.DocumentSummary, error) {
	if s.store == nil {
		return nil, domain.ErrStorageUnavailable
	}
	return s.store.ListDocuments(ctx)
}

// Stats reports document/chunk counts, the active provider and the
// storage footprint.
func (s *RAGService) Stats(ctx context.Context) (domain.Stats, error) {
	if s.store == nil {
		return domain.Stats{}, domain.ErrStorageUnavailable
	}

	storage, err := s.store.Stats(ctx)
	if err != nil {
		return domain.Stats{}, fmt.Errorf("collecting storage stats: %w", err)
	}

	stats := domain.Stats{
		DocumentCount: storage.DocumentCount,
		ChunkCount:    storage.ChunkCount,
		MetadataBytes: storage.MetadataBytes,
		VectorBytes:   storage.VectorBytes,
		TotalBytes:    storage.MetadataBytes + storage.VectorBytes,
		StoragePath:   storage.Path,
	}
	if s.embedder != nil {
		stats.EmbeddingProvider = s.embedder.Name()
		stats.EmbeddingDim = s.embedder.Dimensions()
	}
	return stats, nil
}

// embed generates an embedding, guarding against a missing provider.
func (s *RAGService) embed(ctx context.Context, text string) ([]float32, error) {
	if s.embedder == nil {
		return nil, domain.ErrEmbeddingUnavailable
	}
	return s.embedder.Embed(ctx, text)
}

// publishSnapshot republishes the query interface snapshot. Failures
// are logged, never surfaced.
func (s *RAGService) publishSnapshot(ctx context.Context) {
	if s.snapshot == nil {
		return
	}

	stats, err := s.Stats(ctx)
	if err != nil {
		logger.Warn("Snapshot skipped, stats unavailable: %v", err)
		return
	}

	docs, err := s.ListDocuments(ctx)
	if err != nil {
		logger.Warn("Snapshot skipped, document list unavailable: %v", err)
		return
	}
	if len(docs) > 10 {
		docs = docs[:10]
	}

	snapshot := &domain.Snapshot{
		System:      "BerryRAG Local Vector Database",
		LastUpdated: s.now().UTC().Format(time.RFC3339),
		Stats:       stats,
		Usage: map[string]string{
			"search":  "berryrag search 'your query'",
			"context": "berryrag context 'your query'",
			"list":    "berryrag list",
			"add":     "berryrag add <url> <title> <content-file>",
		},
		RecentDocuments: docs,
	}

	if err := s.snapshot.WriteSnapshot(ctx, snapshot); err != nil {
		logger.Warn("Failed to publish snapshot: %v", err)
	}
}

// chunkMetadata merges caller metadata with the system-reserved keys.
func chunkMetadata(metadata map[string]any, totalChunks int, contentHash string, originalLength int) map[string]any {
	merged := make(map[string]any, len(metadata)+3)
	for k, v := range metadata {
		merged[k] = v
	}
	merged[domain.MetaTotalChunks] = totalChunks
	merged[domain.MetaContentHash] = contentHash
	merged[domain.MetaOriginalLength] = originalLength
	return merged
}

// cosineSimilarity computes dot(a,b) / (‖a‖·‖b‖), treating a zero-norm
// denominator as 0.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	denom := math.Sqrt(normA) * math.Sqrt(normB)
	if denom == 0 {
		return 0
	}
	return dot / denom
}

// md5Hex matches the identity scheme of existing stores: doc IDs and
// content hashes are hex MD5 digests. Not used for security.
func md5Hex(s string) string {
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])
}
