// Package memory provides an in-memory implementation of the chunk
// store, used by tests and as a throwaway backend.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/berrydev-ai/berry-rag/internal/core/domain"
	"github.com/berrydev-ai/berry-rag/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.ChunkStore = (*Store)(nil)

// Store is an in-memory implementation of driven.ChunkStore.
type Store struct {
	mu     sync.RWMutex
	chunks map[string]domain.Chunk
}

// New creates a new in-memory chunk store.
func New() *Store {
	return &Store{
		chunks: make(map[string]domain.Chunk),
	}
}

// SaveChunk stores or replaces a chunk.
func (s *Store) SaveChunk(_ context.Context, chunk *domain.Chunk) error {
	if chunk.ID == "" || chunk.Content == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.chunks[chunk.ID] = *chunk
	return nil
}

// GetChunk retrieves a chunk by ID.
func (s *Store) GetChunk(_ context.Context, id string) (*domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	chunk, ok := s.chunks[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &chunk, nil
}

// FindDocID returns the doc ID of an existing (url, content hash) pair.
func (s *Store) FindDocID(_ context.Context, url, contentHash string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, chunk := range s.chunks {
		if chunk.URL == url && chunk.ContentHash == contentHash {
			return chunk.DocID, nil
		}
	}
	return "", domain.ErrNotFound
}

// Scan returns all chunks with a vector, most recent first.
func (s *Store) Scan(_ context.Context) ([]domain.Chunk, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []domain.Chunk
	for _, chunk := range s.chunks {
		if chunk.Embedding == nil {
			continue
		}
		result = append(result, chunk)
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].Timestamp.Equal(result[j].Timestamp) {
			return result[i].Timestamp.After(result[j].Timestamp)
		}
		return result[i].ID < result[j].ID
	})

	return result, nil
}

// ListDocuments returns one summary per (URL, Title) group.
func (s *Store) ListDocuments(_ context.Context) ([]domain.DocumentSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	type group struct {
		summary domain.DocumentSummary
		head    domain.Chunk
	}
	groups := make(map[[2]string]*group)

	for _, chunk := range s.chunks {
		key := [2]string{chunk.URL, chunk.Title}
		g, ok := groups[key]
		if !ok {
			g = &group{
				summary: domain.DocumentSummary{URL: chunk.URL, Title: chunk.Title},
				head:    chunk,
			}
			groups[key] = g
		}
		g.summary.ChunkCount++
		if chunk.Timestamp.After(g.summary.Timestamp) {
			g.summary.Timestamp = chunk.Timestamp
		}
		// Representative metadata comes from the first chunk of the
		// most recent ingestion.
		if chunk.Timestamp.After(g.head.Timestamp) ||
			(chunk.Timestamp.Equal(g.head.Timestamp) && chunk.Index < g.head.Index) {
			g.head = chunk
		}
	}

	summaries := make([]domain.DocumentSummary, 0, len(groups))
	for _, g := range groups {
		sum := g.summary
		sum.ContentLength = metadataInt(g.head.Metadata, domain.MetaOriginalLength)
		sum.Source = metadataString(g.head.Metadata, "source")
		summaries = append(summaries, sum)
	}

	sort.Slice(summaries, func(i, j int) bool {
		if !summaries[i].Timestamp.Equal(summaries[j].Timestamp) {
			return summaries[i].Timestamp.After(summaries[j].Timestamp)
		}
		return summaries[i].URL < summaries[j].URL
	})

	return summaries, nil
}

// Stats reports the backend's storage footprint.
func (s *Store) Stats(_ context.Context) (domain.StorageStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	urls := make(map[string]struct{})
	var vectorBytes int64
	for _, chunk := range s.chunks {
		urls[chunk.URL] = struct{}{}
		vectorBytes += int64(len(chunk.Embedding)) * 4
	}

	return domain.StorageStats{
		DocumentCount: len(urls),
		ChunkCount:    len(s.chunks),
		VectorBytes:   vectorBytes,
		Path:          "memory",
	}, nil
}

// Close releases resources.
func (s *Store) Close() error {
	return nil
}

// metadataInt reads an integer metadata value, tolerating the numeric
// types JSON round-trips produce.
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

// metadataString reads a string metadata value, defaulting to
// "unknown" when absent.
func metadataString(meta map[string]any, key string) string {
	if v, ok := meta[key].(string); ok && v != "" {
		return v
	}
	return "unknown"
}
