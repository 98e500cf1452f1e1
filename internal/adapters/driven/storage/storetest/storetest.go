// Package storetest exercises the ChunkStore contract against any
// backend. Both persistence adapters must behave identically for the
// same sequence of operations, so their tests share this suite.
package storetest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/berrydev-ai/berry-rag/internal/core/domain"
	"github.com/berrydev-ai/berry-rag/internal/core/ports/driven"
)

// Factory builds a fresh, empty store for one test.
type Factory func(t *testing.T) driven.ChunkStore

// Run executes the contract suite against the given backend.
func Run(t *testing.T, newStore Factory) {
	t.Run("SaveAndGet", func(t *testing.T) { testSaveAndGet(t, newStore) })
	t.Run("SaveUpsert", func(t *testing.T) { testSaveUpsert(t, newStore) })
	t.Run("SaveInvalid", func(t *testing.T) { testSaveInvalid(t, newStore) })
	t.Run("GetMissing", func(t *testing.T) { testGetMissing(t, newStore) })
	t.Run("FindDocID", func(t *testing.T) { testFindDocID(t, newStore) })
	t.Run("Scan", func(t *testing.T) { testScan(t, newStore) })
	t.Run("ScanSkipsVectorless", func(t *testing.T) { testScanSkipsVectorless(t, newStore) })
	t.Run("ListDocuments", func(t *testing.T) { testListDocuments(t, newStore) })
	t.Run("Stats", func(t *testing.T) { testStats(t, newStore) })
}

// makeChunk builds a chunk with predictable fields for the given doc
// and index.
func makeChunk(docID string, index int, ts time.Time) *domain.Chunk {
	return &domain.Chunk{
		ID:          fmt.Sprintf("%s_%d", docID, index),
		DocID:       docID,
		URL:         "https://example.com/" + docID,
		Title:       "Doc " + docID,
		Content:     fmt.Sprintf("content of %s chunk %d", docID, index),
		Index:       index,
		Timestamp:   ts,
		ContentHash: "hash-" + docID,
		Metadata: map[string]any{
			domain.MetaTotalChunks:    2,
			domain.MetaContentHash:    "hash-" + docID,
			domain.MetaOriginalLength: 100,
			"source":                  "test",
		},
		Embedding: []float32{0.1, 0.2, 0.3, float32(index)},
	}
}

func testSaveAndGet(t *testing.T, newStore Factory) {
	store := newStore(t)
	ctx := context.Background()

	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	chunk := makeChunk("abc123def456", 0, ts)
	require.NoError(t, store.SaveChunk(ctx, chunk))

	got, err := store.GetChunk(ctx, chunk.ID)
	require.NoError(t, err)

	assert.Equal(t, chunk.ID, got.ID)
	assert.Equal(t, chunk.DocID, got.DocID)
	assert.Equal(t, chunk.URL, got.URL)
	assert.Equal(t, chunk.Title, got.Title)
	assert.Equal(t, chunk.Content, got.Content)
	assert.Equal(t, chunk.Index, got.Index)
	assert.Equal(t, chunk.ContentHash, got.ContentHash)
	assert.Equal(t, chunk.Embedding, got.Embedding)
	assert.True(t, chunk.Timestamp.Equal(got.Timestamp),
		"timestamp mismatch: want %v, got %v", chunk.Timestamp, got.Timestamp)
	assert.Equal(t, "test", got.Metadata["source"])
}

func testSaveUpsert(t *testing.T, newStore Factory) {
	store := newStore(t)
	ctx := context.Background()

	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	chunk := makeChunk("abc123def456", 0, ts)
	require.NoError(t, store.SaveChunk(ctx, chunk))

	chunk.Content = "revised content"
	chunk.Embedding = []float32{0.9, 0.8, 0.7, 0.6}
	require.NoError(t, store.SaveChunk(ctx, chunk))

	got, err := store.GetChunk(ctx, chunk.ID)
	require.NoError(t, err)
	assert.Equal(t, "revised content", got.Content)
	assert.Equal(t, []float32{0.9, 0.8, 0.7, 0.6}, got.Embedding)

	chunks, err := store.Scan(ctx)
	require.NoError(t, err)
	assert.Len(t, chunks, 1, "upsert must not duplicate the chunk")
}

func testSaveInvalid(t *testing.T, newStore Factory) {
	store := newStore(t)
	ctx := context.Background()

	err := store.SaveChunk(ctx, &domain.Chunk{Content: "no id"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	err = store.SaveChunk(ctx, &domain.Chunk{ID: "no-content"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func testGetMissing(t *testing.T, newStore Factory) {
	store := newStore(t)

	_, err := store.GetChunk(context.Background(), "does-not-exist")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func testFindDocID(t *testing.T, newStore Factory) {
	store := newStore(t)
	ctx := context.Background()

	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	chunk := makeChunk("abc123def456", 0, ts)
	require.NoError(t, store.SaveChunk(ctx, chunk))

	docID, err := store.FindDocID(ctx, chunk.URL, chunk.ContentHash)
	require.NoError(t, err)
	assert.Equal(t, "abc123def456", docID)

	// Same URL, different content: no match.
	_, err = store.FindDocID(ctx, chunk.URL, "other-hash")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// Different URL, same content: no match either.
	_, err = store.FindDocID(ctx, "https://example.com/other", chunk.ContentHash)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func testScan(t *testing.T, newStore Factory) {
	store := newStore(t)
	ctx := context.Background()

	older := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	newer := older.Add(time.Hour)

	require.NoError(t, store.SaveChunk(ctx, makeChunk("olddoc000000", 0, older)))
	require.NoError(t, store.SaveChunk(ctx, makeChunk("olddoc000000", 1, older)))
	require.NoError(t, store.SaveChunk(ctx, makeChunk("newdoc000000", 0, newer)))

	chunks, err := store.Scan(ctx)
	require.NoError(t, err)
	require.Len(t, chunks, 3)

	assert.Equal(t, "newdoc000000_0", chunks[0].ID, "most recent first")
	for _, c := range chunks {
		assert.NotNil(t, c.Embedding)
	}
}

func testScanSkipsVectorless(t *testing.T, newStore Factory) {
	store := newStore(t)
	ctx := context.Background()

	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.SaveChunk(ctx, makeChunk("abc123def456", 0, ts)))

	bare := makeChunk("abc123def456", 1, ts)
	bare.Embedding = nil
	require.NoError(t, store.SaveChunk(ctx, bare))

	chunks, err := store.Scan(ctx)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "abc123def456_0", chunks[0].ID)

	// The vectorless chunk is still directly retrievable.
	got, err := store.GetChunk(ctx, bare.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Embedding)
}

func testListDocuments(t *testing.T, newStore Factory) {
	store := newStore(t)
	ctx := context.Background()

	older := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	newer := older.Add(time.Hour)

	require.NoError(t, store.SaveChunk(ctx, makeChunk("olddoc000000", 0, older)))
	require.NoError(t, store.SaveChunk(ctx, makeChunk("olddoc000000", 1, older)))
	require.NoError(t, store.SaveChunk(ctx, makeChunk("newdoc000000", 0, newer)))

	docs, err := store.ListDocuments(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 2)

	assert.Equal(t, "https://example.com/newdoc000000", docs[0].URL, "most recent first")
	assert.Equal(t, 1, docs[0].ChunkCount)
	assert.Equal(t, 100, docs[0].ContentLength)
	assert.Equal(t, "test", docs[0].Source)

	assert.Equal(t, "https://example.com/olddoc000000", docs[1].URL)
	assert.Equal(t, 2, docs[1].ChunkCount)
}

func testStats(t *testing.T, newStore Factory) {
	store := newStore(t)
	ctx := context.Background()

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, stats.DocumentCount)
	assert.Equal(t, 0, stats.ChunkCount)

	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, store.SaveChunk(ctx, makeChunk("abc123def456", 0, ts)))
	require.NoError(t, store.SaveChunk(ctx, makeChunk("abc123def456", 1, ts)))

	stats, err = store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.DocumentCount)
	assert.Equal(t, 2, stats.ChunkCount)
	assert.Greater(t, stats.VectorBytes, int64(0))
	assert.NotEmpty(t, stats.Path)
}
