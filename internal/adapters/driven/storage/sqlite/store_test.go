package sqlite

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/berrydev-ai/berry-rag/internal/adapters/driven/storage/storetest"
	"github.com/berrydev-ai/berry-rag/internal/core/domain"
	"github.com/berrydev-ai/berry-rag/internal/core/ports/driven"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir(), 4)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStore_Contract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) driven.ChunkStore {
		return newTestStore(t)
	})
}

func TestStore_CreatesLayout(t *testing.T) {
	dir := t.TempDir()
	store, err := NewStore(dir, 4)
	require.NoError(t, err)
	defer store.Close()

	_, err = os.Stat(filepath.Join(dir, "metadata.db"))
	assert.NoError(t, err, "metadata database should exist")

	info, err := os.Stat(filepath.Join(dir, "vectors"))
	require.NoError(t, err)
	assert.True(t, info.IsDir(), "vectors directory should exist")

	assert.Equal(t, dir, store.Path())
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := NewStore(dir, 3)
	require.NoError(t, err)

	chunk := &domain.Chunk{
		ID:          "abc123def456_0",
		DocID:       "abc123def456",
		URL:         "https://example.com/doc",
		Title:       "Doc",
		Content:     "persisted content",
		Timestamp:   time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		ContentHash: "hash",
		Embedding:   []float32{0.5, -0.25, 1.0},
	}
	require.NoError(t, store.SaveChunk(ctx, chunk))
	require.NoError(t, store.Close())

	reopened, err := NewStore(dir, 3)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.GetChunk(ctx, chunk.ID)
	require.NoError(t, err)
	assert.Equal(t, "persisted content", got.Content)
	assert.Equal(t, []float32{0.5, -0.25, 1.0}, got.Embedding)
}

func TestStore_DimensionMismatchOnReopen(t *testing.T) {
	dir := t.TempDir()

	store, err := NewStore(dir, 384)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	_, err = NewStore(dir, 1536)
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)

	// Same dimension reopens cleanly.
	again, err := NewStore(dir, 384)
	require.NoError(t, err)
	again.Close()
}

func TestStore_ScanSkipsCorruptVector(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := NewStore(dir, 4)
	require.NoError(t, err)
	defer store.Close()

	ts := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	good := &domain.Chunk{
		ID: "abc123def456_0", DocID: "abc123def456",
		URL: "https://example.com/doc", Content: "good",
		Timestamp: ts, ContentHash: "h",
		Embedding: []float32{1, 2, 3, 4},
	}
	bad := &domain.Chunk{
		ID: "abc123def456_1", DocID: "abc123def456", Index: 1,
		URL: "https://example.com/doc", Content: "bad",
		Timestamp: ts, ContentHash: "h",
		Embedding: []float32{1, 2, 3, 4},
	}
	require.NoError(t, store.SaveChunk(ctx, good))
	require.NoError(t, store.SaveChunk(ctx, bad))

	// Truncate the second vector blob to a non-multiple of 4 bytes.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "vectors", bad.ID+".vec"), []byte{1, 2, 3}, 0600))

	chunks, err := store.Scan(ctx)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, good.ID, chunks[0].ID)
}

func TestStore_MalformedMetadataScansAsEmpty(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := NewStore(dir, 4)
	require.NoError(t, err)
	defer store.Close()

	chunk := &domain.Chunk{
		ID: "abc123def456_0", DocID: "abc123def456",
		URL: "https://example.com/doc", Content: "text",
		Timestamp:   time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		ContentHash: "h",
		Embedding:   []float32{1, 2, 3, 4},
		Metadata:    map[string]any{"source": "test"},
	}
	require.NoError(t, store.SaveChunk(ctx, chunk))

	// Corrupt the stored metadata column directly.
	_, err = store.db.Exec("UPDATE chunks SET metadata = ? WHERE id = ?", "{not json", chunk.ID)
	require.NoError(t, err)

	got, err := store.GetChunk(ctx, chunk.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Metadata)

	chunks, err := store.Scan(ctx)
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Empty(t, chunks[0].Metadata)
}

func TestStore_UpsertRemovesStaleVector(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	store, err := NewStore(dir, 4)
	require.NoError(t, err)
	defer store.Close()

	chunk := &domain.Chunk{
		ID: "abc123def456_0", DocID: "abc123def456",
		URL: "https://example.com/doc", Content: "text",
		Timestamp:   time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
		ContentHash: "h",
		Embedding:   []float32{1, 2, 3, 4},
	}
	require.NoError(t, store.SaveChunk(ctx, chunk))

	chunk.Embedding = nil
	require.NoError(t, store.SaveChunk(ctx, chunk))

	_, err = os.Stat(filepath.Join(dir, "vectors", chunk.ID+".vec"))
	assert.True(t, os.IsNotExist(err), "stale vector blob should be removed")

	got, err := store.GetChunk(ctx, chunk.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Embedding)
}

func TestFloat32SliceRoundTrip(t *testing.T) {
	original := []float32{0.0, 1.5, -2.25, 3.14159}

	bytes := float32SliceToBytes(original)
	assert.Len(t, bytes, len(original)*4)

	restored := bytesToFloat32Slice(bytes)
	assert.Equal(t, original, restored)

	assert.Nil(t, float32SliceToBytes(nil))
	assert.Nil(t, bytesToFloat32Slice(nil))
}
