package mcp

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/berrydev-ai/berry-rag/internal/core/domain"
)

func newServerWithMock(t *testing.T, mock *mockRAGService) *Server {
	t.Helper()
	server, err := NewServer(&Ports{RAG: mock})
	require.NoError(t, err)
	return server
}

func TestServer_handleSearch(t *testing.T) {
	ctx := context.Background()

	t.Run("returns search results", func(t *testing.T) {
		mock := &mockRAGService{
			results: []domain.QueryResult{
				{
					Chunk: domain.Chunk{
						ID:      "abc123def456_0",
						DocID:   "abc123def456",
						Title:   "Test Doc",
						URL:     "https://example.com/doc",
						Content: "This is the content",
					},
					Similarity: 0.95,
				},
			},
		}
		server := newServerWithMock(t, mock)

		input := SearchInput{Query: "test", TopK: 3, Threshold: 0.5}
		_, output, err := server.handleSearch(ctx, nil, input)

		require.NoError(t, err)
		assert.Equal(t, 1, output.Count)
		require.Len(t, output.Results, 1)
		assert.Equal(t, "abc123def456_0", output.Results[0].ChunkID)
		assert.Equal(t, "abc123def456", output.Results[0].DocID)
		assert.Equal(t, "Test Doc", output.Results[0].Title)
		assert.Equal(t, "https://example.com/doc", output.Results[0].URL)
		assert.Equal(t, 0.95, output.Results[0].Similarity)
		assert.Equal(t, "This is the content", output.Results[0].Content)

		// Options pass through untouched; the engine applies defaults.
		assert.Equal(t, 3, mock.lastOpts.TopK)
		assert.Equal(t, 0.5, mock.lastOpts.Threshold)
	})

	t.Run("returns error on search failure", func(t *testing.T) {
		mock := &mockRAGService{err: errors.New("search failed")}
		server := newServerWithMock(t, mock)

		_, _, err := server.handleSearch(ctx, nil, SearchInput{Query: "test"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "search failed")
	})
}

func TestServer_handleAddDocument(t *testing.T) {
	ctx := context.Background()

	t.Run("returns doc id", func(t *testing.T) {
		mock := &mockRAGService{docID: "abc123def456"}
		server := newServerWithMock(t, mock)

		input := AddDocumentInput{
			URL:     "https://example.com/doc",
			Title:   "Doc",
			Content: "hello world",
		}
		_, output, err := server.handleAddDocument(ctx, nil, input)

		require.NoError(t, err)
		assert.Equal(t, "abc123def456", output.DocID)
	})

	t.Run("returns error on ingestion failure", func(t *testing.T) {
		mock := &mockRAGService{err: domain.ErrEmptyContent}
		server := newServerWithMock(t, mock)

		_, _, err := server.handleAddDocument(ctx, nil, AddDocumentInput{URL: "https://example.com/doc"})
		assert.ErrorIs(t, err, domain.ErrEmptyContent)
	})
}

func TestServer_handleGetContext(t *testing.T) {
	ctx := context.Background()

	mock := &mockRAGService{context: "🔍 Context for query: 'test'\n"}
	server := newServerWithMock(t, mock)

	_, output, err := server.handleGetContext(ctx, nil, GetContextInput{Query: "test"})
	require.NoError(t, err)
	assert.Contains(t, output.Context, "Context for query")
}

func TestServer_handleListDocuments(t *testing.T) {
	ctx := context.Background()

	mock := &mockRAGService{
		documents: []domain.DocumentSummary{
			{
				URL:           "https://example.com/doc",
				Title:         "Doc",
				Timestamp:     time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
				ChunkCount:    3,
				ContentLength: 1200,
				Source:        "crawler",
			},
		},
	}
	server := newServerWithMock(t, mock)

	_, output, err := server.handleListDocuments(ctx, nil, emptyInput{})
	require.NoError(t, err)
	assert.Equal(t, 1, output.Count)
	require.Len(t, output.Documents, 1)
	assert.Equal(t, "Doc", output.Documents[0].Title)
	assert.Equal(t, "2025-06-01T12:00:00Z", output.Documents[0].Timestamp)
	assert.Equal(t, 3, output.Documents[0].ChunkCount)
}

func TestServer_handleGetStats(t *testing.T) {
	ctx := context.Background()

	mock := &mockRAGService{
		stats: domain.Stats{
			DocumentCount:     2,
			ChunkCount:        7,
			EmbeddingProvider: "ollama/all-minilm",
			EmbeddingDim:      384,
			TotalBytes:        4096,
			StoragePath:       "/data/berryrag",
		},
	}
	server := newServerWithMock(t, mock)

	_, output, err := server.handleGetStats(ctx, nil, emptyInput{})
	require.NoError(t, err)
	assert.Equal(t, 2, output.DocumentCount)
	assert.Equal(t, 7, output.ChunkCount)
	assert.Equal(t, "ollama/all-minilm", output.EmbeddingProvider)
	assert.Equal(t, 384, output.EmbeddingDim)
	assert.Equal(t, int64(4096), output.TotalBytes)
}
