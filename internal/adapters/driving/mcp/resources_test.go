package mcp

import (
	"context"
	"encoding/json"
	"testing"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/berrydev-ai/berry-rag/internal/core/domain"
)

func readRequest(uri string) *mcpsdk.ReadResourceRequest {
	return &mcpsdk.ReadResourceRequest{
		Params: &mcpsdk.ReadResourceParams{URI: uri},
	}
}

func TestServer_handleStatsResource(t *testing.T) {
	mock := &mockRAGService{
		stats: domain.Stats{
			DocumentCount:     1,
			ChunkCount:        4,
			EmbeddingProvider: "simple",
			EmbeddingDim:      128,
		},
	}
	server := newServerWithMock(t, mock)

	result, err := server.handleStatsResource(context.Background(), readRequest(uriScheme+"stats"))
	require.NoError(t, err)
	require.Len(t, result.Contents, 1)
	assert.Equal(t, "application/json", result.Contents[0].MIMEType)

	var stats map[string]any
	require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &stats))
	assert.Equal(t, float64(4), stats["chunk_count"])
	assert.Equal(t, "simple", stats["embedding_provider"])
}

func TestServer_handleDocumentsResource(t *testing.T) {
	mock := &mockRAGService{
		documents: []domain.DocumentSummary{
			{URL: "https://example.com/doc", Title: "Doc", ChunkCount: 2},
		},
	}
	server := newServerWithMock(t, mock)

	result, err := server.handleDocumentsResource(context.Background(), readRequest(uriScheme+"documents"))
	require.NoError(t, err)
	require.Len(t, result.Contents, 1)

	var docs []map[string]any
	require.NoError(t, json.Unmarshal([]byte(result.Contents[0].Text), &docs))
	require.Len(t, docs, 1)
	assert.Equal(t, "https://example.com/doc", docs[0]["url"])
}
