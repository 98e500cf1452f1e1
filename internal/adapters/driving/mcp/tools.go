package mcp

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/berrydev-ai/berry-rag/internal/core/ports/driving"
)

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Query     string  `json:"query" jsonschema:"the search query to match against stored chunks"`
	TopK      int     `json:"top_k,omitempty" jsonschema:"maximum number of results to return (default 5)"`
	Threshold float64 `json:"threshold,omitempty" jsonschema:"minimum cosine similarity in [0,1] (default 0.1)"`
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	Results []SearchResultOutput `json:"results"`
	Count   int                  `json:"count"`
}

// SearchResultOutput represents a single search result.
type SearchResultOutput struct {
	ChunkID    string  `json:"chunk_id"`
	DocID      string  `json:"doc_id"`
	Title      string  `json:"title"`
	URL        string  `json:"url"`
	Similarity float64 `json:"similarity"`
	Content    string  `json:"content"`
}

// AddDocumentInput is the input schema for the add_document tool.
type AddDocumentInput struct {
	URL      string         `json:"url" jsonschema:"provenance URL of the document"`
	Title    string         `json:"title,omitempty" jsonschema:"document title"`
	Content  string         `json:"content" jsonschema:"full document text to ingest"`
	Metadata map[string]any `json:"metadata,omitempty" jsonschema:"opaque caller metadata carried with every chunk"`
}

// AddDocumentOutput is the output schema for the add_document tool.
type AddDocumentOutput struct {
	DocID string `json:"doc_id"`
}

// GetContextInput is the input schema for the get_context tool.
type GetContextInput struct {
	Query    string `json:"query" jsonschema:"the query to gather context for"`
	MaxChars int    `json:"max_chars,omitempty" jsonschema:"character budget for the formatted context (default 4000)"`
}

// GetContextOutput is the output schema for the get_context tool.
type GetContextOutput struct {
	Context string `json:"context"`
}

// ListDocumentsOutput is the output schema for the list_documents tool.
type ListDocumentsOutput struct {
	Documents []DocumentOutput `json:"documents"`
	Count     int              `json:"count"`
}

// DocumentOutput represents a single document summary.
type DocumentOutput struct {
	URL           string `json:"url"`
	Title         string `json:"title"`
	Timestamp     string `json:"timestamp"`
	ChunkCount    int    `json:"chunk_count"`
	ContentLength int    `json:"content_length"`
	Source        string `json:"source"`
}

// GetStatsOutput is the output schema for the get_stats tool.
type GetStatsOutput struct {
	DocumentCount     int    `json:"document_count"`
	ChunkCount        int    `json:"chunk_count"`
	EmbeddingProvider string `json:"embedding_provider"`
	EmbeddingDim      int    `json:"embedding_dimension"`
	TotalBytes        int64  `json:"total_bytes"`
	StoragePath       string `json:"storage_path"`
}

// emptyInput is used by tools that take no arguments.
type emptyInput struct{}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search",
		Description: "Search stored documents by semantic similarity",
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "add_document",
		Description: "Chunk, embed and store a document in the vector database",
	}, s.handleAddDocument)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_context",
		Description: "Build a character-bounded context block of the best matches for a query",
	}, s.handleGetContext)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_documents",
		Description: "List all stored documents",
	}, s.handleListDocuments)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_stats",
		Description: "Report document counts, the active embedding provider and storage size",
	}, s.handleGetStats)
}

// handleSearch handles the search tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	opts := driving.SearchOptions{
		TopK:      input.TopK,
		Threshold: input.Threshold,
	}

	results, err := s.ports.RAG.Search(ctx, input.Query, opts)
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{
		Results: make([]SearchResultOutput, len(results)),
		Count:   len(results),
	}
	for i := range results {
		output.Results[i] = SearchResultOutput{
			ChunkID:    results[i].Chunk.ID,
			DocID:      results[i].Chunk.DocID,
			Title:      results[i].Chunk.Title,
			URL:        results[i].Chunk.URL,
			Similarity: results[i].Similarity,
			Content:    results[i].Chunk.Content,
		}
	}

	return nil, output, nil
}

// handleAddDocument handles the add_document tool invocation.
func (s *Server) handleAddDocument(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AddDocumentInput,
) (*mcp.CallToolResult, AddDocumentOutput, error) {
	docID, err := s.ports.RAG.AddDocument(ctx, input.URL, input.Title, input.Content, input.Metadata)
	if err != nil {
		return nil, AddDocumentOutput{}, err
	}
	return nil, AddDocumentOutput{DocID: docID}, nil
}

// handleGetContext handles the get_context tool invocation.
func (s *Server) handleGetContext(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GetContextInput,
) (*mcp.CallToolResult, GetContextOutput, error) {
	block, err := s.ports.RAG.ContextForQuery(ctx, input.Query, input.MaxChars)
	if err != nil {
		return nil, GetContextOutput{}, err
	}
	return nil, GetContextOutput{Context: block}, nil
}

// handleListDocuments handles the list_documents tool invocation.
func (s *Server) handleListDocuments(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ emptyInput,
) (*mcp.CallToolResult, ListDocumentsOutput, error) {
	docs, err := s.ports.RAG.ListDocuments(ctx)
	if err != nil {
		return nil, ListDocumentsOutput{}, err
	}

	output := ListDocumentsOutput{
		Documents: make([]DocumentOutput, len(docs)),
		Count:     len(docs),
	}
	for i, doc := range docs {
		output.Documents[i] = DocumentOutput{
			URL:           doc.URL,
			Title:         doc.Title,
			Timestamp:     doc.Timestamp.Format(time.RFC3339),
			ChunkCount:    doc.ChunkCount,
			ContentLength: doc.ContentLength,
			Source:        doc.Source,
		}
	}

	return nil, output, nil
}

// handleGetStats handles the get_stats tool invocation.
func (s *Server) handleGetStats(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ emptyInput,
) (*mcp.CallToolResult, GetStatsOutput, error) {
	stats, err := s.ports.RAG.Stats(ctx)
	if err != nil {
		return nil, GetStatsOutput{}, err
	}

	return nil, GetStatsOutput{
		DocumentCount:     stats.DocumentCount,
		ChunkCount:        stats.ChunkCount,
		EmbeddingProvider: stats.EmbeddingProvider,
		EmbeddingDim:      stats.EmbeddingDim,
		TotalBytes:        stats.TotalBytes,
		StoragePath:       stats.StoragePath,
	}, nil
}
