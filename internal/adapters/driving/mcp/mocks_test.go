package mcp

import (
	"context"

	"github.com/berrydev-ai/berry-rag/internal/core/domain"
	"github.com/berrydev-ai/berry-rag/internal/core/ports/driving"
)

// mockRAGService is a mock implementation of driving.RAGService.
type mockRAGService struct {
	docID     string
	results   []domain.QueryResult
	context   string
	documents []domain.DocumentSummary
	stats     domain.Stats
	err       error

	// lastOpts records the options of the most recent Search call.
	lastOpts driving.SearchOptions
}

func (m *mockRAGService) AddDocument(
	_ context.Context, _, _, _ string, _ map[string]any,
) (string, error) {
	return m.docID, m.err
}

func (m *mockRAGService) Search(
	_ context.Context, _ string, opts driving.SearchOptions,
) ([]domain.QueryResult, error) {
	m.lastOpts = opts
	return m.results, m.err
}

func (m *mockRAGService) ContextForQuery(
	_ context.Context, _ string, _ int,
) (string, error) {
	return m.context, m.err
}

func (m *mockRAGService) ListDocuments(_ context.Context) ([]domain.DocumentSummary, error) {
	return m.documents, m.err
}

func (m *mockRAGService) Stats(_ context.Context) (domain.Stats, error) {
	return m.stats, m.err
}
