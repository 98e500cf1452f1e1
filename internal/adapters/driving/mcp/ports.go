package mcp

import (
	"github.com/berrydev-ai/berry-rag/internal/core/ports/driving"
)

// Ports aggregates the driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// RAG provides ingestion and retrieval capabilities.
	RAG driving.RAGService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.RAG == nil {
		return ErrMissingRAGService
	}
	return nil
}
