// Package mcp provides an MCP (Model Context Protocol) server adapter
// for BerryRAG. It enables AI assistants like Claude to ingest and
// retrieve documents from the local vector store.
package mcp

import "errors"

// ErrMissingRAGService is returned when the retrieval service is not provided.
var ErrMissingRAGService = errors.New("mcp: rag service is required")
