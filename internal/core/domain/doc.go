// Package domain defines the core business entities for BerryRAG.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Chunk: A stored slice of an ingested document with its embedding
//   - QueryResult: A ranked similarity match
//   - DocumentSummary: One aggregate row per ingested document
//   - Stats: Storage and provider statistics
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
