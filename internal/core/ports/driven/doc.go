// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - ChunkStore: Chunk and vector persistence. Both backends (SQLite
//     with per-chunk vector blobs, PostgreSQL with a native vector
//     column) expose identical observable behaviour.
//   - EmbeddingService: Generates vector embeddings. The auto provider
//     chain guarantees some embedding is always produced, so this is
//     never nil in a wired engine.
//
// # Optional Interfaces
//
//   - SimilaritySearcher: Implemented by stores that can push ranking
//     down to the backend. When absent, the engine ranks a full scan
//     in process.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
