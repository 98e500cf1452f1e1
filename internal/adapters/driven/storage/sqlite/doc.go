// Package sqlite provides the file-plus-relational chunk store.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation
// that requires no CGO, enabling easy cross-compilation. Chunk metadata
// lives in a relational table; each chunk's vector is written to its
// own blob file under vectors/, keyed by the chunk id.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in
// the migrations/ directory and applied at open.
//
// # Data Location
//
// By default, the store lives at ~/.berryrag/storage/ with metadata.db
// and a vectors/ directory inside it.
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking
// provided by SQLite in WAL mode; vector files are written whole and
// never mutated in place.
package sqlite
