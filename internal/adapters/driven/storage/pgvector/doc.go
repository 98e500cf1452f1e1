// Package pgvector provides a PostgreSQL chunk store with native
// vector columns. Unlike the sqlite backend, vectors live in the
// database itself, and similarity search is pushed down to the server
// using the cosine distance operator with an ivfflat index, so the
// full chunk set never crosses the wire.
//
// The schema is created on first open. The embedding dimension is
// fixed by the vector column type and recorded in system_config;
// reopening with a different dimension fails rather than silently
// rebuilding the table.
package pgvector
