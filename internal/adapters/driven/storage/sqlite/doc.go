// Package sqlite provides the SQLite-backed persistence collaborator.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation
// that requires no CGO, enabling easy cross-compilation. It implements
// the ChunkStore port: documents, chunks and their embeddings behind a
// single database connection. Embeddings are stored as little-endian
// float32 blobs alongside the model id that produced them, so a chunk
// holds at most one current embedding per model.
//
// # Schema
//
// The database schema is managed through versioned migrations stored in
// the migrations/ directory as .up.sql files.
//
// # Data Location
//
// By default, the database is stored at ~/.qanun/data/corpus.db
//
// # Thread Safety
//
// All operations are thread-safe. The store uses database-level locking
// provided by SQLite in WAL mode.
package sqlite
