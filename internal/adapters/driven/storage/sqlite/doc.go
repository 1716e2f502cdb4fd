// Package sqlite provides a SQLite-based implementation of the conversation
// store and the recipe vector index.
//
// This adapter uses modernc.org/sqlite, a pure Go SQLite implementation that
// requires no CGO. Both stores share one database connection:
//
//   - ConversationStore: conversations, turns and recipe suggestions
//   - VectorIndex: recipe embeddings with brute-force cosine search
//
// # Schema
//
// The schema is managed through versioned migrations in the migrations/
// directory. Applied versions are recorded in schema_migrations.
//
// # Data Location
//
// By default, the database is stored at ~/.nutrigenie/data/nutrigenie.db
//
// # Thread Safety
//
// All operations are safe for concurrent use. The store relies on SQLite's
// WAL mode for locking.
package sqlite
