// Package postgres provides a PostgreSQL vector index backed by the pgvector
// extension. Similarity search runs in the database using the cosine
// distance operator (<=>).
//
// The schema is created on first use:
//
//   - nutrigenie_vector_meta: the embedder signature the index was built with
//   - nutrigenie_recipes: one row per recipe with its embedding and document
package postgres
