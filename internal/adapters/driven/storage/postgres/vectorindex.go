package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/nutrigenie/nutrigenie-cli/internal/adapters/driven/storage/scoring"
	"github.com/nutrigenie/nutrigenie-cli/internal/core/domain"
	"github.com/nutrigenie/nutrigenie-cli/internal/core/ports/driven"
)

// Ensure VectorIndex implements the interface.
var _ driven.VectorIndex = (*VectorIndex)(nil)

const pingTimeout = 5 * time.Second

const schema = `
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS nutrigenie_vector_meta (
    id         INTEGER PRIMARY KEY CHECK (id = 1),
    model      TEXT NOT NULL,
    dimensions INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS nutrigenie_recipes (
    id        TEXT PRIMARY KEY,
    position  INTEGER NOT NULL,
    embedding vector NOT NULL,
    document  JSONB NOT NULL
);
`

// VectorIndex is a pgvector implementation of driven.VectorIndex.
type VectorIndex struct {
	pool *pgxpool.Pool
	sig  domain.IndexSignature
}

// Open connects to dsn, creates the schema if needed and checks the stored
// signature. An empty index adopts sig; a populated index built by another
// embedder returns domain.ErrIndexSignatureMismatch.
func Open(ctx context.Context, dsn string, sig domain.IndexSignature) (*VectorIndex, error) {
	if dsn == "" {
		return nil, fmt.Errorf("%w: no connection string", domain.ErrVectorIndexUnavailable)
	}
	if sig.Dimensions <= 0 {
		return nil, fmt.Errorf("%w: index dimensions must be positive", domain.ErrInvalidInput)
	}

	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: parse connection string: %w", domain.ErrVectorIndexUnavailable, err)
	}
	config.MaxConns = 10
	config.MaxConnLifetime = time.Hour
	config.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("%w: create connection pool: %w", domain.ErrVectorIndexUnavailable, err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: ping database: %w", domain.ErrVectorIndexUnavailable, err)
	}

	v := &VectorIndex{pool: pool, sig: sig}
	if err := v.prepare(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return v, nil
}

func (v *VectorIndex) prepare(ctx context.Context) error {
	if _, err := v.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	return pgx.BeginFunc(ctx, v.pool, func(tx pgx.Tx) error {
		var stored domain.IndexSignature
		err := tx.QueryRow(ctx,
			"SELECT model, dimensions FROM nutrigenie_vector_meta WHERE id = 1 FOR UPDATE",
		).Scan(&stored.Model, &stored.Dimensions)
		if errors.Is(err, pgx.ErrNoRows) {
			_, err = tx.Exec(ctx,
				"INSERT INTO nutrigenie_vector_meta (id, model, dimensions) VALUES (1, $1, $2)",
				v.sig.Model, v.sig.Dimensions)
			return err
		}
		if err != nil {
			return fmt.Errorf("read index signature: %w", err)
		}
		if stored.Check(v.sig) == nil {
			return nil
		}

		var count int
		if err := tx.QueryRow(ctx, "SELECT COUNT(*) FROM nutrigenie_recipes").Scan(&count); err != nil {
			return fmt.Errorf("count recipes: %w", err)
		}
		if count > 0 {
			return stored.Check(v.sig)
		}
		_, err = tx.Exec(ctx,
			"UPDATE nutrigenie_vector_meta SET model = $1, dimensions = $2 WHERE id = 1",
			v.sig.Model, v.sig.Dimensions)
		return err
	})
}

// Count returns the number of stored entries.
func (v *VectorIndex) Count(ctx context.Context) (int, error) {
	var count int
	if err := v.pool.QueryRow(ctx, "SELECT COUNT(*) FROM nutrigenie_recipes").Scan(&count); err != nil {
		return 0, fmt.Errorf("count recipes: %w", err)
	}
	return count, nil
}

// Populate inserts all entries in one transaction.
func (v *VectorIndex) Populate(ctx context.Context, entries []domain.VectorIndexEntry) error {
	if err := scoring.CheckEntries(v.sig, entries); err != nil {
		return err
	}

	return pgx.BeginFunc(ctx, v.pool, func(tx pgx.Tx) error {
		var next int
		err := tx.QueryRow(ctx, "SELECT COALESCE(MAX(position), -1) + 1 FROM nutrigenie_recipes").Scan(&next)
		if err != nil {
			return fmt.Errorf("read next position: %w", err)
		}

		batch := &pgx.Batch{}
		for i, e := range entries {
			doc, err := json.Marshal(e.Document)
			if err != nil {
				return fmt.Errorf("marshal document %q: %w", e.ID, err)
			}
			vec := pgvector.NewVector(e.Embedding)
			batch.Queue(
				`INSERT INTO nutrigenie_recipes (id, position, embedding, document)
				 VALUES ($1, $2, $3, $4)`,
				e.ID, next+i, &vec, string(doc),
			)
		}

		br := tx.SendBatch(ctx, batch)
		defer br.Close()
		for i := range entries {
			if _, err := br.Exec(); err != nil {
				return fmt.Errorf("insert recipe %q: %w", entries[i].ID, err)
			}
		}
		return br.Close()
	})
}

// Query returns up to topK entries, most similar first.
// Score is 1 minus the cosine distance computed by pgvector.
func (v *VectorIndex) Query(ctx context.Context, embedding []float32, topK int) ([]domain.VectorHit, error) {
	if len(embedding) != v.sig.Dimensions {
		return nil, fmt.Errorf("%w: query has %d dimensions, index %s", domain.ErrInvalidInput, len(embedding), v.sig)
	}
	if topK <= 0 {
		return []domain.VectorHit{}, nil
	}

	query := pgvector.NewVector(embedding)
	rows, err := v.pool.Query(ctx,
		`SELECT id, embedding, document, 1 - (embedding <=> $1) AS score
		 FROM nutrigenie_recipes
		 ORDER BY embedding <=> $1, position
		 LIMIT $2`,
		&query, topK,
	)
	if err != nil {
		return nil, fmt.Errorf("search recipes: %w", err)
	}
	defer rows.Close()

	hits := []domain.VectorHit{}
	for rows.Next() {
		var (
			hit   domain.VectorHit
			vec   pgvector.Vector
			doc   []byte
			score *float64
		)
		if err := rows.Scan(&hit.Entry.ID, &vec, &doc, &score); err != nil {
			return nil, fmt.Errorf("scan recipe: %w", err)
		}
		if err := json.Unmarshal(doc, &hit.Entry.Document); err != nil {
			return nil, fmt.Errorf("decode document %q: %w", hit.Entry.ID, err)
		}
		hit.Entry.Embedding = vec.Slice()
		// pgvector returns NULL distance for zero vectors.
		if score != nil {
			hit.Score = *score
		}
		hits = append(hits, hit)
	}
	return hits, rows.Err()
}

// Signature returns the embedder signature of the index.
func (v *VectorIndex) Signature() domain.IndexSignature {
	return v.sig
}

// Close closes the connection pool.
func (v *VectorIndex) Close() error {
	v.pool.Close()
	return nil
}
