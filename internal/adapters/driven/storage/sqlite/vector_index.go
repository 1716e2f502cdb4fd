package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/nutrigenie/nutrigenie-cli/internal/adapters/driven/storage/scoring"
	"github.com/nutrigenie/nutrigenie-cli/internal/core/domain"
	"github.com/nutrigenie/nutrigenie-cli/internal/core/ports/driven"
)

// Ensure VectorIndex implements the interface.
var _ driven.VectorIndex = (*VectorIndex)(nil)

// VectorIndex stores recipe embeddings in SQLite and answers queries by
// brute-force cosine similarity over an in-memory snapshot of the table.
type VectorIndex struct {
	store *Store
	sig   domain.IndexSignature

	mu      sync.RWMutex
	entries []domain.VectorIndexEntry
	loaded  bool
}

// VectorIndex opens the index for embeddings of the given signature.
// An empty index adopts sig. A populated index built by another embedder
// returns domain.ErrIndexSignatureMismatch.
func (s *Store) VectorIndex(ctx context.Context, sig domain.IndexSignature) (*VectorIndex, error) {
	if sig.Dimensions <= 0 {
		return nil, fmt.Errorf("%w: index dimensions must be positive", domain.ErrInvalidInput)
	}

	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var stored domain.IndexSignature
		err := tx.QueryRowContext(ctx, "SELECT model, dimensions FROM vector_meta WHERE id = 1").
			Scan(&stored.Model, &stored.Dimensions)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			_, err = tx.ExecContext(ctx,
				"INSERT INTO vector_meta (id, model, dimensions) VALUES (1, ?, ?)", sig.Model, sig.Dimensions)
			return err
		case err != nil:
			return fmt.Errorf("read index signature: %w", err)
		}

		if stored.Check(sig) == nil {
			return nil
		}

		var count int
		if err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM vector_entries").Scan(&count); err != nil {
			return fmt.Errorf("count vector entries: %w", err)
		}
		if count > 0 {
			return stored.Check(sig)
		}
		_, err = tx.ExecContext(ctx,
			"UPDATE vector_meta SET model = ?, dimensions = ? WHERE id = 1", sig.Model, sig.Dimensions)
		return err
	})
	if err != nil {
		return nil, err
	}

	return &VectorIndex{store: s, sig: sig}, nil
}

// Count returns the number of stored entries.
func (v *VectorIndex) Count(ctx context.Context) (int, error) {
	var count int
	if err := v.store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM vector_entries").Scan(&count); err != nil {
		return 0, fmt.Errorf("count vector entries: %w", err)
	}
	return count, nil
}

// Populate inserts all entries in one transaction.
func (v *VectorIndex) Populate(ctx context.Context, entries []domain.VectorIndexEntry) error {
	if err := scoring.CheckEntries(v.sig, entries); err != nil {
		return err
	}

	err := v.store.withTx(ctx, func(tx *sql.Tx) error {
		var next int
		if err := tx.QueryRowContext(ctx, "SELECT COALESCE(MAX(position), -1) + 1 FROM vector_entries").Scan(&next); err != nil {
			return fmt.Errorf("read next position: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx,
			"INSERT INTO vector_entries (id, position, embedding, document) VALUES (?, ?, ?, ?)")
		if err != nil {
			return fmt.Errorf("prepare insert: %w", err)
		}
		defer stmt.Close()

		for i, e := range entries {
			doc, err := json.Marshal(e.Document)
			if err != nil {
				return fmt.Errorf("marshal document %q: %w", e.ID, err)
			}
			if _, err := stmt.ExecContext(ctx, e.ID, next+i, float32SliceToBytes(e.Embedding), string(doc)); err != nil {
				return fmt.Errorf("insert vector entry %q: %w", e.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	v.mu.Lock()
	v.entries, v.loaded = nil, false
	v.mu.Unlock()
	return nil
}

// Query returns up to topK entries, most similar first.
func (v *VectorIndex) Query(ctx context.Context, embedding []float32, topK int) ([]domain.VectorHit, error) {
	if len(embedding) != v.sig.Dimensions {
		return nil, fmt.Errorf("%w: query has %d dimensions, index %s", domain.ErrInvalidInput, len(embedding), v.sig)
	}
	entries, err := v.snapshot(ctx)
	if err != nil {
		return nil, err
	}
	return scoring.TopK(entries, embedding, topK), nil
}

// Signature returns the embedder signature of the index.
func (v *VectorIndex) Signature() domain.IndexSignature {
	return v.sig
}

// Close drops the in-memory snapshot. The database is owned by the Store.
func (v *VectorIndex) Close() error {
	v.mu.Lock()
	v.entries, v.loaded = nil, false
	v.mu.Unlock()
	return nil
}

func (v *VectorIndex) snapshot(ctx context.Context) ([]domain.VectorIndexEntry, error) {
	v.mu.RLock()
	if v.loaded {
		entries := v.entries
		v.mu.RUnlock()
		return entries, nil
	}
	v.mu.RUnlock()

	rows, err := v.store.db.QueryContext(ctx, "SELECT id, embedding, document FROM vector_entries ORDER BY position")
	if err != nil {
		return nil, fmt.Errorf("load vector entries: %w", err)
	}
	defer rows.Close()

	var entries []domain.VectorIndexEntry
	for rows.Next() {
		var (
			e    domain.VectorIndexEntry
			blob []byte
			doc  string
		)
		if err := rows.Scan(&e.ID, &blob, &doc); err != nil {
			return nil, fmt.Errorf("scan vector entry: %w", err)
		}
		if err := json.Unmarshal([]byte(doc), &e.Document); err != nil {
			return nil, fmt.Errorf("decode document %q: %w", e.ID, err)
		}
		e.Embedding = bytesToFloat32Slice(blob)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	v.mu.Lock()
	v.entries, v.loaded = entries, true
	v.mu.Unlock()
	return entries, nil
}
