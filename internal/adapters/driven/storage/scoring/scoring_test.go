package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nutrigenie/nutrigenie-cli/internal/core/domain"
)

func entry(id string, v ...float32) domain.VectorIndexEntry {
	return domain.VectorIndexEntry{ID: id, Embedding: v, Document: domain.ReferenceDocument{ID: id, Title: id}}
}

func TestCosine(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 2, 3}, []float32{1, 2, 3}, 1},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"scale invariant", []float32{1, 1}, []float32{5, 5}, 1},
		{"zero vector", []float32{0, 0}, []float32{1, 1}, 0},
		{"length mismatch", []float32{1}, []float32{1, 1}, 0},
		{"empty", nil, nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Cosine(tt.a, tt.b), 1e-9)
		})
	}
}

func TestTopK_OrdersByScore(t *testing.T) {
	entries := []domain.VectorIndexEntry{
		entry("far", 0, 1),
		entry("near", 1, 0.1),
		entry("mid", 1, 1),
	}

	hits := TopK(entries, []float32{1, 0}, 3)

	require.Len(t, hits, 3)
	assert.Equal(t, "near", hits[0].Entry.ID)
	assert.Equal(t, "mid", hits[1].Entry.ID)
	assert.Equal(t, "far", hits[2].Entry.ID)
	for i := 1; i < len(hits); i++ {
		assert.GreaterOrEqual(t, hits[i-1].Score, hits[i].Score)
	}
}

func TestTopK_Limits(t *testing.T) {
	entries := []domain.VectorIndexEntry{entry("a", 1, 0), entry("b", 0, 1)}

	assert.Len(t, TopK(entries, []float32{1, 0}, 1), 1)
	assert.Len(t, TopK(entries, []float32{1, 0}, 10), 2)

	empty := TopK(nil, []float32{1, 0}, 3)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	assert.Empty(t, TopK(entries, []float32{1, 0}, 0))
}

func TestTopK_PrefixProperty(t *testing.T) {
	entries := []domain.VectorIndexEntry{
		entry("a", 1, 0), entry("b", 0.8, 0.2), entry("c", 0.5, 0.5), entry("d", 0, 1),
	}
	query := []float32{0.9, 0.1}

	small := TopK(entries, query, 2)
	large := TopK(entries, query, 4)

	for i := range small {
		assert.Equal(t, small[i].Entry.ID, large[i].Entry.ID)
	}
}

func TestCheckEntries(t *testing.T) {
	sig := domain.IndexSignature{Model: "m", Dimensions: 2}

	assert.NoError(t, CheckEntries(sig, []domain.VectorIndexEntry{entry("a", 1, 0)}))

	err := CheckEntries(sig, []domain.VectorIndexEntry{entry("a", 1, 0, 0)})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	err = CheckEntries(sig, []domain.VectorIndexEntry{entry("a", 1, 0), entry("a", 0, 1)})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	err = CheckEntries(sig, []domain.VectorIndexEntry{entry("", 1, 0)})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
