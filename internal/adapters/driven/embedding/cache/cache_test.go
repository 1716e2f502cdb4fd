package cache

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingEmbedder struct {
	embedCalls int
	batchCalls int
	batchSizes []int
	err        error
	closed     bool
}

func (c *countingEmbedder) Embed(_ context.Context, text string) ([]float32, error) {
	c.embedCalls++
	if c.err != nil {
		return nil, c.err
	}
	return []float32{float32(len(text)), 1}, nil
}

func (c *countingEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	c.batchCalls++
	c.batchSizes = append(c.batchSizes, len(texts))
	if c.err != nil {
		return nil, c.err
	}
	out := make([][]float32, len(texts))
	for i, text := range texts {
		out[i] = []float32{float32(len(text)), 1}
	}
	return out, nil
}

func (c *countingEmbedder) Dimensions() int            { return 2 }
func (c *countingEmbedder) ModelName() string          { return "counting" }
func (c *countingEmbedder) Ping(context.Context) error { return nil }
func (c *countingEmbedder) Close() error {
	c.closed = true
	return nil
}

func TestNew_ZeroSizeReturnsInner(t *testing.T) {
	inner := &countingEmbedder{}

	svc, err := New(inner, 0)

	require.NoError(t, err)
	assert.Same(t, inner, svc)
}

func TestEmbed_CachesByText(t *testing.T) {
	inner := &countingEmbedder{}
	svc, err := New(inner, 8)
	require.NoError(t, err)
	ctx := context.Background()

	first, err := svc.Embed(ctx, "salade")
	require.NoError(t, err)
	second, err := svc.Embed(ctx, "salade")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, inner.embedCalls)
	assert.Equal(t, "counting", svc.ModelName())
	assert.Equal(t, 2, svc.Dimensions())
}

func TestEmbed_ReturnsCopies(t *testing.T) {
	svc, err := New(&countingEmbedder{}, 8)
	require.NoError(t, err)
	ctx := context.Background()

	first, _ := svc.Embed(ctx, "soupe")
	first[0] = 99
	second, _ := svc.Embed(ctx, "soupe")

	assert.InDelta(t, 5.0, second[0], 1e-9)
}

func TestEmbed_ErrorsAreNotCached(t *testing.T) {
	inner := &countingEmbedder{err: errors.New("offline")}
	svc, err := New(inner, 8)
	require.NoError(t, err)

	_, err = svc.Embed(context.Background(), "soupe")
	assert.EqualError(t, err, "offline")

	inner.err = nil
	_, err = svc.Embed(context.Background(), "soupe")
	assert.NoError(t, err)
	assert.Equal(t, 2, inner.embedCalls)
}

func TestEmbed_EvictsLeastRecentlyUsed(t *testing.T) {
	inner := &countingEmbedder{}
	svc, err := New(inner, 2)
	require.NoError(t, err)
	ctx := context.Background()

	_, _ = svc.Embed(ctx, "a")
	_, _ = svc.Embed(ctx, "bb")
	_, _ = svc.Embed(ctx, "a")
	_, _ = svc.Embed(ctx, "ccc")
	_, _ = svc.Embed(ctx, "a")
	_, _ = svc.Embed(ctx, "bb")

	assert.Equal(t, 4, inner.embedCalls)
	assert.Equal(t, 2, svc.(*EmbeddingService).Len())
}

func TestEmbedBatch_OnlyMissingTexts(t *testing.T) {
	inner := &countingEmbedder{}
	svc, err := New(inner, 8)
	require.NoError(t, err)
	ctx := context.Background()
	_, _ = svc.Embed(ctx, "bb")

	out, err := svc.EmbedBatch(ctx, []string{"a", "bb", "ccc"})

	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 1}, {2, 1}, {3, 1}}, out)
	assert.Equal(t, []int{2}, inner.batchSizes)

	_, err = svc.EmbedBatch(ctx, []string{"a", "ccc"})
	require.NoError(t, err)
	assert.Equal(t, 1, inner.batchCalls)
}

func TestClose_ClosesInner(t *testing.T) {
	inner := &countingEmbedder{}
	svc, err := New(inner, 8)
	require.NoError(t, err)
	_, _ = svc.Embed(context.Background(), "x")

	require.NoError(t, svc.Close())

	assert.True(t, inner.closed)
	assert.Equal(t, 0, svc.(*EmbeddingService).Len())
}
