package embedcache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type countingEmbedder struct {
	calls int
}

func (c *countingEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	c.calls++
	return []float32{float32(len(text)), float32(c.calls)}, nil
}

func (c *countingEmbedder) ModelName() string { return "counting" }

func TestLRUCacheHit(t *testing.T) {
	inner := &countingEmbedder{}
	e := WithLRU(inner, 16, time.Minute)

	first, err := e.Embed(context.Background(), "hello", "RETRIEVAL_DOCUMENT")
	require.NoError(t, err)
	second, err := e.Embed(context.Background(), "hello", "RETRIEVAL_DOCUMENT")
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 1, inner.calls)
}

func TestLRUKeySpansTaskType(t *testing.T) {
	inner := &countingEmbedder{}
	e := WithLRU(inner, 16, time.Minute)

	_, err := e.Embed(context.Background(), "hello", "RETRIEVAL_DOCUMENT")
	require.NoError(t, err)
	_, err = e.Embed(context.Background(), "hello", "RETRIEVAL_QUERY")
	require.NoError(t, err)
	require.Equal(t, 2, inner.calls)
}

func TestLRUReturnsCopies(t *testing.T) {
	inner := &countingEmbedder{}
	e := WithLRU(inner, 16, time.Minute)

	first, err := e.Embed(context.Background(), "hello", "RETRIEVAL_DOCUMENT")
	require.NoError(t, err)
	first[0] = -999
	second, err := e.Embed(context.Background(), "hello", "RETRIEVAL_DOCUMENT")
	require.NoError(t, err)
	require.NotEqual(t, float32(-999), second[0])
	require.Equal(t, 1, inner.calls)
}

func TestWithLRUDisabled(t *testing.T) {
	inner := &countingEmbedder{}
	require.Equal(t, inner, WithLRU(inner, 0, time.Minute))
	require.Equal(t, inner, WithLRU(inner, 16, 0))
}

func TestCacheKey(t *testing.T) {
	k1, hash1, model := cacheKey("m", "doc", "text")
	k2, hash2, _ := cacheKey("m", "doc", "text")
	require.Equal(t, k1, k2)
	require.Equal(t, hash1, hash2)
	require.Equal(t, "m", model)
	require.Len(t, hash1, 64)

	k3, _, _ := cacheKey("m", "query", "text")
	require.NotEqual(t, k1, k3)
	_, _, fallback := cacheKey("  ", "doc", "text")
	require.Equal(t, "unknown", fallback)
}
