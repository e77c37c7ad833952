package hash

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbedBatchDeterministic(t *testing.T) {
	e := NewEmbedder(64)
	ctx := context.Background()

	a, err := e.EmbedBatch(ctx, []string{"the quick brown fox"})
	require.NoError(t, err)
	b, err := e.EmbedBatch(ctx, []string{"the quick brown fox"})
	require.NoError(t, err)

	require.Len(t, a, 1)
	assert.Len(t, a[0], 64)
	assert.Equal(t, a, b)
}

func TestEmbedBatchNormalized(t *testing.T) {
	e := NewEmbedder(32)
	vectors, err := e.EmbedBatch(context.Background(), []string{"some text with words"})
	require.NoError(t, err)

	var norm float64
	for _, x := range vectors[0] {
		norm += x * x
	}
	assert.InDelta(t, 1, math.Sqrt(norm), 1e-9)
}

func TestEmbedBatchCaseInsensitive(t *testing.T) {
	e := NewEmbedder(32)
	vectors, err := e.EmbedBatch(context.Background(), []string{"Hello World", "hello world"})
	require.NoError(t, err)
	assert.Equal(t, vectors[0], vectors[1])
}

func TestSimilarTextsAreCloser(t *testing.T) {
	e := NewEmbedder(256)
	vectors, err := e.EmbedBatch(context.Background(), []string{
		"the capital of france is paris",
		"paris is the capital of france",
		"quantum chromodynamics lattice gauge",
	})
	require.NoError(t, err)

	same := dot(vectors[0], vectors[1])
	other := dot(vectors[0], vectors[2])
	assert.Greater(t, same, other)
}

func TestEmbedNoTokens(t *testing.T) {
	e := NewEmbedder(16)
	vectors, err := e.EmbedBatch(context.Background(), []string{"!!! ---"})
	require.NoError(t, err)
	require.Len(t, vectors, 1)
	assert.Len(t, vectors[0], 16)
}

func TestDefaultDimension(t *testing.T) {
	e := NewEmbedder(0)
	vectors, err := e.EmbedBatch(context.Background(), []string{"x"})
	require.NoError(t, err)
	assert.Len(t, vectors[0], defaultDimension)
}

func dot(a, b []float64) float64 {
	var s float64
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}
