package embed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode_IsDeterministic(t *testing.T) {
	e := New()
	ctx := context.Background()

	v1, err := e.Encode(ctx, []string{"golang concurrency patterns"})
	require.NoError(t, err)
	v2, err := e.Encode(ctx, []string{"golang concurrency patterns"})
	require.NoError(t, err)

	assert.Equal(t, v1, v2)
}

func TestEncode_ReturnsOneVectorPerInput(t *testing.T) {
	e := New()
	vecs, err := e.Encode(context.Background(), []string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Len(t, vecs, 3)
	for _, v := range vecs {
		assert.Len(t, v, dimensions)
	}
}

func TestSimilarity_IdenticalTextIsOne(t *testing.T) {
	e := New()
	vecs, err := e.Encode(context.Background(), []string{"kubernetes operators"})
	require.NoError(t, err)

	sim := e.Similarity(vecs[0], vecs[0])
	assert.InDelta(t, 1.0, sim, 1e-9)
}

func TestSimilarity_UnrelatedTextScoresLower(t *testing.T) {
	e := New()
	vecs, err := e.Encode(context.Background(), []string{
		"golang concurrency goroutines channels",
		"baking sourdough bread recipe",
	})
	require.NoError(t, err)

	same, err := e.Encode(context.Background(), []string{"golang concurrency goroutines channels patterns"})
	require.NoError(t, err)

	simRelated := e.Similarity(vecs[0], same[0])
	simUnrelated := e.Similarity(vecs[1], same[0])
	assert.Greater(t, simRelated, simUnrelated)
}

func TestSimilarity_MismatchedLengthOrEmptyReturnsZero(t *testing.T) {
	e := New()
	assert.Equal(t, 0.0, e.Similarity(nil, nil))
	assert.Equal(t, 0.0, e.Similarity([]float64{1, 2}, []float64{1, 2, 3}))
}

func TestSimilarity_AllZeroVectorReturnsZero(t *testing.T) {
	e := New()
	zero := make([]float64, dimensions)
	vecs, err := e.Encode(context.Background(), []string{"something"})
	require.NoError(t, err)
	assert.Equal(t, 0.0, e.Similarity(zero, vecs[0]))
}
