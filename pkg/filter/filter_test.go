package filter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JyX33/agentic-technical-watch-sub000/internal/store"
)

// fakeEmbedder returns a fixed vector per text, looked up by exact string
// match, so tests can control similarity without exercising the real
// hashed-bag-of-words embedder.
type fakeEmbedder struct {
	vectors map[string][]float64
}

func (f *fakeEmbedder) Encode(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i, text := range texts {
		v, ok := f.vectors[text]
		if !ok {
			v = make([]float64, 4)
		}
		out[i] = v
	}
	return out, nil
}

func (f *fakeEmbedder) Similarity(v1, v2 []float64) float64 {
	var dot float64
	for i := range v1 {
		dot += v1[i] * v2[i]
	}
	return dot
}

func TestScore_CombinesKeywordAndSemanticWeights(t *testing.T) {
	embedder := &fakeEmbedder{vectors: map[string][]float64{
		"kubernetes": {1, 0, 0, 0},
		"relevant item kubernetes internals":   {1, 0, 0, 0},
		"irrelevant item about something else": {0, 1, 0, 0},
	}}
	scorer := NewScorer(embedder)

	items := []Item{
		{Variant: store.VariantPost, ID: 1, Title: "relevant item", Body: "kubernetes internals"},
		{Variant: store.VariantPost, ID: 2, Title: "irrelevant item", Body: "about something else"},
	}

	results, err := scorer.Score(context.Background(), items, []string{"kubernetes"}, 0.5, Weights{Keyword: 0.4, Semantic: 0.6})
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.True(t, results[0].IsRelevant)
	assert.Greater(t, results[0].CombinedScore, results[1].CombinedScore)
	assert.False(t, results[1].IsRelevant)
}

func TestScore_NoTopicsYieldsZeroKeywordScore(t *testing.T) {
	embedder := &fakeEmbedder{}
	scorer := NewScorer(embedder)

	results, err := scorer.Score(context.Background(), []Item{{ID: 1, Title: "x", Body: "y"}}, nil, 0.1, DefaultWeights())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 0.0, results[0].KeywordScore)
}

func TestScore_CachesEmbeddingsByContentHash(t *testing.T) {
	calls := 0
	embedder := &countingEmbedder{fakeEmbedder: &fakeEmbedder{vectors: map[string][]float64{}}, calls: &calls}
	scorer := NewScorer(embedder)

	items := []Item{
		{ID: 1, Title: "same", Body: "text"},
		{ID: 2, Title: "same", Body: "text"},
	}
	_, err := scorer.Score(context.Background(), items, []string{"topic"}, 0.5, DefaultWeights())
	require.NoError(t, err)

	// One embed call for the topic, one for the shared item text (cached on
	// the second item), so exactly 2 Encode calls total.
	assert.Equal(t, 2, calls)
}

type countingEmbedder struct {
	*fakeEmbedder
	calls *int
}

func (c *countingEmbedder) Encode(ctx context.Context, texts []string) ([][]float64, error) {
	*c.calls++
	return c.fakeEmbedder.Encode(ctx, texts)
}

func TestDefaultWeights(t *testing.T) {
	w := DefaultWeights()
	assert.Equal(t, 0.4, w.Keyword)
	assert.Equal(t, 0.6, w.Semantic)
}
