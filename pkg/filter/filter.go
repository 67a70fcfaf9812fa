// Package filter implements the Filter agent's relevance scoring: a
// keyword match score combined with an embedding-based semantic score,
// weighted and thresholded per §4.6 step 4. The keyword/semantic blend and
// the sync.Map embedding cache are grounded on the teacher's read-mostly
// caching idiom used for tool-schema lookups in registry/manager.go,
// applied here to embedding vectors instead of schemas.
package filter

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"

	"github.com/JyX33/agentic-technical-watch-sub000/internal/store"
	"github.com/JyX33/agentic-technical-watch-sub000/pkg/a2a/external"
)

// Item is one piece of content to be scored.
type Item struct {
	Variant store.ItemVariant
	ID      int64
	Title   string
	Body    string
}

// Weights controls the keyword/semantic blend (§4.6 step 4 defaults).
type Weights struct {
	Keyword  float64
	Semantic float64
}

// DefaultWeights returns w_k=0.4, w_s=0.6.
func DefaultWeights() Weights { return Weights{Keyword: 0.4, Semantic: 0.6} }

// Result is one scored item.
type Result struct {
	Item          Item
	KeywordScore  float64
	SemanticScore float64
	CombinedScore float64
	IsRelevant    bool
}

// Scorer scores content against a set of topics.
type Scorer struct {
	embedder external.Embedder
	cache    sync.Map // input hash -> []float64
}

func NewScorer(embedder external.Embedder) *Scorer {
	return &Scorer{embedder: embedder}
}

// Score scores each item against topics, combining keyword and semantic
// scores per weights and comparing against threshold.
func (s *Scorer) Score(ctx context.Context, items []Item, topics []string, threshold float64, weights Weights) ([]Result, error) {
	topicVecs := make([][]float64, len(topics))
	for i, topic := range topics {
		vec, err := s.embed(ctx, topic)
		if err != nil {
			return nil, err
		}
		topicVecs[i] = vec
	}

	out := make([]Result, 0, len(items))
	for _, item := range items {
		text := item.Title + " " + item.Body
		kw := keywordScore(text, topics)

		itemVec, err := s.embed(ctx, text)
		if err != nil {
			return nil, err
		}
		var sem float64
		for _, tv := range topicVecs {
			if sim := s.embedder.Similarity(itemVec, tv); sim > sem {
				sem = sim
			}
		}

		combined := weights.Keyword*kw + weights.Semantic*sem
		out = append(out, Result{
			Item:          item,
			KeywordScore:  kw,
			SemanticScore: sem,
			CombinedScore: combined,
			IsRelevant:    combined >= threshold,
		})
	}
	return out, nil
}

// embed returns the cached vector for text, computing and storing it on a
// miss. The cache key is the content hash rather than the raw text to
// bound memory for very long bodies.
func (s *Scorer) embed(ctx context.Context, text string) ([]float64, error) {
	key := contentHash(text)
	if v, ok := s.cache.Load(key); ok {
		return v.([]float64), nil
	}
	vecs, err := s.embedder.Encode(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	vec := vecs[0]
	s.cache.Store(key, vec)
	return vec, nil
}

func contentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// keywordScore is the fraction of topics whose normalised token appears in
// text's normalised token set, case-insensitive.
func keywordScore(text string, topics []string) float64 {
	if len(topics) == 0 {
		return 0
	}
	tokens := make(map[string]struct{})
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		tokens[tok] = struct{}{}
	}
	var hits int
	for _, topic := range topics {
		if _, ok := tokens[strings.ToLower(topic)]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(topics))
}
