package filter

import (
	"context"
	"encoding/json"
	"fmt"

	storepkg "github.com/JyX33/agentic-technical-watch-sub000/internal/store"
)

// ItemRefParam identifies one ContentItem row to score.
type ItemRefParam struct {
	Variant string `json:"variant"`
	ID      int64  `json:"id"`
	Title   string `json:"title"`
	Body    string `json:"body"`
}

// WeightsParam overrides the keyword/semantic blend.
type WeightsParam struct {
	Keyword  float64 `json:"keyword"`
	Semantic float64 `json:"semantic"`
}

// FilterContentParams is the params object for the filter_content skill.
type FilterContentParams struct {
	Items     []ItemRefParam `json:"items"`
	Topics    []string       `json:"topics"`
	Threshold *float64       `json:"threshold,omitempty"`
	Weights   *WeightsParam  `json:"weights,omitempty"`
}

// RecordResult is one scored record in the filter_content response.
type RecordResult struct {
	ItemRef       string  `json:"itemRef"`
	KeywordScore  float64 `json:"keywordScore"`
	SemanticScore float64 `json:"semanticScore"`
	CombinedScore float64 `json:"combinedScore"`
	IsRelevant    bool    `json:"isRelevant"`
}

// FilterContentResult is the result object for the filter_content skill.
type FilterContentResult struct {
	Records []RecordResult `json:"records"`
}

// Handler builds the filter_content skill body: it scores each item,
// persists exactly one FilterRecord per item (§3's 1-1 invariant, enforced
// by the store's unique constraint), and returns the scored records.
func Handler(scorer *Scorer, st *storepkg.Store, defaultThreshold float64) func(ctx context.Context, params json.RawMessage) (any, error) {
	return func(ctx context.Context, raw json.RawMessage) (any, error) {
		var p FilterContentParams
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("unmarshal filter_content params: %w", err)
		}

		threshold := defaultThreshold
		if p.Threshold != nil {
			threshold = *p.Threshold
		}
		weights := DefaultWeights()
		if p.Weights != nil {
			weights = Weights{Keyword: p.Weights.Keyword, Semantic: p.Weights.Semantic}
		}

		items := make([]Item, len(p.Items))
		for i, it := range p.Items {
			items[i] = Item{
				Variant: storepkg.ItemVariant(it.Variant),
				ID:      it.ID,
				Title:   it.Title,
				Body:    it.Body,
			}
		}

		scored, err := scorer.Score(ctx, items, p.Topics, threshold, weights)
		if err != nil {
			return nil, fmt.Errorf("score items: %w", err)
		}

		records := make([]RecordResult, 0, len(scored))
		topic := ""
		if len(p.Topics) > 0 {
			topic = p.Topics[0]
		}
		for _, r := range scored {
			if _, err := st.InsertFilterRecord(ctx, &storepkg.FilterRecord{
				ItemVariant:   r.Item.Variant,
				ItemID:        r.Item.ID,
				Topic:         topic,
				KeywordScore:  r.KeywordScore,
				SemanticScore: r.SemanticScore,
				CombinedScore: r.CombinedScore,
				IsRelevant:    r.IsRelevant,
			}); err != nil {
				return nil, fmt.Errorf("persist filter record: %w", err)
			}
			records = append(records, RecordResult{
				ItemRef:       fmt.Sprintf("%s:%d", r.Item.Variant, r.Item.ID),
				KeywordScore:  r.KeywordScore,
				SemanticScore: r.SemanticScore,
				CombinedScore: r.CombinedScore,
				IsRelevant:    r.IsRelevant,
			})
		}

		return FilterContentResult{Records: records}, nil
	}
}
