package store

import (
	"context"
	"fmt"
	"time"
)

// FilterRecord is one Filter-agent scoring decision for a ContentItem.
type FilterRecord struct {
	ID            int64
	ItemVariant   ItemVariant
	ItemID        int64
	Topic         string
	KeywordScore  float64
	SemanticScore float64
	CombinedScore float64
	IsRelevant    bool
	CreatedAt     time.Time
}

// InsertFilterRecord enforces the 1-1 relationship to ContentItem via the
// schema's unique (item_variant, item_id) constraint — Filter creates
// exactly one record per item and never updates it (§3 Lifecycles).
func (s *Store) InsertFilterRecord(ctx context.Context, r *FilterRecord) (*FilterRecord, error) {
	row := s.Pool.QueryRow(ctx, `
		INSERT INTO filter_records (item_variant, item_id, topic, keyword_score, semantic_score, combined_score, is_relevant, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, now())
		ON CONFLICT (item_variant, item_id) DO NOTHING
		RETURNING id, item_variant, item_id, topic, keyword_score, semantic_score, combined_score, is_relevant, created_at
	`, r.ItemVariant, r.ItemID, r.Topic, r.KeywordScore, r.SemanticScore, r.CombinedScore, r.IsRelevant)

	var out FilterRecord
	err := row.Scan(&out.ID, &out.ItemVariant, &out.ItemID, &out.Topic, &out.KeywordScore,
		&out.SemanticScore, &out.CombinedScore, &out.IsRelevant, &out.CreatedAt)
	if err != nil {
		return s.GetFilterRecord(ctx, r.ItemVariant, r.ItemID)
	}
	return &out, nil
}

func (s *Store) GetFilterRecord(ctx context.Context, variant ItemVariant, itemID int64) (*FilterRecord, error) {
	row := s.Pool.QueryRow(ctx, `
		SELECT id, item_variant, item_id, topic, keyword_score, semantic_score, combined_score, is_relevant, created_at
		FROM filter_records WHERE item_variant = $1 AND item_id = $2
	`, variant, itemID)
	var out FilterRecord
	err := row.Scan(&out.ID, &out.ItemVariant, &out.ItemID, &out.Topic, &out.KeywordScore,
		&out.SemanticScore, &out.CombinedScore, &out.IsRelevant, &out.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("get filter record: %w", err)
	}
	return &out, nil
}

// RelevantSince returns relevant FilterRecords created since the given
// time, for the Coordinator to hand off to the summarising stage.
func (s *Store) RelevantSince(ctx context.Context, since time.Time) ([]*FilterRecord, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT id, item_variant, item_id, topic, keyword_score, semantic_score, combined_score, is_relevant, created_at
		FROM filter_records WHERE is_relevant = TRUE AND created_at >= $1
	`, since)
	if err != nil {
		return nil, fmt.Errorf("query relevant filter records: %w", err)
	}
	defer rows.Close()

	var out []*FilterRecord
	for rows.Next() {
		var r FilterRecord
		if err := rows.Scan(&r.ID, &r.ItemVariant, &r.ItemID, &r.Topic, &r.KeywordScore,
			&r.SemanticScore, &r.CombinedScore, &r.IsRelevant, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &r)
	}
	return out, rows.Err()
}
