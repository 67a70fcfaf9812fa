package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// SummaryRecord is an append-only summarisation result for a FilterRecord.
type SummaryRecord struct {
	ID                int64
	FilterID          int64
	SummaryText       string
	ModelUsed         string
	CompressionRatio  float64
	Sentiment         string
	Confidence        float64
	CreatedAt         time.Time
}

var ErrContentDedupHit = errors.New("store: content already summarised")

// InsertSummaryWithDedup implements §4.4's content-deduplication rule: the
// ContentDedup hash check and the SummaryRecord insert happen in one
// transaction, so a hit returns the prior SummaryRecord and a miss commits
// both rows atomically with no race window between the two.
func (s *Store) InsertSummaryWithDedup(ctx context.Context, filterID int64, contentHash string, r *SummaryRecord) (*SummaryRecord, bool, error) {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("begin dedup tx: %w", err)
	}
	defer tx.Rollback(ctx)

	var existingSummaryID int64
	err = tx.QueryRow(ctx, `SELECT summary_id FROM content_dedup WHERE content_hash = $1`, contentHash).Scan(&existingSummaryID)
	if err == nil {
		existing, getErr := s.getSummaryTx(ctx, tx, existingSummaryID)
		if getErr != nil {
			return nil, false, getErr
		}
		return existing, false, tx.Commit(ctx)
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, fmt.Errorf("check content dedup: %w", err)
	}

	row := tx.QueryRow(ctx, `
		INSERT INTO summary_records (filter_id, summary_text, model_used, compression_ratio, sentiment, confidence, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		RETURNING id, filter_id, summary_text, model_used, compression_ratio, sentiment, confidence, created_at
	`, filterID, r.SummaryText, r.ModelUsed, r.CompressionRatio, r.Sentiment, r.Confidence)

	var out SummaryRecord
	if err := row.Scan(&out.ID, &out.FilterID, &out.SummaryText, &out.ModelUsed,
		&out.CompressionRatio, &out.Sentiment, &out.Confidence, &out.CreatedAt); err != nil {
		return nil, false, fmt.Errorf("insert summary record: %w", err)
	}

	if _, err := tx.Exec(ctx, `INSERT INTO content_dedup (content_hash, summary_id, created_at) VALUES ($1, $2, now())`,
		contentHash, out.ID); err != nil {
		return nil, false, fmt.Errorf("insert content dedup: %w", err)
	}

	return &out, true, tx.Commit(ctx)
}

func (s *Store) getSummaryTx(ctx context.Context, tx pgx.Tx, id int64) (*SummaryRecord, error) {
	row := tx.QueryRow(ctx, `
		SELECT id, filter_id, summary_text, model_used, compression_ratio, sentiment, confidence, created_at
		FROM summary_records WHERE id = $1
	`, id)
	var out SummaryRecord
	if err := row.Scan(&out.ID, &out.FilterID, &out.SummaryText, &out.ModelUsed,
		&out.CompressionRatio, &out.Sentiment, &out.Confidence, &out.CreatedAt); err != nil {
		return nil, fmt.Errorf("get summary record: %w", err)
	}
	return &out, nil
}

// SummariesSince returns summaries created since the given time, for the
// Coordinator's alerting stage to batch (§4.6 step 6).
func (s *Store) SummariesSince(ctx context.Context, since time.Time) ([]*SummaryRecord, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT id, filter_id, summary_text, model_used, compression_ratio, sentiment, confidence, created_at
		FROM summary_records WHERE created_at >= $1
	`, since)
	if err != nil {
		return nil, fmt.Errorf("query summaries: %w", err)
	}
	defer rows.Close()

	var out []*SummaryRecord
	for rows.Next() {
		var r SummaryRecord
		if err := rows.Scan(&r.ID, &r.FilterID, &r.SummaryText, &r.ModelUsed,
			&r.CompressionRatio, &r.Sentiment, &r.Confidence, &r.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &r)
	}
	return out, rows.Err()
}
