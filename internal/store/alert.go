package store

import (
	"context"
	"fmt"
	"time"
)

type AlertBatchStatus string

const (
	BatchPending AlertBatchStatus = "pending"
	BatchSending AlertBatchStatus = "sending"
	BatchSent    AlertBatchStatus = "sent"
	BatchFailed  AlertBatchStatus = "failed"
	BatchPartial AlertBatchStatus = "partial"
)

type DeliveryStatus string

const (
	DeliveryPending DeliveryStatus = "pending"
	DeliverySent    DeliveryStatus = "sent"
	DeliveryFailed  DeliveryStatus = "failed"
)

type AlertBatch struct {
	ID        int64
	Status    string
	Priority  string
	CreatedAt time.Time
	SentAt    *time.Time
}

// CreateAlertBatch groups summaryIDs into one AlertBatch (§4.6 step 6).
func (s *Store) CreateAlertBatch(ctx context.Context, summaryIDs []int64, priority string) (*AlertBatch, error) {
	tx, err := s.Pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin batch tx: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `
		INSERT INTO alert_batches (status, priority, schedule_type, created_at)
		VALUES ('pending', $1, 'cycle', now())
		RETURNING id, status, priority, created_at, sent_at
	`, priority)
	var b AlertBatch
	if err := row.Scan(&b.ID, &b.Status, &b.Priority, &b.CreatedAt, &b.SentAt); err != nil {
		return nil, fmt.Errorf("insert alert batch: %w", err)
	}
	for _, sid := range summaryIDs {
		if _, err := tx.Exec(ctx, `INSERT INTO alert_batch_summaries (alert_batch_id, summary_record_id) VALUES ($1, $2)`, b.ID, sid); err != nil {
			return nil, fmt.Errorf("link batch summary: %w", err)
		}
	}
	return &b, tx.Commit(ctx)
}

// SummariesForBatch returns the SummaryRecords linked to batchID via the
// alert_batch_summaries join table, for rendering a batch's notification
// bodies.
func (s *Store) SummariesForBatch(ctx context.Context, batchID int64) ([]*SummaryRecord, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT sr.id, sr.filter_id, sr.summary_text, sr.model_used, sr.compression_ratio, sr.sentiment, sr.confidence, sr.created_at
		FROM summary_records sr
		JOIN alert_batch_summaries abs ON abs.summary_record_id = sr.id
		WHERE abs.alert_batch_id = $1
	`, batchID)
	if err != nil {
		return nil, fmt.Errorf("query batch summaries: %w", err)
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

// RecordDelivery upserts the per-(batch, channel) delivery attempt.
func (s *Store) RecordDelivery(ctx context.Context, batchID int64, channel string, status DeliveryStatus, lastErr string) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO alert_deliveries (alert_batch_id, channel, status, retry_count, last_error, created_at, updated_at)
		VALUES ($1, $2, $3, 0, $4, now(), now())
		ON CONFLICT (alert_batch_id, channel) DO UPDATE SET
			status = $3, retry_count = alert_deliveries.retry_count + 1, last_error = $4, updated_at = now()
	`, batchID, channel, status, lastErr)
	return err
}

// FinishBatch sets the batch's terminal status based on its deliveries:
// all sent -> sent, none sent -> failed, otherwise partial.
func (s *Store) FinishBatch(ctx context.Context, batchID int64) (AlertBatchStatus, error) {
	rows, err := s.Pool.Query(ctx, `SELECT status FROM alert_deliveries WHERE alert_batch_id = $1`, batchID)
	if err != nil {
		return "", fmt.Errorf("query deliveries: %w", err)
	}
	defer rows.Close()

	total, sent := 0, 0
	for rows.Next() {
		var status DeliveryStatus
		if err := rows.Scan(&status); err != nil {
			return "", err
		}
		total++
		if status == DeliverySent {
			sent++
		}
	}
	if err := rows.Err(); err != nil {
		return "", err
	}

	var final AlertBatchStatus
	switch {
	case sent == total && total > 0:
		final = BatchSent
	case sent == 0:
		final = BatchFailed
	default:
		final = BatchPartial
	}

	_, err = s.Pool.Exec(ctx, `UPDATE alert_batches SET status = $2, sent_at = now() WHERE id = $1`, batchID, final)
	return final, err
}
