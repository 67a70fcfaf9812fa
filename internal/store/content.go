package store

import (
	"context"
	"fmt"
	"time"
)

// ItemVariant distinguishes the two ContentItem shapes sharing one table.
type ItemVariant string

const (
	VariantPost    ItemVariant = "post"
	VariantComment ItemVariant = "comment"
)

// ContentItem is a Post or Comment row, depending on Variant.
type ContentItem struct {
	ID         int64
	Variant    ItemVariant
	ExternalID string
	Title      string
	Body       string
	Author     string
	Community  string
	Score      int
	URL        string
	ParentRef  string
	PostID     *int64
	CreatedAt  time.Time
}

// UpsertContentItem inserts a ContentItem, returning the existing row
// unchanged if (variant, external_id) already exists — Retrieval never
// mutates an item after creation except for score backfill (§3
// Lifecycles), which UpdateScore handles separately.
func (s *Store) UpsertContentItem(ctx context.Context, item *ContentItem) (*ContentItem, error) {
	row := s.Pool.QueryRow(ctx, `
		INSERT INTO content_items (variant, external_id, title, body, author, community, score, url, parent_ref, post_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now())
		ON CONFLICT (variant, external_id) DO UPDATE SET variant = content_items.variant
		RETURNING id, variant, external_id, title, body, author, community, score, url, parent_ref, post_id, created_at
	`, item.Variant, item.ExternalID, item.Title, item.Body, item.Author, item.Community,
		item.Score, item.URL, item.ParentRef, item.PostID)

	var out ContentItem
	err := row.Scan(&out.ID, &out.Variant, &out.ExternalID, &out.Title, &out.Body, &out.Author,
		&out.Community, &out.Score, &out.URL, &out.ParentRef, &out.PostID, &out.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("upsert content item: %w", err)
	}
	return &out, nil
}

// GetContentItem reloads one ContentItem by its variant and internal id, used by the
// recovery daemon to reconstruct the item view a resumed summarising stage
// needs after a crash (§4.6 edge case).
func (s *Store) GetContentItem(ctx context.Context, variant ItemVariant, id int64) (*ContentItem, error) {
	row := s.Pool.QueryRow(ctx, `
		SELECT id, variant, external_id, title, body, author, community, score, url, parent_ref, post_id, created_at
		FROM content_items WHERE variant = $1 AND id = $2
	`, variant, id)
	var out ContentItem
	err := row.Scan(&out.ID, &out.Variant, &out.ExternalID, &out.Title, &out.Body, &out.Author,
		&out.Community, &out.Score, &out.URL, &out.ParentRef, &out.PostID, &out.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("get content item: %w", err)
	}
	return &out, nil
}

// BackfillPostRef sets a comment's internal post_id foreign key once the
// parent post has been persisted (§3: "internal FK is nullable and set
// asynchronously").
func (s *Store) BackfillPostRef(ctx context.Context, commentID, postID int64) error {
	_, err := s.Pool.Exec(ctx, `UPDATE content_items SET post_id = $2 WHERE id = $1`, commentID, postID)
	return err
}

// Community is a named topic locus (e.g. a subreddit).
type Community struct {
	ID            int64
	Name          string
	IsActive      bool
	LastCheckedAt *time.Time
	DiscoveredAt  time.Time
}

// UpsertCommunity inserts or reactivates a community; communities are
// soft-deleted, never hard-deleted (§3).
func (s *Store) UpsertCommunity(ctx context.Context, name string) (*Community, error) {
	row := s.Pool.QueryRow(ctx, `
		INSERT INTO communities (name, is_active, discovered_at)
		VALUES ($1, TRUE, now())
		ON CONFLICT (name) DO UPDATE SET is_active = TRUE, deleted_at = NULL
		RETURNING id, name, is_active, last_checked_at, discovered_at
	`, name)
	var c Community
	if err := row.Scan(&c.ID, &c.Name, &c.IsActive, &c.LastCheckedAt, &c.DiscoveredAt); err != nil {
		return nil, fmt.Errorf("upsert community: %w", err)
	}
	return &c, nil
}

func (s *Store) TouchCommunity(ctx context.Context, name string) error {
	_, err := s.Pool.Exec(ctx, `UPDATE communities SET last_checked_at = now() WHERE name = $1`, name)
	return err
}

func (s *Store) SoftDeleteCommunity(ctx context.Context, name string) error {
	_, err := s.Pool.Exec(ctx, `UPDATE communities SET is_active = FALSE, deleted_at = now() WHERE name = $1`, name)
	return err
}
