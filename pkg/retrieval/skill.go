// Package retrieval implements the Retrieval agent's three skills over an
// injected external.ContentSource, persisting every fetched item through
// internal/store so later stages and the recovery daemon see a durable
// record rather than an in-memory buffer.
package retrieval

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/JyX33/agentic-technical-watch-sub000/internal/store"
	"github.com/JyX33/agentic-technical-watch-sub000/pkg/a2a/external"
)

var timeRanges = map[string]time.Duration{
	"hour":  time.Hour,
	"day":   24 * time.Hour,
	"week":  7 * 24 * time.Hour,
	"month": 30 * 24 * time.Hour,
	"year":  365 * 24 * time.Hour,
}

// Skills bundles the handlers sharing one ContentSource and Store.
type Skills struct {
	Source external.ContentSource
	Store  *store.Store
}

func New(source external.ContentSource, st *store.Store) *Skills {
	return &Skills{Source: source, Store: st}
}

type fetchPostsParams struct {
	Topic     string `json:"topic"`
	Limit     int    `json:"limit"`
	TimeRange string `json:"timeRange"`
	Cursor    string `json:"cursor,omitempty"`
}

type postResult struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	Author    string    `json:"author"`
	Community string    `json:"community"`
	Score     int       `json:"score"`
	CreatedAt time.Time `json:"createdAt"`
	URL       string    `json:"url"`
}

type fetchPostsResult struct {
	Posts      []postResult `json:"posts"`
	NextCursor string       `json:"nextCursor,omitempty"`
}

// FetchPosts implements the fetch_posts skill (§4.7): it fetches new posts
// for topic, persists each via UpsertContentItem, and returns empty
// results rather than an error when the rate limit is exhausted — the
// Coordinator's per-topic tolerance (§4.6 step 3) depends on a partial
// result here, not a hard failure.
func (s *Skills) FetchPosts(limit int) func(ctx context.Context, params json.RawMessage) (any, error) {
	return func(ctx context.Context, raw json.RawMessage) (any, error) {
		var p fetchPostsParams
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("unmarshal fetch_posts params: %w", err)
		}
		if p.Limit <= 0 || p.Limit > 100 {
			p.Limit = limit
		}
		timeRange, ok := timeRanges[p.TimeRange]
		if !ok {
			timeRange = timeRanges["day"]
		}

		posts, next, err := s.Source.FetchPosts(ctx, p.Topic, p.Limit, timeRange, p.Cursor)
		if errors.Is(err, external.ErrRateLimited) {
			return fetchPostsResult{Posts: nil}, nil
		}
		if err != nil {
			return nil, fmt.Errorf("fetch posts: %w", err)
		}

		out := make([]postResult, 0, len(posts))
		for _, p := range posts {
			item, err := s.Store.UpsertContentItem(ctx, &store.ContentItem{
				Variant:    store.VariantPost,
				ExternalID: p.ExternalID,
				Title:      p.Title,
				Body:       p.Body,
				Author:     p.Author,
				Community:  p.Community,
				Score:      p.Score,
				URL:        p.URL,
			})
			if err != nil {
				return nil, fmt.Errorf("persist post %s: %w", p.ExternalID, err)
			}
			out = append(out, postResult{
				ID: fmt.Sprint(item.ID), Title: item.Title, Body: item.Body,
				Author: item.Author, Community: item.Community, Score: item.Score,
				CreatedAt: item.CreatedAt, URL: item.URL,
			})
		}
		return fetchPostsResult{Posts: out, NextCursor: next}, nil
	}
}

type fetchCommentsParams struct {
	PostID   string `json:"postId"`
	MaxDepth int    `json:"maxDepth"`
}

type commentResult struct {
	ID        string    `json:"id"`
	PostID    string    `json:"postId"`
	ParentRef string    `json:"parentRef"`
	Body      string    `json:"body"`
	Author    string    `json:"author"`
	Score     int       `json:"score"`
	CreatedAt time.Time `json:"createdAt"`
}

type fetchCommentsResult struct {
	Comments []commentResult `json:"comments"`
}

// FetchComments implements the fetch_comments skill.
func (s *Skills) FetchComments() func(ctx context.Context, params json.RawMessage) (any, error) {
	return func(ctx context.Context, raw json.RawMessage) (any, error) {
		var p fetchCommentsParams
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("unmarshal fetch_comments params: %w", err)
		}
		if p.MaxDepth <= 0 || p.MaxDepth > 10 {
			p.MaxDepth = 10
		}

		comments, err := s.Source.FetchComments(ctx, p.PostID, p.MaxDepth)
		if err != nil {
			return nil, fmt.Errorf("fetch comments: %w", err)
		}

		out := make([]commentResult, 0, len(comments))
		for _, c := range comments {
			item, err := s.Store.UpsertContentItem(ctx, &store.ContentItem{
				Variant:    store.VariantComment,
				ExternalID: c.ExternalID,
				Body:       c.Body,
				Author:     c.Author,
				Score:      c.Score,
				ParentRef:  c.ParentRef,
			})
			if err != nil {
				return nil, fmt.Errorf("persist comment %s: %w", c.ExternalID, err)
			}
			out = append(out, commentResult{
				ID: fmt.Sprint(item.ID), PostID: p.PostID, ParentRef: item.ParentRef,
				Body: item.Body, Author: item.Author, Score: item.Score, CreatedAt: item.CreatedAt,
			})
		}
		return fetchCommentsResult{Comments: out}, nil
	}
}

type discoverCommunitiesParams struct {
	Topic          string `json:"topic"`
	MinSubscribers int    `json:"minSubscribers,omitempty"`
}

type communityResult struct {
	Name string `json:"name"`
}

type discoverCommunitiesResult struct {
	Communities []communityResult `json:"communities"`
}

// DiscoverCommunities implements the discover_communities skill, also
// upserting each discovered community so the set of monitored communities
// grows without manual configuration (§3 Lifecycles).
func (s *Skills) DiscoverCommunities() func(ctx context.Context, params json.RawMessage) (any, error) {
	return func(ctx context.Context, raw json.RawMessage) (any, error) {
		var p discoverCommunitiesParams
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("unmarshal discover_communities params: %w", err)
		}

		names, err := s.Source.DiscoverCommunities(ctx, p.Topic)
		if err != nil {
			return nil, fmt.Errorf("discover communities: %w", err)
		}

		out := make([]communityResult, 0, len(names))
		for _, name := range names {
			if _, err := s.Store.UpsertCommunity(ctx, name); err != nil {
				return nil, fmt.Errorf("persist community %s: %w", name, err)
			}
			out = append(out, communityResult{Name: name})
		}
		return discoverCommunitiesResult{Communities: out}, nil
	}
}
