// Package reddit implements external.ContentSource against a Reddit-style
// JSON HTTP API, rate-limited with golang.org/x/time/rate the way the
// teacher's token-bucket-gated tool calls are throttled (promoted from an
// indirect to a direct dependency for this purpose — see DESIGN.md).
package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/JyX33/agentic-technical-watch-sub000/pkg/a2a/external"
)

// Client implements external.ContentSource over HTTP.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// New constructs a Client throttled to ratePerSecond requests per second
// with a burst of int(ratePerSecond)+1, matching the upstream API's published
// rate-limit policy.
func New(baseURL, userAgent string, ratePerSecond float64) *Client {
	return &Client{
		baseURL:    baseURL,
		userAgent:  userAgent,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(ratePerSecond), int(ratePerSecond)+1),
	}
}

type listingResponse struct {
	Data struct {
		After    string `json:"after"`
		Children []struct {
			Data struct {
				ID          string  `json:"id"`
				Title       string  `json:"title"`
				SelfText    string  `json:"selftext"`
				Body        string  `json:"body"`
				Author      string  `json:"author"`
				Subreddit   string  `json:"subreddit"`
				Score       int     `json:"score"`
				Permalink   string  `json:"permalink"`
				ParentID    string  `json:"parent_id"`
				CreatedUTC  float64 `json:"created_utc"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// FetchPosts lists posts for topic newer than now-timeRange, paginating
// via cursor.
func (c *Client) FetchPosts(ctx context.Context, topic string, limit int, timeRange time.Duration, cursor string) ([]external.Post, string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, "", err
	}
	url := fmt.Sprintf("%s/r/%s/new.json?limit=%d&after=%s", c.baseURL, topic, limit, cursor)
	var listing listingResponse
	if err := c.getJSON(ctx, url, &listing); err != nil {
		return nil, "", err
	}
	cutoff := time.Now().Add(-timeRange)
	posts := make([]external.Post, 0, len(listing.Data.Children))
	for _, ch := range listing.Data.Children {
		created := time.Unix(int64(ch.Data.CreatedUTC), 0)
		if created.Before(cutoff) {
			continue
		}
		posts = append(posts, external.Post{
			ExternalID: ch.Data.ID,
			Title:      ch.Data.Title,
			Body:       ch.Data.SelfText,
			Author:     ch.Data.Author,
			Community:  ch.Data.Subreddit,
			Score:      ch.Data.Score,
			URL:        ch.Data.Permalink,
			CreatedAt:  created,
		})
	}
	return posts, listing.Data.After, nil
}

// FetchComments lists up to depth levels of comments under postID.
func (c *Client) FetchComments(ctx context.Context, postID string, depth int) ([]external.Comment, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	url := fmt.Sprintf("%s/comments/%s.json?depth=%d", c.baseURL, postID, depth)
	var listings []listingResponse
	if err := c.getJSON(ctx, url, &listings); err != nil {
		return nil, err
	}
	var comments []external.Comment
	for _, listing := range listings {
		for _, ch := range listing.Data.Children {
			comments = append(comments, external.Comment{
				ExternalID: ch.Data.ID,
				Body:       ch.Data.Body,
				Author:     ch.Data.Author,
				Score:      ch.Data.Score,
				ParentRef:  ch.Data.ParentID,
				CreatedAt:  time.Unix(int64(ch.Data.CreatedUTC), 0),
			})
		}
	}
	return comments, nil
}

// DiscoverCommunities returns active communities matching topic.
func (c *Client) DiscoverCommunities(ctx context.Context, topic string) ([]string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	url := fmt.Sprintf("%s/subreddits/search.json?q=%s", c.baseURL, topic)
	var listing listingResponse
	if err := c.getJSON(ctx, url, &listing); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(listing.Data.Children))
	for _, ch := range listing.Data.Children {
		names = append(names, ch.Data.Subreddit)
	}
	return names, nil
}

func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", external.ErrTransient, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusTooManyRequests:
		return external.ErrRateLimited
	case http.StatusUnauthorized, http.StatusForbidden:
		return external.ErrUnauthorized
	default:
		return fmt.Errorf("%w: status %d", external.ErrTransient, resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
