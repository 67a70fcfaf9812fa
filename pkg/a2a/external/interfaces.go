// Package external defines the narrow seams between this module's agents
// and the outside world (a Reddit-style content API, an embedding model,
// an LLM summariser, outbound notification channels, and wall-clock time),
// per §6. Production code depends only on these interfaces; fakes back
// them in tests so no agent's tests require live network access.
package external

import (
	"context"
	"errors"
	"time"
)

var (
	ErrRateLimited   = errors.New("external: rate limited")
	ErrUnauthorized  = errors.New("external: unauthorized")
	ErrTransient     = errors.New("external: transient failure")
	ErrQuotaExceeded = errors.New("external: quota exceeded")
	ErrUnavailable   = errors.New("external: unavailable")
)

// Post and Comment are the two content shapes ContentSource returns,
// sharing field names with internal/store.ContentItem so Retrieval's
// mapping layer stays a straight field copy.
type Post struct {
	ExternalID string
	Title      string
	Body       string
	Author     string
	Community  string
	Score      int
	URL        string
	CreatedAt  time.Time
}

type Comment struct {
	ExternalID string
	Body       string
	Author     string
	Score      int
	ParentRef  string
	CreatedAt  time.Time
}

// ContentSource abstracts the upstream content API Retrieval polls.
type ContentSource interface {
	FetchPosts(ctx context.Context, topic string, limit int, timeRange time.Duration, cursor string) ([]Post, string, error)
	FetchComments(ctx context.Context, postID string, depth int) ([]Comment, error)
	DiscoverCommunities(ctx context.Context, topic string) ([]string, error)
}

// Embedder produces vector encodings for Filter's semantic-similarity
// scoring.
type Embedder interface {
	Encode(ctx context.Context, texts []string) ([][]float64, error)
	Similarity(v1, v2 []float64) float64
}

// Summariser condenses content text for Summarise's primary path; an
// extractive fallback is used when it returns ErrQuotaExceeded or
// ErrUnavailable (§4.7).
type Summariser interface {
	Summarise(ctx context.Context, text string, maxLen int) (string, error)
}

// Notifier delivers alert batches over Alert's two channels.
type Notifier interface {
	SendWebhook(ctx context.Context, payload any) error
	SendEmail(ctx context.Context, to []string, subject, html, text string) error
}

// Clock is a testable time source for schedulers, TTLs, and backoff.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

// SystemClock is the production Clock backed by the standard library.
type SystemClock struct{}

func (SystemClock) Now() time.Time                         { return time.Now() }
func (SystemClock) After(d time.Duration) <-chan time.Time { return time.After(d) }
