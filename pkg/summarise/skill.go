// Package summarise implements the Summarise agent's summarise_content
// skill: an LLM-backed primary path with a breaker-guarded call to an
// injected external.Summariser, paragraph-bisection chunking for
// over-length content, an extractive fallback on any LLM failure, and
// content-hash dedup via internal/store's single-transaction check (§4.4).
package summarise

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/JyX33/agentic-technical-watch-sub000/internal/store"
	"github.com/JyX33/agentic-technical-watch-sub000/pkg/a2a/external"
	"github.com/JyX33/agentic-technical-watch-sub000/pkg/breaker"
	"github.com/JyX33/agentic-technical-watch-sub000/pkg/idempotency"
)

// chunkTokenLimit is the approximate character budget per LLM call beyond
// which content is bisected by paragraph boundary before summarising.
const chunkTokenLimit = 6000

// Skills bundles the handler sharing one Summariser, Store, and breaker.
type Skills struct {
	Summariser external.Summariser
	Store      *store.Store
	Breaker    *breaker.Breaker
}

func New(summariser external.Summariser, st *store.Store, br *breaker.Breaker) *Skills {
	return &Skills{Summariser: summariser, Store: st, Breaker: br}
}

type summariseContentParams struct {
	FilterID    int64  `json:"filterId"`
	Content     string `json:"content"`
	ContentType string `json:"contentType"`
	MaxLen      int    `json:"maxLen,omitempty"`
}

type summariseContentResult struct {
	Summary          string  `json:"summary"`
	ModelUsed        string  `json:"modelUsed"`
	CompressionRatio float64 `json:"compressionRatio"`
	Confidence       float64 `json:"confidence"`
}

// Handler builds the summarise_content skill body.
func (s *Skills) Handler() func(ctx context.Context, params json.RawMessage) (any, error) {
	return func(ctx context.Context, raw json.RawMessage) (any, error) {
		var p summariseContentParams
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("unmarshal summarise_content params: %w", err)
		}
		maxLen := p.MaxLen
		if maxLen <= 0 {
			maxLen = 500
		}

		hash := idempotency.ContentHash(p.Content)

		summaryText, modelUsed := s.summarise(ctx, p.Content, maxLen)

		compression := 0.0
		if len(p.Content) > 0 {
			compression = float64(len(summaryText)) / float64(len(p.Content))
		}
		confidence := 1.0
		if modelUsed == "extractive" {
			confidence = 0.6
		}

		record, inserted, err := s.Store.InsertSummaryWithDedup(ctx, p.FilterID, hash, &store.SummaryRecord{
			SummaryText:      summaryText,
			ModelUsed:        modelUsed,
			CompressionRatio: compression,
			Confidence:       confidence,
		})
		if err != nil {
			return nil, fmt.Errorf("persist summary: %w", err)
		}
		if !inserted {
			return summariseContentResult{
				Summary: record.SummaryText, ModelUsed: record.ModelUsed,
				CompressionRatio: record.CompressionRatio, Confidence: record.Confidence,
			}, nil
		}

		return summariseContentResult{
			Summary: summaryText, ModelUsed: modelUsed,
			CompressionRatio: compression, Confidence: confidence,
		}, nil
	}
}

// summarise runs the LLM primary path through the breaker, chunking
// over-length content by paragraph bisection, and falls back to an
// extractive summary on any failure including a pre-emptive circuit-open
// rejection.
func (s *Skills) summarise(ctx context.Context, content string, maxLen int) (string, string) {
	text := content
	if len(text) > chunkTokenLimit {
		chunks := bisectByParagraph(text, chunkTokenLimit)
		partials := make([]string, 0, len(chunks))
		for _, chunk := range chunks {
			out, err := s.callLLM(ctx, chunk, maxLen)
			if err != nil {
				return extractiveSummary(content, maxLen), "extractive"
			}
			partials = append(partials, out)
		}
		text = strings.Join(partials, " ")
	}

	out, err := s.callLLM(ctx, text, maxLen)
	if err != nil {
		return extractiveSummary(content, maxLen), "extractive"
	}
	return out, "llm"
}

func (s *Skills) callLLM(ctx context.Context, text string, maxLen int) (string, error) {
	var out string
	err := s.Breaker.Call(ctx, func(ctx context.Context) error {
		result, err := s.Summariser.Summarise(ctx, text, maxLen)
		if err != nil {
			return err
		}
		out = result
		return nil
	})
	if errors.Is(err, breaker.ErrCircuitOpen) || errors.Is(err, breaker.ErrHalfOpenBusy) {
		return "", err
	}
	if err != nil {
		return "", err
	}
	return out, nil
}

// bisectByParagraph packs whole paragraphs of text into chunks, starting a
// new chunk when the next paragraph would push the current one past limit
// characters. A paragraph longer than limit becomes a chunk of its own and
// is not split.
func bisectByParagraph(text string, limit int) []string {
	paragraphs := strings.Split(text, "\n\n")
	var chunks []string
	var cur strings.Builder
	for _, p := range paragraphs {
		if cur.Len()+len(p) > limit && cur.Len() > 0 {
			chunks = append(chunks, cur.String())
			cur.Reset()
		}
		if cur.Len() > 0 {
			cur.WriteString("\n\n")
		}
		cur.WriteString(p)
	}
	if cur.Len() > 0 {
		chunks = append(chunks, cur.String())
	}
	return chunks
}
