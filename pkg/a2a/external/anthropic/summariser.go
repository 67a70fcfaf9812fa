// Package anthropic implements external.Summariser against the Anthropic
// Claude Messages API via github.com/anthropics/anthropic-sdk-go, grounded
// on the teacher's features/model/anthropic/client.go adapter — this
// package keeps that adapter's MessageNewParams construction and
// rate-limit classification but narrows the interface from the teacher's
// generic multi-turn/tool-calling model.Client down to Summarise's single
// text-in/text-out shape, since no agent here needs tool use or
// multi-turn conversation state.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/JyX33/agentic-technical-watch-sub000/pkg/a2a/external"
)

// MessagesClient captures the subset of the SDK used here, so tests can
// substitute a fake without a live API key.
type MessagesClient interface {
	New(ctx context.Context, body sdk.MessageNewParams, opts ...option.RequestOption) (*sdk.Message, error)
}

// Client implements external.Summariser.
type Client struct {
	msg   MessagesClient
	model string
}

// New constructs a Client bound to the given model identifier (e.g.
// string(sdk.ModelClaudeSonnet4_5_20250929)).
func New(msg MessagesClient, model string) *Client {
	return &Client{msg: msg, model: model}
}

// NewFromAPIKey constructs a Client using the default Anthropic HTTP
// transport, reading the key from the caller-supplied string (sourced from
// ANTHROPIC_API_KEY by internal/config).
func NewFromAPIKey(apiKey, model string) *Client {
	ac := sdk.NewClient(option.WithAPIKey(apiKey))
	return New(&ac.Messages, model)
}

// Summarise asks Claude to condense text to at most maxLen runes,
// returning external.ErrQuotaExceeded or external.ErrUnavailable on
// classified failures so callers fall back to an extractive summary.
func (c *Client) Summarise(ctx context.Context, text string, maxLen int) (string, error) {
	prompt := fmt.Sprintf("Summarise the following content in at most %d characters. Respond with only the summary, no preamble:\n\n%s", maxLen, text)
	params := sdk.MessageNewParams{
		Model:     sdk.Model(c.model),
		MaxTokens: 1024,
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(prompt)),
		},
	}

	msg, err := c.msg.New(ctx, params)
	if err != nil {
		if isRateLimited(err) {
			return "", fmt.Errorf("%w: %v", external.ErrQuotaExceeded, err)
		}
		return "", fmt.Errorf("%w: %v", external.ErrUnavailable, err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	out := sb.String()
	if r := []rune(out); len(r) > maxLen {
		out = string(r[:maxLen])
	}
	return out, nil
}

func isRateLimited(err error) bool {
	var apiErr *sdk.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode == 429
	}
	return false
}
