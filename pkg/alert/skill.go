// Package alert implements the Alert agent's two delivery skills,
// send_slack and send_email, each independently recording its own
// delivery outcome in internal/store so a partial multi-channel failure
// is visible per-channel rather than collapsing the whole batch to one
// status (§4.7).
package alert

import (
	"context"
	"encoding/json"
	"fmt"
	"net/mail"

	aerrors "github.com/JyX33/agentic-technical-watch-sub000/internal/errors"
	"github.com/JyX33/agentic-technical-watch-sub000/internal/store"
	"github.com/JyX33/agentic-technical-watch-sub000/pkg/a2a/external"
)

// Skills bundles the handlers sharing one Notifier and Store.
type Skills struct {
	Notifier external.Notifier
	Store    *store.Store
}

func New(notifier external.Notifier, st *store.Store) *Skills {
	return &Skills{Notifier: notifier, Store: st}
}

type sendSlackParams struct {
	BatchRef int64 `json:"batchRef"`
}

type sendSlackResult struct {
	Delivered bool   `json:"delivered"`
	Error     string `json:"error,omitempty"`
}

// SendSlack implements the send_slack skill: POST the batch's summaries to
// the configured webhook, recording the delivery attempt against
// batchRef/"slack" regardless of outcome.
func (s *Skills) SendSlack() func(ctx context.Context, params json.RawMessage) (any, error) {
	return func(ctx context.Context, raw json.RawMessage) (any, error) {
		var p sendSlackParams
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("unmarshal send_slack params: %w", err)
		}

		summaries, err := s.Store.SummariesForBatch(ctx, p.BatchRef)
		if err != nil {
			return nil, fmt.Errorf("load batch summaries: %w", err)
		}
		payload := formatSlackPayload(p.BatchRef, summaries)

		sendErr := s.Notifier.SendWebhook(ctx, payload)
		status := store.DeliverySent
		errMsg := ""
		if sendErr != nil {
			status = store.DeliveryFailed
			errMsg = sendErr.Error()
		}
		if recErr := s.Store.RecordDelivery(ctx, p.BatchRef, "slack", status, errMsg); recErr != nil {
			return nil, fmt.Errorf("record slack delivery: %w", recErr)
		}
		if sendErr != nil {
			return sendSlackResult{Delivered: false, Error: "delivery failed"}, aerrors.Wrap(aerrors.Transient, sendErr, "send_slack webhook")
		}
		return sendSlackResult{Delivered: true}, nil
	}
}

type sendEmailParams struct {
	BatchRef   int64    `json:"batchRef"`
	Recipients []string `json:"recipients"`
}

type sendEmailResult struct {
	Delivered bool   `json:"delivered"`
	Error     string `json:"error,omitempty"`
}

// SendEmail implements the send_email skill. Recipient addresses are
// validated with net/mail.ParseAddress before any SMTP call is attempted.
func (s *Skills) SendEmail() func(ctx context.Context, params json.RawMessage) (any, error) {
	return func(ctx context.Context, raw json.RawMessage) (any, error) {
		var p sendEmailParams
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("unmarshal send_email params: %w", err)
		}
		for _, addr := range p.Recipients {
			if _, err := mail.ParseAddress(addr); err != nil {
				if recErr := s.Store.RecordDelivery(ctx, p.BatchRef, "email", store.DeliveryFailed, "invalid recipient "+addr); recErr != nil {
					return nil, fmt.Errorf("record email delivery: %w", recErr)
				}
				return sendEmailResult{Delivered: false, Error: "invalid recipient " + addr}, nil
			}
		}

		summaries, err := s.Store.SummariesForBatch(ctx, p.BatchRef)
		if err != nil {
			return nil, fmt.Errorf("load batch summaries: %w", err)
		}
		html, text := formatEmailBody(p.BatchRef, summaries)

		sendErr := s.Notifier.SendEmail(ctx, p.Recipients, "New relevant content digest", html, text)
		status := store.DeliverySent
		errMsg := ""
		if sendErr != nil {
			status = store.DeliveryFailed
			errMsg = sendErr.Error()
		}
		if recErr := s.Store.RecordDelivery(ctx, p.BatchRef, "email", status, errMsg); recErr != nil {
			return nil, fmt.Errorf("record email delivery: %w", recErr)
		}
		if sendErr != nil {
			return sendEmailResult{Delivered: false, Error: "delivery failed"}, aerrors.Wrap(aerrors.Transient, sendErr, "send_email smtp")
		}
		return sendEmailResult{Delivered: true}, nil
	}
}
