// Package notify implements external.Notifier over two channels: a Slack
// incoming webhook via github.com/slack-go/slack (promoted into this
// module's dependency set from the pack's jordigilh-kubernaut repo, which
// lists it in go.mod for operator alerting — see DESIGN.md) and SMTP email
// via the standard library's net/smtp and html/template, since no mail
// library appears anywhere in the retrieved pack.
package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/smtp"

	"github.com/slack-go/slack"

	"github.com/JyX33/agentic-technical-watch-sub000/pkg/a2a/external"
)

// SMTPConfig holds the outbound mail server settings (§6 AMBIENT STACK).
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Notifier implements external.Notifier.
type Notifier struct {
	webhookURL string
	smtp       SMTPConfig
	tmpl       *template.Template
}

// New constructs a Notifier. webhookURL may be empty to disable the Slack
// channel; smtpCfg.Host empty disables the email channel.
func New(webhookURL string, smtpCfg SMTPConfig) *Notifier {
	return &Notifier{
		webhookURL: webhookURL,
		smtp:       smtpCfg,
		tmpl:       template.Must(template.New("alert").Parse(emailTemplate)),
	}
}

// SendWebhook posts payload to the configured Slack incoming webhook.
func (n *Notifier) SendWebhook(ctx context.Context, payload any) error {
	if n.webhookURL == "" {
		return fmt.Errorf("%w: no webhook configured", external.ErrUnavailable)
	}
	text, ok := payload.(string)
	if !ok {
		text = fmt.Sprintf("%v", payload)
	}
	msg := &slack.WebhookMessage{Text: text}
	if err := slack.PostWebhookContext(ctx, n.webhookURL, msg); err != nil {
		return fmt.Errorf("%w: %v", external.ErrTransient, err)
	}
	return nil
}

// SendEmail sends an HTML+text multipart-free HTML email via SMTP with
// plain auth — a fallback for recipients who do not subscribe to Slack.
func (n *Notifier) SendEmail(ctx context.Context, to []string, subject, html, text string) error {
	if n.smtp.Host == "" {
		return fmt.Errorf("%w: no SMTP server configured", external.ErrUnavailable)
	}

	var body bytes.Buffer
	if err := n.tmpl.Execute(&body, struct {
		Subject string
		HTML    string
		Text    string
	}{Subject: subject, HTML: html, Text: text}); err != nil {
		return fmt.Errorf("render email: %w", err)
	}

	addr := fmt.Sprintf("%s:%d", n.smtp.Host, n.smtp.Port)
	var auth smtp.Auth
	if n.smtp.Username != "" {
		auth = smtp.PlainAuth("", n.smtp.Username, n.smtp.Password, n.smtp.Host)
	}
	if err := smtp.SendMail(addr, auth, n.smtp.From, to, body.Bytes()); err != nil {
		return fmt.Errorf("%w: %v", external.ErrTransient, err)
	}
	return nil
}

const emailTemplate = `Subject: {{.Subject}}
MIME-version: 1.0
Content-Type: text/html; charset="UTF-8"

{{.HTML}}
`
