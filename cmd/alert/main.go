// Command alert runs the Alert agent: send_slack and send_email, each
// recording its own delivery outcome against the owning batch.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/JyX33/agentic-technical-watch-sub000/internal/bootstrap"
	"github.com/JyX33/agentic-technical-watch-sub000/internal/config"
	"github.com/JyX33/agentic-technical-watch-sub000/pkg/a2a"
	"github.com/JyX33/agentic-technical-watch-sub000/pkg/a2a/external/notify"
	"github.com/JyX33/agentic-technical-watch-sub000/pkg/a2a/types"
	"github.com/JyX33/agentic-technical-watch-sub000/pkg/alert"
)

const version = "0.1.0"

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	ctx, deps, err := bootstrap.Boot(context.Background(), config.RoleAlert)
	if err != nil {
		return err
	}
	defer deps.Store.Close()
	defer deps.Registry.Close()

	baseURL := fmt.Sprintf("http://localhost:%d", deps.Cfg.Port)
	deps.StartHeartbeat(ctx, config.RoleAlert, baseURL, version)

	notifier := notify.New(deps.Cfg.SlackWebhookURL, notify.SMTPConfig{
		Host:     deps.Cfg.SMTPHost,
		Port:     deps.Cfg.SMTPPort,
		Username: deps.Cfg.SMTPUsername,
		Password: deps.Cfg.SMTPPassword,
		From:     deps.Cfg.SMTPFrom,
	})
	skills := alert.New(notifier, deps.Store)

	srv := a2a.NewServer(a2a.Config{
		Role:        string(config.RoleAlert),
		AgentName:   "alert",
		Description: "Delivers alert batches over Slack and email, recording per-channel outcomes.",
		BaseURL:     baseURL,
		Version:     version,
		APIKey:      deps.Cfg.A2AAPIKey,
		Provider:    types.AgentProvider{Organization: "agentic-technical-watch"},
	}, deps.Store, deps.Breakers, deps.Log, deps.Metrics, deps.Tracer)

	alertBreaker := deps.Breakers.Get("alert")
	srv.Register(&a2a.SkillDef{
		Skill:      types.Skill{ID: "send_slack", Name: "send_slack", Description: "Deliver an alert batch to the configured Slack webhook."},
		MaxRetries: 2,
		Handler:    bootstrap.WrapBreaker(alertBreaker, skills.SendSlack()),
	})
	srv.Register(&a2a.SkillDef{
		Skill:      types.Skill{ID: "send_email", Name: "send_email", Description: "Deliver an alert batch by email to the given recipients."},
		MaxRetries: 2,
		Handler:    bootstrap.WrapBreaker(alertBreaker, skills.SendEmail()),
	})

	httpSrv := &http.Server{
		Addr:    fmt.Sprintf(":%d", deps.Cfg.Port),
		Handler: srv.Router(deps.Registry.Discover),
	}
	return bootstrap.Serve(ctx, httpSrv)
}
