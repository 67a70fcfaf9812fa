// Command filter runs the Filter agent: filter_content, scoring items by a
// keyword/semantic blend and persisting the verdict for every item.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/JyX33/agentic-technical-watch-sub000/internal/bootstrap"
	"github.com/JyX33/agentic-technical-watch-sub000/internal/config"
	"github.com/JyX33/agentic-technical-watch-sub000/pkg/a2a"
	"github.com/JyX33/agentic-technical-watch-sub000/pkg/a2a/external/embed"
	"github.com/JyX33/agentic-technical-watch-sub000/pkg/a2a/types"
	"github.com/JyX33/agentic-technical-watch-sub000/pkg/filter"
)

const version = "0.1.0"

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	ctx, deps, err := bootstrap.Boot(context.Background(), config.RoleFilter)
	if err != nil {
		return err
	}
	defer deps.Store.Close()
	defer deps.Registry.Close()

	baseURL := fmt.Sprintf("http://localhost:%d", deps.Cfg.Port)
	deps.StartHeartbeat(ctx, config.RoleFilter, baseURL, version)

	scorer := filter.NewScorer(embed.New())

	srv := a2a.NewServer(a2a.Config{
		Role:        string(config.RoleFilter),
		AgentName:   "filter",
		Description: "Scores retrieved content for relevance against the monitored topics.",
		BaseURL:     baseURL,
		Version:     version,
		APIKey:      deps.Cfg.A2AAPIKey,
		Provider:    types.AgentProvider{Organization: "agentic-technical-watch"},
	}, deps.Store, deps.Breakers, deps.Log, deps.Metrics, deps.Tracer)

	srv.Register(&a2a.SkillDef{
		Skill:      types.Skill{ID: "filter_content", Name: "filter_content", Description: "Score a batch of items for topic relevance."},
		MaxRetries: 2,
		Handler:    filter.Handler(scorer, deps.Store, deps.Cfg.RelevanceThreshold),
	})

	httpSrv := &http.Server{
		Addr:    fmt.Sprintf(":%d", deps.Cfg.Port),
		Handler: srv.Router(deps.Registry.Discover),
	}
	return bootstrap.Serve(ctx, httpSrv)
}
