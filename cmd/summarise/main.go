// Command summarise runs the Summarise agent: summarise_content, condensing
// relevant items via an LLM with an extractive fallback and content-hash
// dedup.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/JyX33/agentic-technical-watch-sub000/internal/bootstrap"
	"github.com/JyX33/agentic-technical-watch-sub000/internal/config"
	"github.com/JyX33/agentic-technical-watch-sub000/pkg/a2a"
	"github.com/JyX33/agentic-technical-watch-sub000/pkg/a2a/external/anthropic"
	"github.com/JyX33/agentic-technical-watch-sub000/pkg/a2a/types"
	"github.com/JyX33/agentic-technical-watch-sub000/pkg/summarise"
)

const version = "0.1.0"

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	ctx, deps, err := bootstrap.Boot(context.Background(), config.RoleSummarise)
	if err != nil {
		return err
	}
	defer deps.Store.Close()
	defer deps.Registry.Close()

	baseURL := fmt.Sprintf("http://localhost:%d", deps.Cfg.Port)
	deps.StartHeartbeat(ctx, config.RoleSummarise, baseURL, version)

	summariser := anthropic.NewFromAPIKey(deps.Cfg.AnthropicAPIKey, deps.Cfg.AnthropicModel)
	skills := summarise.New(summariser, deps.Store, deps.Breakers.Get("llm-api"))

	srv := a2a.NewServer(a2a.Config{
		Role:        string(config.RoleSummarise),
		AgentName:   "summarise",
		Description: "Condenses relevant content into summaries, deduplicating on content hash.",
		BaseURL:     baseURL,
		Version:     version,
		APIKey:      deps.Cfg.A2AAPIKey,
		Provider:    types.AgentProvider{Organization: "agentic-technical-watch"},
	}, deps.Store, deps.Breakers, deps.Log, deps.Metrics, deps.Tracer)

	srv.Register(&a2a.SkillDef{
		Skill:      types.Skill{ID: "summarise_content", Name: "summarise_content", Description: "Summarise one relevant item, falling back to extraction on LLM failure."},
		MaxRetries: 2,
		Handler:    skills.Handler(),
	})

	httpSrv := &http.Server{
		Addr:    fmt.Sprintf(":%d", deps.Cfg.Port),
		Handler: srv.Router(deps.Registry.Discover),
	}
	return bootstrap.Serve(ctx, httpSrv)
}
