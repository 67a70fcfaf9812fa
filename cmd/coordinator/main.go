// Command coordinator runs the Coordinator agent: the scheduler loop that
// drives one monitoring cycle through the other four agents, plus the
// background recovery daemon that re-dispatches stuck tasks and resumes
// crashed workflows. It serves no skills of its own over /a2a — its agent
// card is empty — but exposes /health and /discover like every other role.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/JyX33/agentic-technical-watch-sub000/internal/bootstrap"
	"github.com/JyX33/agentic-technical-watch-sub000/internal/config"
	"github.com/JyX33/agentic-technical-watch-sub000/pkg/a2a"
	"github.com/JyX33/agentic-technical-watch-sub000/pkg/a2a/external"
	"github.com/JyX33/agentic-technical-watch-sub000/pkg/a2a/types"
	"github.com/JyX33/agentic-technical-watch-sub000/pkg/coordinator"
	"github.com/JyX33/agentic-technical-watch-sub000/pkg/recovery"
)

const version = "0.1.0"

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	ctx, deps, err := bootstrap.Boot(context.Background(), config.RoleCoordinator)
	if err != nil {
		return err
	}
	defer deps.Store.Close()
	defer deps.Registry.Close()

	baseURL := fmt.Sprintf("http://localhost:%d", deps.Cfg.Port)
	deps.StartHeartbeat(ctx, config.RoleCoordinator, baseURL, version)

	clock := external.SystemClock{}
	coord := coordinator.New(deps.Cfg, deps.Store, deps.Breakers, clock, deps.Log, deps.Metrics)
	daemon := recovery.New(deps.Cfg, deps.Store, coordinator.PeerClients(deps.Cfg, deps.Breakers), coord, clock, deps.Log, deps.Metrics)

	srv := a2a.NewServer(a2a.Config{
		Role:        string(config.RoleCoordinator),
		AgentName:   "coordinator",
		Description: "Schedules and drives the monitoring pipeline across the retrieval, filter, summarise, and alert agents.",
		BaseURL:     baseURL,
		Version:     version,
		APIKey:      deps.Cfg.A2AAPIKey,
		Provider:    types.AgentProvider{Organization: "agentic-technical-watch"},
	}, deps.Store, deps.Breakers, deps.Log, deps.Metrics, deps.Tracer)

	httpSrv := &http.Server{
		Addr:    fmt.Sprintf(":%d", deps.Cfg.Port),
		Handler: srv.Router(deps.Registry.Discover),
	}

	return bootstrap.Serve(ctx, httpSrv,
		func(ctx context.Context) { coord.Run(ctx) },
		func(ctx context.Context) { daemon.Run(ctx) },
	)
}
