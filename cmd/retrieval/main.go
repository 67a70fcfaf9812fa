// Command retrieval runs the Retrieval agent: fetch_posts, fetch_comments,
// and discover_communities served against a reddit-style external API and
// persisted through internal/store.
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/JyX33/agentic-technical-watch-sub000/internal/bootstrap"
	"github.com/JyX33/agentic-technical-watch-sub000/internal/config"
	"github.com/JyX33/agentic-technical-watch-sub000/pkg/a2a"
	"github.com/JyX33/agentic-technical-watch-sub000/pkg/a2a/external/reddit"
	"github.com/JyX33/agentic-technical-watch-sub000/pkg/a2a/types"
	"github.com/JyX33/agentic-technical-watch-sub000/pkg/retrieval"
)

const version = "0.1.0"

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	ctx, deps, err := bootstrap.Boot(context.Background(), config.RoleRetrieval)
	if err != nil {
		return err
	}
	defer deps.Store.Close()
	defer deps.Registry.Close()

	baseURL := fmt.Sprintf("http://localhost:%d", deps.Cfg.Port)
	deps.StartHeartbeat(ctx, config.RoleRetrieval, baseURL, version)

	source := reddit.New(deps.Cfg.RedditBaseURL, deps.Cfg.RedditUserAgent, deps.Cfg.RedditRatePerSecond)
	skills := retrieval.New(source, deps.Store)
	redditBreaker := deps.Breakers.Get("reddit-api")

	srv := a2a.NewServer(a2a.Config{
		Role:        string(config.RoleRetrieval),
		AgentName:   "retrieval",
		Description: "Fetches posts and comments and discovers communities from the monitored content source.",
		BaseURL:     baseURL,
		Version:     version,
		APIKey:      deps.Cfg.A2AAPIKey,
		Provider:    types.AgentProvider{Organization: "agentic-technical-watch"},
	}, deps.Store, deps.Breakers, deps.Log, deps.Metrics, deps.Tracer)

	srv.Register(&a2a.SkillDef{
		Skill:      types.Skill{ID: "fetch_posts", Name: "fetch_posts", Description: "Fetch new posts for a topic."},
		MaxRetries: 3,
		Handler:    bootstrap.WrapBreaker(redditBreaker, skills.FetchPosts(50)),
	})
	srv.Register(&a2a.SkillDef{
		Skill:      types.Skill{ID: "fetch_comments", Name: "fetch_comments", Description: "Fetch comments for a post."},
		MaxRetries: 3,
		Handler:    bootstrap.WrapBreaker(redditBreaker, skills.FetchComments()),
	})
	srv.Register(&a2a.SkillDef{
		Skill:      types.Skill{ID: "discover_communities", Name: "discover_communities", Description: "Discover active communities for a topic."},
		MaxRetries: 3,
		Handler:    bootstrap.WrapBreaker(redditBreaker, skills.DiscoverCommunities()),
	})

	httpSrv := &http.Server{
		Addr:    fmt.Sprintf(":%d", deps.Cfg.Port),
		Handler: srv.Router(deps.Registry.Discover),
	}

	return bootstrap.Serve(ctx, httpSrv)
}
