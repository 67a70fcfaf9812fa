// Package bootstrap collects the boot sequence shared by every agent
// process's main package — config load, clue logging, Postgres connect and
// migrate, the breaker registry, and service-registry registration — since
// all five cmd/ entrypoints otherwise repeat it verbatim.
package bootstrap

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	clueLog "goa.design/clue/log"

	"github.com/JyX33/agentic-technical-watch-sub000/internal/config"
	"github.com/JyX33/agentic-technical-watch-sub000/internal/store"
	"github.com/JyX33/agentic-technical-watch-sub000/internal/telemetry"
	"github.com/JyX33/agentic-technical-watch-sub000/pkg/a2a/types"
	"github.com/JyX33/agentic-technical-watch-sub000/pkg/breaker"
	"github.com/JyX33/agentic-technical-watch-sub000/pkg/registry"
)

// Deps bundles the common dependencies every agent process needs before it
// can register its own skills and start serving.
type Deps struct {
	Cfg      *config.Config
	Store    *store.Store
	Breakers *breaker.Registry
	Registry *registry.Registry
	Log      telemetry.Logger
	Metrics  telemetry.Metrics
	Tracer   telemetry.Tracer
}

// Boot loads config for role, configures clue logging, opens and migrates
// the Postgres pool, builds the breaker registry, and connects to the
// Redis-backed service registry. Callers are responsible for calling
// Deps.Store.Close() and Deps.Registry.Close() on shutdown.
func Boot(ctx context.Context, role config.Role) (context.Context, *Deps, error) {
	format := clueLog.FormatJSON
	if clueLog.IsTerminal() {
		format = clueLog.FormatTerminal
	}
	ctx = clueLog.Context(ctx, clueLog.WithFormat(format))

	cfg := config.Load(role)

	st, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return ctx, nil, fmt.Errorf("open store: %w", err)
	}
	if err := st.Migrate(ctx, cfg.DatabaseURL); err != nil {
		st.Close()
		return ctx, nil, fmt.Errorf("migrate: %w", err)
	}

	breakerCfgs := make(map[string]breaker.Config, len(cfg.Breakers))
	for name, c := range cfg.Breakers {
		breakerCfgs[name] = breaker.Config{
			FailureThreshold:      c.FailureThreshold,
			SuccessThreshold:      c.SuccessThreshold,
			RecoveryTimeout:       c.RecoveryTimeout,
			CallTimeout:           c.CallTimeout,
			HalfOpenMaxConcurrent: c.HalfOpenMaxConcurrent,
		}
	}
	breakers := breaker.NewRegistry(breakerCfgs)

	reg, err := registry.New(cfg.RegistryURL, cfg.ServiceDiscoveryTTL)
	if err != nil {
		st.Close()
		return ctx, nil, fmt.Errorf("connect service registry: %w", err)
	}

	return ctx, &Deps{
		Cfg:      cfg,
		Store:    st,
		Breakers: breakers,
		Registry: reg,
		Log:      telemetry.NewClueLogger(),
		Metrics:  telemetry.NewClueMetrics(),
		Tracer:   telemetry.NewClueTracer(),
	}, nil
}

// StartHeartbeat registers role at baseURL in the service registry and
// renews the lease in the background until ctx is cancelled.
func (d *Deps) StartHeartbeat(ctx context.Context, role config.Role, baseURL, version string) {
	entry := types.RegistryEntry{URL: baseURL, Version: version, StartedAt: time.Now()}
	_ = d.Registry.Register(ctx, string(role), entry)
	go d.Registry.StartHeartbeat(ctx, string(role), entry)
}

// Serve runs httpSrv until SIGINT/SIGTERM or a listen error, then drains any
// extra goroutines passed in bg (each run with ctx and stopped by its
// cancellation) before returning, following the teacher's
// errc-channel-plus-WaitGroup shutdown shape from example/cmd/assistant.
func Serve(ctx context.Context, httpSrv *http.Server, bg ...func(ctx context.Context)) error {
	ctx, cancel := context.WithCancel(ctx)
	errc := make(chan error, 1)
	var wg sync.WaitGroup

	for _, fn := range bg {
		wg.Add(1)
		go func(fn func(ctx context.Context)) {
			defer wg.Done()
			fn(ctx)
		}(fn)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		clueLog.Printf(ctx, "listening on %s", httpSrv.Addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errc <- err
		}
	}()

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigc:
		clueLog.Printf(ctx, "shutting down: %v", sig)
	case err := <-errc:
		clueLog.Printf(ctx, "server error: %v", err)
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	_ = httpSrv.Shutdown(shutdownCtx)
	wg.Wait()
	return nil
}

// WrapBreaker guards a skill handler with br, matching the teacher's
// pattern of wrapping each external call site in its own named breaker
// rather than one breaker shared across every dependency — used by the
// agents (Retrieval, Alert) whose skills call out to a real network dependency.
func WrapBreaker(br interface {
	Call(ctx context.Context, fn func(ctx context.Context) error) error
}, handler func(ctx context.Context, params json.RawMessage) (any, error)) func(ctx context.Context, params json.RawMessage) (any, error) {
	return func(ctx context.Context, params json.RawMessage) (any, error) {
		var out any
		err := br.Call(ctx, func(ctx context.Context) error {
			var handlerErr error
			out, handlerErr = handler(ctx, params)
			return handlerErr
		})
		return out, err
	}
}
