// Package coordinator implements the Coordinator agent's workflow state
// machine (§4.6): a scheduled four-stage monitoring cycle — collecting,
// filtering, summarising, alerting — delegated to the other four agents
// over pkg/a2a/httpclient, checkpointed into internal/store.Workflow at
// every stage boundary, and serialized against overlapping runs by the
// "monitoring-cycle" distributed lock. The scheduler loop is grounded on
// the teacher's runtime/registry/manager.go Manager.syncRegistry ticker
// loop, generalized from a single per-registry sync interval to the whole
// pipeline's monitoring_interval_hours tick, and with the teacher's raw
// time.Ticker replaced by the external.Clock seam so the cycle cadence is
// testable without a real clock.
package coordinator

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/JyX33/agentic-technical-watch-sub000/internal/config"
	"github.com/JyX33/agentic-technical-watch-sub000/internal/store"
	"github.com/JyX33/agentic-technical-watch-sub000/internal/telemetry"
	"github.com/JyX33/agentic-technical-watch-sub000/pkg/a2a/external"
	"github.com/JyX33/agentic-technical-watch-sub000/pkg/a2a/httpclient"
	"github.com/JyX33/agentic-technical-watch-sub000/pkg/a2a/types"
	"github.com/JyX33/agentic-technical-watch-sub000/pkg/breaker"
)

const lockName = "monitoring-cycle"

// Coordinator owns the scheduler loop and one run of the pipeline.
type Coordinator struct {
	cfg      *config.Config
	store    *store.Store
	peers    map[config.Role]*httpclient.Client
	clock    external.Clock
	log      telemetry.Logger
	metrics  telemetry.Metrics

	// unavailableSince tracks, per peer role, when that peer first became
	// unreachable in the current cycle — used to compare against
	// PeerUnavailableBudget before deciding skip vs. rollback (§4.6 edge
	// cases). Reset at the start of every cycle.
	unavailableSince map[config.Role]time.Time
}

// New constructs a Coordinator. breakers supplies the per-peer circuit
// breakers wired into each peer's httpclient.Client.
func New(cfg *config.Config, st *store.Store, breakers *breaker.Registry, clock external.Clock, log telemetry.Logger, metrics telemetry.Metrics) *Coordinator {
	if clock == nil {
		clock = external.SystemClock{}
	}
	return &Coordinator{
		cfg:     cfg,
		store:   st,
		peers:   PeerClients(cfg, breakers),
		clock:   clock,
		log:     log,
		metrics: metrics,
	}
}

// Run drives the scheduler loop until ctx is cancelled, ticking every
// monitoring_interval_hours (§4.6). It runs one cycle immediately on
// start, matching the teacher's syncRegistry "initial sync, then ticker"
// shape.
func (c *Coordinator) Run(ctx context.Context) {
	interval := time.Duration(c.cfg.MonitoringIntervalHours) * time.Hour
	if interval <= 0 {
		interval = 4 * time.Hour
	}

	c.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-c.clock.After(interval):
			c.tick(ctx)
		}
	}
}

func (c *Coordinator) tick(ctx context.Context) {
	if err := c.RunCycle(ctx); err != nil {
		c.log.Error(ctx, "monitoring cycle failed", "error", err)
	}
}

// RunCycle executes exactly one monitoring cycle, per §4.6 steps 1-8.
func (c *Coordinator) RunCycle(ctx context.Context) error {
	token, err := c.store.AcquireLock(ctx, lockName, c.cfg.MonitoringCycleLockTTL)
	if err != nil {
		if err == store.ErrLockHeld {
			c.log.Info(ctx, "monitoring cycle skipped: lock held")
			c.metrics.IncCounter("cycle_skipped_total")
			return nil
		}
		return fmt.Errorf("acquire monitoring-cycle lock: %w", err)
	}
	defer func() {
		if relErr := c.store.ReleaseLock(ctx, lockName, token); relErr != nil {
			c.log.Error(ctx, "release monitoring-cycle lock failed", "error", relErr)
		}
	}()

	c.unavailableSince = make(map[config.Role]time.Time)
	cycleStart := c.clock.Now()

	workflowID := uuid.NewString()
	cfgJSON, _ := json.Marshal(map[string]any{
		"topics":    c.cfg.MonitoringTopics,
		"threshold": c.cfg.RelevanceThreshold,
	})
	if _, err := c.store.CreateWorkflow(ctx, workflowID, cfgJSON); err != nil {
		return fmt.Errorf("create workflow: %w", err)
	}

	items, err := c.stageCollect(ctx, workflowID)
	if err != nil {
		return c.fail(ctx, workflowID, cycleStart, "collecting", err)
	}
	if len(items) == 0 {
		return c.finish(ctx, workflowID, cycleStart, store.WorkflowCompleted, map[string]any{"items": 0})
	}

	relevant, err := c.stageFilter(ctx, workflowID, items)
	if err != nil {
		return c.fail(ctx, workflowID, cycleStart, "filtering", err)
	}

	summaryIDs, err := c.stageSummarise(ctx, workflowID, items, relevant)
	if err != nil {
		return c.fail(ctx, workflowID, cycleStart, "summarising", err)
	}
	if len(summaryIDs) == 0 {
		return c.finish(ctx, workflowID, cycleStart, store.WorkflowCompleted, map[string]any{
			"itemsCollected": len(items), "itemsRelevant": len(relevant),
		})
	}

	partial, err := c.stageAlert(ctx, workflowID, summaryIDs)
	if err != nil {
		return c.fail(ctx, workflowID, cycleStart, "alerting", err)
	}

	status := store.WorkflowCompleted
	if partial {
		status = store.WorkflowPartial
	}
	return c.finish(ctx, workflowID, cycleStart, status, map[string]any{
		"itemsCollected": len(items), "itemsRelevant": len(relevant), "summaries": len(summaryIDs),
	})
}

func (c *Coordinator) finish(ctx context.Context, workflowID string, cycleStart time.Time, status store.WorkflowStatus, metrics map[string]any) error {
	interval := time.Duration(c.cfg.MonitoringIntervalHours) * time.Hour
	if interval <= 0 {
		interval = 4 * time.Hour
	}
	if err := c.store.FinishWorkflow(ctx, workflowID, status, metrics, c.clock.Now().Add(interval)); err != nil {
		return fmt.Errorf("finish workflow: %w", err)
	}
	c.metrics.IncCounter("cycle_completed_total", "status", string(status))
	c.metrics.RecordTimer("cycle_duration_seconds", c.clock.Now().Sub(cycleStart).Seconds())
	return nil
}

func (c *Coordinator) fail(ctx context.Context, workflowID string, cycleStart time.Time, stage string, cause error) error {
	c.log.Error(ctx, "workflow stage failed", "workflowId", workflowID, "stage", stage, "error", cause)
	interval := time.Duration(c.cfg.MonitoringIntervalHours) * time.Hour
	if interval <= 0 {
		interval = 4 * time.Hour
	}
	_ = c.store.FinishWorkflow(ctx, workflowID, store.WorkflowFailed, map[string]any{"failedStage": stage, "error": cause.Error()}, c.clock.Now().Add(interval))
	c.metrics.IncCounter("cycle_completed_total", "status", "failed")
	return fmt.Errorf("stage %s: %w", stage, cause)
}

// sendSkill invokes skill on peer's agent, threading workflowID through the
// envelope, and decodes the returned Task's result into out.
func (c *Coordinator) sendSkill(ctx context.Context, role config.Role, workflowID, skill string, params any, out any) error {
	client, ok := c.peers[role]
	if !ok {
		return fmt.Errorf("no peer client configured for role %s", role)
	}
	raw, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("marshal %s params: %w", skill, err)
	}
	task, err := client.SendMessage(ctx, types.SendMessagePayload{
		AgentRole:  string(role),
		SkillName:  skill,
		Parameters: raw,
		WorkflowID: &workflowID,
	})
	if err != nil {
		c.markUnavailable(role)
		return fmt.Errorf("%s/%s: %w", role, skill, err)
	}
	c.markAvailable(role)
	if task.Status == types.TaskFailed {
		msg := "unknown error"
		if task.Error != nil {
			msg = *task.Error
		}
		return fmt.Errorf("%s/%s failed: %s", role, skill, msg)
	}
	if out == nil || len(task.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(task.Result, out); err != nil {
		return fmt.Errorf("decode %s/%s result: %w", role, skill, err)
	}
	return nil
}

func (c *Coordinator) markUnavailable(role config.Role) {
	if _, ok := c.unavailableSince[role]; !ok {
		c.unavailableSince[role] = c.clock.Now()
	}
}

func (c *Coordinator) markAvailable(role config.Role) {
	delete(c.unavailableSince, role)
}

// budgetExceeded reports whether role has been continuously unreachable
// for longer than PeerUnavailableBudget (§4.6 edge cases).
func (c *Coordinator) budgetExceeded(role config.Role) bool {
	since, ok := c.unavailableSince[role]
	if !ok {
		return false
	}
	return c.clock.Now().Sub(since) > c.cfg.PeerUnavailableBudget
}
