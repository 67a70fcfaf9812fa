// Package recovery implements the background recovery daemon described in
// §4.5: a goroutine run inside the Coordinator process that polls for
// tasks needing a retry/skip/rollback decision and for running workflows
// that crashed mid-cycle. The poll loop is grounded on the teacher's
// runtime/registry/registration.go heartbeat ticker (a fixed-interval
// time.Ticker driving a single poll-and-act method under a cancellable
// context), generalized from renewing one registration to re-dispatching
// a batch of due tasks.
package recovery

import (
	"context"
	"time"

	"github.com/JyX33/agentic-technical-watch-sub000/internal/config"
	"github.com/JyX33/agentic-technical-watch-sub000/internal/store"
	"github.com/JyX33/agentic-technical-watch-sub000/internal/telemetry"
	"github.com/JyX33/agentic-technical-watch-sub000/pkg/a2a/external"
	"github.com/JyX33/agentic-technical-watch-sub000/pkg/a2a/httpclient"
	"github.com/JyX33/agentic-technical-watch-sub000/pkg/a2a/types"
	"github.com/JyX33/agentic-technical-watch-sub000/pkg/coordinator"
)

// resumer is the subset of *coordinator.Coordinator the daemon needs to
// re-enter a crashed workflow's state machine — narrowed to keep this
// package's tests fakeable without a real Coordinator.
type resumer interface {
	Resume(ctx context.Context, workflowID string) error
	StaleAfter() time.Duration
}

// Daemon polls internal/store for tasks and workflows needing recovery
// action and re-dispatches or resumes them.
type Daemon struct {
	store     *store.Store
	peers     map[config.Role]*httpclient.Client
	resumer   resumer
	clock     external.Clock
	log       telemetry.Logger
	metrics   telemetry.Metrics
	pollEvery time.Duration
	batchSize int
}

// New constructs a Daemon. coord supplies the workflow-resume path;
// peers lets the daemon re-dispatch individual tasks without going through
// the Coordinator's own stage logic.
func New(cfg *config.Config, st *store.Store, peers map[config.Role]*httpclient.Client, coord *coordinator.Coordinator, clock external.Clock, log telemetry.Logger, metrics telemetry.Metrics) *Daemon {
	if clock == nil {
		clock = external.SystemClock{}
	}
	return &Daemon{
		store:     st,
		peers:     peers,
		resumer:   coord,
		clock:     clock,
		log:       log,
		metrics:   metrics,
		pollEvery: 15 * time.Second,
		batchSize: 50,
	}
}

// Run polls until ctx is cancelled.
func (d *Daemon) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-d.clock.After(d.pollEvery):
			d.poll(ctx)
		}
	}
}

func (d *Daemon) poll(ctx context.Context) {
	if err := d.recoverTasks(ctx); err != nil {
		d.log.Error(ctx, "recovery: task poll failed", "error", err)
	}
	if err := d.recoverWorkflows(ctx); err != nil {
		d.log.Error(ctx, "recovery: workflow poll failed", "error", err)
	}
}

// recoverTasks implements the task-level strategy table of §4.5 for every
// task currently due (status ∈ {retry_pending, stuck} and next_retry_at
// elapsed).
func (d *Daemon) recoverTasks(ctx context.Context) error {
	due, err := d.store.DueForRecovery(ctx, d.batchSize)
	if err != nil {
		return err
	}
	for _, t := range due {
		d.recoverOne(ctx, t)
	}
	return nil
}

func (d *Daemon) recoverOne(ctx context.Context, t *types.Task) {
	switch strategyFor(t) {
	case strategyRetry:
		d.retryTask(ctx, t)
	case strategySkip:
		if err := d.store.SkipTask(ctx, t.ID, "retry budget exhausted on non-critical skill"); err != nil {
			d.log.Error(ctx, "recovery: skip task failed", "taskId", t.ID, "error", err)
			return
		}
		d.metrics.IncCounter("recovery_strategy_total", "strategy", "skip", "role", t.AgentRole, "skill", t.SkillName)
	case strategyRollback:
		d.rollbackTask(ctx, t)
	default: // strategyManual
		d.log.Error(ctx, "recovery: task needs manual intervention", "taskId", t.ID, "role", t.AgentRole,
			"skill", t.SkillName, "correlationId", t.CorrelationID)
		if err := d.store.SkipTask(ctx, t.ID, "manual intervention required"); err != nil {
			d.log.Error(ctx, "recovery: mark manual task failed", "taskId", t.ID, "error", err)
		}
		d.metrics.IncCounter("recovery_strategy_total", "strategy", "manual", "role", t.AgentRole, "skill", t.SkillName)
	}
}

// retryTask re-invokes message/send with the task's original parameters.
// The owning agent's dispatchSend finds the same
// (workflow_id, agent_role, skill_name, parameters_hash) row, sees it is
// non-terminal, and re-runs the skill body in place rather than minting a
// new task (§4.4).
func (d *Daemon) retryTask(ctx context.Context, t *types.Task) {
	client, ok := d.peers[config.Role(t.AgentRole)]
	if !ok {
		d.log.Error(ctx, "recovery: no peer client for role", "role", t.AgentRole, "taskId", t.ID)
		return
	}
	correlationID := t.CorrelationID
	_, err := client.SendMessage(ctx, types.SendMessagePayload{
		AgentRole:     t.AgentRole,
		SkillName:     t.SkillName,
		Parameters:    t.Parameters,
		WorkflowID:    t.WorkflowID,
		CorrelationID: &correlationID,
	})
	if err != nil {
		d.log.Warn(ctx, "recovery: retry dispatch failed", "taskId", t.ID, "error", err)
		return
	}
	d.metrics.IncCounter("recovery_strategy_total", "strategy", "retry", "role", t.AgentRole, "skill", t.SkillName)
}

// rollbackTask implements the critical-skill-exceeded-budget path: the
// owning workflow is marked failed outright (side effects already
// committed by earlier stages are left in place — they are individually
// idempotent rows, not undone — only forward progress stops) and the task
// itself is moved to skipped so it drops out of the due queue.
func (d *Daemon) rollbackTask(ctx context.Context, t *types.Task) {
	if t.WorkflowID != nil {
		if err := d.store.FinishWorkflow(ctx, *t.WorkflowID, store.WorkflowFailed,
			map[string]any{"rollback": true, "failedTask": t.ID, "skill": t.SkillName}, time.Time{}); err != nil {
			d.log.Error(ctx, "recovery: rollback workflow failed", "workflowId", *t.WorkflowID, "error", err)
		}
	}
	if err := d.store.SkipTask(ctx, t.ID, "rolled back: critical skill exceeded retry budget"); err != nil {
		d.log.Error(ctx, "recovery: mark rolled-back task failed", "taskId", t.ID, "error", err)
	}
	d.metrics.IncCounter("recovery_strategy_total", "strategy", "rollback", "role", t.AgentRole, "skill", t.SkillName)
}

// recoverWorkflows implements the "checkpoint" strategy: a running
// Workflow whose checkpoint has not advanced within StaleAfter() is
// presumed crashed and resumed at its current_stage.
func (d *Daemon) recoverWorkflows(ctx context.Context) error {
	wf, err := d.store.GetRunningWorkflow(ctx)
	if err != nil {
		if err == store.ErrWorkflowNotFound {
			return nil
		}
		return err
	}
	if d.clock.Now().Sub(wf.UpdatedAt) < d.resumer.StaleAfter() {
		return nil
	}
	d.log.Info(ctx, "recovery: resuming stale workflow", "workflowId", wf.ID, "stage", wf.CurrentStage)
	d.metrics.IncCounter("recovery_strategy_total", "strategy", "checkpoint", "stage", string(wf.CurrentStage))
	return d.resumer.Resume(ctx, wf.ID)
}

// criticalRoles are the skills whose exhaustion triggers rollback rather
// than skip — only Retrieval sits upstream of every later stage (§4.6 edge
// cases: "a peer agent being unreachable... for a critical stage
// (Retrieval) triggers rollback").
var criticalRoles = map[string]bool{
	string(config.RoleRetrieval): true,
}

type strategy int

const (
	strategyRetry strategy = iota
	strategySkip
	strategyRollback
	strategyManual
)

func strategyFor(t *types.Task) strategy {
	if t.WorkflowID == nil {
		return strategyManual
	}
	if t.RetryCount < t.MaxRetries {
		return strategyRetry
	}
	if criticalRoles[t.AgentRole] {
		return strategyRollback
	}
	return strategySkip
}
