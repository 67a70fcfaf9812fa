package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// WorkflowStatus enumerates a Workflow row's lifecycle state.
type WorkflowStatus string

const (
	WorkflowPending   WorkflowStatus = "pending"
	WorkflowRunning   WorkflowStatus = "running"
	WorkflowCompleted WorkflowStatus = "completed"
	WorkflowFailed    WorkflowStatus = "failed"
	WorkflowPartial   WorkflowStatus = "partial"
)

// Stage enumerates the Coordinator's pipeline stages (§4.6).
type Stage string

const (
	StageIdle        Stage = "idle"
	StageCollecting  Stage = "collecting"
	StageFiltering   Stage = "filtering"
	StageSummarising Stage = "summarising"
	StageAlerting    Stage = "alerting"
	StageCompleted   Stage = "completed"
)

// Checkpoint is the JSON blob persisted per workflow recording stage
// progress for crash recovery (§4.6 step 7).
type Checkpoint struct {
	Stage          Stage    `json:"stage"`
	CompletedItems int      `json:"completedItems"`
	PendingItems   int      `json:"pendingItems"`
}

// Workflow is one monitoring cycle.
type Workflow struct {
	ID           string
	Type         string
	Status       WorkflowStatus
	Config       json.RawMessage
	LastRunAt    *time.Time
	NextRunAt    *time.Time
	CurrentStage Stage
	Checkpoint   Checkpoint
	Metrics      map[string]any
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (s *Store) CreateWorkflow(ctx context.Context, id string, config json.RawMessage) (*Workflow, error) {
	row := s.Pool.QueryRow(ctx, `
		INSERT INTO workflows (id, type, status, config, current_stage, checkpoint, metrics)
		VALUES ($1, 'monitoring_cycle', $2, $3, $4, '{}', '{}')
		RETURNING id, type, status, config, last_run_at, next_run_at, current_stage, checkpoint, metrics, created_at, updated_at
	`, id, WorkflowRunning, config, StageCollecting)
	return scanWorkflow(row)
}

func (s *Store) GetWorkflow(ctx context.Context, id string) (*Workflow, error) {
	row := s.Pool.QueryRow(ctx, `
		SELECT id, type, status, config, last_run_at, next_run_at, current_stage, checkpoint, metrics, created_at, updated_at
		FROM workflows WHERE id = $1
	`, id)
	return scanWorkflow(row)
}

// GetRunningWorkflow returns the most recently created running workflow, if
// any — used by the recovery daemon to find a crashed-mid-cycle workflow on
// restart (§4.6 edge case).
func (s *Store) GetRunningWorkflow(ctx context.Context) (*Workflow, error) {
	row := s.Pool.QueryRow(ctx, `
		SELECT id, type, status, config, last_run_at, next_run_at, current_stage, checkpoint, metrics, created_at, updated_at
		FROM workflows WHERE status = $1 ORDER BY created_at DESC LIMIT 1
	`, WorkflowRunning)
	return scanWorkflow(row)
}

var ErrWorkflowNotFound = errors.New("store: workflow not found")

func scanWorkflow(row pgx.Row) (*Workflow, error) {
	var w Workflow
	var checkpoint, metrics []byte
	err := row.Scan(&w.ID, &w.Type, &w.Status, &w.Config, &w.LastRunAt, &w.NextRunAt,
		&w.CurrentStage, &checkpoint, &metrics, &w.CreatedAt, &w.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrWorkflowNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan workflow: %w", err)
	}
	if len(checkpoint) > 0 {
		_ = json.Unmarshal(checkpoint, &w.Checkpoint)
	}
	if len(metrics) > 0 {
		_ = json.Unmarshal(metrics, &w.Metrics)
	}
	return &w, nil
}

// AdvanceStage atomically moves the workflow to stage and persists its
// checkpoint, implementing §4.6 step 7: the checkpoint write and the stage
// transition happen in the same statement so a crash can never observe one
// without the other.
func (s *Store) AdvanceStage(ctx context.Context, workflowID string, stage Stage, checkpoint Checkpoint) error {
	raw, err := json.Marshal(checkpoint)
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}
	_, err = s.Pool.Exec(ctx, `
		UPDATE workflows SET current_stage = $2, checkpoint = $3, updated_at = now() WHERE id = $1
	`, workflowID, stage, raw)
	return err
}

func (s *Store) FinishWorkflow(ctx context.Context, workflowID string, status WorkflowStatus, metrics map[string]any, nextRunAt time.Time) error {
	raw, err := json.Marshal(metrics)
	if err != nil {
		return fmt.Errorf("marshal metrics: %w", err)
	}
	_, err = s.Pool.Exec(ctx, `
		UPDATE workflows SET status = $2, current_stage = $3, metrics = $4, last_run_at = now(),
			next_run_at = $5, updated_at = now()
		WHERE id = $1
	`, workflowID, status, StageCompleted, raw, nextRunAt)
	return err
}
