package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/JyX33/agentic-technical-watch-sub000/pkg/a2a/types"
)

// InsertTaskOrGetExisting implements the task idempotency rule of §4.4: it
// attempts to insert a new task row under the unique
// (workflow_id, agent_role, skill_name, parameters_hash) tuple; on
// conflict it returns the pre-existing row instead (whether terminal or
// still in-flight) rather than ever executing the skill twice. The boolean
// return reports whether a fresh row was inserted (true) or an existing row
// was returned (false) — callers use this to decide whether to run the
// skill body at all.
func (s *Store) InsertTaskOrGetExisting(ctx context.Context, t *types.Task) (*types.Task, bool, error) {
	row := s.Pool.QueryRow(ctx, `
		INSERT INTO tasks (id, workflow_id, agent_role, skill_name, parameters, parameters_hash,
			status, priority, max_retries, correlation_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now(), now())
		ON CONFLICT (workflow_id, agent_role, skill_name, parameters_hash) DO NOTHING
		RETURNING id, status, created_at, updated_at
	`, t.ID, t.WorkflowID, t.AgentRole, t.SkillName, t.Parameters, t.ParametersHash,
		t.Status, t.Priority, t.MaxRetries, t.CorrelationID)

	var id string
	var status types.TaskStatusValue
	var createdAt, updatedAt time.Time
	err := row.Scan(&id, &status, &createdAt, &updatedAt)
	if err == nil {
		t.ID, t.Status, t.CreatedAt, t.UpdatedAt = id, status, createdAt, updatedAt
		return t, true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, false, fmt.Errorf("insert task: %w", err)
	}

	existing, err := s.GetTaskByIdempotencyKey(ctx, t.WorkflowID, t.AgentRole, t.SkillName, t.ParametersHash)
	if err != nil {
		return nil, false, fmt.Errorf("load existing task after conflict: %w", err)
	}
	return existing, false, nil
}

func (s *Store) GetTaskByIdempotencyKey(ctx context.Context, workflowID *string, agentRole, skillName, parametersHash string) (*types.Task, error) {
	row := s.Pool.QueryRow(ctx, `
		SELECT id, workflow_id, agent_role, skill_name, parameters, parameters_hash, status,
			priority, retry_count, max_retries, next_retry_at, correlation_id, result, error,
			created_at, updated_at, completed_at
		FROM tasks
		WHERE workflow_id IS NOT DISTINCT FROM $1 AND agent_role = $2 AND skill_name = $3 AND parameters_hash = $4
	`, workflowID, agentRole, skillName, parametersHash)
	return scanTask(row)
}

func (s *Store) GetTask(ctx context.Context, id string) (*types.Task, error) {
	row := s.Pool.QueryRow(ctx, `
		SELECT id, workflow_id, agent_role, skill_name, parameters, parameters_hash, status,
			priority, retry_count, max_retries, next_retry_at, correlation_id, result, error,
			created_at, updated_at, completed_at
		FROM tasks WHERE id = $1
	`, id)
	return scanTask(row)
}

// ErrTaskNotFound is returned by GetTask when no row matches.
var ErrTaskNotFound = errors.New("store: task not found")

func scanTask(row pgx.Row) (*types.Task, error) {
	var t types.Task
	var result, parameters []byte
	var errText *string
	err := row.Scan(&t.ID, &t.WorkflowID, &t.AgentRole, &t.SkillName, &parameters, &t.ParametersHash,
		&t.Status, &t.Priority, &t.RetryCount, &t.MaxRetries, &t.NextRetryAt, &t.CorrelationID,
		&result, &errText, &t.CreatedAt, &t.UpdatedAt, &t.CompletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan task: %w", err)
	}
	t.Parameters = parameters
	t.Result = result
	t.Error = errText
	return &t, nil
}

// CompleteTask persists a successful skill result and marks the task
// completed.
func (s *Store) CompleteTask(ctx context.Context, id string, result json.RawMessage) error {
	_, err := s.Pool.Exec(ctx, `
		UPDATE tasks SET status = $2, result = $3, updated_at = now(), completed_at = now()
		WHERE id = $1
	`, id, types.TaskCompleted, result)
	return err
}

// FailTask marks the task failed and, if retry budget remains, schedules a
// retry per §4.5's backoff(retry_count).
func (s *Store) FailTask(ctx context.Context, id string, errMsg string, backoff time.Duration) error {
	_, err := s.Pool.Exec(ctx, `
		UPDATE tasks SET
			error = $2,
			retry_count = retry_count + 1,
			status = CASE WHEN retry_count + 1 < max_retries THEN $3 ELSE $4 END,
			next_retry_at = CASE WHEN retry_count + 1 < max_retries THEN now() + $5::interval ELSE NULL END,
			updated_at = now(),
			completed_at = CASE WHEN retry_count + 1 < max_retries THEN NULL ELSE now() END
		WHERE id = $1
	`, id, errMsg, types.TaskRetryPending, types.TaskFailed, backoff.String())
	return err
}

// CancelTask moves a task to cancelled if it is still non-terminal,
// returning ErrTaskTerminal if it has already reached a terminal state.
var ErrTaskTerminal = errors.New("store: task already terminal")

func (s *Store) CancelTask(ctx context.Context, id string) error {
	tag, err := s.Pool.Exec(ctx, `
		UPDATE tasks SET status = $2, updated_at = now(), completed_at = now()
		WHERE id = $1 AND status IN ($3, $4)
	`, id, types.TaskCancelled, types.TaskSubmitted, types.TaskWorking)
	if err != nil {
		return fmt.Errorf("cancel task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		existing, getErr := s.GetTask(ctx, id)
		if getErr != nil {
			return getErr
		}
		if existing.IsTerminal() {
			return ErrTaskTerminal
		}
	}
	return nil
}

// SetWorking transitions a freshly-inserted task into the working state
// before its skill body runs.
func (s *Store) SetWorking(ctx context.Context, id string) error {
	_, err := s.Pool.Exec(ctx, `UPDATE tasks SET status = $2, updated_at = now() WHERE id = $1`, id, types.TaskWorking)
	return err
}

// SkipTask marks a non-critical task terminal without running it again,
// used by the recovery daemon's "skip" strategy (§4.5) once a task's
// retry budget is exhausted on a non-critical skill.
func (s *Store) SkipTask(ctx context.Context, id string, reason string) error {
	_, err := s.Pool.Exec(ctx, `
		UPDATE tasks SET status = $2, error = $3, updated_at = now(), completed_at = now() WHERE id = $1
	`, id, types.TaskSkipped, reason)
	return err
}

// DueForRecovery returns tasks in retry_pending or stuck whose next_retry_at
// has passed, for the recovery daemon to re-dispatch (§4.5).
func (s *Store) DueForRecovery(ctx context.Context, limit int) ([]*types.Task, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT id, workflow_id, agent_role, skill_name, parameters, parameters_hash, status,
			priority, retry_count, max_retries, next_retry_at, correlation_id, result, error,
			created_at, updated_at, completed_at
		FROM tasks
		WHERE status IN ($1, $2) AND (next_retry_at IS NULL OR next_retry_at <= now())
		ORDER BY next_retry_at NULLS FIRST
		LIMIT $3
	`, types.TaskRetryPending, types.TaskStuck, limit)
	if err != nil {
		return nil, fmt.Errorf("query due tasks: %w", err)
	}
	defer rows.Close()

	var out []*types.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
