package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// AgentState is a durable snapshot row for one agent role, shaped after its
// registry entry (§3: the registry itself is disposable; an AgentState row
// survives a Redis flush). The registry heartbeat does not write these
// rows: UpsertAgentState is their only writer, and nothing in the module
// calls it.
type AgentState struct {
	AgentRole     string
	Status        string
	CurrentTaskID *string
	HeartbeatAt   time.Time
	Capabilities  []string
}

// UpsertAgentState writes the latest snapshot for a role, overwriting
// whatever was there before — there is exactly one row per agent_role.
func (s *Store) UpsertAgentState(ctx context.Context, st *AgentState) error {
	caps, err := json.Marshal(st.Capabilities)
	if err != nil {
		return fmt.Errorf("marshal capabilities: %w", err)
	}
	_, err = s.Pool.Exec(ctx, `
		INSERT INTO agent_states (agent_role, status, current_task_id, heartbeat_at, capabilities)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (agent_role) DO UPDATE SET
			status = $2, current_task_id = $3, heartbeat_at = $4, capabilities = $5
	`, st.AgentRole, st.Status, st.CurrentTaskID, st.HeartbeatAt, caps)
	if err != nil {
		return fmt.Errorf("upsert agent state: %w", err)
	}
	return nil
}

func (s *Store) GetAgentState(ctx context.Context, role string) (*AgentState, error) {
	row := s.Pool.QueryRow(ctx, `
		SELECT agent_role, status, current_task_id, heartbeat_at, capabilities
		FROM agent_states WHERE agent_role = $1
	`, role)
	var st AgentState
	var caps []byte
	if err := row.Scan(&st.AgentRole, &st.Status, &st.CurrentTaskID, &st.HeartbeatAt, &caps); err != nil {
		return nil, fmt.Errorf("get agent state: %w", err)
	}
	if err := json.Unmarshal(caps, &st.Capabilities); err != nil {
		return nil, fmt.Errorf("unmarshal capabilities: %w", err)
	}
	return &st, nil
}

// ListAgentStates returns every known role's last snapshot. Nothing in the
// module calls it; the Coordinator tracks its peer-unavailable budget in
// memory.
func (s *Store) ListAgentStates(ctx context.Context) ([]*AgentState, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT agent_role, status, current_task_id, heartbeat_at, capabilities
		FROM agent_states
	`)
	if err != nil {
		return nil, fmt.Errorf("list agent states: %w", err)
	}
	defer rows.Close()

	var out []*AgentState
	for rows.Next() {
		var st AgentState
		var caps []byte
		if err := rows.Scan(&st.AgentRole, &st.Status, &st.CurrentTaskID, &st.HeartbeatAt, &caps); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(caps, &st.Capabilities); err != nil {
			return nil, err
		}
		out = append(out, &st)
	}
	return out, rows.Err()
}
