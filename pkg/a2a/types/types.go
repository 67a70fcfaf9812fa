// Package types defines the A2A-dialect JSON-RPC wire types shared by every
// agent: the message/send envelope, the persisted Task snapshot returned by
// tasks/get, and the agent-card discovery document. Field names use
// camelCase JSON tags to match the wider A2A ecosystem convention.
package types

import (
	"encoding/json"
	"time"
)

// SendMessagePayload is the params object for method "message/send". Params
// name the skill to invoke on the receiving agent along with its JSON
// parameters; WorkflowID and CorrelationID thread a request through the
// Coordinator's workflow and are optional for direct/ad-hoc calls.
type SendMessagePayload struct {
	AgentRole     string          `json:"agentRole"`
	SkillName     string          `json:"skillName"`
	Parameters    json.RawMessage `json:"parameters"`
	WorkflowID    *string         `json:"workflowId,omitempty"`
	CorrelationID *string         `json:"correlationId,omitempty"`
}

// GetTaskPayload is the params object for "tasks/get".
type GetTaskPayload struct {
	ID string `json:"id"`
}

// CancelTaskPayload is the params object for "tasks/cancel".
type CancelTaskPayload struct {
	ID string `json:"id"`
}

// TaskStatusValue enumerates the lifecycle states of a Task row.
type TaskStatusValue string

const (
	TaskSubmitted    TaskStatusValue = "submitted"
	TaskWorking      TaskStatusValue = "working"
	TaskCompleted    TaskStatusValue = "completed"
	TaskFailed       TaskStatusValue = "failed"
	TaskCancelled    TaskStatusValue = "cancelled"
	TaskRetryPending TaskStatusValue = "retry_pending"
	TaskStuck        TaskStatusValue = "stuck"
	TaskSkipped      TaskStatusValue = "skipped"
)

// Task is the wire and persisted representation of one skill invocation.
type Task struct {
	ID             string          `json:"id"`
	WorkflowID     *string         `json:"workflowId,omitempty"`
	AgentRole      string          `json:"agentRole"`
	SkillName      string          `json:"skillName"`
	Parameters     json.RawMessage `json:"parameters,omitempty"`
	ParametersHash string          `json:"parametersHash,omitempty"`
	Status         TaskStatusValue `json:"status"`
	Priority       int             `json:"priority"`
	RetryCount     int             `json:"retryCount"`
	MaxRetries     int             `json:"maxRetries"`
	NextRetryAt    *time.Time      `json:"nextRetryAt,omitempty"`
	CorrelationID  string          `json:"correlationId"`
	Result         json.RawMessage `json:"result,omitempty"`
	Error          *string         `json:"error,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
	CompletedAt    *time.Time      `json:"completedAt,omitempty"`
}

// IsTerminal reports whether the task has reached a state from which it
// will never transition again under normal operation.
func (t *Task) IsTerminal() bool {
	switch t.Status {
	case TaskCompleted, TaskFailed, TaskCancelled, TaskSkipped:
		return true
	default:
		return false
	}
}

// AgentCard is the static self-description served at
// /.well-known/agent.json.
type AgentCard struct {
	ProtocolVersion string          `json:"protocolVersion"`
	Name            string          `json:"name"`
	Description     string          `json:"description,omitempty"`
	URL             string          `json:"url"`
	Version         string          `json:"version"`
	Provider        *AgentProvider  `json:"provider,omitempty"`
	Skills          []*Skill        `json:"skills"`
}

type AgentProvider struct {
	Organization string `json:"organization"`
	URL          string `json:"url,omitempty"`
}

// Skill describes one named handler an agent exposes over message/send.
type Skill struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Tags        []string        `json:"tags,omitempty"`
	InputModes  []string        `json:"inputModes,omitempty"`
	OutputModes []string        `json:"outputModes,omitempty"`
	Examples    []string        `json:"examples,omitempty"`
	Parameters  json.RawMessage `json:"parameters,omitempty"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status       string            `json:"status"`
	Role         string            `json:"role"`
	Version      string            `json:"version"`
	Dependencies map[string]string `json:"dependencies"`
}

// DiscoverResponse is the body of GET /discover.
type DiscoverResponse struct {
	Agents map[string]RegistryEntry `json:"agents"`
}

// RegistryEntry is the value stored under registry:<role> in the KV store.
type RegistryEntry struct {
	URL          string    `json:"url"`
	Version      string    `json:"version"`
	Capabilities []string  `json:"capabilities,omitempty"`
	StartedAt    time.Time `json:"startedAt"`
}
