package recovery

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/JyX33/agentic-technical-watch-sub000/internal/config"
	"github.com/JyX33/agentic-technical-watch-sub000/pkg/a2a/types"
)

func TestStrategyFor_NoWorkflowIDIsManual(t *testing.T) {
	task := &types.Task{WorkflowID: nil}
	assert.Equal(t, strategyManual, strategyFor(task))
}

func TestStrategyFor_UnderRetryBudgetIsRetry(t *testing.T) {
	wfID := "wf-1"
	task := &types.Task{WorkflowID: &wfID, RetryCount: 0, MaxRetries: 3, AgentRole: string(config.RoleFilter)}
	assert.Equal(t, strategyRetry, strategyFor(task))
}

func TestStrategyFor_ExhaustedNonCriticalSkillIsSkip(t *testing.T) {
	wfID := "wf-1"
	task := &types.Task{WorkflowID: &wfID, RetryCount: 3, MaxRetries: 3, AgentRole: string(config.RoleFilter)}
	assert.Equal(t, strategySkip, strategyFor(task))
}

func TestStrategyFor_ExhaustedCriticalSkillIsRollback(t *testing.T) {
	wfID := "wf-1"
	task := &types.Task{WorkflowID: &wfID, RetryCount: 3, MaxRetries: 3, AgentRole: string(config.RoleRetrieval)}
	assert.Equal(t, strategyRollback, strategyFor(task))
}

func TestStrategyFor_ExhaustedSummariseOrAlertIsSkipNotRollback(t *testing.T) {
	wfID := "wf-1"
	for _, role := range []config.Role{config.RoleSummarise, config.RoleAlert} {
		task := &types.Task{WorkflowID: &wfID, RetryCount: 5, MaxRetries: 5, AgentRole: string(role)}
		assert.Equal(t, strategySkip, strategyFor(task), "role %s should skip, not rollback", role)
	}
}

func TestStrategyFor_RetryCountAboveMaxIsStillExhausted(t *testing.T) {
	wfID := "wf-1"
	task := &types.Task{WorkflowID: &wfID, RetryCount: 10, MaxRetries: 3, AgentRole: string(config.RoleFilter)}
	assert.Equal(t, strategySkip, strategyFor(task))
}
