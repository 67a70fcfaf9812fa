package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTask_IsTerminal(t *testing.T) {
	cases := map[TaskStatusValue]bool{
		TaskSubmitted:    false,
		TaskWorking:      false,
		TaskRetryPending: false,
		TaskStuck:        false,
		TaskCompleted:    true,
		TaskFailed:       true,
		TaskCancelled:    true,
		TaskSkipped:      true,
	}
	for status, want := range cases {
		task := &Task{Status: status}
		assert.Equal(t, want, task.IsTerminal(), "status %s", status)
	}
}
