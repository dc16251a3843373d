package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTaskStatus_IsTerminal(t *testing.T) {
	assert.False(t, TaskPending.IsTerminal())
	assert.False(t, TaskRunning.IsTerminal())
	assert.True(t, TaskCompleted.IsTerminal())
	assert.True(t, TaskFailed.IsTerminal())
	assert.True(t, TaskCancelled.IsTerminal())
}

func TestTaskStatus_CanTransition(t *testing.T) {
	tests := []struct {
		from, to TaskStatus
		want     bool
	}{
		{TaskPending, TaskRunning, true},
		{TaskPending, TaskCancelled, true},
		{TaskPending, TaskCompleted, false},
		{TaskRunning, TaskCompleted, true},
		{TaskRunning, TaskFailed, true},
		{TaskRunning, TaskCancelled, true},
		{TaskRunning, TaskPending, false},
		{TaskCompleted, TaskRunning, false},
		{TaskFailed, TaskRunning, false},
		{TaskCancelled, TaskRunning, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.from.CanTransition(tt.to), "%s -> %s", tt.from, tt.to)
	}
}

func TestTask_Transition(t *testing.T) {
	task := NewTask("t1", Params{"k": "v"})
	assert.Equal(t, TaskPending, task.Status)
	created := task.UpdateTime

	time.Sleep(time.Millisecond)
	assert.True(t, task.Transition(TaskRunning))
	assert.Equal(t, TaskRunning, task.Status)
	assert.True(t, task.UpdateTime.After(created), "UpdateTime must advance on transition")

	assert.False(t, task.Transition(TaskPending))
	assert.Equal(t, TaskRunning, task.Status)

	assert.True(t, task.Transition(TaskCompleted))
	assert.False(t, task.Transition(TaskFailed), "terminal states are final")
}

func TestTask_Clone(t *testing.T) {
	task := NewTask("t1", nil)
	cp := task.Clone()
	cp.Status = TaskFailed
	assert.Equal(t, TaskPending, task.Status)
}
