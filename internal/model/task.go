// Copyright 2025 Arcade Team
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package model

import "time"

// TaskStatus is the lifecycle state of a push task.
type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskRunning   TaskStatus = "running"
	TaskCompleted TaskStatus = "completed"
	TaskFailed    TaskStatus = "failed"
	TaskCancelled TaskStatus = "cancelled"
)

// IsTerminal reports whether the status is a terminal state.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskCompleted || s == TaskFailed || s == TaskCancelled
}

// Valid reports whether the status is one of the known states.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskPending, TaskRunning, TaskCompleted, TaskFailed, TaskCancelled:
		return true
	}
	return false
}

// CanTransition reports whether a transition from s to next is allowed.
//
//	pending -> running | cancelled
//	running -> completed | failed | cancelled
func (s TaskStatus) CanTransition(next TaskStatus) bool {
	switch s {
	case TaskPending:
		return next == TaskRunning || next == TaskCancelled
	case TaskRunning:
		return next == TaskCompleted || next == TaskFailed || next == TaskCancelled
	}
	return false
}

// Params are the caller-supplied invocation parameters, forwarded opaquely to
// the pipeline.
type Params map[string]any

// Task is one tracked invocation of the push pipeline.
type Task struct {
	ID         string          `json:"id"`
	Status     TaskStatus      `json:"status"`
	CreateTime time.Time       `json:"createTime"`
	UpdateTime time.Time       `json:"updateTime"`
	Params     Params          `json:"params,omitempty"`
	Result     *PipelineResult `json:"result,omitempty"`
}

// NewTask creates a pending task with the given id and params.
func NewTask(id string, params Params) *Task {
	now := time.Now()
	return &Task{
		ID:         id,
		Status:     TaskPending,
		CreateTime: now,
		UpdateTime: now,
		Params:     params,
	}
}

// Transition moves the task to the next status and advances UpdateTime.
// Illegal transitions are refused.
func (t *Task) Transition(next TaskStatus) bool {
	if !t.Status.CanTransition(next) {
		return false
	}
	t.Status = next
	t.UpdateTime = time.Now()
	return true
}

// Clone returns a deep-enough copy for handing records across ownership
// boundaries. Params and Result are treated as immutable once set.
func (t *Task) Clone() *Task {
	cp := *t
	return &cp
}
