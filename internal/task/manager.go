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

// Package task runs pipeline invocations asynchronously, tracks their
// lifecycle, and records every outcome in the history store.
package task

import (
	"context"
	"sync"
	"time"

	"github.com/go-arcade/autopush/internal/history"
	"github.com/go-arcade/autopush/internal/model"
	"github.com/go-arcade/autopush/internal/monitor"
	"github.com/go-arcade/autopush/internal/pipeline"
	"github.com/go-arcade/autopush/pkg/id"
	"github.com/go-arcade/autopush/pkg/log"
	"github.com/go-arcade/autopush/pkg/retry"
	"github.com/go-arcade/autopush/pkg/safe"
)

// Config controls task execution.
type Config struct {
	MaxRetries     int           // retries after the first attempt, default 3
	RetryBaseDelay time.Duration // first backoff delay, doubles per retry, default 2s
}

// SetDefaults returns the default task configuration.
func SetDefaults() Config {
	return Config{
		MaxRetries:     3,
		RetryBaseDelay: 2 * time.Second,
	}
}

// Manager owns the set of active tasks. Terminal records live only in the
// history store; the in-memory map holds pending and running tasks.
type Manager struct {
	mu     sync.RWMutex
	active map[string]*model.Task

	cfg   Config
	store history.Store
	mon   *monitor.Monitor
	pipe  pipeline.Pipeline
	wg    sync.WaitGroup
}

// NewManager wires the task manager to its collaborators.
func NewManager(cfg Config, store history.Store, mon *monitor.Monitor, pipe pipeline.Pipeline) *Manager {
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryBaseDelay <= 0 {
		cfg.RetryBaseDelay = 2 * time.Second
	}
	return &Manager{
		active: make(map[string]*model.Task),
		cfg:    cfg,
		store:  store,
		mon:    mon,
		pipe:   pipe,
	}
}

// Submit registers a new pending task and starts executing it asynchronously.
// It returns as soon as the task is registered; progress is observed through
// GetTask and the history store.
func (m *Manager) Submit(ctx context.Context, params model.Params) (*model.Task, error) {
	task := model.NewTask(id.GetUUID(), params)

	m.mu.Lock()
	m.active[task.ID] = task
	m.mu.Unlock()

	m.persist(ctx, task, true)
	log.Infow("task submitted", "task_id", task.ID)

	m.wg.Add(1)
	safe.Go(func() {
		defer m.wg.Done()
		m.execute(task.ID)
	})

	return task.Clone(), nil
}

// Cancel marks an active task cancelled. Cancellation is advisory: a running
// pipeline attempt finishes on its own, but its result is discarded.
// Cancelling a task that is not active returns history.ErrTaskNotFound.
func (m *Manager) Cancel(ctx context.Context, taskID string) (*model.Task, error) {
	m.mu.Lock()
	task, ok := m.active[taskID]
	if !ok {
		m.mu.Unlock()
		return nil, history.ErrTaskNotFound
	}
	task.Transition(model.TaskCancelled)
	delete(m.active, taskID)
	snapshot := task.Clone()
	m.mu.Unlock()

	m.persist(ctx, snapshot, false)
	log.Infow("task cancelled", "task_id", taskID)
	return snapshot, nil
}

// GetTask returns the live task when active, otherwise the stored record.
func (m *Manager) GetTask(ctx context.Context, taskID string) (*model.Task, error) {
	m.mu.RLock()
	task, ok := m.active[taskID]
	if ok {
		snapshot := task.Clone()
		m.mu.RUnlock()
		return snapshot, nil
	}
	m.mu.RUnlock()

	return m.store.GetTaskByID(ctx, taskID)
}

// ActiveCount returns the number of pending and running tasks.
func (m *Manager) ActiveCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.active)
}

// Wait blocks until all in-flight task goroutines have finished. Used on
// shutdown and in tests.
func (m *Manager) Wait() {
	m.wg.Wait()
}

// execute drives one task from pending to a terminal state.
func (m *Manager) execute(taskID string) {
	ctx := context.Background()

	m.mu.Lock()
	task, ok := m.active[taskID]
	if !ok || !task.Transition(model.TaskRunning) {
		// Cancelled before it started.
		m.mu.Unlock()
		log.Infow("task no longer runnable, skipping execution", "task_id", taskID)
		return
	}
	params := task.Params
	snapshot := task.Clone()
	m.mu.Unlock()

	m.persist(ctx, snapshot, false)

	res, attempts, runErr := m.runWithRetry(ctx, taskID, params)

	m.mu.Lock()
	task, ok = m.active[taskID]
	if !ok {
		// Cancelled while running: the record is already terminal, drop the
		// late result.
		m.mu.Unlock()
		log.Warnw("task finished after cancellation, discarding result", "task_id", taskID)
		return
	}

	if runErr != nil {
		res = &model.PipelineResult{
			Success:   false,
			Message:   runErr.Error(),
			Timestamp: time.Now(),
			Error: &model.ErrorDetail{
				Type:      "task",
				Message:   runErr.Error(),
				Timestamp: time.Now(),
			},
		}
	}
	res.Retries = attempts - 1

	task.Result = res
	next := model.TaskCompleted
	if runErr != nil {
		next = model.TaskFailed
	}
	task.Transition(next)
	delete(m.active, taskID)
	snapshot = task.Clone()
	m.mu.Unlock()

	m.persist(ctx, snapshot, false)

	if res.CrawlSuccess > 0 || res.CrawlFailed > 0 {
		m.mon.UpdateCrawlStatus(monitor.CrawlResult{Success: res.CrawlSuccess, Failed: res.CrawlFailed})
	}
	m.mon.UpdatePushStatus(res)

	log.Infow("task finished",
		"task_id", taskID,
		"status", snapshot.Status,
		"retries", res.Retries,
	)
}

// runWithRetry runs the pipeline with bounded exponential backoff. Attempts
// include the first one; retries consumed is attempts-1.
func (m *Manager) runWithRetry(ctx context.Context, taskID string, params model.Params) (*model.PipelineResult, int, error) {
	var res *model.PipelineResult
	attempts, err := retry.DoWithReport(ctx, func(ctx context.Context) error {
		r, err := m.pipe.Run(ctx, params)
		if err != nil {
			return err
		}
		res = r
		return nil
	},
		retry.WithMaxAttempts(m.cfg.MaxRetries+1),
		retry.WithBackoff(retry.Exponential(m.cfg.RetryBaseDelay)),
		retry.WithOnRetry(func(attempt int, err error, wait time.Duration) {
			log.Warnw("pipeline attempt failed, retrying",
				"task_id", taskID,
				"attempt", attempt,
				"wait", wait,
				"error", err,
			)
		}),
	)
	return res, attempts, err
}

// persist writes the record to the history store. Persistence failures are
// logged and swallowed: task execution never depends on the store being up.
func (m *Manager) persist(ctx context.Context, task *model.Task, create bool) {
	var err error
	if create {
		err = m.store.SaveTask(ctx, task)
	} else {
		err = m.store.UpdateTask(ctx, task)
	}
	if err != nil {
		log.Errorw("failed to persist task record",
			"task_id", task.ID,
			"status", task.Status,
			"error", err,
		)
	}
}
