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

// Package scheduler manages the service's named cron jobs.
package scheduler

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/go-arcade/autopush/internal/model"
	"github.com/go-arcade/autopush/pkg/log"
	"github.com/go-arcade/autopush/pkg/safe"
)

// Config holds the cron expressions for the built-in jobs.
type Config struct {
	PushSpec    string // daily produce-and-publish run
	HealthSpec  string // periodic health probe
	CleanupSpec string // history retention sweep
	FastSpec    string // extra frequent trigger, non-release mode only
}

// SetDefaults returns the default schedule.
func SetDefaults() Config {
	return Config{
		PushSpec:    "0 21 * * *",
		HealthSpec:  "0 * * * *",
		CleanupSpec: "30 3 * * *",
		FastSpec:    "*/10 * * * *",
	}
}

// Scheduler is a named-job wrapper around a cron runner. Jobs can be added
// and removed while the scheduler is running.
type Scheduler struct {
	mu        sync.Mutex
	cron      *cron.Cron
	entries   map[string]cron.EntryID
	running   bool
	startedAt time.Time
}

// New creates a stopped scheduler.
func New() *Scheduler {
	return &Scheduler{
		cron:    cron.New(),
		entries: make(map[string]cron.EntryID),
	}
}

// AddTask registers fn under name with the given cron spec. Registering an
// existing name replaces the previous job. The job body is panic-safe; a
// panicking run is logged and the schedule keeps going.
func (s *Scheduler) AddTask(name, spec string, fn func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if old, ok := s.entries[name]; ok {
		s.cron.Remove(old)
		log.Warnw("replacing scheduled job", "name", name)
	}

	entryID, err := s.cron.AddFunc(spec, func() {
		log.Debugw("scheduled job fired", "name", name)
		safe.Do(fn)
	})
	if err != nil {
		return fmt.Errorf("add job %q with spec %q: %w", name, spec, err)
	}

	s.entries[name] = entryID
	log.Infow("scheduled job registered", "name", name, "spec", spec)
	return nil
}

// RemoveTask unregisters the named job. Removing an unknown name is a no-op.
func (s *Scheduler) RemoveTask(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entryID, ok := s.entries[name]
	if !ok {
		log.Warnw("remove of unknown scheduled job", "name", name)
		return
	}
	s.cron.Remove(entryID)
	delete(s.entries, name)
	log.Infow("scheduled job removed", "name", name)
}

// Start begins firing jobs. Starting a running scheduler is a logged no-op.
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		log.Warn("scheduler already running")
		return
	}
	s.cron.Start()
	s.running = true
	s.startedAt = time.Now()
	log.Infow("scheduler started", "jobs", len(s.entries))
}

// Stop stops firing jobs, waits for in-flight job bodies to return and
// removes every registered trigger. Stopping a stopped scheduler is a
// logged no-op.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		log.Warn("scheduler not running")
		return
	}
	ctx := s.cron.Stop()
	<-ctx.Done()
	for name, entryID := range s.entries {
		s.cron.Remove(entryID)
		delete(s.entries, name)
	}
	s.running = false
	log.Info("scheduler stopped, all triggers removed")
}

// Status reports the scheduler state.
func (s *Scheduler) Status() model.SchedulerStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	names := make([]string, 0, len(s.entries))
	for name := range s.entries {
		names = append(names, name)
	}
	sort.Strings(names)

	st := model.SchedulerStatus{
		IsRunning: s.running,
		TaskCount: len(s.entries),
		TaskNames: names,
	}
	if s.running {
		st.Uptime = time.Since(s.startedAt).Seconds()
	}
	return st
}
