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

package history

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/go-arcade/autopush/internal/model"
	"github.com/go-arcade/autopush/pkg/log"
)

const historyFilename = "push_history.json"

// FileStore keeps the full record set in a single JSON file, one entry per
// task id, rewritten on every mutation. Reads are served from memory.
type FileStore struct {
	mu      sync.RWMutex
	path    string
	records []model.Task
}

// NewFileStore opens (or creates) the history file under dir.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		dir = "./history"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create history dir: %w", err)
	}

	s := &FileStore{path: filepath.Join(dir, historyFilename)}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *FileStore) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			s.records = []model.Task{}
			return s.flush(s.records)
		}
		return fmt.Errorf("read history file: %w", err)
	}
	if len(data) == 0 {
		s.records = []model.Task{}
		return nil
	}
	if err := json.Unmarshal(data, &s.records); err != nil {
		return fmt.Errorf("parse history file: %w", err)
	}
	return nil
}

// flush rewrites the backing file with the given record set. Caller must
// hold the write lock.
func (s *FileStore) flush(records []model.Task) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write history file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace history file: %w", err)
	}
	return nil
}

// SaveTask appends a new record.
func (s *FileStore) SaveTask(_ context.Context, task *model.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := append(s.records, *task.Clone())
	if err := s.flush(next); err != nil {
		return err
	}
	s.records = next
	return nil
}

// UpdateTask overwrites the record with the same id. Unknown ids are a
// logged no-op.
func (s *FileStore) UpdateTask(_ context.Context, task *model.Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.records {
		if s.records[i].ID == task.ID {
			s.records[i] = *task.Clone()
			return s.flush(s.records)
		}
	}
	log.Warnw("update for unknown task record", "task_id", task.ID)
	return nil
}

// GetTaskByID returns the latest record for the id.
func (s *FileStore) GetTaskByID(_ context.Context, id string) (*model.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := range s.records {
		if s.records[i].ID == id {
			return s.records[i].Clone(), nil
		}
	}
	return nil, ErrTaskNotFound
}

// GetHistory returns a page of records ordered by create time descending.
func (s *FileStore) GetHistory(_ context.Context, q Query) (*Page, error) {
	q = q.normalize()

	s.mu.RLock()
	filtered := make([]model.Task, 0, len(s.records))
	for i := range s.records {
		if q.Status != "" && s.records[i].Status != q.Status {
			continue
		}
		filtered = append(filtered, s.records[i])
	}
	s.mu.RUnlock()

	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].CreateTime.After(filtered[j].CreateTime)
	})

	total := len(filtered)
	start := (q.Page - 1) * q.Limit
	if start > total {
		start = total
	}
	end := start + q.Limit
	if end > total {
		end = total
	}

	return &Page{
		Total: total,
		Page:  q.Page,
		Limit: q.Limit,
		Pages: pageCount(total, q.Limit),
		Data:  filtered[start:end],
	}, nil
}

// StatusStats counts records per status.
func (s *FileStore) StatusStats(_ context.Context) (*Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &Stats{Total: len(s.records)}
	for i := range s.records {
		switch s.records[i].Status {
		case model.TaskPending:
			stats.Pending++
		case model.TaskRunning:
			stats.Running++
		case model.TaskCompleted:
			stats.Completed++
		case model.TaskFailed:
			stats.Failed++
		case model.TaskCancelled:
			stats.Cancelled++
		}
	}
	return stats, nil
}

// CleanupOldRecords drops records created before the retention cutoff and
// returns the number removed.
func (s *FileStore) CleanupOldRecords(_ context.Context, retentionDays int) (int, error) {
	if retentionDays <= 0 {
		retentionDays = 30
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	s.mu.Lock()
	defer s.mu.Unlock()

	kept := make([]model.Task, 0, len(s.records))
	for i := range s.records {
		if !s.records[i].CreateTime.Before(cutoff) {
			kept = append(kept, s.records[i])
		}
	}
	removed := len(s.records) - len(kept)
	if removed == 0 {
		return 0, nil
	}

	// Commit to memory only after the file write succeeded, so a failed
	// flush leaves memory and disk in agreement.
	if err := s.flush(kept); err != nil {
		return 0, err
	}
	s.records = kept
	return removed, nil
}

// Close is a no-op for the file backend.
func (s *FileStore) Close() error {
	return nil
}
