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

// Package history persists task records independently of process lifetime.
package history

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-arcade/autopush/internal/model"
)

// ErrTaskNotFound is returned when no record exists for the queried id.
var ErrTaskNotFound = errors.New("task not found")

// Config selects and configures the history backend.
type Config struct {
	Backend       string // "file" (default) or "mysql"
	Dir           string // file backend: directory holding the history file
	DSN           string // mysql backend: gorm DSN
	RetentionDays int    // records older than this are swept, default 30
}

// SetDefaults returns the default history configuration.
func SetDefaults() Config {
	return Config{
		Backend:       "file",
		Dir:           "./history",
		RetentionDays: 30,
	}
}

// Query selects a page of history records.
type Query struct {
	Page   int
	Limit  int
	Status model.TaskStatus // empty matches all
}

// Page is one page of history records, ordered by create time descending.
type Page struct {
	Total int          `json:"total"`
	Page  int          `json:"page"`
	Limit int          `json:"limit"`
	Pages int          `json:"pages"`
	Data  []model.Task `json:"data"`
}

// Stats counts records per status.
type Stats struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Running   int `json:"running"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
	Cancelled int `json:"cancelled"`
}

// Store is the durable, queryable log of task records.
//
// SaveTask and UpdateTask are idempotent with respect to retries: re-issuing
// an update with the same payload yields the same stored state. Updating an
// unknown id is a logged no-op, never an error.
type Store interface {
	SaveTask(ctx context.Context, task *model.Task) error
	UpdateTask(ctx context.Context, task *model.Task) error
	GetTaskByID(ctx context.Context, id string) (*model.Task, error)
	GetHistory(ctx context.Context, q Query) (*Page, error)
	StatusStats(ctx context.Context) (*Stats, error)
	CleanupOldRecords(ctx context.Context, retentionDays int) (int, error)
	Close() error
}

// New opens the store selected by cfg.Backend.
func New(cfg Config) (Store, error) {
	switch cfg.Backend {
	case "", "file":
		return NewFileStore(cfg.Dir)
	case "mysql":
		return NewMySQLStore(cfg.DSN)
	default:
		return nil, fmt.Errorf("unknown history backend %q", cfg.Backend)
	}
}

func (q Query) normalize() Query {
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.Limit <= 0 {
		q.Limit = 10
	}
	return q
}

func pageCount(total, limit int) int {
	if total == 0 {
		return 0
	}
	return (total + limit - 1) / limit
}
