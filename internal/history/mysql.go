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
	"errors"
	"fmt"
	"time"

	"github.com/go-arcade/autopush/internal/model"
	"github.com/go-arcade/autopush/pkg/log"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// taskRow is the gorm row shape for one task record. Params and Result are
// kept as serialized JSON so the schema stays stable while the payloads evolve.
type taskRow struct {
	ID         string    `gorm:"column:task_id;primaryKey;size:64"`
	Status     string    `gorm:"column:status;size:16;index"`
	CreateTime time.Time `gorm:"column:create_time;index"`
	UpdateTime time.Time `gorm:"column:update_time"`
	Params     string    `gorm:"column:params;type:text"`
	Result     string    `gorm:"column:result;type:text"`
}

func (taskRow) TableName() string {
	return "push_task_history"
}

// MySQLStore persists task records through gorm.
type MySQLStore struct {
	db *gorm.DB
}

// NewMySQLStore opens the database and migrates the history table.
func NewMySQLStore(dsn string) (*MySQLStore, error) {
	if dsn == "" {
		return nil, fmt.Errorf("mysql history backend requires a dsn")
	}
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("open mysql history store: %w", err)
	}
	if err := db.AutoMigrate(&taskRow{}); err != nil {
		return nil, fmt.Errorf("migrate history table: %w", err)
	}
	return &MySQLStore{db: db}, nil
}

func toRow(task *model.Task) (*taskRow, error) {
	params, err := json.Marshal(task.Params)
	if err != nil {
		return nil, fmt.Errorf("encode task params: %w", err)
	}
	result := ""
	if task.Result != nil {
		data, err := json.Marshal(task.Result)
		if err != nil {
			return nil, fmt.Errorf("encode task result: %w", err)
		}
		result = string(data)
	}
	return &taskRow{
		ID:         task.ID,
		Status:     string(task.Status),
		CreateTime: task.CreateTime,
		UpdateTime: task.UpdateTime,
		Params:     string(params),
		Result:     result,
	}, nil
}

func fromRow(row *taskRow) *model.Task {
	task := &model.Task{
		ID:         row.ID,
		Status:     model.TaskStatus(row.Status),
		CreateTime: row.CreateTime,
		UpdateTime: row.UpdateTime,
	}
	if row.Params != "" {
		if err := json.Unmarshal([]byte(row.Params), &task.Params); err != nil {
			log.Warnw("decode task params", "task_id", row.ID, "error", err)
		}
	}
	if row.Result != "" {
		if err := json.Unmarshal([]byte(row.Result), &task.Result); err != nil {
			log.Warnw("decode task result", "task_id", row.ID, "error", err)
		}
	}
	return task
}

// SaveTask inserts a new record.
func (s *MySQLStore) SaveTask(ctx context.Context, task *model.Task) error {
	row, err := toRow(task)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Create(row).Error
}

// UpdateTask overwrites the record with the same id. Unknown ids are a
// logged no-op.
func (s *MySQLStore) UpdateTask(ctx context.Context, task *model.Task) error {
	row, err := toRow(task)
	if err != nil {
		return err
	}
	res := s.db.WithContext(ctx).Model(&taskRow{}).Where("task_id = ?", row.ID).Updates(map[string]any{
		"status":      row.Status,
		"update_time": row.UpdateTime,
		"params":      row.Params,
		"result":      row.Result,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		log.Warnw("update for unknown task record", "task_id", task.ID)
	}
	return nil
}

// GetTaskByID returns the latest record for the id.
func (s *MySQLStore) GetTaskByID(ctx context.Context, id string) (*model.Task, error) {
	var row taskRow
	err := s.db.WithContext(ctx).Where("task_id = ?", id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, err
	}
	return fromRow(&row), nil
}

// GetHistory returns a page of records ordered by create time descending.
func (s *MySQLStore) GetHistory(ctx context.Context, q Query) (*Page, error) {
	q = q.normalize()

	tx := s.db.WithContext(ctx).Model(&taskRow{})
	if q.Status != "" {
		tx = tx.Where("status = ?", string(q.Status))
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, err
	}

	var rows []taskRow
	err := tx.Order("create_time DESC").
		Offset((q.Page - 1) * q.Limit).
		Limit(q.Limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	data := make([]model.Task, 0, len(rows))
	for i := range rows {
		data = append(data, *fromRow(&rows[i]))
	}

	return &Page{
		Total: int(total),
		Page:  q.Page,
		Limit: q.Limit,
		Pages: pageCount(int(total), q.Limit),
		Data:  data,
	}, nil
}

// StatusStats counts records per status.
func (s *MySQLStore) StatusStats(ctx context.Context) (*Stats, error) {
	type statusCount struct {
		Status string
		Count  int
	}
	var counts []statusCount
	err := s.db.WithContext(ctx).Model(&taskRow{}).
		Select("status, count(*) as count").
		Group("status").
		Find(&counts).Error
	if err != nil {
		return nil, err
	}

	stats := &Stats{}
	for _, c := range counts {
		stats.Total += c.Count
		switch model.TaskStatus(c.Status) {
		case model.TaskPending:
			stats.Pending = c.Count
		case model.TaskRunning:
			stats.Running = c.Count
		case model.TaskCompleted:
			stats.Completed = c.Count
		case model.TaskFailed:
			stats.Failed = c.Count
		case model.TaskCancelled:
			stats.Cancelled = c.Count
		}
	}
	return stats, nil
}

// CleanupOldRecords drops records created before the retention cutoff.
func (s *MySQLStore) CleanupOldRecords(ctx context.Context, retentionDays int) (int, error) {
	if retentionDays <= 0 {
		retentionDays = 30
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	res := s.db.WithContext(ctx).Where("create_time < ?", cutoff).Delete(&taskRow{})
	if res.Error != nil {
		return 0, res.Error
	}
	return int(res.RowsAffected), nil
}

// Close releases the underlying connection pool.
func (s *MySQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
