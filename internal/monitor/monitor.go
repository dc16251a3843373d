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

// Package monitor aggregates pipeline health and throttles outbound alerts.
package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/go-arcade/autopush/internal/model"
	"github.com/go-arcade/autopush/internal/notify"
	"github.com/go-arcade/autopush/pkg/log"
	"github.com/go-arcade/autopush/pkg/safe"
)

const activityWindow = 24 * time.Hour

// Config controls alert gating.
type Config struct {
	EnableAlert    bool
	AlertThreshold int           // errors per interval before an alert fires
	AlertCooldown  time.Duration // minimum gap between alerts
	WebhookURL     string        // optional webhook channel
}

// SetDefaults returns the default monitor configuration.
func SetDefaults() Config {
	return Config{
		AlertThreshold: 3,
		AlertCooldown:  time.Hour,
	}
}

// CrawlResult summarizes one data-refresh attempt across source categories.
type CrawlResult struct {
	Success int `json:"success"`
	Failed  int `json:"failed"`
}

// Monitor tracks rolling pipeline health counters. Counters live for the
// process lifetime only; they are never persisted.
type Monitor struct {
	mu        sync.Mutex
	cfg       Config
	notifiers []notify.Notifier
	status    model.MonitorStatus
	now       func() time.Time
}

// New creates a monitor dispatching alerts to the given notifiers.
func New(cfg Config, notifiers ...notify.Notifier) *Monitor {
	if cfg.AlertThreshold <= 0 {
		cfg.AlertThreshold = 3
	}
	if cfg.AlertCooldown <= 0 {
		cfg.AlertCooldown = time.Hour
	}
	return &Monitor{
		cfg:       cfg,
		notifiers: notifiers,
		now:       time.Now,
	}
}

// UpdateCrawlStatus records one data-refresh attempt.
func (m *Monitor) UpdateCrawlStatus(res CrawlResult) {
	m.mu.Lock()
	m.status.LastCrawlTime = m.now()
	m.status.CrawlSuccess += res.Success
	m.status.CrawlFailed += res.Failed

	var alert *notify.Alert
	if res.Failed > 0 {
		alert = m.recordErrorLocked("crawl", "data refresh failed for some categories", res)
	}
	m.mu.Unlock()

	m.dispatch(alert)
}

// UpdatePushStatus records one pipeline run outcome. A result carrying an
// embedded error (partial success) counts as a failure for alerting even
// though the task completed.
func (m *Monitor) UpdatePushStatus(res *model.PipelineResult) {
	m.mu.Lock()
	m.status.LastPushTime = m.now()

	failed := res == nil || !res.Success || res.Error != nil
	if failed {
		m.status.PushFailed++
	} else {
		m.status.PushSuccess++
	}

	var alert *notify.Alert
	if failed {
		msg := "push failed"
		if res != nil && res.Error != nil {
			msg = res.Error.Message
		}
		alert = m.recordErrorLocked("push", msg, res)
	}
	m.mu.Unlock()

	m.dispatch(alert)
}

// recordErrorLocked updates the error state and evaluates the alert gates.
// It returns the alert to dispatch, or nil when any gate holds it back.
// Caller must hold m.mu.
func (m *Monitor) recordErrorLocked(errType, message string, data any) *notify.Alert {
	now := m.now()
	m.status.ErrorCount++
	m.status.LastError = &model.ErrorDetail{
		Type:      errType,
		Message:   message,
		Timestamp: now,
		Data:      data,
	}

	log.Errorw("pipeline error recorded",
		"type", errType,
		"message", message,
		"error_count", m.status.ErrorCount,
	)

	if !m.cfg.EnableAlert {
		return nil
	}
	if now.Sub(m.status.LastAlertTime) < m.cfg.AlertCooldown {
		log.Debugw("alert cooldown active, skipping alert", "type", errType)
		return nil
	}
	if m.status.ErrorCount < m.cfg.AlertThreshold {
		log.Debugw("error count below alert threshold",
			"count", m.status.ErrorCount, "threshold", m.cfg.AlertThreshold)
		return nil
	}

	alert := &notify.Alert{
		Title:      "autopush alert - " + errType,
		Type:       errType,
		Message:    message,
		Timestamp:  now,
		ErrorCount: m.status.ErrorCount,
		Data:       data,
	}

	// The threshold counts errors per interval, not lifetime totals.
	m.status.LastAlertTime = now
	m.status.ErrorCount = 0

	return alert
}

// dispatch fans the alert out to every notifier. A channel failure is logged
// and never affects the caller or the other channels.
func (m *Monitor) dispatch(alert *notify.Alert) {
	if alert == nil || len(m.notifiers) == 0 {
		return
	}

	var wg sync.WaitGroup
	for _, n := range m.notifiers {
		wg.Add(1)
		n := n
		safe.Go(func() {
			defer wg.Done()
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := n.Send(ctx, alert); err != nil {
				log.Warnw("alert channel send failed", "channel", n.Name(), "error", err)
			}
		})
	}
	wg.Wait()

	log.Infow("alert dispatched", "type", alert.Type, "channels", len(m.notifiers))
}

// Status returns a copy of the current monitor state.
func (m *Monitor) Status() model.MonitorStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status
}

// HealthCheck derives healthy/unhealthy from recent activity and unresolved
// errors. It is a point-in-time query with no side effects.
func (m *Monitor) HealthCheck() model.Health {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	active := (!m.status.LastCrawlTime.IsZero() && now.Sub(m.status.LastCrawlTime) < activityWindow) ||
		(!m.status.LastPushTime.IsZero() && now.Sub(m.status.LastPushTime) < activityWindow)
	hasError := m.status.LastError != nil

	status := "unhealthy"
	if active && !hasError {
		status = "healthy"
	}

	return model.Health{
		Status:   status,
		Active:   active,
		HasError: hasError,
		Monitor:  m.status,
	}
}

// ResetStatus zeroes the counters while preserving last-run timestamps.
// Never invoked mid-task.
func (m *Monitor) ResetStatus() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.status.CrawlSuccess = 0
	m.status.CrawlFailed = 0
	m.status.PushSuccess = 0
	m.status.PushFailed = 0
	m.status.ErrorCount = 0
	m.status.LastError = nil

	log.Info("monitor status reset")
}
