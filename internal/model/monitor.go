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

// MonitorStatus is the process-wide health aggregate. Counters are
// process-lifetime only and reset to zero on restart.
type MonitorStatus struct {
	LastCrawlTime time.Time    `json:"lastCrawlTime"`
	LastPushTime  time.Time    `json:"lastPushTime"`
	CrawlSuccess  int          `json:"crawlSuccess"`
	CrawlFailed   int          `json:"crawlFailed"`
	PushSuccess   int          `json:"pushSuccess"`
	PushFailed    int          `json:"pushFailed"`
	LastError     *ErrorDetail `json:"lastError,omitempty"`
	ErrorCount    int          `json:"errorCount"`
	LastAlertTime time.Time    `json:"lastAlertTime"`
}

// Health is the point-in-time health check result.
type Health struct {
	Status   string        `json:"status"` // healthy | unhealthy
	Active   bool          `json:"active"`
	HasError bool          `json:"hasError"`
	Monitor  MonitorStatus `json:"monitor"`
}

// SchedulerStatus is a point-in-time snapshot of the scheduler.
type SchedulerStatus struct {
	IsRunning bool     `json:"isRunning"`
	TaskCount int      `json:"taskCount"`
	TaskNames []string `json:"taskNames"`
	Uptime    float64  `json:"uptime"` // seconds since start, 0 when stopped
}
