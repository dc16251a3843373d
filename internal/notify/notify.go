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

// Package notify delivers monitor alerts to configured channels.
package notify

import (
	"context"
	"time"
)

// Alert is one outbound alert message.
type Alert struct {
	Title      string    `json:"title"`
	Type       string    `json:"type"`
	Message    string    `json:"message"`
	Timestamp  time.Time `json:"timestamp"`
	ErrorCount int       `json:"errorCount"`
	Data       any       `json:"data,omitempty"`
}

// Notifier is one alert delivery channel. Send is best-effort; errors are
// reported to the caller for logging only.
type Notifier interface {
	Name() string
	Send(ctx context.Context, alert *Alert) error
}
