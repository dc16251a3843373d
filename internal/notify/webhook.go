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

package notify

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// WebhookChannel posts alerts as JSON to a generic webhook endpoint.
type WebhookChannel struct {
	webhookURL string
	method     string
	client     *resty.Client
}

// NewWebhookChannel creates a webhook notification channel.
func NewWebhookChannel(webhookURL, method string) *WebhookChannel {
	if method == "" {
		method = http.MethodPost
	}
	return &WebhookChannel{
		webhookURL: webhookURL,
		method:     method,
		client:     resty.New().SetTimeout(10 * time.Second),
	}
}

// Name implements Notifier.
func (c *WebhookChannel) Name() string {
	return "webhook"
}

// Validate checks the channel configuration.
func (c *WebhookChannel) Validate() error {
	if c.webhookURL == "" {
		return fmt.Errorf("webhook url cannot be empty")
	}
	return nil
}

// Send posts the alert to the webhook.
func (c *WebhookChannel) Send(ctx context.Context, alert *Alert) error {
	if err := c.Validate(); err != nil {
		return err
	}

	req := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(alert)

	resp, err := req.Execute(c.method, c.webhookURL)
	if err != nil {
		return fmt.Errorf("send webhook alert: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("webhook alert rejected: status %d", resp.StatusCode())
	}
	return nil
}
