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

// SourceRecord is one raw record returned by a data fetcher.
type SourceRecord struct {
	Category string `json:"category"`
	Issue    string `json:"issue"`
	DrawDate string `json:"drawDate"` // YYYY-MM-DD
	Numbers  string `json:"numbers"`
	Detail   string `json:"detail,omitempty"`
}

// Article is one generated article ready for publishing.
type Article struct {
	Title     string `json:"title"`
	Content   string `json:"content"`
	Author    string `json:"author,omitempty"`
	Digest    string `json:"digest,omitempty"`
	SourceURL string `json:"sourceUrl,omitempty"`
	Category  string `json:"category,omitempty"`
}

// PublishStatus is the publishing platform's answer to a status poll.
type PublishStatus struct {
	PublishID  string `json:"publishId"`
	Status     int    `json:"status"` // 0 = published, 1 = publishing, other = failed
	ArticleURL string `json:"articleUrl,omitempty"`
	FailReason string `json:"failReason,omitempty"`
}

// ErrorDetail describes an error embedded in a result without failing the task.
type ErrorDetail struct {
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data,omitempty"`
}

// PipelineResult is the outcome of one pipeline invocation. A completed task
// may still carry Error when publishing failed after content was generated
// and backed up locally (partial success).
type PipelineResult struct {
	Success       bool           `json:"success"`
	Articles      []Article      `json:"articles,omitempty"`
	MediaID       string         `json:"mediaId,omitempty"`
	PublishID     string         `json:"publishId,omitempty"`
	PublishStatus *PublishStatus `json:"publishStatus,omitempty"`
	CrawlSuccess  int            `json:"crawlSuccess"`
	CrawlFailed   int            `json:"crawlFailed"`
	Retries       int            `json:"retries"`
	Error         *ErrorDetail   `json:"error,omitempty"`
	Message       string         `json:"message,omitempty"`
	Timestamp     time.Time      `json:"timestamp"`
}
