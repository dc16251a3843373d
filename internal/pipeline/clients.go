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

package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/go-arcade/autopush/internal/model"
)

// RestFetcher queries the source data service over HTTP.
type RestFetcher struct {
	client *resty.Client
}

// NewRestFetcher builds a fetcher for the source data service.
func NewRestFetcher(baseURL string) *RestFetcher {
	return &RestFetcher{
		client: resty.New().SetBaseURL(baseURL).SetTimeout(30 * time.Second),
	}
}

// FetchLatest implements Fetcher.
func (f *RestFetcher) FetchLatest(ctx context.Context, category string) ([]model.SourceRecord, error) {
	var out struct {
		Code int                  `json:"code"`
		Msg  string               `json:"msg"`
		Data []model.SourceRecord `json:"data"`
	}
	resp, err := f.client.R().
		SetContext(ctx).
		SetQueryParam("code", category).
		SetResult(&out).
		Get("/api/lottery/latest")
	if err != nil {
		return nil, fmt.Errorf("fetch latest %s: %w", category, err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("fetch latest %s: status %d", category, resp.StatusCode())
	}
	return out.Data, nil
}

// RestGenerator calls the text generation service.
type RestGenerator struct {
	client *resty.Client
	userID string
}

// NewRestGenerator builds a generator client. Token and user id are attached
// to every request when set.
func NewRestGenerator(baseURL, token, userID string) *RestGenerator {
	c := resty.New().SetBaseURL(baseURL).SetTimeout(2 * time.Minute)
	if token != "" {
		c.SetAuthToken(token)
	}
	return &RestGenerator{client: c, userID: userID}
}

// GenerateArticle implements Generator.
func (g *RestGenerator) GenerateArticle(ctx context.Context, source, category string) (string, error) {
	var out struct {
		Article string `json:"article"`
	}
	resp, err := g.client.R().
		SetContext(ctx).
		SetBody(map[string]string{
			"source":   source,
			"category": category,
			"userId":   g.userID,
		}).
		SetResult(&out).
		Post("/api/generate")
	if err != nil {
		return "", fmt.Errorf("generate article: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("generate article: status %d", resp.StatusCode())
	}
	if out.Article == "" {
		return "", fmt.Errorf("generate article: empty response")
	}
	return out.Article, nil
}

// RestPublisher talks to the publishing platform's draft and publish APIs.
type RestPublisher struct {
	client *resty.Client
}

// NewRestPublisher builds a publisher client.
func NewRestPublisher(baseURL, token string) *RestPublisher {
	c := resty.New().SetBaseURL(baseURL).SetTimeout(30 * time.Second)
	if token != "" {
		c.SetAuthToken(token)
	}
	return &RestPublisher{client: c}
}

type publishResp struct {
	Code      int    `json:"code"`
	Msg       string `json:"msg"`
	MediaID   string `json:"mediaId"`
	PublishID string `json:"publishId"`
}

// CreateDraft implements Publisher.
func (p *RestPublisher) CreateDraft(ctx context.Context, articles []model.Article) (string, error) {
	var out publishResp
	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(map[string]any{"articles": articles}).
		SetResult(&out).
		Post("/api/draft/add")
	if err != nil {
		return "", fmt.Errorf("create draft: %w", err)
	}
	if resp.IsError() || out.Code != 0 {
		return "", fmt.Errorf("create draft: status %d code %d %s", resp.StatusCode(), out.Code, out.Msg)
	}
	return out.MediaID, nil
}

// PublishDraft implements Publisher.
func (p *RestPublisher) PublishDraft(ctx context.Context, mediaID string) (string, error) {
	var out publishResp
	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(map[string]string{"mediaId": mediaID}).
		SetResult(&out).
		Post("/api/draft/publish")
	if err != nil {
		return "", fmt.Errorf("publish draft: %w", err)
	}
	if resp.IsError() || out.Code != 0 {
		return "", fmt.Errorf("publish draft: status %d code %d %s", resp.StatusCode(), out.Code, out.Msg)
	}
	return out.PublishID, nil
}

// GetPublishStatus implements Publisher.
func (p *RestPublisher) GetPublishStatus(ctx context.Context, publishID string) (*model.PublishStatus, error) {
	var out struct {
		Code int                 `json:"code"`
		Msg  string              `json:"msg"`
		Data model.PublishStatus `json:"data"`
	}
	resp, err := p.client.R().
		SetContext(ctx).
		SetQueryParam("publishId", publishID).
		SetResult(&out).
		Get("/api/draft/status")
	if err != nil {
		return nil, fmt.Errorf("query publish status: %w", err)
	}
	if resp.IsError() || out.Code != 0 {
		return nil, fmt.Errorf("query publish status: status %d code %d %s", resp.StatusCode(), out.Code, out.Msg)
	}
	return &out.Data, nil
}
