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

// Package pipeline composes the produce-and-publish flow invoked by the task
// manager: fetch source records, generate article text, publish, back up.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/go-arcade/autopush/internal/model"
	"github.com/go-arcade/autopush/pkg/log"
)

// Category names one source data category to process per run.
type Category struct {
	Code string // e.g. "ssq"
	Name string // display name used in titles
}

// Config controls pipeline composition.
type Config struct {
	Categories         []Category
	Author             string
	AutoPublish        bool
	CheckPublishStatus bool
	PublishStatusDelay time.Duration // wait before the status poll, default 3s
	BackupDir          string

	SourceBaseURL    string
	GeneratorBaseURL string
	GeneratorToken   string
	GeneratorUserID  string
	PublisherBaseURL string
	PublisherToken   string
}

// SetDefaults returns the default pipeline configuration.
func SetDefaults() Config {
	return Config{
		Categories: []Category{
			{Code: "ssq", Name: "ssq"},
			{Code: "kl8", Name: "kl8"},
			{Code: "qlc", Name: "qlc"},
			{Code: "3d", Name: "3d"},
		},
		Author:             "autopush",
		CheckPublishStatus: true,
		PublishStatusDelay: 3 * time.Second,
		BackupDir:          "./output",
	}
}

// Pipeline is the single operation the task core invokes. Run must be safe
// to retry; re-running after a partial publish failure is expected.
type Pipeline interface {
	Run(ctx context.Context, params model.Params) (*model.PipelineResult, error)
}

// Fetcher returns the latest source records for one category.
type Fetcher interface {
	FetchLatest(ctx context.Context, category string) ([]model.SourceRecord, error)
}

// Generator turns formatted source text into article text.
type Generator interface {
	GenerateArticle(ctx context.Context, source, category string) (string, error)
}

// Publisher is the remote publishing platform.
type Publisher interface {
	CreateDraft(ctx context.Context, articles []model.Article) (string, error)
	PublishDraft(ctx context.Context, mediaID string) (string, error)
	GetPublishStatus(ctx context.Context, publishID string) (*model.PublishStatus, error)
}

// Composed runs the full flow over narrow collaborator interfaces.
// A nil publisher skips the publish step; articles are still backed up.
type Composed struct {
	cfg       Config
	fetcher   Fetcher
	generator Generator
	publisher Publisher
	backup    *Backup
}

// NewComposed builds the pipeline from its collaborators.
func NewComposed(cfg Config, fetcher Fetcher, generator Generator, publisher Publisher) *Composed {
	if cfg.PublishStatusDelay <= 0 {
		cfg.PublishStatusDelay = 3 * time.Second
	}
	return &Composed{
		cfg:       cfg,
		fetcher:   fetcher,
		generator: generator,
		publisher: publisher,
		backup:    NewBackup(cfg.BackupDir),
	}
}

// Run executes one produce-and-publish attempt. Steps run strictly in
// sequence. A publish failure after successful generation is reported as a
// success carrying an embedded error; the generated content is preserved in
// the local backup either way.
func (p *Composed) Run(ctx context.Context, params model.Params) (*model.PipelineResult, error) {
	date := runDate(params)
	log.Infow("pipeline run started", "date", date, "categories", len(p.cfg.Categories))

	result := &model.PipelineResult{Timestamp: time.Now()}

	fetchErrs := 0
	var articles []model.Article
	for _, cat := range p.cfg.Categories {
		records, err := p.fetcher.FetchLatest(ctx, cat.Code)
		if err != nil {
			log.Warnw("fetch failed", "category", cat.Code, "error", err)
			result.CrawlFailed++
			fetchErrs++
			continue
		}
		result.CrawlSuccess++

		todays := recordsForDate(records, date)
		if len(todays) == 0 {
			log.Infow("no draw for run date, skipping category", "category", cat.Code, "date", date)
			continue
		}

		raw, err := p.generator.GenerateArticle(ctx, FormatForGeneration(todays), cat.Code)
		if err != nil {
			return nil, fmt.Errorf("generate article for %s: %w", cat.Code, err)
		}

		title, content := ParseArticle(raw)
		article := model.Article{
			Title:    fmt.Sprintf("[%s] draw results for issue %s", cat.Name, todays[0].Issue),
			Content:  content,
			Author:   p.cfg.Author,
			Digest:   fmt.Sprintf("%s %s draw results", date, cat.Name),
			Category: cat.Code,
		}
		if title == "" {
			article.Title = fmt.Sprintf("[%s] draw results %s", cat.Name, date)
		}
		articles = append(articles, article)
	}

	if fetchErrs == len(p.cfg.Categories) && len(p.cfg.Categories) > 0 {
		return nil, fmt.Errorf("all %d source categories failed to fetch", fetchErrs)
	}

	result.Articles = articles

	if len(articles) == 0 {
		result.Success = true
		result.Message = "no draw information for the run date, nothing to publish"
		log.Info("pipeline run finished with nothing to publish")
		return result, nil
	}

	if p.publisher == nil {
		result.Message = fmt.Sprintf("publisher not configured, %d articles saved locally", len(articles))
		log.Warn("publisher not configured, skipping publish step")
	} else if err := p.publish(ctx, result); err != nil {
		// Partial success: content exists and is backed up below, the task
		// itself still completes.
		result.Error = &model.ErrorDetail{
			Type:      "push",
			Message:   err.Error(),
			Timestamp: time.Now(),
		}
		log.Errorw("publish step failed, falling back to local backup", "error", err)
	}

	for i := range articles {
		if err := p.backup.Save(&articles[i], date); err != nil {
			log.Warnw("article backup failed", "title", articles[i].Title, "error", err)
		}
	}

	result.Success = true
	if result.Message == "" {
		result.Message = fmt.Sprintf("processed %d categories with draw information", len(articles))
	}
	log.Infow("pipeline run finished", "articles", len(articles), "media_id", result.MediaID)
	return result, nil
}

// publish drives the draft/publish/poll sequence against the platform.
func (p *Composed) publish(ctx context.Context, result *model.PipelineResult) error {
	mediaID, err := p.publisher.CreateDraft(ctx, result.Articles)
	if err != nil {
		return fmt.Errorf("create draft: %w", err)
	}
	result.MediaID = mediaID
	log.Infow("draft created", "media_id", mediaID)

	if !p.cfg.AutoPublish {
		return nil
	}

	publishID, err := p.publisher.PublishDraft(ctx, mediaID)
	if err != nil {
		return fmt.Errorf("publish draft: %w", err)
	}
	result.PublishID = publishID

	if !p.cfg.CheckPublishStatus {
		return nil
	}

	select {
	case <-time.After(p.cfg.PublishStatusDelay):
	case <-ctx.Done():
		return ctx.Err()
	}

	status, err := p.publisher.GetPublishStatus(ctx, publishID)
	if err != nil {
		return fmt.Errorf("query publish status: %w", err)
	}
	result.PublishStatus = status
	log.Infow("publish status", "publish_id", publishID, "status", status.Status)
	return nil
}

// runDate returns the run date from params, defaulting to today (UTC).
func runDate(params model.Params) string {
	if params != nil {
		if d, ok := params["date"].(string); ok && d != "" {
			return d
		}
	}
	return time.Now().UTC().Format("2006-01-02")
}

func recordsForDate(records []model.SourceRecord, date string) []model.SourceRecord {
	var out []model.SourceRecord
	for _, r := range records {
		if r.DrawDate == date {
			out = append(out, r)
		}
	}
	return out
}
