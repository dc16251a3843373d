package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-arcade/autopush/internal/model"
)

type fakeFetcher struct {
	records map[string][]model.SourceRecord
	errs    map[string]error
}

func (f *fakeFetcher) FetchLatest(_ context.Context, category string) ([]model.SourceRecord, error) {
	if err := f.errs[category]; err != nil {
		return nil, err
	}
	return f.records[category], nil
}

type fakeGenerator struct {
	err   error
	calls int
}

func (g *fakeGenerator) GenerateArticle(_ context.Context, _, category string) (string, error) {
	g.calls++
	if g.err != nil {
		return "", g.err
	}
	return fmt.Sprintf("# Results for %s\n\nbody text", category), nil
}

type fakePublisher struct {
	draftErr   error
	publishErr error
	statusErr  error
	drafts     int
	publishes  int
}

func (p *fakePublisher) CreateDraft(_ context.Context, _ []model.Article) (string, error) {
	p.drafts++
	if p.draftErr != nil {
		return "", p.draftErr
	}
	return "media-1", nil
}

func (p *fakePublisher) PublishDraft(_ context.Context, _ string) (string, error) {
	p.publishes++
	if p.publishErr != nil {
		return "", p.publishErr
	}
	return "pub-1", nil
}

func (p *fakePublisher) GetPublishStatus(_ context.Context, publishID string) (*model.PublishStatus, error) {
	if p.statusErr != nil {
		return nil, p.statusErr
	}
	return &model.PublishStatus{PublishID: publishID, Status: 0}, nil
}

func testConfig(t *testing.T) Config {
	t.Helper()
	cfg := SetDefaults()
	cfg.Categories = []Category{{Code: "ssq", Name: "ssq"}, {Code: "3d", Name: "3d"}}
	cfg.AutoPublish = true
	cfg.PublishStatusDelay = time.Millisecond
	cfg.BackupDir = t.TempDir()
	return cfg
}

func recordsFor(category, date string) []model.SourceRecord {
	return []model.SourceRecord{
		{Category: category, Issue: "2026001", DrawDate: date, Numbers: "01 02 03"},
		{Category: category, Issue: "2025360", DrawDate: "2025-12-31", Numbers: "09 10 11"},
	}
}

func TestComposed_FullRun(t *testing.T) {
	cfg := testConfig(t)
	fetcher := &fakeFetcher{records: map[string][]model.SourceRecord{
		"ssq": recordsFor("ssq", "2026-01-10"),
		"3d":  recordsFor("3d", "2026-01-10"),
	}}
	gen := &fakeGenerator{}
	pub := &fakePublisher{}
	p := NewComposed(cfg, fetcher, gen, pub)

	res, err := p.Run(context.Background(), model.Params{"date": "2026-01-10"})
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Len(t, res.Articles, 2)
	assert.Equal(t, "media-1", res.MediaID)
	assert.Equal(t, "pub-1", res.PublishID)
	require.NotNil(t, res.PublishStatus)
	assert.Equal(t, 0, res.PublishStatus.Status)
	assert.Equal(t, 2, res.CrawlSuccess)
	assert.Nil(t, res.Error)
	assert.Equal(t, 2, gen.calls)
	assert.Equal(t, 1, pub.drafts)
}

func TestComposed_NoDrawForDate(t *testing.T) {
	cfg := testConfig(t)
	fetcher := &fakeFetcher{records: map[string][]model.SourceRecord{
		"ssq": recordsFor("ssq", "2026-01-09"),
		"3d":  nil,
	}}
	gen := &fakeGenerator{}
	pub := &fakePublisher{}
	p := NewComposed(cfg, fetcher, gen, pub)

	res, err := p.Run(context.Background(), model.Params{"date": "2026-01-10"})
	require.NoError(t, err)

	assert.True(t, res.Success)
	assert.Empty(t, res.Articles)
	assert.Contains(t, res.Message, "nothing to publish")
	assert.Zero(t, gen.calls)
	assert.Zero(t, pub.drafts, "publish must not run with no articles")
}

func TestComposed_PublishFailureIsPartialSuccess(t *testing.T) {
	cfg := testConfig(t)
	fetcher := &fakeFetcher{records: map[string][]model.SourceRecord{
		"ssq": recordsFor("ssq", "2026-01-10"),
		"3d":  nil,
	}}
	pub := &fakePublisher{draftErr: errors.New("platform unavailable")}
	p := NewComposed(cfg, fetcher, &fakeGenerator{}, pub)

	res, err := p.Run(context.Background(), model.Params{"date": "2026-01-10"})
	require.NoError(t, err, "publish failure must not fail the run")

	assert.True(t, res.Success)
	require.NotNil(t, res.Error)
	assert.Equal(t, "push", res.Error.Type)
	assert.Contains(t, res.Error.Message, "create draft")

	// the article must still land in the local backup
	var mds []string
	err = filepath.WalkDir(cfg.BackupDir, func(path string, d os.DirEntry, err error) error {
		if err == nil && !d.IsDir() && filepath.Ext(path) == ".md" {
			mds = append(mds, path)
		}
		return err
	})
	require.NoError(t, err)
	assert.Len(t, mds, 1)
}

func TestComposed_GenerateFailureFailsRun(t *testing.T) {
	cfg := testConfig(t)
	fetcher := &fakeFetcher{records: map[string][]model.SourceRecord{
		"ssq": recordsFor("ssq", "2026-01-10"),
	}}
	cfg.Categories = cfg.Categories[:1]
	p := NewComposed(cfg, fetcher, &fakeGenerator{err: errors.New("model overloaded")}, &fakePublisher{})

	res, err := p.Run(context.Background(), model.Params{"date": "2026-01-10"})
	assert.Error(t, err)
	assert.Nil(t, res)
}

func TestComposed_AllFetchesFailFailsRun(t *testing.T) {
	cfg := testConfig(t)
	fetcher := &fakeFetcher{errs: map[string]error{
		"ssq": errors.New("timeout"),
		"3d":  errors.New("timeout"),
	}}
	p := NewComposed(cfg, fetcher, &fakeGenerator{}, &fakePublisher{})

	_, err := p.Run(context.Background(), model.Params{"date": "2026-01-10"})
	assert.Error(t, err)
}

func TestComposed_PartialFetchFailureContinues(t *testing.T) {
	cfg := testConfig(t)
	fetcher := &fakeFetcher{
		records: map[string][]model.SourceRecord{"3d": recordsFor("3d", "2026-01-10")},
		errs:    map[string]error{"ssq": errors.New("timeout")},
	}
	p := NewComposed(cfg, fetcher, &fakeGenerator{}, &fakePublisher{})

	res, err := p.Run(context.Background(), model.Params{"date": "2026-01-10"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.CrawlSuccess)
	assert.Equal(t, 1, res.CrawlFailed)
	assert.Len(t, res.Articles, 1)
}

func TestComposed_NilPublisherSkipsPublish(t *testing.T) {
	cfg := testConfig(t)
	fetcher := &fakeFetcher{records: map[string][]model.SourceRecord{
		"ssq": recordsFor("ssq", "2026-01-10"),
		"3d":  nil,
	}}
	p := NewComposed(cfg, fetcher, &fakeGenerator{}, nil)

	res, err := p.Run(context.Background(), model.Params{"date": "2026-01-10"})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Empty(t, res.MediaID)
	assert.Contains(t, res.Message, "saved locally")
}

func TestParseArticle(t *testing.T) {
	title, content := ParseArticle("# Heading\n\nline one\nline two")
	assert.Equal(t, "Heading", title)
	assert.Equal(t, "line one\nline two", content)

	title, content = ParseArticle("plain first line\nrest of body")
	assert.Equal(t, "plain first line", title)
	assert.Equal(t, "rest of body", content)

	title, content = ParseArticle("   \n\n")
	assert.Empty(t, title)
	assert.Empty(t, content)
}
