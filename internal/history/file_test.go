package history

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-arcade/autopush/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	s, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	return s
}

func taskAt(id string, createTime time.Time, status model.TaskStatus) *model.Task {
	return &model.Task{
		ID:         id,
		Status:     status,
		CreateTime: createTime,
		UpdateTime: createTime,
	}
}

func TestFileStore_SaveAndGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	task := model.NewTask("t1", model.Params{"trigger": "manual"})
	require.NoError(t, s.SaveTask(ctx, task))

	got, err := s.GetTaskByID(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "t1", got.ID)
	assert.Equal(t, model.TaskPending, got.Status)

	_, err = s.GetTaskByID(ctx, "nope")
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestFileStore_SurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, s.SaveTask(ctx, model.NewTask("t1", nil)))

	reopened, err := NewFileStore(dir)
	require.NoError(t, err)
	got, err := reopened.GetTaskByID(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "t1", got.ID)
}

func TestFileStore_UpdateIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	task := model.NewTask("t1", nil)
	require.NoError(t, s.SaveTask(ctx, task))

	task.Status = model.TaskCompleted
	task.Result = &model.PipelineResult{Success: true, Retries: 1}
	require.NoError(t, s.UpdateTask(ctx, task))
	require.NoError(t, s.UpdateTask(ctx, task)) // re-issue, same payload

	got, err := s.GetTaskByID(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, model.TaskCompleted, got.Status)
	assert.Equal(t, 1, got.Result.Retries)

	page, err := s.GetHistory(ctx, Query{})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total, "update must not create a duplicate entry")
}

func TestFileStore_UpdateUnknownIsNoop(t *testing.T) {
	s := newTestStore(t)
	err := s.UpdateTask(context.Background(), model.NewTask("ghost", nil))
	assert.NoError(t, err)
}

func TestFileStore_HistoryPagination(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i := 0; i < 25; i++ {
		task := taskAt(fmt.Sprintf("t%02d", i), base.Add(time.Duration(i)*time.Minute), model.TaskCompleted)
		require.NoError(t, s.SaveTask(ctx, task))
	}

	page1, err := s.GetHistory(ctx, Query{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 25, page1.Total)
	assert.Equal(t, 3, page1.Pages)
	require.Len(t, page1.Data, 10)
	assert.Equal(t, "t24", page1.Data[0].ID, "newest first")

	page2, err := s.GetHistory(ctx, Query{Page: 2, Limit: 10})
	require.NoError(t, err)
	require.Len(t, page2.Data, 10)

	// strictly descending across the page boundary
	assert.True(t, page1.Data[9].CreateTime.After(page2.Data[0].CreateTime))
	assert.Equal(t, "t14", page2.Data[0].ID)

	page3, err := s.GetHistory(ctx, Query{Page: 3, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, page3.Data, 5)

	beyond, err := s.GetHistory(ctx, Query{Page: 9, Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, beyond.Data)
	assert.Equal(t, 25, beyond.Total)
}

func TestFileStore_HistoryEmpty(t *testing.T) {
	s := newTestStore(t)
	page, err := s.GetHistory(context.Background(), Query{Page: 2, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 0, page.Total)
	assert.Equal(t, 0, page.Pages)
	assert.Empty(t, page.Data)
}

func TestFileStore_HistoryStatusFilter(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, s.SaveTask(ctx, taskAt("a", now, model.TaskCompleted)))
	require.NoError(t, s.SaveTask(ctx, taskAt("b", now, model.TaskFailed)))
	require.NoError(t, s.SaveTask(ctx, taskAt("c", now, model.TaskFailed)))

	page, err := s.GetHistory(ctx, Query{Status: model.TaskFailed})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)
	for _, task := range page.Data {
		assert.Equal(t, model.TaskFailed, task.Status)
	}
}

func TestFileStore_StatusStats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, s.SaveTask(ctx, taskAt("a", now, model.TaskCompleted)))
	require.NoError(t, s.SaveTask(ctx, taskAt("b", now, model.TaskCompleted)))
	require.NoError(t, s.SaveTask(ctx, taskAt("c", now, model.TaskFailed)))
	require.NoError(t, s.SaveTask(ctx, taskAt("d", now, model.TaskPending)))

	stats, err := s.StatusStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Total)
	assert.Equal(t, 2, stats.Completed)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 1, stats.Pending)
	assert.Equal(t, 0, stats.Cancelled)
}

func TestFileStore_CleanupOldRecords(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, s.SaveTask(ctx, taskAt("old1", now.AddDate(0, 0, -40), model.TaskCompleted)))
	require.NoError(t, s.SaveTask(ctx, taskAt("old2", now.AddDate(0, 0, -31), model.TaskFailed)))
	require.NoError(t, s.SaveTask(ctx, taskAt("new1", now.AddDate(0, 0, -1), model.TaskCompleted)))

	removed, err := s.CleanupOldRecords(ctx, 30)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	_, err = s.GetTaskByID(ctx, "old1")
	assert.ErrorIs(t, err, ErrTaskNotFound)
	_, err = s.GetTaskByID(ctx, "new1")
	assert.NoError(t, err)

	removed, err = s.CleanupOldRecords(ctx, 30)
	require.NoError(t, err)
	assert.Equal(t, 0, removed)
}

func TestFileStore_CleanupKeepsRecordsOnFlushFailure(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	s, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, s.SaveTask(ctx, taskAt("old1", time.Now().AddDate(0, 0, -60), model.TaskCompleted)))

	// Point the store at a path whose tmp file collides with a directory so
	// the next flush fails.
	s.mu.Lock()
	s.path = filepath.Join(dir, "blocked")
	s.mu.Unlock()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "blocked.tmp"), 0o755))

	_, err = s.CleanupOldRecords(ctx, 30)
	require.Error(t, err)

	// memory must still agree with the last durable state
	got, err := s.GetTaskByID(ctx, "old1")
	require.NoError(t, err)
	assert.Equal(t, "old1", got.ID)

	stats, err := s.StatusStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Total)
}
