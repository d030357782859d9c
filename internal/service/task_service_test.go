package service

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-api/internal/dto"
	"github.com/noah-isme/timetable-api/internal/models"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
)

type mockTaskStore struct {
	stored  []models.Task
	loadErr error
	saveErr error
	saves   int
}

func (m *mockTaskStore) Load(ctx context.Context) ([]models.Task, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return cloneTasks(m.stored), nil
}

func (m *mockTaskStore) Save(ctx context.Context, tasks []models.Task) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.stored = cloneTasks(tasks)
	return nil
}

func newTestTaskService(store taskStore) *TaskService {
	svc := NewTaskService(store, nil, zap.NewNop())
	base := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	tick := 0
	svc.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}
	return svc
}

func addTasks(t *testing.T, svc *TaskService, texts ...string) []*models.Task {
	t.Helper()
	out := make([]*models.Task, 0, len(texts))
	for _, text := range texts {
		task, err := svc.Add(context.Background(), dto.TaskTextRequest{Text: text})
		require.NoError(t, err)
		out = append(out, task)
	}
	return out
}

func assertStatus(t *testing.T, err error, status int) {
	t.Helper()
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr), "expected *errors.Error, got %v", err)
	assert.Equal(t, status, appErr.Status)
}

func TestTaskServiceAddTrimsAndPersists(t *testing.T) {
	store := &mockTaskStore{}
	svc := newTestTaskService(store)

	task, err := svc.Add(context.Background(), dto.TaskTextRequest{Text: "  buy milk  "})
	require.NoError(t, err)
	assert.Equal(t, "buy milk", task.Text)
	assert.NotEmpty(t, task.ID)
	assert.False(t, task.Completed)
	require.Len(t, store.stored, 1)

	_, err = svc.Add(context.Background(), dto.TaskTextRequest{Text: "   "})
	assertStatus(t, err, http.StatusBadRequest)
	assert.Equal(t, 1, store.saves)
}

func TestTaskServiceToggleEditDelete(t *testing.T) {
	svc := newTestTaskService(nil)
	ctx := context.Background()
	tasks := addTasks(t, svc, "one", "two")

	toggled, err := svc.Toggle(ctx, tasks[0].ID)
	require.NoError(t, err)
	assert.True(t, toggled.Completed)

	edited, err := svc.Edit(ctx, tasks[1].ID, dto.TaskTextRequest{Text: " second "})
	require.NoError(t, err)
	assert.Equal(t, "second", edited.Text)

	_, err = svc.Edit(ctx, tasks[1].ID, dto.TaskTextRequest{Text: ""})
	assertStatus(t, err, http.StatusBadRequest)

	require.NoError(t, svc.Delete(ctx, tasks[0].ID))
	assertStatus(t, svc.Delete(ctx, tasks[0].ID), http.StatusNotFound)
	_, err = svc.Toggle(ctx, "missing")
	assertStatus(t, err, http.StatusNotFound)

	remaining := svc.List(ctx, dto.TaskListQuery{})
	require.Len(t, remaining, 1)
	assert.Equal(t, "second", remaining[0].Text)
}

func TestTaskServiceFilterAndClearCompleted(t *testing.T) {
	svc := newTestTaskService(nil)
	ctx := context.Background()
	tasks := addTasks(t, svc, "a", "b", "c")
	_, err := svc.Toggle(ctx, tasks[1].ID)
	require.NoError(t, err)

	assert.Len(t, svc.List(ctx, dto.TaskListQuery{Filter: "active"}), 2)
	assert.Len(t, svc.List(ctx, dto.TaskListQuery{Filter: "completed"}), 1)
	assert.Len(t, svc.List(ctx, dto.TaskListQuery{Filter: "bogus"}), 3)

	removed, err := svc.ClearCompleted(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.Len(t, svc.List(ctx, dto.TaskListQuery{}), 2)
}

func TestTaskServiceSort(t *testing.T) {
	svc := newTestTaskService(nil)
	ctx := context.Background()
	tasks := addTasks(t, svc, "banana", "Apple", "cherry")
	_, err := svc.Toggle(ctx, tasks[0].ID)
	require.NoError(t, err)

	texts := func(list []models.Task) []string {
		out := make([]string, 0, len(list))
		for _, t := range list {
			out = append(out, t.Text)
		}
		return out
	}

	sorted, err := svc.Sort(ctx, dto.SortTasksRequest{By: "date"})
	require.NoError(t, err)
	assert.Equal(t, []string{"cherry", "Apple", "banana"}, texts(sorted))

	sorted, err = svc.Sort(ctx, dto.SortTasksRequest{By: "alphabetical"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Apple", "banana", "cherry"}, texts(sorted))

	sorted, err = svc.Sort(ctx, dto.SortTasksRequest{By: "completed"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Apple", "cherry", "banana"}, texts(sorted))
	assert.Equal(t, texts(sorted), texts(svc.List(ctx, dto.TaskListQuery{})))

	_, err = svc.Sort(ctx, dto.SortTasksRequest{By: "size"})
	assertStatus(t, err, http.StatusBadRequest)
}

func TestTaskServiceStats(t *testing.T) {
	svc := newTestTaskService(nil)
	ctx := context.Background()

	assert.Equal(t, models.TaskStats{CompletionRate: "0%"}, svc.Stats(ctx))

	tasks := addTasks(t, svc, "a", "b", "c")
	_, err := svc.Toggle(ctx, tasks[0].ID)
	require.NoError(t, err)

	stats := svc.Stats(ctx)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 1, stats.Completed)
	assert.Equal(t, 2, stats.Active)
	assert.Equal(t, "33.33%", stats.CompletionRate)
}

func TestTaskServiceExportImport(t *testing.T) {
	svc := newTestTaskService(nil)
	ctx := context.Background()
	addTasks(t, svc, "first", "second")

	payload, err := svc.Export(ctx)
	require.NoError(t, err)
	assert.Contains(t, string(payload), "\n  {")

	other := newTestTaskService(&mockTaskStore{})
	count, err := other.Import(ctx, payload)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Equal(t, svc.List(ctx, dto.TaskListQuery{}), other.List(ctx, dto.TaskListQuery{}))

	count, err = other.Import(ctx, []byte(`[{"text":" fresh "}]`))
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	imported := other.List(ctx, dto.TaskListQuery{})
	require.Len(t, imported, 1)
	assert.NotEmpty(t, imported[0].ID)
	assert.Equal(t, "fresh", imported[0].Text)

	_, err = other.Import(ctx, []byte(`{not json`))
	assertStatus(t, err, http.StatusBadRequest)
	assert.Len(t, other.List(ctx, dto.TaskListQuery{}), 1)
}

func TestTaskServiceImportRenumbersDuplicateIDs(t *testing.T) {
	svc := newTestTaskService(nil)
	ctx := context.Background()

	count, err := svc.Import(ctx, []byte(`[{"id":"a","text":"first"},{"id":"a","text":"second"},{"id":"b","text":"third"}]`))
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	tasks := svc.List(ctx, dto.TaskListQuery{})
	require.Len(t, tasks, 3)
	assert.Equal(t, "a", tasks[0].ID)
	assert.NotEqual(t, "a", tasks[1].ID)
	assert.NotEmpty(t, tasks[1].ID)
	assert.Equal(t, "b", tasks[2].ID)

	toggled, err := svc.Toggle(ctx, tasks[1].ID)
	require.NoError(t, err)
	assert.Equal(t, "second", toggled.Text)
	assert.True(t, toggled.Completed)
	assert.False(t, svc.List(ctx, dto.TaskListQuery{})[0].Completed)
}

func TestTaskServiceSaveFailureKeepsState(t *testing.T) {
	store := &mockTaskStore{}
	svc := newTestTaskService(store)
	ctx := context.Background()
	addTasks(t, svc, "keep")

	store.saveErr = errors.New("redis down")
	_, err := svc.Add(ctx, dto.TaskTextRequest{Text: "lost"})
	assertStatus(t, err, http.StatusInternalServerError)
	assert.Len(t, svc.List(ctx, dto.TaskListQuery{}), 1)
}

func TestTaskServiceLoad(t *testing.T) {
	store := &mockTaskStore{stored: []models.Task{{ID: "a", Text: "saved"}}}
	svc := newTestTaskService(store)
	require.NoError(t, svc.Load(context.Background()))
	assert.Len(t, svc.List(context.Background(), dto.TaskListQuery{}), 1)

	failing := newTestTaskService(&mockTaskStore{loadErr: errors.New("boom")})
	assert.Error(t, failing.Load(context.Background()))
}
