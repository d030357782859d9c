package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-api/internal/dto"
	"github.com/noah-isme/timetable-api/internal/models"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
)

type taskStore interface {
	Load(ctx context.Context) ([]models.Task, error)
	Save(ctx context.Context, tasks []models.Task) error
}

// TaskService manages the to-do list. Every mutation is written through to the store; a
// failed write leaves the list unchanged.
type TaskService struct {
	mu        sync.Mutex
	tasks     []models.Task
	store     taskStore
	validator *validator.Validate
	logger    *zap.Logger
	now       func() time.Time
}

// NewTaskService constructs the service. store may be nil for an in-memory list.
func NewTaskService(store taskStore, validate *validator.Validate, logger *zap.Logger) *TaskService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TaskService{
		tasks:     make([]models.Task, 0),
		store:     store,
		validator: validate,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Load replaces the in-memory list with the stored one.
func (s *TaskService) Load(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	tasks, err := s.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("load tasks: %w", err)
	}
	s.mu.Lock()
	s.tasks = tasks
	s.mu.Unlock()
	s.logger.Info("tasks loaded", zap.Int("count", len(tasks)))
	return nil
}

// mutate applies fn to a copy of the list and commits it once the store accepts it.
func (s *TaskService) mutate(ctx context.Context, fn func([]models.Task) ([]models.Task, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := fn(cloneTasks(s.tasks))
	if err != nil {
		return err
	}
	if s.store != nil {
		if err := s.store.Save(ctx, next); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save tasks")
		}
	}
	s.tasks = next
	return nil
}

// Add appends a task with trimmed text.
func (s *TaskService) Add(ctx context.Context, req dto.TaskTextRequest) (*models.Task, error) {
	text, err := s.cleanText(req)
	if err != nil {
		return nil, err
	}
	task := models.Task{ID: uuid.NewString(), Text: text, CreatedAt: s.now()}
	if err := s.mutate(ctx, func(tasks []models.Task) ([]models.Task, error) {
		return append(tasks, task), nil
	}); err != nil {
		return nil, err
	}
	return &task, nil
}

// Delete removes a task.
func (s *TaskService) Delete(ctx context.Context, id string) error {
	return s.mutate(ctx, func(tasks []models.Task) ([]models.Task, error) {
		idx := taskIndex(tasks, id)
		if idx < 0 {
			return nil, taskNotFound(id)
		}
		return append(tasks[:idx], tasks[idx+1:]...), nil
	})
}

// Toggle flips the completion flag of a task.
func (s *TaskService) Toggle(ctx context.Context, id string) (*models.Task, error) {
	var updated models.Task
	err := s.mutate(ctx, func(tasks []models.Task) ([]models.Task, error) {
		idx := taskIndex(tasks, id)
		if idx < 0 {
			return nil, taskNotFound(id)
		}
		tasks[idx].Completed = !tasks[idx].Completed
		updated = tasks[idx]
		return tasks, nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// Edit replaces the text of a task.
func (s *TaskService) Edit(ctx context.Context, id string, req dto.TaskTextRequest) (*models.Task, error) {
	text, err := s.cleanText(req)
	if err != nil {
		return nil, err
	}
	var updated models.Task
	err = s.mutate(ctx, func(tasks []models.Task) ([]models.Task, error) {
		idx := taskIndex(tasks, id)
		if idx < 0 {
			return nil, taskNotFound(id)
		}
		tasks[idx].Text = text
		updated = tasks[idx]
		return tasks, nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// ClearCompleted drops every completed task and returns how many were removed.
func (s *TaskService) ClearCompleted(ctx context.Context) (int, error) {
	removed := 0
	err := s.mutate(ctx, func(tasks []models.Task) ([]models.Task, error) {
		kept := tasks[:0]
		for _, t := range tasks {
			if t.Completed {
				removed++
				continue
			}
			kept = append(kept, t)
		}
		return kept, nil
	})
	return removed, err
}

// List returns the tasks passing filter. Unknown filters list everything.
func (s *TaskService) List(ctx context.Context, query dto.TaskListQuery) []models.Task {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]models.Task, 0, len(s.tasks))
	for _, t := range s.tasks {
		switch models.TaskFilter(query.Filter) {
		case models.TaskFilterActive:
			if t.Completed {
				continue
			}
		case models.TaskFilterCompleted:
			if !t.Completed {
				continue
			}
		}
		result = append(result, t)
	}
	return result
}

// Sort reorders the stored list: newest first, alphabetically, or active before completed.
func (s *TaskService) Sort(ctx context.Context, req dto.SortTasksRequest) ([]models.Task, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "unknown sort key")
	}
	var sorted []models.Task
	err := s.mutate(ctx, func(tasks []models.Task) ([]models.Task, error) {
		var less func(i, j int) bool
		switch models.TaskSort(req.By) {
		case models.TaskSortDate:
			less = func(i, j int) bool { return tasks[i].CreatedAt.After(tasks[j].CreatedAt) }
		case models.TaskSortAlphabetical:
			less = func(i, j int) bool { return strings.ToLower(tasks[i].Text) < strings.ToLower(tasks[j].Text) }
		default:
			less = func(i, j int) bool { return !tasks[i].Completed && tasks[j].Completed }
		}
		sort.SliceStable(tasks, less)
		sorted = cloneTasks(tasks)
		return tasks, nil
	})
	if err != nil {
		return nil, err
	}
	return sorted, nil
}

// Stats summarises the list. The rate is formatted with two decimals, or "0%" when empty.
func (s *TaskService) Stats(ctx context.Context) models.TaskStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := models.TaskStats{Total: len(s.tasks), CompletionRate: "0%"}
	for _, t := range s.tasks {
		if t.Completed {
			stats.Completed++
		}
	}
	stats.Active = stats.Total - stats.Completed
	if stats.Total > 0 {
		stats.CompletionRate = fmt.Sprintf("%.2f%%", float64(stats.Completed)/float64(stats.Total)*100)
	}
	return stats
}

// Export renders the list as indented JSON.
func (s *TaskService) Export(ctx context.Context) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := json.MarshalIndent(s.tasks, "", "  ")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to export tasks")
	}
	return payload, nil
}

// Import replaces the list with the tasks encoded in data. Tasks without an id get one.
func (s *TaskService) Import(ctx context.Context, data []byte) (int, error) {
	var imported []models.Task
	if err := json.Unmarshal(data, &imported); err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid task file")
	}
	seen := make(map[string]struct{}, len(imported))
	for i := range imported {
		if _, dup := seen[imported[i].ID]; dup || imported[i].ID == "" {
			imported[i].ID = uuid.NewString()
		}
		seen[imported[i].ID] = struct{}{}
		if imported[i].CreatedAt.IsZero() {
			imported[i].CreatedAt = s.now()
		}
		imported[i].Text = strings.TrimSpace(imported[i].Text)
	}
	if imported == nil {
		imported = make([]models.Task, 0)
	}
	if err := s.mutate(ctx, func([]models.Task) ([]models.Task, error) { return imported, nil }); err != nil {
		return 0, err
	}
	s.logger.Info("tasks imported", zap.Int("count", len(imported)))
	return len(imported), nil
}

func (s *TaskService) cleanText(req dto.TaskTextRequest) (string, error) {
	req.Text = strings.TrimSpace(req.Text)
	if err := s.validator.Struct(req); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "task text is required")
	}
	return req.Text, nil
}

func taskIndex(tasks []models.Task, id string) int {
	for i, t := range tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

func taskNotFound(id string) error {
	return appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("task %s not found", id))
}

func cloneTasks(tasks []models.Task) []models.Task {
	out := make([]models.Task, len(tasks))
	copy(out, tasks)
	return out
}
