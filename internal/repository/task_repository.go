package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/noah-isme/timetable-api/internal/models"
)

// TaskRepository keeps the whole task list as one JSON document under a single Redis key.
type TaskRepository struct {
	client *redis.Client
	key    string
}

// NewTaskRepository constructs a task repository.
func NewTaskRepository(client *redis.Client, key string) *TaskRepository {
	if key == "" {
		key = "tasks"
	}
	return &TaskRepository{client: client, key: key}
}

// Load returns the stored list, or an empty list when nothing has been saved yet.
func (r *TaskRepository) Load(ctx context.Context) ([]models.Task, error) {
	raw, err := r.client.Get(ctx, r.key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []models.Task{}, nil
		}
		return nil, fmt.Errorf("redis get %s: %w", r.key, err)
	}

	var tasks []models.Task
	if err := json.Unmarshal(raw, &tasks); err != nil {
		return nil, fmt.Errorf("unmarshal tasks: %w", err)
	}
	return tasks, nil
}

// Save overwrites the stored list.
func (r *TaskRepository) Save(ctx context.Context, tasks []models.Task) error {
	payload, err := json.Marshal(tasks)
	if err != nil {
		return fmt.Errorf("marshal tasks: %w", err)
	}
	if err := r.client.Set(ctx, r.key, payload, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", r.key, err)
	}
	return nil
}
