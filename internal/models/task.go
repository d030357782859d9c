package models

import "time"

// Task is one entry of the to-do list.
type Task struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"createdAt"`
}

// TaskFilter selects which tasks are listed.
type TaskFilter string

const (
	TaskFilterAll       TaskFilter = "all"
	TaskFilterActive    TaskFilter = "active"
	TaskFilterCompleted TaskFilter = "completed"
)

// TaskSort names a reordering of the list.
type TaskSort string

const (
	TaskSortDate         TaskSort = "date"
	TaskSortAlphabetical TaskSort = "alphabetical"
	TaskSortCompleted    TaskSort = "completed"
)

// TaskStats summarises the list.
type TaskStats struct {
	Total          int    `json:"total"`
	Completed      int    `json:"completed"`
	Active         int    `json:"active"`
	CompletionRate string `json:"completionRate"`
}
