package dto

// TaskTextRequest carries the text of a new or edited task.
type TaskTextRequest struct {
	Text string `json:"text" validate:"required"`
}

// TaskListQuery selects which tasks to list.
type TaskListQuery struct {
	Filter string `form:"filter"`
}

// SortTasksRequest reorders the stored list.
type SortTasksRequest struct {
	By string `json:"by" validate:"required,oneof=date alphabetical completed"`
}
