package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/timetable-api/internal/dto"
	"github.com/noah-isme/timetable-api/internal/service"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
	"github.com/noah-isme/timetable-api/pkg/response"
)

const maxImportBytes = 1 << 20

// TaskHandler manages the to-do list endpoints.
type TaskHandler struct {
	service *service.TaskService
}

// NewTaskHandler constructs handler.
func NewTaskHandler(svc *service.TaskService) *TaskHandler {
	return &TaskHandler{service: svc}
}

// List godoc
// @Summary List tasks
// @Tags Tasks
// @Produce json
// @Param filter query string false "all, active or completed"
// @Success 200 {object} response.Envelope
// @Router /tasks [get]
func (h *TaskHandler) List(c *gin.Context) {
	var query dto.TaskListQuery
	_ = c.ShouldBindQuery(&query)
	response.OK(c, h.service.List(c.Request.Context(), query))
}

// Create godoc
// @Summary Add task
// @Tags Tasks
// @Accept json
// @Produce json
// @Param payload body dto.TaskTextRequest true "Task text"
// @Success 201 {object} response.Envelope
// @Router /tasks [post]
func (h *TaskHandler) Create(c *gin.Context) {
	var req dto.TaskTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	task, err := h.service.Add(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, task)
}

// Update godoc
// @Summary Edit task text
// @Tags Tasks
// @Accept json
// @Produce json
// @Param id path string true "Task ID"
// @Param payload body dto.TaskTextRequest true "Task text"
// @Success 200 {object} response.Envelope
// @Router /tasks/{id} [put]
func (h *TaskHandler) Update(c *gin.Context) {
	var req dto.TaskTextRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	task, err := h.service.Edit(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, task)
}

// Toggle godoc
// @Summary Flip task completion
// @Tags Tasks
// @Produce json
// @Param id path string true "Task ID"
// @Success 200 {object} response.Envelope
// @Router /tasks/{id}/toggle [patch]
func (h *TaskHandler) Toggle(c *gin.Context) {
	task, err := h.service.Toggle(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, task)
}

// Delete godoc
// @Summary Delete task
// @Tags Tasks
// @Param id path string true "Task ID"
// @Success 204
// @Router /tasks/{id} [delete]
func (h *TaskHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// ClearCompleted godoc
// @Summary Remove completed tasks
// @Tags Tasks
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /tasks/completed [delete]
func (h *TaskHandler) ClearCompleted(c *gin.Context) {
	removed, err := h.service.ClearCompleted(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"removed": removed})
}

// Sort godoc
// @Summary Reorder tasks
// @Tags Tasks
// @Accept json
// @Produce json
// @Param payload body dto.SortTasksRequest true "Sort key"
// @Success 200 {object} response.Envelope
// @Router /tasks/sort [post]
func (h *TaskHandler) Sort(c *gin.Context) {
	var req dto.SortTasksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	tasks, err := h.service.Sort(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, tasks)
}

// Stats godoc
// @Summary Task statistics
// @Tags Tasks
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /tasks/stats [get]
func (h *TaskHandler) Stats(c *gin.Context) {
	response.OK(c, h.service.Stats(c.Request.Context()))
}

// Export godoc
// @Summary Download tasks as JSON
// @Tags Tasks
// @Produce json
// @Success 200 {file} binary
// @Router /tasks/export [get]
func (h *TaskHandler) Export(c *gin.Context) {
	payload, err := h.service.Export(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, "tasks.json", "application/json", payload)
}

// Import godoc
// @Summary Replace tasks from a JSON export
// @Tags Tasks
// @Accept json
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /tasks/import [post]
func (h *TaskHandler) Import(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxImportBytes))
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "failed to read body"))
		return
	}
	count, err := h.service.Import(c.Request.Context(), body)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"imported": count})
}
