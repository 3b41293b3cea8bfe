package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kawasumi/task-tracker-api/internal/dto"
	apierrors "github.com/kawasumi/task-tracker-api/internal/errors"
	"github.com/kawasumi/task-tracker-api/internal/middleware"
	"github.com/kawasumi/task-tracker-api/internal/models"
	"github.com/kawasumi/task-tracker-api/internal/services"
	"github.com/kawasumi/task-tracker-api/internal/utils"
)

// TaskHandler coordinates task HTTP handlers.
type TaskHandler struct {
	taskService *services.TaskService
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(taskService *services.TaskService) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
	}
}

// dateFormat is the wire format for due dates, datetimeLocalFormat the
// fallback for start/end timestamps submitted by datetime-local inputs.
const (
	dateFormat          = "2006-01-02"
	datetimeLocalFormat = "2006-01-02T15:04"
)

func parseDate(value string) (*time.Time, error) {
	t, err := time.ParseInLocation(dateFormat, value, time.Local)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func parseDateTime(value string) (*time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return &t, nil
	}
	t, err := time.ParseInLocation(datetimeLocalFormat, value, time.Local)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// ListTasks returns the tasks where the current user is creator or assignee.
func (h *TaskHandler) ListTasks(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	params := utils.GetPaginationParams(c)

	tasks, total, err := h.taskService.ListTasks(userID, params.Page, params.Limit)
	if err != nil {
		apierrors.InternalError(c, "Failed to fetch tasks")
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskListResponse(tasks, params.Page, params.Limit, total))
}

// CreateTaskRequest is the field set for creating a task. The creator is
// taken from the session, never from the client.
type CreateTaskRequest struct {
	Title       string  `json:"title" binding:"required"`
	Description string  `json:"description"`
	Priority    string  `json:"priority" binding:"omitempty,priority"`
	Type        string  `json:"type" binding:"omitempty,tasktype"`
	DueDate     *string `json:"due_date"`
	StartTime   *string `json:"start_time"`
	EndTime     *string `json:"end_time"`
	AssigneeID  *uint64 `json:"assignee_id"`
}

// CreateTask creates a new task owned by the current user.
func (h *TaskHandler) CreateTask(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	input := services.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    models.TaskPriority(req.Priority),
		Type:        models.TaskType(req.Type),
		AssigneeID:  req.AssigneeID,
		CreatorID:   userID,
	}

	if req.DueDate != nil && *req.DueDate != "" {
		dueDate, err := parseDate(*req.DueDate)
		if err != nil {
			apierrors.BadRequest(c, "Invalid due_date, expected YYYY-MM-DD")
			return
		}
		input.DueDate = dueDate
	}
	if req.StartTime != nil && *req.StartTime != "" {
		startTime, err := parseDateTime(*req.StartTime)
		if err != nil {
			apierrors.BadRequest(c, "Invalid start_time")
			return
		}
		input.StartTime = startTime
	}
	if req.EndTime != nil && *req.EndTime != "" {
		endTime, err := parseDateTime(*req.EndTime)
		if err != nil {
			apierrors.BadRequest(c, "Invalid end_time")
			return
		}
		input.EndTime = endTime
	}

	task, err := h.taskService.CreateTask(input)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTaskDTO(*task))
}

// GetTask returns the task loaded by RequireTaskAccess.
func (h *TaskHandler) GetTask(c *gin.Context) {
	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(task))
}

// UpdateTaskRequest is the field set for updating a task. Timer fields are
// bound only so their presence can be rejected: lifecycle transitions run
// through the start and complete actions.
type UpdateTaskRequest struct {
	Title         *string `json:"title"`
	Description   *string `json:"description"`
	Priority      *string `json:"priority" binding:"omitempty,priority"`
	Type          *string `json:"type" binding:"omitempty,tasktype"`
	DueDate       *string `json:"due_date"`
	ClearDueDate  bool    `json:"clear_due_date"`
	AssigneeID    *uint64 `json:"assignee_id"`
	ClearAssignee bool    `json:"clear_assignee"`
	StartTime     *string `json:"start_time"`
	EndTime       *string `json:"end_time"`
}

// UpdateTask mutates the supplied fields of a task.
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	var req UpdateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	if req.StartTime != nil || req.EndTime != nil {
		respondTaskError(c, services.ErrTimesNotEditable)
		return
	}

	input := services.UpdateTaskInput{
		Title:         req.Title,
		Description:   req.Description,
		ClearDueDate:  req.ClearDueDate,
		AssigneeID:    req.AssigneeID,
		ClearAssignee: req.ClearAssignee,
	}
	if req.Priority != nil {
		priority := models.TaskPriority(*req.Priority)
		input.Priority = &priority
	}
	if req.Type != nil {
		taskType := models.TaskType(*req.Type)
		input.Type = &taskType
	}
	if req.DueDate != nil && *req.DueDate != "" {
		dueDate, err := parseDate(*req.DueDate)
		if err != nil {
			apierrors.BadRequest(c, "Invalid due_date, expected YYYY-MM-DD")
			return
		}
		input.DueDate = dueDate
	}

	updated, err := h.taskService.UpdateTask(task.ID, userID, input)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*updated))
}

// DeleteTask removes a task.
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	if err := h.taskService.DeleteTask(task.ID, userID); err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Task deleted successfully",
	})
}

// StartTask records the start time. Starting twice is a warning no-op.
func (h *TaskHandler) StartTask(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	updated, started, err := h.taskService.StartTask(task.ID, userID)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	if !started {
		c.JSON(http.StatusOK, gin.H{
			"warning": "Task has already been started",
			"task":    dto.ToTaskDTO(*updated),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"task": dto.ToTaskDTO(*updated),
	})
}

// CompleteTask records the end time. Completing twice is a warning no-op.
func (h *TaskHandler) CompleteTask(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	updated, completed, err := h.taskService.CompleteTask(task.ID, userID)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	if !completed {
		c.JSON(http.StatusOK, gin.H{
			"warning": "Task has already been completed",
			"task":    dto.ToTaskDTO(*updated),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"task": dto.ToTaskDTO(*updated),
	})
}

func respondTaskError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrTaskNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrTaskPermissionDenied):
		apierrors.Forbidden(c, err.Error())
	case errors.Is(err, services.ErrTitleRequired),
		errors.Is(err, services.ErrTitleEmpty),
		errors.Is(err, services.ErrDueDateInPast),
		errors.Is(err, services.ErrStartTimeInPast),
		errors.Is(err, services.ErrEndTimeInPast),
		errors.Is(err, services.ErrEndBeforeStart),
		errors.Is(err, services.ErrTimesNotEditable),
		errors.Is(err, services.ErrAssigneeNotFound):
		apierrors.ValidationFailed(c, err.Error())
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}
