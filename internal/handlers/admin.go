package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/kawasumi/task-tracker-api/internal/dto"
	apierrors "github.com/kawasumi/task-tracker-api/internal/errors"
	"github.com/kawasumi/task-tracker-api/internal/models"
	"github.com/kawasumi/task-tracker-api/internal/repository"
	"github.com/kawasumi/task-tracker-api/internal/services"
	"github.com/kawasumi/task-tracker-api/internal/utils"
)

// AdminHandler serves the bulk record-management surface. Every route is
// behind RequireAdminAccess.
type AdminHandler struct {
	adminService *services.AdminService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(adminService *services.AdminService) *AdminHandler {
	return &AdminHandler{
		adminService: adminService,
	}
}

// ListUsers lists users with search and filter support.
func (h *AdminHandler) ListUsers(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	filter := repository.UserFilter{
		Search:   c.Query("search"),
		Page:     params.Page,
		PageSize: params.Limit,
	}
	if v := c.Query("department"); v != "" {
		department := models.Department(v)
		filter.Department = &department
	}
	if v := c.Query("status"); v != "" {
		status := models.UserStatus(v)
		filter.Status = &status
	}

	users, total, err := h.adminService.ListUsers(filter)
	if err != nil {
		apierrors.InternalError(c, "Failed to fetch users")
		return
	}

	userDTOs := make([]dto.UserDTO, len(users))
	for i, user := range users {
		userDTOs[i] = dto.ToUserDTO(user)
	}

	c.JSON(http.StatusOK, gin.H{
		"users": userDTOs,
		"pagination": utils.PaginationResponse{
			Page:  params.Page,
			Limit: params.Limit,
			Total: total,
		},
	})
}

// AdminUpdateUserRequest is the inline-edit field set for users. The
// credential hash is not part of it and never will be.
type AdminUpdateUserRequest struct {
	Username *string `json:"username" binding:"omitempty,min=2,max=150"`
	Email    *string `json:"email" binding:"omitempty,email"`
	UpdateProfileRequest
	IsAdmin *bool `json:"is_admin"`
}

// UpdateUser inline-edits a user record.
func (h *AdminHandler) UpdateUser(c *gin.Context) {
	userID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid user ID")
		return
	}

	var req AdminUpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	input := services.AdminUpdateUserInput{
		Username: req.Username,
		Email:    req.Email,
		IsAdmin:  req.IsAdmin,
		UpdateProfileInput: services.UpdateProfileInput{
			FirstName:   req.FirstName,
			MiddleName:  req.MiddleName,
			LastName:    req.LastName,
			PhoneNumber: req.PhoneNumber,
			Address:     req.Address,
		},
	}
	if req.Department != nil {
		department := models.Department(*req.Department)
		input.Department = &department
	}
	if req.Status != nil {
		status := models.UserStatus(*req.Status)
		input.Status = &status
	}

	user, err := h.adminService.UpdateUser(userID, input)
	if err != nil {
		respondAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserDTO(*user))
}

// ListTasks lists tasks with search and filter support.
func (h *AdminHandler) ListTasks(c *gin.Context) {
	params := utils.GetPaginationParams(c)

	filter := repository.TaskFilter{
		Search:   c.Query("search"),
		Page:     params.Page,
		PageSize: params.Limit,
	}
	if v := c.Query("priority"); v != "" {
		priority := models.TaskPriority(v)
		filter.Priority = &priority
	}
	if v := c.Query("type"); v != "" {
		taskType := models.TaskType(v)
		filter.Type = &taskType
	}
	if v := c.Query("creator_id"); v != "" {
		creatorID, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid creator_id")
			return
		}
		filter.CreatorID = &creatorID
	}
	if v := c.Query("assignee_id"); v != "" {
		assigneeID, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid assignee_id")
			return
		}
		filter.AssigneeID = &assigneeID
	}

	tasks, total, err := h.adminService.ListTasks(filter)
	if err != nil {
		apierrors.InternalError(c, "Failed to fetch tasks")
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskListResponse(tasks, params.Page, params.Limit, total))
}

// UpdateTask inline-edits a task record. The creator is never
// reassignable; the timer fields only move through start/complete.
func (h *AdminHandler) UpdateTask(c *gin.Context) {
	taskID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid task ID")
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

	task, err := h.adminService.UpdateTask(taskID, input)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// DeleteTask removes a task record.
func (h *AdminHandler) DeleteTask(c *gin.Context) {
	taskID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid task ID")
		return
	}

	if err := h.adminService.DeleteTask(taskID); err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Task deleted successfully",
	})
}
