package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kawasumi/task-tracker-api/internal/dto"
	apierrors "github.com/kawasumi/task-tracker-api/internal/errors"
	"github.com/kawasumi/task-tracker-api/internal/middleware"
	"github.com/kawasumi/task-tracker-api/internal/models"
	"github.com/kawasumi/task-tracker-api/internal/services"
	"github.com/kawasumi/task-tracker-api/internal/utils"
)

// UserHandler serves profile and security settings for the current user.
type UserHandler struct {
	authService *services.AuthService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(authService *services.AuthService) *UserHandler {
	return &UserHandler{
		authService: authService,
	}
}

// UpdateProfileRequest carries the optional profile fields. Enum fields are
// checked against the closed value sets at the binding edge.
type UpdateProfileRequest struct {
	FirstName   *string `json:"first_name"`
	MiddleName  *string `json:"middle_name"`
	LastName    *string `json:"last_name"`
	Department  *string `json:"department" binding:"omitempty,department"`
	PhoneNumber *string `json:"phone_number"`
	Address     *string `json:"address"`
	Status      *string `json:"status" binding:"omitempty,userstatus"`
}

// UpdateProfile overwrites the supplied profile attributes.
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	input := services.UpdateProfileInput{
		FirstName:   req.FirstName,
		MiddleName:  req.MiddleName,
		LastName:    req.LastName,
		PhoneNumber: req.PhoneNumber,
		Address:     req.Address,
	}
	if req.Department != nil {
		department := models.Department(*req.Department)
		input.Department = &department
	}
	if req.Status != nil {
		status := models.UserStatus(*req.Status)
		input.Status = &status
	}

	user, err := h.authService.UpdateProfile(userID, input)
	if err != nil {
		respondAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserDTO(*user))
}

// UpdateAvatar issues a fresh upload reference and stores it on the
// profile. The actual file handling lives outside this service.
func (h *UserHandler) UpdateAvatar(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	ref := utils.NewAvatarRef()
	user, err := h.authService.SetAvatarRef(userID, ref)
	if err != nil {
		respondAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"avatar_ref": user.AvatarRef,
	})
}

// ChangePassword overwrites the credential after verifying the current one.
func (h *UserHandler) ChangePassword(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type ChangePasswordRequest struct {
		CurrentPassword string `json:"current_password" binding:"required"`
		NewPassword     string `json:"new_password" binding:"required"`
	}

	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	if err := h.authService.ChangePassword(userID, req.CurrentPassword, req.NewPassword); err != nil {
		respondAuthError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Password updated successfully",
	})
}

// ListUsers returns the minimal user list for assignee pickers.
func (h *UserHandler) ListUsers(c *gin.Context) {
	users, err := h.authService.ListUsers()
	if err != nil {
		apierrors.InternalError(c, "Failed to fetch users")
		return
	}

	refs := make([]dto.UserRefDTO, len(users))
	for i, user := range users {
		refs[i] = dto.ToUserRefDTO(user)
	}

	c.JSON(http.StatusOK, gin.H{
		"users": refs,
	})
}
