package dto

import (
	"time"

	"github.com/kawasumi/task-tracker-api/internal/models"
)

// UserDTO represents a user in API responses
type UserDTO struct {
	ID              uint64            `json:"id"`
	Username        string            `json:"username"`
	Email           string            `json:"email"`
	FirstName       string            `json:"first_name"`
	MiddleName      string            `json:"middle_name"`
	LastName        string            `json:"last_name"`
	Department      models.Department `json:"department"`
	PhoneNumber     string            `json:"phone_number"`
	Address         string            `json:"address"`
	AvatarRef       string            `json:"avatar_ref"`
	Status          models.UserStatus `json:"status"`
	IsAdmin         bool              `json:"is_admin"`
	ProfileComplete bool              `json:"profile_complete"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// UserRefDTO is the minimal user shape used in task responses and the
// assignee picker.
type UserRefDTO struct {
	ID       uint64 `json:"id"`
	Username string `json:"username"`
}

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:              user.ID,
		Username:        user.Username,
		Email:           user.Email,
		FirstName:       user.FirstName,
		MiddleName:      user.MiddleName,
		LastName:        user.LastName,
		Department:      user.Department,
		PhoneNumber:     user.PhoneNumber,
		Address:         user.Address,
		AvatarRef:       user.AvatarRef,
		Status:          user.Status,
		IsAdmin:         user.IsAdmin,
		ProfileComplete: user.IsProfileComplete(),
		CreatedAt:       user.CreatedAt,
		UpdatedAt:       user.UpdatedAt,
	}
}

// ToUserRefDTO converts a User model to UserRefDTO
func ToUserRefDTO(user models.User) UserRefDTO {
	return UserRefDTO{
		ID:       user.ID,
		Username: user.Username,
	}
}
