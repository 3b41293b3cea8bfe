package repository

import (
	"github.com/kawasumi/task-tracker-api/internal/models"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(user *models.User) error

	// FindByID finds a user by ID
	FindByID(id uint64) (*models.User, error)

	// FindByUsername finds a user by username
	FindByUsername(username string) (*models.User, error)

	// FindByEmail finds a user by email
	FindByEmail(email string) (*models.User, error)

	// FindByIdentifier finds a user whose username or email matches
	FindByIdentifier(identifier string) (*models.User, error)

	// Update persists all fields of a user
	Update(user *models.User) error

	// List retrieves users with filtering and pagination
	List(filter UserFilter) ([]models.User, int64, error)
}

// UserFilter holds filtering options for listing users
type UserFilter struct {
	Search     string // substring match on username or email
	Department *models.Department
	Status     *models.UserStatus
	Page       int
	PageSize   int
}

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Create creates a new task
	Create(task *models.Task) error

	// FindByID finds a task by ID with optional preloading
	FindByID(id uint64, preload ...string) (*models.Task, error)

	// List retrieves tasks with filtering and pagination
	List(filter TaskFilter) ([]models.Task, int64, error)

	// Update persists all fields of a task
	Update(task *models.Task) error

	// Delete soft deletes a task
	Delete(id uint64) error
}

// TaskFilter holds filtering options for listing tasks
type TaskFilter struct {
	// MemberID restricts to tasks where the user is creator or assignee.
	MemberID *uint64

	Search     string // substring match on title
	Priority   *models.TaskPriority
	Type       *models.TaskType
	CreatorID  *uint64
	AssigneeID *uint64
	Page       int
	PageSize   int
}
