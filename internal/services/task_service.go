package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/kawasumi/task-tracker-api/internal/models"
	"github.com/kawasumi/task-tracker-api/internal/repository"
)

var (
	ErrTaskNotFound         = errors.New("task not found")
	ErrTitleRequired        = errors.New("title is required")
	ErrTitleEmpty           = errors.New("title cannot be empty")
	ErrTaskPermissionDenied = errors.New("user does not have permission to act on this task")
	ErrAssigneeNotFound     = errors.New("assignee does not exist")
	ErrDueDateInPast        = errors.New("due date cannot be in the past")
	ErrStartTimeInPast      = errors.New("start time cannot be in the past")
	ErrEndTimeInPast        = errors.New("end time cannot be in the past")
	ErrEndBeforeStart       = errors.New("end time cannot be before start time")
	ErrTimesNotEditable     = errors.New("start and end time can only change through the start and complete actions")
)

// TaskService handles task business logic. Lifecycle transitions run only
// through Start and Complete; generic updates cannot touch the timer fields.
type TaskService struct {
	taskRepo repository.TaskRepository
	userRepo repository.UserRepository
	now      func() time.Time
}

// NewTaskService creates a new TaskService
func NewTaskService(taskRepo repository.TaskRepository, userRepo repository.UserRepository) *TaskService {
	return &TaskService{
		taskRepo: taskRepo,
		userRepo: userRepo,
		now:      time.Now,
	}
}

// SetClock overrides the time source (used for testing).
func (s *TaskService) SetClock(now func() time.Time) {
	s.now = now
}

// CreateTaskInput represents input for creating a task
type CreateTaskInput struct {
	Title       string
	Description string
	Priority    models.TaskPriority
	Type        models.TaskType
	DueDate     *time.Time
	StartTime   *time.Time
	EndTime     *time.Time
	AssigneeID  *uint64
	CreatorID   uint64
}

// UpdateTaskInput represents input for updating a task. Timer fields are
// deliberately absent.
type UpdateTaskInput struct {
	Title         *string
	Description   *string
	Priority      *models.TaskPriority
	Type          *models.TaskType
	DueDate       *time.Time
	ClearDueDate  bool
	AssigneeID    *uint64
	ClearAssignee bool
}

// ListTasks returns tasks where the user is creator or assignee, in
// insertion order.
func (s *TaskService) ListTasks(userID uint64, page, pageSize int) ([]models.Task, int64, error) {
	tasks, total, err := s.taskRepo.List(repository.TaskFilter{
		MemberID: &userID,
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}

	return tasks, total, nil
}

// GetTask returns a task with related data
func (s *TaskService) GetTask(taskID uint64) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(taskID, "Creator", "Assignee")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	return task, nil
}

// CreateTask creates a new task. The creator is always the authenticated
// actor, never client-supplied. All validation runs before persistence.
func (s *TaskService) CreateTask(input CreateTaskInput) (*models.Task, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}

	if err := s.validateTimes(input.DueDate, input.StartTime, input.EndTime); err != nil {
		return nil, err
	}

	if input.AssigneeID != nil {
		if err := s.ensureUserExists(*input.AssigneeID); err != nil {
			return nil, err
		}
	}

	if input.Priority == "" {
		input.Priority = models.PriorityLow
	}
	if input.Type == "" {
		input.Type = models.TaskTypeIndividual
	}

	task := &models.Task{
		Title:       title,
		Description: input.Description,
		Priority:    input.Priority,
		Type:        input.Type,
		DueDate:     input.DueDate,
		StartTime:   input.StartTime,
		EndTime:     input.EndTime,
		AssigneeID:  input.AssigneeID,
		CreatorID:   input.CreatorID,
	}

	if err := s.taskRepo.Create(task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	return s.taskRepo.FindByID(task.ID, "Creator", "Assignee")
}

// UpdateTask updates an existing task on behalf of an actor. Only supplied
// fields change, and the whole update is rejected on the first failed rule.
func (s *TaskService) UpdateTask(taskID, actorID uint64, input UpdateTaskInput) (*models.Task, error) {
	task, err := s.loadForActor(taskID, actorID)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		if strings.TrimSpace(*input.Title) == "" {
			return nil, ErrTitleEmpty
		}
		task.Title = strings.TrimSpace(*input.Title)
	}
	if input.Description != nil {
		task.Description = *input.Description
	}
	if input.Priority != nil {
		task.Priority = *input.Priority
	}
	if input.Type != nil {
		task.Type = *input.Type
	}
	if input.ClearDueDate {
		task.DueDate = nil
	} else if input.DueDate != nil {
		if err := s.validateTimes(input.DueDate, nil, nil); err != nil {
			return nil, err
		}
		task.DueDate = input.DueDate
	}
	if input.ClearAssignee {
		task.AssigneeID = nil
		task.Assignee = nil
	} else if input.AssigneeID != nil {
		if err := s.ensureUserExists(*input.AssigneeID); err != nil {
			return nil, err
		}
		task.AssigneeID = input.AssigneeID
	}

	if err := s.taskRepo.Update(task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	return s.taskRepo.FindByID(task.ID, "Creator", "Assignee")
}

// DeleteTask removes a task if the actor is its creator or assignee.
func (s *TaskService) DeleteTask(taskID, actorID uint64) error {
	task, err := s.loadForActor(taskID, actorID)
	if err != nil {
		return err
	}

	if err := s.taskRepo.Delete(task.ID); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	return nil
}

// StartTask records the start time. Starting an already started or
// completed task is a no-op; the returned bool reports whether the
// transition happened.
func (s *TaskService) StartTask(taskID, actorID uint64) (*models.Task, bool, error) {
	task, err := s.loadForActor(taskID, actorID)
	if err != nil {
		return nil, false, err
	}

	if task.State() != models.TaskStateCreated {
		return task, false, nil
	}

	now := s.now()
	task.StartTime = &now
	if err := s.taskRepo.Update(task); err != nil {
		return nil, false, fmt.Errorf("failed to start task: %w", err)
	}

	return task, true, nil
}

// CompleteTask records the end time. A task may complete without ever
// starting. Completing twice is a no-op; the returned bool reports whether
// the transition happened.
func (s *TaskService) CompleteTask(taskID, actorID uint64) (*models.Task, bool, error) {
	task, err := s.loadForActor(taskID, actorID)
	if err != nil {
		return nil, false, err
	}

	if task.EndTime != nil {
		return task, false, nil
	}

	now := s.now()
	task.EndTime = &now
	if err := s.taskRepo.Update(task); err != nil {
		return nil, false, fmt.Errorf("failed to complete task: %w", err)
	}

	return task, true, nil
}

// loadForActor fetches a task and enforces the creator-or-assignee rule.
func (s *TaskService) loadForActor(taskID, actorID uint64) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	if !task.CanBeActedOnBy(actorID) {
		return nil, ErrTaskPermissionDenied
	}

	return task, nil
}

// validateTimes enforces the temporal rules: due date not before today,
// start/end not before now, end not before start.
func (s *TaskService) validateTimes(dueDate, start, end *time.Time) error {
	now := s.now()

	if dueDate != nil {
		startOfToday := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		if dueDate.Before(startOfToday) {
			return ErrDueDateInPast
		}
	}
	if start != nil && start.Before(now) {
		return ErrStartTimeInPast
	}
	if end != nil {
		if end.Before(now) {
			return ErrEndTimeInPast
		}
		if start != nil && end.Before(*start) {
			return ErrEndBeforeStart
		}
	}

	return nil
}

func (s *TaskService) ensureUserExists(userID uint64) error {
	if _, err := s.userRepo.FindByID(userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAssigneeNotFound
		}
		return fmt.Errorf("failed to verify assignee: %w", err)
	}
	return nil
}
