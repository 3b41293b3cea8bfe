package models

import (
	"time"

	"gorm.io/gorm"
)

type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
)

type TaskType string

const (
	TaskTypeIndividual TaskType = "individual"
	TaskTypeGroup      TaskType = "group"
)

// TaskState is derived from the timer fields, never stored.
type TaskState string

const (
	TaskStateCreated   TaskState = "created"
	TaskStateStarted   TaskState = "started"
	TaskStateCompleted TaskState = "completed"
)

type Task struct {
	ID          uint64         `gorm:"primarykey" json:"id"`
	Title       string         `gorm:"type:varchar(150);not null" json:"title"`
	Description string         `gorm:"type:text" json:"description"`
	Priority    TaskPriority   `gorm:"type:varchar(20);not null;default:'low'" json:"priority"`
	Type        TaskType       `gorm:"type:varchar(20);not null;default:'individual'" json:"type"`
	DueDate     *time.Time     `json:"due_date"`
	StartTime   *time.Time     `json:"start_time"`
	EndTime     *time.Time     `json:"end_time"`
	CreatorID   uint64         `gorm:"not null;index" json:"creator_id"`
	AssigneeID  *uint64        `gorm:"index" json:"assignee_id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Creator  User  `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`
	Assignee *User `gorm:"foreignKey:AssigneeID" json:"assignee,omitempty"`
}

// State derives the lifecycle position from the timer fields. A task with
// an end time counts as completed even if it was never started.
func (t *Task) State() TaskState {
	switch {
	case t.EndTime != nil:
		return TaskStateCompleted
	case t.StartTime != nil:
		return TaskStateStarted
	default:
		return TaskStateCreated
	}
}

// Duration returns end minus start when both timestamps are set, nil
// otherwise. Computed on demand, no stored field.
func (t *Task) Duration() *time.Duration {
	if t.StartTime == nil || t.EndTime == nil {
		return nil
	}
	d := t.EndTime.Sub(*t.StartTime)
	return &d
}

// CanBeActedOnBy is the single access rule for edit, delete, start and
// complete: the actor must be the creator or the assignee.
func (t *Task) CanBeActedOnBy(userID uint64) bool {
	if t.CreatorID == userID {
		return true
	}
	return t.AssigneeID != nil && *t.AssigneeID == userID
}
