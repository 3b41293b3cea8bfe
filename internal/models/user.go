package models

import (
	"time"

	"gorm.io/gorm"
)

type UserStatus string

const (
	UserStatusActive UserStatus = "active"
	UserStatusAway   UserStatus = "away"
	UserStatusBusy   UserStatus = "busy"
)

type Department string

const (
	DepartmentHR         Department = "HR"
	DepartmentIT         Department = "IT"
	DepartmentFinance    Department = "Finance"
	DepartmentMarketing  Department = "Marketing"
	DepartmentOperations Department = "Operations"
	DepartmentLegal      Department = "Legal"
)

type User struct {
	ID           uint64         `gorm:"primarykey" json:"id"`
	Username     string         `gorm:"type:varchar(150);uniqueIndex;not null" json:"username"`
	Email        string         `gorm:"type:varchar(150);uniqueIndex;not null" json:"email"`
	PasswordHash string         `gorm:"type:varchar(255);not null" json:"-"`
	FirstName    string         `gorm:"type:varchar(150)" json:"first_name"`
	MiddleName   string         `gorm:"type:varchar(150)" json:"middle_name"`
	LastName     string         `gorm:"type:varchar(150)" json:"last_name"`
	Department   Department     `gorm:"type:varchar(50)" json:"department"`
	PhoneNumber  string         `gorm:"type:varchar(20)" json:"phone_number"`
	Address      string         `gorm:"type:varchar(250)" json:"address"`
	AvatarRef    string         `gorm:"type:varchar(64)" json:"avatar_ref"`
	Status       UserStatus     `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	IsAdmin      bool           `gorm:"not null;default:false" json:"is_admin"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	CreatedTasks  []Task `gorm:"foreignKey:CreatorID" json:"-"`
	AssignedTasks []Task `gorm:"foreignKey:AssigneeID" json:"-"`
}

// IsProfileComplete reports whether the user has filled out the profile
// fields required before the dashboard is reachable. Evaluated on every
// login, there is no persisted onboarding flag.
func (u *User) IsProfileComplete() bool {
	return u.FirstName != "" && u.LastName != "" && u.Department != "" && u.PhoneNumber != ""
}
