package models

import (
	"time"

	"gorm.io/gorm"
)

// TaskAssignment links a user to a task. Unassigning soft-deletes the row;
// assigning the same user again revives it.
type TaskAssignment struct {
	TaskID     string         `gorm:"type:varchar(26);primarykey" json:"task_id"`
	UserID     string         `gorm:"type:varchar(26);primarykey" json:"user_id"`
	AssignedAt time.Time      `gorm:"autoCreateTime" json:"assigned_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`

	Task Task `gorm:"foreignKey:TaskID" json:"-"`
	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
