package models

import (
	"time"

	"github.com/taskflow-ai/taskflow-api/internal/ids"
	"gorm.io/gorm"
)

// User is an account. Users are never part of the recovery ledger, so
// DeletedAt is plain GORM soft delete with no restore window.
type User struct {
	ID           string         `gorm:"type:varchar(26);primarykey" json:"id"`
	Username     string         `gorm:"type:varchar(50);uniqueIndex;not null" json:"username"`
	PasswordHash string         `gorm:"type:varchar(255);not null" json:"-"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == "" {
		u.ID = ids.New()
	}
	return nil
}
