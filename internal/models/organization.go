package models

import (
	"time"

	"github.com/taskflow-ai/taskflow-api/internal/ids"
	"gorm.io/gorm"
)

type Organization struct {
	ID         string    `gorm:"type:varchar(26);primarykey" json:"id"`
	Name       string    `gorm:"type:varchar(255);not null" json:"name"`
	InviteCode string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"invite_code"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	Recoverable

	// Relations
	Members  []OrganizationMember `gorm:"foreignKey:OrganizationID" json:"members,omitempty"`
	Projects []Project            `gorm:"foreignKey:OrganizationID" json:"projects,omitempty"`
}

func (o *Organization) BeforeCreate(tx *gorm.DB) error {
	if o.ID == "" {
		o.ID = ids.New()
	}
	return nil
}
