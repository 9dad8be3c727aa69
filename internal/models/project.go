package models

import (
	"time"

	"github.com/taskflow-ai/taskflow-api/internal/ids"
	"gorm.io/gorm"
)

// Project is a kanban board inside an organization.
type Project struct {
	ID             string    `gorm:"type:varchar(26);primarykey" json:"id"`
	Name           string    `gorm:"type:varchar(255);not null" json:"name"`
	Description    string    `gorm:"type:text" json:"description"`
	RepositoryURL  string    `gorm:"type:varchar(512)" json:"repository_url"`
	OrganizationID string    `gorm:"type:varchar(26);not null;index" json:"organization_id"`
	OwnerID        string    `gorm:"type:varchar(26);not null" json:"owner_id"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	Recoverable

	// Relations
	Organization Organization `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`
	Owner        User         `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	Columns      []Column     `gorm:"foreignKey:ProjectID" json:"columns,omitempty"`
}

func (p *Project) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = ids.New()
	}
	return nil
}
