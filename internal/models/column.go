package models

import (
	"time"

	"github.com/taskflow-ai/taskflow-api/internal/ids"
	"gorm.io/gorm"
)

// Column is a kanban column of a project. Columns are removed outright,
// they are never soft-deleted.
type Column struct {
	ID        string    `gorm:"type:varchar(26);primarykey" json:"id"`
	ProjectID string    `gorm:"type:varchar(26);not null;index" json:"project_id"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	Position  int       `gorm:"not null;default:0" json:"position"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (c *Column) BeforeCreate(tx *gorm.DB) error {
	if c.ID == "" {
		c.ID = ids.New()
	}
	return nil
}
