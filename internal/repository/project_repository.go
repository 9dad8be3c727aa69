package repository

import (
	"github.com/taskflow-ai/taskflow-api/internal/models"
	"gorm.io/gorm"
)

// GormProjectRepository is a GORM implementation of ProjectRepository
type GormProjectRepository struct {
	db *gorm.DB
}

// NewProjectRepository creates a new ProjectRepository
func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &GormProjectRepository{db: db}
}

// CreateWithColumns creates a project and its initial columns atomically
func (r *GormProjectRepository) CreateWithColumns(project *models.Project, columns []models.Column) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(project).Error; err != nil {
			return err
		}
		if len(columns) == 0 {
			return nil
		}
		for i := range columns {
			columns[i].ProjectID = project.ID
		}
		if err := tx.Create(&columns).Error; err != nil {
			return err
		}
		project.Columns = columns
		return nil
	})
}

// FindByID finds a live project by ID with optional preloading
func (r *GormProjectRepository) FindByID(id string, preload ...string) (*models.Project, error) {
	var project models.Project
	query := r.db

	for _, p := range preload {
		if p == "Columns" {
			query = query.Preload("Columns", func(db *gorm.DB) *gorm.DB {
				return db.Order("columns.position ASC")
			})
			continue
		}
		query = query.Preload(p)
	}

	if err := query.Where("id = ?", id).First(&project).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

// ListByOrganization lists the live projects of an organization
func (r *GormProjectRepository) ListByOrganization(organizationID string) ([]models.Project, error) {
	var projects []models.Project
	if err := r.db.Where("organization_id = ?", organizationID).
		Order("created_at ASC").
		Find(&projects).Error; err != nil {
		return nil, err
	}
	return projects, nil
}

// Update updates a project
func (r *GormProjectRepository) Update(project *models.Project) error {
	return r.db.Omit("Columns", "Organization", "Owner").Save(project).Error
}
