package repository

import (
	"github.com/taskflow-ai/taskflow-api/internal/models"
	"gorm.io/gorm"
)

// GormColumnRepository is a GORM implementation of ColumnRepository
type GormColumnRepository struct {
	db *gorm.DB
}

// NewColumnRepository creates a new ColumnRepository
func NewColumnRepository(db *gorm.DB) ColumnRepository {
	return &GormColumnRepository{db: db}
}

// Create creates a column
func (r *GormColumnRepository) Create(column *models.Column) error {
	return r.db.Create(column).Error
}

// FindByID finds a column by ID
func (r *GormColumnRepository) FindByID(id string) (*models.Column, error) {
	var column models.Column
	if err := r.db.Where("id = ?", id).First(&column).Error; err != nil {
		return nil, err
	}
	return &column, nil
}

// ListByProject lists the columns of a project ordered by position
func (r *GormColumnRepository) ListByProject(projectID string) ([]models.Column, error) {
	var columns []models.Column
	if err := r.db.Where("project_id = ?", projectID).
		Order("position ASC").
		Find(&columns).Error; err != nil {
		return nil, err
	}
	return columns, nil
}

// NextPosition returns the position after the last column of a project
func (r *GormColumnRepository) NextPosition(projectID string) (int, error) {
	var maxPosition int
	if err := r.db.Model(&models.Column{}).
		Where("project_id = ?", projectID).
		Select("COALESCE(MAX(position), -1)").
		Scan(&maxPosition).Error; err != nil {
		return 0, err
	}
	return maxPosition + 1, nil
}

// Update updates a column
func (r *GormColumnRepository) Update(column *models.Column) error {
	return r.db.Save(column).Error
}

// Delete removes a column. Tasks in it, deleted or not, lose their column.
func (r *GormColumnRepository) Delete(id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Unscoped().Model(&models.Task{}).
			Where("column_id = ?", id).
			Update("column_id", nil).Error; err != nil {
			return err
		}
		res := tx.Where("id = ?", id).Delete(&models.Column{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
