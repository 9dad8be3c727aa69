package repository

import (
	"time"

	"github.com/taskflow-ai/taskflow-api/internal/database"
	"github.com/taskflow-ai/taskflow-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormTaskRepository is a GORM implementation of TaskRepository.
// Soft-deleted tasks, and tasks whose project is soft-deleted, are invisible
// here; the recovery repository owns them.
type GormTaskRepository struct {
	db *gorm.DB
}

// inLiveProject drops tasks whose project is soft-deleted or gone.
func inLiveProject(db *gorm.DB) *gorm.DB {
	return db.Where("tasks.project_id IN (?)", db.Session(&gorm.Session{NewDB: true}).
		Model(&models.Project{}).
		Select("id"))
}

func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

func (r *GormTaskRepository) Create(task *models.Task) error {
	return r.db.Create(task).Error
}

func (r *GormTaskRepository) FindByID(id string, preload ...string) (*models.Task, error) {
	query := r.db
	for _, rel := range preload {
		query = query.Preload(rel)
	}

	var task models.Task
	if err := query.Scopes(inLiveProject).First(&task, "tasks.id = ?", id).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *GormTaskRepository) FindByIDs(ids []string) ([]models.Task, error) {
	tasks := []models.Task{}
	if len(ids) == 0 {
		return tasks, nil
	}
	err := r.db.Scopes(inLiveProject).Where("tasks.id IN ?", ids).Find(&tasks).Error
	return tasks, err
}

// matching narrows tasks to the filter. OrganizationIDs must be non-empty.
func matching(filter TaskFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		db = inLiveProject(db.Where("tasks.organization_id IN ?", filter.OrganizationIDs))

		conds := []struct {
			clause string
			value  any
			set    bool
		}{
			{"tasks.project_id = ?", deref(filter.ProjectID), filter.ProjectID != nil},
			{"tasks.column_id = ?", deref(filter.ColumnID), filter.ColumnID != nil},
			{"tasks.status = ?", filter.Status, filter.Status != nil},
			{"tasks.due_date >= ?", filter.DueDateFrom, filter.DueDateFrom != nil},
			{"tasks.due_date < ?", filter.DueDateTo, filter.DueDateTo != nil},
		}
		for _, cond := range conds {
			if cond.set {
				db = db.Where(cond.clause, cond.value)
			}
		}

		if filter.AssignedUserID != nil {
			db = db.Where("EXISTS (?)", db.Session(&gorm.Session{NewDB: true}).
				Model(&models.TaskAssignment{}).
				Select("1").
				Where("task_assignments.task_id = tasks.id AND task_assignments.user_id = ?", *filter.AssignedUserID))
		}
		return db
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// List returns one page of matching tasks with their creators, plus the
// total number of matches.
func (r *GormTaskRepository) List(filter TaskFilter) ([]models.Task, int64, error) {
	tasks := []models.Task{}
	if len(filter.OrganizationIDs) == 0 {
		return tasks, 0, nil
	}

	query := r.db.Model(&models.Task{}).Scopes(matching(filter))

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.SortByDueDate {
		// Tasks without a due date go last on every dialect.
		query = query.Order("CASE WHEN tasks.due_date IS NULL THEN 1 ELSE 0 END").Order("tasks.due_date ASC")
	} else {
		query = query.Order("tasks.created_at DESC").Order("tasks.id DESC")
	}

	err := query.
		Scopes(database.Paginate(filter.Page, filter.PageSize)).
		Preload("Creator").
		Find(&tasks).Error
	if err != nil {
		return nil, 0, err
	}
	return tasks, total, nil
}

func (r *GormTaskRepository) Update(task *models.Task) error {
	return r.db.Save(task).Error
}

func (r *GormTaskRepository) UpdateStatus(ids []string, status models.TaskStatus) error {
	return r.updateMany(ids, "status", status)
}

func (r *GormTaskRepository) MoveToColumn(ids []string, columnID string) error {
	return r.updateMany(ids, "column_id", columnID)
}

func (r *GormTaskRepository) updateMany(ids []string, column string, value any) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.Model(&models.Task{}).Where("id IN ?", ids).Update(column, value).Error
}

// AssignUsers upserts assignments. A previously removed assignment is
// revived with a fresh assigned_at.
func (r *GormTaskRepository) AssignUsers(taskID string, userIDs []string) error {
	if len(userIDs) == 0 {
		return nil
	}

	now := time.Now().UTC()
	rows := make([]models.TaskAssignment, 0, len(userIDs))
	for _, userID := range userIDs {
		rows = append(rows, models.TaskAssignment{TaskID: taskID, UserID: userID, AssignedAt: now})
	}

	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "task_id"}, {Name: "user_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"deleted_at":  nil,
			"assigned_at": now,
		}),
	}).Create(&rows).Error
}

func (r *GormTaskRepository) UnassignUsers(taskID string, userIDs []string) error {
	return r.db.Where("task_id = ? AND user_id IN ?", taskID, userIDs).
		Delete(&models.TaskAssignment{}).Error
}

// CountOrganizationMembers counts how many of userIDs belong to the organization.
func (r *GormTaskRepository) CountOrganizationMembers(organizationID string, userIDs []string) (int64, error) {
	var count int64
	err := r.db.Model(&models.OrganizationMember{}).
		Where("organization_id = ? AND user_id IN ?", organizationID, userIDs).
		Count(&count).Error
	return count, err
}
