package repository

import (
	"fmt"
	"time"

	"github.com/taskflow-ai/taskflow-api/internal/database"
	"github.com/taskflow-ai/taskflow-api/internal/models"
	"gorm.io/gorm"
)

// GormRecoveryRepository is a GORM implementation of RecoveryRepository
type GormRecoveryRepository struct {
	db *gorm.DB
}

// NewRecoveryRepository creates a new RecoveryRepository
func NewRecoveryRepository(db *gorm.DB) RecoveryRepository {
	return &GormRecoveryRepository{db: db}
}

func modelFor(itemType models.ItemType) (any, error) {
	switch itemType {
	case models.ItemTypeTask:
		return &models.Task{}, nil
	case models.ItemTypeProject:
		return &models.Project{}, nil
	case models.ItemTypeOrganization:
		return &models.Organization{}, nil
	}
	return nil, fmt.Errorf("unknown item type %q", itemType)
}

// SoftDelete flags a live record as deleted
func (r *GormRecoveryRepository) SoftDelete(itemType models.ItemType, id, actorID string, deletedAt, expiresAt time.Time) error {
	model, err := modelFor(itemType)
	if err != nil {
		return err
	}

	// The default scope keeps this to rows whose deleted_at is still NULL.
	res := r.db.Model(model).Where("id = ?", id).Updates(map[string]any{
		"deleted_at": deletedAt,
		"expires_at": expiresAt,
		"deleted_by": actorID,
		"updated_at": deletedAt,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// FindItem finds a record by ID whether or not it is soft-deleted
func (r *GormRecoveryRepository) FindItem(itemType models.ItemType, id string) (*RecoveryRecord, error) {
	switch itemType {
	case models.ItemTypeTask:
		var task models.Task
		if err := r.db.Unscoped().Where("id = ?", id).First(&task).Error; err != nil {
			return nil, err
		}
		record := taskRecord(task)
		return &record, nil
	case models.ItemTypeProject:
		var project models.Project
		if err := r.db.Unscoped().Where("id = ?", id).First(&project).Error; err != nil {
			return nil, err
		}
		record := projectRecord(project)
		return &record, nil
	case models.ItemTypeOrganization:
		var org models.Organization
		if err := r.db.Unscoped().Where("id = ?", id).First(&org).Error; err != nil {
			return nil, err
		}
		record := organizationRecord(org)
		return &record, nil
	}
	return nil, fmt.Errorf("unknown item type %q", itemType)
}

// ListDeleted lists restorable records of one type visible to the actor,
// newest deletion first.
func (r *GormRecoveryRepository) ListDeleted(itemType models.ItemType, filter DeletedItemFilter) ([]RecoveryRecord, error) {
	query := database.SoftDeleted(r.db).Scopes(database.RestorableAt(filter.Now))
	orgIDs := nonEmpty(filter.OrganizationIDs)

	switch itemType {
	case models.ItemTypeTask:
		query = query.Where("(creator_id = ? OR deleted_by = ? OR organization_id IN ?)", filter.ActorID, filter.ActorID, orgIDs)
		if filter.OrganizationScope != nil {
			query = query.Where("organization_id = ?", *filter.OrganizationScope)
		}
		var tasks []models.Task
		if err := query.Order("deleted_at DESC").Find(&tasks).Error; err != nil {
			return nil, err
		}
		records := make([]RecoveryRecord, 0, len(tasks))
		for _, t := range tasks {
			records = append(records, taskRecord(t))
		}
		return records, nil

	case models.ItemTypeProject:
		query = query.Where("(owner_id = ? OR deleted_by = ? OR organization_id IN ?)", filter.ActorID, filter.ActorID, orgIDs)
		if filter.OrganizationScope != nil {
			query = query.Where("organization_id = ?", *filter.OrganizationScope)
		}
		var projects []models.Project
		if err := query.Order("deleted_at DESC").Find(&projects).Error; err != nil {
			return nil, err
		}
		records := make([]RecoveryRecord, 0, len(projects))
		for _, p := range projects {
			records = append(records, projectRecord(p))
		}
		return records, nil

	case models.ItemTypeOrganization:
		query = query.Where("(id IN ? OR deleted_by = ?)", orgIDs, filter.ActorID)
		if filter.OrganizationScope != nil {
			query = query.Where("id = ?", *filter.OrganizationScope)
		}
		var orgs []models.Organization
		if err := query.Order("deleted_at DESC").Find(&orgs).Error; err != nil {
			return nil, err
		}
		records := make([]RecoveryRecord, 0, len(orgs))
		for _, o := range orgs {
			records = append(records, organizationRecord(o))
		}
		return records, nil
	}
	return nil, fmt.Errorf("unknown item type %q", itemType)
}

// Restore clears the deletion fields of a record still inside its window.
// The window check is part of the UPDATE so a concurrent sweep or second
// restore cannot both succeed.
func (r *GormRecoveryRepository) Restore(itemType models.ItemType, id string, now time.Time) error {
	model, err := modelFor(itemType)
	if err != nil {
		return err
	}

	res := database.SoftDeleted(r.db).Model(model).
		Scopes(database.RestorableAt(now)).
		Where("id = ?", id).
		Updates(map[string]any{
			"deleted_at": nil,
			"expires_at": nil,
			"deleted_by": nil,
			"updated_at": now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// Purge permanently deletes a record. Projects take their tasks and columns
// with them; organizations go through the full cascade.
func (r *GormRecoveryRepository) Purge(itemType models.ItemType, id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		switch itemType {
		case models.ItemTypeTask:
			var count int64
			if err := tx.Unscoped().Model(&models.Task{}).Where("id = ?", id).Count(&count).Error; err != nil {
				return err
			}
			if count == 0 {
				return gorm.ErrRecordNotFound
			}
			return purgeTasks(tx, []string{id})

		case models.ItemTypeProject:
			return purgeProject(tx, id)

		case models.ItemTypeOrganization:
			return purgeOrganization(tx, id)
		}
		return fmt.Errorf("unknown item type %q", itemType)
	})
}

// ListExpiredIDs lists soft-deleted records whose window has closed
func (r *GormRecoveryRepository) ListExpiredIDs(itemType models.ItemType, now time.Time) ([]string, error) {
	model, err := modelFor(itemType)
	if err != nil {
		return nil, err
	}

	var ids []string
	if err := database.SoftDeleted(r.db).Model(model).
		Scopes(database.ExpiredAt(now)).
		Order("expires_at ASC").
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func purgeTasks(tx *gorm.DB, taskIDs []string) error {
	if len(taskIDs) == 0 {
		return nil
	}
	if err := tx.Unscoped().Where("task_id IN ?", taskIDs).Delete(&models.TaskAssignment{}).Error; err != nil {
		return err
	}
	return tx.Unscoped().Where("id IN ?", taskIDs).Delete(&models.Task{}).Error
}

func purgeProject(tx *gorm.DB, id string) error {
	var taskIDs []string
	if err := tx.Unscoped().Model(&models.Task{}).
		Where("project_id = ?", id).
		Pluck("id", &taskIDs).Error; err != nil {
		return err
	}
	if err := purgeTasks(tx, taskIDs); err != nil {
		return err
	}
	if err := tx.Where("project_id = ?", id).Delete(&models.Column{}).Error; err != nil {
		return err
	}

	res := tx.Unscoped().Where("id = ?", id).Delete(&models.Project{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// nonEmpty keeps "IN ?" valid SQL when the actor has no memberships.
func nonEmpty(ids []string) []string {
	if len(ids) == 0 {
		return []string{""}
	}
	return ids
}

func deletionFields(rec models.Recoverable) (*time.Time, *time.Time, *string) {
	var deletedAt *time.Time
	if rec.DeletedAt.Valid {
		t := rec.DeletedAt.Time.UTC()
		deletedAt = &t
	}
	var expiresAt *time.Time
	if rec.ExpiresAt != nil {
		t := rec.ExpiresAt.UTC()
		expiresAt = &t
	}
	return deletedAt, expiresAt, rec.DeletedBy
}

func taskRecord(t models.Task) RecoveryRecord {
	deletedAt, expiresAt, deletedBy := deletionFields(t.Recoverable)
	return RecoveryRecord{
		Type:           models.ItemTypeTask,
		ID:             t.ID,
		Name:           t.Title,
		OrganizationID: t.OrganizationID,
		OwnerID:        t.CreatorID,
		DeletedAt:      deletedAt,
		ExpiresAt:      expiresAt,
		DeletedBy:      deletedBy,
	}
}

func projectRecord(p models.Project) RecoveryRecord {
	deletedAt, expiresAt, deletedBy := deletionFields(p.Recoverable)
	return RecoveryRecord{
		Type:           models.ItemTypeProject,
		ID:             p.ID,
		Name:           p.Name,
		OrganizationID: p.OrganizationID,
		OwnerID:        p.OwnerID,
		DeletedAt:      deletedAt,
		ExpiresAt:      expiresAt,
		DeletedBy:      deletedBy,
	}
}

func organizationRecord(o models.Organization) RecoveryRecord {
	deletedAt, expiresAt, deletedBy := deletionFields(o.Recoverable)
	return RecoveryRecord{
		Type:           models.ItemTypeOrganization,
		ID:             o.ID,
		Name:           o.Name,
		OrganizationID: o.ID,
		DeletedAt:      deletedAt,
		ExpiresAt:      expiresAt,
		DeletedBy:      deletedBy,
	}
}
