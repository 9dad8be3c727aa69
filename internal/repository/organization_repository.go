package repository

import (
	"github.com/taskflow-ai/taskflow-api/internal/models"
	"gorm.io/gorm"
)

// GormOrganizationRepository is a GORM implementation of OrganizationRepository
type GormOrganizationRepository struct {
	db *gorm.DB
}

// NewOrganizationRepository creates a new OrganizationRepository
func NewOrganizationRepository(db *gorm.DB) OrganizationRepository {
	return &GormOrganizationRepository{db: db}
}

// Create creates a new organization
func (r *GormOrganizationRepository) Create(org *models.Organization) error {
	return r.db.Create(org).Error
}

// CreateWithOwner creates an organization and its owner membership atomically
func (r *GormOrganizationRepository) CreateWithOwner(org *models.Organization, owner *models.OrganizationMember) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(org).Error; err != nil {
			return err
		}
		owner.OrganizationID = org.ID
		owner.Role = models.RoleOwner
		return tx.Create(owner).Error
	})
}

// FindByID finds a live organization by ID
func (r *GormOrganizationRepository) FindByID(id string) (*models.Organization, error) {
	var org models.Organization
	if err := r.db.Where("id = ?", id).First(&org).Error; err != nil {
		return nil, err
	}
	return &org, nil
}

// FindByIDIncludingDeleted finds an organization by ID whether or not it is soft-deleted
func (r *GormOrganizationRepository) FindByIDIncludingDeleted(id string) (*models.Organization, error) {
	var org models.Organization
	if err := r.db.Unscoped().Where("id = ?", id).First(&org).Error; err != nil {
		return nil, err
	}
	return &org, nil
}

// FindByInviteCode finds a live organization by invite code
func (r *GormOrganizationRepository) FindByInviteCode(code string) (*models.Organization, error) {
	var org models.Organization
	if err := r.db.Where("invite_code = ?", code).First(&org).Error; err != nil {
		return nil, err
	}
	return &org, nil
}

// Update updates an organization
func (r *GormOrganizationRepository) Update(org *models.Organization) error {
	return r.db.Save(org).Error
}

// PurgeCascade permanently deletes an organization and everything under it.
// Nothing is removed unless every step succeeds.
func (r *GormOrganizationRepository) PurgeCascade(id string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return purgeOrganization(tx, id)
	})
}

// purgeOrganization removes an organization, its projects with their tasks,
// assignments and columns, any task still pointing at the organization, and
// every member role. Soft-deleted rows are included. It must run inside a
// transaction.
func purgeOrganization(tx *gorm.DB, id string) error {
	var projectIDs []string
	if err := tx.Unscoped().Model(&models.Project{}).
		Where("organization_id = ?", id).
		Pluck("id", &projectIDs).Error; err != nil {
		return err
	}

	taskQuery := tx.Unscoped().Model(&models.Task{}).Where("organization_id = ?", id)
	if len(projectIDs) > 0 {
		taskQuery = taskQuery.Or("project_id IN ?", projectIDs)
	}
	var taskIDs []string
	if err := taskQuery.Pluck("id", &taskIDs).Error; err != nil {
		return err
	}

	if err := purgeTasks(tx, taskIDs); err != nil {
		return err
	}

	if len(projectIDs) > 0 {
		if err := tx.Where("project_id IN ?", projectIDs).Delete(&models.Column{}).Error; err != nil {
			return err
		}
		if err := tx.Unscoped().Where("id IN ?", projectIDs).Delete(&models.Project{}).Error; err != nil {
			return err
		}
	}

	if err := tx.Where("organization_id = ?", id).Delete(&models.OrganizationMember{}).Error; err != nil {
		return err
	}

	res := tx.Unscoped().Where("id = ?", id).Delete(&models.Organization{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// AddMember adds a member to an organization
func (r *GormOrganizationRepository) AddMember(member *models.OrganizationMember) error {
	return r.db.Create(member).Error
}

// UpdateMemberRole changes the role of an existing member
func (r *GormOrganizationRepository) UpdateMemberRole(organizationID, userID string, role models.OrganizationRole) error {
	res := r.db.Model(&models.OrganizationMember{}).
		Where("organization_id = ? AND user_id = ?", organizationID, userID).
		Update("role", role)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// RemoveMember removes a member from an organization
func (r *GormOrganizationRepository) RemoveMember(organizationID, userID string) error {
	return r.db.Where("organization_id = ? AND user_id = ?", organizationID, userID).
		Delete(&models.OrganizationMember{}).Error
}

// FindMember finds a specific organization member
func (r *GormOrganizationRepository) FindMember(organizationID, userID string) (*models.OrganizationMember, error) {
	var member models.OrganizationMember
	if err := r.db.Where("organization_id = ? AND user_id = ?", organizationID, userID).
		First(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

// FindActiveMember is FindMember restricted to organizations that are not
// soft-deleted.
func (r *GormOrganizationRepository) FindActiveMember(organizationID, userID string) (*models.OrganizationMember, error) {
	var member models.OrganizationMember
	if err := r.db.
		Joins("JOIN organizations ON organizations.id = organization_members.organization_id AND organizations.deleted_at IS NULL").
		Where("organization_members.organization_id = ? AND organization_members.user_id = ?", organizationID, userID).
		First(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

// ListMembersByUserID lists all live organizations a user is a member of
func (r *GormOrganizationRepository) ListMembersByUserID(userID string) ([]models.OrganizationMember, error) {
	var memberships []models.OrganizationMember
	if err := r.db.Preload("Organization").
		Joins("JOIN organizations ON organizations.id = organization_members.organization_id AND organizations.deleted_at IS NULL").
		Where("organization_members.user_id = ?", userID).
		Order("organization_members.joined_at ASC").
		Find(&memberships).Error; err != nil {
		return nil, err
	}
	return memberships, nil
}

// ListOrganizationIDsByUserID lists every organization ID a user belongs to
func (r *GormOrganizationRepository) ListOrganizationIDsByUserID(userID string) ([]string, error) {
	var ids []string
	if err := r.db.Model(&models.OrganizationMember{}).
		Where("user_id = ?", userID).
		Pluck("organization_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// ListMembers lists all members of an organization
func (r *GormOrganizationRepository) ListMembers(organizationID string) ([]models.OrganizationMember, error) {
	var members []models.OrganizationMember
	if err := r.db.Preload("User").
		Where("organization_id = ?", organizationID).
		Order("joined_at ASC").
		Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}
