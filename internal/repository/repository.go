package repository

import (
	"time"

	"github.com/taskflow-ai/taskflow-api/internal/models"
)

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	Create(task *models.Task) error

	// FindByID finds a live task by ID with optional preloading
	FindByID(id string, preload ...string) (*models.Task, error)

	// FindByIDs returns the live tasks among ids; missing ones are left out
	FindByIDs(ids []string) ([]models.Task, error)

	List(filter TaskFilter) ([]models.Task, int64, error)
	Update(task *models.Task) error
	UpdateStatus(ids []string, status models.TaskStatus) error
	MoveToColumn(ids []string, columnID string) error

	AssignUsers(taskID string, userIDs []string) error
	UnassignUsers(taskID string, userIDs []string) error
	CountOrganizationMembers(organizationID string, userIDs []string) (int64, error)
}

// TaskFilter holds filtering options for listing tasks
type TaskFilter struct {
	OrganizationIDs []string
	ProjectID       *string
	ColumnID        *string
	Status          *models.TaskStatus
	AssignedUserID  *string
	DueDateFrom     *time.Time
	DueDateTo       *time.Time
	SortByDueDate   bool
	Page            int
	PageSize        int
}

// OrganizationRepository defines the interface for organization data access
type OrganizationRepository interface {
	// Create creates a new organization
	Create(org *models.Organization) error

	// CreateWithOwner creates an organization and its owner membership atomically
	CreateWithOwner(org *models.Organization, owner *models.OrganizationMember) error

	// FindByID finds a live organization by ID
	FindByID(id string) (*models.Organization, error)

	// FindByIDIncludingDeleted finds an organization by ID whether or not it is soft-deleted
	FindByIDIncludingDeleted(id string) (*models.Organization, error)

	// FindByInviteCode finds a live organization by invite code
	FindByInviteCode(code string) (*models.Organization, error)

	// Update updates an organization
	Update(org *models.Organization) error

	// PurgeCascade permanently deletes an organization with its projects,
	// their tasks and columns, and its member roles, in one transaction
	PurgeCascade(id string) error

	// AddMember adds a member to an organization
	AddMember(member *models.OrganizationMember) error

	// UpdateMemberRole changes the role of an existing member
	UpdateMemberRole(organizationID, userID string, role models.OrganizationRole) error

	// RemoveMember removes a member from an organization
	RemoveMember(organizationID, userID string) error

	// FindMember finds a specific organization member
	FindMember(organizationID, userID string) (*models.OrganizationMember, error)

	// FindActiveMember finds a membership of a live organization
	FindActiveMember(organizationID, userID string) (*models.OrganizationMember, error)

	// ListMembersByUserID lists all live organizations a user is a member of
	ListMembersByUserID(userID string) ([]models.OrganizationMember, error)

	// ListOrganizationIDsByUserID lists the IDs of every organization a user
	// belongs to, including soft-deleted ones
	ListOrganizationIDsByUserID(userID string) ([]string, error)

	// ListMembers lists all members of an organization
	ListMembers(organizationID string) ([]models.OrganizationMember, error)
}

// ProjectRepository defines the interface for project data access
type ProjectRepository interface {
	// CreateWithColumns creates a project and its initial columns atomically
	CreateWithColumns(project *models.Project, columns []models.Column) error

	// FindByID finds a live project by ID with optional preloading
	FindByID(id string, preload ...string) (*models.Project, error)

	// ListByOrganization lists the live projects of an organization
	ListByOrganization(organizationID string) ([]models.Project, error)

	// Update updates a project
	Update(project *models.Project) error
}

// ColumnRepository defines the interface for kanban column data access
type ColumnRepository interface {
	// Create creates a column
	Create(column *models.Column) error

	// FindByID finds a column by ID
	FindByID(id string) (*models.Column, error)

	// ListByProject lists the columns of a project ordered by position
	ListByProject(projectID string) ([]models.Column, error)

	// NextPosition returns the position after the last column of a project
	NextPosition(projectID string) (int, error)

	// Update updates a column
	Update(column *models.Column) error

	// Delete removes a column and detaches its tasks
	Delete(id string) error
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// CreateWithWorkspace creates a user together with a personal
	// organization the user owns.
	CreateWithWorkspace(user *models.User, workspace *models.Organization) error

	FindByID(id string) (*models.User, error)
	FindByUsername(username string) (*models.User, error)
	UsernameExists(username string) (bool, error)
}

// RecoveryRepository reads and mutates the soft-delete columns shared by
// tasks, projects and organizations.
type RecoveryRepository interface {
	// SoftDelete flags a live record as deleted. Returns gorm.ErrRecordNotFound
	// when no live record matches.
	SoftDelete(itemType models.ItemType, id, actorID string, deletedAt, expiresAt time.Time) error

	// FindItem finds a record by ID whether or not it is soft-deleted.
	FindItem(itemType models.ItemType, id string) (*RecoveryRecord, error)

	// ListDeleted lists restorable records visible to an actor.
	ListDeleted(itemType models.ItemType, filter DeletedItemFilter) ([]RecoveryRecord, error)

	// Restore clears the deletion fields of a record that is still within its
	// recovery window at now. Returns gorm.ErrRecordNotFound when no such record exists.
	Restore(itemType models.ItemType, id string, now time.Time) error

	// Purge permanently deletes a record together with the rows that only
	// exist through it.
	Purge(itemType models.ItemType, id string) error

	// ListExpiredIDs lists the IDs of soft-deleted records whose recovery
	// window closed at or before now.
	ListExpiredIDs(itemType models.ItemType, now time.Time) ([]string, error)
}

// RecoveryRecord is the soft-delete view of a task, project or organization.
type RecoveryRecord struct {
	Type           models.ItemType
	ID             string
	Name           string
	OrganizationID string
	OwnerID        string
	DeletedAt      *time.Time
	ExpiresAt      *time.Time
	DeletedBy      *string
}

// DeletedItemFilter scopes a deleted item listing.
type DeletedItemFilter struct {
	ActorID string
	// OrganizationIDs are the organizations the actor belongs to.
	OrganizationIDs []string
	// OrganizationScope optionally limits the listing to one organization.
	OrganizationScope *string
	Now               time.Time
}
