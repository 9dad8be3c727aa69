package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/taskflow-ai/taskflow-api/internal/constants"
	"github.com/taskflow-ai/taskflow-api/internal/models"
	"github.com/taskflow-ai/taskflow-api/internal/repository"
	"github.com/taskflow-ai/taskflow-api/internal/utils"
	"gorm.io/gorm"
)

var (
	ErrProjectNotFound       = errors.New("project not found")
	ErrProjectNameRequired   = errors.New("project name is required")
	ErrProjectNameTooLong    = errors.New("project name is too long")
	ErrColumnNotFound        = errors.New("column not found")
	ErrColumnNameRequired    = errors.New("column name is required")
	ErrColumnNameTooLong     = errors.New("column name is too long")
	ErrInvalidColumnPosition = errors.New("column position cannot be negative")
)

// ProjectService handles projects and their kanban columns
type ProjectService struct {
	projectRepo repository.ProjectRepository
	columnRepo  repository.ColumnRepository
	orgRepo     repository.OrganizationRepository
	recovery    *RecoveryService
}

// NewProjectService creates a new ProjectService
func NewProjectService(projectRepo repository.ProjectRepository, columnRepo repository.ColumnRepository, orgRepo repository.OrganizationRepository, recovery *RecoveryService) *ProjectService {
	return &ProjectService{
		projectRepo: projectRepo,
		columnRepo:  columnRepo,
		orgRepo:     orgRepo,
		recovery:    recovery,
	}
}

// CreateProjectInput represents input for creating a project
type CreateProjectInput struct {
	OrganizationID string
	ActorID        string
	Name           string
	Description    string
	RepositoryURL  string
}

// UpdateProjectInput represents input for updating a project
type UpdateProjectInput struct {
	Name          *string
	Description   *string
	RepositoryURL *string
}

// UpdateColumnInput represents input for updating a column
type UpdateColumnInput struct {
	Name     *string
	Position *int
}

func validateName(name string, required, tooLong error) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", required
	}
	if len(name) > constants.MaxNameLength {
		return "", tooLong
	}
	return name, nil
}

// CreateProject creates a project with the default kanban columns.
// Owners and admins of the organization may create projects.
func (s *ProjectService) CreateProject(input CreateProjectInput) (*models.Project, error) {
	name, err := validateName(input.Name, ErrProjectNameRequired, ErrProjectNameTooLong)
	if err != nil {
		return nil, err
	}

	repoURL, err := utils.NormalizeGitHubRepositoryURL(input.RepositoryURL)
	if err != nil {
		return nil, err
	}

	member, err := s.orgRepo.FindActiveMember(input.OrganizationID, input.ActorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotOrganizationMember
		}
		return nil, fmt.Errorf("failed to verify organization membership: %w", err)
	}
	if !member.Role.CanManage() {
		return nil, ErrInsufficientRole
	}

	project := &models.Project{
		Name:           name,
		Description:    input.Description,
		RepositoryURL:  repoURL,
		OrganizationID: input.OrganizationID,
		OwnerID:        input.ActorID,
	}

	columns := make([]models.Column, len(constants.DefaultColumnNames))
	for i, columnName := range constants.DefaultColumnNames {
		columns[i] = models.Column{Name: columnName, Position: i}
	}

	if err := s.projectRepo.CreateWithColumns(project, columns); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	return project, nil
}

// ListProjects returns the live projects of an organization
func (s *ProjectService) ListProjects(organizationID string) ([]models.Project, error) {
	projects, err := s.projectRepo.ListByOrganization(organizationID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, nil
}

// GetProject returns a project with its columns
func (s *ProjectService) GetProject(projectID string) (*models.Project, error) {
	project, err := s.projectRepo.FindByID(projectID, "Columns")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to find project: %w", err)
	}
	return project, nil
}

// UpdateProject updates a project's details
func (s *ProjectService) UpdateProject(projectID, actorID string, input UpdateProjectInput) (*models.Project, error) {
	project, err := s.findManageableProject(projectID, actorID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name, err := validateName(*input.Name, ErrProjectNameRequired, ErrProjectNameTooLong)
		if err != nil {
			return nil, err
		}
		project.Name = name
	}
	if input.Description != nil {
		project.Description = *input.Description
	}
	if input.RepositoryURL != nil {
		repoURL, err := utils.NormalizeGitHubRepositoryURL(*input.RepositoryURL)
		if err != nil {
			return nil, err
		}
		project.RepositoryURL = repoURL
	}

	if err := s.projectRepo.Update(project); err != nil {
		return nil, fmt.Errorf("failed to update project: %w", err)
	}

	return s.GetProject(project.ID)
}

// DeleteProject soft-deletes a project. Its tasks and columns are kept so a
// restore brings the board back as it was.
func (s *ProjectService) DeleteProject(projectID, actorID string) (time.Time, error) {
	if _, err := s.findManageableProject(projectID, actorID); err != nil {
		return time.Time{}, err
	}

	expiresAt, err := s.recovery.SoftDelete(models.ItemTypeProject, projectID, actorID)
	if err != nil {
		if errors.Is(err, ErrItemNotFound) {
			return time.Time{}, ErrProjectNotFound
		}
		return time.Time{}, err
	}
	return expiresAt, nil
}

// ListColumns returns the columns of a project ordered by position
func (s *ProjectService) ListColumns(projectID string) ([]models.Column, error) {
	columns, err := s.columnRepo.ListByProject(projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list columns: %w", err)
	}
	return columns, nil
}

// CreateColumn appends a column to a project
func (s *ProjectService) CreateColumn(projectID, actorID, name string) (*models.Column, error) {
	name, err := validateName(name, ErrColumnNameRequired, ErrColumnNameTooLong)
	if err != nil {
		return nil, err
	}

	if _, err := s.findManageableProject(projectID, actorID); err != nil {
		return nil, err
	}

	position, err := s.columnRepo.NextPosition(projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to compute column position: %w", err)
	}

	column := &models.Column{ProjectID: projectID, Name: name, Position: position}
	if err := s.columnRepo.Create(column); err != nil {
		return nil, fmt.Errorf("failed to create column: %w", err)
	}
	return column, nil
}

// UpdateColumn renames or repositions a column of the project
func (s *ProjectService) UpdateColumn(projectID, columnID, actorID string, input UpdateColumnInput) (*models.Column, error) {
	column, err := s.findManageableColumn(projectID, columnID, actorID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name, err := validateName(*input.Name, ErrColumnNameRequired, ErrColumnNameTooLong)
		if err != nil {
			return nil, err
		}
		column.Name = name
	}
	if input.Position != nil {
		if *input.Position < 0 {
			return nil, ErrInvalidColumnPosition
		}
		column.Position = *input.Position
	}

	if err := s.columnRepo.Update(column); err != nil {
		return nil, fmt.Errorf("failed to update column: %w", err)
	}
	return column, nil
}

// DeleteColumn removes a column. Its tasks stay in the project without a column.
func (s *ProjectService) DeleteColumn(projectID, columnID, actorID string) error {
	if _, err := s.findManageableColumn(projectID, columnID, actorID); err != nil {
		return err
	}

	if err := s.columnRepo.Delete(columnID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrColumnNotFound
		}
		return fmt.Errorf("failed to delete column: %w", err)
	}
	return nil
}

// findManageableProject loads a live project the actor may change: its owner,
// or an owner or admin of its organization.
func (s *ProjectService) findManageableProject(projectID, actorID string) (*models.Project, error) {
	project, err := s.projectRepo.FindByID(projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to find project: %w", err)
	}

	member, err := s.orgRepo.FindActiveMember(project.OrganizationID, actorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to verify organization membership: %w", err)
	}

	if project.OwnerID != actorID && !member.Role.CanManage() {
		return nil, ErrInsufficientRole
	}
	return project, nil
}

func (s *ProjectService) findManageableColumn(projectID, columnID, actorID string) (*models.Column, error) {
	column, err := s.columnRepo.FindByID(columnID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrColumnNotFound
		}
		return nil, fmt.Errorf("failed to find column: %w", err)
	}
	if column.ProjectID != projectID {
		return nil, ErrColumnNotFound
	}

	if _, err := s.findManageableProject(column.ProjectID, actorID); err != nil {
		if errors.Is(err, ErrProjectNotFound) {
			return nil, ErrColumnNotFound
		}
		return nil, err
	}
	return column, nil
}
