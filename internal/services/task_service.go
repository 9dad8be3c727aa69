package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/taskflow-ai/taskflow-api/internal/constants"
	"github.com/taskflow-ai/taskflow-api/internal/models"
	"github.com/taskflow-ai/taskflow-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrNotOrganizationMember  = errors.New("user is not a member of the organization")
	ErrTaskNotFound           = errors.New("task not found")
	ErrNotTaskCreator         = errors.New("only the task creator can perform this action")
	ErrTaskPermissionDenied   = errors.New("user does not have permission to modify this task")
	ErrNoUserIDsProvided      = errors.New("at least one user ID is required")
	ErrTitleRequired          = errors.New("title is required")
	ErrTitleEmpty             = errors.New("title cannot be empty")
	ErrInvalidTaskStatus      = errors.New("status must be TODO, IN_PROGRESS or DONE")
	ErrInvalidTaskPriority    = errors.New("priority must be LOW, MEDIUM or HIGH")
	ErrProjectRequired        = errors.New("project_id is required")
	ErrColumnNotInProject     = errors.New("column does not belong to the task's project")
	ErrInvalidTaskAssignee    = errors.New("one or more users do not exist or are not members of the organization")
	ErrNoTaskIDsProvided      = errors.New("at least one task ID is required")
	ErrTooManyTaskIDs         = errors.New("too many task IDs in one request")
	ErrInvalidBulkAction      = errors.New("action must be delete, set_status or move")
	ErrAIServiceNotConfigured = errors.New("AI service is not configured")
	ErrAINoTasksGenerated     = errors.New("AI did not generate any tasks")
	ErrAINoValidTasks         = errors.New("no valid tasks could be created from AI output")
)

// Bulk task actions
const (
	BulkActionDelete    = "delete"
	BulkActionSetStatus = "set_status"
	BulkActionMove      = "move"
)

// TaskService handles task business logic
type TaskService struct {
	taskRepo    repository.TaskRepository
	projectRepo repository.ProjectRepository
	columnRepo  repository.ColumnRepository
	orgRepo     repository.OrganizationRepository
	recovery    *RecoveryService
	aiService   *AIService
}

// NewTaskService creates a new TaskService
func NewTaskService(
	taskRepo repository.TaskRepository,
	projectRepo repository.ProjectRepository,
	columnRepo repository.ColumnRepository,
	orgRepo repository.OrganizationRepository,
	recovery *RecoveryService,
	aiService *AIService,
) *TaskService {
	return &TaskService{
		taskRepo:    taskRepo,
		projectRepo: projectRepo,
		columnRepo:  columnRepo,
		orgRepo:     orgRepo,
		recovery:    recovery,
		aiService:   aiService,
	}
}

// ListTasksInput represents filters for listing tasks
type ListTasksInput struct {
	UserID         string
	OrganizationID *string
	ProjectID      *string
	ColumnID       *string
	AssignedToMe   bool
	DueToday       bool
	Status         *models.TaskStatus
	SortByDueDate  bool
	Page           int
	PageSize       int
}

// CreateTaskInput represents input for creating a task
type CreateTaskInput struct {
	Title       string
	Description string
	Status      models.TaskStatus
	Priority    models.TaskPriority
	DueDate     *time.Time
	ProjectID   string
	ColumnID    *string
	CreatorID   string
}

// UpdateTaskInput represents input for updating a task
type UpdateTaskInput struct {
	Title        *string
	Description  *string
	Status       *models.TaskStatus
	Priority     *models.TaskPriority
	DueDate      *time.Time
	ClearDueDate bool
	ColumnID     *string
	ClearColumn  bool
}

// AssignUsersInput represents input for assigning users to a task
type AssignUsersInput struct {
	TaskID  string
	ActorID string
	UserIDs []string
}

// BulkTaskInput represents a single action applied to many tasks
type BulkTaskInput struct {
	ActorID  string
	TaskIDs  []string
	Action   string
	Status   models.TaskStatus
	ColumnID string
}

// BulkTaskResult reports how many tasks were changed and which were skipped
type BulkTaskResult struct {
	Affected int
	Skipped  []string
}

// ListTasks returns tasks accessible to a user based on the provided filters
func (s *TaskService) ListTasks(input ListTasksInput) ([]models.Task, int64, error) {
	orgIDs, err := s.resolveAccessibleOrganizationIDs(input.UserID, input.OrganizationID)
	if err != nil {
		return nil, 0, err
	}

	if len(orgIDs) == 0 {
		return []models.Task{}, 0, nil
	}

	filter := repository.TaskFilter{
		OrganizationIDs: orgIDs,
		ProjectID:       input.ProjectID,
		ColumnID:        input.ColumnID,
		Page:            input.Page,
		PageSize:        input.PageSize,
		SortByDueDate:   input.SortByDueDate,
	}

	if input.Status != nil {
		if !input.Status.Valid() {
			return nil, 0, ErrInvalidTaskStatus
		}
		filter.Status = input.Status
	}
	if input.AssignedToMe {
		filter.AssignedUserID = &input.UserID
	}
	if input.DueToday {
		now := time.Now()
		startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		endOfDay := startOfDay.Add(24 * time.Hour)
		filter.DueDateFrom = &startOfDay
		filter.DueDateTo = &endOfDay
	}

	tasks, total, err := s.taskRepo.List(filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}

	return tasks, total, nil
}

// GetTask returns a task with related data
func (s *TaskService) GetTask(taskID string) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(taskID, "Creator", "Organization", "Assignments", "Assignments.User")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	return task, nil
}

// CreateTask creates a task in a project and assigns the creator
func (s *TaskService) CreateTask(input CreateTaskInput) (*models.Task, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	if input.ProjectID == "" {
		return nil, ErrProjectRequired
	}

	if input.Status == "" {
		input.Status = models.TaskStatusTodo
	}
	if !input.Status.Valid() {
		return nil, ErrInvalidTaskStatus
	}
	if input.Priority == "" {
		input.Priority = models.TaskPriorityMedium
	}
	if !input.Priority.Valid() {
		return nil, ErrInvalidTaskPriority
	}

	project, err := s.projectRepo.FindByID(input.ProjectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to find project: %w", err)
	}

	if err := s.ensureOrganizationMember(project.OrganizationID, input.CreatorID); err != nil {
		return nil, err
	}

	if input.ColumnID != nil {
		if err := s.ensureColumnInProject(*input.ColumnID, project.ID); err != nil {
			return nil, err
		}
	}

	task := &models.Task{
		Title:          title,
		Description:    input.Description,
		Status:         input.Status,
		Priority:       input.Priority,
		DueDate:        input.DueDate,
		ProjectID:      project.ID,
		ColumnID:       input.ColumnID,
		OrganizationID: project.OrganizationID,
		CreatorID:      input.CreatorID,
	}

	if err := s.taskRepo.Create(task); err != nil {
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	if err := s.taskRepo.AssignUsers(task.ID, []string{input.CreatorID}); err != nil {
		return nil, fmt.Errorf("failed to assign creator to task: %w", err)
	}

	return s.GetTask(task.ID)
}

// UpdateTask updates an existing task
func (s *TaskService) UpdateTask(taskID string, input UpdateTaskInput) (*models.Task, error) {
	task, err := s.findTask(taskID)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, ErrTitleEmpty
		}
		task.Title = title
	}
	if input.Description != nil {
		task.Description = *input.Description
	}
	if input.Status != nil {
		if !input.Status.Valid() {
			return nil, ErrInvalidTaskStatus
		}
		task.Status = *input.Status
	}
	if input.Priority != nil {
		if !input.Priority.Valid() {
			return nil, ErrInvalidTaskPriority
		}
		task.Priority = *input.Priority
	}
	if input.ClearDueDate {
		task.DueDate = nil
	} else if input.DueDate != nil {
		task.DueDate = input.DueDate
	}
	if input.ClearColumn {
		task.ColumnID = nil
	} else if input.ColumnID != nil {
		if err := s.ensureColumnInProject(*input.ColumnID, task.ProjectID); err != nil {
			return nil, err
		}
		task.ColumnID = input.ColumnID
	}

	if err := s.taskRepo.Update(task); err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	return s.GetTask(task.ID)
}

// DeleteTask soft-deletes a task. The creator or an owner or admin of the
// organization may delete it.
func (s *TaskService) DeleteTask(taskID, actorID string) (time.Time, error) {
	task, err := s.findTask(taskID)
	if err != nil {
		return time.Time{}, err
	}

	if err := s.ensureCanDelete(task, actorID); err != nil {
		return time.Time{}, err
	}

	expiresAt, err := s.recovery.SoftDelete(models.ItemTypeTask, task.ID, actorID)
	if err != nil {
		if errors.Is(err, ErrItemNotFound) {
			return time.Time{}, ErrTaskNotFound
		}
		return time.Time{}, err
	}
	return expiresAt, nil
}

// AssignUsers assigns multiple users to a task with validation
func (s *TaskService) AssignUsers(input AssignUsersInput) error {
	if len(input.UserIDs) == 0 {
		return ErrNoUserIDsProvided
	}

	task, err := s.findTask(input.TaskID)
	if err != nil {
		return err
	}

	if task.CreatorID != input.ActorID {
		return ErrNotTaskCreator
	}

	userIDs := uniqueStrings(input.UserIDs)

	count, err := s.taskRepo.CountOrganizationMembers(task.OrganizationID, userIDs)
	if err != nil {
		return fmt.Errorf("failed to verify users: %w", err)
	}
	if int(count) != len(userIDs) {
		return ErrInvalidTaskAssignee
	}

	if err := s.taskRepo.AssignUsers(task.ID, userIDs); err != nil {
		return fmt.Errorf("failed to assign users: %w", err)
	}

	return nil
}

// UnassignUsers removes user assignments from a task
func (s *TaskService) UnassignUsers(taskID, actorID string, userIDs []string) error {
	if len(userIDs) == 0 {
		return ErrNoUserIDsProvided
	}

	task, err := s.findTask(taskID)
	if err != nil {
		return err
	}

	if task.CreatorID != actorID {
		return ErrNotTaskCreator
	}

	if err := s.taskRepo.UnassignUsers(taskID, uniqueStrings(userIDs)); err != nil {
		return fmt.Errorf("failed to unassign users: %w", err)
	}

	return nil
}

// ToggleTaskStatus toggles a task between todo and done
func (s *TaskService) ToggleTaskStatus(taskID, actorID string) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(taskID, "Assignments")
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}

	if task.CreatorID != actorID {
		permitted := false
		for _, assignment := range task.Assignments {
			if assignment.UserID == actorID {
				permitted = true
				break
			}
		}
		if !permitted {
			return nil, ErrTaskPermissionDenied
		}
	}

	if task.Status == models.TaskStatusDone {
		task.Status = models.TaskStatusTodo
	} else {
		task.Status = models.TaskStatusDone
	}

	task.Assignments = nil
	if err := s.taskRepo.Update(task); err != nil {
		return nil, fmt.Errorf("failed to toggle status: %w", err)
	}

	return task, nil
}

// BulkUpdate applies one action to many tasks. Tasks the actor cannot see
// or change are skipped and reported rather than failing the whole request.
func (s *TaskService) BulkUpdate(input BulkTaskInput) (*BulkTaskResult, error) {
	taskIDs := uniqueStrings(input.TaskIDs)
	if len(taskIDs) == 0 {
		return nil, ErrNoTaskIDsProvided
	}
	if len(taskIDs) > constants.MaxBulkTaskIDs {
		return nil, ErrTooManyTaskIDs
	}

	switch input.Action {
	case BulkActionDelete:
	case BulkActionSetStatus:
		if !input.Status.Valid() {
			return nil, ErrInvalidTaskStatus
		}
	case BulkActionMove:
		if input.ColumnID == "" {
			return nil, ErrColumnNotFound
		}
	default:
		return nil, ErrInvalidBulkAction
	}

	var target *models.Column
	if input.Action == BulkActionMove {
		column, err := s.columnRepo.FindByID(input.ColumnID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrColumnNotFound
			}
			return nil, fmt.Errorf("failed to find column: %w", err)
		}
		target = column
	}

	tasks, err := s.taskRepo.FindByIDs(taskIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load tasks: %w", err)
	}

	found := make(map[string]*models.Task, len(tasks))
	for i := range tasks {
		found[tasks[i].ID] = &tasks[i]
	}

	roles := map[string]models.OrganizationRole{}
	result := &BulkTaskResult{Skipped: []string{}}
	permitted := make([]string, 0, len(tasks))

	for _, id := range taskIDs {
		task, ok := found[id]
		if !ok {
			result.Skipped = append(result.Skipped, id)
			continue
		}

		role, err := s.roleIn(roles, task.OrganizationID, input.ActorID)
		if err != nil {
			return nil, err
		}
		if role == "" {
			result.Skipped = append(result.Skipped, id)
			continue
		}

		switch input.Action {
		case BulkActionDelete:
			if task.CreatorID != input.ActorID && !role.CanManage() {
				result.Skipped = append(result.Skipped, id)
				continue
			}
		case BulkActionMove:
			if task.ProjectID != target.ProjectID {
				result.Skipped = append(result.Skipped, id)
				continue
			}
		}
		permitted = append(permitted, id)
	}

	switch input.Action {
	case BulkActionDelete:
		for _, id := range permitted {
			if _, err := s.recovery.SoftDelete(models.ItemTypeTask, id, input.ActorID); err != nil {
				if errors.Is(err, ErrItemNotFound) {
					result.Skipped = append(result.Skipped, id)
					continue
				}
				return nil, err
			}
			result.Affected++
		}
	case BulkActionSetStatus:
		if err := s.taskRepo.UpdateStatus(permitted, input.Status); err != nil {
			return nil, fmt.Errorf("failed to update task status: %w", err)
		}
		result.Affected = len(permitted)
	case BulkActionMove:
		if err := s.taskRepo.MoveToColumn(permitted, target.ID); err != nil {
			return nil, fmt.Errorf("failed to move tasks: %w", err)
		}
		result.Affected = len(permitted)
	}

	return result, nil
}

// GenerateTasksInput represents input for AI task generation
type GenerateTasksInput struct {
	Text      string
	ProjectID string
	CreatorID string
}

// GenerateTasks uses AI to draft tasks for a project from free text. The
// drafts are returned for review; nothing is stored.
func (s *TaskService) GenerateTasks(ctx context.Context, input GenerateTasksInput) ([]GeneratedTask, error) {
	if s.aiService == nil {
		return nil, ErrAIServiceNotConfigured
	}
	if input.ProjectID == "" {
		return nil, ErrProjectRequired
	}

	project, err := s.projectRepo.FindByID(input.ProjectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to find project: %w", err)
	}
	if err := s.ensureOrganizationMember(project.OrganizationID, input.CreatorID); err != nil {
		return nil, err
	}

	aiTasks, err := s.aiService.GenerateTasksFromText(ctx, input.Text)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tasks: %w", err)
	}

	if len(aiTasks) == 0 {
		return nil, ErrAINoTasksGenerated
	}
	if len(aiTasks) > constants.MaxAIGeneratedTasks {
		return nil, fmt.Errorf("AI generated too many tasks (max %d)", constants.MaxAIGeneratedTasks)
	}

	validTasks := make([]GeneratedTask, 0, len(aiTasks))
	cutoff := time.Now().Add(-24 * time.Hour)
	for _, aiTask := range aiTasks {
		if strings.TrimSpace(aiTask.Title) == "" {
			continue
		}

		if aiTask.DueDate != nil && aiTask.DueDate.Before(cutoff) {
			aiTask.DueDate = nil
		}
		if !aiTask.Priority.Valid() {
			aiTask.Priority = models.TaskPriorityMedium
		}

		validTasks = append(validTasks, aiTask)
	}

	if len(validTasks) == 0 {
		return nil, ErrAINoValidTasks
	}

	return validTasks, nil
}

func (s *TaskService) findTask(taskID string) (*models.Task, error) {
	task, err := s.taskRepo.FindByID(taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return task, nil
}

func (s *TaskService) ensureCanDelete(task *models.Task, actorID string) error {
	if task.CreatorID == actorID {
		return nil
	}

	member, err := s.orgRepo.FindActiveMember(task.OrganizationID, actorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotOrganizationMember
		}
		return fmt.Errorf("failed to verify organization membership: %w", err)
	}
	if !member.Role.CanManage() {
		return ErrTaskPermissionDenied
	}
	return nil
}

func (s *TaskService) ensureColumnInProject(columnID, projectID string) error {
	column, err := s.columnRepo.FindByID(columnID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrColumnNotFound
		}
		return fmt.Errorf("failed to find column: %w", err)
	}
	if column.ProjectID != projectID {
		return ErrColumnNotInProject
	}
	return nil
}

// roleIn caches the actor's role per organization. An empty role means the
// actor is not a member.
func (s *TaskService) roleIn(cache map[string]models.OrganizationRole, orgID, userID string) (models.OrganizationRole, error) {
	if role, ok := cache[orgID]; ok {
		return role, nil
	}

	member, err := s.orgRepo.FindActiveMember(orgID, userID)
	switch {
	case err == nil:
		cache[orgID] = member.Role
	case errors.Is(err, gorm.ErrRecordNotFound):
		cache[orgID] = ""
	default:
		return "", fmt.Errorf("failed to verify organization membership: %w", err)
	}
	return cache[orgID], nil
}

// resolveAccessibleOrganizationIDs returns the organization IDs the user can access
func (s *TaskService) resolveAccessibleOrganizationIDs(userID string, organizationID *string) ([]string, error) {
	if organizationID != nil {
		if err := s.ensureOrganizationMember(*organizationID, userID); err != nil {
			return nil, err
		}
		return []string{*organizationID}, nil
	}

	memberships, err := s.orgRepo.ListMembersByUserID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch organization memberships: %w", err)
	}

	orgIDs := make([]string, 0, len(memberships))
	for _, m := range memberships {
		orgIDs = append(orgIDs, m.OrganizationID)
	}

	return orgIDs, nil
}

// ensureOrganizationMember verifies that a user belongs to an organization
func (s *TaskService) ensureOrganizationMember(orgID, userID string) error {
	_, err := s.orgRepo.FindActiveMember(orgID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotOrganizationMember
		}
		return fmt.Errorf("failed to verify organization membership: %w", err)
	}
	return nil
}

// uniqueStrings removes duplicate and empty values, keeping the first occurrence
func uniqueStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))

	for _, v := range values {
		if v == "" {
			continue
		}
		if _, exists := seen[v]; exists {
			continue
		}
		seen[v] = struct{}{}
		result = append(result, v)
	}

	return result
}
