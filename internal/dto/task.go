package dto

import (
	"time"

	"github.com/taskflow-ai/taskflow-api/internal/models"
	"github.com/taskflow-ai/taskflow-api/internal/utils"
)

// TaskSummary is what board and list views show for a task.
type TaskSummary struct {
	ID          string              `json:"id"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	Status      models.TaskStatus   `json:"status"`
	Priority    models.TaskPriority `json:"priority"`
	DueDate     *time.Time          `json:"due_date"`
	ProjectID   string              `json:"project_id"`
	ColumnID    *string             `json:"column_id"`
	CreatorID   string              `json:"creator_id"`
	Creator     *UserDTO            `json:"creator,omitempty"`
	CreatedAt   time.Time           `json:"created_at"`
}

type TaskAssignmentDTO struct {
	User       UserDTO   `json:"user"`
	AssignedAt time.Time `json:"assigned_at"`
}

// TaskDTO is a single task with its organization and assignees.
type TaskDTO struct {
	TaskSummary
	OrganizationID string              `json:"organization_id"`
	UpdatedAt      time.Time           `json:"updated_at"`
	Organization   *OrganizationDTO    `json:"organization,omitempty"`
	Assignments    []TaskAssignmentDTO `json:"assignments,omitempty"`
}

type TaskListResponse struct {
	Tasks      []TaskSummary `json:"tasks"`
	Page       int           `json:"page"`
	PageSize   int           `json:"page_size"`
	TotalCount int64         `json:"total_count"`
	TotalPages int           `json:"total_pages"`
}

// BulkTaskResultDTO reports how many tasks an action changed. Skipped holds
// the ids the caller could not see or change.
type BulkTaskResultDTO struct {
	Action   string   `json:"action"`
	Affected int      `json:"affected"`
	Skipped  []string `json:"skipped"`
}

func ToTaskSummary(task models.Task) TaskSummary {
	return TaskSummary{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		Status:      task.Status,
		Priority:    task.Priority,
		DueDate:     task.DueDate,
		ProjectID:   task.ProjectID,
		ColumnID:    task.ColumnID,
		CreatorID:   task.CreatorID,
		Creator:     userRef(task.Creator),
		CreatedAt:   task.CreatedAt,
	}
}

func ToTaskDTO(task models.Task) TaskDTO {
	out := TaskDTO{
		TaskSummary:    ToTaskSummary(task),
		OrganizationID: task.OrganizationID,
		UpdatedAt:      task.UpdatedAt,
	}

	if task.Organization.ID != "" {
		org := ToOrganizationDTO(task.Organization, models.RoleMember)
		out.Organization = &org
	}

	for _, a := range task.Assignments {
		out.Assignments = append(out.Assignments, TaskAssignmentDTO{
			User:       ToUserDTO(a.User),
			AssignedAt: a.AssignedAt,
		})
	}

	return out
}

func ToTaskListResponse(tasks []models.Task, page utils.Page, totalCount int64) TaskListResponse {
	items := make([]TaskSummary, len(tasks))
	for i, task := range tasks {
		items[i] = ToTaskSummary(task)
	}

	return TaskListResponse{
		Tasks:      items,
		Page:       page.Number,
		PageSize:   page.Size,
		TotalCount: totalCount,
		TotalPages: page.TotalPages(totalCount),
	}
}
