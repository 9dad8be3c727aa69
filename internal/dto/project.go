package dto

import (
	"time"

	"github.com/taskflow-ai/taskflow-api/internal/models"
)

// ColumnDTO represents a kanban column
type ColumnDTO struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Position int    `json:"position"`
}

// ProjectDTO represents a project in API responses
type ProjectDTO struct {
	ID             string      `json:"id"`
	Name           string      `json:"name"`
	Description    string      `json:"description"`
	RepositoryURL  string      `json:"repository_url,omitempty"`
	OrganizationID string      `json:"organization_id"`
	OwnerID        string      `json:"owner_id"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
	Columns        []ColumnDTO `json:"columns,omitempty"`
}

func ToColumnDTO(column models.Column) ColumnDTO {
	return ColumnDTO{
		ID:       column.ID,
		Name:     column.Name,
		Position: column.Position,
	}
}

func ToColumnDTOs(columns []models.Column) []ColumnDTO {
	out := make([]ColumnDTO, len(columns))
	for i, c := range columns {
		out[i] = ToColumnDTO(c)
	}
	return out
}

func ToProjectDTO(project models.Project) ProjectDTO {
	dto := ProjectDTO{
		ID:             project.ID,
		Name:           project.Name,
		Description:    project.Description,
		RepositoryURL:  project.RepositoryURL,
		OrganizationID: project.OrganizationID,
		OwnerID:        project.OwnerID,
		CreatedAt:      project.CreatedAt,
		UpdatedAt:      project.UpdatedAt,
	}
	if len(project.Columns) > 0 {
		dto.Columns = ToColumnDTOs(project.Columns)
	}
	return dto
}

func ToProjectDTOs(projects []models.Project) []ProjectDTO {
	out := make([]ProjectDTO, len(projects))
	for i, p := range projects {
		out[i] = ToProjectDTO(p)
	}
	return out
}
