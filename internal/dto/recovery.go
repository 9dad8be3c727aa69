package dto

import (
	"time"

	"github.com/taskflow-ai/taskflow-api/internal/models"
	"github.com/taskflow-ai/taskflow-api/internal/repository"
)

// DeletedItemSummary is one entry of the recovery listing
type DeletedItemSummary struct {
	ID             string          `json:"id"`
	Type           models.ItemType `json:"type"`
	Name           string          `json:"name"`
	OrganizationID string          `json:"organization_id,omitempty"`
	DeletedAt      time.Time       `json:"deleted_at"`
	ExpiresAt      time.Time       `json:"expires_at"`
	DeletedBy      string          `json:"deleted_by,omitempty"`
}

// SuccessResponse is returned by recovery mutations
type SuccessResponse struct {
	Success bool `json:"success"`
}

// ToDeletedItemSummary converts a recovery record to its listing entry
func ToDeletedItemSummary(record repository.RecoveryRecord) DeletedItemSummary {
	summary := DeletedItemSummary{
		ID:             record.ID,
		Type:           record.Type,
		Name:           record.Name,
		OrganizationID: record.OrganizationID,
	}
	if record.DeletedAt != nil {
		summary.DeletedAt = *record.DeletedAt
	}
	if record.ExpiresAt != nil {
		summary.ExpiresAt = *record.ExpiresAt
	}
	if record.DeletedBy != nil {
		summary.DeletedBy = *record.DeletedBy
	}
	return summary
}

// ToDeletedItemSummaries keeps the order of records. The result is never nil.
func ToDeletedItemSummaries(records []repository.RecoveryRecord) []DeletedItemSummary {
	out := make([]DeletedItemSummary, len(records))
	for i, r := range records {
		out[i] = ToDeletedItemSummary(r)
	}
	return out
}

// SoftDeletedResponse is returned by the regular delete endpoints
type SoftDeletedResponse struct {
	Message   string    `json:"message"`
	ExpiresAt time.Time `json:"expires_at"`
}
