package models

import (
	"time"

	"gorm.io/gorm"
)

// ItemType names a record kind that can be soft-deleted and recovered.
type ItemType string

const (
	ItemTypeTask         ItemType = "task"
	ItemTypeProject      ItemType = "project"
	ItemTypeOrganization ItemType = "organization"
)

// RecoverableItemTypes is the fixed order in which an untyped id is looked up.
var RecoverableItemTypes = []ItemType{ItemTypeTask, ItemTypeProject, ItemTypeOrganization}

// Valid reports whether t is a known item type.
func (t ItemType) Valid() bool {
	switch t {
	case ItemTypeTask, ItemTypeProject, ItemTypeOrganization:
		return true
	}
	return false
}

// Recoverable is embedded in every soft-deletable model. DeletedAt is gorm's
// soft delete column, so deleted rows drop out of normal queries; ExpiresAt
// and DeletedBy are only set while DeletedAt is set.
type Recoverable struct {
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
	ExpiresAt *time.Time     `gorm:"index" json:"expires_at,omitempty"`
	DeletedBy *string        `gorm:"type:varchar(26)" json:"deleted_by,omitempty"`
}

// IsDeleted reports whether the record is currently soft-deleted.
func (r Recoverable) IsDeleted() bool {
	return r.DeletedAt.Valid
}

// RecoverableAt reports whether a soft-deleted record can still be restored at now.
func (r Recoverable) RecoverableAt(now time.Time) bool {
	return r.IsDeleted() && r.ExpiresAt != nil && now.Before(*r.ExpiresAt)
}
