package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

func TestRecoverable_RecoverableAt(t *testing.T) {
	t0 := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	expires := t0.Add(24 * time.Hour)
	actor := "01HZZZZZZZZZZZZZZZZZZZZZZZ"

	live := Recoverable{}
	assert.False(t, live.IsDeleted())
	assert.False(t, live.RecoverableAt(t0))

	deleted := Recoverable{
		DeletedAt: gorm.DeletedAt{Time: t0, Valid: true},
		ExpiresAt: &expires,
		DeletedBy: &actor,
	}
	assert.True(t, deleted.IsDeleted())
	assert.True(t, deleted.RecoverableAt(t0.Add(time.Hour)))
	assert.False(t, deleted.RecoverableAt(expires))
	assert.False(t, deleted.RecoverableAt(t0.Add(25*time.Hour)))
}

func TestItemType_Valid(t *testing.T) {
	for _, it := range RecoverableItemTypes {
		assert.True(t, it.Valid())
	}
	assert.False(t, ItemType("column").Valid())
	assert.False(t, ItemType("").Valid())
}

func TestOrganizationRole(t *testing.T) {
	assert.True(t, RoleOwner.CanManage())
	assert.True(t, RoleAdmin.CanManage())
	assert.False(t, RoleMember.CanManage())
	assert.False(t, OrganizationRole("guest").Valid())
}
