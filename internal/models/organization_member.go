package models

import "time"

type OrganizationRole string

const (
	RoleOwner  OrganizationRole = "owner"
	RoleAdmin  OrganizationRole = "admin"
	RoleMember OrganizationRole = "member"
)

// Valid reports whether r is a known role.
func (r OrganizationRole) Valid() bool {
	switch r {
	case RoleOwner, RoleAdmin, RoleMember:
		return true
	}
	return false
}

// CanManage reports whether the role may manage projects and members.
func (r OrganizationRole) CanManage() bool {
	return r == RoleOwner || r == RoleAdmin
}

// OrganizationMember is the organization role of a user.
type OrganizationMember struct {
	OrganizationID string           `gorm:"type:varchar(26);primarykey" json:"organization_id"`
	UserID         string           `gorm:"type:varchar(26);primarykey" json:"user_id"`
	Role           OrganizationRole `gorm:"type:varchar(20);not null" json:"role"`
	JoinedAt       time.Time        `json:"joined_at"`

	// Relations
	Organization Organization `gorm:"foreignKey:OrganizationID" json:"organization,omitempty"`
	User         User         `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
