package dto

import (
	"time"

	"github.com/taskflow-ai/taskflow-api/internal/models"
)

// OrganizationDTO is an organization as seen by one viewer. Role is only
// set in membership listings; the invite code only for managers.
type OrganizationDTO struct {
	ID         string                  `json:"id"`
	Name       string                  `json:"name"`
	InviteCode string                  `json:"invite_code,omitempty"`
	Role       models.OrganizationRole `json:"role,omitempty"`
	CreatedAt  time.Time               `json:"created_at"`
}

type MemberDTO struct {
	User     UserDTO                 `json:"user"`
	Role     models.OrganizationRole `json:"role"`
	JoinedAt time.Time               `json:"joined_at"`
}

type OrganizationDetailDTO struct {
	OrganizationDTO
	Members []MemberDTO `json:"members"`
}

func ToOrganizationDTO(org models.Organization, viewer models.OrganizationRole) OrganizationDTO {
	out := OrganizationDTO{
		ID:        org.ID,
		Name:      org.Name,
		CreatedAt: org.CreatedAt,
	}
	if viewer.CanManage() {
		out.InviteCode = org.InviteCode
	}
	return out
}

// ToMembershipDTO renders the organization of m from its member's side.
func ToMembershipDTO(m models.OrganizationMember) OrganizationDTO {
	out := ToOrganizationDTO(m.Organization, m.Role)
	out.Role = m.Role
	return out
}

func ToOrganizationDetailDTO(org models.Organization, members []models.OrganizationMember, viewer models.OrganizationRole) OrganizationDetailDTO {
	out := OrganizationDetailDTO{
		OrganizationDTO: ToOrganizationDTO(org, viewer),
		Members:         make([]MemberDTO, 0, len(members)),
	}
	out.Role = viewer
	for _, m := range members {
		out.Members = append(out.Members, MemberDTO{
			User:     ToUserDTO(m.User),
			Role:     m.Role,
			JoinedAt: m.JoinedAt,
		})
	}
	return out
}
