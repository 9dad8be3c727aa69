package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/taskflow-ai/taskflow-api/internal/dto"
	apierrors "github.com/taskflow-ai/taskflow-api/internal/errors"
	"github.com/taskflow-ai/taskflow-api/internal/middleware"
	"github.com/taskflow-ai/taskflow-api/internal/models"
	"github.com/taskflow-ai/taskflow-api/internal/services"
)

type OrganizationHandler struct {
	orgService *services.OrganizationService
}

func NewOrganizationHandler(orgService *services.OrganizationService) *OrganizationHandler {
	return &OrganizationHandler{orgService: orgService}
}

type organizationNameRequest struct {
	Name string `json:"name" binding:"required"`
}

// CreateOrganization creates a new organization owned by the caller
func (h *OrganizationHandler) CreateOrganization(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req organizationNameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	org, err := h.orgService.CreateOrganization(services.CreateOrganizationInput{
		Name:    req.Name,
		OwnerID: userID,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToMembershipDTO(models.OrganizationMember{
		Organization: *org,
		Role:         models.RoleOwner,
	}))
}

// ListOrganizations returns all live organizations the user is a member of
func (h *OrganizationHandler) ListOrganizations(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	memberships, err := h.orgService.ListOrganizationsForUser(userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	orgs := make([]dto.OrganizationDTO, len(memberships))
	for i, m := range memberships {
		orgs[i] = dto.ToMembershipDTO(m)
	}

	c.JSON(http.StatusOK, gin.H{"organizations": orgs})
}

// GetOrganization returns organization details with its members
func (h *OrganizationHandler) GetOrganization(c *gin.Context) {
	member, ok := middleware.GetOrganizationMember(c)
	if !ok {
		apierrors.InternalError(c, "Organization membership not found in context")
		return
	}

	org, members, err := h.orgService.GetOrganizationWithMembers(member.OrganizationID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToOrganizationDetailDTO(*org, members, member.Role))
}

// UpdateOrganization renames an organization
func (h *OrganizationHandler) UpdateOrganization(c *gin.Context) {
	var req organizationNameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	org, err := h.orgService.UpdateOrganizationName(c.Param("id"), req.Name)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	// Only managers get past the route guard.
	c.JSON(http.StatusOK, dto.ToOrganizationDTO(*org, models.RoleAdmin))
}

// DeleteOrganization soft-deletes an organization. It can be restored from
// the recovery endpoints until the window closes.
func (h *OrganizationHandler) DeleteOrganization(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	expiresAt, err := h.orgService.DeleteOrganization(c.Param("id"), userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SoftDeletedResponse{
		Message:   "Organization deleted",
		ExpiresAt: expiresAt,
	})
}

// JoinOrganization allows a user to join via invite code
func (h *OrganizationHandler) JoinOrganization(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req struct {
		InviteCode string `json:"invite_code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	org, err := h.orgService.JoinOrganizationByInvite(userID, req.InviteCode)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":      "Successfully joined organization",
		"organization": dto.ToOrganizationDTO(*org, models.RoleMember),
	})
}

// RegenerateInviteCode generates a new invite code for the organization
func (h *OrganizationHandler) RegenerateInviteCode(c *gin.Context) {
	org, err := h.orgService.RegenerateInviteCode(c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToOrganizationDTO(*org, models.RoleAdmin))
}

// RemoveMember removes a member from the organization
func (h *OrganizationHandler) RemoveMember(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.orgService.RemoveMember(c.Param("id"), userID, c.Param("user_id")); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Member removed successfully",
	})
}

// UpdateMemberRole changes a member's role. Owner only.
func (h *OrganizationHandler) UpdateMemberRole(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req struct {
		Role models.OrganizationRole `json:"role" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	member, err := h.orgService.UpdateMemberRole(c.Param("id"), userID, c.Param("user_id"), req.Role)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user_id": member.UserID,
		"role":    member.Role,
	})
}
