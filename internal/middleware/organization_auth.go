package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/taskflow-ai/taskflow-api/internal/constants"
	apierrors "github.com/taskflow-ai/taskflow-api/internal/errors"
	"github.com/taskflow-ai/taskflow-api/internal/models"
	"github.com/taskflow-ai/taskflow-api/internal/repository"
	"gorm.io/gorm"
)

// RequireOrganizationAccess checks that the caller belongs to the live
// organization named by the :id parameter.
func RequireOrganizationAccess(orgRepo repository.OrganizationRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		orgID := c.Param("id")
		if orgID == "" {
			apierrors.BadRequest(c, "Invalid organization ID")
			return
		}

		userID, ok := GetUserID(c)
		if !ok {
			apierrors.Unauthorized(c, "")
			return
		}

		org, err := orgRepo.FindByID(orgID)
		if err != nil {
			respondLookupError(c, err, "Organization not found")
			return
		}

		member, err := orgRepo.FindMember(orgID, userID)
		if err != nil {
			// 404 rather than 403 so outsiders cannot probe for organizations
			respondLookupError(c, err, "Organization not found")
			return
		}

		c.Set(constants.ContextKeyOrganization, *org)
		c.Set(constants.ContextKeyOrganizationMember, *member)
		c.Next()
	}
}

// RequireOrganizationOwner allows only the owner through. It must run after
// RequireOrganizationAccess.
func RequireOrganizationOwner() gin.HandlerFunc {
	return requireRole("Only organization owners can perform this action", func(r models.OrganizationRole) bool {
		return r == models.RoleOwner
	})
}

// RequireOrganizationManager allows owners and admins through.
func RequireOrganizationManager() gin.HandlerFunc {
	return requireRole("Only organization owners and admins can perform this action", models.OrganizationRole.CanManage)
}

func requireRole(message string, allowed func(models.OrganizationRole) bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		member, ok := GetOrganizationMember(c)
		if !ok {
			apierrors.Forbidden(c, "Organization access required")
			return
		}
		if !allowed(member.Role) {
			apierrors.RespondWithError(c, http.StatusForbidden, apierrors.NewAPIError(apierrors.ErrCodeInsufficientPermissions, message))
			return
		}
		c.Next()
	}
}

// GetOrganization returns the organization loaded by RequireOrganizationAccess.
func GetOrganization(c *gin.Context) (models.Organization, bool) {
	v, ok := c.Get(constants.ContextKeyOrganization)
	if !ok {
		return models.Organization{}, false
	}
	org, ok := v.(models.Organization)
	return org, ok
}

// GetOrganizationMember returns the caller's membership loaded by RequireOrganizationAccess.
func GetOrganizationMember(c *gin.Context) (models.OrganizationMember, bool) {
	v, ok := c.Get(constants.ContextKeyOrganizationMember)
	if !ok {
		return models.OrganizationMember{}, false
	}
	member, ok := v.(models.OrganizationMember)
	return member, ok
}

func respondLookupError(c *gin.Context, err error, notFound string) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		apierrors.NotFound(c, notFound)
		return
	}
	apierrors.InternalError(c, "")
}
