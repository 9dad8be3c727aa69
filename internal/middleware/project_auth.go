package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/taskflow-ai/taskflow-api/internal/constants"
	apierrors "github.com/taskflow-ai/taskflow-api/internal/errors"
	"github.com/taskflow-ai/taskflow-api/internal/models"
	"github.com/taskflow-ai/taskflow-api/internal/repository"
)

// RequireProjectAccess checks that the caller is a member of the project's
// organization.
func RequireProjectAccess(projectRepo repository.ProjectRepository, orgRepo repository.OrganizationRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		projectID := c.Param("id")
		if projectID == "" {
			apierrors.BadRequest(c, "Invalid project ID")
			return
		}

		userID, ok := GetUserID(c)
		if !ok {
			apierrors.Unauthorized(c, "")
			return
		}

		project, err := projectRepo.FindByID(projectID)
		if err != nil {
			respondLookupError(c, err, "Project not found")
			return
		}

		member, err := orgRepo.FindActiveMember(project.OrganizationID, userID)
		if err != nil {
			respondLookupError(c, err, "Project not found")
			return
		}

		c.Set(constants.ContextKeyProject, *project)
		c.Set(constants.ContextKeyOrganizationMember, *member)
		c.Next()
	}
}

// GetProject returns the project loaded by RequireProjectAccess.
func GetProject(c *gin.Context) (models.Project, bool) {
	v, ok := c.Get(constants.ContextKeyProject)
	if !ok {
		return models.Project{}, false
	}
	project, ok := v.(models.Project)
	return project, ok
}
