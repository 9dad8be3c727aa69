package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/taskflow-ai/taskflow-api/internal/constants"
	apierrors "github.com/taskflow-ai/taskflow-api/internal/errors"
	"github.com/taskflow-ai/taskflow-api/internal/models"
	"github.com/taskflow-ai/taskflow-api/internal/repository"
)

// RequireTaskAccess checks that the caller is a member of the task's
// organization. The loaded task is stored in the context.
func RequireTaskAccess(taskRepo repository.TaskRepository, orgRepo repository.OrganizationRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		taskID := c.Param("id")
		if taskID == "" {
			apierrors.BadRequest(c, "Invalid task ID")
			return
		}

		userID, ok := GetUserID(c)
		if !ok {
			apierrors.Unauthorized(c, "")
			return
		}

		task, err := taskRepo.FindByID(taskID, "Creator", "Organization", "Assignments", "Assignments.User")
		if err != nil {
			respondLookupError(c, err, "Task not found")
			return
		}

		if _, err := orgRepo.FindActiveMember(task.OrganizationID, userID); err != nil {
			respondLookupError(c, err, "Task not found")
			return
		}

		c.Set(constants.ContextKeyTask, *task)
		c.Next()
	}
}

// GetTask returns the task loaded by RequireTaskAccess.
func GetTask(c *gin.Context) (models.Task, bool) {
	v, ok := c.Get(constants.ContextKeyTask)
	if !ok {
		return models.Task{}, false
	}
	task, ok := v.(models.Task)
	return task, ok
}
