package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	apierrors "github.com/taskflow-ai/taskflow-api/internal/errors"
	"github.com/taskflow-ai/taskflow-api/internal/middleware"
	"github.com/taskflow-ai/taskflow-api/internal/services"
	"github.com/taskflow-ai/taskflow-api/internal/utils"
)

// respondServiceError maps service sentinel errors to API responses.
// Anything unknown is attached to the context for the request log and
// answered with a generic 500.
func respondServiceError(c *gin.Context, err error) {
	switch {
	// 404
	case errors.Is(err, services.ErrItemNotFound),
		errors.Is(err, services.ErrTaskNotFound),
		errors.Is(err, services.ErrProjectNotFound),
		errors.Is(err, services.ErrColumnNotFound),
		errors.Is(err, services.ErrOrganizationNotFound),
		errors.Is(err, services.ErrOrganizationMemberNotFound),
		errors.Is(err, services.ErrInvalidInviteCode):
		apierrors.NotFound(c, err.Error())

	// recovery state
	case errors.Is(err, services.ErrItemNotDeleted):
		apierrors.BadRequestWithCode(c, apierrors.ErrCodeNotDeleted, err.Error())
	case errors.Is(err, services.ErrRecoveryExpired):
		apierrors.BadRequestWithCode(c, apierrors.ErrCodeRecoveryExpired, err.Error())

	// 403
	case errors.Is(err, services.ErrPurgeNotPermitted),
		errors.Is(err, services.ErrNotOrganizationOwner),
		errors.Is(err, services.ErrNotOrganizationMember),
		errors.Is(err, services.ErrInsufficientRole),
		errors.Is(err, services.ErrTaskPermissionDenied),
		errors.Is(err, services.ErrNotTaskCreator):
		apierrors.RespondWithError(c, http.StatusForbidden,
			apierrors.NewAPIError(apierrors.ErrCodeInsufficientPermissions, err.Error()))

	// 409
	case errors.Is(err, services.ErrAlreadyOrganizationMember):
		apierrors.Conflict(c, err.Error())

	// 400
	case errors.Is(err, services.ErrUserIDRequired),
		errors.Is(err, services.ErrItemIDRequired),
		errors.Is(err, services.ErrOrganizationIDRequired),
		errors.Is(err, services.ErrInvalidItemType),
		errors.Is(err, services.ErrInvalidOrganizationName),
		errors.Is(err, services.ErrOrganizationNameTooLong),
		errors.Is(err, services.ErrCannotRemoveYourself),
		errors.Is(err, services.ErrCannotRemoveOwner),
		errors.Is(err, services.ErrCannotChangeOwnRole),
		errors.Is(err, services.ErrCannotChangeOwnerRole),
		errors.Is(err, services.ErrInvalidRole),
		errors.Is(err, services.ErrProjectNameRequired),
		errors.Is(err, services.ErrProjectNameTooLong),
		errors.Is(err, services.ErrColumnNameRequired),
		errors.Is(err, services.ErrColumnNameTooLong),
		errors.Is(err, services.ErrInvalidColumnPosition),
		errors.Is(err, utils.ErrInvalidRepositoryURL),
		errors.Is(err, services.ErrNoUserIDsProvided),
		errors.Is(err, services.ErrTitleRequired),
		errors.Is(err, services.ErrTitleEmpty),
		errors.Is(err, services.ErrInvalidTaskStatus),
		errors.Is(err, services.ErrInvalidTaskPriority),
		errors.Is(err, services.ErrProjectRequired),
		errors.Is(err, services.ErrColumnNotInProject),
		errors.Is(err, services.ErrInvalidTaskAssignee),
		errors.Is(err, services.ErrNoTaskIDsProvided),
		errors.Is(err, services.ErrTooManyTaskIDs),
		errors.Is(err, services.ErrInvalidBulkAction),
		errors.Is(err, services.ErrAINoTasksGenerated),
		errors.Is(err, services.ErrAINoValidTasks):
		apierrors.BadRequest(c, err.Error())

	case errors.Is(err, services.ErrAIServiceNotConfigured):
		apierrors.ServiceUnavailable(c, "AI service is not configured. Please set OPENAI_API_KEY environment variable.")

	default:
		_ = c.Error(err)
		apierrors.InternalError(c, "")
	}
}

// currentUserID reads the authenticated user or answers 401.
func currentUserID(c *gin.Context) (string, bool) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		apierrors.Unauthorized(c, "Not authenticated")
		return "", false
	}
	return userID, true
}
