package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/taskflow-ai/taskflow-api/internal/dto"
	apierrors "github.com/taskflow-ai/taskflow-api/internal/errors"
	"github.com/taskflow-ai/taskflow-api/internal/middleware"
	"github.com/taskflow-ai/taskflow-api/internal/services"
)

// RecoveryHandler exposes the soft-delete recovery endpoints.
type RecoveryHandler struct {
	recovery *services.RecoveryService
}

func NewRecoveryHandler(recovery *services.RecoveryService) *RecoveryHandler {
	return &RecoveryHandler{recovery: recovery}
}

// ListDeleted lists the restorable items the user can see.
// userId defaults to the session user; organizationId narrows the listing.
func (h *RecoveryHandler) ListDeleted(c *gin.Context) {
	sessionUserID, _ := middleware.GetUserID(c)

	userID := c.Query("userId")
	switch {
	case userID == "" && sessionUserID == "":
		apierrors.BadRequestWithCode(c, apierrors.ErrCodeMissingField, "userId is required")
		return
	case userID == "":
		userID = sessionUserID
	case sessionUserID != "" && userID != sessionUserID:
		apierrors.Forbidden(c, "userId does not match the authenticated user")
		return
	}

	var scope *string
	if orgID := c.Query("organizationId"); orgID != "" {
		scope = &orgID
	}

	records, err := h.recovery.ListDeleted(userID, scope)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToDeletedItemSummaries(records))
}

// Restore brings a soft-deleted item back while its window is open
func (h *RecoveryHandler) Restore(c *gin.Context) {
	userID, ref, ok := h.bindItem(c)
	if !ok {
		return
	}

	if _, err := h.recovery.Restore(ref, userID); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse{Success: true})
}

// PermanentDelete purges an item whether or not it is soft-deleted
func (h *RecoveryHandler) PermanentDelete(c *gin.Context) {
	userID, ref, ok := h.bindItem(c)
	if !ok {
		return
	}

	if _, err := h.recovery.Purge(ref, userID); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse{Success: true})
}

// PurgeOrganization permanently deletes an organization with all of its
// projects, tasks, columns and member roles.
func (h *RecoveryHandler) PurgeOrganization(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.recovery.PurgeOrganization(c.Param("id"), userID); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SuccessResponse{Success: true})
}

func (h *RecoveryHandler) bindItem(c *gin.Context) (string, services.ItemRef, bool) {
	userID, ok := currentUserID(c)
	if !ok {
		return "", services.ItemRef{}, false
	}

	itemType, err := services.ParseItemType(c.Query("type"))
	if err != nil {
		respondServiceError(c, err)
		return "", services.ItemRef{}, false
	}

	return userID, services.ItemRef{Type: itemType, ID: c.Param("itemId")}, true
}
