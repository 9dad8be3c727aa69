package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/taskflow-ai/taskflow-api/internal/dto"
	apierrors "github.com/taskflow-ai/taskflow-api/internal/errors"
	"github.com/taskflow-ai/taskflow-api/internal/middleware"
	"github.com/taskflow-ai/taskflow-api/internal/models"
	"github.com/taskflow-ai/taskflow-api/internal/services"
	"github.com/taskflow-ai/taskflow-api/internal/utils"
)

type TaskHandler struct {
	taskService *services.TaskService
}

func NewTaskHandler(taskService *services.TaskService) *TaskHandler {
	return &TaskHandler{taskService: taskService}
}

// ListTasks returns the tasks visible to the current user.
// Query: organization_id, project_id, column_id, status, assigned_to_me,
// due_today, sort=due_date, page, limit.
func (h *TaskHandler) ListTasks(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	page := utils.ParsePage(c)
	input := services.ListTasksInput{
		UserID:         userID,
		OrganizationID: optionalQuery(c, "organization_id"),
		ProjectID:      optionalQuery(c, "project_id"),
		ColumnID:       optionalQuery(c, "column_id"),
		SortByDueDate:  c.Query("sort") == "due_date",
		Page:           page.Number,
		PageSize:       page.Size,
	}
	if status := c.Query("status"); status != "" {
		s := models.TaskStatus(status)
		input.Status = &s
	}
	input.AssignedToMe, _ = strconv.ParseBool(c.DefaultQuery("assigned_to_me", "false"))
	input.DueToday, _ = strconv.ParseBool(c.DefaultQuery("due_today", "false"))

	tasks, total, err := h.taskService.ListTasks(input)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskListResponse(tasks, page, total))
}

// GetTask returns a task loaded by RequireTaskAccess
func (h *TaskHandler) GetTask(c *gin.Context) {
	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(task))
}

// CreateTask creates a task in a project
func (h *TaskHandler) CreateTask(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req struct {
		Title       string              `json:"title" binding:"required"`
		Description string              `json:"description"`
		Status      models.TaskStatus   `json:"status"`
		Priority    models.TaskPriority `json:"priority"`
		DueDate     *time.Time          `json:"due_date"`
		ProjectID   string              `json:"project_id" binding:"required"`
		ColumnID    *string             `json:"column_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	task, err := h.taskService.CreateTask(services.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		Priority:    req.Priority,
		DueDate:     req.DueDate,
		ProjectID:   req.ProjectID,
		ColumnID:    req.ColumnID,
		CreatorID:   userID,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToTaskDTO(*task))
}

// UpdateTask patches a task. A null due_date or column_id clears the field.
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	task, ok := middleware.GetTask(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return
	}

	// Parse raw JSON to detect which fields were sent
	var rawReq map[string]any
	if err := c.ShouldBindJSON(&rawReq); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	var input services.UpdateTaskInput
	if v, ok := rawReq["title"].(string); ok {
		input.Title = &v
	}
	if v, ok := rawReq["description"].(string); ok {
		input.Description = &v
	}
	if v, ok := rawReq["status"].(string); ok {
		status := models.TaskStatus(v)
		input.Status = &status
	}
	if v, ok := rawReq["priority"].(string); ok {
		priority := models.TaskPriority(v)
		input.Priority = &priority
	}
	if raw, sent := rawReq["due_date"]; sent {
		if raw == nil {
			input.ClearDueDate = true
		} else if v, ok := raw.(string); ok {
			parsed, err := time.Parse(time.RFC3339, v)
			if err != nil {
				apierrors.BadRequest(c, "due_date must be an RFC3339 timestamp")
				return
			}
			input.DueDate = &parsed
		}
	}
	if raw, sent := rawReq["column_id"]; sent {
		if raw == nil {
			input.ClearColumn = true
		} else if v, ok := raw.(string); ok {
			input.ColumnID = &v
		}
	}

	updated, err := h.taskService.UpdateTask(task.ID, input)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*updated))
}

// DeleteTask soft-deletes a task
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	expiresAt, err := h.taskService.DeleteTask(c.Param("id"), userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.SoftDeletedResponse{
		Message:   "Task deleted",
		ExpiresAt: expiresAt,
	})
}

type userIDsRequest struct {
	UserIDs []string `json:"user_ids" binding:"required"`
}

// AssignTask assigns users to a task
func (h *TaskHandler) AssignTask(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req userIDsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	if err := h.taskService.AssignUsers(services.AssignUsersInput{
		TaskID:  c.Param("id"),
		ActorID: userID,
		UserIDs: req.UserIDs,
	}); err != nil {
		respondServiceError(c, err)
		return
	}

	h.respondAssignments(c, "Users assigned successfully")
}

// UnassignTask removes user assignments from a task
func (h *TaskHandler) UnassignTask(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req userIDsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	if err := h.taskService.UnassignUsers(c.Param("id"), userID, req.UserIDs); err != nil {
		respondServiceError(c, err)
		return
	}

	h.respondAssignments(c, "Users unassigned successfully")
}

func (h *TaskHandler) respondAssignments(c *gin.Context, message string) {
	task, err := h.taskService.GetTask(c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":     message,
		"assignments": dto.ToTaskDTO(*task).Assignments,
	})
}

// ToggleTask flips a task between TODO and DONE
func (h *TaskHandler) ToggleTask(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	task, err := h.taskService.ToggleTaskStatus(c.Param("id"), userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskDTO(*task))
}

// BulkUpdate applies delete, set_status or move to many tasks at once
func (h *TaskHandler) BulkUpdate(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req struct {
		TaskIDs  []string          `json:"task_ids" binding:"required"`
		Action   string            `json:"action" binding:"required"`
		Status   models.TaskStatus `json:"status"`
		ColumnID string            `json:"column_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	result, err := h.taskService.BulkUpdate(services.BulkTaskInput{
		ActorID:  userID,
		TaskIDs:  req.TaskIDs,
		Action:   req.Action,
		Status:   req.Status,
		ColumnID: req.ColumnID,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.BulkTaskResultDTO{
		Action:   req.Action,
		Affected: result.Affected,
		Skipped:  result.Skipped,
	})
}

// GenerateTasks drafts task suggestions for a project from free text
func (h *TaskHandler) GenerateTasks(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req struct {
		Text      string `json:"text" binding:"required"`
		ProjectID string `json:"project_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	generated, err := h.taskService.GenerateTasks(c.Request.Context(), services.GenerateTasksInput{
		Text:      req.Text,
		ProjectID: req.ProjectID,
		CreatorID: userID,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"tasks": generated})
}

func optionalQuery(c *gin.Context, key string) *string {
	v := c.Query(key)
	if v == "" {
		return nil
	}
	return &v
}
