package router

import (
	"log/slog"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/taskflow-ai/taskflow-api/internal/config"
	"github.com/taskflow-ai/taskflow-api/internal/constants"
	"github.com/taskflow-ai/taskflow-api/internal/handlers"
	"github.com/taskflow-ai/taskflow-api/internal/metrics"
	"github.com/taskflow-ai/taskflow-api/internal/middleware"
	"github.com/taskflow-ai/taskflow-api/internal/repository"
)

// Handlers groups the HTTP handlers mounted by New.
type Handlers struct {
	Auth         *handlers.AuthHandler
	Organization *handlers.OrganizationHandler
	Project      *handlers.ProjectHandler
	Task         *handlers.TaskHandler
	Recovery     *handlers.RecoveryHandler
}

// Repositories are read by the access middleware.
type Repositories struct {
	Organizations repository.OrganizationRepository
	Projects      repository.ProjectRepository
	Tasks         repository.TaskRepository
}

// New builds the gin engine with every route and middleware.
func New(
	cfg *config.Config,
	log *slog.Logger,
	m *metrics.Metrics,
	store sessions.Store,
	repos Repositories,
	h Handlers,
) *gin.Engine {
	r := gin.New()
	limiter := middleware.NewRateLimiter(cfg.RateLimitRPM, cfg.AuthRateLimitRPM, "/api/auth")

	r.Use(middleware.RequestLogger(log))
	r.Use(m.Instrument())
	r.Use(middleware.Recovery(log))
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(limiter.Handler())
	r.Use(sessions.Sessions(constants.SessionCookieName, store))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "TaskFlow API is running",
		})
	})
	if m != nil {
		r.GET("/metrics", gin.WrapH(m.Handler()))
	}

	requireAuth := middleware.RequireAuth()
	orgAccess := middleware.RequireOrganizationAccess(repos.Organizations)
	projectAccess := middleware.RequireProjectAccess(repos.Projects, repos.Organizations)
	taskAccess := middleware.RequireTaskAccess(repos.Tasks, repos.Organizations)

	api := r.Group("/api")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/signup", h.Auth.Signup)
			auth.POST("/login", h.Auth.Login)
			auth.POST("/logout", h.Auth.Logout)
			auth.GET("/me", requireAuth, h.Auth.GetCurrentUser)
		}

		orgs := api.Group("/organizations")
		orgs.Use(requireAuth)
		{
			orgs.POST("", h.Organization.CreateOrganization)
			orgs.GET("", h.Organization.ListOrganizations)
			orgs.POST("/join", h.Organization.JoinOrganization)
			orgs.GET("/:id", orgAccess, h.Organization.GetOrganization)
			orgs.PATCH("/:id", orgAccess, middleware.RequireOrganizationManager(), h.Organization.UpdateOrganization)
			orgs.DELETE("/:id", orgAccess, middleware.RequireOrganizationOwner(), h.Organization.DeleteOrganization)
			orgs.POST("/:id/regenerate-code", orgAccess, middleware.RequireOrganizationManager(), h.Organization.RegenerateInviteCode)
			orgs.DELETE("/:id/members/:user_id", orgAccess, h.Organization.RemoveMember)
			orgs.PATCH("/:id/members/:user_id", orgAccess, h.Organization.UpdateMemberRole)
			orgs.GET("/:id/projects", orgAccess, h.Project.ListProjects)
			orgs.POST("/:id/projects", orgAccess, h.Project.CreateProject)
			// The organization may already be soft-deleted, so no orgAccess here.
			orgs.DELETE("/:id/permanent-delete", h.Recovery.PurgeOrganization)
		}

		projects := api.Group("/projects")
		projects.Use(requireAuth)
		{
			projects.GET("/:id", projectAccess, h.Project.GetProject)
			projects.PATCH("/:id", projectAccess, h.Project.UpdateProject)
			projects.DELETE("/:id", projectAccess, h.Project.DeleteProject)
			projects.GET("/:id/columns", projectAccess, h.Project.ListColumns)
			projects.POST("/:id/columns", projectAccess, h.Project.CreateColumn)
			projects.PATCH("/:id/columns/:column_id", projectAccess, h.Project.UpdateColumn)
			projects.DELETE("/:id/columns/:column_id", projectAccess, h.Project.DeleteColumn)
		}

		tasks := api.Group("/tasks")
		tasks.Use(requireAuth)
		{
			tasks.GET("", h.Task.ListTasks)
			tasks.POST("", h.Task.CreateTask)
			tasks.POST("/bulk", h.Task.BulkUpdate)
			tasks.POST("/generate", h.Task.GenerateTasks)
			tasks.GET("/:id", taskAccess, h.Task.GetTask)
			tasks.PATCH("/:id", taskAccess, h.Task.UpdateTask)
			tasks.DELETE("/:id", taskAccess, h.Task.DeleteTask)
			tasks.POST("/:id/toggle", taskAccess, h.Task.ToggleTask)
			tasks.POST("/:id/assign", taskAccess, h.Task.AssignTask)
			tasks.POST("/:id/unassign", taskAccess, h.Task.UnassignTask)
		}

		recovery := api.Group("/recovery")
		recovery.Use(requireAuth)
		{
			recovery.GET("", h.Recovery.ListDeleted)
			recovery.POST("/:itemId/restore", h.Recovery.Restore)
			recovery.DELETE("/:itemId/permanent", h.Recovery.PermanentDelete)
		}
	}

	return r
}
