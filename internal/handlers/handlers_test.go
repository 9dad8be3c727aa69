package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/taskflow-ai/taskflow-api/internal/constants"
	"github.com/taskflow-ai/taskflow-api/internal/database"
	"github.com/taskflow-ai/taskflow-api/internal/models"
	"github.com/taskflow-ai/taskflow-api/internal/repository"
	"github.com/taskflow-ai/taskflow-api/internal/services"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type handlerTestEnv struct {
	db    *gorm.DB
	clock *time.Time

	orgRepo repository.OrganizationRepository

	authService    *services.AuthService
	orgService     *services.OrganizationService
	projectService *services.ProjectService
	taskService    *services.TaskService
	recovery       *services.RecoveryService

	auth     *AuthHandler
	orgs     *OrganizationHandler
	projects *ProjectHandler
	tasks    *TaskHandler
	recover  *RecoveryHandler
}

func setupHandlerTestEnv(t *testing.T) *handlerTestEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	require.NoError(t, database.MigrateSchema(db))

	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	env := &handlerTestEnv{db: db, clock: &now}

	userRepo := repository.NewUserRepository(db)
	env.orgRepo = repository.NewOrganizationRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	columnRepo := repository.NewColumnRepository(db)
	taskRepo := repository.NewTaskRepository(db)

	env.recovery = services.NewRecoveryService(repository.NewRecoveryRepository(db), env.orgRepo,
		services.WithClock(func() time.Time { return *env.clock }),
		services.WithRecoveryLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	env.authService = services.NewAuthService(userRepo)
	env.orgService = services.NewOrganizationService(env.orgRepo, env.recovery)
	env.projectService = services.NewProjectService(projectRepo, columnRepo, env.orgRepo, env.recovery)
	env.taskService = services.NewTaskService(taskRepo, projectRepo, columnRepo, env.orgRepo, env.recovery, nil)

	env.auth = NewAuthHandler(env.authService)
	env.orgs = NewOrganizationHandler(env.orgService)
	env.projects = NewProjectHandler(env.projectService)
	env.tasks = NewTaskHandler(env.taskService)
	env.recover = NewRecoveryHandler(env.recovery)

	return env
}

func (env *handlerTestEnv) advance(d time.Duration) {
	*env.clock = env.clock.Add(d)
}

// testContext builds a gin context as if RequireAuth had already run.
// params are key/value pairs for URL parameters.
func testContext(method, url string, body any, userID string, params ...string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			panic(err)
		}
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, url, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c, _ := gin.CreateTestContext(w)
	c.Request = req
	if userID != "" {
		c.Set(constants.ContextKeyUserID, userID)
	}
	for i := 0; i+1 < len(params); i += 2 {
		c.Params = append(c.Params, gin.Param{Key: params[i], Value: params[i+1]})
	}

	return c, w
}

func decodeJSON[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	body := decodeJSON[map[string]any](t, w)
	code, _ := body["code"].(string)
	return code
}

func (env *handlerTestEnv) createUser(t *testing.T, username string) *models.User {
	t.Helper()
	user := &models.User{Username: username, PasswordHash: "hashed"}
	require.NoError(t, env.db.Create(user).Error)
	return user
}

func (env *handlerTestEnv) createOrganization(t *testing.T, name string, owner *models.User) *models.Organization {
	t.Helper()
	org, err := env.orgService.CreateOrganization(services.CreateOrganizationInput{Name: name, OwnerID: owner.ID})
	require.NoError(t, err)
	return org
}

func (env *handlerTestEnv) addMember(t *testing.T, org *models.Organization, user *models.User, role models.OrganizationRole) {
	t.Helper()
	require.NoError(t, env.orgRepo.AddMember(&models.OrganizationMember{
		OrganizationID: org.ID,
		UserID:         user.ID,
		Role:           role,
		JoinedAt:       time.Now(),
	}))
}

func (env *handlerTestEnv) createProject(t *testing.T, org *models.Organization, owner *models.User, name string) *models.Project {
	t.Helper()
	project, err := env.projectService.CreateProject(services.CreateProjectInput{
		OrganizationID: org.ID,
		ActorID:        owner.ID,
		Name:           name,
	})
	require.NoError(t, err)
	return project
}

func (env *handlerTestEnv) createTask(t *testing.T, project *models.Project, creator *models.User, title string) *models.Task {
	t.Helper()
	task, err := env.taskService.CreateTask(services.CreateTaskInput{
		Title:     title,
		ProjectID: project.ID,
		CreatorID: creator.ID,
	})
	require.NoError(t, err)
	return task
}

func requireStatus(t *testing.T, w *httptest.ResponseRecorder, status int) {
	t.Helper()
	require.Equal(t, status, w.Code, w.Body.String())
}
