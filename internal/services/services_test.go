package services

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/taskflow-ai/taskflow-api/internal/metrics"
	"github.com/taskflow-ai/taskflow-api/internal/models"
	"github.com/taskflow-ai/taskflow-api/internal/repository"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type serviceTestEnv struct {
	db       *gorm.DB
	clock    *fakeClock
	metrics  *metrics.Metrics
	recovery *RecoveryService
	orgs     *OrganizationService
	projects *ProjectService
	tasks    *TaskService
	auth     *AuthService

	orgRepo     repository.OrganizationRepository
	taskRepo    repository.TaskRepository
	projectRepo repository.ProjectRepository
}

func setupServiceTestEnv(t *testing.T) *serviceTestEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Organization{},
		&models.OrganizationMember{},
		&models.Project{},
		&models.Column{},
		&models.Task{},
		&models.TaskAssignment{},
	))

	clock := &fakeClock{now: t0}
	m := metrics.New()

	userRepo := repository.NewUserRepository(db)
	orgRepo := repository.NewOrganizationRepository(db)
	projectRepo := repository.NewProjectRepository(db)
	columnRepo := repository.NewColumnRepository(db)
	taskRepo := repository.NewTaskRepository(db)
	recoveryRepo := repository.NewRecoveryRepository(db)

	recovery := NewRecoveryService(recoveryRepo, orgRepo,
		WithClock(clock.Now),
		WithRecoveryMetrics(m),
		WithRecoveryLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)

	return &serviceTestEnv{
		db:          db,
		clock:       clock,
		metrics:     m,
		recovery:    recovery,
		orgs:        NewOrganizationService(orgRepo, recovery),
		projects:    NewProjectService(projectRepo, columnRepo, orgRepo, recovery),
		tasks:       NewTaskService(taskRepo, projectRepo, columnRepo, orgRepo, recovery, nil),
		auth:        newAuthService(userRepo, bcrypt.MinCost),
		orgRepo:     orgRepo,
		taskRepo:    taskRepo,
		projectRepo: projectRepo,
	}
}

func (env *serviceTestEnv) createUser(t *testing.T, username string) *models.User {
	t.Helper()
	user := &models.User{Username: username, PasswordHash: "hash"}
	require.NoError(t, env.db.Create(user).Error)
	return user
}

func (env *serviceTestEnv) createOrganization(t *testing.T, name string, owner *models.User) *models.Organization {
	t.Helper()
	org, err := env.orgs.CreateOrganization(CreateOrganizationInput{Name: name, OwnerID: owner.ID})
	require.NoError(t, err)
	return org
}

func (env *serviceTestEnv) addMember(t *testing.T, org *models.Organization, user *models.User, role models.OrganizationRole) {
	t.Helper()
	require.NoError(t, env.orgRepo.AddMember(&models.OrganizationMember{
		OrganizationID: org.ID,
		UserID:         user.ID,
		Role:           role,
		JoinedAt:       time.Now(),
	}))
}

func (env *serviceTestEnv) createProject(t *testing.T, org *models.Organization, owner *models.User, name string) *models.Project {
	t.Helper()
	project, err := env.projects.CreateProject(CreateProjectInput{
		OrganizationID: org.ID,
		ActorID:        owner.ID,
		Name:           name,
	})
	require.NoError(t, err)
	return project
}

func (env *serviceTestEnv) createTask(t *testing.T, project *models.Project, creator *models.User, title string) *models.Task {
	t.Helper()
	task, err := env.tasks.CreateTask(CreateTaskInput{
		Title:     title,
		ProjectID: project.ID,
		CreatorID: creator.ID,
	})
	require.NoError(t, err)
	return task
}

func (env *serviceTestEnv) countUnscoped(t *testing.T, model any, query string, args ...any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, env.db.Unscoped().Model(model).Where(query, args...).Count(&n).Error)
	return n
}

func repositoryFilterForProject(orgID, projectID string) repository.TaskFilter {
	return repository.TaskFilter{
		OrganizationIDs: []string{orgID},
		ProjectID:       &projectID,
		Page:            1,
		PageSize:        20,
	}
}
