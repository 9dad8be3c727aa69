package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/taskflow-ai/taskflow-api/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type testFixture struct {
	db    *gorm.DB
	owner *models.User
	other *models.User
	org   *models.Organization
}

func newTestDB(t *testing.T) *gorm.DB {
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
	return db
}

func setupFixture(t *testing.T) *testFixture {
	t.Helper()
	db := newTestDB(t)

	owner := &models.User{Username: "alice", PasswordHash: "hash"}
	other := &models.User{Username: "bob", PasswordHash: "hash"}
	require.NoError(t, db.Create(owner).Error)
	require.NoError(t, db.Create(other).Error)

	org := &models.Organization{Name: "Acme", InviteCode: "AAAA-BBBB-CCCC"}
	require.NoError(t, db.Create(org).Error)
	require.NoError(t, db.Create(&models.OrganizationMember{
		OrganizationID: org.ID,
		UserID:         owner.ID,
		Role:           models.RoleOwner,
		JoinedAt:       time.Now(),
	}).Error)

	return &testFixture{db: db, owner: owner, other: other, org: org}
}

func (f *testFixture) createProject(t *testing.T, name string) *models.Project {
	t.Helper()
	project := &models.Project{Name: name, OrganizationID: f.org.ID, OwnerID: f.owner.ID}
	columns := []models.Column{{Name: "To Do", Position: 0}, {Name: "Done", Position: 1}}
	require.NoError(t, NewProjectRepository(f.db).CreateWithColumns(project, columns))
	return project
}

func (f *testFixture) createTask(t *testing.T, title string, project *models.Project) *models.Task {
	t.Helper()
	task := &models.Task{
		Title:          title,
		Status:         models.TaskStatusTodo,
		Priority:       models.TaskPriorityMedium,
		CreatorID:      f.owner.ID,
		OrganizationID: f.org.ID,
		ProjectID:      project.ID,
	}
	require.NoError(t, f.db.Create(task).Error)
	require.NoError(t, NewTaskRepository(f.db).AssignUsers(task.ID, []string{f.owner.ID}))
	return task
}

func countUnscoped(t *testing.T, db *gorm.DB, model any, query string, args ...any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Unscoped().Model(model).Where(query, args...).Count(&n).Error)
	return n
}
