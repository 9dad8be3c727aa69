package repository

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskflow-ai/taskflow-api/internal/models"
	"gorm.io/gorm"
)

var t0 = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

func TestRecoveryRepository_SoftDeleteHidesRecord(t *testing.T) {
	f := setupFixture(t)
	repo := NewRecoveryRepository(f.db)
	project := f.createProject(t, "Board")
	task := f.createTask(t, "Write docs", project)

	require.NoError(t, repo.SoftDelete(models.ItemTypeTask, task.ID, f.owner.ID, t0, t0.Add(24*time.Hour)))

	_, err := NewTaskRepository(f.db).FindByID(task.ID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	record, err := repo.FindItem(models.ItemTypeTask, task.ID)
	require.NoError(t, err)
	require.NotNil(t, record.DeletedAt)
	require.NotNil(t, record.ExpiresAt)
	require.NotNil(t, record.DeletedBy)
	assert.True(t, record.DeletedAt.Equal(t0))
	assert.True(t, record.ExpiresAt.Equal(t0.Add(24*time.Hour)))
	assert.Equal(t, f.owner.ID, *record.DeletedBy)
	assert.Equal(t, "Write docs", record.Name)

	// A second delete finds no live row.
	err = repo.SoftDelete(models.ItemTypeTask, task.ID, f.owner.ID, t0, t0.Add(24*time.Hour))
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRecoveryRepository_RestoreWithinWindow(t *testing.T) {
	f := setupFixture(t)
	repo := NewRecoveryRepository(f.db)
	project := f.createProject(t, "Board")

	require.NoError(t, repo.SoftDelete(models.ItemTypeProject, project.ID, f.owner.ID, t0, t0.Add(24*time.Hour)))
	require.NoError(t, repo.Restore(models.ItemTypeProject, project.ID, t0.Add(time.Hour)))

	restored, err := NewProjectRepository(f.db).FindByID(project.ID)
	require.NoError(t, err)
	assert.False(t, restored.IsDeleted())
	assert.Nil(t, restored.ExpiresAt)
	assert.Nil(t, restored.DeletedBy)

	// Restoring a live record matches nothing.
	assert.ErrorIs(t, repo.Restore(models.ItemTypeProject, project.ID, t0.Add(2*time.Hour)), gorm.ErrRecordNotFound)
}

func TestRecoveryRepository_RestoreAfterWindowFails(t *testing.T) {
	f := setupFixture(t)
	repo := NewRecoveryRepository(f.db)
	project := f.createProject(t, "Board")
	expires := t0.Add(24 * time.Hour)

	require.NoError(t, repo.SoftDelete(models.ItemTypeProject, project.ID, f.owner.ID, t0, expires))

	assert.ErrorIs(t, repo.Restore(models.ItemTypeProject, project.ID, expires), gorm.ErrRecordNotFound)
	assert.ErrorIs(t, repo.Restore(models.ItemTypeProject, project.ID, t0.Add(25*time.Hour)), gorm.ErrRecordNotFound)

	record, err := repo.FindItem(models.ItemTypeProject, project.ID)
	require.NoError(t, err)
	assert.NotNil(t, record.DeletedAt)
}

func TestRecoveryRepository_ListDeletedVisibility(t *testing.T) {
	f := setupFixture(t)
	repo := NewRecoveryRepository(f.db)
	project := f.createProject(t, "Board")
	older := f.createTask(t, "Older", project)
	newer := f.createTask(t, "Newer", project)
	expired := f.createTask(t, "Expired", project)

	require.NoError(t, repo.SoftDelete(models.ItemTypeTask, older.ID, f.owner.ID, t0, t0.Add(24*time.Hour)))
	require.NoError(t, repo.SoftDelete(models.ItemTypeTask, newer.ID, f.owner.ID, t0.Add(time.Hour), t0.Add(25*time.Hour)))
	require.NoError(t, repo.SoftDelete(models.ItemTypeTask, expired.ID, f.owner.ID, t0.Add(-48*time.Hour), t0.Add(-24*time.Hour)))

	now := t0.Add(2 * time.Hour)
	records, err := repo.ListDeleted(models.ItemTypeTask, DeletedItemFilter{
		ActorID:         f.owner.ID,
		OrganizationIDs: []string{f.org.ID},
		Now:             now,
	})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, newer.ID, records[0].ID)
	assert.Equal(t, older.ID, records[1].ID)

	// Not a member, not the creator, not the deleter.
	records, err = repo.ListDeleted(models.ItemTypeTask, DeletedItemFilter{ActorID: f.other.ID, Now: now})
	require.NoError(t, err)
	assert.Empty(t, records)

	otherOrg := "01J0000000000000000000000Z"
	records, err = repo.ListDeleted(models.ItemTypeTask, DeletedItemFilter{
		ActorID:           f.owner.ID,
		OrganizationIDs:   []string{f.org.ID},
		OrganizationScope: &otherOrg,
		Now:               now,
	})
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestRecoveryRepository_ListDeletedOrganizationsByDeleter(t *testing.T) {
	f := setupFixture(t)
	repo := NewRecoveryRepository(f.db)

	require.NoError(t, repo.SoftDelete(models.ItemTypeOrganization, f.org.ID, f.other.ID, t0, t0.Add(24*time.Hour)))

	records, err := repo.ListDeleted(models.ItemTypeOrganization, DeletedItemFilter{ActorID: f.other.ID, Now: t0.Add(time.Minute)})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, f.org.ID, records[0].ID)
	assert.Equal(t, models.ItemTypeOrganization, records[0].Type)
}

func TestRecoveryRepository_PurgeTask(t *testing.T) {
	f := setupFixture(t)
	repo := NewRecoveryRepository(f.db)
	project := f.createProject(t, "Board")
	task := f.createTask(t, "Gone", project)

	require.NoError(t, repo.Purge(models.ItemTypeTask, task.ID))

	assert.Zero(t, countUnscoped(t, f.db, &models.Task{}, "id = ?", task.ID))
	assert.Zero(t, countUnscoped(t, f.db, &models.TaskAssignment{}, "task_id = ?", task.ID))
	assert.ErrorIs(t, repo.Purge(models.ItemTypeTask, task.ID), gorm.ErrRecordNotFound)
}

func TestRecoveryRepository_PurgeProjectCascades(t *testing.T) {
	f := setupFixture(t)
	repo := NewRecoveryRepository(f.db)
	project := f.createProject(t, "Board")
	kept := f.createProject(t, "Other board")
	task := f.createTask(t, "In board", project)
	keptTask := f.createTask(t, "Elsewhere", kept)

	require.NoError(t, repo.SoftDelete(models.ItemTypeTask, task.ID, f.owner.ID, t0, t0.Add(24*time.Hour)))
	require.NoError(t, repo.Purge(models.ItemTypeProject, project.ID))

	assert.Zero(t, countUnscoped(t, f.db, &models.Project{}, "id = ?", project.ID))
	assert.Zero(t, countUnscoped(t, f.db, &models.Task{}, "project_id = ?", project.ID))
	assert.Zero(t, countUnscoped(t, f.db, &models.Column{}, "project_id = ?", project.ID))
	assert.Zero(t, countUnscoped(t, f.db, &models.TaskAssignment{}, "task_id = ?", task.ID))

	assert.Equal(t, int64(1), countUnscoped(t, f.db, &models.Task{}, "id = ?", keptTask.ID))
	assert.Equal(t, int64(2), countUnscoped(t, f.db, &models.Column{}, "project_id = ?", kept.ID))
}

func TestRecoveryRepository_ListExpiredIDs(t *testing.T) {
	f := setupFixture(t)
	repo := NewRecoveryRepository(f.db)
	a := f.createProject(t, "A")
	b := f.createProject(t, "B")
	f.createProject(t, "Live")

	require.NoError(t, repo.SoftDelete(models.ItemTypeProject, a.ID, f.owner.ID, t0, t0.Add(24*time.Hour)))
	require.NoError(t, repo.SoftDelete(models.ItemTypeProject, b.ID, f.owner.ID, t0.Add(time.Hour), t0.Add(25*time.Hour)))

	ids, err := repo.ListExpiredIDs(models.ItemTypeProject, t0.Add(24*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, []string{a.ID}, ids)

	ids, err = repo.ListExpiredIDs(models.ItemTypeProject, t0.Add(48*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, []string{a.ID, b.ID}, ids)
}

func TestRecoveryRepository_UnknownType(t *testing.T) {
	f := setupFixture(t)
	repo := NewRecoveryRepository(f.db)

	_, err := repo.FindItem(models.ItemType("column"), "x")
	assert.Error(t, err)
	assert.Error(t, repo.Restore(models.ItemType("column"), "x", t0))
}
