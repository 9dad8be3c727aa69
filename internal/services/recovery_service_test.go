package services

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskflow-ai/taskflow-api/internal/models"
)

func TestRecoveryService_SoftDeleteSetsWindow(t *testing.T) {
	env := setupServiceTestEnv(t)
	alice := env.createUser(t, "alice")
	org := env.createOrganization(t, "Acme", alice)
	project := env.createProject(t, org, alice, "Board")
	task := env.createTask(t, project, alice, "Ship it")

	expiresAt, err := env.tasks.DeleteTask(task.ID, alice.ID)
	require.NoError(t, err)
	assert.True(t, expiresAt.Equal(t0.Add(24*time.Hour)))

	var stored models.Task
	require.NoError(t, env.db.Unscoped().Where("id = ?", task.ID).First(&stored).Error)
	require.True(t, stored.DeletedAt.Valid)
	require.NotNil(t, stored.ExpiresAt)
	require.NotNil(t, stored.DeletedBy)
	assert.Equal(t, 24*time.Hour, stored.ExpiresAt.Sub(stored.DeletedAt.Time))
	assert.Equal(t, alice.ID, *stored.DeletedBy)

	_, err = env.tasks.GetTask(task.ID)
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestRecoveryService_RestoreWithinWindow(t *testing.T) {
	env := setupServiceTestEnv(t)
	alice := env.createUser(t, "alice")
	org := env.createOrganization(t, "Acme", alice)
	project := env.createProject(t, org, alice, "Board")
	task := env.createTask(t, project, alice, "Ship it")

	_, err := env.tasks.DeleteTask(task.ID, alice.ID)
	require.NoError(t, err)

	env.clock.Advance(time.Hour)
	restored, err := env.recovery.Restore(ItemRef{Type: models.ItemTypeTask, ID: task.ID}, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ItemTypeTask, restored.Type)

	var stored models.Task
	require.NoError(t, env.db.Where("id = ?", task.ID).First(&stored).Error)
	assert.False(t, stored.DeletedAt.Valid)
	assert.Nil(t, stored.ExpiresAt)
	assert.Nil(t, stored.DeletedBy)
	assert.True(t, stored.UpdatedAt.Equal(t0.Add(time.Hour)))

	tasks, total, err := env.tasks.ListTasks(ListTasksInput{UserID: alice.ID, Page: 1, PageSize: 20})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, task.ID, tasks[0].ID)

	// soft_delete/task and restore/task
	series, err := testutil.GatherAndCount(env.metrics.Registry(), "taskflow_recovery_operations_total")
	require.NoError(t, err)
	assert.Equal(t, 2, series)
}

func TestRecoveryService_RestoreAfterWindowFails(t *testing.T) {
	env := setupServiceTestEnv(t)
	alice := env.createUser(t, "alice")
	org := env.createOrganization(t, "Acme", alice)
	project := env.createProject(t, org, alice, "Board")
	task := env.createTask(t, project, alice, "Ship it")

	_, err := env.tasks.DeleteTask(task.ID, alice.ID)
	require.NoError(t, err)

	env.clock.Advance(25 * time.Hour)
	_, err = env.recovery.Restore(ItemRef{ID: task.ID}, alice.ID)
	assert.ErrorIs(t, err, ErrRecoveryExpired)

	var stored models.Task
	require.NoError(t, env.db.Unscoped().Where("id = ?", task.ID).First(&stored).Error)
	assert.True(t, stored.DeletedAt.Valid)
	assert.NotNil(t, stored.ExpiresAt)
	assert.NotNil(t, stored.DeletedBy)
}

func TestRecoveryService_RestoreAtExactExpiryFails(t *testing.T) {
	env := setupServiceTestEnv(t)
	alice := env.createUser(t, "alice")
	org := env.createOrganization(t, "Acme", alice)
	project := env.createProject(t, org, alice, "Board")

	_, err := env.projects.DeleteProject(project.ID, alice.ID)
	require.NoError(t, err)

	env.clock.Advance(24 * time.Hour)
	_, err = env.recovery.Restore(ItemRef{Type: models.ItemTypeProject, ID: project.ID}, alice.ID)
	assert.ErrorIs(t, err, ErrRecoveryExpired)
}

func TestRecoveryService_RestoreErrors(t *testing.T) {
	env := setupServiceTestEnv(t)
	alice := env.createUser(t, "alice")
	mallory := env.createUser(t, "mallory")
	org := env.createOrganization(t, "Acme", alice)
	project := env.createProject(t, org, alice, "Board")
	task := env.createTask(t, project, alice, "Live task")

	_, err := env.recovery.Restore(ItemRef{ID: task.ID}, alice.ID)
	assert.ErrorIs(t, err, ErrItemNotDeleted)

	_, err = env.recovery.Restore(ItemRef{ID: "01J0000000000000000MISSING0"}, alice.ID)
	assert.ErrorIs(t, err, ErrItemNotFound)

	_, err = env.recovery.Restore(ItemRef{}, alice.ID)
	assert.ErrorIs(t, err, ErrItemIDRequired)

	_, err = env.recovery.Restore(ItemRef{Type: "column", ID: task.ID}, alice.ID)
	assert.ErrorIs(t, err, ErrInvalidItemType)

	// The wrong explicit type does not fall back to scanning.
	_, err = env.recovery.Restore(ItemRef{Type: models.ItemTypeProject, ID: task.ID}, alice.ID)
	assert.ErrorIs(t, err, ErrItemNotFound)

	_, err = env.tasks.DeleteTask(task.ID, alice.ID)
	require.NoError(t, err)

	// Outsiders cannot learn that the item exists.
	_, err = env.recovery.Restore(ItemRef{ID: task.ID}, mallory.ID)
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestRecoveryService_ListDeleted(t *testing.T) {
	env := setupServiceTestEnv(t)
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")
	org := env.createOrganization(t, "Acme", alice)
	other := env.createOrganization(t, "Side", alice)
	project := env.createProject(t, org, alice, "Board")
	task := env.createTask(t, project, alice, "First")

	_, err := env.tasks.DeleteTask(task.ID, alice.ID)
	require.NoError(t, err)

	env.clock.Advance(time.Minute)
	_, err = env.projects.DeleteProject(project.ID, alice.ID)
	require.NoError(t, err)

	env.clock.Advance(time.Minute)
	_, err = env.orgs.DeleteOrganization(other.ID, alice.ID)
	require.NoError(t, err)

	items, err := env.recovery.ListDeleted(alice.ID, nil)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, other.ID, items[0].ID)
	assert.Equal(t, models.ItemTypeOrganization, items[0].Type)
	assert.Equal(t, project.ID, items[1].ID)
	assert.Equal(t, task.ID, items[2].ID)
	assert.Equal(t, "First", items[2].Name)

	scoped, err := env.recovery.ListDeleted(alice.ID, &org.ID)
	require.NoError(t, err)
	assert.Len(t, scoped, 2)

	empty, err := env.recovery.ListDeleted(bob.ID, nil)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	// Past the window nothing is listed.
	env.clock.Advance(25 * time.Hour)
	items, err = env.recovery.ListDeleted(alice.ID, nil)
	require.NoError(t, err)
	assert.Empty(t, items)

	_, err = env.recovery.ListDeleted("", nil)
	assert.ErrorIs(t, err, ErrUserIDRequired)
}

func TestRecoveryService_PurgeRemovesRecord(t *testing.T) {
	env := setupServiceTestEnv(t)
	alice := env.createUser(t, "alice")
	org := env.createOrganization(t, "Acme", alice)
	project := env.createProject(t, org, alice, "Board")
	live := env.createTask(t, project, alice, "Live")
	deleted := env.createTask(t, project, alice, "Deleted")

	_, err := env.tasks.DeleteTask(deleted.ID, alice.ID)
	require.NoError(t, err)

	// Purge works regardless of soft-delete state.
	for _, id := range []string{live.ID, deleted.ID} {
		record, err := env.recovery.Purge(ItemRef{ID: id}, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, models.ItemTypeTask, record.Type)

		_, err = env.recovery.Restore(ItemRef{ID: id}, alice.ID)
		assert.ErrorIs(t, err, ErrItemNotFound)
	}

	items, err := env.recovery.ListDeleted(alice.ID, nil)
	require.NoError(t, err)
	assert.Empty(t, items)

	_, err = env.recovery.Purge(ItemRef{ID: live.ID}, alice.ID)
	assert.ErrorIs(t, err, ErrItemNotFound)
}

func TestRecoveryService_PurgePermissions(t *testing.T) {
	env := setupServiceTestEnv(t)
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")
	carol := env.createUser(t, "carol")
	org := env.createOrganization(t, "Acme", alice)
	env.addMember(t, org, bob, models.RoleMember)
	env.addMember(t, org, carol, models.RoleAdmin)
	project := env.createProject(t, org, alice, "Board")
	task := env.createTask(t, project, alice, "Alice's")

	// A plain member can see the task but not purge it.
	_, err := env.recovery.Purge(ItemRef{ID: task.ID}, bob.ID)
	assert.ErrorIs(t, err, ErrPurgeNotPermitted)

	_, err = env.recovery.Purge(ItemRef{Type: models.ItemTypeOrganization, ID: org.ID}, carol.ID)
	assert.ErrorIs(t, err, ErrNotOrganizationOwner)

	_, err = env.recovery.Purge(ItemRef{ID: task.ID}, carol.ID)
	require.NoError(t, err)

	_, err = env.recovery.Purge(ItemRef{Type: models.ItemTypeOrganization, ID: org.ID}, alice.ID)
	require.NoError(t, err)
	assert.Zero(t, env.countUnscoped(t, &models.Project{}, "organization_id = ?", org.ID))
}

func TestRecoveryService_PurgeOrganizationCascade(t *testing.T) {
	env := setupServiceTestEnv(t)
	alice := env.createUser(t, "alice")
	bob := env.createUser(t, "bob")
	org := env.createOrganization(t, "Acme", alice)
	env.addMember(t, org, bob, models.RoleMember)

	withTasks := env.createProject(t, org, alice, "Busy")
	empty := env.createProject(t, org, alice, "Quiet")
	for _, title := range []string{"a", "b", "c"} {
		env.createTask(t, withTasks, alice, title)
	}

	require.ErrorIs(t, env.recovery.PurgeOrganization(org.ID, bob.ID), ErrNotOrganizationOwner)
	require.ErrorIs(t, env.recovery.PurgeOrganization("", alice.ID), ErrOrganizationIDRequired)

	require.NoError(t, env.recovery.PurgeOrganization(org.ID, alice.ID))

	for _, p := range []string{withTasks.ID, empty.ID} {
		tasks, total, err := env.taskRepo.List(repositoryFilterForProject(org.ID, p))
		require.NoError(t, err)
		assert.Zero(t, total)
		assert.Empty(t, tasks)
		assert.Zero(t, env.countUnscoped(t, &models.Task{}, "project_id = ?", p))
		assert.Zero(t, env.countUnscoped(t, &models.Column{}, "project_id = ?", p))
	}
	assert.Zero(t, env.countUnscoped(t, &models.Project{}, "organization_id = ?", org.ID))
	assert.Zero(t, env.countUnscoped(t, &models.OrganizationMember{}, "organization_id = ?", org.ID))
	assert.Zero(t, env.countUnscoped(t, &models.Organization{}, "id = ?", org.ID))

	assert.ErrorIs(t, env.recovery.PurgeOrganization(org.ID, alice.ID), ErrOrganizationNotFound)
}

func TestRecoveryService_PurgeOrganizationSoftDeleted(t *testing.T) {
	env := setupServiceTestEnv(t)
	alice := env.createUser(t, "alice")
	mallory := env.createUser(t, "mallory")
	org := env.createOrganization(t, "Acme", alice)

	_, err := env.orgs.DeleteOrganization(org.ID, alice.ID)
	require.NoError(t, err)

	assert.ErrorIs(t, env.recovery.PurgeOrganization(org.ID, mallory.ID), ErrOrganizationNotFound)
	require.NoError(t, env.recovery.PurgeOrganization(org.ID, alice.ID))
	assert.Zero(t, env.countUnscoped(t, &models.Organization{}, "id = ?", org.ID))
}

func TestRecoveryService_SweepExpired(t *testing.T) {
	env := setupServiceTestEnv(t)
	alice := env.createUser(t, "alice")
	org := env.createOrganization(t, "Acme", alice)
	project := env.createProject(t, org, alice, "Board")
	old := env.createTask(t, project, alice, "Old")
	fresh := env.createTask(t, project, alice, "Fresh")
	env.createTask(t, project, alice, "Live")

	_, err := env.tasks.DeleteTask(old.ID, alice.ID)
	require.NoError(t, err)

	env.clock.Advance(12 * time.Hour)
	_, err = env.tasks.DeleteTask(fresh.ID, alice.ID)
	require.NoError(t, err)

	env.clock.Advance(13 * time.Hour)
	n, err := env.recovery.SweepExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	assert.Zero(t, env.countUnscoped(t, &models.Task{}, "id = ?", old.ID))
	assert.Equal(t, int64(1), env.countUnscoped(t, &models.Task{}, "id = ?", fresh.ID))
	assert.Equal(t, int64(2), env.countUnscoped(t, &models.Task{}, "project_id = ?", project.ID))

	_, err = env.recovery.Restore(ItemRef{ID: fresh.ID}, alice.ID)
	require.NoError(t, err)
}

func TestRecoveryService_SweepProjectTakesDeletedTasks(t *testing.T) {
	env := setupServiceTestEnv(t)
	alice := env.createUser(t, "alice")
	org := env.createOrganization(t, "Acme", alice)
	project := env.createProject(t, org, alice, "Board")
	task := env.createTask(t, project, alice, "Inside")

	env.clock.Advance(time.Hour)
	_, err := env.projects.DeleteProject(project.ID, alice.ID)
	require.NoError(t, err)

	// The task itself was never deleted but goes with its project.
	_, err = env.tasks.GetTask(task.ID)
	require.NoError(t, err)

	env.clock.Advance(48 * time.Hour)
	n, err := env.recovery.SweepExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Zero(t, env.countUnscoped(t, &models.Task{}, "project_id = ?", project.ID))
}

func TestRecoveryService_SweepStopsOnCancel(t *testing.T) {
	env := setupServiceTestEnv(t)
	alice := env.createUser(t, "alice")
	org := env.createOrganization(t, "Acme", alice)
	project := env.createProject(t, org, alice, "Board")
	task := env.createTask(t, project, alice, "Old")

	_, err := env.tasks.DeleteTask(task.ID, alice.ID)
	require.NoError(t, err)
	env.clock.Advance(48 * time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	n, err := env.recovery.SweepExpired(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, n)
	assert.Equal(t, int64(1), env.countUnscoped(t, &models.Task{}, "id = ?", task.ID))
}

func TestParseItemType(t *testing.T) {
	it, err := ParseItemType(" Project ")
	require.NoError(t, err)
	assert.Equal(t, models.ItemTypeProject, it)

	it, err = ParseItemType("")
	require.NoError(t, err)
	assert.Equal(t, models.ItemType(""), it)

	_, err = ParseItemType("column")
	assert.ErrorIs(t, err, ErrInvalidItemType)
}
