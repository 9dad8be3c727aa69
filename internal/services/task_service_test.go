package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/taskflow-ai/taskflow-api/internal/models"
)

type TaskServiceTestSuite struct {
	suite.Suite
	env     *serviceTestEnv
	alice   *models.User
	bob     *models.User
	org     *models.Organization
	project *models.Project
}

func (s *TaskServiceTestSuite) SetupTest() {
	t := s.T()
	s.env = setupServiceTestEnv(t)
	s.alice = s.env.createUser(t, "alice")
	s.bob = s.env.createUser(t, "bob")
	s.org = s.env.createOrganization(t, "Acme", s.alice)
	s.env.addMember(t, s.org, s.bob, models.RoleMember)
	s.project = s.env.createProject(t, s.org, s.alice, "Board")
}

func TestTaskServiceTestSuite(t *testing.T) {
	suite.Run(t, new(TaskServiceTestSuite))
}

func (s *TaskServiceTestSuite) TestCreateTaskDefaults() {
	task := s.env.createTask(s.T(), s.project, s.alice, "  Write docs  ")

	s.Equal("Write docs", task.Title)
	s.Equal(models.TaskStatusTodo, task.Status)
	s.Equal(models.TaskPriorityMedium, task.Priority)
	s.Equal(s.org.ID, task.OrganizationID)
	s.Require().Len(task.Assignments, 1)
	s.Equal(s.alice.ID, task.Assignments[0].UserID)
}

func (s *TaskServiceTestSuite) TestCreateTaskValidation() {
	_, err := s.env.tasks.CreateTask(CreateTaskInput{ProjectID: s.project.ID, CreatorID: s.alice.ID})
	s.ErrorIs(err, ErrTitleRequired)

	_, err = s.env.tasks.CreateTask(CreateTaskInput{Title: "x", CreatorID: s.alice.ID})
	s.ErrorIs(err, ErrProjectRequired)

	_, err = s.env.tasks.CreateTask(CreateTaskInput{Title: "x", ProjectID: s.project.ID, Priority: "URGENT", CreatorID: s.alice.ID})
	s.ErrorIs(err, ErrInvalidTaskPriority)

	stranger := s.env.createUser(s.T(), "stranger")
	_, err = s.env.tasks.CreateTask(CreateTaskInput{Title: "x", ProjectID: s.project.ID, CreatorID: stranger.ID})
	s.ErrorIs(err, ErrNotOrganizationMember)

	other := s.env.createProject(s.T(), s.org, s.alice, "Other")
	otherProject, err := s.env.projects.GetProject(other.ID)
	s.Require().NoError(err)
	_, err = s.env.tasks.CreateTask(CreateTaskInput{Title: "x", ProjectID: s.project.ID, ColumnID: &otherProject.Columns[0].ID, CreatorID: s.alice.ID})
	s.ErrorIs(err, ErrColumnNotInProject)
}

func (s *TaskServiceTestSuite) TestDeletePermissions() {
	task := s.env.createTask(s.T(), s.project, s.alice, "Alice's")

	_, err := s.env.tasks.DeleteTask(task.ID, s.bob.ID)
	s.ErrorIs(err, ErrTaskPermissionDenied)

	_, err = s.env.tasks.DeleteTask(task.ID, s.alice.ID)
	s.NoError(err)

	_, err = s.env.tasks.DeleteTask(task.ID, s.alice.ID)
	s.ErrorIs(err, ErrTaskNotFound)
}

func (s *TaskServiceTestSuite) TestToggleStatus() {
	task := s.env.createTask(s.T(), s.project, s.alice, "Toggle me")

	toggled, err := s.env.tasks.ToggleTaskStatus(task.ID, s.alice.ID)
	s.Require().NoError(err)
	s.Equal(models.TaskStatusDone, toggled.Status)

	_, err = s.env.tasks.ToggleTaskStatus(task.ID, s.bob.ID)
	s.ErrorIs(err, ErrTaskPermissionDenied)

	s.Require().NoError(s.env.tasks.AssignUsers(AssignUsersInput{TaskID: task.ID, ActorID: s.alice.ID, UserIDs: []string{s.bob.ID, s.bob.ID}}))

	toggled, err = s.env.tasks.ToggleTaskStatus(task.ID, s.bob.ID)
	s.Require().NoError(err)
	s.Equal(models.TaskStatusTodo, toggled.Status)
}

func (s *TaskServiceTestSuite) TestListTasksFilters() {
	s.env.createTask(s.T(), s.project, s.alice, "One")
	second := s.env.createTask(s.T(), s.project, s.alice, "Two")
	other := s.env.createProject(s.T(), s.org, s.alice, "Other")
	s.env.createTask(s.T(), other, s.alice, "Three")

	done := models.TaskStatusDone
	_, err := s.env.tasks.UpdateTask(second.ID, UpdateTaskInput{Status: &done})
	s.Require().NoError(err)

	tasks, total, err := s.env.tasks.ListTasks(ListTasksInput{UserID: s.alice.ID, ProjectID: &s.project.ID, Page: 1, PageSize: 20})
	s.Require().NoError(err)
	s.Equal(int64(2), total)
	s.Len(tasks, 2)

	tasks, total, err = s.env.tasks.ListTasks(ListTasksInput{UserID: s.alice.ID, Status: &done, Page: 1, PageSize: 20})
	s.Require().NoError(err)
	s.Equal(int64(1), total)
	s.Equal(second.ID, tasks[0].ID)

	_, _, err = s.env.tasks.ListTasks(ListTasksInput{UserID: s.env.createUser(s.T(), "x").ID, OrganizationID: &s.org.ID})
	s.ErrorIs(err, ErrNotOrganizationMember)
}

func (s *TaskServiceTestSuite) TestBulkUpdate() {
	a := s.env.createTask(s.T(), s.project, s.alice, "A")
	b := s.env.createTask(s.T(), s.project, s.bob, "B")

	result, err := s.env.tasks.BulkUpdate(BulkTaskInput{
		ActorID: s.bob.ID,
		TaskIDs: []string{a.ID, b.ID, "missing"},
		Action:  BulkActionSetStatus,
		Status:  models.TaskStatusInProgress,
	})
	s.Require().NoError(err)
	s.Equal(2, result.Affected)
	s.Equal([]string{"missing"}, result.Skipped)

	project, err := s.env.projects.GetProject(s.project.ID)
	s.Require().NoError(err)
	done := project.Columns[2]

	result, err = s.env.tasks.BulkUpdate(BulkTaskInput{ActorID: s.alice.ID, TaskIDs: []string{a.ID, b.ID}, Action: BulkActionMove, ColumnID: done.ID})
	s.Require().NoError(err)
	s.Equal(2, result.Affected)

	moved, err := s.env.tasks.GetTask(a.ID)
	s.Require().NoError(err)
	s.Require().NotNil(moved.ColumnID)
	s.Equal(done.ID, *moved.ColumnID)
	s.Equal(models.TaskStatusInProgress, moved.Status)

	// Bob is a plain member: he can delete his own task only.
	result, err = s.env.tasks.BulkUpdate(BulkTaskInput{ActorID: s.bob.ID, TaskIDs: []string{a.ID, b.ID}, Action: BulkActionDelete})
	s.Require().NoError(err)
	s.Equal(1, result.Affected)
	s.Equal([]string{a.ID}, result.Skipped)

	items, err := s.env.recovery.ListDeleted(s.bob.ID, nil)
	s.Require().NoError(err)
	s.Require().Len(items, 1)
	s.Equal(b.ID, items[0].ID)
}

func (s *TaskServiceTestSuite) TestBulkUpdateValidation() {
	_, err := s.env.tasks.BulkUpdate(BulkTaskInput{ActorID: s.alice.ID, Action: BulkActionDelete})
	s.ErrorIs(err, ErrNoTaskIDsProvided)

	_, err = s.env.tasks.BulkUpdate(BulkTaskInput{ActorID: s.alice.ID, TaskIDs: []string{"a"}, Action: "archive"})
	s.ErrorIs(err, ErrInvalidBulkAction)

	_, err = s.env.tasks.BulkUpdate(BulkTaskInput{ActorID: s.alice.ID, TaskIDs: []string{"a"}, Action: BulkActionSetStatus, Status: "LATER"})
	s.ErrorIs(err, ErrInvalidTaskStatus)

	ids := make([]string, 101)
	for i := range ids {
		ids[i] = string(rune('a'+i%26)) + string(rune('a'+i/26))
	}
	_, err = s.env.tasks.BulkUpdate(BulkTaskInput{ActorID: s.alice.ID, TaskIDs: ids, Action: BulkActionDelete})
	s.ErrorIs(err, ErrTooManyTaskIDs)
}

func TestUniqueStrings(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, uniqueStrings([]string{"a", "", "b", "a"}))
	require.Empty(t, uniqueStrings(nil))
}
