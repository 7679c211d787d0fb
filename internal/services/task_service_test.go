package services

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/onswift/backend/internal/models"
	apperrors "github.com/onswift/backend/pkg/errors"
)

type recordingObserver struct {
	changed []string
	removed []string
}

func (r *recordingObserver) TaskChanged(_ context.Context, task *models.Task) {
	r.changed = append(r.changed, task.ID)
}

func (r *recordingObserver) TaskRemoved(_ context.Context, taskID string) {
	r.removed = append(r.removed, taskID)
}

func newProject(t *testing.T, f *fixture, creator *Creator) *ProjectDTO {
	t.Helper()
	project, err := f.projects.Create(f.ctx, creator, ProjectInput{Name: "Launch Film"})
	require.NoError(t, err)
	return project
}

func TestTaskService_CreateRequiresTeamMember(t *testing.T) {
	f := newFixture(t)
	creator := f.creator(t, "Studio One")
	stranger := f.talent(t, "Grace Hopper")
	project := newProject(t, f, creator)

	_, err := f.tasks.Create(f.ctx, creator, project.ID, TaskInput{Name: "Edit", AssigneeID: stranger.ID()})
	require.ErrorIs(t, err, ErrAssigneeNotOnTeam)

	// A pending request is not enough.
	_, err = f.hires.Create(f.ctx, creator, stranger.ID(), "")
	require.NoError(t, err)
	_, err = f.tasks.Create(f.ctx, creator, project.ID, TaskInput{Name: "Edit", AssigneeID: stranger.ID()})
	require.ErrorIs(t, err, ErrAssigneeNotOnTeam)

	var count int64
	require.NoError(t, f.db.Model(&models.Task{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestTaskService_CreateValidates(t *testing.T) {
	f := newFixture(t)
	creator := f.creator(t, "Studio One")
	other := f.creator(t, "Studio Two")
	project := newProject(t, f, creator)

	_, err := f.tasks.Create(f.ctx, creator, project.ID, TaskInput{Name: " "})
	require.True(t, apperrors.IsStatus(err, http.StatusBadRequest))
	_, err = f.tasks.Create(f.ctx, creator, project.ID, TaskInput{Name: "Edit", Status: "blocked"})
	require.True(t, apperrors.IsStatus(err, http.StatusBadRequest))
	_, err = f.tasks.Create(f.ctx, other, project.ID, TaskInput{Name: "Edit"})
	require.ErrorIs(t, err, ErrProjectNotFound)
}

func TestTaskService_CreateNotifiesAssignee(t *testing.T) {
	f := newFixture(t)
	creator := f.creator(t, "Studio One")
	talent := f.talent(t, "Ada Lovelace")
	f.hire(t, creator, talent)
	project := newProject(t, f, creator)

	deadline := time.Date(2025, 10, 1, 17, 0, 0, 0, time.UTC)
	task, err := f.tasks.Create(f.ctx, creator, project.ID, TaskInput{
		Name:       "Colour grade",
		AssigneeID: talent.ID(),
		Deadline:   &deadline,
	})
	require.NoError(t, err)
	require.Equal(t, models.TaskStatusPlanning, task.Status)
	require.Equal(t, "Launch Film", task.ProjectName)
	require.NotNil(t, task.Assignee)
	require.Equal(t, "Ada Lovelace", task.Assignee.FullName)

	notes := f.notificationsFor(t, talent.ID())
	require.NotEmpty(t, notes)
	require.Equal(t, "New Task Assigned", notes[0].Title)
	require.Contains(t, notes[0].Message, "Colour grade")
}

func TestTaskService_Visibility(t *testing.T) {
	f := newFixture(t)
	creator := f.creator(t, "Studio One")
	otherCreator := f.creator(t, "Studio Two")
	assignee := f.talent(t, "Ada Lovelace")
	bystander := f.talent(t, "Grace Hopper")
	f.hire(t, creator, assignee)
	f.hire(t, creator, bystander)
	project := newProject(t, f, creator)

	task, err := f.tasks.Create(f.ctx, creator, project.ID, TaskInput{Name: "Edit", AssigneeID: assignee.ID()})
	require.NoError(t, err)

	_, err = f.tasks.Get(f.ctx, creator, task.ID)
	require.NoError(t, err)
	_, err = f.tasks.Get(f.ctx, assignee, task.ID)
	require.NoError(t, err)

	_, err = f.tasks.Get(f.ctx, bystander, task.ID)
	require.ErrorIs(t, err, ErrTaskNotFound)
	_, err = f.tasks.Get(f.ctx, otherCreator, task.ID)
	require.ErrorIs(t, err, ErrTaskNotFound)

	assigned, err := f.tasks.ListAssigned(f.ctx, assignee)
	require.NoError(t, err)
	require.Len(t, assigned, 1)
	assigned, err = f.tasks.ListAssigned(f.ctx, bystander)
	require.NoError(t, err)
	require.Empty(t, assigned)

	list, err := f.tasks.ListForProject(f.ctx, otherCreator, project.ID)
	require.ErrorIs(t, err, ErrProjectNotFound)
	require.Nil(t, list)
}

func TestTaskService_UpdateReassignsAndNotifiesObserver(t *testing.T) {
	f := newFixture(t)
	observer := &recordingObserver{}
	f.tasks.SetObserver(observer)

	creator := f.creator(t, "Studio One")
	ada := f.talent(t, "Ada Lovelace")
	grace := f.talent(t, "Grace Hopper")
	f.hire(t, creator, ada)
	f.hire(t, creator, grace)
	project := newProject(t, f, creator)

	task, err := f.tasks.Create(f.ctx, creator, project.ID, TaskInput{Name: "Edit", AssigneeID: ada.ID()})
	require.NoError(t, err)
	require.Empty(t, observer.changed)

	before := len(f.notificationsFor(t, grace.ID()))
	updated, err := f.tasks.Update(f.ctx, creator, task.ID, UpdateTaskInput{
		AssigneeID: strPtr(grace.ID()),
		Status:     strPtr(models.TaskStatusInProgress),
	})
	require.NoError(t, err)
	require.Equal(t, grace.ID(), *updated.AssigneeID)
	require.Equal(t, models.TaskStatusInProgress, updated.Status)
	require.Len(t, f.notificationsFor(t, grace.ID()), before+1)
	require.Equal(t, []string{task.ID}, observer.changed)

	updated, err = f.tasks.Update(f.ctx, creator, task.ID, UpdateTaskInput{UnassignTask: true})
	require.NoError(t, err)
	require.Nil(t, updated.AssigneeID)

	stranger := f.talent(t, "Alan Turing")
	_, err = f.tasks.Update(f.ctx, creator, task.ID, UpdateTaskInput{AssigneeID: strPtr(stranger.ID())})
	require.ErrorIs(t, err, ErrAssigneeNotOnTeam)
	require.Len(t, observer.changed, 2, "failed updates are not observed")
}

func TestTaskService_Delete(t *testing.T) {
	f := newFixture(t)
	observer := &recordingObserver{}
	f.tasks.SetObserver(observer)

	creator := f.creator(t, "Studio One")
	other := f.creator(t, "Studio Two")
	project := newProject(t, f, creator)

	task, err := f.tasks.Create(f.ctx, creator, project.ID, TaskInput{Name: "Edit"})
	require.NoError(t, err)

	require.ErrorIs(t, f.tasks.Delete(f.ctx, other, task.ID), ErrTaskNotFound)
	require.Empty(t, observer.removed)

	require.NoError(t, f.tasks.Delete(f.ctx, creator, task.ID))
	require.Equal(t, []string{task.ID}, observer.removed)

	_, err = f.tasks.Get(f.ctx, creator, task.ID)
	require.ErrorIs(t, err, ErrTaskNotFound)
}
