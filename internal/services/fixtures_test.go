package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/onswift/backend/internal/database/testutil"
	"github.com/onswift/backend/internal/models"
)

const testPassword = "correct-horse"

type fixture struct {
	ctx           context.Context
	db            *gorm.DB
	notifications *NotificationService
	invites       *InviteService
	users         *UserService
	hires         *HireService
	projects      *ProjectService
	tasks         *TaskService
	deliverables  *DeliverableService
	conversations *ConversationService
	groups        *GroupService
}

func newFixture(t *testing.T, inviteOpts ...InviteOption) *fixture {
	t.Helper()

	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	f := &fixture{ctx: context.Background(), db: db}

	var err error
	f.notifications, err = NewNotificationService(db)
	require.NoError(t, err)
	f.invites, err = NewInviteService(db, inviteOpts...)
	require.NoError(t, err)
	f.users, err = NewUserService(db, f.invites)
	require.NoError(t, err)
	f.hires, err = NewHireService(db, f.notifications)
	require.NoError(t, err)
	f.projects, err = NewProjectService(db)
	require.NoError(t, err)
	f.tasks, err = NewTaskService(db, f.notifications)
	require.NoError(t, err)
	f.deliverables, err = NewDeliverableService(db, f.notifications)
	require.NoError(t, err)
	f.conversations, err = NewConversationService(db)
	require.NoError(t, err)
	f.groups, err = NewGroupService(db, f.notifications)
	require.NoError(t, err)

	return f
}

func emailFor(name string) string {
	return strings.ToLower(strings.ReplaceAll(name, " ", ".")) + "@example.com"
}

func (f *fixture) signup(t *testing.T, role, name string) Actor {
	t.Helper()

	user, err := f.users.Signup(f.ctx, SignupInput{
		Email:    emailFor(name),
		FullName: name,
		Password: testPassword,
		Role:     role,
	})
	require.NoError(t, err)

	actor, err := NewActor(user)
	require.NoError(t, err)
	return actor
}

func (f *fixture) creator(t *testing.T, name string) *Creator {
	t.Helper()
	creator, err := AsCreator(f.signup(t, models.RoleCreator, name))
	require.NoError(t, err)
	return creator
}

func (f *fixture) talent(t *testing.T, name string) *Talent {
	t.Helper()
	talent, err := AsTalent(f.signup(t, models.RoleTalent, name))
	require.NoError(t, err)
	return talent
}

// hire runs a full request and acceptance so talent joins creator's team.
func (f *fixture) hire(t *testing.T, creator *Creator, talent *Talent) {
	t.Helper()
	request, err := f.hires.Create(f.ctx, creator, talent.ID(), "join us")
	require.NoError(t, err)
	_, err = f.hires.Respond(f.ctx, talent, request.ID, models.HireStatusAccepted)
	require.NoError(t, err)
}

func (f *fixture) notificationsFor(t *testing.T, userID string) []NotificationDTO {
	t.Helper()
	list, err := f.notifications.List(f.ctx, ListNotificationsInput{UserID: userID})
	require.NoError(t, err)
	return list
}

func strPtr(value string) *string {
	return &value
}
