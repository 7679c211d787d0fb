package services

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/onswift/backend/internal/models"
)

func TestNotificationService_RequiresDB(t *testing.T) {
	_, err := NewNotificationService(nil)
	require.Error(t, err)
}

func TestNotificationService_NotifyValidates(t *testing.T) {
	f := newFixture(t)

	_, err := f.notifications.Notify(f.ctx, nil, NotifyInput{Title: "x"})
	require.Error(t, err)

	talent := f.talent(t, "Ada Lovelace")
	_, err = f.notifications.Notify(f.ctx, nil, NotifyInput{UserID: talent.ID()})
	require.Error(t, err)

	note, err := f.notifications.Notify(f.ctx, nil, NotifyInput{UserID: talent.ID(), Title: "Hello"})
	require.NoError(t, err)
	require.Equal(t, models.NotificationTypeSystem, note.Type)
}

func TestNotificationService_NotifyRollsBackWithTransaction(t *testing.T) {
	f := newFixture(t)
	talent := f.talent(t, "Ada Lovelace")

	err := f.db.Transaction(func(tx *gorm.DB) error {
		if _, err := f.notifications.Notify(f.ctx, tx, NotifyInput{UserID: talent.ID(), Title: "Pending"}); err != nil {
			return err
		}
		return fmt.Errorf("abort")
	})
	require.Error(t, err)

	count, err := f.notifications.UnreadCount(f.ctx, talent.ID())
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestNotificationService_ListPagingAndFilters(t *testing.T) {
	f := newFixture(t)
	talent := f.talent(t, "Ada Lovelace")
	other := f.talent(t, "Grace Hopper")

	for i := 0; i < 5; i++ {
		_, err := f.notifications.Notify(f.ctx, nil, NotifyInput{UserID: talent.ID(), Title: fmt.Sprintf("note %d", i)})
		require.NoError(t, err)
	}
	_, err := f.notifications.Notify(f.ctx, nil, NotifyInput{UserID: other.ID(), Title: "not yours"})
	require.NoError(t, err)

	all := f.notificationsFor(t, talent.ID())
	require.Len(t, all, 5)
	for _, note := range all {
		require.Equal(t, talent.ID(), note.UserID)
	}
	for i := 1; i < len(all); i++ {
		require.False(t, all[i].CreatedAt.After(all[i-1].CreatedAt), "expected newest first")
	}

	page, err := f.notifications.List(f.ctx, ListNotificationsInput{UserID: talent.ID(), Limit: 2, Offset: 1})
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.Equal(t, all[1].ID, page[0].ID)

	require.NoError(t, f.notifications.MarkRead(f.ctx, talent.ID(), all[0].ID))
	unread, err := f.notifications.List(f.ctx, ListNotificationsInput{UserID: talent.ID(), UnreadOnly: true})
	require.NoError(t, err)
	require.Len(t, unread, 4)
}

func TestNotificationService_MarkReadOwnership(t *testing.T) {
	f := newFixture(t)
	owner := f.talent(t, "Ada Lovelace")
	intruder := f.talent(t, "Grace Hopper")

	note, err := f.notifications.Notify(f.ctx, nil, NotifyInput{UserID: owner.ID(), Title: "Mine"})
	require.NoError(t, err)

	require.ErrorIs(t, f.notifications.MarkRead(f.ctx, intruder.ID(), note.ID), ErrNotificationNotFound)
	require.ErrorIs(t, f.notifications.MarkRead(f.ctx, owner.ID(), "missing"), ErrNotificationNotFound)

	require.NoError(t, f.notifications.MarkRead(f.ctx, owner.ID(), note.ID))
	require.NoError(t, f.notifications.MarkRead(f.ctx, owner.ID(), note.ID), "marking twice is idempotent")

	count, err := f.notifications.UnreadCount(f.ctx, owner.ID())
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestNotificationService_MarkAllRead(t *testing.T) {
	f := newFixture(t)
	talent := f.talent(t, "Ada Lovelace")

	for i := 0; i < 3; i++ {
		_, err := f.notifications.Notify(f.ctx, nil, NotifyInput{UserID: talent.ID(), Title: "n"})
		require.NoError(t, err)
	}

	changed, err := f.notifications.MarkAllRead(f.ctx, talent.ID())
	require.NoError(t, err)
	require.EqualValues(t, 3, changed)

	count, err := f.notifications.UnreadCount(f.ctx, talent.ID())
	require.NoError(t, err)
	require.Zero(t, count)
}
