package services

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	apperrors "github.com/onswift/backend/pkg/errors"
)

func TestConversationService_StartIsIdempotent(t *testing.T) {
	f := newFixture(t)
	creator := f.creator(t, "Studio One")
	talent := f.talent(t, "Ada Lovelace")

	first, err := f.conversations.Start(f.ctx, creator.ID(), talent.ID())
	require.NoError(t, err)
	require.NotNil(t, first.OtherUser)
	require.Equal(t, talent.ID(), first.OtherUser.ID)

	second, err := f.conversations.Start(f.ctx, talent.ID(), creator.ID())
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
	require.Equal(t, creator.ID(), second.OtherUser.ID)
}

func TestConversationService_StartRejectsBadTargets(t *testing.T) {
	f := newFixture(t)
	creator := f.creator(t, "Studio One")

	_, err := f.conversations.Start(f.ctx, creator.ID(), creator.ID())
	require.True(t, apperrors.IsStatus(err, http.StatusBadRequest))

	_, err = f.conversations.Start(f.ctx, creator.ID(), "")
	require.True(t, apperrors.IsStatus(err, http.StatusBadRequest))

	_, err = f.conversations.Start(f.ctx, creator.ID(), "ghost")
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestConversationService_MessagingAndUnread(t *testing.T) {
	f := newFixture(t)
	creator := f.creator(t, "Studio One")
	talent := f.talent(t, "Ada Lovelace")
	outsider := f.talent(t, "Grace Hopper")

	conversation, err := f.conversations.Start(f.ctx, creator.ID(), talent.ID())
	require.NoError(t, err)

	_, err = f.conversations.Send(f.ctx, creator.ID(), conversation.ID, "  ")
	require.True(t, apperrors.IsStatus(err, http.StatusBadRequest))

	sent, err := f.conversations.Send(f.ctx, creator.ID(), conversation.ID, "Hi Ada")
	require.NoError(t, err)
	require.Equal(t, talent.ID(), sent.RecipientID)
	_, err = f.conversations.Send(f.ctx, creator.ID(), conversation.ID, "Are you free Monday?")
	require.NoError(t, err)
	_, err = f.conversations.Send(f.ctx, talent.ID(), conversation.ID, "Yes")
	require.NoError(t, err)

	messages, err := f.conversations.Messages(f.ctx, talent.ID(), conversation.ID)
	require.NoError(t, err)
	require.Len(t, messages, 3)
	require.Equal(t, "Hi Ada", messages[0].Content)
	require.Equal(t, "Yes", messages[2].Content)

	list, err := f.conversations.List(f.ctx, talent.ID())
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.EqualValues(t, 2, list[0].UnreadCount)
	require.NotNil(t, list[0].LastMessage)
	require.Equal(t, "Yes", list[0].LastMessage.Content)

	changed, err := f.conversations.MarkRead(f.ctx, talent.ID(), conversation.ID)
	require.NoError(t, err)
	require.EqualValues(t, 2, changed)

	list, err = f.conversations.List(f.ctx, talent.ID())
	require.NoError(t, err)
	require.Zero(t, list[0].UnreadCount)

	list, err = f.conversations.List(f.ctx, creator.ID())
	require.NoError(t, err)
	require.EqualValues(t, 1, list[0].UnreadCount, "own messages never count as unread")

	_, err = f.conversations.Messages(f.ctx, outsider.ID(), conversation.ID)
	require.ErrorIs(t, err, ErrConversationNotFound)
	_, err = f.conversations.Send(f.ctx, outsider.ID(), conversation.ID, "hello?")
	require.ErrorIs(t, err, ErrConversationNotFound)
	_, err = f.conversations.MarkRead(f.ctx, outsider.ID(), conversation.ID)
	require.ErrorIs(t, err, ErrConversationNotFound)
}

func TestConversationService_ListOrdersByActivity(t *testing.T) {
	f := newFixture(t)
	creator := f.creator(t, "Studio One")
	ada := f.talent(t, "Ada Lovelace")
	grace := f.talent(t, "Grace Hopper")

	withAda, err := f.conversations.Start(f.ctx, creator.ID(), ada.ID())
	require.NoError(t, err)
	withGrace, err := f.conversations.Start(f.ctx, creator.ID(), grace.ID())
	require.NoError(t, err)

	_, err = f.conversations.Send(f.ctx, creator.ID(), withAda.ID, "ping")
	require.NoError(t, err)

	list, err := f.conversations.List(f.ctx, creator.ID())
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, withAda.ID, list[0].ID)
	require.Equal(t, withGrace.ID, list[1].ID)
}

func TestPairKeyIsOrderIndependent(t *testing.T) {
	require.Equal(t, pairKey("a", "b"), pairKey("b", "a"))
	require.Equal(t, "a:b", pairKey("b", "a"))
}
