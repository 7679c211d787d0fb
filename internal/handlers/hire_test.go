package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/onswift/backend/internal/handlers/testutil"
)

type hirePayload struct {
	ID       string `json:"id"`
	TalentID string `json:"talent_id"`
	Status   string `json:"status"`
}

type notificationPayload struct {
	ID     string `json:"id"`
	Type   string `json:"notification_type"`
	IsRead bool   `json:"is_read"`
}

func TestHireHandler_RequestAndAccept(t *testing.T) {
	env := testutil.NewEnv(t)
	creator := env.Signup("creator", "Cora Lens", nil)
	talent := env.Signup("talent", "Tara Quill", nil)

	create := env.Request(http.MethodPost, "/api/hire-requests", map[string]string{
		"talent_id": talent.User.ID,
		"message":   "Join my channel",
	}, creator.Token)
	require.Equal(t, http.StatusCreated, create.Code, create.Body.String())
	var request hirePayload
	testutil.DecodeInto(t, testutil.DecodeResponse(t, create).Data, &request)
	require.Equal(t, "pending", request.Status)

	dup := env.Request(http.MethodPost, "/api/hire-requests", map[string]string{
		"talent_id": talent.User.ID,
	}, creator.Token)
	require.Equal(t, http.StatusConflict, dup.Code, dup.Body.String())

	received := env.Request(http.MethodGet, "/api/hire-requests/received", nil, talent.Token)
	require.Equal(t, http.StatusOK, received.Code, received.Body.String())
	var pending []hirePayload
	testutil.DecodeInto(t, testutil.DecodeResponse(t, received).Data, &pending)
	require.Len(t, pending, 1)
	require.Equal(t, request.ID, pending[0].ID)

	count := env.Request(http.MethodGet, "/api/notifications/unread-count", nil, talent.Token)
	require.Equal(t, http.StatusOK, count.Code)
	var unread struct {
		Count int64 `json:"count"`
	}
	testutil.DecodeInto(t, testutil.DecodeResponse(t, count).Data, &unread)
	require.EqualValues(t, 1, unread.Count)

	bad := env.Request(http.MethodPatch, "/api/hire-requests/"+request.ID+"/respond", map[string]string{
		"status": "maybe",
	}, talent.Token)
	require.Equal(t, http.StatusBadRequest, bad.Code)

	respond := env.Request(http.MethodPatch, "/api/hire-requests/"+request.ID+"/respond", map[string]string{
		"status": "accepted",
	}, talent.Token)
	require.Equal(t, http.StatusOK, respond.Code, respond.Body.String())
	testutil.DecodeInto(t, testutil.DecodeResponse(t, respond).Data, &request)
	require.Equal(t, "accepted", request.Status)

	sent := env.Request(http.MethodGet, "/api/hire-requests/sent", nil, creator.Token)
	require.Equal(t, http.StatusOK, sent.Code)
	var outgoing []hirePayload
	testutil.DecodeInto(t, testutil.DecodeResponse(t, sent).Data, &outgoing)
	require.Len(t, outgoing, 1)
	require.Equal(t, "accepted", outgoing[0].Status)

	engagements := env.Request(http.MethodGet, "/api/engagements", nil, talent.Token)
	require.Equal(t, http.StatusOK, engagements.Code)
	var creators []struct {
		ID string `json:"id"`
	}
	testutil.DecodeInto(t, testutil.DecodeResponse(t, engagements).Data, &creators)
	require.Len(t, creators, 1)
	require.Equal(t, creator.User.ID, creators[0].ID)

	// The creator hears back about the acceptance.
	feed := env.Request(http.MethodGet, "/api/notifications?unread_only=true", nil, creator.Token)
	require.Equal(t, http.StatusOK, feed.Code)
	var notes []notificationPayload
	testutil.DecodeInto(t, testutil.DecodeResponse(t, feed).Data, &notes)
	require.Len(t, notes, 1)
	require.Equal(t, "hire", notes[0].Type)
}

func TestHireHandler_RoleChecks(t *testing.T) {
	env := testutil.NewEnv(t)
	creator := env.Signup("creator", "Cora Lens", nil)
	talent := env.Signup("talent", "Tara Quill", nil)

	byTalent := env.Request(http.MethodPost, "/api/hire-requests", map[string]string{
		"talent_id": creator.User.ID,
	}, talent.Token)
	require.Equal(t, http.StatusForbidden, byTalent.Code)

	toCreator := env.Request(http.MethodPost, "/api/hire-requests", map[string]string{
		"talent_id": creator.User.ID,
	}, creator.Token)
	require.Equal(t, http.StatusBadRequest, toCreator.Code)

	received := env.Request(http.MethodGet, "/api/hire-requests/received", nil, creator.Token)
	require.Equal(t, http.StatusForbidden, received.Code)
	require.Equal(t, "TALENT_REQUIRED", testutil.DecodeResponse(t, received).Error.Code)

	team := env.Request(http.MethodGet, "/api/team", nil, talent.Token)
	require.Equal(t, http.StatusForbidden, team.Code)
}

func TestNotificationHandler_MarkRead(t *testing.T) {
	env := testutil.NewEnv(t)
	creator := env.Signup("creator", "Cora Lens", nil)
	talent := env.Signup("talent", "Tara Quill", nil)
	other := env.Signup("talent", "Otto Other", nil)

	env.Request(http.MethodPost, "/api/hire-requests", map[string]string{"talent_id": talent.User.ID}, creator.Token)

	feed := env.Request(http.MethodGet, "/api/notifications", nil, talent.Token)
	var notes []notificationPayload
	testutil.DecodeInto(t, testutil.DecodeResponse(t, feed).Data, &notes)
	require.Len(t, notes, 1)
	require.False(t, notes[0].IsRead)

	foreign := env.Request(http.MethodPatch, "/api/notifications/"+notes[0].ID+"/read", nil, other.Token)
	require.Equal(t, http.StatusNotFound, foreign.Code)

	mark := env.Request(http.MethodPatch, "/api/notifications/"+notes[0].ID+"/read", nil, talent.Token)
	require.Equal(t, http.StatusOK, mark.Code, mark.Body.String())

	unreadOnly := env.Request(http.MethodGet, "/api/notifications?unread_only=true", nil, talent.Token)
	testutil.DecodeInto(t, testutil.DecodeResponse(t, unreadOnly).Data, &notes)
	require.Empty(t, notes)

	all := env.Request(http.MethodPost, "/api/notifications/read-all", nil, talent.Token)
	require.Equal(t, http.StatusOK, all.Code)
	var updated struct {
		Updated int64 `json:"updated"`
	}
	testutil.DecodeInto(t, testutil.DecodeResponse(t, all).Data, &updated)
	require.Zero(t, updated.Updated)
}
