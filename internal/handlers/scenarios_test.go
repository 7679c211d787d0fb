package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/onswift/backend/internal/handlers/testutil"
)

func TestScenario_InviteOnboardsTalentOntoTeam(t *testing.T) {
	env := testutil.NewEnv(t)
	alice := env.Signup("creator", "alice", nil)

	gen := env.Request(http.MethodPost, "/api/invites/generate", nil, alice.Token)
	require.Equal(t, http.StatusCreated, gen.Code, gen.Body.String())
	var invite invitePayload
	testutil.DecodeInto(t, testutil.DecodeResponse(t, gen).Data, &invite)

	bob := env.Signup("talent", "bob", map[string]any{"invite_token": invite.Token})

	team := env.Request(http.MethodGet, "/api/team", nil, alice.Token)
	var members []struct {
		Name string `json:"name"`
	}
	testutil.DecodeInto(t, testutil.DecodeResponse(t, team).Data, &members)
	require.Len(t, members, 1)
	require.Equal(t, "bob", members[0].Name)

	received := env.Request(http.MethodGet, "/api/hire-requests/received", nil, bob.Token)
	var pending []hirePayload
	testutil.DecodeInto(t, testutil.DecodeResponse(t, received).Data, &pending)
	require.Empty(t, pending)
}

func TestScenario_RejectedHireRequestNotifiesCreator(t *testing.T) {
	env := testutil.NewEnv(t)
	creator := env.Signup("creator", "Cora Lens", nil)
	talent := env.Signup("talent", "Tara Quill", nil)

	create := env.Request(http.MethodPost, "/api/hire-requests", map[string]string{
		"talent_id": talent.User.ID,
		"message":   "Join us",
	}, creator.Token)
	require.Equal(t, http.StatusCreated, create.Code, create.Body.String())

	received := env.Request(http.MethodGet, "/api/hire-requests/received", nil, talent.Token)
	var pending []hirePayload
	testutil.DecodeInto(t, testutil.DecodeResponse(t, received).Data, &pending)
	require.Len(t, pending, 1)

	reject := env.Request(http.MethodPatch, "/api/hire-requests/"+pending[0].ID+"/respond", map[string]string{"status": "rejected"}, talent.Token)
	require.Equal(t, http.StatusOK, reject.Code, reject.Body.String())

	// A second response finds nothing pending and leaves the first answer in place.
	again := env.Request(http.MethodPatch, "/api/hire-requests/"+pending[0].ID+"/respond", map[string]string{"status": "accepted"}, talent.Token)
	require.Equal(t, http.StatusNotFound, again.Code)

	feed := env.Request(http.MethodGet, "/api/notifications", nil, creator.Token)
	var notes []struct {
		Type    string `json:"notification_type"`
		Message string `json:"message"`
	}
	testutil.DecodeInto(t, testutil.DecodeResponse(t, feed).Data, &notes)
	require.Len(t, notes, 1)
	require.Equal(t, "hire", notes[0].Type)
	require.Contains(t, notes[0].Message, "rejected")

	sent := env.Request(http.MethodGet, "/api/hire-requests/sent", nil, creator.Token)
	var outgoing []hirePayload
	testutil.DecodeInto(t, testutil.DecodeResponse(t, sent).Data, &outgoing)
	require.Len(t, outgoing, 1)
	require.Equal(t, "rejected", outgoing[0].Status)
}
