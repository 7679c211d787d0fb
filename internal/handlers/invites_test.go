package handlers_test

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/onswift/backend/internal/handlers/testutil"
)

type invitePayload struct {
	Token        string  `json:"token"`
	InviteURL    string  `json:"invite_url"`
	InvitedEmail *string `json:"invited_email"`
	IsValid      bool    `json:"is_valid"`
	IsUsed       bool    `json:"is_used"`
}

type inviteValidationPayload struct {
	IsValid        bool   `json:"is_valid"`
	IsUsed         bool   `json:"is_used"`
	CreatorName    string `json:"creator_name"`
	CreatorCompany string `json:"creator_company"`
}

func TestInviteHandler_GenerateRequiresCreator(t *testing.T) {
	env := testutil.NewEnv(t)
	talent := env.Signup("talent", "Tara Quill", nil)

	resp := env.Request(http.MethodPost, "/api/invites/generate", nil, talent.Token)
	require.Equal(t, http.StatusForbidden, resp.Code, resp.Body.String())
	require.Equal(t, "CREATOR_REQUIRED", testutil.DecodeResponse(t, resp).Error.Code)
}

func TestInviteHandler_LifecycleThroughSignup(t *testing.T) {
	env := testutil.NewEnv(t)
	creator := env.Signup("creator", "Cora Lens", map[string]any{
		"creator_profile": map[string]any{"company_name": "Lens Studio"},
	})

	gen := env.Request(http.MethodPost, "/api/invites/generate", map[string]any{
		"invited_email": "newbie@example.com",
	}, creator.Token)
	require.Equal(t, http.StatusCreated, gen.Code, gen.Body.String())
	var invite invitePayload
	testutil.DecodeInto(t, testutil.DecodeResponse(t, gen).Data, &invite)
	require.NotEmpty(t, invite.Token)
	require.True(t, strings.HasPrefix(invite.InviteURL, "https://app.example.com/signup/talent?invite="), invite.InviteURL)
	require.NotNil(t, invite.InvitedEmail)
	require.Equal(t, "newbie@example.com", *invite.InvitedEmail)

	// Validation is public.
	valid := env.Request(http.MethodGet, "/api/invites/validate/"+invite.Token, nil, "")
	require.Equal(t, http.StatusOK, valid.Code, valid.Body.String())
	var check inviteValidationPayload
	testutil.DecodeInto(t, testutil.DecodeResponse(t, valid).Data, &check)
	require.True(t, check.IsValid)
	require.Equal(t, "Cora Lens", check.CreatorName)
	require.Equal(t, "Lens Studio", check.CreatorCompany)

	talent := env.Signup("talent", "Newbie Talent", map[string]any{"invite_token": invite.Token})

	team := env.Request(http.MethodGet, "/api/team", nil, creator.Token)
	require.Equal(t, http.StatusOK, team.Code, team.Body.String())
	var members []struct {
		ID string `json:"id"`
	}
	testutil.DecodeInto(t, testutil.DecodeResponse(t, team).Data, &members)
	require.Len(t, members, 1)
	require.Equal(t, talent.User.ID, members[0].ID)

	used := env.Request(http.MethodGet, "/api/invites/validate/"+invite.Token, nil, "")
	require.Equal(t, http.StatusBadRequest, used.Code, used.Body.String())
	usedResp := testutil.DecodeResponse(t, used)
	require.False(t, usedResp.Success)
	require.Equal(t, "INVITE_INVALID", usedResp.Error.Code)
	testutil.DecodeInto(t, usedResp.Data, &check)
	require.False(t, check.IsValid)
	require.True(t, check.IsUsed)

	list := env.Request(http.MethodGet, "/api/invites", nil, creator.Token)
	require.Equal(t, http.StatusOK, list.Code, list.Body.String())
	var issued []invitePayload
	testutil.DecodeInto(t, testutil.DecodeResponse(t, list).Data, &issued)
	require.Len(t, issued, 1)
	require.True(t, issued[0].IsUsed)
}

func TestInviteHandler_ValidateUnknownToken(t *testing.T) {
	env := testutil.NewEnv(t)

	resp := env.Request(http.MethodGet, "/api/invites/validate/does-not-exist", nil, "")
	require.Equal(t, http.StatusNotFound, resp.Code, resp.Body.String())
	require.Equal(t, "INVITE_NOT_FOUND", testutil.DecodeResponse(t, resp).Error.Code)
}
