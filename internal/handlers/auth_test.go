package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/onswift/backend/internal/handlers/testutil"
)

func TestAuthHandler_SignupLoginMe(t *testing.T) {
	env := testutil.NewEnv(t)

	signup := env.Signup("talent", "Tara Quill", map[string]any{
		"talent_profile": map[string]any{
			"professional_title": "Video Editor",
			"skills":             []string{"editing", "color"},
			"hourly_rate":        45,
		},
	})
	require.Equal(t, "Tara Quill", signup.User.FullName)
	require.NotNil(t, signup.User.TalentProfile)
	require.Equal(t, "Video Editor", signup.User.TalentProfile["professional_title"])
	require.Nil(t, signup.User.CreatorProfile)

	login := env.Login(signup.User.Email, testutil.TestPassword)
	require.Equal(t, signup.User.ID, login.User.ID)

	me := env.Request(http.MethodGet, "/api/auth/me", nil, login.Token)
	require.Equal(t, http.StatusOK, me.Code, me.Body.String())
	var meData testutil.UserPayload
	testutil.DecodeInto(t, testutil.DecodeResponse(t, me).Data, &meData)
	require.Equal(t, signup.User.ID, meData.ID)
	require.Equal(t, "talent", meData.Role)

	unauth := env.Request(http.MethodGet, "/api/auth/me", nil, "")
	require.Equal(t, http.StatusUnauthorized, unauth.Code)
	require.Equal(t, "Bearer", unauth.Header().Get("WWW-Authenticate"))
}

func TestAuthHandler_SignupValidation(t *testing.T) {
	env := testutil.NewEnv(t)

	cases := []struct {
		name    string
		payload map[string]any
	}{
		{"short password", map[string]any{"email": "a@example.com", "full_name": "A", "password": "short", "role": "creator"}},
		{"unknown role", map[string]any{"email": "b@example.com", "full_name": "B", "password": "longenough", "role": "admin"}},
		{"bad email", map[string]any{"email": "not-an-email", "full_name": "C", "password": "longenough", "role": "talent"}},
		{"blank name", map[string]any{"email": "d@example.com", "full_name": "   ", "password": "longenough", "role": "talent"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := env.Request(http.MethodPost, "/api/auth/signup", tc.payload, "")
			require.Equal(t, http.StatusBadRequest, resp.Code, resp.Body.String())
			decoded := testutil.DecodeResponse(t, resp)
			require.False(t, decoded.Success)
			require.Equal(t, "BAD_REQUEST", decoded.Error.Code)
		})
	}
}

func TestAuthHandler_DuplicateEmailAndBadPassword(t *testing.T) {
	env := testutil.NewEnv(t)
	creator := env.Signup("creator", "Cora Lens", nil)

	dup := env.Request(http.MethodPost, "/api/auth/signup", map[string]any{
		"email":     creator.User.Email,
		"full_name": "Someone Else",
		"password":  "another-password",
		"role":      "talent",
	}, "")
	require.Equal(t, http.StatusBadRequest, dup.Code, dup.Body.String())
	require.Equal(t, "EMAIL_TAKEN", testutil.DecodeResponse(t, dup).Error.Code)

	bad := env.Request(http.MethodPost, "/api/auth/login", map[string]string{
		"email":    creator.User.Email,
		"password": "wrong-password",
	}, "")
	require.Equal(t, http.StatusUnauthorized, bad.Code)
	require.Equal(t, "INVALID_CREDENTIALS", testutil.DecodeResponse(t, bad).Error.Code)
}

func TestAuthHandler_UpdateProfileIgnoresOtherRole(t *testing.T) {
	env := testutil.NewEnv(t)
	creator := env.Signup("creator", "Cora Lens", map[string]any{
		"creator_profile": map[string]any{"company_name": "Lens Studio"},
	})

	resp := env.Request(http.MethodPatch, "/api/auth/profile", map[string]any{
		"full_name":       "Cora Lens-Hart",
		"creator_profile": map[string]any{"industry": "Film"},
		"talent_profile":  map[string]any{"professional_title": "ignored"},
	}, creator.Token)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var user testutil.UserPayload
	testutil.DecodeInto(t, testutil.DecodeResponse(t, resp).Data, &user)
	require.Equal(t, "Cora Lens-Hart", user.FullName)
	require.Equal(t, "Film", user.CreatorProfile["industry"])
	require.Equal(t, "Lens Studio", user.CreatorProfile["company_name"])
	require.Nil(t, user.TalentProfile)
}

func TestTalentHandler_ListFilters(t *testing.T) {
	env := testutil.NewEnv(t)
	viewer := env.Signup("creator", "Cora Lens", nil)
	env.Signup("talent", "Ed Cutter", map[string]any{
		"talent_profile": map[string]any{"professional_title": "Editor", "skills": []string{"Editing"}},
	})
	env.Signup("talent", "Mo Graph", map[string]any{
		"talent_profile": map[string]any{"professional_title": "Motion Designer", "skills": []string{"animation"}},
	})

	list := func(query string) []testutil.UserPayload {
		t.Helper()
		resp := env.Request(http.MethodGet, "/api/talents"+query, nil, viewer.Token)
		require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
		var users []testutil.UserPayload
		testutil.DecodeInto(t, testutil.DecodeResponse(t, resp).Data, &users)
		return users
	}

	require.Len(t, list(""), 2)

	bySkill := list("?skill=editing")
	require.Len(t, bySkill, 1)
	require.Equal(t, "Ed Cutter", bySkill[0].FullName)

	bySearch := list("?search=motion")
	require.Len(t, bySearch, 1)
	require.Equal(t, "Mo Graph", bySearch[0].FullName)
}
