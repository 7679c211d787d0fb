package testutil

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/onswift/backend/internal/api"
	"github.com/onswift/backend/internal/app"
	iauth "github.com/onswift/backend/internal/auth"
	sharedtestutil "github.com/onswift/backend/internal/database/testutil"
	"github.com/onswift/backend/internal/middleware"
	"github.com/onswift/backend/pkg/response"
)

// TestPassword is the password used by Signup.
const TestPassword = "Secret123!"

// Env encapsulates a fully-wired API instance backed by an in-memory database for handler tests.
type Env struct {
	T        *testing.T
	DB       *gorm.DB
	Router   *gin.Engine
	JWT      *iauth.JWTService
	Config   *app.Config
	Services *api.Services
}

type envConfig struct {
	configure  []func(*app.Config)
	serviceOpt api.ServiceOptions
}

// EnvOption customises NewEnv.
type EnvOption func(*envConfig)

// WithConfig mutates the application config before the router is built.
func WithConfig(fn func(*app.Config)) EnvOption {
	return func(cfg *envConfig) {
		cfg.configure = append(cfg.configure, fn)
	}
}

// WithServiceOptions supplies runtime dependencies such as a calendar provider.
func WithServiceOptions(opts api.ServiceOptions) EnvOption {
	return func(cfg *envConfig) {
		cfg.serviceOpt = opts
	}
}

// NewEnv provisions a fresh handler test environment with migrations applied.
func NewEnv(t *testing.T, opts ...EnvOption) *Env {
	t.Helper()

	gin.SetMode(gin.TestMode)

	settings := envConfig{}
	for _, opt := range opts {
		opt(&settings)
	}

	db := sharedtestutil.MustOpenTestDB(t, sharedtestutil.WithAutoMigrate())

	cfg := &app.Config{
		Server: app.ServerConfig{
			CORSOrigins: []string{"http://localhost:5173"},
		},
		Secrets: app.SecretsConfig{
			EncryptionKey: "0123456789abcdef0123456789abcdef",
		},
		Monitoring: app.MonitoringConfig{
			Prometheus: app.PrometheusConfig{Enabled: true, Endpoint: "/metrics"},
		},
		Auth: app.AuthConfig{
			JWT: app.JWTSettings{
				Secret: "test-suite-super-secret-key-32-bytes!!",
				Issuer: "test-suite",
				TTL:    time.Hour,
			},
		},
		Invites: app.InviteConfig{
			BaseURL: "https://app.example.com",
			Expiry:  7 * 24 * time.Hour,
		},
	}
	for _, fn := range settings.configure {
		fn(cfg)
	}

	jwtSvc, err := iauth.NewJWTService(cfg.Auth.JWTServiceConfig())
	require.NoError(t, err)

	svc, err := api.NewServices(db, cfg, settings.serviceOpt)
	require.NoError(t, err)

	router, err := api.NewRouter(db, jwtSvc, cfg, svc, middleware.NewMemoryRateStore())
	require.NoError(t, err)

	return &Env{
		T:        t,
		DB:       db,
		Router:   router,
		JWT:      jwtSvc,
		Config:   cfg,
		Services: svc,
	}
}

// UserPayload captures the subset of user fields returned from auth endpoints.
type UserPayload struct {
	ID             string         `json:"id"`
	Email          string         `json:"email"`
	FullName       string         `json:"full_name"`
	Role           string         `json:"role"`
	AvatarURL      string         `json:"avatar_url"`
	TalentProfile  map[string]any `json:"talent_profile"`
	CreatorProfile map[string]any `json:"creator_profile"`
}

// AuthResult bundles the JSON response from signup and login.
type AuthResult struct {
	Token     string      `json:"token"`
	ExpiresIn int         `json:"expires_in"`
	User      UserPayload `json:"user"`
}

// Signup registers a user with a unique email and returns the issued token.
// Extra fields are merged into the request body.
func (e *Env) Signup(role, fullName string, extra map[string]any) AuthResult {
	e.T.Helper()

	payload := map[string]any{
		"email":     strings.ToLower(strings.ReplaceAll(fullName, " ", ".")) + "." + uuid.NewString()[:8] + "@example.com",
		"full_name": fullName,
		"password":  TestPassword,
		"role":      role,
	}
	for k, v := range extra {
		payload[k] = v
	}

	w := e.Request(http.MethodPost, "/api/auth/signup", payload, "")
	require.Equal(e.T, http.StatusCreated, w.Code, w.Body.String())

	var result AuthResult
	DecodeInto(e.T, DecodeResponse(e.T, w).Data, &result)
	require.NotEmpty(e.T, result.Token)
	require.Equal(e.T, role, result.User.Role)
	return result
}

// Login authenticates with email and password and returns the issued token.
func (e *Env) Login(email, password string) AuthResult {
	e.T.Helper()

	w := e.Request(http.MethodPost, "/api/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, "")
	require.Equal(e.T, http.StatusOK, w.Code, w.Body.String())

	resp := DecodeResponse(e.T, w)
	require.True(e.T, resp.Success, w.Body.String())

	var result AuthResult
	DecodeInto(e.T, resp.Data, &result)
	require.NotEmpty(e.T, result.Token)
	require.Greater(e.T, result.ExpiresIn, 0)
	return result
}

// Hire sends a hire request from creator to talent and accepts it.
func (e *Env) Hire(creator, talent AuthResult) {
	e.T.Helper()

	w := e.Request(http.MethodPost, "/api/hire-requests", map[string]string{
		"talent_id": talent.User.ID,
	}, creator.Token)
	require.Equal(e.T, http.StatusCreated, w.Code, w.Body.String())

	var request struct {
		ID string `json:"id"`
	}
	DecodeInto(e.T, DecodeResponse(e.T, w).Data, &request)

	w = e.Request(http.MethodPatch, "/api/hire-requests/"+request.ID+"/respond", map[string]string{
		"status": "accepted",
	}, talent.Token)
	require.Equal(e.T, http.StatusOK, w.Code, w.Body.String())
}

// APIResponse represents the canonical API envelope returned by handlers.
type APIResponse struct {
	Success bool                `json:"success"`
	Data    json.RawMessage     `json:"data"`
	Error   *response.ErrorInfo `json:"error"`
	Meta    *response.Meta      `json:"meta"`
}

// DecodeResponse parses the standard API response object from a recorder.
func DecodeResponse(t *testing.T, w *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var resp APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return resp
}

// DecodeInto unmarshals the data payload into the provided destination.
func DecodeInto[T any](t *testing.T, raw json.RawMessage, dest *T) {
	t.Helper()
	if dest == nil {
		t.Fatal("destination must not be nil")
	}
	require.NoError(t, json.Unmarshal(raw, dest))
}

// Request executes an HTTP request against the test router, applying JSON encoding and auth headers automatically.
func (e *Env) Request(method, path string, body any, token string) *httptest.ResponseRecorder {
	e.T.Helper()

	var buf *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(e.T, err)
		buf = bytes.NewBuffer(data)
	} else {
		buf = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequest(method, path, buf)
	require.NoError(e.T, err)

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	e.Router.ServeHTTP(w, req)
	return w
}
