package app

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/onswift/backend/internal/auth"
)

func TestLoadConfigFromFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join("testdata"))
	require.NoError(t, err)

	require.Equal(t, 9090, cfg.Server.Port)
	require.Equal(t, "debug", cfg.Server.LogLevel)
	require.Equal(t, []string{"https://app.onswift.example"}, cfg.Server.CORSOrigins)
	require.True(t, cfg.Server.RateLimit.Enabled)
	require.Equal(t, 50, cfg.Server.RateLimit.Requests)
	require.Equal(t, 30*time.Second, cfg.Server.RateLimit.Window)

	require.Equal(t, "postgres", cfg.Database.Driver)
	require.Equal(t, "db.example.com", cfg.Database.Postgres.Host)
	require.Equal(t, 5433, cfg.Database.Postgres.Port)
	require.Equal(t, "require", cfg.Database.Postgres.Options["sslmode"])

	require.Equal(t, "0123456789abcdef0123456789abcdef", cfg.Secrets.EncryptionKey)

	require.Equal(t, "jwt-secret", cfg.Auth.JWT.Secret)
	require.Equal(t, "onswift", cfg.Auth.JWT.Issuer)
	require.Equal(t, 12*time.Hour, cfg.Auth.JWT.TTL)

	require.Equal(t, "https://app.onswift.example", cfg.Invites.BaseURL)
	require.Equal(t, 72*time.Hour, cfg.Invites.Expiry)

	require.True(t, cfg.Calendar.Enabled)
	require.True(t, cfg.Calendar.Configured())
	require.Equal(t, "https://www.googleapis.com/calendar/v3", cfg.Calendar.APIBaseURL)
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, 8000, cfg.Server.Port)
	require.Equal(t, "sqlite", cfg.Database.Driver)
	require.Equal(t, 24*time.Hour, cfg.Auth.JWT.TTL)
	require.Equal(t, 7*24*time.Hour, cfg.Invites.ExpiryOrDefault())
	require.False(t, cfg.Calendar.Configured())
	require.True(t, cfg.Monitoring.Prometheus.Enabled)
	require.Equal(t, "/metrics", cfg.Monitoring.Prometheus.Endpoint)
}

func TestLoadConfigEnvOverride(t *testing.T) {
	t.Setenv("ONSWIFT_SERVER_PORT", "7070")
	t.Setenv("ONSWIFT_INVITES_BASE_URL", "https://invite.example")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	require.Equal(t, 7070, cfg.Server.Port)
	require.Equal(t, "https://invite.example", cfg.Invites.BaseURL)
}

func TestAuthConfigAdapters(t *testing.T) {
	cfg := AuthConfig{
		JWT: JWTSettings{
			Secret: "secret",
			Issuer: "issuer",
			TTL:    30 * time.Minute,
		},
	}

	require.Equal(t, auth.JWTConfig{
		Secret:         "secret",
		Issuer:         "issuer",
		AccessTokenTTL: 30 * time.Minute,
	}, cfg.JWTServiceConfig())

	var empty AuthConfig
	require.Equal(t, auth.DefaultAccessTokenTTL, empty.JWTServiceConfig().AccessTokenTTL)
}

func TestCalendarConfigAdapter(t *testing.T) {
	cfg := CalendarConfig{
		Enabled:      true,
		ClientID:     " id ",
		ClientSecret: "secret",
		RedirectURL:  "https://app/cb",
		Scopes:       []string{"scope-a"},
	}

	google := cfg.GoogleConfig()
	require.Equal(t, "id", google.ClientID)
	require.Equal(t, "secret", google.ClientSecret)
	require.Equal(t, "https://app/cb", google.RedirectURL)
	require.Equal(t, []string{"scope-a"}, google.Scopes)

	cfg.ClientSecret = ""
	require.False(t, cfg.Configured())
}
