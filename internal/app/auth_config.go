package app

import (
	"strings"
	"time"

	"github.com/onswift/backend/internal/auth"
	"github.com/onswift/backend/internal/calendar"
)

const defaultInviteExpiry = 7 * 24 * time.Hour

// JWTServiceConfig converts AuthConfig into the parameters expected by the JWT service.
func (c AuthConfig) JWTServiceConfig() auth.JWTConfig {
	ttl := c.JWT.TTL
	if ttl <= 0 {
		ttl = auth.DefaultAccessTokenTTL
	}

	return auth.JWTConfig{
		Secret:         c.JWT.Secret,
		Issuer:         c.JWT.Issuer,
		AccessTokenTTL: ttl,
	}
}

// ExpiryOrDefault returns the invite lifetime, falling back to seven days.
func (c InviteConfig) ExpiryOrDefault() time.Duration {
	if c.Expiry <= 0 {
		return defaultInviteExpiry
	}
	return c.Expiry
}

// Configured reports whether the calendar integration can be used.
func (c CalendarConfig) Configured() bool {
	return c.Enabled && strings.TrimSpace(c.ClientID) != "" && strings.TrimSpace(c.ClientSecret) != ""
}

// GoogleConfig converts CalendarConfig into the provider configuration.
func (c CalendarConfig) GoogleConfig() calendar.GoogleConfig {
	return calendar.GoogleConfig{
		ClientID:     strings.TrimSpace(c.ClientID),
		ClientSecret: strings.TrimSpace(c.ClientSecret),
		RedirectURL:  strings.TrimSpace(c.RedirectURL),
		APIBaseURL:   strings.TrimSpace(c.APIBaseURL),
		Scopes:       c.Scopes,
	}
}
