package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/onswift/backend/internal/models"
	"github.com/onswift/backend/pkg/crypto"
	apperrors "github.com/onswift/backend/pkg/errors"
	"github.com/onswift/backend/pkg/metrics"
)

const (
	defaultInviteExpiry     = 7 * 24 * time.Hour
	defaultInviteTokenBytes = 32
	defaultInviteBaseURL    = "http://localhost:5173"
)

var (
	// ErrInviteNotFound indicates no invite matches the provided token.
	ErrInviteNotFound = apperrors.New("INVITE_NOT_FOUND", "Invalid invite token", http.StatusNotFound)
	// ErrInviteInvalid indicates the invite exists but is used or expired.
	ErrInviteInvalid = apperrors.New("INVITE_INVALID", "Invite token is no longer valid", http.StatusBadRequest)
)

// InviteOption customises InviteService behaviour.
type InviteOption func(*InviteService)

// WithInviteBaseURL configures the base URL used to create invite hyperlinks.
func WithInviteBaseURL(url string) InviteOption {
	return func(s *InviteService) {
		if trimmed := strings.TrimRight(strings.TrimSpace(url), "/"); trimmed != "" {
			s.baseURL = trimmed
		}
	}
}

// WithInviteExpiry overrides the invite token lifetime.
func WithInviteExpiry(d time.Duration) InviteOption {
	return func(s *InviteService) {
		if d > 0 {
			s.expiry = d
		}
	}
}

// WithInviteClock overrides the time source.
func WithInviteClock(now func() time.Time) InviteOption {
	return func(s *InviteService) {
		if now != nil {
			s.now = now
		}
	}
}

// IssueInviteInput describes an invite a creator wants to hand out.
type IssueInviteInput struct {
	InvitedEmail string
	ExpiresAt    *time.Time
}

// InviteDTO is the creator facing view of an invite.
type InviteDTO struct {
	ID           string     `json:"id"`
	Token        string     `json:"token"`
	InviteURL    string     `json:"invite_url"`
	InvitedEmail *string    `json:"invited_email"`
	IsUsed       bool       `json:"is_used"`
	IsValid      bool       `json:"is_valid"`
	UsedAt       *time.Time `json:"used_at,omitempty"`
	ExpiresAt    time.Time  `json:"expires_at"`
	CreatedAt    time.Time  `json:"created_at"`
}

// InviteValidation is the public view of an invite shown on the signup page.
type InviteValidation struct {
	IsValid        bool      `json:"is_valid"`
	CreatorName    string    `json:"creator_name"`
	CreatorCompany string    `json:"creator_company"`
	IsUsed         bool      `json:"is_used"`
	ExpiresAt      time.Time `json:"expires_at"`
	InvitedEmail   *string   `json:"invited_email"`
}

// InviteService manages creator issued onboarding links.
type InviteService struct {
	db      *gorm.DB
	baseURL string
	expiry  time.Duration
	now     func() time.Time
}

// NewInviteService constructs an InviteService.
func NewInviteService(db *gorm.DB, opts ...InviteOption) (*InviteService, error) {
	if db == nil {
		return nil, errors.New("invite service: db is required")
	}
	svc := &InviteService{
		db:      db,
		baseURL: defaultInviteBaseURL,
		expiry:  defaultInviteExpiry,
		now:     systemClock,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(svc)
		}
	}
	return svc, nil
}

// Issue creates a fresh invite token for the creator.
func (s *InviteService) Issue(ctx context.Context, creator *Creator, input IssueInviteInput) (*InviteDTO, error) {
	ctx = ensureContext(ctx)
	if creator == nil {
		return nil, ErrCreatorRequired
	}

	now := s.now().UTC()
	expiresAt := now.Add(s.expiry)
	if input.ExpiresAt != nil {
		if !input.ExpiresAt.After(now) {
			return nil, apperrors.NewBadRequest("expires_at must be in the future")
		}
		expiresAt = input.ExpiresAt.UTC()
	}

	token, err := crypto.GenerateToken(defaultInviteTokenBytes)
	if err != nil {
		return nil, fmt.Errorf("invite service: generate token: %w", err)
	}

	invite := &models.InviteToken{
		Token:     token,
		CreatorID: creator.ID(),
		ExpiresAt: expiresAt,
	}
	if email := strings.ToLower(strings.TrimSpace(input.InvitedEmail)); email != "" {
		invite.InvitedEmail = &email
	}

	if err := s.db.WithContext(ctx).Create(invite).Error; err != nil {
		return nil, fmt.Errorf("invite service: create invite: %w", err)
	}

	dto := s.mapInvite(invite, now)
	return &dto, nil
}

// ListIssued returns the creator's invites, newest first.
func (s *InviteService) ListIssued(ctx context.Context, creator *Creator) ([]InviteDTO, error) {
	ctx = ensureContext(ctx)
	if creator == nil {
		return nil, ErrCreatorRequired
	}

	var invites []models.InviteToken
	if err := s.db.WithContext(ctx).
		Where("creator_id = ?", creator.ID()).
		Order("created_at DESC").
		Find(&invites).Error; err != nil {
		return nil, fmt.Errorf("invite service: list invites: %w", err)
	}

	now := s.now().UTC()
	result := make([]InviteDTO, 0, len(invites))
	for i := range invites {
		result = append(result, s.mapInvite(&invites[i], now))
	}
	return result, nil
}

// Validate looks up a token without consuming it. Unknown tokens return
// ErrInviteNotFound; known but unusable tokens return the validation together
// with ErrInviteInvalid.
func (s *InviteService) Validate(ctx context.Context, token string) (*InviteValidation, error) {
	ctx = ensureContext(ctx)

	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInviteNotFound
	}

	var invite models.InviteToken
	err := s.db.WithContext(ctx).
		Preload("Creator").
		Preload("Creator.CreatorProfile").
		Where("token = ?", token).
		First(&invite).Error
	if err != nil {
		if isNotFound(err) {
			return nil, ErrInviteNotFound
		}
		return nil, fmt.Errorf("invite service: load invite: %w", err)
	}

	result := &InviteValidation{
		IsValid:      invite.IsValid(s.now().UTC()),
		IsUsed:       invite.IsUsed,
		ExpiresAt:    invite.ExpiresAt,
		InvitedEmail: invite.InvitedEmail,
	}
	if invite.Creator != nil {
		result.CreatorName = invite.Creator.FullName
		if invite.Creator.CreatorProfile != nil {
			result.CreatorCompany = invite.Creator.CreatorProfile.CompanyName
		}
	}

	if !result.IsValid {
		return result, ErrInviteInvalid
	}
	return result, nil
}

// Redeem consumes token for talentID inside tx and attaches the talent to the
// issuing creator's team. A token that is missing, used, expired or lost to a
// concurrent redemption is skipped without error; redeemed reports which
// happened.
func (s *InviteService) Redeem(ctx context.Context, tx *gorm.DB, token, talentID string) (redeemed bool, err error) {
	ctx = ensureContext(ctx)
	if tx == nil {
		tx = s.db
	}
	tx = tx.WithContext(ctx)

	token = strings.TrimSpace(token)
	talentID = strings.TrimSpace(talentID)
	if token == "" || talentID == "" {
		return false, nil
	}

	now := s.now().UTC()
	res := tx.Model(&models.InviteToken{}).
		Where("token = ? AND is_used = ? AND expires_at >= ?", token, false, now).
		Updates(map[string]any{
			"is_used":    true,
			"used_by_id": talentID,
			"used_at":    now,
		})
	if res.Error != nil {
		return false, fmt.Errorf("invite service: consume token: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		metrics.InviteRedemptions.WithLabelValues("skipped").Inc()
		return false, nil
	}

	var invite models.InviteToken
	if err := tx.Where("token = ?", token).First(&invite).Error; err != nil {
		return false, fmt.Errorf("invite service: reload token: %w", err)
	}

	hire := &models.HireRequest{
		CreatorID:   invite.CreatorID,
		TalentID:    talentID,
		Status:      models.HireStatusAccepted,
		RespondedAt: timePtr(now),
	}
	if err := tx.Create(hire).Error; err != nil {
		return false, fmt.Errorf("invite service: create hire request: %w", err)
	}

	metrics.InviteRedemptions.WithLabelValues("redeemed").Inc()
	metrics.HireTransitions.WithLabelValues(models.HireStatusAccepted).Inc()
	return true, nil
}

// InviteURL renders the signup link for token.
func (s *InviteService) InviteURL(token string) string {
	return fmt.Sprintf("%s/signup/talent?invite=%s", s.baseURL, url.QueryEscape(token))
}

func (s *InviteService) mapInvite(invite *models.InviteToken, now time.Time) InviteDTO {
	return InviteDTO{
		ID:           invite.ID,
		Token:        invite.Token,
		InviteURL:    s.InviteURL(invite.Token),
		InvitedEmail: invite.InvitedEmail,
		IsUsed:       invite.IsUsed,
		IsValid:      invite.IsValid(now),
		UsedAt:       invite.UsedAt,
		ExpiresAt:    invite.ExpiresAt,
		CreatedAt:    invite.CreatedAt,
	}
}
