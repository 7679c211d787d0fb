package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/onswift/backend/internal/models"
	"github.com/onswift/backend/pkg/crypto"
	apperrors "github.com/onswift/backend/pkg/errors"
	"github.com/onswift/backend/pkg/metrics"
)

// MinPasswordLength is the shortest password accepted at signup.
const MinPasswordLength = 8

// ErrUserNotFound indicates the requested user does not exist.
var ErrUserNotFound = apperrors.New("USER_NOT_FOUND", "User not found", http.StatusNotFound)

// TalentProfileInput carries talent profile fields. Nil fields are left unchanged.
type TalentProfileInput struct {
	ProfessionalTitle *string
	Bio               *string
	Skills            []string
	PrimarySkill      *string
	HourlyRate        *float64
	PortfolioLinks    []string
	Availability      *string
}

// CreatorProfileInput carries creator profile fields. Nil fields are left unchanged.
type CreatorProfileInput struct {
	CompanyName *string
	Bio         *string
	Website     *string
	Industry    *string
	Location    *string
	SocialLinks map[string]any
}

// SignupInput describes a new account.
type SignupInput struct {
	Email       string
	FullName    string
	Password    string
	Role        string
	InviteToken string
	Talent      *TalentProfileInput
	Creator     *CreatorProfileInput
}

// UpdateProfileInput enumerates mutable account and profile attributes.
type UpdateProfileInput struct {
	FullName  *string
	AvatarURL *string
	Talent    *TalentProfileInput
	Creator   *CreatorProfileInput
}

// TalentFilter narrows the talent marketplace.
type TalentFilter struct {
	Skill  string
	Search string
}

// UserService manages accounts, profiles and credential checks.
type UserService struct {
	db      *gorm.DB
	invites *InviteService
	now     clock
}

// NewUserService constructs a UserService. invites may be nil, in which case
// invite tokens supplied at signup are ignored.
func NewUserService(db *gorm.DB, invites *InviteService) (*UserService, error) {
	if db == nil {
		return nil, errors.New("user service: db is required")
	}
	return &UserService{db: db, invites: invites, now: systemClock}, nil
}

// Signup creates a user and its role profile. A talent signing up with an
// invite token redeems it in the same transaction.
func (s *UserService) Signup(ctx context.Context, input SignupInput) (*models.User, error) {
	ctx = ensureContext(ctx)

	email := strings.ToLower(strings.TrimSpace(input.Email))
	fullName := strings.TrimSpace(input.FullName)
	role := strings.ToLower(strings.TrimSpace(input.Role))

	if email == "" || !strings.Contains(email, "@") {
		return nil, apperrors.NewBadRequest("a valid email is required")
	}
	if fullName == "" {
		return nil, apperrors.NewBadRequest("full name is required")
	}
	if len(input.Password) < MinPasswordLength {
		return nil, apperrors.NewBadRequest(fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}
	if role != models.RoleCreator && role != models.RoleTalent {
		return nil, apperrors.NewBadRequest("role must be creator or talent")
	}

	hashed, err := crypto.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("user service: hash password: %w", err)
	}

	user := &models.User{
		Email:    email,
		FullName: fullName,
		Role:     role,
		Password: hashed,
		IsActive: true,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(user).Error; err != nil {
			if isUniqueConstraintError(err) {
				return ErrEmailTaken
			}
			return fmt.Errorf("user service: create user: %w", err)
		}

		switch role {
		case models.RoleTalent:
			profile := &models.TalentProfile{UserID: user.ID}
			applyTalentProfile(profile, input.Talent)
			if err := tx.Create(profile).Error; err != nil {
				return fmt.Errorf("user service: create talent profile: %w", err)
			}
			user.TalentProfile = profile

			if token := strings.TrimSpace(input.InviteToken); token != "" && s.invites != nil {
				if _, err := s.invites.Redeem(ctx, tx, token, user.ID); err != nil {
					return err
				}
			}
		case models.RoleCreator:
			profile := &models.CreatorProfile{UserID: user.ID}
			applyCreatorProfile(profile, input.Creator)
			if err := tx.Create(profile).Error; err != nil {
				return fmt.Errorf("user service: create creator profile: %w", err)
			}
			user.CreatorProfile = profile
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return user, nil
}

// Authenticate verifies credentials and stamps the last login time.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	ctx = ensureContext(ctx)

	var user models.User
	err := s.db.WithContext(ctx).
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&user).Error
	if err != nil {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		if isNotFound(err) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("user service: load user: %w", err)
	}

	if !crypto.VerifyPassword(user.Password, password) {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		return nil, apperrors.ErrInvalidCredentials
	}
	if !user.IsActive {
		metrics.AuthAttempts.WithLabelValues("failure").Inc()
		return nil, ErrAccountDisabled
	}

	now := s.now()
	if err := s.db.WithContext(ctx).Model(&user).Update("last_login_at", now).Error; err != nil {
		return nil, fmt.Errorf("user service: record login: %w", err)
	}
	user.LastLoginAt = &now

	metrics.AuthAttempts.WithLabelValues("success").Inc()
	return s.GetByID(ctx, user.ID)
}

// GetByID loads a user with its role profile.
func (s *UserService) GetByID(ctx context.Context, id string) (*models.User, error) {
	ctx = ensureContext(ctx)

	var user models.User
	err := s.db.WithContext(ctx).
		Preload("TalentProfile").
		Preload("CreatorProfile").
		First(&user, "id = ?", strings.TrimSpace(id)).Error
	if err != nil {
		if isNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("user service: get user: %w", err)
	}
	return &user, nil
}

// ResolveActor loads the user behind an authenticated request.
func (s *UserService) ResolveActor(ctx context.Context, userID string) (Actor, error) {
	user, err := s.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, apperrors.ErrUnauthorized
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrAccountDisabled
	}
	return NewActor(user)
}

// UpdateProfile applies account and role profile changes. Fields for the
// other role are ignored.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (*models.User, error) {
	ctx = ensureContext(ctx)

	user, err := s.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	updates := map[string]any{}
	if input.FullName != nil {
		name := strings.TrimSpace(*input.FullName)
		if name == "" {
			return nil, apperrors.NewBadRequest("full name cannot be empty")
		}
		updates["full_name"] = name
	}
	if input.AvatarURL != nil {
		updates["avatar_url"] = strings.TrimSpace(*input.AvatarURL)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(updates) > 0 {
			if err := tx.Model(&models.User{}).Where("id = ?", user.ID).Updates(updates).Error; err != nil {
				return fmt.Errorf("user service: update user: %w", err)
			}
		}

		switch {
		case user.IsTalent() && input.Talent != nil:
			profile := user.TalentProfile
			if profile == nil {
				profile = &models.TalentProfile{UserID: user.ID}
			}
			applyTalentProfile(profile, input.Talent)
			if err := tx.Save(profile).Error; err != nil {
				return fmt.Errorf("user service: save talent profile: %w", err)
			}
		case user.IsCreator() && input.Creator != nil:
			profile := user.CreatorProfile
			if profile == nil {
				profile = &models.CreatorProfile{UserID: user.ID}
			}
			applyCreatorProfile(profile, input.Creator)
			if err := tx.Save(profile).Error; err != nil {
				return fmt.Errorf("user service: save creator profile: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetByID(ctx, user.ID)
}

// ListTalents returns active talents with their profiles, alphabetically.
func (s *UserService) ListTalents(ctx context.Context, filter TalentFilter) ([]models.User, error) {
	ctx = ensureContext(ctx)

	query := s.db.WithContext(ctx).
		Model(&models.User{}).
		Preload("TalentProfile").
		Where("users.role = ? AND users.is_active = ?", models.RoleTalent, true)

	if search := strings.ToLower(strings.TrimSpace(filter.Search)); search != "" {
		like := "%" + search + "%"
		query = query.
			Joins("LEFT JOIN talent_profiles ON talent_profiles.user_id = users.id").
			Where("LOWER(users.full_name) LIKE ? OR LOWER(talent_profiles.professional_title) LIKE ?", like, like)
	}

	var users []models.User
	if err := query.Order("users.full_name ASC").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("user service: list talents: %w", err)
	}

	// Skills live in a JSON column; matching in Go keeps the query portable across drivers.
	skill := strings.ToLower(strings.TrimSpace(filter.Skill))
	if skill == "" {
		return users, nil
	}
	filtered := users[:0]
	for _, user := range users {
		if hasSkill(user.TalentProfile, skill) {
			filtered = append(filtered, user)
		}
	}
	return filtered, nil
}

func hasSkill(profile *models.TalentProfile, skill string) bool {
	if profile == nil {
		return false
	}
	if strings.EqualFold(profile.PrimarySkill, skill) {
		return true
	}
	for _, candidate := range profile.Skills {
		if strings.EqualFold(strings.TrimSpace(candidate), skill) {
			return true
		}
	}
	return false
}

func applyTalentProfile(profile *models.TalentProfile, input *TalentProfileInput) {
	if input == nil {
		return
	}
	applyString(&profile.ProfessionalTitle, input.ProfessionalTitle)
	applyString(&profile.Bio, input.Bio)
	applyString(&profile.PrimarySkill, input.PrimarySkill)
	applyString(&profile.Availability, input.Availability)
	if input.Skills != nil {
		profile.Skills = datatypes.JSONSlice[string](normaliseStrings(input.Skills))
	}
	if input.PortfolioLinks != nil {
		profile.PortfolioLinks = datatypes.JSONSlice[string](normaliseStrings(input.PortfolioLinks))
	}
	if input.HourlyRate != nil {
		rate := *input.HourlyRate
		profile.HourlyRate = &rate
	}
}

func applyCreatorProfile(profile *models.CreatorProfile, input *CreatorProfileInput) {
	if input == nil {
		return
	}
	applyString(&profile.CompanyName, input.CompanyName)
	applyString(&profile.Bio, input.Bio)
	applyString(&profile.Website, input.Website)
	applyString(&profile.Industry, input.Industry)
	applyString(&profile.Location, input.Location)
	if input.SocialLinks != nil {
		profile.SocialLinks = datatypes.JSONMap(input.SocialLinks)
	}
}

// UserSummary is the compact user shape embedded in other payloads.
type UserSummary struct {
	ID        string `json:"id"`
	FullName  string `json:"full_name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	AvatarURL string `json:"avatar_url"`
}

func summariseUser(user *models.User) *UserSummary {
	if user == nil {
		return nil
	}
	return &UserSummary{
		ID:        user.ID,
		FullName:  user.FullName,
		Email:     user.Email,
		Role:      user.Role,
		AvatarURL: user.AvatarURL,
	}
}

func sortUsersByName(users []models.User) {
	sort.SliceStable(users, func(i, j int) bool {
		return strings.ToLower(users[i].FullName) < strings.ToLower(users[j].FullName)
	})
}
