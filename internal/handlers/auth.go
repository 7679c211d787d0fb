package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	iauth "github.com/onswift/backend/internal/auth"
	"github.com/onswift/backend/internal/models"
	"github.com/onswift/backend/internal/services"
	"github.com/onswift/backend/pkg/errors"
	"github.com/onswift/backend/pkg/response"
)

// AuthHandler manages signup, login and the caller's own profile.
type AuthHandler struct {
	users *services.UserService
	jwt   *iauth.JWTService
}

// NewAuthHandler constructs an AuthHandler.
func NewAuthHandler(users *services.UserService, jwt *iauth.JWTService) *AuthHandler {
	return &AuthHandler{users: users, jwt: jwt}
}

type talentProfileRequest struct {
	ProfessionalTitle *string  `json:"professional_title"`
	Bio               *string  `json:"bio"`
	Skills            []string `json:"skills"`
	PrimarySkill      *string  `json:"primary_skill"`
	HourlyRate        *float64 `json:"hourly_rate" validate:"omitempty,gte=0"`
	PortfolioLinks    []string `json:"portfolio_links"`
	Availability      *string  `json:"availability"`
}

type creatorProfileRequest struct {
	CompanyName *string        `json:"company_name"`
	Bio         *string        `json:"bio"`
	Website     *string        `json:"website"`
	Industry    *string        `json:"industry"`
	Location    *string        `json:"location"`
	SocialLinks map[string]any `json:"social_links"`
}

type signupRequest struct {
	Email       string                 `json:"email" validate:"required,email"`
	FullName    string                 `json:"full_name" validate:"required,notblank"`
	Password    string                 `json:"password" validate:"required,min=8"`
	Role        string                 `json:"role" validate:"required,oneof=creator talent"`
	InviteToken string                 `json:"invite_token"`
	Talent      *talentProfileRequest  `json:"talent_profile"`
	Creator     *creatorProfileRequest `json:"creator_profile"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type updateProfileRequest struct {
	FullName  *string                `json:"full_name"`
	AvatarURL *string                `json:"avatar_url"`
	Talent    *talentProfileRequest  `json:"talent_profile"`
	Creator   *creatorProfileRequest `json:"creator_profile"`
}

type authResponse struct {
	Token     string       `json:"token"`
	ExpiresIn int          `json:"expires_in"`
	User      *models.User `json:"user"`
}

// POST /api/auth/signup
func (h *AuthHandler) Signup(c *gin.Context) {
	var req signupRequest
	if !bindAndValidate(c, &req) {
		return
	}

	user, err := h.users.Signup(requestContext(c), services.SignupInput{
		Email:       req.Email,
		FullName:    req.FullName,
		Password:    req.Password,
		Role:        req.Role,
		InviteToken: req.InviteToken,
		Talent:      req.Talent.toInput(),
		Creator:     req.Creator.toInput(),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	h.respondWithToken(c, http.StatusCreated, user.ID)
}

// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindAndValidate(c, &req) {
		return
	}

	user, err := h.users.Authenticate(requestContext(c), req.Email, req.Password)
	if err != nil {
		response.Error(c, err)
		return
	}

	h.respondWithToken(c, http.StatusOK, user.ID)
}

// GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	user, err := h.users.GetByID(requestContext(c), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, user)
}

// PATCH /api/auth/profile
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req updateProfileRequest
	if !bindAndValidate(c, &req) {
		return
	}

	user, err := h.users.UpdateProfile(requestContext(c), userID, services.UpdateProfileInput{
		FullName:  req.FullName,
		AvatarURL: req.AvatarURL,
		Talent:    req.Talent.toInput(),
		Creator:   req.Creator.toInput(),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, user)
}

func (h *AuthHandler) respondWithToken(c *gin.Context, status int, userID string) {
	// Reload so the response carries the role profile.
	user, err := h.users.GetByID(requestContext(c), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	token, err := h.jwt.GenerateAccessToken(iauth.AccessTokenInput{
		UserID: user.ID,
		Role:   user.Role,
	})
	if err != nil {
		response.Error(c, errors.ErrInternalServer.WithInternal(err))
		return
	}

	response.Success(c, status, authResponse{
		Token:     token,
		ExpiresIn: int(h.jwt.TTL().Seconds()),
		User:      user,
	})
}

func (r *talentProfileRequest) toInput() *services.TalentProfileInput {
	if r == nil {
		return nil
	}
	return &services.TalentProfileInput{
		ProfessionalTitle: r.ProfessionalTitle,
		Bio:               r.Bio,
		Skills:            r.Skills,
		PrimarySkill:      r.PrimarySkill,
		HourlyRate:        r.HourlyRate,
		PortfolioLinks:    r.PortfolioLinks,
		Availability:      r.Availability,
	}
}

func (r *creatorProfileRequest) toInput() *services.CreatorProfileInput {
	if r == nil {
		return nil
	}
	return &services.CreatorProfileInput{
		CompanyName: r.CompanyName,
		Bio:         r.Bio,
		Website:     r.Website,
		Industry:    r.Industry,
		Location:    r.Location,
		SocialLinks: r.SocialLinks,
	}
}
