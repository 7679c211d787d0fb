package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/onswift/backend/internal/services"
	"github.com/onswift/backend/pkg/response"
)

// InviteHandler issues and validates talent onboarding links.
type InviteHandler struct {
	invites *services.InviteService
	users   *services.UserService
}

// NewInviteHandler constructs an InviteHandler.
func NewInviteHandler(invites *services.InviteService, users *services.UserService) *InviteHandler {
	return &InviteHandler{invites: invites, users: users}
}

type generateInviteRequest struct {
	InvitedEmail string    `json:"invited_email" validate:"omitempty,email"`
	ExpiresAt    dateInput `json:"expires_at"`
}

// POST /api/invites/generate
func (h *InviteHandler) Generate(c *gin.Context) {
	creator, ok := currentCreator(c, h.users)
	if !ok {
		return
	}

	// An empty body is a valid request for a default invite.
	var req generateInviteRequest
	if c.Request.ContentLength != 0 && !bindAndValidate(c, &req) {
		return
	}

	invite, err := h.invites.Issue(requestContext(c), creator, services.IssueInviteInput{
		InvitedEmail: req.InvitedEmail,
		ExpiresAt:    req.ExpiresAt.Value,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, invite)
}

// GET /api/invites
func (h *InviteHandler) List(c *gin.Context) {
	creator, ok := currentCreator(c, h.users)
	if !ok {
		return
	}

	invites, err := h.invites.ListIssued(requestContext(c), creator)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, invites)
}

// GET /api/invites/validate/:token
func (h *InviteHandler) Validate(c *gin.Context) {
	result, err := h.invites.Validate(requestContext(c), c.Param("token"))
	switch {
	case err == nil:
		response.Success(c, http.StatusOK, result)
	case errors.Is(err, services.ErrInviteInvalid) && result != nil:
		// The signup page explains why the link is unusable.
		response.ErrorWithData(c, err, result)
	default:
		response.Error(c, err)
	}
}
