package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/onswift/backend/internal/services"
	"github.com/onswift/backend/pkg/response"
)

// HireHandler exposes the hire request lifecycle and the team views derived from it.
type HireHandler struct {
	hires *services.HireService
	users *services.UserService
}

// NewHireHandler constructs a HireHandler.
func NewHireHandler(hires *services.HireService, users *services.UserService) *HireHandler {
	return &HireHandler{hires: hires, users: users}
}

type createHireRequest struct {
	TalentID string `json:"talent_id" validate:"required"`
	Message  string `json:"message" validate:"max=2000"`
}

type respondHireRequest struct {
	Status string `json:"status" validate:"required,oneof=accepted rejected"`
}

// POST /api/hire-requests
func (h *HireHandler) Create(c *gin.Context) {
	creator, ok := currentCreator(c, h.users)
	if !ok {
		return
	}

	var req createHireRequest
	if !bindAndValidate(c, &req) {
		return
	}

	request, err := h.hires.Create(requestContext(c), creator, req.TalentID, req.Message)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, request)
}

// PATCH /api/hire-requests/:id/respond
func (h *HireHandler) Respond(c *gin.Context) {
	talent, ok := currentTalent(c, h.users)
	if !ok {
		return
	}

	var req respondHireRequest
	if !bindAndValidate(c, &req) {
		return
	}

	request, err := h.hires.Respond(requestContext(c), talent, c.Param("id"), req.Status)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, request)
}

// GET /api/hire-requests/received
func (h *HireHandler) Received(c *gin.Context) {
	talent, ok := currentTalent(c, h.users)
	if !ok {
		return
	}

	requests, err := h.hires.ListReceived(requestContext(c), talent)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, requests)
}

// GET /api/hire-requests/sent
func (h *HireHandler) Sent(c *gin.Context) {
	creator, ok := currentCreator(c, h.users)
	if !ok {
		return
	}

	requests, err := h.hires.ListSent(requestContext(c), creator)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, requests)
}

// GET /api/team
func (h *HireHandler) Team(c *gin.Context) {
	creator, ok := currentCreator(c, h.users)
	if !ok {
		return
	}

	team, err := h.hires.Team(requestContext(c), creator)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, team)
}

// GET /api/engagements
func (h *HireHandler) Engagements(c *gin.Context) {
	talent, ok := currentTalent(c, h.users)
	if !ok {
		return
	}

	creators, err := h.hires.Engagements(requestContext(c), talent)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, creators)
}
