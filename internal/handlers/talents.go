package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/onswift/backend/internal/services"
	"github.com/onswift/backend/pkg/response"
)

// TalentHandler serves the talent marketplace.
type TalentHandler struct {
	users *services.UserService
}

// NewTalentHandler constructs a TalentHandler.
func NewTalentHandler(users *services.UserService) *TalentHandler {
	return &TalentHandler{users: users}
}

// GET /api/talents?skill=&search=
func (h *TalentHandler) List(c *gin.Context) {
	talents, err := h.users.ListTalents(requestContext(c), services.TalentFilter{
		Skill:  c.Query("skill"),
		Search: c.Query("search"),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, talents)
}
