package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/multierr"

	"github.com/onswift/backend/internal/services"
	"github.com/onswift/backend/pkg/response"
)

// CalendarHandler connects accounts to Google Calendar and mirrors task deadlines into it.
type CalendarHandler struct {
	calendar *services.CalendarService
	users    *services.UserService
}

// NewCalendarHandler constructs a CalendarHandler.
func NewCalendarHandler(calendar *services.CalendarService, users *services.UserService) *CalendarHandler {
	return &CalendarHandler{calendar: calendar, users: users}
}

type connectCalendarRequest struct {
	Code  string `json:"code" validate:"required"`
	State string `json:"state" validate:"required"`
}

type syncTaskRequest struct {
	TaskID string `json:"task_id" validate:"required"`
}

type syncAllResponse struct {
	*services.SyncSummary
	Errors []string `json:"errors,omitempty"`
}

// GET /api/calendar/status
func (h *CalendarHandler) Status(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	status, err := h.calendar.Status(requestContext(c), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, status)
}

// GET /api/calendar/auth-url
func (h *CalendarHandler) AuthURL(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	url, err := h.calendar.AuthURL(requestContext(c), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"url": url})
}

// POST /api/calendar/connect
func (h *CalendarHandler) Connect(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req connectCalendarRequest
	if !bindAndValidate(c, &req) {
		return
	}

	status, err := h.calendar.Connect(requestContext(c), userID, req.Code, req.State)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, status)
}

// POST /api/calendar/disconnect
func (h *CalendarHandler) Disconnect(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.calendar.Disconnect(requestContext(c), userID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"connected": false})
}

// POST /api/calendar/sync
func (h *CalendarHandler) Sync(c *gin.Context) {
	actor, ok := currentActor(c, h.users)
	if !ok {
		return
	}

	var req syncTaskRequest
	if !bindAndValidate(c, &req) {
		return
	}

	synced, err := h.calendar.SyncTask(requestContext(c), actor, req.TaskID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, synced)
}

// POST /api/calendar/sync-all reports per-task failures next to the counts.
func (h *CalendarHandler) SyncAll(c *gin.Context) {
	actor, ok := currentActor(c, h.users)
	if !ok {
		return
	}

	summary, err := h.calendar.SyncAll(requestContext(c), actor)
	if summary == nil {
		response.Error(c, err)
		return
	}

	body := syncAllResponse{SyncSummary: summary}
	for _, failure := range multierr.Errors(err) {
		body.Errors = append(body.Errors, failure.Error())
	}
	response.Success(c, http.StatusOK, body)
}

// DELETE /api/calendar/sync/:taskID
func (h *CalendarHandler) Unsync(c *gin.Context) {
	actor, ok := currentActor(c, h.users)
	if !ok {
		return
	}

	if err := h.calendar.UnsyncTask(requestContext(c), actor, c.Param("taskID")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"synced": false})
}

// GET /api/calendar/synced
func (h *CalendarHandler) Synced(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	tasks, err := h.calendar.ListSynced(requestContext(c), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, tasks)
}
