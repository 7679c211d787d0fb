package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/onswift/backend/internal/services"
	"github.com/onswift/backend/pkg/response"
)

// DeliverableHandler serves work submissions and their review.
type DeliverableHandler struct {
	deliverables *services.DeliverableService
	users        *services.UserService
}

// NewDeliverableHandler constructs a DeliverableHandler.
func NewDeliverableHandler(deliverables *services.DeliverableService, users *services.UserService) *DeliverableHandler {
	return &DeliverableHandler{deliverables: deliverables, users: users}
}

type deliverableFileRequest struct {
	Name     string `json:"name" validate:"required,notblank"`
	URL      string `json:"url" validate:"required,url"`
	Size     int64  `json:"size" validate:"gte=0"`
	FileType string `json:"file_type"`
}

type submitDeliverableRequest struct {
	TaskID      string                   `json:"task_id" validate:"required"`
	Title       string                   `json:"title" validate:"required,notblank,max=255"`
	Description string                   `json:"description"`
	Files       []deliverableFileRequest `json:"files" validate:"dive"`
}

type updateDeliverableRequest struct {
	Title       *string                  `json:"title" validate:"omitempty,notblank,max=255"`
	Description *string                  `json:"description"`
	Files       []deliverableFileRequest `json:"files" validate:"omitempty,dive"`
}

type reviewDeliverableRequest struct {
	Status   string `json:"status" validate:"required,oneof=approved revision"`
	Feedback string `json:"feedback"`
}

// POST /api/deliverables
func (h *DeliverableHandler) Submit(c *gin.Context) {
	talent, ok := currentTalent(c, h.users)
	if !ok {
		return
	}

	var req submitDeliverableRequest
	if !bindAndValidate(c, &req) {
		return
	}

	deliverable, err := h.deliverables.Submit(requestContext(c), talent, services.SubmitDeliverableInput{
		TaskID:      req.TaskID,
		Title:       req.Title,
		Description: req.Description,
		Files:       fileInputs(req.Files),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, deliverable)
}

// GET /api/deliverables?status=&task_id=
func (h *DeliverableHandler) List(c *gin.Context) {
	actor, ok := currentActor(c, h.users)
	if !ok {
		return
	}

	deliverables, err := h.deliverables.List(requestContext(c), actor, services.DeliverableFilter{
		Status: c.Query("status"),
		TaskID: c.Query("task_id"),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, deliverables)
}

// GET /api/deliverables/:id
func (h *DeliverableHandler) Get(c *gin.Context) {
	actor, ok := currentActor(c, h.users)
	if !ok {
		return
	}

	deliverable, err := h.deliverables.Get(requestContext(c), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, deliverable)
}

// PATCH /api/deliverables/:id
func (h *DeliverableHandler) Update(c *gin.Context) {
	talent, ok := currentTalent(c, h.users)
	if !ok {
		return
	}

	var req updateDeliverableRequest
	if !bindAndValidate(c, &req) {
		return
	}

	deliverable, err := h.deliverables.Update(requestContext(c), talent, c.Param("id"), services.UpdateDeliverableInput{
		Title:       req.Title,
		Description: req.Description,
		Files:       fileInputs(req.Files),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, deliverable)
}

// POST /api/deliverables/:id/review
func (h *DeliverableHandler) Review(c *gin.Context) {
	creator, ok := currentCreator(c, h.users)
	if !ok {
		return
	}

	var req reviewDeliverableRequest
	if !bindAndValidate(c, &req) {
		return
	}

	deliverable, err := h.deliverables.Review(requestContext(c), creator, c.Param("id"), services.ReviewInput{
		Status:   req.Status,
		Feedback: req.Feedback,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, deliverable)
}

// fileInputs keeps nil as nil so an omitted files field leaves attachments untouched.
func fileInputs(files []deliverableFileRequest) []services.FileInput {
	if files == nil {
		return nil
	}
	out := make([]services.FileInput, 0, len(files))
	for _, f := range files {
		out = append(out, services.FileInput{
			Name:     f.Name,
			URL:      f.URL,
			Size:     f.Size,
			FileType: f.FileType,
		})
	}
	return out
}
