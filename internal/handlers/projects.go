package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/onswift/backend/internal/services"
	"github.com/onswift/backend/pkg/response"
)

// ProjectHandler manages a creator's projects and their reference samples.
type ProjectHandler struct {
	projects *services.ProjectService
	users    *services.UserService
}

// NewProjectHandler constructs a ProjectHandler.
func NewProjectHandler(projects *services.ProjectService, users *services.UserService) *ProjectHandler {
	return &ProjectHandler{projects: projects, users: users}
}

type createProjectRequest struct {
	Name        string    `json:"name" validate:"required,notblank,max=255"`
	Description string    `json:"description"`
	DueDate     dateInput `json:"due_date"`
	Status      string    `json:"status" validate:"omitempty,oneof=pending in-progress completed"`
}

type updateProjectRequest struct {
	Name        *string   `json:"name" validate:"omitempty,notblank,max=255"`
	Description *string   `json:"description"`
	DueDate     dateInput `json:"due_date"`
	Status      *string   `json:"status" validate:"omitempty,oneof=pending in-progress completed"`
}

type createSampleRequest struct {
	Name        string `json:"name" validate:"required,notblank"`
	Type        string `json:"type" validate:"omitempty,oneof=file link"`
	URL         string `json:"url" validate:"omitempty,url"`
	Description string `json:"description"`
}

// POST /api/projects
func (h *ProjectHandler) Create(c *gin.Context) {
	creator, ok := currentCreator(c, h.users)
	if !ok {
		return
	}

	var req createProjectRequest
	if !bindAndValidate(c, &req) {
		return
	}

	project, err := h.projects.Create(requestContext(c), creator, services.ProjectInput{
		Name:        req.Name,
		Description: req.Description,
		DueDate:     req.DueDate.Value,
		Status:      req.Status,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, project)
}

// GET /api/projects
func (h *ProjectHandler) List(c *gin.Context) {
	creator, ok := currentCreator(c, h.users)
	if !ok {
		return
	}

	projects, err := h.projects.List(requestContext(c), creator)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, projects)
}

// GET /api/projects/:id
func (h *ProjectHandler) Get(c *gin.Context) {
	creator, ok := currentCreator(c, h.users)
	if !ok {
		return
	}

	project, err := h.projects.Get(requestContext(c), creator, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, project)
}

// PATCH /api/projects/:id
func (h *ProjectHandler) Update(c *gin.Context) {
	creator, ok := currentCreator(c, h.users)
	if !ok {
		return
	}

	var req updateProjectRequest
	if !bindAndValidate(c, &req) {
		return
	}

	project, err := h.projects.Update(requestContext(c), creator, c.Param("id"), services.UpdateProjectInput{
		Name:        req.Name,
		Description: req.Description,
		DueDate:     req.DueDate.Value,
		ClearDue:    req.DueDate.cleared(),
		Status:      req.Status,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, project)
}

// DELETE /api/projects/:id
func (h *ProjectHandler) Delete(c *gin.Context) {
	creator, ok := currentCreator(c, h.users)
	if !ok {
		return
	}

	if err := h.projects.Delete(requestContext(c), creator, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// GET /api/projects/:id/samples
func (h *ProjectHandler) ListSamples(c *gin.Context) {
	creator, ok := currentCreator(c, h.users)
	if !ok {
		return
	}

	samples, err := h.projects.ListSamples(requestContext(c), creator, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, samples)
}

// POST /api/projects/:id/samples
func (h *ProjectHandler) AddSample(c *gin.Context) {
	creator, ok := currentCreator(c, h.users)
	if !ok {
		return
	}

	var req createSampleRequest
	if !bindAndValidate(c, &req) {
		return
	}

	sample, err := h.projects.AddSample(requestContext(c), creator, c.Param("id"), services.SampleInput{
		Name:        req.Name,
		Type:        req.Type,
		URL:         req.URL,
		Description: req.Description,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, sample)
}

// DELETE /api/project-samples/:id
func (h *ProjectHandler) DeleteSample(c *gin.Context) {
	creator, ok := currentCreator(c, h.users)
	if !ok {
		return
	}

	if err := h.projects.DeleteSample(requestContext(c), creator, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}
