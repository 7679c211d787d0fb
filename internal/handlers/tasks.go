package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/onswift/backend/internal/services"
	"github.com/onswift/backend/pkg/response"
)

// TaskHandler manages tasks inside projects and the talent's assigned work.
type TaskHandler struct {
	tasks *services.TaskService
	users *services.UserService
}

// NewTaskHandler constructs a TaskHandler.
func NewTaskHandler(tasks *services.TaskService, users *services.UserService) *TaskHandler {
	return &TaskHandler{tasks: tasks, users: users}
}

type createTaskRequest struct {
	Name        string    `json:"name" validate:"required,notblank,max=255"`
	Description string    `json:"description"`
	AssigneeID  string    `json:"assignee_id"`
	Status      string    `json:"status" validate:"omitempty,oneof=planning in-progress completed"`
	Deadline    dateInput `json:"deadline"`
}

type updateTaskRequest struct {
	Name        *string        `json:"name" validate:"omitempty,notblank,max=255"`
	Description *string        `json:"description"`
	AssigneeID  optionalString `json:"assignee_id"`
	Status      *string        `json:"status" validate:"omitempty,oneof=planning in-progress completed"`
	Deadline    dateInput      `json:"deadline"`
}

// POST /api/projects/:id/tasks
func (h *TaskHandler) Create(c *gin.Context) {
	creator, ok := currentCreator(c, h.users)
	if !ok {
		return
	}

	var req createTaskRequest
	if !bindAndValidate(c, &req) {
		return
	}

	task, err := h.tasks.Create(requestContext(c), creator, c.Param("id"), services.TaskInput{
		Name:        req.Name,
		Description: req.Description,
		AssigneeID:  req.AssigneeID,
		Status:      req.Status,
		Deadline:    req.Deadline.Value,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, task)
}

// GET /api/projects/:id/tasks
func (h *TaskHandler) ListForProject(c *gin.Context) {
	creator, ok := currentCreator(c, h.users)
	if !ok {
		return
	}

	tasks, err := h.tasks.ListForProject(requestContext(c), creator, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, tasks)
}

// GET /api/my-tasks
func (h *TaskHandler) MyTasks(c *gin.Context) {
	talent, ok := currentTalent(c, h.users)
	if !ok {
		return
	}

	tasks, err := h.tasks.ListAssigned(requestContext(c), talent)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, tasks)
}

// GET /api/tasks/:id is visible to the owning creator and the assignee.
func (h *TaskHandler) Get(c *gin.Context) {
	actor, ok := currentActor(c, h.users)
	if !ok {
		return
	}

	task, err := h.tasks.Get(requestContext(c), actor, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, task)
}

// PATCH /api/tasks/:id
func (h *TaskHandler) Update(c *gin.Context) {
	creator, ok := currentCreator(c, h.users)
	if !ok {
		return
	}

	var req updateTaskRequest
	if !bindAndValidate(c, &req) {
		return
	}

	task, err := h.tasks.Update(requestContext(c), creator, c.Param("id"), services.UpdateTaskInput{
		Name:          req.Name,
		Description:   req.Description,
		AssigneeID:    req.AssigneeID.Value,
		UnassignTask:  req.AssigneeID.cleared(),
		Status:        req.Status,
		Deadline:      req.Deadline.Value,
		ClearDeadline: req.Deadline.cleared(),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, task)
}

// DELETE /api/tasks/:id
func (h *TaskHandler) Delete(c *gin.Context) {
	creator, ok := currentCreator(c, h.users)
	if !ok {
		return
	}

	if err := h.tasks.Delete(requestContext(c), creator, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}
