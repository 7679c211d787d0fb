package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/onswift/backend/internal/services"
	"github.com/onswift/backend/pkg/response"
)

// GroupHandler serves group chats, membership administration and group messages.
type GroupHandler struct {
	groups *services.GroupService
	users  *services.UserService
}

// NewGroupHandler constructs a GroupHandler.
func NewGroupHandler(groups *services.GroupService, users *services.UserService) *GroupHandler {
	return &GroupHandler{groups: groups, users: users}
}

type createGroupRequest struct {
	Name      string   `json:"name" validate:"required,notblank,max=120"`
	AvatarURL string   `json:"avatar_url" validate:"omitempty,url"`
	MemberIDs []string `json:"member_ids"`
}

type updateGroupRequest struct {
	Name      *string `json:"name" validate:"omitempty,notblank,max=120"`
	AvatarURL *string `json:"avatar_url"`
}

type addMembersRequest struct {
	UserIDs []string `json:"user_ids" validate:"required,min=1"`
}

type sendGroupMessageRequest struct {
	Content   string `json:"content" validate:"max=5000"`
	FileURL   string `json:"file_url" validate:"omitempty,url"`
	FileName  string `json:"file_name"`
	FileType  string `json:"file_type"`
	ReplyToID string `json:"reply_to_id"`
}

// GET /api/groups
func (h *GroupHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	groups, err := h.groups.List(requestContext(c), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, groups)
}

// POST /api/groups
func (h *GroupHandler) Create(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req createGroupRequest
	if !bindAndValidate(c, &req) {
		return
	}

	group, err := h.groups.Create(requestContext(c), userID, services.CreateGroupInput{
		Name:      req.Name,
		AvatarURL: req.AvatarURL,
		MemberIDs: req.MemberIDs,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, group)
}

// GET /api/groups/available-members lists the people the caller may add to a group.
func (h *GroupHandler) AvailableMembers(c *gin.Context) {
	actor, ok := currentActor(c, h.users)
	if !ok {
		return
	}

	members, err := h.groups.AvailableMembers(requestContext(c), actor)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, members)
}

// GET /api/groups/:id
func (h *GroupHandler) Get(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	group, err := h.groups.Get(requestContext(c), userID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, group)
}

// PATCH /api/groups/:id
func (h *GroupHandler) Update(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req updateGroupRequest
	if !bindAndValidate(c, &req) {
		return
	}

	group, err := h.groups.Update(requestContext(c), userID, c.Param("id"), services.UpdateGroupInput{
		Name:      req.Name,
		AvatarURL: req.AvatarURL,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, group)
}

// DELETE /api/groups/:id
func (h *GroupHandler) Delete(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.groups.Delete(requestContext(c), userID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}

// POST /api/groups/:id/members
func (h *GroupHandler) AddMembers(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req addMembersRequest
	if !bindAndValidate(c, &req) {
		return
	}

	group, err := h.groups.AddMembers(requestContext(c), userID, c.Param("id"), req.UserIDs)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, group)
}

// DELETE /api/groups/:id/members/:userID
func (h *GroupHandler) RemoveMember(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.groups.RemoveMember(requestContext(c), userID, c.Param("id"), c.Param("userID")); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"removed": true})
}

// POST /api/groups/:id/leave
func (h *GroupHandler) Leave(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	result, err := h.groups.Leave(requestContext(c), userID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, result)
}

// GET /api/groups/:id/messages
func (h *GroupHandler) Messages(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	messages, err := h.groups.Messages(requestContext(c), userID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, messages)
}

// POST /api/groups/:id/messages
func (h *GroupHandler) Send(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req sendGroupMessageRequest
	if !bindAndValidate(c, &req) {
		return
	}

	message, err := h.groups.Send(requestContext(c), userID, c.Param("id"), services.SendGroupMessageInput{
		Content:   req.Content,
		FileURL:   req.FileURL,
		FileName:  req.FileName,
		FileType:  req.FileType,
		ReplyToID: req.ReplyToID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, message)
}

// POST /api/groups/:id/read
func (h *GroupHandler) MarkRead(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	marked, err := h.groups.MarkRead(requestContext(c), userID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"updated": marked})
}
