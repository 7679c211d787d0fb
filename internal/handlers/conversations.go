package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/onswift/backend/internal/services"
	"github.com/onswift/backend/pkg/response"
)

// ConversationHandler serves one to one messaging.
type ConversationHandler struct {
	conversations *services.ConversationService
}

// NewConversationHandler constructs a ConversationHandler.
func NewConversationHandler(conversations *services.ConversationService) *ConversationHandler {
	return &ConversationHandler{conversations: conversations}
}

type startConversationRequest struct {
	UserID string `json:"user_id" validate:"required"`
}

type sendMessageRequest struct {
	Content string `json:"content" validate:"required,notblank,max=5000"`
}

// GET /api/conversations
func (h *ConversationHandler) List(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	conversations, err := h.conversations.List(requestContext(c), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, conversations)
}

// POST /api/conversations/start returns the existing conversation when there is one.
func (h *ConversationHandler) Start(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req startConversationRequest
	if !bindAndValidate(c, &req) {
		return
	}

	conversation, err := h.conversations.Start(requestContext(c), userID, req.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, conversation)
}

// GET /api/conversations/:id/messages
func (h *ConversationHandler) Messages(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	messages, err := h.conversations.Messages(requestContext(c), userID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, messages)
}

// POST /api/conversations/:id/messages
func (h *ConversationHandler) Send(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req sendMessageRequest
	if !bindAndValidate(c, &req) {
		return
	}

	message, err := h.conversations.Send(requestContext(c), userID, c.Param("id"), req.Content)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusCreated, message)
}

// POST /api/conversations/:id/read
func (h *ConversationHandler) MarkRead(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	updated, err := h.conversations.MarkRead(requestContext(c), userID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"updated": updated})
}
