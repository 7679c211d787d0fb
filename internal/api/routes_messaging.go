package api

import (
	"github.com/gin-gonic/gin"

	"github.com/onswift/backend/internal/handlers"
)

func registerMessagingRoutes(api *gin.RouterGroup, conversations *handlers.ConversationHandler, groups *handlers.GroupHandler) {
	conv := api.Group("/conversations")
	{
		conv.GET("", conversations.List)
		conv.POST("/start", conversations.Start)
		conv.GET("/:id/messages", conversations.Messages)
		conv.POST("/:id/messages", conversations.Send)
		conv.POST("/:id/read", conversations.MarkRead)
	}

	group := api.Group("/groups")
	{
		group.GET("", groups.List)
		group.POST("", groups.Create)
		group.GET("/available-members", groups.AvailableMembers)
		group.GET("/:id", groups.Get)
		group.PATCH("/:id", groups.Update)
		group.DELETE("/:id", groups.Delete)
		group.POST("/:id/members", groups.AddMembers)
		group.DELETE("/:id/members/:userID", groups.RemoveMember)
		group.POST("/:id/leave", groups.Leave)
		group.GET("/:id/messages", groups.Messages)
		group.POST("/:id/messages", groups.Send)
		group.POST("/:id/read", groups.MarkRead)
	}
}
