package api

import (
	"github.com/gin-gonic/gin"

	"github.com/onswift/backend/internal/handlers"
)

func registerDeliverableRoutes(api *gin.RouterGroup, handler *handlers.DeliverableHandler) {
	group := api.Group("/deliverables")
	{
		group.GET("", handler.List)
		group.POST("", handler.Submit)
		group.GET("/:id", handler.Get)
		group.PATCH("/:id", handler.Update)
		group.POST("/:id/review", handler.Review)
	}
}
