package api

import (
	"github.com/gin-gonic/gin"

	"github.com/onswift/backend/internal/handlers"
)

func registerHireRoutes(api *gin.RouterGroup, handler *handlers.HireHandler) {
	hires := api.Group("/hire-requests")
	{
		hires.POST("", handler.Create)
		hires.GET("/received", handler.Received)
		hires.GET("/sent", handler.Sent)
		hires.PATCH("/:id/respond", handler.Respond)
	}

	api.GET("/team", handler.Team)
	api.GET("/engagements", handler.Engagements)
}
