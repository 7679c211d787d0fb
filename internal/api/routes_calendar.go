package api

import (
	"github.com/gin-gonic/gin"

	"github.com/onswift/backend/internal/handlers"
)

// Calendar routes stay registered when the integration is disabled; the
// service answers 404 CALENDAR_DISABLED.
func registerCalendarRoutes(api *gin.RouterGroup, handler *handlers.CalendarHandler) {
	group := api.Group("/calendar")
	{
		group.GET("/status", handler.Status)
		group.GET("/auth-url", handler.AuthURL)
		group.POST("/connect", handler.Connect)
		group.POST("/disconnect", handler.Disconnect)
		group.POST("/sync", handler.Sync)
		group.POST("/sync-all", handler.SyncAll)
		group.DELETE("/sync/:taskID", handler.Unsync)
		group.GET("/synced", handler.Synced)
	}
}
