package api

import (
	"github.com/gin-gonic/gin"

	"github.com/onswift/backend/internal/handlers"
)

type authRouteDeps struct {
	AuthHandler   *handlers.AuthHandler
	TalentHandler *handlers.TalentHandler
	InviteHandler *handlers.InviteHandler
}

func registerAuthRoutes(engine *gin.Engine, api *gin.RouterGroup, deps authRouteDeps) {
	public := engine.Group("/api")
	{
		public.POST("/auth/signup", deps.AuthHandler.Signup)
		public.POST("/auth/login", deps.AuthHandler.Login)
		public.GET("/invites/validate/:token", deps.InviteHandler.Validate)
	}

	api.GET("/auth/me", deps.AuthHandler.Me)
	api.PATCH("/auth/profile", deps.AuthHandler.UpdateProfile)

	api.GET("/talents", deps.TalentHandler.List)

	invites := api.Group("/invites")
	{
		invites.GET("", deps.InviteHandler.List)
		invites.POST("/generate", deps.InviteHandler.Generate)
	}
}
