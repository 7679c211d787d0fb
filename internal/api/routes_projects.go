package api

import (
	"github.com/gin-gonic/gin"

	"github.com/onswift/backend/internal/handlers"
)

func registerProjectRoutes(api *gin.RouterGroup, projects *handlers.ProjectHandler, tasks *handlers.TaskHandler) {
	group := api.Group("/projects")
	{
		group.GET("", projects.List)
		group.POST("", projects.Create)
		group.GET("/:id", projects.Get)
		group.PATCH("/:id", projects.Update)
		group.DELETE("/:id", projects.Delete)

		group.GET("/:id/samples", projects.ListSamples)
		group.POST("/:id/samples", projects.AddSample)

		group.GET("/:id/tasks", tasks.ListForProject)
		group.POST("/:id/tasks", tasks.Create)
	}
	api.DELETE("/project-samples/:id", projects.DeleteSample)

	taskGroup := api.Group("/tasks")
	{
		taskGroup.GET("/:id", tasks.Get)
		taskGroup.PATCH("/:id", tasks.Update)
		taskGroup.DELETE("/:id", tasks.Delete)
	}
	api.GET("/my-tasks", tasks.MyTasks)
}
