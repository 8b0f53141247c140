package http

import (
	"github.com/gin-gonic/gin"

	"github.com/davicafu/taskdesk/internal/shared/infra/web"
)

// RegisterTaskRoutes registra las rutas HTTP para el dominio de Tareas.
func RegisterTaskRoutes(r gin.IRouter, handler *TaskHandler) {
	byID := web.ValidateUUIDParams("id")

	tasks := r.Group("/tasks")
	{
		tasks.GET("", handler.ListTasks)
		tasks.POST("", handler.CreateTask)
		tasks.GET("/:id", byID, handler.GetTask)
		tasks.PUT("/:id", byID, handler.UpdateTask)
		tasks.DELETE("/:id", byID, handler.DeleteTask)
	}
}
