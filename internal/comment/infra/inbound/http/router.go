package http

import (
	"github.com/gin-gonic/gin"

	"github.com/davicafu/taskdesk/internal/shared/infra/web"
)

// RegisterCommentRoutes registra las rutas HTTP para el dominio de Comentarios.
func RegisterCommentRoutes(r gin.IRouter, handler *CommentHandler) {
	byID := web.ValidateUUIDParams("id")

	r.GET("/tasks/:id/comments", byID, handler.GetTaskComments)
	r.POST("/tasks/:id/comments", byID, handler.CreateComment)
	r.PUT("/comments/:id", byID, handler.UpdateComment)
	r.DELETE("/comments/:id", byID, handler.DeleteComment)
}
