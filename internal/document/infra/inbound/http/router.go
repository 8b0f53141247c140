package http

import (
	"github.com/gin-gonic/gin"

	"github.com/davicafu/taskdesk/internal/shared/infra/web"
)

// RegisterDocumentRoutes registra las rutas HTTP para el dominio de Documentos.
// Se usa :id también para la tarea porque gin no admite dos nombres de comodín en el mismo tramo.
func RegisterDocumentRoutes(r gin.IRouter, handler *DocumentHandler) {
	byID := web.ValidateUUIDParams("id")

	r.GET("/tasks/:id/documents", byID, handler.ListTaskDocuments)
	r.POST("/tasks/:id/documents", byID, handler.UploadDocument)
	r.DELETE("/documents/:id", byID, handler.DeleteDocument)
	r.GET("/documents/:id/download", byID, handler.DownloadDocument)
}
