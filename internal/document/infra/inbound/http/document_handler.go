package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/davicafu/taskdesk/internal/document/application"
	documentDomain "github.com/davicafu/taskdesk/internal/document/domain"
	"github.com/davicafu/taskdesk/internal/shared/infra/web"
	"github.com/davicafu/taskdesk/pkg/utils"
)

const (
	formField = "document"
	// margen para las cabeceras multipart que acompañan al fichero
	multipartSlack = 1 << 20
)

// DocumentHandler encapsula los endpoints HTTP relacionados con Document.
type DocumentHandler struct {
	service *application.DocumentService
	policy  documentDomain.UploadPolicy
	prefix  string
}

func NewDocumentHandler(service *application.DocumentService, policy documentDomain.UploadPolicy, prefix string) *DocumentHandler {
	return &DocumentHandler{service: service, policy: policy, prefix: prefix}
}

// ListTaskDocuments endpoint GET /tasks/:id/documents
func (h *DocumentHandler) ListTaskDocuments(c *gin.Context) {
	docs, err := h.service.ListTaskDocuments(c.Request.Context(), web.ParamUUID(c, "id"))
	if err != nil {
		web.Fail(c, err)
		return
	}

	list := make([]utils.Resource, 0, len(docs))
	for _, d := range docs {
		list = append(list, toResource(d, h.prefix))
	}
	utils.SendCollection(c, http.StatusOK, list)
}

// UploadDocument endpoint POST /tasks/:id/documents (multipart, campo "document")
func (h *DocumentHandler) UploadDocument(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.policy.MaxSize+multipartSlack)

	file, header, err := c.Request.FormFile(formField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			web.Fail(c, h.policy.TooLarge())
			return
		}
		web.RequestError(c, "No file uploaded", "Please select a file to upload")
		return
	}
	defer file.Close()

	upload := documentDomain.Upload{
		Name:     header.Filename,
		Size:     header.Size,
		MimeType: header.Header.Get("Content-Type"),
	}

	doc, err := h.service.UploadDocument(c.Request.Context(), web.ParamUUID(c, "id"), upload, file)
	if err != nil {
		web.Fail(c, err)
		return
	}
	utils.SendResource(c, http.StatusCreated, toResource(*doc, h.prefix))
}

// DeleteDocument endpoint DELETE /documents/:id
func (h *DocumentHandler) DeleteDocument(c *gin.Context) {
	if err := h.service.DeleteDocument(c.Request.Context(), web.ParamUUID(c, "id")); err != nil {
		web.Fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// DownloadDocument endpoint GET /documents/:id/download
func (h *DocumentHandler) DownloadDocument(c *gin.Context) {
	path, doc, err := h.service.GetDocumentPath(c.Request.Context(), web.ParamUUID(c, "id"))
	if err != nil {
		web.Fail(c, err)
		return
	}
	c.FileAttachment(path, doc.Name)
}
