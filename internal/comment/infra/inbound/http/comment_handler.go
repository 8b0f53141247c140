package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/davicafu/taskdesk/internal/comment/application"
	commentDomain "github.com/davicafu/taskdesk/internal/comment/domain"
	"github.com/davicafu/taskdesk/internal/shared/infra/web"
	"github.com/davicafu/taskdesk/pkg/utils"
)

const ResourceType = "comments"

type CommentHandler struct {
	service *application.CommentService
}

func NewCommentHandler(service *application.CommentService) *CommentHandler {
	return &CommentHandler{service: service}
}

type createAttributes struct {
	Author  string `json:"author"`
	Content string `json:"content"`
}

type updateAttributes struct {
	Author  *string `json:"author"`
	Content *string `json:"content"`
}

func toResource(c commentDomain.Comment) utils.Resource {
	return utils.Resource{Type: ResourceType, ID: c.ID.String(), Attributes: c}
}

// GetTaskComments endpoint GET /tasks/:id/comments
func (h *CommentHandler) GetTaskComments(c *gin.Context) {
	comments, err := h.service.GetTaskComments(c.Request.Context(), web.ParamUUID(c, "id"))
	if err != nil {
		web.Fail(c, err)
		return
	}

	list := make([]utils.Resource, 0, len(comments))
	for _, cm := range comments {
		list = append(list, toResource(cm))
	}
	utils.SendCollection(c, http.StatusOK, list)
}

// CreateComment endpoint POST /tasks/:id/comments
func (h *CommentHandler) CreateComment(c *gin.Context) {
	attrs, ok := web.BindAttributes[createAttributes](c)
	if !ok {
		return
	}
	if strings.TrimSpace(attrs.Author) == "" || strings.TrimSpace(attrs.Content) == "" {
		web.RequestError(c, "Validation failed", "Author and content are required")
		return
	}

	comment, err := h.service.CreateComment(c.Request.Context(), web.ParamUUID(c, "id"), commentDomain.CommentInput{
		Author:  attrs.Author,
		Content: attrs.Content,
	})
	if err != nil {
		web.Fail(c, err)
		return
	}
	utils.SendResource(c, http.StatusCreated, toResource(*comment))
}

// UpdateComment endpoint PUT /comments/:id
func (h *CommentHandler) UpdateComment(c *gin.Context) {
	attrs, ok := web.BindAttributes[updateAttributes](c)
	if !ok {
		return
	}

	comment, err := h.service.UpdateComment(c.Request.Context(), web.ParamUUID(c, "id"), commentDomain.CommentPatch{
		Author:  attrs.Author,
		Content: attrs.Content,
	})
	if err != nil {
		web.Fail(c, err)
		return
	}
	utils.SendResource(c, http.StatusOK, toResource(*comment))
}

// DeleteComment endpoint DELETE /comments/:id
func (h *CommentHandler) DeleteComment(c *gin.Context) {
	if err := h.service.DeleteComment(c.Request.Context(), web.ParamUUID(c, "id")); err != nil {
		web.Fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
