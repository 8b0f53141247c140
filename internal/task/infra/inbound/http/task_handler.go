package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	sharedDomain "github.com/davicafu/taskdesk/internal/shared/domain"
	"github.com/davicafu/taskdesk/internal/shared/infra/web"
	"github.com/davicafu/taskdesk/internal/task/application"
	taskDomain "github.com/davicafu/taskdesk/internal/task/domain"
	"github.com/davicafu/taskdesk/pkg/utils"
)

// TaskHandler encapsula los endpoints HTTP relacionados con Task.
type TaskHandler struct {
	service *application.TaskService
	prefix  string
	now     func() time.Time
}

// NewTaskHandler crea un nuevo TaskHandler. prefix es el prefijo de la API, para las urls de descarga.
func NewTaskHandler(service *application.TaskService, prefix string) *TaskHandler {
	return &TaskHandler{service: service, prefix: prefix, now: time.Now}
}

// ListTasks endpoint GET /tasks con filtros opcionales ?status=, ?title= y ?responsible=
func (h *TaskHandler) ListTasks(c *gin.Context) {
	var criterias []sharedDomain.Criteria

	if raw := c.Query("status"); raw != "" {
		status, err := taskDomain.ParseStatus(raw)
		if err != nil {
			web.Fail(c, err)
			return
		}
		criterias = append(criterias, taskDomain.StatusCriteria{Status: status})
	}
	if title := strings.TrimSpace(c.Query("title")); title != "" {
		criterias = append(criterias, taskDomain.TitleLikeCriteria{Title: title})
	}
	if responsible := strings.TrimSpace(c.Query("responsible")); responsible != "" {
		criterias = append(criterias, taskDomain.ResponsibleCriteria{Responsible: responsible})
	}

	tasks, err := h.service.ListTasks(c.Request.Context(), sharedDomain.And(criterias...))
	if err != nil {
		web.Fail(c, err)
		return
	}

	now := h.now()
	list := make([]utils.Resource, 0, len(tasks))
	for _, t := range tasks {
		list = append(list, toResource(t, now, h.prefix))
	}
	utils.SendCollection(c, http.StatusOK, list)
}

// GetTask endpoint GET /tasks/:id
func (h *TaskHandler) GetTask(c *gin.Context) {
	task, err := h.service.GetTask(c.Request.Context(), web.ParamUUID(c, "id"))
	if err != nil {
		web.Fail(c, err)
		return
	}
	utils.SendResource(c, http.StatusOK, toResource(*task, h.now(), h.prefix))
}

// CreateTask endpoint POST /tasks
func (h *TaskHandler) CreateTask(c *gin.Context) {
	attrs, ok := web.BindAttributes[createAttributes](c)
	if !ok {
		return
	}
	if strings.TrimSpace(attrs.Title) == "" || strings.TrimSpace(attrs.DueDate) == "" {
		web.RequestError(c, "Validation failed", "Title and dueDate are required")
		return
	}

	task, err := h.service.CreateTask(c.Request.Context(), taskDomain.TaskInput{
		Title:       attrs.Title,
		Description: attrs.Description,
		Responsible: attrs.Responsible,
		Status:      attrs.Status,
		DueDate:     attrs.DueDate,
	})
	if err != nil {
		web.Fail(c, err)
		return
	}
	utils.SendResource(c, http.StatusCreated, toResource(*task, h.now(), h.prefix))
}

// UpdateTask endpoint PUT /tasks/:id
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	attrs, ok := web.BindAttributes[updateAttributes](c)
	if !ok {
		return
	}

	task, err := h.service.UpdateTask(c.Request.Context(), web.ParamUUID(c, "id"), attrs.toPatch())
	if err != nil {
		web.Fail(c, err)
		return
	}
	utils.SendResource(c, http.StatusOK, toResource(*task, h.now(), h.prefix))
}

// DeleteTask endpoint DELETE /tasks/:id
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	if err := h.service.DeleteTask(c.Request.Context(), web.ParamUUID(c, "id")); err != nil {
		web.Fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
