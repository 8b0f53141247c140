package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	sharedDomain "github.com/davicafu/taskdesk/internal/shared/domain"
	"github.com/davicafu/taskdesk/internal/shared/infra/web"
	taskDomain "github.com/davicafu/taskdesk/internal/task/domain"
	"github.com/davicafu/taskdesk/pkg/utils"
)

const defaultAnalyticsWindow = 30 * 24 * time.Hour

// AnalyticsHandler expone el histórico de actividad de tareas.
type AnalyticsHandler struct {
	repo taskDomain.TaskAnalyticsRepository
	now  func() time.Time
}

func NewAnalyticsHandler(repo taskDomain.TaskAnalyticsRepository) *AnalyticsHandler {
	return &AnalyticsHandler{repo: repo, now: time.Now}
}

type completionAttributes struct {
	From           time.Time `json:"from"`
	To             time.Time `json:"to"`
	AverageSeconds float64   `json:"averageSeconds"`
}

// DailyTrend endpoint GET /analytics/tasks/trend?from=&to=
func (h *AnalyticsHandler) DailyTrend(c *gin.Context) {
	from, to, err := h.window(c)
	if err != nil {
		web.Fail(c, err)
		return
	}

	trend, err := h.repo.GetDailyTrend(c.Request.Context(), from, to)
	if err != nil {
		web.Fail(c, sharedDomain.NewStorageError("analytics.daily_trend", "", err))
		return
	}

	list := make([]utils.Resource, 0, len(trend))
	for _, day := range trend {
		list = append(list, utils.Resource{Type: "task-trends", ID: day.Day.UTC().Format("2006-01-02"), Attributes: day})
	}
	utils.SendCollection(c, http.StatusOK, list)
}

// CompletionTime endpoint GET /analytics/tasks/completion-time?from=&to=
func (h *AnalyticsHandler) CompletionTime(c *gin.Context) {
	from, to, err := h.window(c)
	if err != nil {
		web.Fail(c, err)
		return
	}

	avg, err := h.repo.GetAverageCompletionTime(c.Request.Context(), from, to)
	if err != nil {
		web.Fail(c, sharedDomain.NewStorageError("analytics.completion_time", "", err))
		return
	}

	utils.SendResource(c, http.StatusOK, utils.Resource{
		Type:       "task-completion-times",
		ID:         from.Format(time.RFC3339) + "/" + to.Format(time.RFC3339),
		Attributes: completionAttributes{From: from, To: to, AverageSeconds: avg.Seconds()},
	})
}

// window lee from y to con los mismos formatos que la fecha límite. Sin ellos, los últimos 30 días.
func (h *AnalyticsHandler) window(c *gin.Context) (time.Time, time.Time, error) {
	to := h.now().UTC()
	from := to.Add(-defaultAnalyticsWindow)

	if raw := c.Query("from"); raw != "" {
		t, err := taskDomain.ParseDueDate(raw)
		if err != nil {
			return time.Time{}, time.Time{}, sharedDomain.NewValidationError("Invalid from date")
		}
		from = t.UTC()
	}
	if raw := c.Query("to"); raw != "" {
		t, err := taskDomain.ParseDueDate(raw)
		if err != nil {
			return time.Time{}, time.Time{}, sharedDomain.NewValidationError("Invalid to date")
		}
		to = t.UTC()
	}
	if !from.Before(to) {
		return time.Time{}, time.Time{}, sharedDomain.NewValidationError("from must be before to")
	}
	return from, to, nil
}

// RegisterAnalyticsRoutes solo se llama cuando hay ClickHouse configurado.
func RegisterAnalyticsRoutes(r gin.IRouter, handler *AnalyticsHandler) {
	analytics := r.Group("/analytics/tasks")
	{
		analytics.GET("/trend", handler.DailyTrend)
		analytics.GET("/completion-time", handler.CompletionTime)
	}
}
