package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	taskDomain "github.com/davicafu/taskdesk/internal/task/domain"
)

type fakeAnalytics struct {
	trend    []taskDomain.DailyTaskTrend
	avg      time.Duration
	err      error
	gotStart time.Time
	gotEnd   time.Time
}

func (f *fakeAnalytics) LogBatch(ctx context.Context, activities []taskDomain.TaskActivity) error {
	return nil
}

func (f *fakeAnalytics) GetAverageCompletionTime(ctx context.Context, start, end time.Time) (time.Duration, error) {
	f.gotStart, f.gotEnd = start, end
	return f.avg, f.err
}

func (f *fakeAnalytics) GetDailyTrend(ctx context.Context, start, end time.Time) ([]taskDomain.DailyTaskTrend, error) {
	f.gotStart, f.gotEnd = start, end
	return f.trend, f.err
}

func analyticsRouter(repo *fakeAnalytics) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	RegisterAnalyticsRoutes(r.Group("/api"), NewAnalyticsHandler(repo))
	return r
}

func get(r http.Handler, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestAnalytics_DailyTrend(t *testing.T) {
	// Arrange
	day := time.Date(2026, 5, 4, 0, 0, 0, 0, time.UTC)
	repo := &fakeAnalytics{trend: []taskDomain.DailyTaskTrend{{Day: day, CreatedCount: 3, CompletedCount: 1}}}
	r := analyticsRouter(repo)

	// Act
	w := get(r, "/api/analytics/tasks/trend?from=2026-05-01&to=2026-05-10")

	// Assert
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var body struct {
		Data []struct {
			ID         string                    `json:"id"`
			Attributes taskDomain.DailyTaskTrend `json:"attributes"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	require.Len(t, body.Data, 1)
	assert.Equal(t, "2026-05-04", body.Data[0].ID)
	assert.Equal(t, 3, body.Data[0].Attributes.CreatedCount)
	assert.True(t, repo.gotStart.Equal(time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)))
}

func TestAnalytics_CompletionTime(t *testing.T) {
	// Arrange
	repo := &fakeAnalytics{avg: 90 * time.Minute}
	r := analyticsRouter(repo)

	// Act
	w := get(r, "/api/analytics/tasks/completion-time")

	// Assert
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Data struct {
			Attributes completionAttributes `json:"attributes"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 5400.0, body.Data.Attributes.AverageSeconds)
	assert.WithinDuration(t, repo.gotEnd.Add(-defaultAnalyticsWindow), repo.gotStart, time.Second)
}

func TestAnalytics_Errors(t *testing.T) {
	tests := []struct {
		name string
		path string
		err  error
		want int
	}{
		{name: "fecha inválida", path: "/api/analytics/tasks/trend?from=ayer", want: http.StatusBadRequest},
		{name: "rango invertido", path: "/api/analytics/tasks/trend?from=2026-05-10&to=2026-05-01", want: http.StatusBadRequest},
		{name: "clickhouse caído", path: "/api/analytics/tasks/completion-time", err: errors.New("down"), want: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Arrange
			r := analyticsRouter(&fakeAnalytics{err: tt.err})

			// Act
			w := get(r, tt.path)

			// Assert
			assert.Equal(t, tt.want, w.Code)
			assert.NotContains(t, w.Body.String(), "down")
		})
	}
}
