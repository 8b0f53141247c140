package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	sharedDomain "github.com/davicafu/taskdesk/internal/shared/domain"
)

var ErrTaskNotFound = errors.New("task not found")

// TaskRepository lee el agregado completo y escribe solo la fila de la tarea.
// Delete confía en ON DELETE CASCADE para documentos y comentarios.
type TaskRepository interface {
	FindAll(ctx context.Context, criteria sharedDomain.Criteria) ([]Task, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Task, error)
	Create(ctx context.Context, t *Task, evt sharedDomain.OutboxEvent) error
	Update(ctx context.Context, t *Task, evt sharedDomain.OutboxEvent) error
	Delete(ctx context.Context, id uuid.UUID, evt sharedDomain.OutboxEvent) error
}

// TaskActivity es una fila del histórico analítico.
type TaskActivity struct {
	TaskID    uuid.UUID
	Title     string
	Status    string
	EventType string
	CreatedAt time.Time
	UpdatedAt time.Time
	EventTime time.Time
}

// DailyTaskTrend agrega la actividad de un día.
type DailyTaskTrend struct {
	Day            time.Time `json:"day"`
	CreatedCount   int       `json:"createdCount"`
	CompletedCount int       `json:"completedCount"`
}

type TaskAnalyticsRepository interface {
	LogBatch(ctx context.Context, activities []TaskActivity) error
	GetAverageCompletionTime(ctx context.Context, start, end time.Time) (time.Duration, error)
	GetDailyTrend(ctx context.Context, start, end time.Time) ([]DailyTaskTrend, error)
}

func TaskCacheKeyByID(id uuid.UUID) string {
	return fmt.Sprintf("task:id:%s", id.String())
}
