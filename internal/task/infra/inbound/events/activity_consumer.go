package events

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	sharedEvents "github.com/davicafu/taskdesk/internal/shared/domain/events"
	sharedUtils "github.com/davicafu/taskdesk/internal/shared/infra/utils"
	taskDomain "github.com/davicafu/taskdesk/internal/task/domain"
)

const (
	logTimeout  = 2 * time.Second
	logAttempts = 3
	logRetry    = 200 * time.Millisecond
)

// ActivityConsumer convierte los eventos task.* en filas del histórico analítico.
type ActivityConsumer struct {
	analytics taskDomain.TaskAnalyticsRepository
	log       *zap.Logger
}

func NewActivityConsumer(analytics taskDomain.TaskAnalyticsRepository, log *zap.Logger) *ActivityConsumer {
	return &ActivityConsumer{analytics: analytics, log: log}
}

// HandleMessage es el punto de entrada para un nuevo mensaje/evento.
func (c *ActivityConsumer) HandleMessage(ctx context.Context, key string, payload []byte) {
	var base sharedEvents.IntegrationEvent
	if err := json.Unmarshal(payload, &base); err != nil {
		c.log.Warn("Failed to unmarshal integration event for task", zap.String("key", key), zap.Error(err))
		return
	}

	switch base.Type {
	case taskDomain.TaskCreated, taskDomain.TaskUpdated:
		sharedUtils.UnmarshalAndHandle[taskDomain.TaskSnapshot](c.log, base.Data, func(s taskDomain.TaskSnapshot) {
			c.record(ctx, taskDomain.TaskActivity{
				TaskID:    s.ID,
				Title:     s.Title,
				Status:    string(s.Status),
				EventType: base.Type,
				CreatedAt: s.CreatedAt,
				UpdatedAt: s.UpdatedAt,
				EventTime: eventTime(base),
			})
		})

	case taskDomain.TaskDeleted:
		sharedUtils.UnmarshalAndHandle[taskDomain.TaskRef](c.log, base.Data, func(ref taskDomain.TaskRef) {
			at := eventTime(base)
			c.record(ctx, taskDomain.TaskActivity{
				TaskID:    ref.ID,
				EventType: base.Type,
				CreatedAt: at,
				UpdatedAt: at,
				EventTime: at,
			})
		})

	default:
		c.log.Warn("Unknown task event type", zap.String("type", base.Type), zap.String("key", key))
	}
}

func (c *ActivityConsumer) record(ctx context.Context, activity taskDomain.TaskActivity) {
	ctxLog, cancel := context.WithTimeout(ctx, logTimeout)
	defer cancel()

	err := sharedUtils.Retry(ctxLog, logAttempts, logRetry, nil, func() error {
		return c.analytics.LogBatch(ctxLog, []taskDomain.TaskActivity{activity})
	})
	if err != nil {
		c.log.Warn("Failed to log task activity",
			zap.String("task_id", activity.TaskID.String()),
			zap.String("event_type", activity.EventType),
			zap.Error(err))
		return
	}
	c.log.Debug("Task activity logged",
		zap.String("task_id", activity.TaskID.String()),
		zap.String("event_type", activity.EventType))
}

func eventTime(evt sharedEvents.IntegrationEvent) time.Time {
	if evt.Timestamp.IsZero() {
		return time.Now().UTC()
	}
	return evt.Timestamp.UTC()
}
