package relayer

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"
	"time"

	"go.uber.org/zap"

	sharedDomain "github.com/davicafu/taskdesk/internal/shared/domain"
	sharedEvents "github.com/davicafu/taskdesk/internal/shared/domain/events"
	sharedBus "github.com/davicafu/taskdesk/internal/shared/infra/platform/bus"
)

// Worker publica los eventos pendientes de la tabla outbox.
// La entrega es al menos una vez: si falla la publicación el evento se reintenta en el siguiente ciclo.
type Worker struct {
	repo          sharedDomain.OutboxRepository
	publisher     sharedBus.EventBus
	eventRegistry map[string]sharedEvents.EventMetadata
	interval      time.Duration
	batchSize     int
	log           *zap.Logger
}

func NewOutboxWorker(
	repo sharedDomain.OutboxRepository,
	publisher sharedBus.EventBus,
	registry map[string]sharedEvents.EventMetadata,
	interval time.Duration,
	batchSize int,
	log *zap.Logger,
) *Worker {
	return &Worker{
		repo:          repo,
		publisher:     publisher,
		eventRegistry: registry,
		interval:      interval,
		batchSize:     batchSize,
		log:           log,
	}
}

// Run hace polling hasta que se cancela el contexto.
func (w *Worker) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.log.Info("🚀 Outbox worker iniciado", zap.Duration("interval", w.interval))

	for {
		select {
		case <-ctx.Done():
			w.log.Info("🛑 Outbox worker detenido")
			return nil
		case <-ticker.C:
			w.ProcessBatch(ctx)
		}
	}
}

func (w *Worker) ProcessBatch(ctx context.Context) {
	events, err := w.repo.FetchPendingOutbox(ctx, w.batchSize)
	if err != nil {
		w.log.Warn("⚠️ Error al obtener eventos pendientes", zap.Error(err))
		return
	}
	if len(events) > 0 {
		w.log.Debug(fmt.Sprintf("📬 %d eventos encontrados para procesar", len(events)))
	}

	for _, evt := range events {
		w.publishAndMark(ctx, evt)
	}
}

func (w *Worker) publishAndMark(ctx context.Context, evt sharedDomain.OutboxEvent) {
	metadata, ok := w.eventRegistry[evt.EventType]
	if !ok {
		w.log.Error("Tipo de evento desconocido en registro, se descarta",
			zap.String("event_id", evt.ID.String()),
			zap.String("event_type", evt.EventType),
		)
		w.discard(ctx, evt)
		return
	}

	integration, err := w.toIntegrationEvent(evt, metadata)
	if err != nil {
		w.log.Error("Error al decodificar payload del evento, se descarta",
			zap.String("event_id", evt.ID.String()),
			zap.String("event_type", evt.EventType),
			zap.Any("payload", evt.Payload),
			zap.Error(err),
		)
		w.discard(ctx, evt)
		return
	}

	if err := w.publisher.Publish(ctx, metadata.Topic, integration); err != nil {
		w.log.Warn("⚠️ No se pudo publicar evento",
			zap.String("event_id", evt.ID.String()),
			zap.Error(err),
		)
		return
	}

	if err := w.repo.MarkOutboxProcessed(ctx, evt.ID); err != nil {
		w.log.Warn("⚠️ No se pudo marcar evento como procesado",
			zap.String("event_id", evt.ID.String()),
			zap.Error(err),
		)
		return
	}
	w.log.Debug("✅ Evento publicado y marcado", zap.String("event_id", evt.ID.String()))
}

// discard marca como procesado un evento que nunca se podrá publicar.
func (w *Worker) discard(ctx context.Context, evt sharedDomain.OutboxEvent) {
	if err := w.repo.MarkOutboxProcessed(ctx, evt.ID); err != nil {
		w.log.Warn("⚠️ No se pudo descartar evento",
			zap.String("event_id", evt.ID.String()),
			zap.Error(err),
		)
	}
}

// toIntegrationEvent valida el payload contra el tipo registrado y lo mete en el sobre común.
func (w *Worker) toIntegrationEvent(evt sharedDomain.OutboxEvent, metadata sharedEvents.EventMetadata) (sharedEvents.IntegrationEvent, error) {
	raw, err := json.Marshal(evt.Payload)
	if err != nil {
		return sharedEvents.IntegrationEvent{}, err
	}

	typed := reflect.New(metadata.Type).Interface()
	if err := json.Unmarshal(raw, typed); err != nil {
		return sharedEvents.IntegrationEvent{}, err
	}

	data, err := json.Marshal(typed)
	if err != nil {
		return sharedEvents.IntegrationEvent{}, err
	}

	return sharedEvents.IntegrationEvent{
		Type:        evt.EventType,
		AggregateID: evt.AggregateID,
		Timestamp:   evt.CreatedAt,
		Data:        data,
	}, nil
}
