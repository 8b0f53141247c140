package events

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	sharedBus "github.com/davicafu/taskdesk/internal/shared/infra/platform/bus"
)

type inMemoryMessage struct {
	key     string
	payload []byte
}

// InMemoryEventBus reparte los eventos por canales de Go, un slice de suscriptores por topic.
// Si el buffer de un suscriptor está lleno el mensaje se descarta para ese suscriptor.
type InMemoryEventBus struct {
	subscribers map[string][]chan inMemoryMessage
	mu          sync.RWMutex
	log         *zap.Logger
}

var _ sharedBus.EventBus = (*InMemoryEventBus)(nil)

func NewInMemoryEventBus(log *zap.Logger) *InMemoryEventBus {
	return &InMemoryEventBus{
		subscribers: make(map[string][]chan inMemoryMessage),
		log:         log,
	}
}

func (b *InMemoryEventBus) Publish(ctx context.Context, topic string, event interface{}) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	var key string
	if keyer, ok := event.(sharedBus.Keyer); ok {
		key = keyer.PartitionKey()
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	for _, ch := range b.subscribers[topic] {
		select {
		case ch <- inMemoryMessage{key: key, payload: payload}:
		default:
			b.log.Warn("⚠️ Suscriptor lento, evento descartado", zap.String("topic", topic))
		}
	}
	return nil
}

// Subscribe registra un handler para un topic. Hay que llamarlo antes de Run.
func (b *InMemoryEventBus) Subscribe(topic string, bufferSize int, handler sharedBus.MessageHandler) *InMemorySubscription {
	ch := make(chan inMemoryMessage, bufferSize)

	b.mu.Lock()
	b.subscribers[topic] = append(b.subscribers[topic], ch)
	b.mu.Unlock()

	return &InMemorySubscription{topic: topic, ch: ch, handler: handler, log: b.log}
}

// InMemorySubscription consume un canal del bus en memoria.
type InMemorySubscription struct {
	topic   string
	ch      chan inMemoryMessage
	handler sharedBus.MessageHandler
	log     *zap.Logger
}

// Run bloquea hasta que se cancela el contexto.
func (s *InMemorySubscription) Run(ctx context.Context) error {
	s.log.Info("🎧 Listener en memoria iniciado", zap.String("topic", s.topic))
	for {
		select {
		case <-ctx.Done():
			s.log.Info("Listener en memoria detenido", zap.String("topic", s.topic))
			return nil
		case msg := <-s.ch:
			s.handler.HandleMessage(ctx, msg.key, msg.payload)
		}
	}
}
