package bus

import "context"

// Keyer lo implementan los eventos que quieren elegir su clave de partición.
type Keyer interface {
	PartitionKey() string
}

// EventBus publica un evento en un topic. El formato del payload lo decide cada adapter.
type EventBus interface {
	Publish(ctx context.Context, topic string, event interface{}) error
}

// MessageHandler lo implementa cualquier consumidor de eventos.
type MessageHandler interface {
	HandleMessage(ctx context.Context, key string, payload []byte)
}
