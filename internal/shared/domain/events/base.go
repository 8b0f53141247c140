package events

import (
	"encoding/json"
	"reflect"
	"time"
)

// IntegrationEvent es el sobre que viaja por el bus.
type IntegrationEvent struct {
	Type        string          `json:"type"`
	AggregateID string          `json:"aggregate_id"`
	Timestamp   time.Time       `json:"timestamp"`
	Data        json.RawMessage `json:"data"`
}

// PartitionKey agrupa en Kafka los eventos del mismo agregado.
func (e IntegrationEvent) PartitionKey() string {
	return e.AggregateID
}

// EventMetadata asocia un tipo de evento con su payload y su topic.
type EventMetadata struct {
	Type  reflect.Type
	Topic string
}

// MergeRegistries une los registros de cada dominio en uno solo.
func MergeRegistries(registries ...map[string]EventMetadata) map[string]EventMetadata {
	merged := make(map[string]EventMetadata)
	for _, r := range registries {
		for k, v := range r {
			merged[k] = v
		}
	}
	return merged
}
