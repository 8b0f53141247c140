package domain

import (
	"reflect"

	"github.com/google/uuid"

	sharedEvents "github.com/davicafu/taskdesk/internal/shared/domain/events"
)

const (
	DocumentUploaded = "document.uploaded"
	DocumentDeleted  = "document.deleted"
)

const DocumentTopic = "document"

// DocumentRef es el payload de document.deleted.
type DocumentRef struct {
	ID     uuid.UUID `json:"id"`
	TaskID uuid.UUID `json:"taskId"`
}

func NewEventRegistry() map[string]sharedEvents.EventMetadata {
	return map[string]sharedEvents.EventMetadata{
		DocumentUploaded: {Type: reflect.TypeOf(Document{}), Topic: DocumentTopic},
		DocumentDeleted:  {Type: reflect.TypeOf(DocumentRef{}), Topic: DocumentTopic},
	}
}
