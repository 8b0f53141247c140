package domain

import (
	"reflect"

	"github.com/google/uuid"

	sharedEvents "github.com/davicafu/taskdesk/internal/shared/domain/events"
)

const (
	CommentCreated = "comment.created"
	CommentUpdated = "comment.updated"
	CommentDeleted = "comment.deleted"
)

const CommentTopic = "comment"

// CommentRef es el payload de comment.deleted.
type CommentRef struct {
	ID     uuid.UUID `json:"id"`
	TaskID uuid.UUID `json:"taskId"`
}

func NewEventRegistry() map[string]sharedEvents.EventMetadata {
	return map[string]sharedEvents.EventMetadata{
		CommentCreated: {Type: reflect.TypeOf(Comment{}), Topic: CommentTopic},
		CommentUpdated: {Type: reflect.TypeOf(Comment{}), Topic: CommentTopic},
		CommentDeleted: {Type: reflect.TypeOf(CommentRef{}), Topic: CommentTopic},
	}
}
