package domain

import (
	"reflect"
	"time"

	"github.com/google/uuid"

	sharedEvents "github.com/davicafu/taskdesk/internal/shared/domain/events"
)

const (
	TaskCreated = "task.created"
	TaskUpdated = "task.updated"
	TaskDeleted = "task.deleted"
)

const TaskTopic = "task"

// TaskSnapshot es el payload de task.created y task.updated: la tarea sin sus relaciones.
type TaskSnapshot struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Responsible string     `json:"responsible"`
	Status      TaskStatus `json:"status"`
	DueDate     time.Time  `json:"dueDate"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// TaskRef es el payload de task.deleted.
type TaskRef struct {
	ID uuid.UUID `json:"id"`
}

func SnapshotOf(t *Task) TaskSnapshot {
	return TaskSnapshot{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Responsible: t.Responsible,
		Status:      t.Status,
		DueDate:     t.DueDate,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func NewEventRegistry() map[string]sharedEvents.EventMetadata {
	return map[string]sharedEvents.EventMetadata{
		TaskCreated: {Type: reflect.TypeOf(TaskSnapshot{}), Topic: TaskTopic},
		TaskUpdated: {Type: reflect.TypeOf(TaskSnapshot{}), Topic: TaskTopic},
		TaskDeleted: {Type: reflect.TypeOf(TaskRef{}), Topic: TaskTopic},
	}
}
