package domain

import (
	"errors"
	"fmt"

	sharedDomain "github.com/davicafu/taskdesk/internal/shared/domain"
)

type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in-progress"
	TaskCompleted  TaskStatus = "completed"
)

var validStatuses = []TaskStatus{TaskPending, TaskInProgress, TaskCompleted}

// transitions es la máquina de estados de una tarea. No hay estado final:
// una tarea completada se puede reabrir pasando a in-progress.
var transitions = map[TaskStatus][]TaskStatus{
	TaskPending:    {TaskInProgress, TaskCompleted},
	TaskInProgress: {TaskPending, TaskCompleted},
	TaskCompleted:  {TaskInProgress},
}

func (s TaskStatus) IsValid() bool {
	for _, v := range validStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// ParseStatus convierte la entrada del cliente en un estado conocido.
func ParseStatus(raw string) (TaskStatus, error) {
	s := TaskStatus(raw)
	if !s.IsValid() {
		return "", sharedDomain.NewValidationError(
			"Invalid task status. Must be one of: pending, in-progress, completed")
	}
	return s, nil
}

// CanChangeStatus indica si la transición está permitida. Quedarse en el mismo estado no es una transición.
func CanChangeStatus(from, to TaskStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// StatusGuard decide si un cambio de estado se acepta en una actualización.
type StatusGuard func(from, to TaskStatus) bool

// ErrInvalidTransition es el sentinel que envuelven los conflictos de estado.
var ErrInvalidTransition = errors.New("invalid status transition")

func transitionError(from, to TaskStatus) error {
	return sharedDomain.NewConflictError(
		fmt.Sprintf("Cannot change task status from %s to %s", from, to),
		ErrInvalidTransition,
	)
}
