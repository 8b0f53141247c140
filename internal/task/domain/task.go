package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"

	commentDomain "github.com/davicafu/taskdesk/internal/comment/domain"
	documentDomain "github.com/davicafu/taskdesk/internal/document/domain"
)

// Task es el agregado principal. Documents y Comments solo se rellenan en lecturas.
type Task struct {
	ID          uuid.UUID                 `json:"id"`
	Title       string                    `json:"title"`
	Description string                    `json:"description"`
	Responsible string                    `json:"responsible"`
	Status      TaskStatus                `json:"status"`
	DueDate     time.Time                 `json:"dueDate"`
	CreatedAt   time.Time                 `json:"createdAt"`
	UpdatedAt   time.Time                 `json:"updatedAt"`
	Documents   []documentDomain.Document `json:"documents"`
	Comments    []commentDomain.Comment   `json:"comments"`
}

// TaskInput son los campos que aporta el cliente al crear. DueDate llega como texto ISO-8601.
type TaskInput struct {
	Title       string
	Description string
	Responsible string
	Status      string
	DueDate     string
}

// TaskPatch es un merge parcial: los campos nil conservan su valor.
type TaskPatch struct {
	Title       *string
	Description *string
	Responsible *string
	Status      *string
	DueDate     *string
}

// NewTask construye una tarea válida. El estado por defecto es pending.
func NewTask(input TaskInput, now time.Time) (*Task, error) {
	now = stamp(now)

	if err := validateTitle(input.Title); err != nil {
		return nil, err
	}
	due, err := parseFutureDueDate(input.DueDate, now)
	if err != nil {
		return nil, err
	}

	status := TaskPending
	if strings.TrimSpace(input.Status) != "" {
		if status, err = ParseStatus(input.Status); err != nil {
			return nil, err
		}
	}

	t := &Task{
		ID:          uuid.New(),
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		Responsible: strings.TrimSpace(input.Responsible),
		Status:      status,
		DueDate:     due,
		CreatedAt:   now,
		UpdatedAt:   now,
		Documents:   []documentDomain.Document{},
		Comments:    []commentDomain.Comment{},
	}
	if err := ValidateTask(t); err != nil {
		return nil, err
	}
	return t, nil
}

// UpdateTask aplica el patch sobre una copia y revalida el resultado completo.
// La fecha límite solo se exige futura cuando el patch la cambia; así una tarea
// vencida se puede seguir completando. Con guard nil no se controlan las transiciones.
func UpdateTask(existing Task, patch TaskPatch, now time.Time, guard StatusGuard) (*Task, error) {
	updated := existing
	now = stamp(now)

	if patch.Title != nil {
		if err := validateTitle(*patch.Title); err != nil {
			return nil, err
		}
		updated.Title = *patch.Title
	}
	if patch.Description != nil {
		updated.Description = *patch.Description
	}
	if patch.Responsible != nil {
		updated.Responsible = *patch.Responsible
	}
	if patch.Status != nil {
		s, err := ParseStatus(*patch.Status)
		if err != nil {
			return nil, err
		}
		if guard != nil && s != existing.Status && !guard(existing.Status, s) {
			return nil, transitionError(existing.Status, s)
		}
		updated.Status = s
	}
	if patch.DueDate != nil {
		due, err := parseFutureDueDate(*patch.DueDate, now)
		if err != nil {
			return nil, err
		}
		updated.DueDate = due
	}

	updated.Title = strings.TrimSpace(updated.Title)
	updated.Description = strings.TrimSpace(updated.Description)
	updated.Responsible = strings.TrimSpace(updated.Responsible)
	updated.UpdatedAt = now
	if existing.UpdatedAt.After(now) {
		updated.UpdatedAt = existing.UpdatedAt
	}

	if err := ValidateTask(&updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// IsOverdue: vencida y sin completar.
func IsOverdue(t *Task, now time.Time) bool {
	return t.DueDate.Before(now) && t.Status != TaskCompleted
}

// stamp normaliza las fechas a UTC con precisión de milisegundos, la misma que se guarda.
func stamp(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}
