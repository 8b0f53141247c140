package domain

import (
	"strings"
	"time"
	"unicode/utf8"

	sharedDomain "github.com/davicafu/taskdesk/internal/shared/domain"
)

const MaxTitleLength = 255

// Formatos ISO-8601 aceptados para la fecha límite. Sin zona se interpreta como UTC.
var dueDateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// ValidateTask comprueba un registro ya construido.
func ValidateTask(t *Task) error {
	if err := validateTitle(t.Title); err != nil {
		return err
	}
	if t.DueDate.IsZero() {
		return sharedDomain.NewValidationError("Due date is required")
	}
	if !t.Status.IsValid() {
		return sharedDomain.NewValidationError(
			"Invalid task status. Must be one of: pending, in-progress, completed")
	}
	return nil
}

func validateTitle(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return sharedDomain.NewValidationError("Task title is required")
	}
	if utf8.RuneCountInString(title) > MaxTitleLength {
		return sharedDomain.NewValidationError("Task title is too long (max 255 characters)")
	}
	return nil
}

// ParseDueDate interpreta una fecha ISO-8601.
func ParseDueDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, sharedDomain.NewValidationError("Due date is required")
	}
	for _, layout := range dueDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return stamp(t), nil
		}
	}
	return time.Time{}, sharedDomain.NewValidationError("Invalid due date format")
}

func parseFutureDueDate(raw string, now time.Time) (time.Time, error) {
	due, err := ParseDueDate(raw)
	if err != nil {
		return time.Time{}, err
	}
	if due.Before(now) {
		return time.Time{}, sharedDomain.NewValidationError("Due date cannot be in the past")
	}
	return due, nil
}
