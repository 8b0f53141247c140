package domain

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	sharedDomain "github.com/davicafu/taskdesk/internal/shared/domain"
)

const (
	MaxAuthorLength  = 100
	MaxContentLength = 1000
)

type Comment struct {
	ID        uuid.UUID `json:"id"`
	TaskID    uuid.UUID `json:"taskId"`
	Author    string    `json:"author"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CommentInput son los campos que aporta el cliente al crear.
type CommentInput struct {
	Author  string
	Content string
}

// CommentPatch es un merge parcial: los campos nil no se tocan.
type CommentPatch struct {
	Author  *string
	Content *string
}

// NewComment recorta los campos, asigna id y fechas y valida el resultado.
func NewComment(input CommentInput, taskID uuid.UUID, now time.Time) (*Comment, error) {
	now = now.UTC().Truncate(time.Millisecond)
	c := &Comment{
		ID:        uuid.New(),
		TaskID:    taskID,
		Author:    strings.TrimSpace(input.Author),
		Content:   strings.TrimSpace(input.Content),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := ValidateComment(c); err != nil {
		return nil, err
	}
	return c, nil
}

// UpdateComment devuelve una copia con el patch aplicado. El original no se modifica.
func UpdateComment(existing Comment, patch CommentPatch, now time.Time) (*Comment, error) {
	updated := existing
	if patch.Author != nil {
		updated.Author = *patch.Author
	}
	if patch.Content != nil {
		updated.Content = *patch.Content
	}
	updated.Author = strings.TrimSpace(updated.Author)
	updated.Content = strings.TrimSpace(updated.Content)
	updated.UpdatedAt = laterOf(now.UTC().Truncate(time.Millisecond), existing.UpdatedAt)

	if err := ValidateComment(&updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

func ValidateComment(c *Comment) error {
	switch {
	case strings.TrimSpace(c.Author) == "":
		return sharedDomain.NewValidationError("Comment author is required")
	case utf8.RuneCountInString(c.Author) > MaxAuthorLength:
		return sharedDomain.NewValidationError("Comment author name is too long (max 100 characters)")
	case strings.TrimSpace(c.Content) == "":
		return sharedDomain.NewValidationError("Comment content is required")
	case utf8.RuneCountInString(c.Content) > MaxContentLength:
		return sharedDomain.NewValidationError("Comment content is too long (max 1000 characters)")
	case c.TaskID == uuid.Nil:
		return sharedDomain.NewValidationError("Task ID is required for comment")
	case c.CreatedAt.IsZero():
		return sharedDomain.NewValidationError("Invalid creation date format")
	case c.UpdatedAt.IsZero():
		return sharedDomain.NewValidationError("Invalid update date format")
	}
	return nil
}

func laterOf(a, b time.Time) time.Time {
	if b.After(a) {
		return b
	}
	return a
}
