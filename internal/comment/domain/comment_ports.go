package domain

import (
	"context"
	"errors"

	"github.com/google/uuid"

	sharedDomain "github.com/davicafu/taskdesk/internal/shared/domain"
)

var ErrCommentNotFound = errors.New("comment not found")

type CommentRepository interface {
	Create(ctx context.Context, c *Comment, evt sharedDomain.OutboxEvent) error
	Update(ctx context.Context, c *Comment, evt sharedDomain.OutboxEvent) error
	FindByID(ctx context.Context, id uuid.UUID) (*Comment, error)
	FindByTaskID(ctx context.Context, taskID uuid.UUID) ([]Comment, error)
	Delete(ctx context.Context, id uuid.UUID, evt sharedDomain.OutboxEvent) error
}
