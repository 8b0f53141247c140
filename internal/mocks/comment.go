package mocks

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	commentDomain "github.com/davicafu/taskdesk/internal/comment/domain"
	sharedDomain "github.com/davicafu/taskdesk/internal/shared/domain"
)

// InMemoryCommentRepo simula CommentRepository y cuenta cuántas veces se usa.
type InMemoryCommentRepo struct {
	Comments map[uuid.UUID]commentDomain.Comment
	Outbox   []sharedDomain.OutboxEvent
	Calls    int
	mu       sync.Mutex
}

var _ commentDomain.CommentRepository = (*InMemoryCommentRepo)(nil)

func NewInMemoryCommentRepo() *InMemoryCommentRepo {
	return &InMemoryCommentRepo{Comments: make(map[uuid.UUID]commentDomain.Comment)}
}

func (r *InMemoryCommentRepo) Create(ctx context.Context, c *commentDomain.Comment, evt sharedDomain.OutboxEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Calls++
	r.Comments[c.ID] = *c
	r.Outbox = append(r.Outbox, evt)
	return nil
}

func (r *InMemoryCommentRepo) Update(ctx context.Context, c *commentDomain.Comment, evt sharedDomain.OutboxEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Calls++
	if _, ok := r.Comments[c.ID]; !ok {
		return notFoundComment(c.ID)
	}
	r.Comments[c.ID] = *c
	r.Outbox = append(r.Outbox, evt)
	return nil
}

func (r *InMemoryCommentRepo) FindByID(ctx context.Context, id uuid.UUID) (*commentDomain.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Calls++
	c, ok := r.Comments[id]
	if !ok {
		return nil, notFoundComment(id)
	}
	return &c, nil
}

func (r *InMemoryCommentRepo) FindByTaskID(ctx context.Context, taskID uuid.UUID) ([]commentDomain.Comment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Calls++
	list := []commentDomain.Comment{}
	for _, c := range r.Comments {
		if c.TaskID == taskID {
			list = append(list, c)
		}
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return list, nil
}

func (r *InMemoryCommentRepo) Delete(ctx context.Context, id uuid.UUID, evt sharedDomain.OutboxEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Calls++
	if _, ok := r.Comments[id]; !ok {
		return notFoundComment(id)
	}
	delete(r.Comments, id)
	r.Outbox = append(r.Outbox, evt)
	return nil
}

func notFoundComment(id uuid.UUID) error {
	return sharedDomain.NewNotFoundError("Comment not found", id.String(), commentDomain.ErrCommentNotFound)
}
