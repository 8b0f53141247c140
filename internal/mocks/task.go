package mocks

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"

	sharedDomain "github.com/davicafu/taskdesk/internal/shared/domain"
	taskDomain "github.com/davicafu/taskdesk/internal/task/domain"
)

// InMemoryTaskRepo simula TaskRepository con outbox incluido.
type InMemoryTaskRepo struct {
	Tasks         map[uuid.UUID]taskDomain.Task
	Outbox        []sharedDomain.OutboxEvent
	FindByIDCalls int
	// FailWith hace que todas las operaciones devuelvan este error.
	FailWith error
	mu       sync.Mutex
}

var _ taskDomain.TaskRepository = (*InMemoryTaskRepo)(nil)

func NewInMemoryTaskRepo() *InMemoryTaskRepo {
	return &InMemoryTaskRepo{Tasks: make(map[uuid.UUID]taskDomain.Task)}
}

func (r *InMemoryTaskRepo) FindAll(ctx context.Context, criteria sharedDomain.Criteria) ([]taskDomain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailWith != nil {
		return nil, r.FailWith
	}

	var conds []sharedDomain.Criterion
	if criteria != nil {
		conds = criteria.ToConditions()
	}

	list := make([]taskDomain.Task, 0, len(r.Tasks))
	for _, t := range r.Tasks {
		if matchTask(t, conds) {
			list = append(list, t)
		}
	}
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	return list, nil
}

func (r *InMemoryTaskRepo) FindByID(ctx context.Context, id uuid.UUID) (*taskDomain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.FindByIDCalls++
	if r.FailWith != nil {
		return nil, r.FailWith
	}

	t, ok := r.Tasks[id]
	if !ok {
		return nil, sharedDomain.NewNotFoundError("Task not found", id.String(), taskDomain.ErrTaskNotFound)
	}
	return &t, nil
}

func (r *InMemoryTaskRepo) Create(ctx context.Context, t *taskDomain.Task, evt sharedDomain.OutboxEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailWith != nil {
		return r.FailWith
	}
	r.Tasks[t.ID] = *t
	r.Outbox = append(r.Outbox, evt)
	return nil
}

func (r *InMemoryTaskRepo) Update(ctx context.Context, t *taskDomain.Task, evt sharedDomain.OutboxEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailWith != nil {
		return r.FailWith
	}
	if _, ok := r.Tasks[t.ID]; !ok {
		return sharedDomain.NewNotFoundError("Task not found", t.ID.String(), taskDomain.ErrTaskNotFound)
	}
	r.Tasks[t.ID] = *t
	r.Outbox = append(r.Outbox, evt)
	return nil
}

func (r *InMemoryTaskRepo) Delete(ctx context.Context, id uuid.UUID, evt sharedDomain.OutboxEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.FailWith != nil {
		return r.FailWith
	}
	if _, ok := r.Tasks[id]; !ok {
		return sharedDomain.NewNotFoundError("Task not found", id.String(), taskDomain.ErrTaskNotFound)
	}
	delete(r.Tasks, id)
	r.Outbox = append(r.Outbox, evt)
	return nil
}

var likeUnescaper = strings.NewReplacer(`\\`, `\`, `\%`, "%", `\_`, "_")

func matchTask(t taskDomain.Task, conds []sharedDomain.Criterion) bool {
	for _, cond := range conds {
		val, _ := cond.Value.(string)
		switch cond.Field {
		case "status":
			if string(t.Status) != val {
				return false
			}
		case "responsible":
			if t.Responsible != val {
				return false
			}
		case "title":
			if !strings.Contains(strings.ToLower(t.Title), likeUnescaper.Replace(strings.TrimSuffix(strings.TrimPrefix(val, "%"), "%"))) {
				return false
			}
		}
	}
	return true
}
