package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	sharedDomain "github.com/davicafu/taskdesk/internal/shared/domain"
	sharedCache "github.com/davicafu/taskdesk/internal/shared/infra/platform/cache"
	sharedUtils "github.com/davicafu/taskdesk/internal/shared/infra/utils"
	taskDomain "github.com/davicafu/taskdesk/internal/task/domain"
)

const (
	taskCacheTTL  = 120 // segundos
	readAttempts  = 3
	readRetryWait = 100 * time.Millisecond
)

// TaskService define los casos de uso relacionados con Task.
// Incorpora repositorio, caché y logger.
type TaskService struct {
	repo  taskDomain.TaskRepository
	cache sharedCache.Cache
	log   *zap.Logger
	guard taskDomain.StatusGuard
	group singleflight.Group
	now   func() time.Time
}

// NewTaskService es el constructor para el servicio de tareas.
// Con enforceTransitions a false cualquier cambio de estado válido se acepta.
func NewTaskService(repo taskDomain.TaskRepository, cache sharedCache.Cache, log *zap.Logger, enforceTransitions bool) *TaskService {
	s := &TaskService{
		repo:  repo,
		cache: cache,
		log:   log,
		now:   time.Now,
	}
	if enforceTransitions {
		s.guard = taskDomain.CanChangeStatus
	}
	return s
}

// ListTasks devuelve las tareas con sus documentos y comentarios.
func (s *TaskService) ListTasks(ctx context.Context, criteria sharedDomain.Criteria) ([]taskDomain.Task, error) {
	tasks, err := s.repo.FindAll(ctx, criteria)
	if err != nil {
		s.log.Error("Failed to list tasks", zap.Error(err))
		return nil, err
	}
	return tasks, nil
}

// GetTask obtiene una tarea usando cache-aside con reintentos.
// Las lecturas concurrentes de la misma tarea comparten una única consulta.
func (s *TaskService) GetTask(ctx context.Context, id uuid.UUID) (*taskDomain.Task, error) {
	key := taskDomain.TaskCacheKeyByID(id)

	if s.cache != nil {
		var cached taskDomain.Task
		if hit, err := s.cache.Get(ctx, key, &cached); err != nil {
			s.log.Warn("Cache read failed", zap.String("key", key), zap.Error(err))
		} else if hit {
			return &cached, nil
		}
	}

	mine := sharedCache.BeginFill(key)
	defer mine.Done()

	read, err := s.loadShared(ctx, key, id)
	// Si la lectura compartida empezó antes de una invalidación que ya vemos, se repite.
	if err == nil && mine.InvalidatedAfter(read.at) {
		s.group.Forget(key)
		read, err = s.loadShared(ctx, key, id)
	}
	if err != nil {
		if sharedDomain.IsKind(err, sharedDomain.KindNotFound) {
			s.log.Warn("Task not found", zap.String("task_id", id.String()))
		} else {
			s.log.Error("Failed to fetch task", zap.String("task_id", id.String()), zap.Error(err))
		}
		return nil, err
	}

	// copia para que quien llame no comparta el puntero con otras peticiones del grupo
	out := *read.task
	return &out, nil
}

type sharedRead struct {
	task *taskDomain.Task
	at   uint64
}

// loadShared lee la tarea una sola vez para todas las peticiones concurrentes de la clave
// y rellena la caché si nadie la invalidó mientras tanto.
func (s *TaskService) loadShared(ctx context.Context, key string, id uuid.UUID) (sharedRead, error) {
	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		ticket := sharedCache.BeginFill(key)

		var task *taskDomain.Task
		err := sharedUtils.Retry(ctx, readAttempts, readRetryWait, isTransient, func() error {
			var errRetry error
			task, errRetry = s.repo.FindByID(ctx, id)
			return errRetry
		})
		if err != nil {
			ticket.Done()
			return nil, err
		}

		sharedCache.AsyncCacheFill(s.cache, ticket, task, taskCacheTTL, s.log)
		return sharedRead{task: task, at: ticket.At()}, nil
	})
	if err != nil {
		return sharedRead{}, err
	}
	return v.(sharedRead), nil
}

// CreateTask crea la tarea y su evento de outbox en la misma transacción.
func (s *TaskService) CreateTask(ctx context.Context, input taskDomain.TaskInput) (*taskDomain.Task, error) {
	task, err := taskDomain.NewTask(input, s.now())
	if err != nil {
		return nil, err
	}

	evt := sharedDomain.NewOutboxEvent(taskDomain.TaskTopic, task.ID.String(), taskDomain.TaskCreated,
		taskDomain.SnapshotOf(task), task.CreatedAt)

	if err := s.repo.Create(ctx, task, evt); err != nil {
		s.log.Error("Failed to create task", zap.Error(err))
		return nil, err
	}

	s.log.Info("Task created", zap.String("task_id", task.ID.String()))
	return task, nil
}

// UpdateTask aplica un patch parcial. Dos PUT simultáneos sobre la misma tarea
// no se detectan: gana la última escritura.
func (s *TaskService) UpdateTask(ctx context.Context, id uuid.UUID, patch taskDomain.TaskPatch) (*taskDomain.Task, error) {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	updated, err := taskDomain.UpdateTask(*existing, patch, s.now(), s.guard)
	if err != nil {
		return nil, err
	}

	evt := sharedDomain.NewOutboxEvent(taskDomain.TaskTopic, id.String(), taskDomain.TaskUpdated,
		taskDomain.SnapshotOf(updated), updated.UpdatedAt)

	if err := s.repo.Update(ctx, updated, evt); err != nil {
		s.log.Error("Failed to update task", zap.String("task_id", id.String()), zap.Error(err))
		return nil, err
	}

	sharedCache.Invalidate(ctx, s.cache, s.log, taskDomain.TaskCacheKeyByID(id))
	return updated, nil
}

// DeleteTask borra la tarea. Documentos y comentarios caen por cascada y los
// ficheros quedan encolados para el sweeper.
func (s *TaskService) DeleteTask(ctx context.Context, id uuid.UUID) error {
	evt := sharedDomain.NewOutboxEvent(taskDomain.TaskTopic, id.String(), taskDomain.TaskDeleted,
		taskDomain.TaskRef{ID: id}, s.now())

	if err := s.repo.Delete(ctx, id, evt); err != nil {
		if !sharedDomain.IsKind(err, sharedDomain.KindNotFound) {
			s.log.Error("Failed to delete task", zap.String("task_id", id.String()), zap.Error(err))
		}
		return err
	}

	sharedCache.Invalidate(ctx, s.cache, s.log, taskDomain.TaskCacheKeyByID(id))
	s.log.Info("Task deleted", zap.String("task_id", id.String()))
	return nil
}

// isTransient: solo se reintentan los fallos del almacén.
func isTransient(err error) bool {
	return sharedDomain.KindOf(err) == sharedDomain.KindStorage
}
