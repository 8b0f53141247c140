package application

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	commentDomain "github.com/davicafu/taskdesk/internal/comment/domain"
	sharedDomain "github.com/davicafu/taskdesk/internal/shared/domain"
	sharedCache "github.com/davicafu/taskdesk/internal/shared/infra/platform/cache"
	taskDomain "github.com/davicafu/taskdesk/internal/task/domain"
)

// TaskFinder es lo único que este servicio necesita del repositorio de tareas.
type TaskFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*taskDomain.Task, error)
}

type CommentService struct {
	repo  commentDomain.CommentRepository
	tasks TaskFinder
	cache sharedCache.Cache
	log   *zap.Logger
	now   func() time.Time
}

func NewCommentService(repo commentDomain.CommentRepository, tasks TaskFinder, cache sharedCache.Cache, log *zap.Logger) *CommentService {
	return &CommentService{
		repo:  repo,
		tasks: tasks,
		cache: cache,
		log:   log,
		now:   time.Now,
	}
}

// CreateComment comprueba antes que la tarea existe; si no, el almacén de comentarios no se toca.
func (s *CommentService) CreateComment(ctx context.Context, taskID uuid.UUID, input commentDomain.CommentInput) (*commentDomain.Comment, error) {
	if err := s.ensureTask(ctx, taskID); err != nil {
		return nil, err
	}

	c, err := commentDomain.NewComment(input, taskID, s.now())
	if err != nil {
		return nil, err
	}

	evt := sharedDomain.NewOutboxEvent(commentDomain.CommentTopic, c.ID.String(), commentDomain.CommentCreated, c, c.CreatedAt)
	if err := s.repo.Create(ctx, c, evt); err != nil {
		s.log.Error("Failed to create comment", zap.String("task_id", taskID.String()), zap.Error(err))
		return nil, err
	}

	sharedCache.Invalidate(ctx, s.cache, s.log, taskDomain.TaskCacheKeyByID(taskID))
	return c, nil
}

// GetTaskComments lista los comentarios de una tarea existente, los más recientes primero.
func (s *CommentService) GetTaskComments(ctx context.Context, taskID uuid.UUID) ([]commentDomain.Comment, error) {
	if err := s.ensureTask(ctx, taskID); err != nil {
		return nil, err
	}
	return s.repo.FindByTaskID(ctx, taskID)
}

func (s *CommentService) UpdateComment(ctx context.Context, id uuid.UUID, patch commentDomain.CommentPatch) (*commentDomain.Comment, error) {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	updated, err := commentDomain.UpdateComment(*existing, patch, s.now())
	if err != nil {
		return nil, err
	}

	evt := sharedDomain.NewOutboxEvent(commentDomain.CommentTopic, id.String(), commentDomain.CommentUpdated, updated, updated.UpdatedAt)
	if err := s.repo.Update(ctx, updated, evt); err != nil {
		s.log.Error("Failed to update comment", zap.String("comment_id", id.String()), zap.Error(err))
		return nil, err
	}

	sharedCache.Invalidate(ctx, s.cache, s.log, taskDomain.TaskCacheKeyByID(updated.TaskID))
	return updated, nil
}

func (s *CommentService) DeleteComment(ctx context.Context, id uuid.UUID) error {
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}

	evt := sharedDomain.NewOutboxEvent(commentDomain.CommentTopic, id.String(), commentDomain.CommentDeleted,
		commentDomain.CommentRef{ID: id, TaskID: existing.TaskID}, s.now())
	if err := s.repo.Delete(ctx, id, evt); err != nil {
		if !sharedDomain.IsKind(err, sharedDomain.KindNotFound) {
			s.log.Error("Failed to delete comment", zap.String("comment_id", id.String()), zap.Error(err))
		}
		return err
	}

	sharedCache.Invalidate(ctx, s.cache, s.log, taskDomain.TaskCacheKeyByID(existing.TaskID))
	return nil
}

// ensureTask traduce la ausencia de la tarea a un not found propio del comentario.
func (s *CommentService) ensureTask(ctx context.Context, taskID uuid.UUID) error {
	if _, err := s.tasks.FindByID(ctx, taskID); err != nil {
		if sharedDomain.IsKind(err, sharedDomain.KindNotFound) {
			return sharedDomain.NewNotFoundError("Task not found", taskID.String(), taskDomain.ErrTaskNotFound)
		}
		return err
	}
	return nil
}
