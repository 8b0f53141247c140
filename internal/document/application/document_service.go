package application

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	documentDomain "github.com/davicafu/taskdesk/internal/document/domain"
	sharedDomain "github.com/davicafu/taskdesk/internal/shared/domain"
	sharedCache "github.com/davicafu/taskdesk/internal/shared/infra/platform/cache"
	taskDomain "github.com/davicafu/taskdesk/internal/task/domain"
)

// TaskFinder es lo único que este servicio necesita del repositorio de tareas.
type TaskFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*taskDomain.Task, error)
}

type DocumentService struct {
	repo   documentDomain.DocumentRepository
	blobs  documentDomain.BlobStorage
	tasks  TaskFinder
	policy documentDomain.UploadPolicy
	cache  sharedCache.Cache
	log    *zap.Logger
	now    func() time.Time
}

func NewDocumentService(
	repo documentDomain.DocumentRepository,
	blobs documentDomain.BlobStorage,
	tasks TaskFinder,
	policy documentDomain.UploadPolicy,
	cache sharedCache.Cache,
	log *zap.Logger,
) *DocumentService {
	return &DocumentService{
		repo:   repo,
		blobs:  blobs,
		tasks:  tasks,
		policy: policy,
		cache:  cache,
		log:    log,
		now:    time.Now,
	}
}

// UploadDocument valida el fichero antes de tocar disco o base de datos.
// Si la fila no se puede guardar, el fichero ya escrito se borra.
func (s *DocumentService) UploadDocument(ctx context.Context, taskID uuid.UUID, upload documentDomain.Upload, content io.Reader) (*documentDomain.Document, error) {
	if err := s.policy.Validate(upload); err != nil {
		return nil, err
	}
	if _, err := s.tasks.FindByID(ctx, taskID); err != nil {
		if sharedDomain.IsKind(err, sharedDomain.KindNotFound) {
			return nil, sharedDomain.NewNotFoundError("Task not found", taskID.String(), taskDomain.ErrTaskNotFound)
		}
		return nil, err
	}

	filePath, err := s.blobs.Save(ctx, upload.Name, content)
	if err != nil {
		s.log.Error("Failed to store uploaded file", zap.String("task_id", taskID.String()), zap.Error(err))
		return nil, sharedDomain.NewStorageError("document.save_file", taskID.String(), err)
	}

	doc, err := documentDomain.NewDocument(taskID, upload, filePath, s.now())
	if err == nil {
		evt := sharedDomain.NewOutboxEvent(documentDomain.DocumentTopic, doc.ID.String(), documentDomain.DocumentUploaded, doc, doc.UploadDate)
		err = s.repo.Create(ctx, doc, evt)
	}
	if err != nil {
		if rmErr := s.blobs.Remove(ctx, filePath); rmErr != nil {
			s.log.Warn("Failed to remove orphan upload", zap.String("file", filePath), zap.Error(rmErr))
		}
		return nil, err
	}

	sharedCache.Invalidate(ctx, s.cache, s.log, taskDomain.TaskCacheKeyByID(taskID))
	s.log.Info("Document uploaded",
		zap.String("document_id", doc.ID.String()),
		zap.String("task_id", taskID.String()),
		zap.Int64("size", doc.Size))
	return doc, nil
}

// ListTaskDocuments devuelve los documentos de la tarea, los más recientes primero.
func (s *DocumentService) ListTaskDocuments(ctx context.Context, taskID uuid.UUID) ([]documentDomain.Document, error) {
	return s.repo.FindByTaskID(ctx, taskID)
}

// DeleteDocument borra la fila y encola el fichero en la misma transacción.
// Después intenta borrar el fichero; si falla, el sweeper lo reintentará.
func (s *DocumentService) DeleteDocument(ctx context.Context, id uuid.UUID) error {
	evt := sharedDomain.NewOutboxEvent(documentDomain.DocumentTopic, id.String(), documentDomain.DocumentDeleted,
		documentDomain.DocumentRef{ID: id}, s.now())

	doc, err := s.repo.Delete(ctx, id, evt)
	if err != nil {
		if !sharedDomain.IsKind(err, sharedDomain.KindNotFound) {
			s.log.Error("Failed to delete document", zap.String("document_id", id.String()), zap.Error(err))
		}
		return err
	}

	sharedCache.Invalidate(ctx, s.cache, s.log, taskDomain.TaskCacheKeyByID(doc.TaskID))

	if err := s.blobs.Remove(ctx, doc.FilePath); err != nil {
		s.log.Warn("File removal deferred to sweeper",
			zap.String("document_id", id.String()),
			zap.String("file", doc.FilePath),
			zap.Error(err))
		return nil
	}
	if err := s.repo.MarkCleanupDone(ctx, id); err != nil {
		s.log.Warn("Failed to mark cleanup done", zap.String("document_id", id.String()), zap.Error(err))
	}
	return nil
}

// GetDocumentPath devuelve la ruta en disco del fichero de un documento.
// Un fichero desaparecido es un fallo del almacén, no un 404.
func (s *DocumentService) GetDocumentPath(ctx context.Context, id uuid.UUID) (string, *documentDomain.Document, error) {
	doc, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return "", nil, err
	}

	path, err := s.blobs.Resolve(doc.FilePath)
	if err != nil {
		if errors.Is(err, documentDomain.ErrFileMissing) {
			s.log.Error("Document file missing", zap.String("document_id", id.String()), zap.String("file", doc.FilePath))
		}
		return "", nil, sharedDomain.NewStorageError("document.resolve_file", id.String(), err)
	}
	return path, doc, nil
}
