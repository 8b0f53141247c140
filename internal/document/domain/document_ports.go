package domain

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/google/uuid"

	sharedDomain "github.com/davicafu/taskdesk/internal/shared/domain"
)

var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrFileMissing      = errors.New("stored file is missing")
)

// FileCleanup es un fichero pendiente de borrar tras eliminar su documento.
type FileCleanup struct {
	DocumentID uuid.UUID
	FilePath   string
	CreatedAt  time.Time
}

// DocumentRepository persiste los metadatos. Delete deja encolado el borrado del fichero
// en la misma transacción que elimina la fila.
type DocumentRepository interface {
	Create(ctx context.Context, d *Document, evt sharedDomain.OutboxEvent) error
	FindByID(ctx context.Context, id uuid.UUID) (*Document, error)
	FindByTaskID(ctx context.Context, taskID uuid.UUID) ([]Document, error)
	Delete(ctx context.Context, id uuid.UUID, evt sharedDomain.OutboxEvent) (*Document, error)

	FetchPendingCleanups(ctx context.Context, limit int) ([]FileCleanup, error)
	MarkCleanupDone(ctx context.Context, documentID uuid.UUID) error
}

// BlobStorage guarda el contenido de los ficheros subidos.
type BlobStorage interface {
	// Save escribe el contenido y devuelve la referencia que se guarda en FilePath.
	Save(ctx context.Context, originalName string, content io.Reader) (string, error)
	// Remove borra el fichero. Un fichero que ya no existe no es un error.
	Remove(ctx context.Context, filePath string) error
	// Resolve devuelve la ruta en disco, o ErrFileMissing.
	Resolve(filePath string) (string, error)
}
