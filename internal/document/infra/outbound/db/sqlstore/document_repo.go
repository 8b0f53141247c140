package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	documentDomain "github.com/davicafu/taskdesk/internal/document/domain"
	sharedDomain "github.com/davicafu/taskdesk/internal/shared/domain"
	sharedDB "github.com/davicafu/taskdesk/internal/shared/infra/platform/db"
)

// Columns es la proyección que comparten este repositorio y el agregado de tareas.
const Columns = "id, task_id, name, size, file_path, upload_date"

// Row es una fila de la tabla documents.
type Row struct {
	ID         string `db:"id"`
	TaskID     string `db:"task_id"`
	Name       string `db:"name"`
	Size       int64  `db:"size"`
	FilePath   string `db:"file_path"`
	UploadDate string `db:"upload_date"`
}

// ToDomain convierte la fila en entidad.
func (r Row) ToDomain() (documentDomain.Document, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return documentDomain.Document{}, fmt.Errorf("invalid document id %q: %w", r.ID, err)
	}
	taskID, err := uuid.Parse(r.TaskID)
	if err != nil {
		return documentDomain.Document{}, fmt.Errorf("invalid task id %q: %w", r.TaskID, err)
	}
	uploaded, err := sharedDB.ParseTime(r.UploadDate)
	if err != nil {
		return documentDomain.Document{}, err
	}
	return documentDomain.Document{
		ID:         id,
		TaskID:     taskID,
		Name:       r.Name,
		Size:       r.Size,
		FilePath:   r.FilePath,
		UploadDate: uploaded,
	}, nil
}

// RowsToDomain convierte un lote de filas.
func RowsToDomain(rows []Row) ([]documentDomain.Document, error) {
	docs := make([]documentDomain.Document, 0, len(rows))
	for _, row := range rows {
		d, err := row.ToDomain()
		if err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, nil
}

// DocumentRepo implementa documentDomain.DocumentRepository sobre sqlx.
type DocumentRepo struct {
	db sharedDB.Conn
}

var _ documentDomain.DocumentRepository = (*DocumentRepo)(nil)

func NewDocumentRepo(db sharedDB.Conn) *DocumentRepo {
	return &DocumentRepo{db: db}
}

// Create inserta los metadatos y su evento en una transacción.
func (r *DocumentRepo) Create(ctx context.Context, d *documentDomain.Document, evt sharedDomain.OutboxEvent) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return sharedDomain.NewStorageError("document.create", d.ID.String(), err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, tx.Rebind(
		`INSERT INTO documents (`+Columns+`) VALUES (?, ?, ?, ?, ?, ?)`),
		d.ID.String(), d.TaskID.String(), d.Name, d.Size, d.FilePath, sharedDB.FormatTime(d.UploadDate),
	)
	if err != nil {
		return sharedDomain.NewStorageError("document.create", d.ID.String(), err)
	}

	if err := sharedDB.InsertOutboxTx(ctx, tx, evt); err != nil {
		return sharedDomain.NewStorageError("document.create", d.ID.String(), err)
	}

	if err := tx.Commit(); err != nil {
		return sharedDomain.NewStorageError("document.create", d.ID.String(), err)
	}
	return nil
}

func (r *DocumentRepo) FindByID(ctx context.Context, id uuid.UUID) (*documentDomain.Document, error) {
	var row Row
	err := sqlx.GetContext(ctx, r.db, &row, r.db.Rebind(`SELECT `+Columns+` FROM documents WHERE id = ?`), id.String())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sharedDomain.NewNotFoundError("Document not found", id.String(), documentDomain.ErrDocumentNotFound)
		}
		return nil, sharedDomain.NewStorageError("document.find_by_id", id.String(), err)
	}

	d, err := row.ToDomain()
	if err != nil {
		return nil, sharedDomain.NewStorageError("document.find_by_id", id.String(), err)
	}
	return &d, nil
}

// FindByTaskID devuelve los documentos de una tarea, los más recientes primero.
func (r *DocumentRepo) FindByTaskID(ctx context.Context, taskID uuid.UUID) ([]documentDomain.Document, error) {
	var rows []Row
	err := sqlx.SelectContext(ctx, r.db, &rows, r.db.Rebind(
		`SELECT `+Columns+` FROM documents WHERE task_id = ? ORDER BY upload_date DESC, id`), taskID.String())
	if err != nil {
		return nil, sharedDomain.NewStorageError("document.find_by_task_id", taskID.String(), err)
	}

	docs, err := RowsToDomain(rows)
	if err != nil {
		return nil, sharedDomain.NewStorageError("document.find_by_task_id", taskID.String(), err)
	}
	return docs, nil
}

// Delete borra la fila, encola el borrado de su fichero y guarda el evento, todo en una transacción.
// Devuelve el documento eliminado para que el llamador pueda liberar el fichero.
func (r *DocumentRepo) Delete(ctx context.Context, id uuid.UUID, evt sharedDomain.OutboxEvent) (*documentDomain.Document, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, sharedDomain.NewStorageError("document.delete", id.String(), err)
	}
	defer tx.Rollback()

	var row Row
	err = tx.GetContext(ctx, &row, tx.Rebind(`SELECT `+Columns+` FROM documents WHERE id = ?`), id.String())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sharedDomain.NewNotFoundError("Document not found", id.String(), documentDomain.ErrDocumentNotFound)
		}
		return nil, sharedDomain.NewStorageError("document.delete", id.String(), err)
	}

	d, err := row.ToDomain()
	if err != nil {
		return nil, sharedDomain.NewStorageError("document.delete", id.String(), err)
	}
	// la tarea solo se conoce aquí; el evento la necesita para los consumidores
	if ref, ok := evt.Payload.(documentDomain.DocumentRef); ok {
		ref.TaskID = d.TaskID
		evt.Payload = ref
	}

	if err := EnqueueCleanupTx(ctx, tx, row.ID, row.FilePath, evt.CreatedAt); err != nil {
		return nil, sharedDomain.NewStorageError("document.delete", id.String(), err)
	}

	if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM documents WHERE id = ?`), id.String()); err != nil {
		return nil, sharedDomain.NewStorageError("document.delete", id.String(), err)
	}

	if err := sharedDB.InsertOutboxTx(ctx, tx, evt); err != nil {
		return nil, sharedDomain.NewStorageError("document.delete", id.String(), err)
	}

	if err := tx.Commit(); err != nil {
		return nil, sharedDomain.NewStorageError("document.delete", id.String(), err)
	}
	return &d, nil
}
