package sqlstore

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	documentDomain "github.com/davicafu/taskdesk/internal/document/domain"
	sharedDomain "github.com/davicafu/taskdesk/internal/shared/domain"
	sharedDB "github.com/davicafu/taskdesk/internal/shared/infra/platform/db"
)

// EnqueueCleanupTx apunta un fichero para borrarlo cuando la transacción se confirme.
func EnqueueCleanupTx(ctx context.Context, tx *sqlx.Tx, documentID, filePath string, at time.Time) error {
	_, err := tx.ExecContext(ctx, tx.Rebind(
		`INSERT INTO file_cleanups (document_id, file_path, created_at, done) VALUES (?, ?, ?, FALSE)`),
		documentID, filePath, sharedDB.FormatTime(at),
	)
	if err != nil {
		return fmt.Errorf("failed to enqueue file cleanup: %w", err)
	}
	return nil
}

// EnqueueTaskCleanupsTx encola los ficheros de todos los documentos de una tarea.
// Se llama antes de borrar la tarea, mientras las filas de documents aún existen.
func EnqueueTaskCleanupsTx(ctx context.Context, tx *sqlx.Tx, taskID string, at time.Time) error {
	_, err := tx.ExecContext(ctx, tx.Rebind(
		`INSERT INTO file_cleanups (document_id, file_path, created_at, done)
		 SELECT id, file_path, ?, FALSE FROM documents WHERE task_id = ?`),
		sharedDB.FormatTime(at), taskID,
	)
	if err != nil {
		return fmt.Errorf("failed to enqueue task file cleanups: %w", err)
	}
	return nil
}

type cleanupRow struct {
	DocumentID string `db:"document_id"`
	FilePath   string `db:"file_path"`
	CreatedAt  string `db:"created_at"`
}

// FetchPendingCleanups devuelve los ficheros aún sin borrar, los más antiguos primero.
func (r *DocumentRepo) FetchPendingCleanups(ctx context.Context, limit int) ([]documentDomain.FileCleanup, error) {
	var rows []cleanupRow
	err := sqlx.SelectContext(ctx, r.db, &rows, r.db.Rebind(
		`SELECT document_id, file_path, created_at FROM file_cleanups
		 WHERE done = FALSE ORDER BY created_at LIMIT ?`), limit)
	if err != nil {
		return nil, sharedDomain.NewStorageError("document.fetch_cleanups", "", err)
	}

	cleanups := make([]documentDomain.FileCleanup, 0, len(rows))
	for _, row := range rows {
		id, err := uuid.Parse(row.DocumentID)
		if err != nil {
			return nil, sharedDomain.NewStorageError("document.fetch_cleanups", row.DocumentID, err)
		}
		createdAt, err := sharedDB.ParseTime(row.CreatedAt)
		if err != nil {
			return nil, sharedDomain.NewStorageError("document.fetch_cleanups", row.DocumentID, err)
		}
		cleanups = append(cleanups, documentDomain.FileCleanup{DocumentID: id, FilePath: row.FilePath, CreatedAt: createdAt})
	}
	return cleanups, nil
}

func (r *DocumentRepo) MarkCleanupDone(ctx context.Context, documentID uuid.UUID) error {
	_, err := r.db.ExecContext(ctx, r.db.Rebind(
		`UPDATE file_cleanups SET done = TRUE WHERE document_id = ?`), documentID.String())
	if err != nil {
		return sharedDomain.NewStorageError("document.mark_cleanup_done", documentID.String(), err)
	}
	return nil
}
