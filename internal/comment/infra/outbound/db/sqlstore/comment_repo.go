package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	commentDomain "github.com/davicafu/taskdesk/internal/comment/domain"
	sharedDomain "github.com/davicafu/taskdesk/internal/shared/domain"
	sharedDB "github.com/davicafu/taskdesk/internal/shared/infra/platform/db"
)

const Columns = "id, task_id, author, content, created_at, updated_at"

// Row es una fila de la tabla comments.
type Row struct {
	ID        string `db:"id"`
	TaskID    string `db:"task_id"`
	Author    string `db:"author"`
	Content   string `db:"content"`
	CreatedAt string `db:"created_at"`
	UpdatedAt string `db:"updated_at"`
}

func (r Row) ToDomain() (commentDomain.Comment, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return commentDomain.Comment{}, fmt.Errorf("invalid comment id %q: %w", r.ID, err)
	}
	taskID, err := uuid.Parse(r.TaskID)
	if err != nil {
		return commentDomain.Comment{}, fmt.Errorf("invalid task id %q: %w", r.TaskID, err)
	}
	createdAt, err := sharedDB.ParseTime(r.CreatedAt)
	if err != nil {
		return commentDomain.Comment{}, err
	}
	updatedAt, err := sharedDB.ParseTime(r.UpdatedAt)
	if err != nil {
		return commentDomain.Comment{}, err
	}
	return commentDomain.Comment{
		ID:        id,
		TaskID:    taskID,
		Author:    r.Author,
		Content:   r.Content,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}, nil
}

func RowsToDomain(rows []Row) ([]commentDomain.Comment, error) {
	comments := make([]commentDomain.Comment, 0, len(rows))
	for _, row := range rows {
		c, err := row.ToDomain()
		if err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, nil
}

// CommentRepo implementa commentDomain.CommentRepository sobre sqlx.
type CommentRepo struct {
	db sharedDB.Conn
}

var _ commentDomain.CommentRepository = (*CommentRepo)(nil)

func NewCommentRepo(db sharedDB.Conn) *CommentRepo {
	return &CommentRepo{db: db}
}

func (r *CommentRepo) Create(ctx context.Context, c *commentDomain.Comment, evt sharedDomain.OutboxEvent) error {
	return r.inTx(ctx, "comment.create", c.ID, evt, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, tx.Rebind(
			`INSERT INTO comments (`+Columns+`) VALUES (?, ?, ?, ?, ?, ?)`),
			c.ID.String(), c.TaskID.String(), c.Author, c.Content,
			sharedDB.FormatTime(c.CreatedAt), sharedDB.FormatTime(c.UpdatedAt),
		)
		return err
	})
}

func (r *CommentRepo) Update(ctx context.Context, c *commentDomain.Comment, evt sharedDomain.OutboxEvent) error {
	return r.inTx(ctx, "comment.update", c.ID, evt, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, tx.Rebind(
			`UPDATE comments SET author = ?, content = ?, updated_at = ? WHERE id = ?`),
			c.Author, c.Content, sharedDB.FormatTime(c.UpdatedAt), c.ID.String(),
		)
		if err != nil {
			return err
		}
		return requireOneRow(res, c.ID)
	})
}

func (r *CommentRepo) Delete(ctx context.Context, id uuid.UUID, evt sharedDomain.OutboxEvent) error {
	return r.inTx(ctx, "comment.delete", id, evt, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM comments WHERE id = ?`), id.String())
		if err != nil {
			return err
		}
		return requireOneRow(res, id)
	})
}

func (r *CommentRepo) FindByID(ctx context.Context, id uuid.UUID) (*commentDomain.Comment, error) {
	var row Row
	err := sqlx.GetContext(ctx, r.db, &row, r.db.Rebind(`SELECT `+Columns+` FROM comments WHERE id = ?`), id.String())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound(id)
		}
		return nil, sharedDomain.NewStorageError("comment.find_by_id", id.String(), err)
	}

	c, err := row.ToDomain()
	if err != nil {
		return nil, sharedDomain.NewStorageError("comment.find_by_id", id.String(), err)
	}
	return &c, nil
}

// FindByTaskID devuelve los comentarios de una tarea, los más recientes primero.
func (r *CommentRepo) FindByTaskID(ctx context.Context, taskID uuid.UUID) ([]commentDomain.Comment, error) {
	var rows []Row
	err := sqlx.SelectContext(ctx, r.db, &rows, r.db.Rebind(
		`SELECT `+Columns+` FROM comments WHERE task_id = ? ORDER BY created_at DESC, id`), taskID.String())
	if err != nil {
		return nil, sharedDomain.NewStorageError("comment.find_by_task_id", taskID.String(), err)
	}

	comments, err := RowsToDomain(rows)
	if err != nil {
		return nil, sharedDomain.NewStorageError("comment.find_by_task_id", taskID.String(), err)
	}
	return comments, nil
}

// inTx ejecuta la escritura y su evento de outbox en una misma transacción.
func (r *CommentRepo) inTx(ctx context.Context, op string, id uuid.UUID, evt sharedDomain.OutboxEvent, write func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return sharedDomain.NewStorageError(op, id.String(), err)
	}
	defer tx.Rollback()

	if err := write(tx); err != nil {
		if sharedDomain.IsKind(err, sharedDomain.KindNotFound) {
			return err
		}
		return sharedDomain.NewStorageError(op, id.String(), err)
	}
	if err := sharedDB.InsertOutboxTx(ctx, tx, evt); err != nil {
		return sharedDomain.NewStorageError(op, id.String(), err)
	}
	if err := tx.Commit(); err != nil {
		return sharedDomain.NewStorageError(op, id.String(), err)
	}
	return nil
}

func requireOneRow(res sql.Result, id uuid.UUID) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return notFound(id)
	}
	return nil
}

func notFound(id uuid.UUID) error {
	return sharedDomain.NewNotFoundError("Comment not found", id.String(), commentDomain.ErrCommentNotFound)
}
