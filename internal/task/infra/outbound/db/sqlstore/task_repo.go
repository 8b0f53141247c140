package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	commentDomain "github.com/davicafu/taskdesk/internal/comment/domain"
	commentStore "github.com/davicafu/taskdesk/internal/comment/infra/outbound/db/sqlstore"
	documentDomain "github.com/davicafu/taskdesk/internal/document/domain"
	documentStore "github.com/davicafu/taskdesk/internal/document/infra/outbound/db/sqlstore"
	sharedDomain "github.com/davicafu/taskdesk/internal/shared/domain"
	sharedDB "github.com/davicafu/taskdesk/internal/shared/infra/platform/db"
	taskDomain "github.com/davicafu/taskdesk/internal/task/domain"
)

const taskColumns = "id, title, description, responsible, status, due_date, created_at, updated_at"

type taskRow struct {
	ID          string `db:"id"`
	Title       string `db:"title"`
	Description string `db:"description"`
	Responsible string `db:"responsible"`
	Status      string `db:"status"`
	DueDate     string `db:"due_date"`
	CreatedAt   string `db:"created_at"`
	UpdatedAt   string `db:"updated_at"`
}

func (r taskRow) toDomain() (taskDomain.Task, error) {
	id, err := uuid.Parse(r.ID)
	if err != nil {
		return taskDomain.Task{}, fmt.Errorf("invalid task id %q: %w", r.ID, err)
	}
	due, err := sharedDB.ParseTime(r.DueDate)
	if err != nil {
		return taskDomain.Task{}, err
	}
	createdAt, err := sharedDB.ParseTime(r.CreatedAt)
	if err != nil {
		return taskDomain.Task{}, err
	}
	updatedAt, err := sharedDB.ParseTime(r.UpdatedAt)
	if err != nil {
		return taskDomain.Task{}, err
	}
	return taskDomain.Task{
		ID:          id,
		Title:       r.Title,
		Description: r.Description,
		Responsible: r.Responsible,
		Status:      taskDomain.TaskStatus(r.Status),
		DueDate:     due,
		CreatedAt:   createdAt,
		UpdatedAt:   updatedAt,
		Documents:   []documentDomain.Document{},
		Comments:    []commentDomain.Comment{},
	}, nil
}

// Columnas filtrables. El valor de LIKE ya llega en minúsculas.
var filterColumns = map[string]string{
	"status":      "status",
	"responsible": "responsible",
	"title":       "LOWER(title)",
}

// TaskRepo reconstruye el agregado tarea + documentos + comentarios.
type TaskRepo struct {
	db sharedDB.Conn
}

var _ taskDomain.TaskRepository = (*TaskRepo)(nil)

func NewTaskRepo(db sharedDB.Conn) *TaskRepo {
	return &TaskRepo{db: db}
}

// ------------------ Lectura ------------------

// FindAll devuelve las tareas más recientes primero, cada una con sus documentos y comentarios.
// Se hacen exactamente tres consultas: tareas, documentos del lote y comentarios del lote.
func (r *TaskRepo) FindAll(ctx context.Context, criteria sharedDomain.Criteria) ([]taskDomain.Task, error) {
	where, args, err := applyCriteria(criteria)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + taskColumns + ` FROM tasks` + where + ` ORDER BY created_at DESC, id`

	var rows []taskRow
	if err := sqlx.SelectContext(ctx, r.db, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, sharedDomain.NewStorageError("task.find_all", "", err)
	}

	tasks := make([]taskDomain.Task, 0, len(rows))
	if len(rows) == 0 {
		return tasks, nil
	}

	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		t, err := row.toDomain()
		if err != nil {
			return nil, sharedDomain.NewStorageError("task.find_all", row.ID, err)
		}
		tasks = append(tasks, t)
		ids = append(ids, row.ID)
	}

	docsByTask, err := r.documentsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	commentsByTask, err := r.commentsFor(ctx, ids)
	if err != nil {
		return nil, err
	}

	for i := range tasks {
		if docs, ok := docsByTask[tasks[i].ID]; ok {
			tasks[i].Documents = docs
		}
		if comments, ok := commentsByTask[tasks[i].ID]; ok {
			tasks[i].Comments = comments
		}
	}
	return tasks, nil
}

// FindByID devuelve la tarea con sus relaciones o un error NotFound.
func (r *TaskRepo) FindByID(ctx context.Context, id uuid.UUID) (*taskDomain.Task, error) {
	var row taskRow
	err := sqlx.GetContext(ctx, r.db, &row, r.db.Rebind(`SELECT `+taskColumns+` FROM tasks WHERE id = ?`), id.String())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound(id)
		}
		return nil, sharedDomain.NewStorageError("task.find_by_id", id.String(), err)
	}

	t, err := row.toDomain()
	if err != nil {
		return nil, sharedDomain.NewStorageError("task.find_by_id", id.String(), err)
	}

	ids := []string{row.ID}
	docsByTask, err := r.documentsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	commentsByTask, err := r.commentsFor(ctx, ids)
	if err != nil {
		return nil, err
	}
	if docs, ok := docsByTask[t.ID]; ok {
		t.Documents = docs
	}
	if comments, ok := commentsByTask[t.ID]; ok {
		t.Comments = comments
	}
	return &t, nil
}

// documentsFor carga en una sola consulta los documentos de todas las tareas, agrupados por tarea.
func (r *TaskRepo) documentsFor(ctx context.Context, taskIDs []string) (map[uuid.UUID][]documentDomain.Document, error) {
	query, args, err := sqlx.In(
		`SELECT `+documentStore.Columns+` FROM documents WHERE task_id IN (?) ORDER BY upload_date DESC, id`, taskIDs)
	if err != nil {
		return nil, sharedDomain.NewStorageError("task.load_documents", "", err)
	}

	var rows []documentStore.Row
	if err := sqlx.SelectContext(ctx, r.db, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, sharedDomain.NewStorageError("task.load_documents", "", err)
	}

	docs, err := documentStore.RowsToDomain(rows)
	if err != nil {
		return nil, sharedDomain.NewStorageError("task.load_documents", "", err)
	}

	grouped := make(map[uuid.UUID][]documentDomain.Document)
	for _, d := range docs {
		grouped[d.TaskID] = append(grouped[d.TaskID], d)
	}
	return grouped, nil
}

func (r *TaskRepo) commentsFor(ctx context.Context, taskIDs []string) (map[uuid.UUID][]commentDomain.Comment, error) {
	query, args, err := sqlx.In(
		`SELECT `+commentStore.Columns+` FROM comments WHERE task_id IN (?) ORDER BY created_at DESC, id`, taskIDs)
	if err != nil {
		return nil, sharedDomain.NewStorageError("task.load_comments", "", err)
	}

	var rows []commentStore.Row
	if err := sqlx.SelectContext(ctx, r.db, &rows, r.db.Rebind(query), args...); err != nil {
		return nil, sharedDomain.NewStorageError("task.load_comments", "", err)
	}

	comments, err := commentStore.RowsToDomain(rows)
	if err != nil {
		return nil, sharedDomain.NewStorageError("task.load_comments", "", err)
	}

	grouped := make(map[uuid.UUID][]commentDomain.Comment)
	for _, c := range comments {
		grouped[c.TaskID] = append(grouped[c.TaskID], c)
	}
	return grouped, nil
}

// applyCriteria traduce los criterios a SQL con placeholders "?" que luego adapta Rebind.
func applyCriteria(criteria sharedDomain.Criteria) (string, []interface{}, error) {
	if criteria == nil {
		return "", nil, nil
	}
	conds := criteria.ToConditions()
	if len(conds) == 0 {
		return "", nil, nil
	}

	clauses := make([]string, 0, len(conds))
	args := make([]interface{}, 0, len(conds))
	for _, c := range conds {
		column, ok := filterColumns[c.Field]
		if !ok {
			return "", nil, sharedDomain.NewValidationError(fmt.Sprintf("Unsupported filter: %s", c.Field))
		}
		if c.Op == sharedDomain.OpLike {
			clauses = append(clauses, fmt.Sprintf("%s LIKE ? ESCAPE '%s'", column, sharedDomain.LikeEscape))
		} else {
			clauses = append(clauses, fmt.Sprintf("%s %s ?", column, c.Op))
		}
		args = append(args, c.Value)
	}
	return " WHERE " + strings.Join(clauses, " AND "), args, nil
}

// ------------------ Escritura + Outbox ------------------

func (r *TaskRepo) Create(ctx context.Context, t *taskDomain.Task, evt sharedDomain.OutboxEvent) error {
	return r.inTx(ctx, "task.create", t.ID, evt, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, tx.Rebind(
			`INSERT INTO tasks (`+taskColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
			t.ID.String(), t.Title, t.Description, t.Responsible, string(t.Status),
			sharedDB.FormatTime(t.DueDate), sharedDB.FormatTime(t.CreatedAt), sharedDB.FormatTime(t.UpdatedAt),
		)
		return err
	})
}

// Update sobrescribe los campos de la fila. Sin control de concurrencia: gana la última escritura.
func (r *TaskRepo) Update(ctx context.Context, t *taskDomain.Task, evt sharedDomain.OutboxEvent) error {
	return r.inTx(ctx, "task.update", t.ID, evt, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, tx.Rebind(
			`UPDATE tasks SET title = ?, description = ?, responsible = ?, status = ?, due_date = ?, updated_at = ?
			 WHERE id = ?`),
			t.Title, t.Description, t.Responsible, string(t.Status),
			sharedDB.FormatTime(t.DueDate), sharedDB.FormatTime(t.UpdatedAt), t.ID.String(),
		)
		if err != nil {
			return err
		}
		return requireOneRow(res, t.ID)
	})
}

// Delete borra solo la fila de la tarea; documentos y comentarios caen por la FK en cascada.
// Antes se encolan los ficheros de sus documentos para que no queden huérfanos en disco.
func (r *TaskRepo) Delete(ctx context.Context, id uuid.UUID, evt sharedDomain.OutboxEvent) error {
	return r.inTx(ctx, "task.delete", id, evt, func(tx *sqlx.Tx) error {
		if err := documentStore.EnqueueTaskCleanupsTx(ctx, tx, id.String(), evt.CreatedAt); err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM tasks WHERE id = ?`), id.String())
		if err != nil {
			return err
		}
		return requireOneRow(res, id)
	})
}

func (r *TaskRepo) inTx(ctx context.Context, op string, id uuid.UUID, evt sharedDomain.OutboxEvent, write func(tx *sqlx.Tx) error) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return sharedDomain.NewStorageError(op, id.String(), err)
	}
	defer tx.Rollback() // Se ignora si el Commit() es exitoso

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
	return sharedDomain.NewNotFoundError("Task not found", id.String(), taskDomain.ErrTaskNotFound)
}
