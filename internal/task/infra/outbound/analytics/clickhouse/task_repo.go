package clickhouse

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"

	taskDomain "github.com/davicafu/taskdesk/internal/task/domain"
)

// TaskAnalyticsRepo implementa la interfaz TaskAnalyticsRepository para ClickHouse.
type TaskAnalyticsRepo struct {
	db *sql.DB
}

// NewTaskAnalyticsRepo abre la conexión y comprueba que ClickHouse responde.
func NewTaskAnalyticsRepo(ctx context.Context, addr, dbName string) (*TaskAnalyticsRepo, error) {
	conn := clickhouse.OpenDB(&clickhouse.Options{
		Addr: []string{addr},
		Auth: clickhouse.Auth{
			Database: dbName,
		},
		Settings: clickhouse.Settings{
			"max_execution_time": 60,
		},
		DialTimeout: 5 * time.Second,
	})

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("could not ping clickhouse: %w", err)
	}

	return &TaskAnalyticsRepo{db: conn}, nil
}

func (r *TaskAnalyticsRepo) Close() error {
	return r.db.Close()
}

// LogBatch inserta un lote de actividades. ClickHouse funciona mejor con inserciones en lotes.
func (r *TaskAnalyticsRepo) LogBatch(ctx context.Context, activities []taskDomain.TaskActivity) error {
	if len(activities) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx,
		"INSERT INTO tasks_log (task_id, title, status, event_type, created_at, updated_at, event_time)")
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, a := range activities {
		if _, err := stmt.ExecContext(ctx,
			a.TaskID,
			a.Title,
			a.Status,
			a.EventType,
			a.CreatedAt,
			a.UpdatedAt,
			a.EventTime,
		); err != nil {
			// un registro que falla descarta el lote entero
			tx.Rollback()
			return fmt.Errorf("failed to exec statement for task %s: %w", a.TaskID, err)
		}
	}

	return tx.Commit()
}

func (r *TaskAnalyticsRepo) GetDailyTrend(ctx context.Context, start, end time.Time) ([]taskDomain.DailyTaskTrend, error) {
	query := `
		SELECT
			toStartOfDay(event_time) AS day,
			toInt64(countIf(event_type = 'task.created')) AS created,
			toInt64(countIf(status = 'completed' AND event_type = 'task.updated')) AS completed
		FROM tasks_log
		WHERE event_time BETWEEN ? AND ?
		GROUP BY day
		ORDER BY day
	`
	rows, err := r.db.QueryContext(ctx, query, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	trends := []taskDomain.DailyTaskTrend{}
	for rows.Next() {
		var (
			trend              taskDomain.DailyTaskTrend
			created, completed int64
		)
		if err := rows.Scan(&trend.Day, &created, &completed); err != nil {
			return nil, err
		}
		trend.CreatedCount = int(created)
		trend.CompletedCount = int(completed)
		trends = append(trends, trend)
	}
	return trends, rows.Err()
}

// GetAverageCompletionTime mide, para las tareas completadas en el rango, el tiempo
// entre su creación y la última vez que pasaron a completed.
func (r *TaskAnalyticsRepo) GetAverageCompletionTime(ctx context.Context, start, end time.Time) (time.Duration, error) {
	query := `
		SELECT
			avg(dateDiff('second', creation_time, completion_time)) AS avg_completion_seconds
		FROM (
			SELECT
				task_id,
				min(created_at) AS creation_time,
				maxIf(updated_at, status = 'completed') AS completion_time
			FROM tasks_log
			WHERE task_id IN (
				SELECT DISTINCT task_id FROM tasks_log WHERE status = 'completed' AND event_time BETWEEN ? AND ?
			)
			GROUP BY task_id
		)
		WHERE completion_time > creation_time
	`
	var avgSeconds sql.NullFloat64
	if err := r.db.QueryRowContext(ctx, query, start, end).Scan(&avgSeconds); err != nil {
		return 0, err
	}
	if !avgSeconds.Valid {
		return 0, nil
	}

	return time.Duration(avgSeconds.Float64 * float64(time.Second)), nil
}

// InitSchema crea la tabla si no existe. Se particiona por mes y se ordena por los campos de consulta.
func (r *TaskAnalyticsRepo) InitSchema(ctx context.Context) error {
	query := `
		CREATE TABLE IF NOT EXISTS tasks_log (
			task_id     UUID,
			title       String,
			status      String,
			event_type  LowCardinality(String),
			created_at  DateTime64(3),
			updated_at  DateTime64(3),
			event_time  DateTime64(3)
		) ENGINE = MergeTree()
		PARTITION BY toYYYYMM(event_time)
		ORDER BY (event_type, status, event_time)
	`
	_, err := r.db.ExecContext(ctx, query)
	return err
}

// Verificación estática de la interfaz.
var _ taskDomain.TaskAnalyticsRepository = (*TaskAnalyticsRepo)(nil)
