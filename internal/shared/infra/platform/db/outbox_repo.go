package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	sharedDomain "github.com/davicafu/taskdesk/internal/shared/domain"
)

// OutboxRepo implementa sharedDomain.OutboxRepository para SQLite y Postgres.
type OutboxRepo struct {
	db *sqlx.DB
}

var _ sharedDomain.OutboxRepository = (*OutboxRepo)(nil)

func NewOutboxRepo(db *sqlx.DB) *OutboxRepo {
	return &OutboxRepo{db: db}
}

type outboxRow struct {
	ID            string `db:"id"`
	AggregateType string `db:"aggregate_type"`
	AggregateID   string `db:"aggregate_id"`
	EventType     string `db:"event_type"`
	Payload       string `db:"payload"`
	CreatedAt     string `db:"created_at"`
}

// FetchPendingOutbox devuelve los eventos no procesados, los más antiguos primero.
func (r *OutboxRepo) FetchPendingOutbox(ctx context.Context, limit int) ([]sharedDomain.OutboxEvent, error) {
	var rows []outboxRow
	err := r.db.SelectContext(ctx, &rows, r.db.Rebind(
		`SELECT id, aggregate_type, aggregate_id, event_type, payload, created_at
		 FROM outbox
		 WHERE processed = FALSE
		 ORDER BY created_at
		 LIMIT ?`), limit)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	events := make([]sharedDomain.OutboxEvent, 0, len(rows))
	for _, row := range rows {
		id, err := uuid.Parse(row.ID)
		if err != nil {
			return nil, fmt.Errorf("invalid UUID in outbox row: %w", err)
		}
		createdAt, err := ParseTime(row.CreatedAt)
		if err != nil {
			return nil, err
		}
		var payload map[string]interface{}
		if err := json.Unmarshal([]byte(row.Payload), &payload); err != nil {
			return nil, fmt.Errorf("invalid JSON payload in outbox row %s: %w", id, err)
		}
		events = append(events, sharedDomain.OutboxEvent{
			ID:            id,
			AggregateType: row.AggregateType,
			AggregateID:   row.AggregateID,
			EventType:     row.EventType,
			Payload:       payload,
			CreatedAt:     createdAt,
		})
	}
	return events, nil
}

func (r *OutboxRepo) MarkOutboxProcessed(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, r.db.Rebind(`UPDATE outbox SET processed = TRUE WHERE id = ?`), id.String())
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get RowsAffected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("outbox event not found: %s", id)
	}
	return nil
}

// InsertOutboxTx guarda el evento dentro de la transacción de la escritura que lo origina.
func InsertOutboxTx(ctx context.Context, tx *sqlx.Tx, evt sharedDomain.OutboxEvent) error {
	payload, err := json.Marshal(evt.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal outbox payload: %w", err)
	}

	_, err = tx.ExecContext(ctx, tx.Rebind(
		`INSERT INTO outbox (id, aggregate_type, aggregate_id, event_type, payload, created_at, processed)
		 VALUES (?, ?, ?, ?, ?, ?, FALSE)`),
		evt.ID.String(), evt.AggregateType, evt.AggregateID, evt.EventType, string(payload), FormatTime(evt.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to insert outbox event: %w", err)
	}
	return nil
}
