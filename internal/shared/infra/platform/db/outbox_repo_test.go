package db_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sharedDomain "github.com/davicafu/taskdesk/internal/shared/domain"
	"github.com/davicafu/taskdesk/internal/shared/infra/platform/db"
	"github.com/davicafu/taskdesk/internal/shared/infra/platform/db/dbtest"
)

func TestOutboxRepo_FetchAndMark(t *testing.T) {
	// Arrange
	conn := dbtest.OpenTestDB(t)
	ctx := context.Background()
	repo := db.NewOutboxRepo(conn)

	older := sharedDomain.NewOutboxEvent("task", "a", "task.created", map[string]string{"id": "a"}, time.Now().Add(-time.Minute))
	newer := sharedDomain.NewOutboxEvent("task", "b", "task.created", map[string]string{"id": "b"}, time.Now())

	tx, err := conn.BeginTxx(ctx, nil)
	require.NoError(t, err)
	require.NoError(t, db.InsertOutboxTx(ctx, tx, newer))
	require.NoError(t, db.InsertOutboxTx(ctx, tx, older))
	require.NoError(t, tx.Commit())

	// Act
	pending, err := repo.FetchPendingOutbox(ctx, 10)

	// Assert
	require.NoError(t, err)
	require.Len(t, pending, 2)
	assert.Equal(t, older.ID, pending[0].ID)
	assert.Equal(t, "a", pending[0].Payload.(map[string]interface{})["id"])

	require.NoError(t, repo.MarkOutboxProcessed(ctx, older.ID))
	pending, err = repo.FetchPendingOutbox(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, newer.ID, pending[0].ID)
}

func TestOutboxRepo_MarkUnknown(t *testing.T) {
	repo := db.NewOutboxRepo(dbtest.OpenTestDB(t))

	err := repo.MarkOutboxProcessed(context.Background(), uuid.New())

	assert.Error(t, err)
}

func TestOpen_EnablesForeignKeys(t *testing.T) {
	conn := dbtest.OpenTestDB(t)

	var enabled int
	require.NoError(t, conn.GetContext(context.Background(), &enabled, "PRAGMA foreign_keys"))
	assert.Equal(t, 1, enabled)
}

func TestFormatTime_RoundTripAndOrder(t *testing.T) {
	a := time.Date(2030, 1, 2, 3, 4, 5, 6_000_000, time.FixedZone("X", 3600))
	b := a.Add(time.Second)

	parsed, err := db.ParseTime(db.FormatTime(a))
	require.NoError(t, err)
	assert.True(t, a.Equal(parsed))
	assert.Less(t, db.FormatTime(a), db.FormatTime(b))
}
