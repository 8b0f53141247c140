// Package dbtest prepara bases SQLite desechables para los tests de repositorios.
package dbtest

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/davicafu/taskdesk/internal/shared/infra/platform/db"
)

// OpenTestDB crea una base SQLite en un directorio temporal con el esquema completo.
func OpenTestDB(t testing.TB) *sqlx.DB {
	t.Helper()

	ctx := context.Background()
	conn, err := db.Open(ctx, db.DriverSQLite, filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, db.InitSchema(ctx, conn))

	t.Cleanup(func() { conn.Close() })
	return conn
}

// OpenPostgresTestDB se conecta a DATABASE_URL y deja las tablas vacías al terminar.
// Sin DATABASE_URL el test se salta.
func OpenPostgresTestDB(t testing.TB) *sqlx.DB {
	t.Helper()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL no está configurada, saltando test de integración con Postgres")
	}

	ctx := context.Background()
	conn, err := db.Open(ctx, db.DriverPostgres, dsn)
	require.NoError(t, err)
	require.NoError(t, db.InitSchema(ctx, conn))

	truncate := func() {
		_, err := conn.ExecContext(ctx, `TRUNCATE tasks, documents, comments, outbox, file_cleanups`)
		require.NoError(t, err)
	}
	truncate()
	t.Cleanup(func() {
		truncate()
		conn.Close()
	})
	return conn
}

// CountingDB cuenta las consultas de lectura que pasan por sqlx.
type CountingDB struct {
	*sqlx.DB
	Queries []string
}

func NewCountingDB(conn *sqlx.DB) *CountingDB {
	return &CountingDB{DB: conn}
}

func (c *CountingDB) QueryxContext(ctx context.Context, query string, args ...interface{}) (*sqlx.Rows, error) {
	c.Queries = append(c.Queries, query)
	return c.DB.QueryxContext(ctx, query, args...)
}

func (c *CountingDB) QueryRowxContext(ctx context.Context, query string, args ...interface{}) *sqlx.Row {
	c.Queries = append(c.Queries, query)
	return c.DB.QueryRowxContext(ctx, query, args...)
}

// Reset vacía el registro de consultas.
func (c *CountingDB) Reset() {
	c.Queries = nil
}
