package postgresql_test

import (
	"context"
	"os"
	"testing"

	"github.com/cmlabs-hris/eas-dashboard-go/internal/pkg/database"
	"github.com/cmlabs-hris/eas-dashboard-go/internal/repository/postgresql"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
)

// openTestDB connects to TEST_DATABASE_URL, which must already carry the
// migrations. Tests are skipped when it is unset.
func openTestDB(t *testing.T) *database.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	db, err := database.NewPostgreSQLDB(context.Background(), dsn, database.PoolOptions{MaxConns: 2})
	require.NoError(t, err)
	t.Cleanup(db.Close)
	return db
}

// inRollbackTx returns a ctx bound to a transaction that is rolled back when
// the test ends, so tests never see each other's rows.
func inRollbackTx(t *testing.T, db *database.DB) context.Context {
	t.Helper()
	ctx := context.Background()

	tx, err := db.BeginTx(ctx, pgx.TxOptions{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = tx.Rollback(context.Background()) })

	return postgresql.WithTx(ctx, tx)
}
