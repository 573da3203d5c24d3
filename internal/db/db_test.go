package db_test

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/rentdesk/rentdesk/internal/db"
	"github.com/rentdesk/rentdesk/internal/db/dbtest"
	"github.com/stretchr/testify/require"
)

func countUsers(t *testing.T, database *sqlx.DB) int {
	t.Helper()
	var n int
	require.NoError(t, database.Get(&n, `SELECT COUNT(*) FROM users`))
	return n
}

func insertUser(ctx context.Context, tx *sqlx.Tx, name string) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO users (username, password_hash, created_at) VALUES ($1, 'x', CURRENT_TIMESTAMP)`, name)
	return err
}

func TestRunMigrations_CreatesTables(t *testing.T) {
	database := dbtest.New(t)

	for _, table := range []string{"users", "properties", "category_details", "folders", "files", "blob_deletions"} {
		var n int
		err := database.Get(&n, `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = $1`, table)
		require.NoError(t, err)
		require.Equal(t, 1, n, table)
	}
}

func TestMigrateDown_DropsTables(t *testing.T) {
	database := dbtest.New(t)

	require.NoError(t, db.MigrateDown(database.DB, "sqlite"))

	var n int
	require.NoError(t, database.Get(&n, `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'files'`))
	require.Zero(t, n)
}

func TestWithTx_CommitsOnSuccess(t *testing.T) {
	database := dbtest.New(t)
	ctx := context.Background()

	err := db.WithTx(ctx, database, func(tx *sqlx.Tx) error {
		return insertUser(ctx, tx, "alice")
	})
	require.NoError(t, err)
	require.Equal(t, 1, countUsers(t, database))
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	database := dbtest.New(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := db.WithTx(ctx, database, func(tx *sqlx.Tx) error {
		require.NoError(t, insertUser(ctx, tx, "alice"))
		return boom
	})
	require.ErrorIs(t, err, boom)
	require.Zero(t, countUsers(t, database))
}

func TestWithTx_RollsBackOnPanic(t *testing.T) {
	database := dbtest.New(t)
	ctx := context.Background()

	require.Panics(t, func() {
		_ = db.WithTx(ctx, database, func(tx *sqlx.Tx) error {
			require.NoError(t, insertUser(ctx, tx, "alice"))
			panic("kaput")
		})
	})
	require.Zero(t, countUsers(t, database))
}

func TestWithTx_CommitFailureIsReturned(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer mockDB.Close()

	mock.ExpectBegin()
	mock.ExpectCommit().WillReturnError(errors.New("connection reset"))

	database := sqlx.NewDb(mockDB, "pgx")
	err = db.WithTx(context.Background(), database, func(tx *sqlx.Tx) error { return nil })
	require.ErrorContains(t, err, "commit transaction")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInit_SQLiteEnforcesForeignKeys(t *testing.T) {
	database, err := db.Init("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	var enabled int
	require.NoError(t, database.Get(&enabled, `PRAGMA foreign_keys`))
	require.Equal(t, 1, enabled)

	require.NoError(t, db.RunMigrations(database.DB, "sqlite"))
	_, err = database.Exec(`INSERT INTO folders (id, property_id, name, created_at) VALUES ('orphan', 999, 'Orphan', CURRENT_TIMESTAMP)`)
	require.Error(t, err)
}
