// Package dbtest opens migrated in-memory SQLite databases for tests.
package dbtest

import (
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/rentdesk/rentdesk/internal/db"
	"github.com/stretchr/testify/require"
)

// New returns a fresh database with every migration applied. It is closed
// when the test ends.
func New(t testing.TB) *sqlx.DB {
	t.Helper()

	database, err := db.Init("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	require.NoError(t, db.RunMigrations(database.DB, "sqlite"))
	return database
}
