package repository

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"
)

// DBTX is satisfied by both *sqlx.DB and *sqlx.Tx, so every repository can
// run inside or outside a transaction.
type DBTX interface {
	sqlx.ExtContext
}

// isUniqueViolation works for both SQLite and PostgreSQL
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "UNIQUE constraint failed") || strings.Contains(errStr, "duplicate key value")
}

// inQuery expands the IN (?) placeholders in query and rebinds it for the
// connection's driver.
func inQuery(db DBTX, query string, args ...any) (string, []any, error) {
	q, a, err := sqlx.In(query, args...)
	if err != nil {
		return "", nil, err
	}
	return db.Rebind(q), a, nil
}

func sqlxGet(ctx context.Context, db DBTX, dest any, query string, args ...any) error {
	return sqlx.GetContext(ctx, db, dest, query, args...)
}

func sqlxSelect(ctx context.Context, db DBTX, dest any, query string, args ...any) error {
	return sqlx.SelectContext(ctx, db, dest, query, args...)
}
