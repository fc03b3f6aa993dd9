package db

import (
	"context"
	"database/sql"
)

// QueryRower is satisfied by *sql.DB and *sql.Tx.
type QueryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// HasTable reports whether table exists in the current schema. Errors count
// as "missing" so callers fall through to CREATE TABLE IF NOT EXISTS.
func HasTable(ctx context.Context, q QueryRower, table string) bool {
	var name sql.NullString
	err := q.QueryRowContext(ctx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = DATABASE()
		  AND table_name = ?
		LIMIT 1
	`, table).Scan(&name)
	if err != nil {
		return false
	}
	return name.Valid && name.String != ""
}

// NullIfEmpty helps store optional strings as SQL NULL.
func NullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
