package pgx

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Conn defines a common interface for interacting with PostgreSQL connections.
// It abstracts away the underlying connection type (pgx.Conn, pgxpool.Pool,
// pgxpool.Conn) so the schema reflector and the CRUD handlers work the same
// against a single connection or a pool.
type Conn interface {
	// Exec executes a SQL statement and returns a CommandTag containing
	// details about the executed statement.
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	// Query executes a SQL query and returns a Rows iterator over the results.
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	// QueryRow executes a query that is expected to return at most one row.
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}
