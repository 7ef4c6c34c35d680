package repositories

import (
	"context"
	"database/sql"
	stderrors "errors"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/turtacn/rostertag/pkg/errors"
)

const uniqueViolation = "23505"

// queryExecutor abstracts sql.DB and sql.Tx
type queryExecutor interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// scanner abstracts sql.Row and sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

// classifyWriteError maps a failed INSERT or UPDATE to an AppError. Unique
// violations become conflicts, everything else a database error with msg.
func classifyWriteError(err error, conflictMsg, msg string) error {
	var pgErr *pgconn.PgError
	if stderrors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return errors.Wrap(err, errors.ErrCodeConflict, conflictMsg)
	}
	return errors.Wrap(err, errors.ErrCodeDatabaseError, msg)
}

// nullString stores "" as NULL.
func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

//Personal.AI order the ending
