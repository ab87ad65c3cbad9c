package pg

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrFailedToOpenDBConnection = errors.New("pg.failed_to_open_connection")
	ErrEmptyConnectionString    = errors.New("pg.empty_connection_string")
	ErrHealthcheckFailed        = errors.New("pg.healthcheck_failed")
	ErrFailedToParseDBConfig    = errors.New("pg.invalid_config")
	ErrFailedToApplyMigrations  = errors.New("pg.migrations_failed")
	ErrNoMigrations             = errors.New("pg.no_migrations")
)

// IsNotFoundError reports whether err is pgx.ErrNoRows.
func IsNotFoundError(err error) bool {
	return err != nil && errors.Is(err, pgx.ErrNoRows)
}

// IsDuplicateKeyError reports a unique constraint violation (SQLSTATE 23505).
func IsDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

// IsAppendOnlyViolation reports an attempt to modify rows protected by a raise_exception
// trigger (SQLSTATE P0001), as the audit table does for UPDATE and DELETE.
func IsAppendOnlyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "P0001"
}
