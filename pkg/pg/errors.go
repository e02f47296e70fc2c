package pg

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrEmptyConnString    = errors.New("pg.empty_conn_string")
	ErrInvalidConnString  = errors.New("pg.invalid_conn_string")
	ErrConnect            = errors.New("pg.connect_failed")
	ErrUnhealthy          = errors.New("pg.unhealthy")
	ErrMigrate            = errors.New("pg.migrate_failed")
	ErrNoMigrationsDir    = errors.New("pg.no_migrations_dir")
	ErrMigrationsNotFound = errors.New("pg.migrations_not_found")
)

// SQLSTATE codes classified below.
const (
	codeUniqueViolation = "23505"
	codeForeignKey      = "23503"
)

// IsNotFoundError reports whether err wraps pgx.ErrNoRows.
func IsNotFoundError(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// IsDuplicateKeyError reports a unique constraint violation.
func IsDuplicateKeyError(err error) bool {
	return hasCode(err, codeUniqueViolation)
}

// IsForeignKeyError reports a foreign key violation, e.g. an issuance for
// an item that does not exist.
func IsForeignKeyError(err error) bool {
	return hasCode(err, codeForeignKey)
}

func hasCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}
