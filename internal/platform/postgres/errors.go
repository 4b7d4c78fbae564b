package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/phrasify/internal/store"
)

// PostgreSQL error codes
const (
	// undefinedTableCode is returned when the schema has not been migrated
	undefinedTableCode = "42P01"

	// checkViolationCode is the PostgreSQL error code for check constraint violations
	checkViolationCode = "23514"
)

// ErrNotMigrated is returned when the card_queues table does not exist.
var ErrNotMigrated = fmt.Errorf("%w: card_queues table missing, run `phrasify migrate up`", store.ErrIO)

// MapError maps a database error for key and operation to a store error.
// Every result matches store.ErrIO.
func MapError(key, operation string, err error) error {
	if err == nil {
		return nil
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case undefinedTableCode:
			return store.NewStoreError(key, operation, fmt.Errorf("%w: %v", ErrNotMigrated, err))
		case checkViolationCode:
			return store.NewStoreError(key, operation,
				fmt.Errorf("%w: check constraint violation (%s): %v", store.ErrCorrupt, pgErr.ConstraintName, err))
		}
	}
	return store.NewStoreError(key, operation, err)
}

// IsUndefinedTable reports whether err says a table does not exist.
func IsUndefinedTable(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == undefinedTableCode
}
