package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/sporetrack/sporetrack/internal/db"
)

// Lookup and constraint errors returned by the store.
var (
	ErrNotFound          = errors.New("item not found")
	ErrDuplicateItem     = errors.New("item already exists")
	ErrLocationNotFound  = errors.New("location not found")
	ErrDuplicateLocation = errors.New("location already exists")
	ErrInvalidLocation   = errors.New("invalid location name")

	// ErrCorrupt is db.ErrCorrupt, re-exported because store functions name
	// their *sql.DB parameter db.
	ErrCorrupt = db.ErrCorrupt
)

// querier is satisfied by both *sql.DB and *sql.Tx. The database is opened
// with a single connection, so code running inside a transaction must only
// use the transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// isConstraint reports whether err is a SQLite constraint violation with the
// given extended code. Older drivers report only the primary code, so the
// message is checked as a fallback.
func isConstraint(err error, extended int, text string) bool {
	var serr *sqlite.Error
	if !errors.As(err, &serr) {
		return false
	}
	if serr.Code() == extended {
		return true
	}
	return serr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT && strings.Contains(serr.Error(), text)
}

func isUniqueViolation(err error) bool {
	return isConstraint(err, sqlite3.SQLITE_CONSTRAINT_UNIQUE, "UNIQUE") ||
		isConstraint(err, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, "PRIMARY KEY")
}

func isForeignKeyViolation(err error) bool {
	return isConstraint(err, sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY, "FOREIGN KEY")
}
