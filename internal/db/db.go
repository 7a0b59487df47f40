package db

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// ErrCorrupt is returned when the database file cannot be trusted: it is not
// a SQLite database, fails the integrity check, or holds rows that violate
// the inventory rules.
var ErrCorrupt = errors.New("store corrupted")

// Open opens a SQLite database connection, configures pragmas and checks the
// file's integrity.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// A single connection keeps every command strictly sequential and makes
	// in-memory databases behave like files.
	db.SetMaxOpenConns(1)

	// Set pragmas for durability and correctness.
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
		"PRAGMA synchronous=FULL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, classify(fmt.Errorf("setting pragma %q: %w", p, err))
		}
	}

	if err := QuickCheck(db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// QuickCheck runs PRAGMA quick_check and returns ErrCorrupt unless SQLite
// reports "ok".
func QuickCheck(db *sql.DB) error {
	rows, err := db.Query("PRAGMA quick_check")
	if err != nil {
		return classify(fmt.Errorf("running quick_check: %w", err))
	}
	defer rows.Close()

	var problems []string
	for rows.Next() {
		var line string
		if err := rows.Scan(&line); err != nil {
			return classify(fmt.Errorf("scanning quick_check: %w", err))
		}
		if line != "ok" {
			problems = append(problems, line)
		}
	}
	if err := rows.Err(); err != nil {
		return classify(fmt.Errorf("reading quick_check: %w", err))
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", ErrCorrupt, strings.Join(problems, "; "))
	}
	return nil
}

// classify wraps err with ErrCorrupt when SQLite reports a damaged or
// foreign file.
func classify(err error) error {
	var serr *sqlite.Error
	if errors.As(err, &serr) {
		switch serr.Code() & 0xff {
		case sqlite3.SQLITE_CORRUPT, sqlite3.SQLITE_NOTADB:
			return fmt.Errorf("%w: %w", ErrCorrupt, err)
		}
	}
	return err
}
