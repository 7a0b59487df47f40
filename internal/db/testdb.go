package db

import (
	"database/sql"
	"path/filepath"
	"testing"
)

// NewTestDB creates a fresh in-memory SQLite database with the schema applied.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}

	if err := Migrate(db); err != nil {
		db.Close()
		t.Fatalf("migrating test database: %v", err)
	}

	t.Cleanup(func() { db.Close() })

	return db
}

// NewTestFile returns the path of a migrated database file in a temporary
// directory. The file is closed so tests can reopen it.
func NewTestFile(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.sqlite3")
	db, err := Open(path)
	if err != nil {
		t.Fatalf("opening test database file: %v", err)
	}
	if err := Migrate(db); err != nil {
		db.Close()
		t.Fatalf("migrating test database file: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("closing test database file: %v", err)
	}
	return path
}
