package db

import (
	"database/sql"
	"fmt"
)

// migrations is a list of SQL statements applied in order after schema creation.
// The number applied so far is kept in PRAGMA user_version. Append new
// migrations at the end; never edit or reorder existing ones.
var migrations = []string{
	// Migration 1: reports filter by location and status.
	`CREATE INDEX IF NOT EXISTS idx_items_location_status ON items(location, status)`,
	// Migration 2: batch allocation looks up the highest sequence per key.
	`CREATE INDEX IF NOT EXISTS idx_items_batch ON items(type, label_date, generation, sequence DESC)`,
}

// Migrate ensures the schema exists and applies pending migrations.
func Migrate(db *sql.DB) error {
	if err := EnsureSchema(db); err != nil {
		return err
	}

	version, err := SchemaVersion(db)
	if err != nil {
		return err
	}
	if version > len(migrations) {
		return fmt.Errorf("%w: schema version %d is newer than this binary (%d)", ErrCorrupt, version, len(migrations))
	}

	for i := version; i < len(migrations); i++ {
		if _, err := db.Exec(migrations[i]); err != nil {
			return fmt.Errorf("running migration %d: %w", i+1, err)
		}
		// PRAGMA does not accept bound parameters.
		if _, err := db.Exec(fmt.Sprintf(`PRAGMA user_version = %d`, i+1)); err != nil {
			return fmt.Errorf("recording migration %d: %w", i+1, err)
		}
	}

	return nil
}

// SchemaVersion returns the number of applied migrations.
func SchemaVersion(db *sql.DB) (int, error) {
	var version int
	if err := db.QueryRow(`PRAGMA user_version`).Scan(&version); err != nil {
		return 0, fmt.Errorf("reading schema version: %w", err)
	}
	return version, nil
}
