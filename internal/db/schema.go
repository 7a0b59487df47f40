package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema.
const schema = `
CREATE TABLE IF NOT EXISTS locations (
    id         INTEGER PRIMARY KEY,
    name       TEXT NOT NULL UNIQUE,
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS items (
    barcode    TEXT PRIMARY KEY,
    type       TEXT NOT NULL CHECK (type IN ('PIPI', 'CHNU', 'KIOY', 'BLOY', 'PIOY', 'LIMA', 'INVE', 'STOR', 'MISC')),
    label_date TEXT NOT NULL,
    generation INTEGER NOT NULL CHECK (generation BETWEEN 1 AND 9),
    sequence   INTEGER NOT NULL CHECK (sequence BETWEEN 0 AND 9999),
    location   TEXT NOT NULL REFERENCES locations(name),
    status     TEXT NOT NULL DEFAULT 'IN_STOCK' CHECK (status IN ('IN_STOCK', 'CHECKED_OUT')),
    note       TEXT NOT NULL DEFAULT '',
    created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    UNIQUE (type, label_date, generation, sequence)
);

CREATE TABLE IF NOT EXISTS item_history (
    barcode       TEXT NOT NULL REFERENCES items(barcode),
    seq           INTEGER NOT NULL CHECK (seq > 0),
    at            DATETIME NOT NULL,
    action        TEXT NOT NULL CHECK (action IN ('create', 'check_in', 'check_out', 'move')),
    from_location TEXT NOT NULL DEFAULT '',
    to_location   TEXT NOT NULL,
    status        TEXT NOT NULL CHECK (status IN ('IN_STOCK', 'CHECKED_OUT')),
    PRIMARY KEY (barcode, seq)
);

CREATE TRIGGER IF NOT EXISTS item_history_append_only
BEFORE UPDATE ON item_history
BEGIN
    SELECT RAISE(ABORT, 'item history is append-only');
END;

CREATE TRIGGER IF NOT EXISTS items_no_delete
BEFORE DELETE ON items
BEGIN
    SELECT RAISE(ABORT, 'items are never deleted');
END;
`

// EnsureSchema creates all tables, indexes and triggers if they don't already exist.
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
