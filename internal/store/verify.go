package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sporetrack/sporetrack/internal/barcode"
	"github.com/sporetrack/sporetrack/internal/model"
)

// Stats describes what Verify loaded.
type Stats struct {
	Items     int
	Locations int
	InStock   int
}

// Verify re-reads every stored record and checks that it is consistent:
// barcodes decode to exactly their stored fields, every item sits at a
// registered location, and each item's history is gap-free and ends in the
// item's current state. Any violation wraps ErrCorrupt.
func Verify(ctx context.Context, db *sql.DB) (Stats, error) {
	var stats Stats

	if err := checkForeignKeys(ctx, db); err != nil {
		return stats, err
	}

	locations, err := ListLocations(ctx, db)
	if err != nil {
		return stats, err
	}
	known := make(map[string]bool, len(locations))
	for _, l := range locations {
		known[l.Name] = true
	}

	items, err := ListItems(ctx, db, ItemFilter{})
	if err != nil {
		return stats, err
	}

	tails, err := historyTails(ctx, db)
	if err != nil {
		return stats, err
	}

	for i := range items {
		item := &items[i]
		code, err := barcode.Parse(item.Barcode)
		if err != nil {
			return stats, fmt.Errorf("%w: item %q: %w", ErrCorrupt, item.Barcode, err)
		}
		if code.String() != item.Barcode {
			return stats, fmt.Errorf("%w: item %q is not in canonical form", ErrCorrupt, item.Barcode)
		}
		if code != item.Code() {
			return stats, fmt.Errorf("%w: item %s: stored fields disagree with barcode", ErrCorrupt, item.Barcode)
		}
		if !model.ValidStatus(item.Status) {
			return stats, fmt.Errorf("%w: item %s: unknown status %q", ErrCorrupt, item.Barcode, item.Status)
		}
		if !known[item.Location] {
			return stats, fmt.Errorf("%w: item %s: unknown location %q", ErrCorrupt, item.Barcode, item.Location)
		}

		tail, ok := tails[item.Barcode]
		if !ok {
			return stats, fmt.Errorf("%w: item %s has no history", ErrCorrupt, item.Barcode)
		}
		if tail.count != tail.last {
			return stats, fmt.Errorf("%w: item %s: history has %d entries up to seq %d", ErrCorrupt, item.Barcode, tail.count, tail.last)
		}
		if tail.location != item.Location || tail.status != item.Status {
			return stats, fmt.Errorf("%w: item %s: last history entry does not match current state", ErrCorrupt, item.Barcode)
		}

		if item.Status == model.StatusInStock {
			stats.InStock++
		}
	}

	stats.Items = len(items)
	stats.Locations = len(locations)
	return stats, nil
}

func checkForeignKeys(ctx context.Context, db *sql.DB) error {
	rows, err := db.QueryContext(ctx, `PRAGMA foreign_key_check`)
	if err != nil {
		return fmt.Errorf("checking foreign keys: %w", err)
	}
	defer rows.Close()

	if rows.Next() {
		var table string
		var rowid sql.NullInt64
		var parent string
		var fkid int
		if err := rows.Scan(&table, &rowid, &parent, &fkid); err != nil {
			return fmt.Errorf("scanning foreign key check: %w", err)
		}
		return fmt.Errorf("%w: %s row %d references missing %s", ErrCorrupt, table, rowid.Int64, parent)
	}
	return rows.Err()
}

type historyTail struct {
	count    int
	last     int
	location string
	status   string
}

func historyTails(ctx context.Context, db *sql.DB) (map[string]historyTail, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT h.barcode, c.n, c.last, h.to_location, h.status
		 FROM item_history h
		 JOIN (SELECT barcode, COUNT(*) AS n, MAX(seq) AS last
		       FROM item_history GROUP BY barcode) c
		   ON c.barcode = h.barcode AND h.seq = c.last`,
	)
	if err != nil {
		return nil, fmt.Errorf("reading history: %w", err)
	}
	defer rows.Close()

	tails := make(map[string]historyTail)
	for rows.Next() {
		var code string
		var t historyTail
		if err := rows.Scan(&code, &t.count, &t.last, &t.location, &t.status); err != nil {
			return nil, fmt.Errorf("scanning history: %w", err)
		}
		tails[code] = t
	}
	return tails, rows.Err()
}
