package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sporetrack/sporetrack/internal/model"
)

// GetItemHistory returns an item's history, oldest first.
func GetItemHistory(ctx context.Context, db *sql.DB, code string) ([]model.HistoryEntry, error) {
	return getHistory(ctx, db, code)
}

func getHistory(ctx context.Context, q querier, code string) ([]model.HistoryEntry, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT seq, at, action, from_location, to_location, status
		 FROM item_history WHERE barcode = ? ORDER BY seq`, code,
	)
	if err != nil {
		return nil, fmt.Errorf("getting item history: %w", err)
	}
	defer rows.Close()

	var history []model.HistoryEntry
	for rows.Next() {
		var h model.HistoryEntry
		if err := rows.Scan(&h.Seq, &h.At, &h.Action, &h.FromLocation, &h.ToLocation, &h.Status); err != nil {
			return nil, fmt.Errorf("scanning history entry: %w", err)
		}
		history = append(history, h)
	}
	return history, rows.Err()
}

// appendHistory writes the entries of item.History that are not stored yet.
// Stored entries are never rewritten, so an item whose history is shorter
// than what is on disk is rejected.
func appendHistory(ctx context.Context, tx *sql.Tx, item *model.Item) error {
	var stored int
	err := tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(seq), 0) FROM item_history WHERE barcode = ?`, item.Barcode,
	).Scan(&stored)
	if err != nil {
		return fmt.Errorf("reading history length: %w", err)
	}
	if len(item.History) < stored {
		return fmt.Errorf("item %s: history has %d entries but %d are stored", item.Barcode, len(item.History), stored)
	}

	for i, h := range item.History[stored:] {
		if want := stored + i + 1; h.Seq != want {
			return fmt.Errorf("item %s: history entry %d has seq %d", item.Barcode, want, h.Seq)
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO item_history (barcode, seq, at, action, from_location, to_location, status)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			item.Barcode, h.Seq, h.At, h.Action, h.FromLocation, h.ToLocation, h.Status,
		)
		if err != nil {
			return fmt.Errorf("appending history for %s: %w", item.Barcode, err)
		}
	}
	return nil
}
