package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sporetrack/sporetrack/internal/barcode"
	"github.com/sporetrack/sporetrack/internal/model"
)

// dateLayout is how label dates are stored.
const dateLayout = "2006-01-02"

const itemColumns = `barcode, type, label_date, generation, sequence, location, status, note, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

// ItemFilter narrows ListItems. Zero fields match everything.
type ItemFilter struct {
	Type       barcode.Type
	Generation int
	Location   string
	Status     string
	LabelDate  time.Time
}

// GetItem returns an item with its full history.
func GetItem(ctx context.Context, db *sql.DB, code string) (*model.Item, error) {
	return getItem(ctx, db, code)
}

func getItem(ctx context.Context, q querier, code string) (*model.Item, error) {
	item, err := scanItem(q.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE barcode = ?`, code,
	))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, code)
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}

	item.History, err = getHistory(ctx, q, code)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// PutItem inserts or updates an item and appends its new history entries in
// a single transaction. Barcode-derived fields are never changed once stored.
func PutItem(ctx context.Context, db *sql.DB, item *model.Item) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO items (`+itemColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (barcode) DO UPDATE SET
		     location = excluded.location,
		     status = excluded.status,
		     note = excluded.note,
		     updated_at = excluded.updated_at`,
		itemArgs(item)...,
	)
	if isForeignKeyViolation(err) {
		return fmt.Errorf("%w: %q", ErrLocationNotFound, item.Location)
	}
	if err != nil {
		return fmt.Errorf("saving item %s: %w", item.Barcode, err)
	}

	if err := appendHistory(ctx, tx, item); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing item %s: %w", item.Barcode, err)
	}
	return nil
}

// InsertItems stores new items and their history. Either every item is
// written or, on any error, none are.
func InsertItems(ctx context.Context, db *sql.DB, items []model.Item) error {
	if len(items) == 0 {
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	for i := range items {
		item := &items[i]
		_, err := tx.ExecContext(ctx,
			`INSERT INTO items (`+itemColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			itemArgs(item)...,
		)
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: %s", ErrDuplicateItem, item.Barcode)
		}
		if isForeignKeyViolation(err) {
			return fmt.Errorf("%w: %q", ErrLocationNotFound, item.Location)
		}
		if err != nil {
			return fmt.Errorf("inserting item %s: %w", item.Barcode, err)
		}

		if err := appendHistory(ctx, tx, item); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing %d items: %w", len(items), err)
	}
	return nil
}

// MaxSequence returns the highest sequence stored for a batch key, or 0.
func MaxSequence(ctx context.Context, db *sql.DB, key barcode.BatchKey) (int, error) {
	var highest int
	err := db.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(sequence), 0) FROM items
		 WHERE type = ? AND label_date = ? AND generation = ?`,
		key.Type.Prefix(), key.LabelDate().Format(dateLayout), key.Generation,
	).Scan(&highest)
	if err != nil {
		return 0, fmt.Errorf("finding highest sequence for %s: %w", key, err)
	}
	return highest, nil
}

// ListItems returns items without history, ordered by barcode fields.
func ListItems(ctx context.Context, db *sql.DB, f ItemFilter) ([]model.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE 1=1`
	var args []any

	if f.Type.Valid() {
		query += ` AND type = ?`
		args = append(args, f.Type.Prefix())
	}
	if f.Generation > 0 {
		query += ` AND generation = ?`
		args = append(args, f.Generation)
	}
	if f.Location != "" {
		query += ` AND location = ?`
		args = append(args, f.Location)
	}
	if f.Status != "" {
		query += ` AND status = ?`
		args = append(args, f.Status)
	}
	if !f.LabelDate.IsZero() {
		query += ` AND label_date = ?`
		args = append(args, f.LabelDate.Format(dateLayout))
	}

	query += ` ORDER BY type, label_date, generation, sequence`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func itemArgs(item *model.Item) []any {
	return []any{
		item.Barcode, item.Type.Prefix(), item.LabelDate.Format(dateLayout),
		item.Generation, item.Sequence, item.Location, item.Status, item.Note,
		item.CreatedAt, item.UpdatedAt,
	}
}

func scanItem(s rowScanner) (model.Item, error) {
	var item model.Item
	var prefix, labelDate string
	if err := s.Scan(&item.Barcode, &prefix, &labelDate, &item.Generation, &item.Sequence,
		&item.Location, &item.Status, &item.Note, &item.CreatedAt, &item.UpdatedAt); err != nil {
		return item, err
	}

	t, err := barcode.ParseType(prefix)
	if err != nil {
		return item, fmt.Errorf("%w: item %s: %w", ErrCorrupt, item.Barcode, err)
	}
	item.Type = t

	item.LabelDate, err = time.Parse(dateLayout, labelDate)
	if err != nil {
		return item, fmt.Errorf("%w: item %s: label date %q", ErrCorrupt, item.Barcode, labelDate)
	}
	return item, nil
}
