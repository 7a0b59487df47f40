package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sporetrack/sporetrack/internal/barcode"
	"github.com/sporetrack/sporetrack/internal/model"
)

// Summarize counts items per type and generation.
func Summarize(ctx context.Context, db *sql.DB) ([]model.StockSummary, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT type, generation,
		        COUNT(*) AS total,
		        SUM(CASE WHEN status = ? THEN 1 ELSE 0 END) AS in_stock,
		        SUM(CASE WHEN status = ? THEN 1 ELSE 0 END) AS checked_out
		 FROM items
		 GROUP BY type, generation
		 ORDER BY type, generation`,
		model.StatusInStock, model.StatusCheckedOut,
	)
	if err != nil {
		return nil, fmt.Errorf("summarizing inventory: %w", err)
	}
	defer rows.Close()

	var summary []model.StockSummary
	for rows.Next() {
		var s model.StockSummary
		var prefix string
		if err := rows.Scan(&prefix, &s.Generation, &s.Total, &s.InStock, &s.CheckedOut); err != nil {
			return nil, fmt.Errorf("scanning summary: %w", err)
		}
		s.Type, err = barcode.ParseType(prefix)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
		}
		summary = append(summary, s)
	}
	return summary, rows.Err()
}
