package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/sporetrack/sporetrack/internal/model"
)

// CreateLocation registers a new location. Names are case-sensitive and
// never reused.
func CreateLocation(ctx context.Context, db *sql.DB, name string, at time.Time) (*model.Location, error) {
	if strings.TrimSpace(name) == "" || strings.TrimSpace(name) != name {
		return nil, fmt.Errorf("%w: %q", ErrInvalidLocation, name)
	}

	result, err := db.ExecContext(ctx,
		`INSERT INTO locations (name, created_at) VALUES (?, ?)`,
		name, at,
	)
	if isUniqueViolation(err) {
		return nil, fmt.Errorf("%w: %q", ErrDuplicateLocation, name)
	}
	if err != nil {
		return nil, fmt.Errorf("creating location: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting location id: %w", err)
	}

	return &model.Location{ID: id, Name: name, CreatedAt: at}, nil
}

// GetLocation returns a location by name.
func GetLocation(ctx context.Context, db *sql.DB, name string) (*model.Location, error) {
	return getLocation(ctx, db, name)
}

func getLocation(ctx context.Context, q querier, name string) (*model.Location, error) {
	l := &model.Location{}
	err := q.QueryRowContext(ctx,
		`SELECT id, name, created_at FROM locations WHERE name = ?`, name,
	).Scan(&l.ID, &l.Name, &l.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %q", ErrLocationNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("getting location: %w", err)
	}
	return l, nil
}

// LocationExists reports whether a location with exactly this name exists.
func LocationExists(ctx context.Context, db *sql.DB, name string) (bool, error) {
	var count int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM locations WHERE name = ?`, name,
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking location: %w", err)
	}
	return count > 0, nil
}

// ListLocations returns all locations in creation order.
func ListLocations(ctx context.Context, db *sql.DB) ([]model.Location, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, name, created_at FROM locations ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing locations: %w", err)
	}
	defer rows.Close()

	var locations []model.Location
	for rows.Next() {
		var l model.Location
		if err := rows.Scan(&l.ID, &l.Name, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning location: %w", err)
		}
		locations = append(locations, l)
	}
	return locations, rows.Err()
}

// GetLocationInventory returns the number of in-stock items per location.
// Empty locations are included with a zero count.
func GetLocationInventory(ctx context.Context, db *sql.DB) (map[string]int, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT l.name, COUNT(i.barcode)
		 FROM locations l
		 LEFT JOIN items i ON i.location = l.name AND i.status = ?
		 GROUP BY l.id`, model.StatusInStock,
	)
	if err != nil {
		return nil, fmt.Errorf("getting location inventory: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var name string
		var n int
		if err := rows.Scan(&name, &n); err != nil {
			return nil, fmt.Errorf("scanning location inventory: %w", err)
		}
		counts[name] = n
	}
	return counts, rows.Err()
}
