// Package backup takes point-in-time copies of the inventory database.
package backup

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// DefaultDir is where snapshots go when no directory is configured.
const DefaultDir = "backup"

// nameLayout names snapshot files second_minute_hour_day_month_year.db,
// the layout existing backup folders already use.
const nameLayout = "05_04_15_02_01_06"

const ext = ".db"

// Snapshot writes a consistent copy of the open database into dir and
// returns the path of the new file. The copy is made with VACUUM INTO, so
// it is safe to take while the database is in use.
func Snapshot(ctx context.Context, db *sql.DB, dir string, at time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating backup directory: %w", err)
	}

	path := filepath.Join(dir, at.Format(nameLayout)+ext)
	if _, err := os.Stat(path); err == nil {
		return "", fmt.Errorf("backup %s already exists", path)
	}

	if _, err := db.ExecContext(ctx, `VACUUM INTO ?`, path); err != nil {
		return "", fmt.Errorf("writing backup: %w", err)
	}
	return path, nil
}

// Prune removes the oldest snapshots in dir so that at most keep remain.
// Files that are not snapshots are left alone. It returns the removed paths.
func Prune(dir string, keep int) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading backup directory: %w", err)
	}

	type snapshot struct {
		path string
		at   time.Time
	}
	var snaps []snapshot
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ext) {
			continue
		}
		at, err := time.Parse(nameLayout, strings.TrimSuffix(name, ext))
		if err != nil {
			continue
		}
		snaps = append(snaps, snapshot{path: filepath.Join(dir, name), at: at})
	}
	if len(snaps) <= keep {
		return nil, nil
	}

	sort.Slice(snaps, func(i, j int) bool { return snaps[i].at.After(snaps[j].at) })

	var removed []string
	for _, s := range snaps[keep:] {
		if err := os.Remove(s.path); err != nil {
			return removed, fmt.Errorf("removing backup: %w", err)
		}
		removed = append(removed, s.path)
	}
	return removed, nil
}
