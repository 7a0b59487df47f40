// Package inventory is the only code that changes inventory state. It checks
// items in and out, moves them between locations, registers locations and
// creates batches, persisting every change before returning.
package inventory

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sporetrack/sporetrack/internal/barcode"
	"github.com/sporetrack/sporetrack/internal/db"
	"github.com/sporetrack/sporetrack/internal/model"
	"github.com/sporetrack/sporetrack/internal/store"
)

// Engine applies inventory commands one at a time against a SQLite store.
type Engine struct {
	db      *sql.DB
	mu      sync.Mutex
	now     func() time.Time
	logger  *slog.Logger
	metrics *Metrics
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the time source used for history timestamps.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithMetrics sets the metrics collectors. By default each engine creates its own.
func WithMetrics(m *Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// New creates an engine on an already migrated database.
func New(database *sql.DB, opts ...Option) *Engine {
	e := &Engine{
		db:     database,
		now:    func() time.Time { return time.Now().UTC().Round(0) },
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.metrics == nil {
		e.metrics = NewMetrics()
	}
	return e
}

// Open opens the store file at path, applies migrations and verifies every
// stored record. A store that fails verification is closed and ErrCorrupt
// is returned; the caller must not continue with it.
func Open(ctx context.Context, path string, opts ...Option) (*Engine, error) {
	database, err := db.Open(path)
	if err != nil {
		return nil, err
	}

	if err := db.Migrate(database); err != nil {
		database.Close()
		return nil, err
	}

	e := New(database, opts...)

	stats, err := store.Verify(ctx, database)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("verifying store: %w", err)
	}
	e.metrics.setItems(model.StatusInStock, stats.InStock)
	e.metrics.setItems(model.StatusCheckedOut, stats.Items-stats.InStock)

	e.logger.Info("store loaded", "path", path, "items", stats.Items, "locations", stats.Locations)
	return e, nil
}

// Close closes the underlying database.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.db.Close()
}

// DB returns the underlying database handle, for backups.
func (e *Engine) DB() *sql.DB {
	return e.db
}

// Metrics returns the engine's metrics collectors.
func (e *Engine) Metrics() *Metrics {
	return e.metrics
}

// CheckIn returns a checked-out item to stock at the given location.
// Check-in never creates items; unknown barcodes fail with ErrNotFound.
func (e *Engine) CheckIn(ctx context.Context, raw, location string) (*model.Item, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	item, err := e.checkIn(ctx, raw, location)
	e.metrics.observe("check_in", err)
	return item, err
}

func (e *Engine) checkIn(ctx context.Context, raw, location string) (*model.Item, error) {
	item, err := e.lookup(ctx, raw)
	if err != nil {
		return nil, err
	}
	if err := e.requireLocation(ctx, location); err != nil {
		return nil, err
	}
	if item.Status == model.StatusInStock {
		return nil, fmt.Errorf("%w: %s at %q", ErrAlreadyInStock, item.Barcode, item.Location)
	}

	item.Record(model.ActionCheckIn, location, model.StatusInStock, e.now())
	if err := store.PutItem(ctx, e.db, item); err != nil {
		return nil, err
	}

	e.metrics.moveItem(model.StatusCheckedOut, model.StatusInStock)
	e.logger.Info("item checked in", "barcode", item.Barcode, "location", location)
	return item, nil
}

// CheckOut removes an in-stock item from stock. Its location is kept.
func (e *Engine) CheckOut(ctx context.Context, raw string) (*model.Item, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	item, err := e.checkOut(ctx, raw)
	e.metrics.observe("check_out", err)
	return item, err
}

func (e *Engine) checkOut(ctx context.Context, raw string) (*model.Item, error) {
	item, err := e.lookup(ctx, raw)
	if err != nil {
		return nil, err
	}
	if item.Status != model.StatusInStock {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyCheckedOut, item.Barcode)
	}

	item.Record(model.ActionCheckOut, item.Location, model.StatusCheckedOut, e.now())
	if err := store.PutItem(ctx, e.db, item); err != nil {
		return nil, err
	}

	e.metrics.moveItem(model.StatusInStock, model.StatusCheckedOut)
	e.logger.Info("item checked out", "barcode", item.Barcode, "location", item.Location)
	return item, nil
}

// Move relocates an in-stock item.
func (e *Engine) Move(ctx context.Context, raw, location string) (*model.Item, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	item, err := e.move(ctx, raw, location)
	e.metrics.observe("move", err)
	return item, err
}

func (e *Engine) move(ctx context.Context, raw, location string) (*model.Item, error) {
	item, err := e.lookup(ctx, raw)
	if err != nil {
		return nil, err
	}
	if err := e.requireLocation(ctx, location); err != nil {
		return nil, err
	}
	if item.Status != model.StatusInStock {
		return nil, fmt.Errorf("%w: %s is checked out", ErrNotInStock, item.Barcode)
	}

	from := item.Location
	item.Record(model.ActionMove, location, model.StatusInStock, e.now())
	if err := store.PutItem(ctx, e.db, item); err != nil {
		return nil, err
	}

	e.logger.Info("item moved", "barcode", item.Barcode, "from", from, "to", location)
	return item, nil
}

// SetNote replaces the free-text note on an item. Notes are not part of
// the item's state history.
func (e *Engine) SetNote(ctx context.Context, raw, note string) (*model.Item, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	item, err := e.lookup(ctx, raw)
	if err == nil {
		item.Note = note
		item.UpdatedAt = e.now()
		err = store.PutItem(ctx, e.db, item)
	}
	e.metrics.observe("note", err)
	if err != nil {
		return nil, err
	}
	return item, nil
}

// AddLocation registers a new location.
func (e *Engine) AddLocation(ctx context.Context, name string) (*model.Location, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	loc, err := store.CreateLocation(ctx, e.db, name, e.now())
	e.metrics.observe("add_location", err)
	if err != nil {
		return nil, err
	}
	e.logger.Info("location added", "location", name)
	return loc, nil
}

// Locations returns every location in creation order.
func (e *Engine) Locations(ctx context.Context) ([]model.Location, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return store.ListLocations(ctx, e.db)
}

// LocationInventory returns the number of in-stock items at each location.
func (e *Engine) LocationInventory(ctx context.Context) (map[string]int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return store.GetLocationInventory(ctx, e.db)
}

// Item returns an item and its history.
func (e *Engine) Item(ctx context.Context, raw string) (*model.Item, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lookup(ctx, raw)
}

// Items lists items matching the filter.
func (e *Engine) Items(ctx context.Context, f store.ItemFilter) ([]model.Item, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return store.ListItems(ctx, e.db, f)
}

// Summary counts items per type and generation.
func (e *Engine) Summary(ctx context.Context) ([]model.StockSummary, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return store.Summarize(ctx, e.db)
}

// lookup decodes raw and loads the item under its canonical barcode.
func (e *Engine) lookup(ctx context.Context, raw string) (*model.Item, error) {
	code, err := barcode.Parse(raw)
	if err != nil {
		return nil, err
	}
	return store.GetItem(ctx, e.db, code.String())
}

func (e *Engine) requireLocation(ctx context.Context, name string) error {
	exists, err := store.LocationExists(ctx, e.db, name)
	if err != nil {
		return err
	}
	if !exists {
		return fmt.Errorf("%w: %q", ErrLocationNotFound, name)
	}
	return nil
}
