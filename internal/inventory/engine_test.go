package inventory

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/sporetrack/sporetrack/internal/barcode"
	"github.com/sporetrack/sporetrack/internal/db"
	"github.com/sporetrack/sporetrack/internal/model"
	"github.com/sporetrack/sporetrack/internal/store"
)

var testTime = time.Date(2025, time.July, 8, 9, 30, 0, 0, time.UTC)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// newTestEngine returns an engine on an in-memory store whose clock advances
// one minute per call.
func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	tick := testTime
	clock := func() time.Time {
		tick = tick.Add(time.Minute)
		return tick
	}
	return New(db.NewTestDB(t), WithClock(clock), WithLogger(quietLogger()))
}

func mustAddLocation(t *testing.T, e *Engine, name string) {
	t.Helper()
	if _, err := e.AddLocation(context.Background(), name); err != nil {
		t.Fatalf("AddLocation(%q): %v", name, err)
	}
}

// pipiBatch creates PIPI_08_07_25_G2_0001..count at location.
func pipiBatch(t *testing.T, e *Engine, count int, location string) []model.Item {
	t.Helper()
	items, err := e.CreateBatch(context.Background(), Batch{
		Key:      barcode.BatchKey{Type: barcode.PioPino, Day: 8, Month: 7, Year: 25, Generation: 2},
		Count:    count,
		Location: location,
	})
	if err != nil {
		t.Fatalf("CreateBatch: %v", err)
	}
	return items
}

func TestCheckOutKeepsLocation(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	mustAddLocation(t, e, "Shelf-A")
	pipiBatch(t, e, 1, "Shelf-A")

	item, err := e.CheckOut(ctx, "PIPI_08_07_25_G2_0001")
	if err != nil {
		t.Fatalf("CheckOut: %v", err)
	}
	if item.Status != model.StatusCheckedOut || item.Location != "Shelf-A" {
		t.Errorf("expected CHECKED_OUT at Shelf-A, got %s at %s", item.Status, item.Location)
	}

	stored, err := e.Item(ctx, "PIPI_08_07_25_G2_0001")
	if err != nil {
		t.Fatalf("Item: %v", err)
	}
	if stored.Status != model.StatusCheckedOut {
		t.Errorf("expected stored status CHECKED_OUT, got %s", stored.Status)
	}
	if len(stored.History) != 2 {
		t.Fatalf("expected 2 history entries, got %d", len(stored.History))
	}
	last := stored.History[1]
	if last.Action != model.ActionCheckOut || last.FromLocation != "Shelf-A" || last.Status != model.StatusCheckedOut {
		t.Errorf("unexpected check-out entry: %+v", last)
	}
}

func TestCheckOutTwice(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	mustAddLocation(t, e, "Shelf-A")
	pipiBatch(t, e, 1, "Shelf-A")

	if _, err := e.CheckOut(ctx, "PIPI_08_07_25_G2_0001"); err != nil {
		t.Fatalf("CheckOut: %v", err)
	}
	_, err := e.CheckOut(ctx, "PIPI_08_07_25_G2_0001")
	if !errors.Is(err, ErrAlreadyCheckedOut) {
		t.Fatalf("expected ErrAlreadyCheckedOut, got %v", err)
	}

	item, err := e.Item(ctx, "PIPI_08_07_25_G2_0001")
	if err != nil {
		t.Fatalf("Item: %v", err)
	}
	if len(item.History) != 2 {
		t.Errorf("expected rejected check-out to leave history at 2 entries, got %d", len(item.History))
	}
}

func TestCheckInAfterCheckOut(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	mustAddLocation(t, e, "Shelf-A")
	mustAddLocation(t, e, "Shelf-B")
	pipiBatch(t, e, 1, "Shelf-A")

	if _, err := e.CheckOut(ctx, "PIPI_08_07_25_G2_0001"); err != nil {
		t.Fatalf("CheckOut: %v", err)
	}
	item, err := e.CheckIn(ctx, "PIPI_08_07_25_G2_0001", "Shelf-B")
	if err != nil {
		t.Fatalf("CheckIn: %v", err)
	}
	if item.Status != model.StatusInStock || item.Location != "Shelf-B" {
		t.Errorf("expected IN_STOCK at Shelf-B, got %s at %s", item.Status, item.Location)
	}
	last := item.History[len(item.History)-1]
	if last.Action != model.ActionCheckIn || last.FromLocation != "Shelf-A" || last.ToLocation != "Shelf-B" {
		t.Errorf("unexpected check-in entry: %+v", last)
	}
}

func TestCheckInAlreadyInStock(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	mustAddLocation(t, e, "Shelf-A")
	pipiBatch(t, e, 1, "Shelf-A")

	_, err := e.CheckIn(ctx, "PIPI_08_07_25_G2_0001", "Shelf-A")
	if !errors.Is(err, ErrAlreadyInStock) {
		t.Fatalf("expected ErrAlreadyInStock, got %v", err)
	}
}

func TestCheckInUnknownItem(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	mustAddLocation(t, e, "Shelf-A")

	_, err := e.CheckIn(ctx, "PIPI_08_07_25_G2_0001", "Shelf-A")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := e.Item(ctx, "PIPI_08_07_25_G2_0001"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected check-in not to create the item, got %v", err)
	}
}

func TestCheckInUnknownLocation(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	mustAddLocation(t, e, "Shelf-A")
	pipiBatch(t, e, 1, "Shelf-A")
	if _, err := e.CheckOut(ctx, "PIPI_08_07_25_G2_0001"); err != nil {
		t.Fatalf("CheckOut: %v", err)
	}

	_, err := e.CheckIn(ctx, "PIPI_08_07_25_G2_0001", "Attic")
	if !errors.Is(err, ErrLocationNotFound) {
		t.Fatalf("expected ErrLocationNotFound, got %v", err)
	}
}

func TestMove(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	mustAddLocation(t, e, "Shelf-A")
	mustAddLocation(t, e, "Shelf-B")
	pipiBatch(t, e, 2, "Shelf-A")

	item, err := e.Move(ctx, "PIPI_08_07_25_G2_0002", "Shelf-B")
	if err != nil {
		t.Fatalf("Move: %v", err)
	}
	if item.Location != "Shelf-B" || item.Status != model.StatusInStock {
		t.Errorf("expected IN_STOCK at Shelf-B, got %s at %s", item.Status, item.Location)
	}

	counts, err := e.LocationInventory(ctx)
	if err != nil {
		t.Fatalf("LocationInventory: %v", err)
	}
	if counts["Shelf-A"] != 1 || counts["Shelf-B"] != 1 {
		t.Errorf("expected one item on each shelf, got %v", counts)
	}

	// Same-location moves are recorded like any other.
	item, err = e.Move(ctx, "PIPI_08_07_25_G2_0002", "Shelf-B")
	if err != nil {
		t.Fatalf("Move to same location: %v", err)
	}
	if len(item.History) != 3 {
		t.Errorf("expected 3 history entries, got %d", len(item.History))
	}
}

func TestMoveCheckedOutItem(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	mustAddLocation(t, e, "Shelf-A")
	mustAddLocation(t, e, "Shelf-B")
	pipiBatch(t, e, 1, "Shelf-A")

	if _, err := e.CheckOut(ctx, "PIPI_08_07_25_G2_0001"); err != nil {
		t.Fatalf("CheckOut: %v", err)
	}
	_, err := e.Move(ctx, "PIPI_08_07_25_G2_0001", "Shelf-B")
	if !errors.Is(err, ErrNotInStock) {
		t.Fatalf("expected ErrNotInStock, got %v", err)
	}

	item, err := e.Item(ctx, "PIPI_08_07_25_G2_0001")
	if err != nil {
		t.Fatalf("Item: %v", err)
	}
	if item.Location != "Shelf-A" || item.Status != model.StatusCheckedOut {
		t.Errorf("expected item unchanged, got %s at %s", item.Status, item.Location)
	}
}

func TestMoveUnknownLocation(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	mustAddLocation(t, e, "Shelf-A")
	pipiBatch(t, e, 1, "Shelf-A")

	_, err := e.Move(ctx, "PIPI_08_07_25_G2_0001", "Shelf-Z")
	if !errors.Is(err, ErrLocationNotFound) {
		t.Fatalf("expected ErrLocationNotFound, got %v", err)
	}
}

func TestCommandsRejectMalformedBarcodes(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	mustAddLocation(t, e, "Shelf-A")

	tests := []struct {
		raw  string
		want error
	}{
		{"PIPI-08-07-25-G2-0001", ErrFormat},
		{"XXXX_08_07_25_G2_0001", ErrUnknownType},
		{"PIPI_31_02_25_G2_0001", ErrInvalidDate},
		{"PIPI_08_07_25_G0_0001", ErrInvalidGeneration},
	}
	for _, tt := range tests {
		if _, err := e.CheckOut(ctx, tt.raw); !errors.Is(err, tt.want) {
			t.Errorf("CheckOut(%q): expected %v, got %v", tt.raw, tt.want, err)
		}
		if _, err := e.CheckIn(ctx, tt.raw, "Shelf-A"); !errors.Is(err, tt.want) {
			t.Errorf("CheckIn(%q): expected %v, got %v", tt.raw, tt.want, err)
		}
		if _, err := e.Move(ctx, tt.raw, "Shelf-A"); !errors.Is(err, tt.want) {
			t.Errorf("Move(%q): expected %v, got %v", tt.raw, tt.want, err)
		}
	}
}

func TestLowercasePrefixResolvesToCanonicalItem(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	mustAddLocation(t, e, "Shelf-A")
	pipiBatch(t, e, 1, "Shelf-A")

	item, err := e.CheckOut(ctx, "pipi_08_07_25_G2_0001")
	if err != nil {
		t.Fatalf("CheckOut: %v", err)
	}
	if item.Barcode != "PIPI_08_07_25_G2_0001" {
		t.Errorf("expected canonical barcode, got %s", item.Barcode)
	}
}

func TestAddLocation(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()

	mustAddLocation(t, e, "Shelf-A")
	if _, err := e.AddLocation(ctx, "Shelf-A"); !errors.Is(err, ErrDuplicateLocation) {
		t.Fatalf("expected ErrDuplicateLocation, got %v", err)
	}
	mustAddLocation(t, e, "shelf-a")

	locs, err := e.Locations(ctx)
	if err != nil {
		t.Fatalf("Locations: %v", err)
	}
	if len(locs) != 2 || locs[0].Name != "Shelf-A" || locs[1].Name != "shelf-a" {
		t.Errorf("unexpected locations: %+v", locs)
	}
}

func TestSetNote(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	mustAddLocation(t, e, "Shelf-A")
	pipiBatch(t, e, 1, "Shelf-A")

	if _, err := e.SetNote(ctx, "PIPI_08_07_25_G2_0001", "contaminated corner"); err != nil {
		t.Fatalf("SetNote: %v", err)
	}
	item, err := e.Item(ctx, "PIPI_08_07_25_G2_0001")
	if err != nil {
		t.Fatalf("Item: %v", err)
	}
	if item.Note != "contaminated corner" {
		t.Errorf("expected note to be stored, got %q", item.Note)
	}
	if len(item.History) != 1 {
		t.Errorf("expected notes to leave history alone, got %d entries", len(item.History))
	}

	if _, err := e.SetNote(ctx, "PIPI_08_07_25_G2_0009", "x"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestMetricsCountOutcomes(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	mustAddLocation(t, e, "Shelf-A")
	pipiBatch(t, e, 3, "Shelf-A")

	if _, err := e.CheckOut(ctx, "PIPI_08_07_25_G2_0001"); err != nil {
		t.Fatalf("CheckOut: %v", err)
	}
	e.CheckOut(ctx, "PIPI_08_07_25_G2_0001")
	e.CheckOut(ctx, "nonsense")

	m := e.Metrics()
	checks := []struct {
		name string
		got  float64
		want float64
	}{
		{"check_out ok", testutil.ToFloat64(m.operations.WithLabelValues("check_out", "ok")), 1},
		{"check_out invalid_state", testutil.ToFloat64(m.operations.WithLabelValues("check_out", "invalid_state")), 1},
		{"check_out invalid_barcode", testutil.ToFloat64(m.operations.WithLabelValues("check_out", "invalid_barcode")), 1},
		{"created", testutil.ToFloat64(m.created), 3},
		{"in stock", testutil.ToFloat64(m.items.WithLabelValues(model.StatusInStock)), 2},
		{"checked out", testutil.ToFloat64(m.items.WithLabelValues(model.StatusCheckedOut)), 1},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s: expected %v, got %v", c.name, c.want, c.got)
		}
	}
}

func TestWriteTextfile(t *testing.T) {
	e := newTestEngine(t)
	mustAddLocation(t, e, "Shelf-A")

	path := filepath.Join(t.TempDir(), "sporetrack.prom")
	if err := e.Metrics().WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading textfile: %v", err)
	}
	if !strings.Contains(string(data), `sporetrack_operations_total{operation="add_location",result="ok"} 1`) {
		t.Errorf("expected add_location counter in textfile, got:\n%s", data)
	}
}

func TestOpenPersistsAcrossRestarts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inventory.sqlite3")
	ctx := context.Background()

	e, err := Open(ctx, path, WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	mustAddLocation(t, e, "Shelf-A")
	pipiBatch(t, e, 2, "Shelf-A")
	if _, err := e.CheckOut(ctx, "PIPI_08_07_25_G2_0002"); err != nil {
		t.Fatalf("CheckOut: %v", err)
	}
	if err := e.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	e, err = Open(ctx, path, WithLogger(quietLogger()))
	if err != nil {
		t.Fatalf("reopening: %v", err)
	}
	defer e.Close()

	item, err := e.Item(ctx, "PIPI_08_07_25_G2_0002")
	if err != nil {
		t.Fatalf("Item: %v", err)
	}
	if item.Status != model.StatusCheckedOut || len(item.History) != 2 {
		t.Errorf("expected checked-out item with 2 entries, got %s with %d", item.Status, len(item.History))
	}
	if got := testutil.ToFloat64(e.Metrics().items.WithLabelValues(model.StatusInStock)); got != 1 {
		t.Errorf("expected in-stock gauge 1 after reload, got %v", got)
	}
}

func TestOpenRejectsGarbageFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inventory.sqlite3")
	if err := os.WriteFile(path, []byte("this is not a database, just some bytes that are long enough"), 0o644); err != nil {
		t.Fatalf("writing file: %v", err)
	}

	_, err := Open(context.Background(), path, WithLogger(quietLogger()))
	if !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt, got %v", err)
	}
}

func TestOpenRejectsInconsistentRecords(t *testing.T) {
	path := db.NewTestFile(t)

	database, err := db.Open(path)
	if err != nil {
		t.Fatalf("db.Open: %v", err)
	}
	for _, q := range []string{
		`INSERT INTO locations (name) VALUES ('Shelf-A')`,
		`INSERT INTO items (barcode, type, label_date, generation, sequence, location)
		 VALUES ('PIPI_08_07_25_G2_0001', 'CHNU', '2025-07-08', 2, 1, 'Shelf-A')`,
		`INSERT INTO item_history (barcode, seq, at, action, to_location, status)
		 VALUES ('PIPI_08_07_25_G2_0001', 1, CURRENT_TIMESTAMP, 'create', 'Shelf-A', 'IN_STOCK')`,
	} {
		if _, err := database.Exec(q); err != nil {
			t.Fatalf("seeding: %v", err)
		}
	}
	database.Close()

	_, err = Open(context.Background(), path, WithLogger(quietLogger()))
	if !errors.Is(err, ErrCorrupt) {
		t.Fatalf("expected ErrCorrupt, got %v", err)
	}
}

func TestItemsAndSummary(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	mustAddLocation(t, e, "Shelf-A")
	pipiBatch(t, e, 3, "Shelf-A")
	if _, err := e.CheckOut(ctx, "PIPI_08_07_25_G2_0003"); err != nil {
		t.Fatalf("CheckOut: %v", err)
	}

	out, err := e.Items(ctx, store.ItemFilter{Status: model.StatusCheckedOut})
	if err != nil {
		t.Fatalf("Items: %v", err)
	}
	if len(out) != 1 || out[0].Barcode != "PIPI_08_07_25_G2_0003" {
		t.Errorf("expected only _0003 checked out, got %+v", out)
	}

	summary, err := e.Summary(ctx)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if len(summary) != 1 {
		t.Fatalf("expected 1 summary row, got %d", len(summary))
	}
	s := summary[0]
	if s.Type != barcode.PioPino || s.Generation != 2 || s.Total != 3 || s.InStock != 2 || s.CheckedOut != 1 {
		t.Errorf("unexpected summary: %+v", s)
	}
}
