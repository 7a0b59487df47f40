package inventory

import (
	"context"
	"errors"
	"testing"

	"github.com/sporetrack/sporetrack/internal/barcode"
	"github.com/sporetrack/sporetrack/internal/model"
	"github.com/sporetrack/sporetrack/internal/store"
)

func TestCreateBatch(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	mustAddLocation(t, e, "Shelf-A")

	items := pipiBatch(t, e, 3, "Shelf-A")

	want := []string{"PIPI_08_07_25_G2_0001", "PIPI_08_07_25_G2_0002", "PIPI_08_07_25_G2_0003"}
	if len(items) != len(want) {
		t.Fatalf("expected %d items, got %d", len(want), len(items))
	}
	for i, item := range items {
		if item.Barcode != want[i] {
			t.Errorf("item %d: expected %s, got %s", i, want[i], item.Barcode)
		}
		stored, err := e.Item(ctx, want[i])
		if err != nil {
			t.Fatalf("Item(%s): %v", want[i], err)
		}
		if stored.Status != model.StatusInStock || stored.Location != "Shelf-A" {
			t.Errorf("%s: expected IN_STOCK at Shelf-A, got %s at %s", want[i], stored.Status, stored.Location)
		}
		if len(stored.History) != 1 || stored.History[0].Action != model.ActionCreate {
			t.Errorf("%s: expected a single create entry, got %+v", want[i], stored.History)
		}
	}
}

func TestCreateBatchContinuesSequence(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	mustAddLocation(t, e, "Shelf-A")
	mustAddLocation(t, e, "Shelf-B")

	pipiBatch(t, e, 3, "Shelf-A")
	items, err := e.CreateBatchFromBarcode(ctx, "PIPI_08_07_25_G2", 2, "Shelf-B")
	if err != nil {
		t.Fatalf("CreateBatchFromBarcode: %v", err)
	}
	if items[0].Barcode != "PIPI_08_07_25_G2_0004" || items[1].Barcode != "PIPI_08_07_25_G2_0005" {
		t.Errorf("expected _0004 and _0005, got %s and %s", items[0].Barcode, items[1].Barcode)
	}

	// An item barcode identifies its batch too.
	items, err = e.CreateBatchFromBarcode(ctx, "PIPI_08_07_25_G2_0001", 1, "Shelf-B")
	if err != nil {
		t.Fatalf("CreateBatchFromBarcode from item barcode: %v", err)
	}
	if items[0].Barcode != "PIPI_08_07_25_G2_0006" {
		t.Errorf("expected _0006, got %s", items[0].Barcode)
	}

	// Other keys keep their own sequence.
	items, err = e.CreateBatchFromBarcode(ctx, "PIPI_08_07_25_G3", 1, "Shelf-A")
	if err != nil {
		t.Fatalf("CreateBatchFromBarcode for G3: %v", err)
	}
	if items[0].Barcode != "PIPI_08_07_25_G3_0001" {
		t.Errorf("expected PIPI_08_07_25_G3_0001, got %s", items[0].Barcode)
	}
}

func TestCreateBatchCapacity(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	mustAddLocation(t, e, "Shelf-A")

	key := barcode.BatchKey{Type: barcode.Lionsmane, Day: 1, Month: 1, Year: 26, Generation: 1}
	if _, err := e.CreateBatch(ctx, Batch{Key: key, Count: 9998, Location: "Shelf-A"}); err != nil {
		t.Fatalf("CreateBatch: %v", err)
	}

	_, err := e.CreateBatch(ctx, Batch{Key: key, Count: 2, Location: "Shelf-A"})
	if !errors.Is(err, ErrCapacity) {
		t.Fatalf("expected ErrCapacity, got %v", err)
	}

	items, err := e.CreateBatch(ctx, Batch{Key: key, Count: 1, Location: "Shelf-A"})
	if err != nil {
		t.Fatalf("CreateBatch filling last sequence: %v", err)
	}
	if items[0].Barcode != "LIMA_01_01_26_G1_9999" {
		t.Errorf("expected LIMA_01_01_26_G1_9999, got %s", items[0].Barcode)
	}
}

func TestCreateBatchRejected(t *testing.T) {
	e := newTestEngine(t)
	ctx := context.Background()
	mustAddLocation(t, e, "Shelf-A")

	valid := barcode.BatchKey{Type: barcode.PioPino, Day: 8, Month: 7, Year: 25, Generation: 2}
	tests := []struct {
		name  string
		batch Batch
		want  error
	}{
		{"unknown location", Batch{Key: valid, Count: 3, Location: "Shelf-Z"}, ErrLocationNotFound},
		{"zero count", Batch{Key: valid, Count: 0, Location: "Shelf-A"}, ErrInvalidCount},
		{"negative count", Batch{Key: valid, Count: -1, Location: "Shelf-A"}, ErrInvalidCount},
		{"bad date", Batch{Key: barcode.BatchKey{Type: barcode.PioPino, Day: 30, Month: 2, Year: 25, Generation: 2}, Count: 1, Location: "Shelf-A"}, ErrInvalidDate},
		{"bad generation", Batch{Key: barcode.BatchKey{Type: barcode.PioPino, Day: 8, Month: 7, Year: 25, Generation: 10}, Count: 1, Location: "Shelf-A"}, ErrInvalidGeneration},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.CreateBatch(ctx, tt.batch)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}

	items, err := e.Items(ctx, store.ItemFilter{})
	if err != nil {
		t.Fatalf("Items: %v", err)
	}
	if len(items) != 0 {
		t.Errorf("expected rejected batches to create nothing, got %d items", len(items))
	}
}

func TestCreateBatchFromBarcodeRejectsMalformed(t *testing.T) {
	e := newTestEngine(t)
	mustAddLocation(t, e, "Shelf-A")

	_, err := e.CreateBatchFromBarcode(context.Background(), "PIPI_08_07", 1, "Shelf-A")
	if !errors.Is(err, ErrFormat) {
		t.Fatalf("expected ErrFormat, got %v", err)
	}
}
