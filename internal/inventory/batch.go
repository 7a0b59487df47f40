package inventory

import (
	"context"
	"fmt"

	"github.com/sporetrack/sporetrack/internal/barcode"
	"github.com/sporetrack/sporetrack/internal/model"
	"github.com/sporetrack/sporetrack/internal/store"
)

// Batch describes a run of new items sharing a type, label date and
// generation.
type Batch struct {
	Key      barcode.BatchKey
	Count    int
	Location string
}

// CreateBatch allocates Count consecutive sequence numbers after the highest
// one already used for the batch key and stores the new items, all in stock
// at Location. Nothing is written unless every item can be.
func (e *Engine) CreateBatch(ctx context.Context, b Batch) ([]model.Item, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	items, err := e.createBatch(ctx, b)
	e.metrics.observe("create_batch", err)
	return items, err
}

// CreateBatchFromBarcode is CreateBatch for a scanned batch barcode
// (PIPI_08_07_25_G2) or any item barcode of the batch.
func (e *Engine) CreateBatchFromBarcode(ctx context.Context, raw string, count int, location string) ([]model.Item, error) {
	key, err := barcode.ParseBatch(raw)
	if err != nil {
		e.metrics.observe("create_batch", err)
		return nil, err
	}
	return e.CreateBatch(ctx, Batch{Key: key, Count: count, Location: location})
}

func (e *Engine) createBatch(ctx context.Context, b Batch) ([]model.Item, error) {
	if err := b.Key.Validate(); err != nil {
		return nil, err
	}
	if b.Count < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidCount, b.Count)
	}
	if err := e.requireLocation(ctx, b.Location); err != nil {
		return nil, err
	}

	base, err := store.MaxSequence(ctx, e.db, b.Key)
	if err != nil {
		return nil, err
	}
	if base+b.Count > barcode.MaxSequence {
		return nil, fmt.Errorf("%w: %s already uses sequences up to %04d, %d more would pass %04d",
			ErrCapacity, b.Key, base, b.Count, barcode.MaxSequence)
	}

	at := e.now()
	items := make([]model.Item, 0, b.Count)
	for seq := base + 1; seq <= base+b.Count; seq++ {
		item := model.NewItem(b.Key.Item(seq), b.Location, at)
		item.Record(model.ActionCreate, b.Location, model.StatusInStock, at)
		items = append(items, item)
	}

	if err := store.InsertItems(ctx, e.db, items); err != nil {
		return nil, err
	}

	e.metrics.created.Add(float64(len(items)))
	e.metrics.items.WithLabelValues(model.StatusInStock).Add(float64(len(items)))
	e.logger.Info("batch created",
		"batch", b.Key.String(),
		"first", items[0].Barcode,
		"last", items[len(items)-1].Barcode,
		"count", len(items),
		"location", b.Location,
	)
	return items, nil
}
