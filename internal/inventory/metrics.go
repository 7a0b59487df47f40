package inventory

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts engine operations on a registry owned by one Engine.
type Metrics struct {
	registry   *prometheus.Registry
	operations *prometheus.CounterVec
	created    prometheus.Counter
	items      *prometheus.GaugeVec
}

// NewMetrics creates and registers the engine's collectors.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sporetrack",
			Name:      "operations_total",
			Help:      "Inventory operations by name and outcome.",
		}, []string{"operation", "result"}),
		created: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sporetrack",
			Name:      "items_created_total",
			Help:      "Items created by batch generation.",
		}),
		items: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "sporetrack",
			Name:      "items",
			Help:      "Items currently stored, by status.",
		}, []string{"status"}),
	}
	m.registry.MustRegister(m.operations, m.created, m.items)
	return m
}

// Registry exposes the collectors, e.g. for prometheus.WriteToTextfile.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes the current metrics in the node_exporter textfile
// format. The file is replaced atomically.
func (m *Metrics) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("writing metrics textfile: %w", err)
	}
	return nil
}

func (m *Metrics) observe(operation string, err error) {
	m.operations.WithLabelValues(operation, resultLabel(err)).Inc()
}

func (m *Metrics) setItems(status string, n int) {
	m.items.WithLabelValues(status).Set(float64(n))
}

func (m *Metrics) moveItem(from, to string) {
	m.items.WithLabelValues(from).Dec()
	m.items.WithLabelValues(to).Inc()
}

// resultLabel keeps label cardinality bounded by mapping errors to their kind.
func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrFormat), errors.Is(err, ErrUnknownType),
		errors.Is(err, ErrInvalidDate), errors.Is(err, ErrInvalidGeneration):
		return "invalid_barcode"
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrLocationNotFound):
		return "not_found"
	case errors.Is(err, ErrAlreadyInStock), errors.Is(err, ErrAlreadyCheckedOut),
		errors.Is(err, ErrNotInStock):
		return "invalid_state"
	case errors.Is(err, ErrDuplicateLocation), errors.Is(err, ErrInvalidLocation):
		return "invalid_location"
	case errors.Is(err, ErrCapacity), errors.Is(err, ErrInvalidCount):
		return "rejected"
	default:
		return "error"
	}
}
