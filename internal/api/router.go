// Package api serves a read-only JSON view of the inventory and the
// engine's Prometheus metrics. State changes stay with the scanner CLI.
package api

import (
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sporetrack/sporetrack/internal/inventory"
)

// NewRouter creates the API router with all endpoints registered.
func NewRouter(engine *inventory.Engine, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()

	items := &ItemsHandler{Engine: engine}
	locations := &LocationsHandler{Engine: engine}

	mux.HandleFunc("GET /api/items", items.List)
	mux.HandleFunc("GET /api/items/{barcode}", items.Get)
	mux.HandleFunc("GET /api/summary", items.Summary)
	mux.HandleFunc("GET /api/locations", locations.List)

	mux.Handle("GET /metrics", promhttp.HandlerFor(engine.Metrics().Registry(), promhttp.HandlerOpts{}))

	return LoggingMiddleware(logger, mux)
}
