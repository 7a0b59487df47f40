package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/sporetrack/sporetrack/internal/inventory"
)

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("encoding response", "error", err)
		}
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

// engineError maps an engine error to a status code. Barcode errors carry
// their parse detail; internal failures do not.
func engineError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, inventory.ErrFormat), errors.Is(err, inventory.ErrUnknownType),
		errors.Is(err, inventory.ErrInvalidDate), errors.Is(err, inventory.ErrInvalidGeneration):
		jsonError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, inventory.ErrNotFound):
		jsonError(w, http.StatusNotFound, "item not found")
	case errors.Is(err, inventory.ErrLocationNotFound):
		jsonError(w, http.StatusNotFound, "location not found")
	default:
		slog.Error("api request failed", "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
	}
}
