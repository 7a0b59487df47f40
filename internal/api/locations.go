package api

import (
	"net/http"

	"github.com/sporetrack/sporetrack/internal/inventory"
)

// LocationsHandler handles location endpoints.
type LocationsHandler struct {
	Engine *inventory.Engine
}

type locationResponse struct {
	Name    string `json:"name"`
	InStock int    `json:"in_stock"`
}

// List handles GET /api/locations.
func (h *LocationsHandler) List(w http.ResponseWriter, r *http.Request) {
	locs, err := h.Engine.Locations(r.Context())
	if err != nil {
		engineError(w, err)
		return
	}
	counts, err := h.Engine.LocationInventory(r.Context())
	if err != nil {
		engineError(w, err)
		return
	}

	resp := make([]locationResponse, 0, len(locs))
	for _, loc := range locs {
		resp = append(resp, locationResponse{Name: loc.Name, InStock: counts[loc.Name]})
	}
	jsonResponse(w, http.StatusOK, resp)
}
