package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sporetrack/sporetrack/internal/barcode"
	"github.com/sporetrack/sporetrack/internal/inventory"
	"github.com/sporetrack/sporetrack/internal/model"
	"github.com/sporetrack/sporetrack/internal/store"
)

// ItemsHandler handles item endpoints.
type ItemsHandler struct {
	Engine *inventory.Engine
}

// List handles GET /api/items?type=&generation=&location=&status=&label_date=.
func (h *ItemsHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var f store.ItemFilter

	if v := q.Get("type"); v != "" {
		t, ok := barcode.LookupName(v)
		if !ok {
			jsonError(w, http.StatusBadRequest, "unknown type")
			return
		}
		f.Type = t
	}
	if v := q.Get("generation"); v != "" {
		gen, err := strconv.Atoi(v)
		if err != nil || gen < 1 || gen > 9 {
			jsonError(w, http.StatusBadRequest, "generation must be 1-9")
			return
		}
		f.Generation = gen
	}
	f.Location = q.Get("location")
	if v := q.Get("status"); v != "" {
		v = strings.ToUpper(v)
		if !model.ValidStatus(v) {
			jsonError(w, http.StatusBadRequest, "status must be IN_STOCK or CHECKED_OUT")
			return
		}
		f.Status = v
	}
	if v := q.Get("label_date"); v != "" {
		d, err := time.Parse("2006-01-02", v)
		if err != nil {
			jsonError(w, http.StatusBadRequest, "label_date must be YYYY-MM-DD")
			return
		}
		f.LabelDate = d
	}

	items, err := h.Engine.Items(r.Context(), f)
	if err != nil {
		engineError(w, err)
		return
	}
	if items == nil {
		items = []model.Item{}
	}
	jsonResponse(w, http.StatusOK, items)
}

// Get handles GET /api/items/{barcode}.
func (h *ItemsHandler) Get(w http.ResponseWriter, r *http.Request) {
	item, err := h.Engine.Item(r.Context(), r.PathValue("barcode"))
	if err != nil {
		engineError(w, err)
		return
	}
	jsonResponse(w, http.StatusOK, item)
}

// Summary handles GET /api/summary.
func (h *ItemsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.Engine.Summary(r.Context())
	if err != nil {
		engineError(w, err)
		return
	}
	if summary == nil {
		summary = []model.StockSummary{}
	}
	jsonResponse(w, http.StatusOK, summary)
}
