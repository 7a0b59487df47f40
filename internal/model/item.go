package model

import (
	"time"

	"github.com/sporetrack/sporetrack/internal/barcode"
)

// Item is one physical, individually barcoded item (a grow bag, a block, a jar).
type Item struct {
	Barcode    string         `json:"barcode"`
	Type       barcode.Type   `json:"type"`
	LabelDate  time.Time      `json:"label_date"`
	Generation int            `json:"generation"`
	Sequence   int            `json:"sequence"`
	Location   string         `json:"location"`
	Status     string         `json:"status"`
	Note       string         `json:"note,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	History    []HistoryEntry `json:"history,omitempty"`
}

// Item statuses.
const (
	StatusInStock    = "IN_STOCK"
	StatusCheckedOut = "CHECKED_OUT"
)

// ValidStatus reports whether s is a known item status.
func ValidStatus(s string) bool {
	return s == StatusInStock || s == StatusCheckedOut
}

// NewItem builds a fresh item for a decoded barcode.
func NewItem(code barcode.Code, location string, at time.Time) Item {
	return Item{
		Barcode:    code.String(),
		Type:       code.Type,
		LabelDate:  code.LabelDate(),
		Generation: code.Generation,
		Sequence:   code.Sequence,
		Location:   location,
		Status:     StatusInStock,
		CreatedAt:  at,
		UpdatedAt:  at,
	}
}

// Code returns the decoded barcode fields of the item.
func (i *Item) Code() barcode.Code {
	return barcode.Code{
		Type:       i.Type,
		Day:        i.LabelDate.Day(),
		Month:      int(i.LabelDate.Month()),
		Year:       i.LabelDate.Year() - 2000,
		Generation: i.Generation,
		Sequence:   i.Sequence,
	}
}

// Record applies a state change and appends the matching history entry.
func (i *Item) Record(action, location, status string, at time.Time) HistoryEntry {
	entry := HistoryEntry{
		Seq:          len(i.History) + 1,
		At:           at,
		Action:       action,
		FromLocation: i.Location,
		ToLocation:   location,
		Status:       status,
	}
	if action == ActionCreate {
		entry.FromLocation = ""
	}
	i.Location = location
	i.Status = status
	i.UpdatedAt = at
	i.History = append(i.History, entry)
	return entry
}

// StockSummary counts items per type and generation.
type StockSummary struct {
	Type       barcode.Type `json:"type"`
	Generation int          `json:"generation"`
	Total      int          `json:"total"`
	InStock    int          `json:"in_stock"`
	CheckedOut int          `json:"checked_out"`
}
