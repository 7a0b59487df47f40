package model

import "time"

// HistoryEntry is one event in an item's append-only log.
type HistoryEntry struct {
	Seq          int       `json:"seq"`
	At           time.Time `json:"at"`
	Action       string    `json:"action"`
	FromLocation string    `json:"from_location,omitempty"`
	ToLocation   string    `json:"to_location"`
	Status       string    `json:"status"`
}

// History actions.
const (
	ActionCreate   = "create"
	ActionCheckIn  = "check_in"
	ActionCheckOut = "check_out"
	ActionMove     = "move"
)
