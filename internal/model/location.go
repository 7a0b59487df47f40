package model

import "time"

// Location is a named physical storage place (a shelf, a tent, a fridge).
type Location struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
