package models

import "time"

// Category is a business category tracked by the console (synced from the
// Google category list elsewhere). DisplayName is what screens show and what
// the canonical main-term phrase is built from. Stored in categories table.
type Category struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"` // Machine name, e.g. "plumber"
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
}
