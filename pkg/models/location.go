package models

import "time"

// Location is a tracked place (county or town). Name doubles as the
// provider's geographic targeting key. Stored in locations table.
type Location struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	County    string    `json:"county,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
