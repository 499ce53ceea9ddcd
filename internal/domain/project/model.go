package project

import "time"

// Project groups intervals for reporting. Color is a display hint and
// opaque to the core.
type Project struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Color     string     `json:"color"`
	CreatedAt time.Time  `json:"created_at"`
	LastUsed  *time.Time `json:"last_used,omitempty"`
}
