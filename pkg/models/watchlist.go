package models

import "time"

// ListEntry is one watchlist or favorites row joined with display fields of
// the title it points at.
type ListEntry struct {
	UserID     int64     `json:"user_id"`
	Target     MediaRef  `json:"target"`
	Title      string    `json:"title"`
	PosterPath string    `json:"poster_path,omitempty"`
	AddedAt    time.Time `json:"added_at"`
}
