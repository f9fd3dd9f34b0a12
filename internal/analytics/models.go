package analytics

import "time"

// RoomActivity summarizes the activity log for one room.
type RoomActivity struct {
	RoomCode   string     `json:"roomCode"`
	Joins      int        `json:"joins"`
	Messages   int        `json:"messages"`
	MediaShare float64    `json:"mediaShare"` // percent of messages carrying media
	LastActive *time.Time `json:"lastActive,omitempty"`
}

// RoomSummary is the per-room detail view.
type RoomSummary struct {
	RoomActivity
	UniqueSenders int `json:"uniqueSenders"`
	OpenSessions  int `json:"openSessions"`
}
