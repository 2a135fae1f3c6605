package chat

import "time"

// Session captures a transient anonymous conversation bound to a mock profile.
type Session struct {
	ID        string    `json:"id"`
	ProfileID string    `json:"profileId"`
	CreatedAt time.Time `json:"createdAt"`
}
