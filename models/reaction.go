package models

import "time"

// Reaction is keyed by (message, user, type). A user may hold several
// reactions of different types on the same message unless the event asks
// for uniqueness.
type Reaction struct {
	MessageID string    `json:"message_id"`
	UserID    string    `json:"user_id"`
	Type      string    `json:"type"`
	Score     int       `json:"score"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
