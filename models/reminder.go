package models

import "time"

// Reminder is keyed by message id and replaced wholesale on every event.
type Reminder struct {
	MessageID string     `json:"message_id"`
	CID       string     `json:"channel_cid"`
	UserID    string     `json:"user_id"`
	RemindAt  *time.Time `json:"remind_at"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Draft is an unsent message, keyed by (channel, thread parent). ParentID is
// empty for a channel-level draft.
type Draft struct {
	CID       string    `json:"channel_cid"`
	ParentID  string    `json:"parent_id"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"created_at"`
}
