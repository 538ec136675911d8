package models

import (
	"slices"
	"time"
)

// MessageType is the server-side message kind.
type MessageType string

const (
	MessageTypeRegular   MessageType = "regular"
	MessageTypeReply     MessageType = "reply"
	MessageTypeSystem    MessageType = "system"
	MessageTypeDeleted   MessageType = "deleted"
	MessageTypeEphemeral MessageType = "ephemeral"
	MessageTypeError     MessageType = "error"
)

// Message is a chat message as the sync engine stores it.
//
// ParentID is set for thread replies. A reply with ShowInChannel=false lives
// only in its thread and is never placed in the channel's message collection.
//
// RestrictedVisibility is an allow-list of user ids; empty means everyone.
type Message struct {
	ID                   string      `json:"id"`
	CID                  string      `json:"cid"`
	UserID               string      `json:"user_id"`
	Text                 string      `json:"text"`
	Type                 MessageType `json:"type"`
	ParentID             string      `json:"parent_id,omitempty"`
	ShowInChannel        bool        `json:"show_in_channel"`
	Silent               bool        `json:"silent"`
	Shadowed             bool        `json:"shadowed"`
	RestrictedVisibility []string    `json:"restricted_visibility,omitempty"`
	ReplyCount           int         `json:"reply_count"`
	CreatedAt            time.Time   `json:"created_at"`
	UpdatedAt            time.Time   `json:"updated_at"`
	DeletedAt            *time.Time  `json:"deleted_at"`
}

// IsThreadReply reports whether the message only shows inside its thread.
func (m *Message) IsThreadReply() bool {
	return m.ParentID != "" && !m.ShowInChannel
}

// VisibleTo applies the restricted-visibility allow-list.
func (m *Message) VisibleTo(userID string) bool {
	return len(m.RestrictedVisibility) == 0 || slices.Contains(m.RestrictedVisibility, userID)
}

// SoftDelete flags the message as deleted but keeps the row.
func (m *Message) SoftDelete(at time.Time) {
	if m.DeletedAt == nil {
		t := at
		m.DeletedAt = &t
	}
	m.Type = MessageTypeDeleted
}

// MessageWindow is the time span of the messages currently loaded in a
// channel's collection. Empty is true when nothing is loaded.
type MessageWindow struct {
	Oldest time.Time
	Newest time.Time
	Empty  bool
}

// Contains reports whether t falls between the oldest and newest loaded
// messages, inclusive.
func (w MessageWindow) Contains(t time.Time) bool {
	if w.Empty {
		return false
	}
	return !t.Before(w.Oldest) && !t.After(w.Newest)
}
