package events

import "time"

// TypingStart and TypingStop carry ParentID when the user types inside a
// thread.
type TypingStart struct {
	CID       string
	UserID    string
	ParentID  string
	CreatedAt time.Time
}

type TypingStop struct {
	CID       string
	UserID    string
	ParentID  string
	CreatedAt time.Time
}

// CleanupTyping is synthesized when a typing indicator expires without a
// matching typing.stop.
type CleanupTyping struct {
	CID       string
	UserID    string
	CreatedAt time.Time
}

func (e *TypingStart) EventType() Type      { return TypeTypingStart }
func (e *TypingStart) EventTime() time.Time { return e.CreatedAt }
func (e *TypingStart) ChannelID() string    { return e.CID }
func (*TypingStart) isEvent()               {}

func (e *TypingStop) EventType() Type      { return TypeTypingStop }
func (e *TypingStop) EventTime() time.Time { return e.CreatedAt }
func (e *TypingStop) ChannelID() string    { return e.CID }
func (*TypingStop) isEvent()               {}

func (e *CleanupTyping) EventType() Type      { return TypeCleanupTyping }
func (e *CleanupTyping) EventTime() time.Time { return e.CreatedAt }
func (e *CleanupTyping) ChannelID() string    { return e.CID }
func (*CleanupTyping) isEvent()               {}
