package models

import "time"

// ChannelRead is a user's read cursor in one channel.
//
// Watermark pattern: instead of flagging every message as read we keep
// "read up to here" (LastReadAt) and a running counter of what arrived after.
// UnreadMessages is never negative and LastReadAt only moves forward, with
// the single exception of an explicit server-side mark-unread.
type ChannelRead struct {
	CID                    string     `json:"cid"`
	UserID                 string     `json:"user_id"`
	LastReadAt             time.Time  `json:"last_read"`
	LastReadMessageID      string     `json:"last_read_message_id"`
	LastDeliveredAt        *time.Time `json:"last_delivered_at"`
	LastDeliveredMessageID string     `json:"last_delivered_message_id"`
	UnreadMessages         int        `json:"unread_messages"`
	// Messages that were skipped by the main counter for being silent or a
	// hidden thread reply. Kept so a badge can still show "something new".
	UnreadSilentMessages int `json:"unread_silent_messages"`
	UnreadThreadReplies  int `json:"unread_thread_replies"`
}

// MarkRead resets the counters and advances the cursor to at. An older
// timestamp never moves LastReadAt back.
func (r *ChannelRead) MarkRead(at time.Time, messageID string) {
	if at.After(r.LastReadAt) {
		r.LastReadAt = at
	}
	if messageID != "" {
		r.LastReadMessageID = messageID
	}
	r.UnreadMessages = 0
	r.UnreadSilentMessages = 0
	r.UnreadThreadReplies = 0
}

// MarkDelivered advances the delivery cursor, forward only.
func (r *ChannelRead) MarkDelivered(at time.Time, messageID string) bool {
	if r.LastDeliveredAt != nil && !at.After(*r.LastDeliveredAt) {
		return false
	}
	t := at
	r.LastDeliveredAt = &t
	r.LastDeliveredMessageID = messageID
	return true
}

// ThreadRead is a user's read cursor in one thread.
type ThreadRead struct {
	ParentMessageID   string     `json:"parent_message_id"`
	UserID            string     `json:"user_id"`
	LastReadAt        *time.Time `json:"last_read"`
	LastReadMessageID string     `json:"last_read_message_id"`
	UnreadReplies     int        `json:"unread_replies"`
}

// PendingDelivery is a message the current user received but has not yet
// acknowledged as delivered to the server.
type PendingDelivery struct {
	CID       string    `json:"cid"`
	MessageID string    `json:"message_id"`
	CreatedAt time.Time `json:"created_at"`
}
