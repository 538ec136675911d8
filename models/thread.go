package models

import (
	"slices"
	"time"
)

// LatestRepliesLimit caps Thread.LatestReplyIDs.
const LatestRepliesLimit = 5

// Thread is keyed by its parent message id.
//
// UpdatedAt is bumped on any activity (new reply, reply edit/delete, parent
// soft delete). LastMessageAt only moves with new replies; thread lists that
// must not reorder on edits sort by it instead.
type Thread struct {
	ParentMessageID string     `json:"parent_message_id"`
	CID             string     `json:"cid"`
	ReplyCount      int        `json:"reply_count"`
	LatestReplyIDs  []string   `json:"latest_replies"`
	LastMessageAt   *time.Time `json:"last_message_at"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// AddReply counts a new reply. Callers make sure each reply is added once;
// the latest-replies list never holds an id twice either way.
func (t *Thread) AddReply(id string, createdAt time.Time) {
	if !slices.Contains(t.LatestReplyIDs, id) {
		t.LatestReplyIDs = append(t.LatestReplyIDs, id)
		if n := len(t.LatestReplyIDs); n > LatestRepliesLimit {
			t.LatestReplyIDs = t.LatestReplyIDs[n-LatestRepliesLimit:]
		}
	}
	t.ReplyCount++
	if t.LastMessageAt == nil || createdAt.After(*t.LastMessageAt) {
		at := createdAt
		t.LastMessageAt = &at
	}
}

// Touch bumps UpdatedAt, forward only.
func (t *Thread) Touch(at time.Time) {
	if at.After(t.UpdatedAt) {
		t.UpdatedAt = at
	}
}
