// Package criteria holds the pure predicates the middlewares share. Nothing
// here touches the store: callers load what is needed and pass it in.
package criteria

import (
	"time"

	"github.com/akinalp/mqvi-sync/models"
)

// SkipReason names why a message does not count as unread. SkipNone means it
// does.
type SkipReason int

const (
	SkipNone SkipReason = iota
	SkipChannelMuted
	SkipOwnMessage
	SkipAuthorMuted
	SkipSystemMessage
	SkipNotAfterLastRead
	// The last two are still tracked by the secondary counters of
	// ChannelRead (silent messages, hidden thread replies).
	SkipSilent
	SkipThreadReply
)

var skipReasonNames = map[SkipReason]string{
	SkipNone:             "none",
	SkipChannelMuted:     "channel muted",
	SkipOwnMessage:       "own message",
	SkipAuthorMuted:      "author muted",
	SkipSystemMessage:    "system message",
	SkipNotAfterLastRead: "not after last read",
	SkipSilent:           "silent",
	SkipThreadReply:      "thread reply",
}

func (r SkipReason) String() string {
	if s, ok := skipReasonNames[r]; ok {
		return s
	}
	return "unknown"
}

// UnreadInput is everything the unread rule looks at.
type UnreadInput struct {
	Message     *models.Message
	Channel     *models.Channel // nil when the channel is not stored yet
	CurrentUser *models.CurrentUser
	// LastReadAt is the current user's read cursor. Zero means never read.
	LastReadAt time.Time
}

// UnreadSkipReason is the single rule for both incrementing the unread
// counter on a new message and decrementing it on a delete. Reasons that
// make a message invisible to every counter are checked before silent and
// thread-reply, which only divert it to a secondary counter.
func UnreadSkipReason(in UnreadInput) SkipReason {
	msg := in.Message

	switch {
	case in.Channel != nil && in.Channel.Muted:
		return SkipChannelMuted
	case in.CurrentUser != nil && msg.UserID == in.CurrentUser.UserID:
		return SkipOwnMessage
	case in.CurrentUser != nil && in.CurrentUser.HasMuted(msg.UserID):
		return SkipAuthorMuted
	case msg.Type == models.MessageTypeSystem:
		return SkipSystemMessage
	case !msg.CreatedAt.After(in.LastReadAt):
		return SkipNotAfterLastRead
	case msg.Silent:
		return SkipSilent
	case msg.IsThreadReply():
		return SkipThreadReply
	}
	return SkipNone
}
