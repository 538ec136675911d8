// Package events defines every server notification the sync engine consumes.
//
// Event is a closed sum type: the unexported marker method keeps other
// packages from adding variants, so a type switch over *events.X values is
// the whole dispatch mechanism. Middlewares match the variants they care
// about and return everything else untouched.
package events

import (
	"time"

	"github.com/akinalp/mqvi-sync/models"
)

// Type is the wire name of an event ("message.new", "typing.start", ...).
type Type string

// Event is one decoded server notification.
type Event interface {
	EventType() Type
	// EventTime is the server timestamp (created_at) of the event.
	EventTime() time.Time
	isEvent()
}

// ChannelEvent is implemented by events scoped to a single channel.
type ChannelEvent interface {
	Event
	ChannelID() string
}

// UserPayload is implemented by events that carry a full user object.
type UserPayload interface {
	Event
	UserData() *models.User
}

// ─── Wire types ───

const (
	TypeChannelUpdated   Type = "channel.updated"
	TypeChannelTruncated Type = "channel.truncated"
	TypeChannelHidden    Type = "channel.hidden"
	TypeChannelVisible   Type = "channel.visible"
	TypeChannelDeleted   Type = "channel.deleted"

	TypeMemberAdded   Type = "member.added"
	TypeMemberRemoved Type = "member.removed"
	TypeMemberUpdated Type = "member.updated"

	TypeMessageNew       Type = "message.new"
	TypeMessageUpdated   Type = "message.updated"
	TypeMessageDeleted   Type = "message.deleted"
	TypeMessageRead      Type = "message.read"
	TypeMessageDelivered Type = "message.delivered"

	TypeNotificationMarkRead           Type = "notification.mark_read"
	TypeNotificationMarkUnread         Type = "notification.mark_unread"
	TypeNotificationAddedToChannel     Type = "notification.added_to_channel"
	TypeNotificationRemovedFromChannel Type = "notification.removed_from_channel"
	TypeNotificationMessageNew         Type = "notification.message_new"
	TypeNotificationInvited            Type = "notification.invited"
	TypeNotificationInviteAccepted     Type = "notification.invite_accepted"
	TypeNotificationInviteRejected     Type = "notification.invite_rejected"
	TypeNotificationMutesUpdated       Type = "notification.mutes_updated"
	TypeNotificationThreadMessageNew   Type = "notification.thread_message_new"
	TypeNotificationReminderDue        Type = "notification.reminder_due"

	TypeReactionNew     Type = "reaction.new"
	TypeReactionUpdated Type = "reaction.updated"
	TypeReactionDeleted Type = "reaction.deleted"

	TypeTypingStart Type = "typing.start"
	TypeTypingStop  Type = "typing.stop"
	// TypeCleanupTyping is never sent by the server; the typing timeout
	// synthesizes it.
	TypeCleanupTyping Type = "typing.cleanup"

	TypeUserUpdated       Type = "user.updated"
	TypeUserBanned        Type = "user.banned"
	TypeUserUnbanned      Type = "user.unbanned"
	TypeUserWatchingStart Type = "user.watching.start"
	TypeUserWatchingStop  Type = "user.watching.stop"

	TypeDraftUpdated Type = "draft.updated"
	TypeDraftDeleted Type = "draft.deleted"

	TypeReminderCreated Type = "reminder.created"
	TypeReminderUpdated Type = "reminder.updated"
	TypeReminderDeleted Type = "reminder.deleted"
)
