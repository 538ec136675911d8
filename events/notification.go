package events

import (
	"time"

	"github.com/akinalp/mqvi-sync/models"
)

// NotificationMarkRead marks one channel read for UserID.
type NotificationMarkRead struct {
	CID               string
	UserID            string
	LastReadMessageID string
	CreatedAt         time.Time
}

// NotificationMarkAllRead is the channel-less form of notification.mark_read:
// every read cursor of UserID is reset.
type NotificationMarkAllRead struct {
	UserID    string
	CreatedAt time.Time
}

// NotificationMarkUnread moves the read cursor back to LastReadAt and takes
// UnreadMessages from the server as-is.
type NotificationMarkUnread struct {
	CID                  string
	UserID               string
	FirstUnreadMessageID string
	LastReadMessageID    string
	LastReadAt           time.Time
	UnreadMessages       int
	ThreadParentID       string
	CreatedAt            time.Time
}

// NotificationMessageNew is a new message in a channel the current user is
// a member of but does not watch.
type NotificationMessageNew struct {
	CID       string
	Channel   *models.Channel
	Message   models.Message
	CreatedAt time.Time
}

// NotificationMutesUpdated replaces the current user's mute list.
type NotificationMutesUpdated struct {
	CurrentUser models.CurrentUser
	CreatedAt   time.Time
}

func (e *NotificationMarkRead) EventType() Type      { return TypeNotificationMarkRead }
func (e *NotificationMarkRead) EventTime() time.Time { return e.CreatedAt }
func (e *NotificationMarkRead) ChannelID() string    { return e.CID }
func (*NotificationMarkRead) isEvent()               {}

func (e *NotificationMarkAllRead) EventType() Type      { return TypeNotificationMarkRead }
func (e *NotificationMarkAllRead) EventTime() time.Time { return e.CreatedAt }
func (*NotificationMarkAllRead) isEvent()               {}

func (e *NotificationMarkUnread) EventType() Type      { return TypeNotificationMarkUnread }
func (e *NotificationMarkUnread) EventTime() time.Time { return e.CreatedAt }
func (e *NotificationMarkUnread) ChannelID() string    { return e.CID }
func (*NotificationMarkUnread) isEvent()               {}

func (e *NotificationMessageNew) EventType() Type      { return TypeNotificationMessageNew }
func (e *NotificationMessageNew) EventTime() time.Time { return e.CreatedAt }
func (e *NotificationMessageNew) ChannelID() string    { return e.CID }
func (*NotificationMessageNew) isEvent()               {}

func (e *NotificationMutesUpdated) EventType() Type      { return TypeNotificationMutesUpdated }
func (e *NotificationMutesUpdated) EventTime() time.Time { return e.CreatedAt }
func (*NotificationMutesUpdated) isEvent()               {}
