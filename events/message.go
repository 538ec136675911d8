package events

import (
	"time"

	"github.com/akinalp/mqvi-sync/models"
)

type MessageNew struct {
	CID          string
	Message      models.Message
	User         *models.User
	WatcherCount int
	CreatedAt    time.Time
}

type MessageUpdated struct {
	CID       string
	Message   models.Message
	User      *models.User
	CreatedAt time.Time
}

// MessageDeleted is a soft delete unless HardDelete is set.
type MessageDeleted struct {
	CID        string
	Message    models.Message
	User       *models.User
	HardDelete bool
	CreatedAt  time.Time
}

// MessageRead is sent when UserID reads a channel, or a thread when
// ThreadParentID is set.
type MessageRead struct {
	CID               string
	UserID            string
	User              *models.User
	LastReadMessageID string
	ThreadParentID    string
	CreatedAt         time.Time
}

// MessageDelivered acknowledges delivery of messages up to LastDeliveredAt.
type MessageDelivered struct {
	CID                    string
	UserID                 string
	LastDeliveredAt        time.Time
	LastDeliveredMessageID string
	CreatedAt              time.Time
}

// ThreadMessageNew notifies a participant about a reply in a thread they
// follow, even when they do not watch the channel.
type ThreadMessageNew struct {
	CID       string
	Message   models.Message
	Channel   *models.Channel
	CreatedAt time.Time
}

func (e *MessageNew) EventType() Type        { return TypeMessageNew }
func (e *MessageNew) EventTime() time.Time   { return e.CreatedAt }
func (e *MessageNew) ChannelID() string      { return e.CID }
func (e *MessageNew) UserData() *models.User { return e.User }
func (*MessageNew) isEvent()                 {}

func (e *MessageUpdated) EventType() Type        { return TypeMessageUpdated }
func (e *MessageUpdated) EventTime() time.Time   { return e.CreatedAt }
func (e *MessageUpdated) ChannelID() string      { return e.CID }
func (e *MessageUpdated) UserData() *models.User { return e.User }
func (*MessageUpdated) isEvent()                 {}

func (e *MessageDeleted) EventType() Type        { return TypeMessageDeleted }
func (e *MessageDeleted) EventTime() time.Time   { return e.CreatedAt }
func (e *MessageDeleted) ChannelID() string      { return e.CID }
func (e *MessageDeleted) UserData() *models.User { return e.User }
func (*MessageDeleted) isEvent()                 {}

func (e *MessageRead) EventType() Type        { return TypeMessageRead }
func (e *MessageRead) EventTime() time.Time   { return e.CreatedAt }
func (e *MessageRead) ChannelID() string      { return e.CID }
func (e *MessageRead) UserData() *models.User { return e.User }
func (*MessageRead) isEvent()                 {}

func (e *MessageDelivered) EventType() Type      { return TypeMessageDelivered }
func (e *MessageDelivered) EventTime() time.Time { return e.CreatedAt }
func (e *MessageDelivered) ChannelID() string    { return e.CID }
func (*MessageDelivered) isEvent()               {}

func (e *ThreadMessageNew) EventType() Type      { return TypeNotificationThreadMessageNew }
func (e *ThreadMessageNew) EventTime() time.Time { return e.CreatedAt }
func (e *ThreadMessageNew) ChannelID() string    { return e.CID }
func (*ThreadMessageNew) isEvent()               {}
