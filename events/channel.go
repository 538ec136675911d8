package events

import (
	"time"

	"github.com/akinalp/mqvi-sync/models"
)

// ChannelUpdated carries the full channel payload after an edit.
type ChannelUpdated struct {
	CID       string
	Channel   *models.Channel
	User      *models.User
	CreatedAt time.Time
}

// ChannelTruncated means history up to CreatedAt is gone. Message is the
// optional system message the server posts with the truncation.
type ChannelTruncated struct {
	CID       string
	Channel   *models.Channel
	Message   *models.Message
	User      *models.User
	CreatedAt time.Time
}

// ChannelHidden is sent when the current user hides a channel.
type ChannelHidden struct {
	CID          string
	UserID       string
	ClearHistory bool
	CreatedAt    time.Time
}

type ChannelVisible struct {
	CID       string
	UserID    string
	CreatedAt time.Time
}

type ChannelDeleted struct {
	CID       string
	Channel   *models.Channel
	CreatedAt time.Time
}

func (e *ChannelUpdated) EventType() Type        { return TypeChannelUpdated }
func (e *ChannelUpdated) EventTime() time.Time   { return e.CreatedAt }
func (e *ChannelUpdated) ChannelID() string      { return e.CID }
func (e *ChannelUpdated) UserData() *models.User { return e.User }
func (*ChannelUpdated) isEvent()                 {}

func (e *ChannelTruncated) EventType() Type        { return TypeChannelTruncated }
func (e *ChannelTruncated) EventTime() time.Time   { return e.CreatedAt }
func (e *ChannelTruncated) ChannelID() string      { return e.CID }
func (e *ChannelTruncated) UserData() *models.User { return e.User }
func (*ChannelTruncated) isEvent()                 {}

func (e *ChannelHidden) EventType() Type      { return TypeChannelHidden }
func (e *ChannelHidden) EventTime() time.Time { return e.CreatedAt }
func (e *ChannelHidden) ChannelID() string    { return e.CID }
func (*ChannelHidden) isEvent()               {}

func (e *ChannelVisible) EventType() Type      { return TypeChannelVisible }
func (e *ChannelVisible) EventTime() time.Time { return e.CreatedAt }
func (e *ChannelVisible) ChannelID() string    { return e.CID }
func (*ChannelVisible) isEvent()               {}

func (e *ChannelDeleted) EventType() Type      { return TypeChannelDeleted }
func (e *ChannelDeleted) EventTime() time.Time { return e.CreatedAt }
func (e *ChannelDeleted) ChannelID() string    { return e.CID }
func (*ChannelDeleted) isEvent()               {}
