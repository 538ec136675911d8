package events

import (
	"time"

	"github.com/akinalp/mqvi-sync/models"
)

type MemberAdded struct {
	CID       string
	Member    models.Member
	User      *models.User
	CreatedAt time.Time
}

type MemberRemoved struct {
	CID       string
	UserID    string
	User      *models.User
	CreatedAt time.Time
}

type MemberUpdated struct {
	CID       string
	Member    models.Member
	User      *models.User
	CreatedAt time.Time
}

// NotificationInvited is delivered to the invited user.
type NotificationInvited struct {
	CID       string
	Channel   *models.Channel
	Member    models.Member
	User      *models.User
	CreatedAt time.Time
}

type NotificationInviteAccepted struct {
	CID       string
	Channel   *models.Channel
	Member    models.Member
	User      *models.User
	CreatedAt time.Time
}

type NotificationInviteRejected struct {
	CID       string
	Channel   *models.Channel
	Member    models.Member
	User      *models.User
	CreatedAt time.Time
}

// NotificationAddedToChannel tells the current user it became a member.
type NotificationAddedToChannel struct {
	CID       string
	Channel   *models.Channel
	Member    *models.Member
	CreatedAt time.Time
}

type NotificationRemovedFromChannel struct {
	CID       string
	UserID    string
	Member    *models.Member
	CreatedAt time.Time
}

func (e *MemberAdded) EventType() Type        { return TypeMemberAdded }
func (e *MemberAdded) EventTime() time.Time   { return e.CreatedAt }
func (e *MemberAdded) ChannelID() string      { return e.CID }
func (e *MemberAdded) UserData() *models.User { return e.User }
func (*MemberAdded) isEvent()                 {}

func (e *MemberRemoved) EventType() Type        { return TypeMemberRemoved }
func (e *MemberRemoved) EventTime() time.Time   { return e.CreatedAt }
func (e *MemberRemoved) ChannelID() string      { return e.CID }
func (e *MemberRemoved) UserData() *models.User { return e.User }
func (*MemberRemoved) isEvent()                 {}

func (e *MemberUpdated) EventType() Type        { return TypeMemberUpdated }
func (e *MemberUpdated) EventTime() time.Time   { return e.CreatedAt }
func (e *MemberUpdated) ChannelID() string      { return e.CID }
func (e *MemberUpdated) UserData() *models.User { return e.User }
func (*MemberUpdated) isEvent()                 {}

func (e *NotificationInvited) EventType() Type        { return TypeNotificationInvited }
func (e *NotificationInvited) EventTime() time.Time   { return e.CreatedAt }
func (e *NotificationInvited) ChannelID() string      { return e.CID }
func (e *NotificationInvited) UserData() *models.User { return e.User }
func (*NotificationInvited) isEvent()                 {}

func (e *NotificationInviteAccepted) EventType() Type        { return TypeNotificationInviteAccepted }
func (e *NotificationInviteAccepted) EventTime() time.Time   { return e.CreatedAt }
func (e *NotificationInviteAccepted) ChannelID() string      { return e.CID }
func (e *NotificationInviteAccepted) UserData() *models.User { return e.User }
func (*NotificationInviteAccepted) isEvent()                 {}

func (e *NotificationInviteRejected) EventType() Type        { return TypeNotificationInviteRejected }
func (e *NotificationInviteRejected) EventTime() time.Time   { return e.CreatedAt }
func (e *NotificationInviteRejected) ChannelID() string      { return e.CID }
func (e *NotificationInviteRejected) UserData() *models.User { return e.User }
func (*NotificationInviteRejected) isEvent()                 {}

func (e *NotificationAddedToChannel) EventType() Type      { return TypeNotificationAddedToChannel }
func (e *NotificationAddedToChannel) EventTime() time.Time { return e.CreatedAt }
func (e *NotificationAddedToChannel) ChannelID() string    { return e.CID }
func (*NotificationAddedToChannel) isEvent()               {}

func (e *NotificationRemovedFromChannel) EventType() Type {
	return TypeNotificationRemovedFromChannel
}
func (e *NotificationRemovedFromChannel) EventTime() time.Time { return e.CreatedAt }
func (e *NotificationRemovedFromChannel) ChannelID() string    { return e.CID }
func (*NotificationRemovedFromChannel) isEvent()               {}
