package events

import (
	"time"

	"github.com/akinalp/mqvi-sync/models"
)

type UserUpdated struct {
	User      models.User
	CreatedAt time.Time
}

// UserBanned is a channel-scoped ban. Shadow bans keep the user able to post.
type UserBanned struct {
	CID       string
	UserID    string
	Shadow    bool
	ExpiresAt *time.Time
	Reason    string
	CreatedAt time.Time
}

type UserUnbanned struct {
	CID       string
	UserID    string
	Shadow    bool
	CreatedAt time.Time
}

type UserWatchingStart struct {
	CID          string
	UserID       string
	User         *models.User
	WatcherCount int
	CreatedAt    time.Time
}

type UserWatchingStop struct {
	CID          string
	UserID       string
	User         *models.User
	WatcherCount int
	CreatedAt    time.Time
}

func (e *UserUpdated) EventType() Type        { return TypeUserUpdated }
func (e *UserUpdated) EventTime() time.Time   { return e.CreatedAt }
func (e *UserUpdated) UserData() *models.User { return &e.User }
func (*UserUpdated) isEvent()                 {}

func (e *UserBanned) EventType() Type      { return TypeUserBanned }
func (e *UserBanned) EventTime() time.Time { return e.CreatedAt }
func (e *UserBanned) ChannelID() string    { return e.CID }
func (*UserBanned) isEvent()               {}

func (e *UserUnbanned) EventType() Type      { return TypeUserUnbanned }
func (e *UserUnbanned) EventTime() time.Time { return e.CreatedAt }
func (e *UserUnbanned) ChannelID() string    { return e.CID }
func (*UserUnbanned) isEvent()               {}

func (e *UserWatchingStart) EventType() Type        { return TypeUserWatchingStart }
func (e *UserWatchingStart) EventTime() time.Time   { return e.CreatedAt }
func (e *UserWatchingStart) ChannelID() string      { return e.CID }
func (e *UserWatchingStart) UserData() *models.User { return e.User }
func (*UserWatchingStart) isEvent()                 {}

func (e *UserWatchingStop) EventType() Type        { return TypeUserWatchingStop }
func (e *UserWatchingStop) EventTime() time.Time   { return e.CreatedAt }
func (e *UserWatchingStop) ChannelID() string      { return e.CID }
func (e *UserWatchingStop) UserData() *models.User { return e.User }
func (*UserWatchingStop) isEvent()                 {}
