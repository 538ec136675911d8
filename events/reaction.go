package events

import (
	"time"

	"github.com/akinalp/mqvi-sync/models"
)

// ReactionEvent is the sealed family of reaction notifications. Only
// ReactionNew, ReactionUpdated and ReactionDeleted implement it.
type ReactionEvent interface {
	ChannelEvent
	ReactionData() models.Reaction
	MessageData() *models.Message
	isReactionEvent()
}

type ReactionNew struct {
	CID       string
	Message   *models.Message
	Reaction  models.Reaction
	User      *models.User
	CreatedAt time.Time
}

// ReactionUpdated replaces a reaction. With EnforceUnique the user's other
// reactions on the message are dropped first.
type ReactionUpdated struct {
	CID           string
	Message       *models.Message
	Reaction      models.Reaction
	User          *models.User
	EnforceUnique bool
	CreatedAt     time.Time
}

type ReactionDeleted struct {
	CID       string
	Message   *models.Message
	Reaction  models.Reaction
	User      *models.User
	CreatedAt time.Time
}

func (e *ReactionNew) EventType() Type               { return TypeReactionNew }
func (e *ReactionNew) EventTime() time.Time          { return e.CreatedAt }
func (e *ReactionNew) ChannelID() string             { return e.CID }
func (e *ReactionNew) UserData() *models.User        { return e.User }
func (e *ReactionNew) ReactionData() models.Reaction { return e.Reaction }
func (e *ReactionNew) MessageData() *models.Message  { return e.Message }
func (*ReactionNew) isEvent()                        {}
func (*ReactionNew) isReactionEvent()                {}

func (e *ReactionUpdated) EventType() Type               { return TypeReactionUpdated }
func (e *ReactionUpdated) EventTime() time.Time          { return e.CreatedAt }
func (e *ReactionUpdated) ChannelID() string             { return e.CID }
func (e *ReactionUpdated) UserData() *models.User        { return e.User }
func (e *ReactionUpdated) ReactionData() models.Reaction { return e.Reaction }
func (e *ReactionUpdated) MessageData() *models.Message  { return e.Message }
func (*ReactionUpdated) isEvent()                        {}
func (*ReactionUpdated) isReactionEvent()                {}

func (e *ReactionDeleted) EventType() Type               { return TypeReactionDeleted }
func (e *ReactionDeleted) EventTime() time.Time          { return e.CreatedAt }
func (e *ReactionDeleted) ChannelID() string             { return e.CID }
func (e *ReactionDeleted) UserData() *models.User        { return e.User }
func (e *ReactionDeleted) ReactionData() models.Reaction { return e.Reaction }
func (e *ReactionDeleted) MessageData() *models.Message  { return e.Message }
func (*ReactionDeleted) isEvent()                        {}
func (*ReactionDeleted) isReactionEvent()                {}
