package events

import (
	"time"

	"github.com/akinalp/mqvi-sync/models"
)

type DraftUpdated struct {
	Draft     models.Draft
	CreatedAt time.Time
}

type DraftDeleted struct {
	CID       string
	ParentID  string
	CreatedAt time.Time
}

func (e *DraftUpdated) EventType() Type      { return TypeDraftUpdated }
func (e *DraftUpdated) EventTime() time.Time { return e.CreatedAt }
func (e *DraftUpdated) ChannelID() string    { return e.Draft.CID }
func (*DraftUpdated) isEvent()               {}

func (e *DraftDeleted) EventType() Type      { return TypeDraftDeleted }
func (e *DraftDeleted) EventTime() time.Time { return e.CreatedAt }
func (e *DraftDeleted) ChannelID() string    { return e.CID }
func (*DraftDeleted) isEvent()               {}
