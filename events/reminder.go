package events

import (
	"time"

	"github.com/akinalp/mqvi-sync/models"
)

type ReminderCreated struct {
	Reminder  models.Reminder
	CreatedAt time.Time
}

type ReminderUpdated struct {
	Reminder  models.Reminder
	CreatedAt time.Time
}

// ReminderDue fires when RemindAt passes; the payload replaces the stored
// reminder like any other update.
type ReminderDue struct {
	Reminder  models.Reminder
	CreatedAt time.Time
}

type ReminderDeleted struct {
	MessageID string
	CID       string
	CreatedAt time.Time
}

func (e *ReminderCreated) EventType() Type      { return TypeReminderCreated }
func (e *ReminderCreated) EventTime() time.Time { return e.CreatedAt }
func (e *ReminderCreated) ChannelID() string    { return e.Reminder.CID }
func (*ReminderCreated) isEvent()               {}

func (e *ReminderUpdated) EventType() Type      { return TypeReminderUpdated }
func (e *ReminderUpdated) EventTime() time.Time { return e.CreatedAt }
func (e *ReminderUpdated) ChannelID() string    { return e.Reminder.CID }
func (*ReminderUpdated) isEvent()               {}

func (e *ReminderDue) EventType() Type      { return TypeNotificationReminderDue }
func (e *ReminderDue) EventTime() time.Time { return e.CreatedAt }
func (e *ReminderDue) ChannelID() string    { return e.Reminder.CID }
func (*ReminderDue) isEvent()               {}

func (e *ReminderDeleted) EventType() Type      { return TypeReminderDeleted }
func (e *ReminderDeleted) EventTime() time.Time { return e.CreatedAt }
func (e *ReminderDeleted) ChannelID() string    { return e.CID }
func (*ReminderDeleted) isEvent()               {}
