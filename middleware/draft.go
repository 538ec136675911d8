package middleware

import (
	"context"

	"github.com/akinalp/mqvi-sync/events"
	"github.com/akinalp/mqvi-sync/models"
	"github.com/akinalp/mqvi-sync/repository"
)

// Drafts replaces or deletes a draft wholesale.
type Drafts struct{}

func NewDrafts() *Drafts {
	return &Drafts{}
}

func (d *Drafts) Handle(ctx context.Context, ev events.Event, s repository.DatabaseSession) events.Event {
	var err error

	switch e := ev.(type) {
	case *events.DraftUpdated:
		draft := e.Draft
		err = s.SaveDraft(ctx, &draft)
	case *events.DraftDeleted:
		err = s.DeleteDraft(ctx, e.CID, e.ParentID)
	default:
		return ev
	}

	if err != nil {
		logFailure("draft", ev, err)
	}
	return ev
}

// Reminders replaces or deletes a reminder wholesale. A due notification
// carries the full reminder and is stored like an update.
type Reminders struct{}

func NewReminders() *Reminders {
	return &Reminders{}
}

func (r *Reminders) Handle(ctx context.Context, ev events.Event, s repository.DatabaseSession) events.Event {
	var err error

	switch e := ev.(type) {
	case *events.ReminderCreated:
		err = saveReminder(ctx, s, e.Reminder)
	case *events.ReminderUpdated:
		err = saveReminder(ctx, s, e.Reminder)
	case *events.ReminderDue:
		err = saveReminder(ctx, s, e.Reminder)
	case *events.ReminderDeleted:
		err = s.DeleteReminder(ctx, e.MessageID)
	default:
		return ev
	}

	if err != nil {
		logFailure("reminder", ev, err)
	}
	return ev
}

func saveReminder(ctx context.Context, s repository.DatabaseSession, reminder models.Reminder) error {
	return s.SaveReminder(ctx, &reminder)
}
