package middleware

import (
	"context"
	"errors"

	"github.com/akinalp/mqvi-sync/events"
	"github.com/akinalp/mqvi-sync/models"
	"github.com/akinalp/mqvi-sync/pkg"
	"github.com/akinalp/mqvi-sync/repository"
)

// EventDataProcessor runs first and writes the payloads every later
// middleware relies on: users, the channel row (created lazily for any
// channel-scoped event), messages and the current user's mutes.
//
// A new message lands in the channel's loaded collection only when the
// current user may see it and it is not a thread-only reply.
type EventDataProcessor struct{}

func NewEventDataProcessor() *EventDataProcessor {
	return &EventDataProcessor{}
}

const payloadComponent = "payload"

func (p *EventDataProcessor) Handle(ctx context.Context, ev events.Event, s repository.DatabaseSession) events.Event {
	if up, ok := ev.(events.UserPayload); ok {
		if u := up.UserData(); u != nil && u.ID != "" {
			if err := s.SaveUser(ctx, u); err != nil {
				logFailure(payloadComponent, ev, err)
			}
		}
	}

	if ce, ok := ev.(events.ChannelEvent); ok && ce.ChannelID() != "" {
		if _, err := ensureChannel(ctx, s, ce.ChannelID()); err != nil {
			// Malformed cid or store failure: skip the rest of this unit.
			logFailure(payloadComponent, ev, err)
			return ev
		}
	}

	if err := p.apply(ctx, ev, s); err != nil {
		logFailure(payloadComponent, ev, err)
	}
	return ev
}

func (p *EventDataProcessor) apply(ctx context.Context, ev events.Event, s repository.DatabaseSession) error {
	switch e := ev.(type) {
	case *events.ChannelUpdated:
		return mergeRemoteChannel(ctx, s, e.CID, e.Channel)
	case *events.NotificationAddedToChannel:
		return mergeRemoteChannel(ctx, s, e.CID, e.Channel)
	case *events.NotificationInvited:
		return mergeRemoteChannel(ctx, s, e.CID, e.Channel)
	case *events.NotificationInviteAccepted:
		return mergeRemoteChannel(ctx, s, e.CID, e.Channel)
	case *events.NotificationInviteRejected:
		return mergeRemoteChannel(ctx, s, e.CID, e.Channel)

	case *events.ChannelDeleted:
		ch, err := s.Channel(ctx, e.CID)
		if err != nil {
			return err
		}
		at := e.CreatedAt
		ch.DeletedAt = &at
		return s.SaveChannel(ctx, ch)

	case *events.ChannelTruncated:
		if err := mergeRemoteChannel(ctx, s, e.CID, e.Channel); err != nil {
			return err
		}
		if e.Message != nil {
			return saveNewMessage(ctx, s, e.CID, e.Message)
		}
		return nil

	case *events.MessageNew:
		return saveNewMessage(ctx, s, e.CID, &e.Message)
	case *events.NotificationMessageNew:
		if err := mergeRemoteChannel(ctx, s, e.CID, e.Channel); err != nil {
			return err
		}
		return saveNewMessage(ctx, s, e.CID, &e.Message)
	case *events.ThreadMessageNew:
		return saveNewMessage(ctx, s, e.CID, &e.Message)

	case *events.MessageUpdated:
		msg := e.Message
		if msg.CID == "" {
			msg.CID = e.CID
		}
		return s.SaveMessage(ctx, &msg)

	case *events.MessageDeleted:
		return deleteMessage(ctx, s, e)

	case events.ReactionEvent:
		if msg := e.MessageData(); msg != nil && msg.ID != "" {
			stored := *msg
			if stored.CID == "" {
				stored.CID = e.ChannelID()
			}
			return s.SaveMessage(ctx, &stored)
		}
		return nil

	case *events.NotificationMutesUpdated:
		return saveMutes(ctx, s, e.CurrentUser)
	}
	return nil
}

func mergeRemoteChannel(ctx context.Context, s repository.DatabaseSession, cid string, remote *models.Channel) error {
	if remote == nil {
		return nil
	}
	ch, err := loadOrCreateChannel(ctx, s, cid)
	if err != nil {
		return err
	}
	ch.MergeRemote(remote)
	return s.SaveChannel(ctx, ch)
}

func saveNewMessage(ctx context.Context, s repository.DatabaseSession, cid string, msg *models.Message) error {
	stored := *msg
	if stored.CID == "" {
		stored.CID = cid
	}
	if err := s.SaveMessage(ctx, &stored); err != nil {
		return err
	}
	if stored.IsThreadReply() {
		return nil
	}

	me, err := currentUserID(ctx, s)
	if err != nil {
		return err
	}
	if !stored.VisibleTo(me) {
		return nil
	}
	return s.AddMessageToChannel(ctx, stored.CID, stored.ID, stored.CreatedAt)
}

func deleteMessage(ctx context.Context, s repository.DatabaseSession, e *events.MessageDeleted) error {
	if e.HardDelete {
		return s.DeleteMessage(ctx, e.Message.ID)
	}

	msg, err := s.Message(ctx, e.Message.ID)
	if errors.Is(err, pkg.ErrNotFound) {
		stored := e.Message
		if stored.CID == "" {
			stored.CID = e.CID
		}
		msg, err = &stored, nil
	}
	if err != nil {
		return err
	}
	msg.SoftDelete(e.CreatedAt)
	return s.SaveMessage(ctx, msg)
}

// saveMutes replaces the mute list. A payload without a user id keeps the
// stored one.
func saveMutes(ctx context.Context, s repository.DatabaseSession, update models.CurrentUser) error {
	me, err := s.CurrentUser(ctx)
	if errors.Is(err, pkg.ErrNoCurrentUser) {
		if update.UserID == "" {
			return err
		}
		me, err = &models.CurrentUser{UserID: update.UserID, DeliveryReceiptsEnabled: true}, nil
	}
	if err != nil {
		return err
	}
	me.MutedUserIDs = update.MutedUserIDs
	return s.SaveCurrentUser(ctx, me)
}
