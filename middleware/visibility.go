package middleware

import (
	"context"

	"github.com/akinalp/mqvi-sync/events"
	"github.com/akinalp/mqvi-sync/models"
	"github.com/akinalp/mqvi-sync/repository"
)

// ChannelVisibility owns the hidden flag. Hiding with ClearHistory also
// truncates at the hide time. Any new non-shadowed message un-hides the
// channel, with or without a channel.visible event.
type ChannelVisibility struct{}

func NewChannelVisibility() *ChannelVisibility {
	return &ChannelVisibility{}
}

func (v *ChannelVisibility) Handle(ctx context.Context, ev events.Event, s repository.DatabaseSession) events.Event {
	var cid string
	var apply func(*models.Channel) bool

	switch e := ev.(type) {
	case *events.ChannelHidden:
		cid = e.CID
		apply = func(ch *models.Channel) bool {
			ch.Hidden = true
			if e.ClearHistory {
				ch.Truncate(e.CreatedAt)
			}
			return true
		}
	case *events.ChannelVisible:
		cid = e.CID
		apply = unhide
	case *events.MessageNew:
		if e.Message.Shadowed {
			return ev
		}
		cid = e.CID
		apply = unhide
	case *events.NotificationMessageNew:
		if e.Message.Shadowed {
			return ev
		}
		cid = e.CID
		apply = unhide
	default:
		return ev
	}

	ch, err := s.Channel(ctx, cid)
	if err != nil {
		logFailure("visibility", ev, err)
		return ev
	}
	if !apply(ch) {
		return ev
	}
	if err := s.SaveChannel(ctx, ch); err != nil {
		logFailure("visibility", ev, err)
	}
	return ev
}

func unhide(ch *models.Channel) bool {
	if !ch.Hidden {
		return false
	}
	ch.Hidden = false
	return true
}

// ─── Truncation ───

// ChannelTruncated moves TruncatedAt forward. The read cursor is left as is.
type ChannelTruncated struct{}

func NewChannelTruncated() *ChannelTruncated {
	return &ChannelTruncated{}
}

func (t *ChannelTruncated) Handle(ctx context.Context, ev events.Event, s repository.DatabaseSession) events.Event {
	e, ok := ev.(*events.ChannelTruncated)
	if !ok {
		return ev
	}

	ch, err := s.Channel(ctx, e.CID)
	if err != nil {
		logFailure("truncate", ev, err)
		return ev
	}

	at := e.CreatedAt
	if e.Channel != nil && e.Channel.TruncatedAt != nil {
		at = *e.Channel.TruncatedAt
	}
	if !ch.Truncate(at) {
		return ev
	}
	if err := s.SaveChannel(ctx, ch); err != nil {
		logFailure("truncate", ev, err)
	}
	return ev
}

// ─── Restricted visibility ───

// MessageVisibility re-evaluates restricted visibility when a loaded message
// is updated. Updates outside the loaded window are ignored so pagination
// boundaries stay intact.
type MessageVisibility struct{}

func NewMessageVisibility() *MessageVisibility {
	return &MessageVisibility{}
}

func (v *MessageVisibility) Handle(ctx context.Context, ev events.Event, s repository.DatabaseSession) events.Event {
	e, ok := ev.(*events.MessageUpdated)
	if !ok || e.Message.IsThreadReply() {
		return ev
	}
	if err := v.apply(ctx, s, e.CID, &e.Message); err != nil {
		logFailure("message_visibility", ev, err)
	}
	return ev
}

func (v *MessageVisibility) apply(ctx context.Context, s repository.DatabaseSession, cid string, msg *models.Message) error {
	window, err := s.ChannelMessageWindow(ctx, cid)
	if err != nil {
		return err
	}
	if !window.Contains(msg.CreatedAt) {
		return nil
	}

	me, err := currentUserID(ctx, s)
	if err != nil {
		return err
	}
	if msg.VisibleTo(me) {
		return s.AddMessageToChannel(ctx, cid, msg.ID, msg.CreatedAt)
	}
	return s.RemoveMessageFromChannel(ctx, cid, msg.ID)
}
