package middleware

import (
	"context"
	"errors"

	"github.com/akinalp/mqvi-sync/criteria"
	"github.com/akinalp/mqvi-sync/events"
	"github.com/akinalp/mqvi-sync/models"
	"github.com/akinalp/mqvi-sync/pkg"
	"github.com/akinalp/mqvi-sync/repository"
)

// ChannelDelivery queues delivery receipts for incoming messages and keeps
// the per-user delivery cursor.
//
// A message.delivered from the current user acknowledges everything queued
// for that channel up to LastDeliveredAt.
type ChannelDelivery struct{}

func NewChannelDelivery() *ChannelDelivery {
	return &ChannelDelivery{}
}

func (d *ChannelDelivery) Handle(ctx context.Context, ev events.Event, s repository.DatabaseSession) events.Event {
	var err error

	switch e := ev.(type) {
	case *events.MessageNew:
		err = d.queue(ctx, s, e.CID, &e.Message)
	case *events.MessageDelivered:
		err = d.delivered(ctx, s, e)
	default:
		return ev
	}

	if err != nil {
		logFailure("delivery", ev, err)
	}
	return ev
}

func (d *ChannelDelivery) queue(ctx context.Context, s repository.DatabaseSession, cid string, msg *models.Message) error {
	me, err := s.CurrentUser(ctx)
	if errors.Is(err, pkg.ErrNoCurrentUser) {
		return nil
	}
	if err != nil {
		return err
	}

	ch, err := optionalChannel(ctx, s, cid)
	if err != nil {
		return err
	}
	rd, err := s.ChannelRead(ctx, cid, me.UserID)
	if errors.Is(err, pkg.ErrNotFound) {
		rd, err = nil, nil
	}
	if err != nil {
		return err
	}

	in := criteria.DeliveryInput{Message: msg, Channel: ch, CurrentUser: me, Read: rd}
	if !criteria.CanMarkDelivered(in) {
		return nil
	}
	return s.AddPendingDelivery(ctx, models.PendingDelivery{
		CID:       cid,
		MessageID: msg.ID,
		CreatedAt: msg.CreatedAt,
	})
}

func (d *ChannelDelivery) delivered(ctx context.Context, s repository.DatabaseSession, e *events.MessageDelivered) error {
	if e.UserID == "" {
		return nil
	}
	me, err := currentUserID(ctx, s)
	if err != nil {
		return err
	}
	if e.UserID == me {
		if _, err := s.ClearPendingDeliveries(ctx, e.CID, e.LastDeliveredAt); err != nil {
			return err
		}
	}

	rd, err := loadOrNewRead(ctx, s, e.CID, e.UserID)
	if err != nil {
		return err
	}
	if !rd.MarkDelivered(e.LastDeliveredAt, e.LastDeliveredMessageID) {
		return nil
	}
	return s.SaveChannelRead(ctx, rd)
}
