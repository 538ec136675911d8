package middleware

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/akinalp/mqvi-sync/criteria"
	"github.com/akinalp/mqvi-sync/events"
	"github.com/akinalp/mqvi-sync/models"
	"github.com/akinalp/mqvi-sync/pkg"
	"github.com/akinalp/mqvi-sync/repository"
)

// ChannelReadUpdater keeps the current user's unread counters and every
// user's read cursor in step with the stream.
//
// A new message counts at most once: its id is marked observed in the batch
// transaction, and a replay finds the mark. A rolled-back batch takes the
// mark with it, so the redelivery counts. Deletes run the same
// criteria.UnreadSkipReason as increments so the two paths cannot drift;
// soft deletes never decrement.
type ChannelReadUpdater struct{}

func NewChannelReadUpdater() *ChannelReadUpdater {
	return &ChannelReadUpdater{}
}

const (
	readComponent = "channel_read"
	// unreadScope is the observation scope of the unread counters.
	unreadScope = "unread"
)

func (u *ChannelReadUpdater) Handle(ctx context.Context, ev events.Event, s repository.DatabaseSession) events.Event {
	var err error

	switch e := ev.(type) {
	case *events.MessageNew:
		err = u.countNew(ctx, s, e.CID, &e.Message)
	case *events.NotificationMessageNew:
		err = u.countNew(ctx, s, e.CID, &e.Message)

	case *events.MessageDeleted:
		if e.HardDelete {
			err = u.countDeleted(ctx, s, e.CID, &e.Message)
		}

	case *events.MessageRead:
		if e.ThreadParentID == "" && e.UserID != "" {
			err = s.MarkChannelRead(ctx, e.CID, e.UserID, e.CreatedAt, e.LastReadMessageID)
		}

	case *events.NotificationMarkRead:
		err = u.markRead(ctx, s, e.CID, e.UserID, e.CreatedAt, e.LastReadMessageID)

	case *events.NotificationMarkAllRead:
		err = u.markAllRead(ctx, s, e.UserID, e.CreatedAt)

	case *events.NotificationMarkUnread:
		if e.ThreadParentID == "" {
			err = u.markUnread(ctx, s, e)
		}

	default:
		return ev
	}

	if err != nil {
		logFailure(readComponent, ev, err)
	}
	return ev
}

// unreadInput loads what criteria.UnreadSkipReason needs. ok is false when
// no current user is stored; there is then nobody to count for.
func unreadInput(ctx context.Context, s repository.DatabaseSession, cid string, msg *models.Message) (criteria.UnreadInput, *models.ChannelRead, bool, error) {
	me, err := s.CurrentUser(ctx)
	if errors.Is(err, pkg.ErrNoCurrentUser) {
		return criteria.UnreadInput{}, nil, false, nil
	}
	if err != nil {
		return criteria.UnreadInput{}, nil, false, err
	}

	ch, err := optionalChannel(ctx, s, cid)
	if err != nil {
		return criteria.UnreadInput{}, nil, false, err
	}
	rd, err := loadOrNewRead(ctx, s, cid, me.UserID)
	if err != nil {
		return criteria.UnreadInput{}, nil, false, err
	}

	in := criteria.UnreadInput{
		Message:     msg,
		Channel:     ch,
		CurrentUser: me,
		LastReadAt:  rd.LastReadAt,
	}
	return in, rd, true, nil
}

func (u *ChannelReadUpdater) countNew(ctx context.Context, s repository.DatabaseSession, cid string, msg *models.Message) error {
	first, err := s.MarkObserved(ctx, unreadScope, msg.ID)
	if err != nil || !first {
		return err
	}

	in, rd, ok, err := unreadInput(ctx, s, cid, msg)
	if err != nil || !ok {
		return err
	}

	if !applyUnreadDelta(rd, criteria.UnreadSkipReason(in), 1) {
		return nil
	}
	return s.SaveChannelRead(ctx, rd)
}

func (u *ChannelReadUpdater) countDeleted(ctx context.Context, s repository.DatabaseSession, cid string, msg *models.Message) error {
	in, _, ok, err := unreadInput(ctx, s, cid, msg)
	if err != nil || !ok {
		return err
	}

	// Only decrement a cursor that exists; a lazily created one is all zeroes.
	rd, err := s.ChannelRead(ctx, cid, in.CurrentUser.UserID)
	if errors.Is(err, pkg.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	if !applyUnreadDelta(rd, criteria.UnreadSkipReason(in), -1) {
		return nil
	}
	return s.SaveChannelRead(ctx, rd)
}

// applyUnreadDelta moves the counter selected by reason by delta, floored at
// zero. It reports whether the read changed.
func applyUnreadDelta(rd *models.ChannelRead, reason criteria.SkipReason, delta int) bool {
	var counter *int
	switch reason {
	case criteria.SkipNone:
		counter = &rd.UnreadMessages
	case criteria.SkipSilent:
		counter = &rd.UnreadSilentMessages
	case criteria.SkipThreadReply:
		counter = &rd.UnreadThreadReplies
	default:
		return false
	}

	next := max(*counter+delta, 0)
	if next == *counter {
		return false
	}
	*counter = next
	return true
}

func (u *ChannelReadUpdater) markRead(ctx context.Context, s repository.DatabaseSession, cid, userID string, at time.Time, messageID string) error {
	if userID == "" {
		me, err := currentUserID(ctx, s)
		if err != nil {
			return err
		}
		if me == "" {
			return pkg.ErrNoCurrentUser
		}
		userID = me
	}
	return s.MarkChannelRead(ctx, cid, userID, at, messageID)
}

func (u *ChannelReadUpdater) markAllRead(ctx context.Context, s repository.DatabaseSession, userID string, at time.Time) error {
	if userID == "" {
		me, err := currentUserID(ctx, s)
		if err != nil {
			return err
		}
		userID = me
	}
	if userID == "" {
		return pkg.ErrNoCurrentUser
	}

	reads, err := s.ChannelReadsForUser(ctx, userID)
	if err != nil {
		return err
	}
	for _, rd := range reads {
		if err := s.MarkChannelRead(ctx, rd.CID, userID, at, ""); err != nil {
			return fmt.Errorf("mark %s read: %w", rd.CID, err)
		}
	}
	return nil
}

// markUnread takes the server's cursor as-is. It may move LastReadAt back.
func (u *ChannelReadUpdater) markUnread(ctx context.Context, s repository.DatabaseSession, e *events.NotificationMarkUnread) error {
	userID := e.UserID
	if userID == "" {
		me, err := currentUserID(ctx, s)
		if err != nil {
			return err
		}
		userID = me
	}
	if userID == "" {
		return pkg.ErrNoCurrentUser
	}
	return s.MarkChannelUnread(ctx, e.CID, userID, e.LastReadAt, e.LastReadMessageID, e.UnreadMessages)
}
