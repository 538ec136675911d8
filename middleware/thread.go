package middleware

import (
	"context"
	"errors"
	"time"

	"github.com/akinalp/mqvi-sync/events"
	"github.com/akinalp/mqvi-sync/models"
	"github.com/akinalp/mqvi-sync/pkg"
	"github.com/akinalp/mqvi-sync/repository"
)

// ThreadUpdater maintains threads and thread read cursors.
//
// Any message with a ParentID is a reply, whether or not it is also shown in
// the channel. A new reply joins the latest replies, bumps UpdatedAt and
// counts as unread for the current user unless they wrote it or muted its
// author. A redelivered reply counts once (see threadScope). Reply edits
// and deletes and parent soft deletes only bump UpdatedAt. A hard-deleted
// parent takes its thread with it, and a deleted or truncated channel takes
// all of its threads.
type ThreadUpdater struct{}

func NewThreadUpdater() *ThreadUpdater {
	return &ThreadUpdater{}
}

const (
	threadComponent = "thread"
	// threadScope is the observation scope of reply counts and thread
	// unread counters.
	threadScope = "thread"
)

func (t *ThreadUpdater) Handle(ctx context.Context, ev events.Event, s repository.DatabaseSession) events.Event {
	var err error

	switch e := ev.(type) {
	case *events.MessageNew:
		if e.Message.ParentID != "" {
			err = t.reply(ctx, s, e.CID, &e.Message)
		}
	case *events.ThreadMessageNew:
		if e.Message.ParentID != "" {
			err = t.reply(ctx, s, e.CID, &e.Message)
		}

	case *events.MessageUpdated:
		if e.Message.ParentID != "" {
			err = touchThread(ctx, s, e.Message.ParentID, e.CreatedAt)
		}

	case *events.MessageDeleted:
		err = t.deleted(ctx, s, e)

	case *events.MessageRead:
		if e.ThreadParentID != "" && e.UserID != "" {
			err = s.MarkThreadRead(ctx, e.ThreadParentID, e.UserID, e.CreatedAt, e.LastReadMessageID)
		}

	case *events.NotificationMarkUnread:
		if e.ThreadParentID != "" {
			err = t.markUnread(ctx, s, e)
		}

	case *events.ChannelDeleted:
		_, err = s.DeleteThreadsInChannel(ctx, e.CID)
	case *events.ChannelTruncated:
		_, err = s.DeleteThreadsInChannel(ctx, e.CID)

	default:
		return ev
	}

	if err != nil {
		logFailure(threadComponent, ev, err)
	}
	return ev
}

func (t *ThreadUpdater) reply(ctx context.Context, s repository.DatabaseSession, cid string, msg *models.Message) error {
	first, err := s.MarkObserved(ctx, threadScope, msg.ID)
	if err != nil || !first {
		return err
	}

	thread, err := s.Thread(ctx, msg.ParentID)
	if errors.Is(err, pkg.ErrNotFound) {
		thread, err = &models.Thread{
			ParentMessageID: msg.ParentID,
			CID:             cid,
			CreatedAt:       msg.CreatedAt,
		}, nil
	}
	if err != nil {
		return err
	}

	thread.AddReply(msg.ID, msg.CreatedAt)
	thread.Touch(msg.CreatedAt)
	if err := s.SaveThread(ctx, thread); err != nil {
		return err
	}

	me, err := s.CurrentUser(ctx)
	if errors.Is(err, pkg.ErrNoCurrentUser) {
		return nil
	}
	if err != nil {
		return err
	}
	if msg.UserID == me.UserID || me.HasMuted(msg.UserID) {
		return nil
	}
	return s.IncrementThreadUnread(ctx, msg.ParentID, me.UserID)
}

func (t *ThreadUpdater) deleted(ctx context.Context, s repository.DatabaseSession, e *events.MessageDeleted) error {
	if e.Message.ParentID != "" {
		return touchThread(ctx, s, e.Message.ParentID, e.CreatedAt)
	}
	if e.HardDelete {
		return s.DeleteThread(ctx, e.Message.ID)
	}
	return touchThread(ctx, s, e.Message.ID, e.CreatedAt)
}

func (t *ThreadUpdater) markUnread(ctx context.Context, s repository.DatabaseSession, e *events.NotificationMarkUnread) error {
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
	return s.MarkThreadUnread(ctx, e.ThreadParentID, userID, e.LastReadAt, e.UnreadMessages)
}

// touchThread bumps UpdatedAt of a stored thread. A thread that is not
// stored is left alone.
func touchThread(ctx context.Context, s repository.DatabaseSession, parentID string, at time.Time) error {
	thread, err := s.Thread(ctx, parentID)
	if errors.Is(err, pkg.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	thread.Touch(at)
	return s.SaveThread(ctx, thread)
}
