package middleware

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/akinalp/mqvi-sync/events"
	"github.com/akinalp/mqvi-sync/models"
	"github.com/akinalp/mqvi-sync/pkg"
	"github.com/akinalp/mqvi-sync/repository"
)

// MemberEvents keeps members, the current user's membership flag and the
// cached member-list query results in step.
//
// A new member is appended to every unfiltered query of the channel only.
// Filtered queries are left alone: whether the member matches the filter is
// for the server to decide, so they refresh on the next fetch.
type MemberEvents struct{}

func NewMemberEvents() *MemberEvents {
	return &MemberEvents{}
}

const memberComponent = "member"

func (m *MemberEvents) Handle(ctx context.Context, ev events.Event, s repository.DatabaseSession) events.Event {
	var err error

	switch e := ev.(type) {
	case *events.MemberAdded:
		err = m.added(ctx, s, e.CID, e.Member, e.CreatedAt)

	case *events.MemberUpdated:
		err = saveMember(ctx, s, e.CID, e.Member)

	case *events.MemberRemoved:
		err = m.removed(ctx, s, e.CID, e.UserID)

	case *events.NotificationInvited:
		member := e.Member
		member.Invited = true
		err = m.invite(ctx, s, e.CID, member, true)

	case *events.NotificationInviteAccepted:
		member := e.Member
		at := e.CreatedAt
		member.InviteAcceptedAt = &at
		err = m.invite(ctx, s, e.CID, member, true)

	case *events.NotificationInviteRejected:
		member := e.Member
		at := e.CreatedAt
		member.InviteRejectedAt = &at
		err = m.invite(ctx, s, e.CID, member, false)

	case *events.NotificationAddedToChannel:
		err = m.addedToChannel(ctx, s, e)

	case *events.NotificationRemovedFromChannel:
		err = m.removedFromChannel(ctx, s, e)

	default:
		return ev
	}

	if err != nil {
		logFailure(memberComponent, ev, err)
	}
	return ev
}

func saveMember(ctx context.Context, s repository.DatabaseSession, cid string, member models.Member) error {
	if member.CID == "" {
		member.CID = cid
	}
	if member.UserID == "" {
		return fmt.Errorf("%w: member without user id", pkg.ErrMalformed)
	}
	return s.SaveMember(ctx, &member)
}

// linkUnfiltered appends userID to every unfiltered member-list query of cid.
func linkUnfiltered(ctx context.Context, s repository.DatabaseSession, cid, userID string) error {
	queries, err := s.MemberListQueries(ctx, cid)
	if err != nil {
		return err
	}
	for _, q := range queries {
		if !q.Unfiltered {
			continue
		}
		if err := s.LinkMemberToQuery(ctx, q.ID, cid, userID); err != nil {
			return fmt.Errorf("link to query %s: %w", q.ID, err)
		}
	}
	return nil
}

// added saves the member and starts its read cursor at the join time so
// earlier history does not count as unread.
func (m *MemberEvents) added(ctx context.Context, s repository.DatabaseSession, cid string, member models.Member, at time.Time) error {
	if err := saveMember(ctx, s, cid, member); err != nil {
		return err
	}
	if err := linkUnfiltered(ctx, s, cid, member.UserID); err != nil {
		return err
	}
	return s.MarkChannelRead(ctx, cid, member.UserID, at, "")
}

// removed runs the removal cascade as explicit steps: query links, the
// member row, then for the current user the membership flag and the read
// cursor.
func (m *MemberEvents) removed(ctx context.Context, s repository.DatabaseSession, cid, userID string) error {
	if err := s.UnlinkMemberFromQueries(ctx, cid, userID); err != nil {
		return err
	}
	if err := s.DeleteMember(ctx, cid, userID); err != nil {
		return err
	}

	me, err := currentUserID(ctx, s)
	if err != nil {
		return err
	}
	if me == "" || userID != me {
		return nil
	}
	if err := s.SetMembership(ctx, cid, false); err != nil && !errors.Is(err, pkg.ErrNotFound) {
		return err
	}
	return s.DeleteChannelRead(ctx, cid, userID)
}

func (m *MemberEvents) invite(ctx context.Context, s repository.DatabaseSession, cid string, member models.Member, isMember bool) error {
	if err := saveMember(ctx, s, cid, member); err != nil {
		return err
	}
	if err := linkUnfiltered(ctx, s, cid, member.UserID); err != nil {
		return err
	}

	me, err := currentUserID(ctx, s)
	if err != nil {
		return err
	}
	if me == "" || member.UserID != me {
		return nil
	}
	return s.SetMembership(ctx, cid, isMember)
}

func (m *MemberEvents) addedToChannel(ctx context.Context, s repository.DatabaseSession, e *events.NotificationAddedToChannel) error {
	if err := s.SetMembership(ctx, e.CID, true); err != nil {
		return err
	}
	if e.Member == nil {
		return nil
	}
	if err := saveMember(ctx, s, e.CID, *e.Member); err != nil {
		return err
	}
	return linkUnfiltered(ctx, s, e.CID, e.Member.UserID)
}

func (m *MemberEvents) removedFromChannel(ctx context.Context, s repository.DatabaseSession, e *events.NotificationRemovedFromChannel) error {
	if err := s.SetMembership(ctx, e.CID, false); err != nil {
		return err
	}

	userID := e.UserID
	if userID == "" && e.Member != nil {
		userID = e.Member.UserID
	}
	if userID == "" {
		return nil
	}
	if err := s.UnlinkMemberFromQueries(ctx, e.CID, userID); err != nil {
		return err
	}
	return s.DeleteMember(ctx, e.CID, userID)
}

// ─── Bans ───

// UserChannelBan applies channel-scoped bans. A ban for a member that is not
// stored is logged and skipped.
type UserChannelBan struct{}

func NewUserChannelBan() *UserChannelBan {
	return &UserChannelBan{}
}

func (b *UserChannelBan) Handle(ctx context.Context, ev events.Event, s repository.DatabaseSession) events.Event {
	var cid, userID string
	var apply func(*models.Member)

	switch e := ev.(type) {
	case *events.UserBanned:
		cid, userID = e.CID, e.UserID
		apply = func(m *models.Member) { m.Ban(e.Shadow, e.ExpiresAt) }
	case *events.UserUnbanned:
		cid, userID = e.CID, e.UserID
		apply = func(m *models.Member) { m.Unban() }
	default:
		return ev
	}

	if cid == "" {
		return ev
	}

	member, err := s.Member(ctx, cid, userID)
	if err != nil {
		logFailure("ban", ev, err)
		return ev
	}
	apply(member)
	if err := s.SaveMember(ctx, member); err != nil {
		logFailure("ban", ev, err)
	}
	return ev
}

// ─── Watchers ───

// UserWatching maintains the watcher set and the server's watcher count.
type UserWatching struct{}

func NewUserWatching() *UserWatching {
	return &UserWatching{}
}

func (w *UserWatching) Handle(ctx context.Context, ev events.Event, s repository.DatabaseSession) events.Event {
	var err error

	switch e := ev.(type) {
	case *events.UserWatchingStart:
		if err = s.AddWatcher(ctx, e.CID, e.UserID); err == nil {
			err = setWatcherCount(ctx, s, e.CID, e.WatcherCount)
		}
	case *events.UserWatchingStop:
		if err = s.RemoveWatcher(ctx, e.CID, e.UserID); err == nil {
			err = setWatcherCount(ctx, s, e.CID, e.WatcherCount)
		}
	case *events.MessageNew:
		if e.WatcherCount > 0 {
			err = setWatcherCount(ctx, s, e.CID, e.WatcherCount)
		}
	default:
		return ev
	}

	if err != nil {
		logFailure("watching", ev, err)
	}
	return ev
}

func setWatcherCount(ctx context.Context, s repository.DatabaseSession, cid string, count int) error {
	ch, err := s.Channel(ctx, cid)
	if err != nil {
		return err
	}
	if ch.WatcherCount == count {
		return nil
	}
	ch.WatcherCount = count
	return s.SaveChannel(ctx, ch)
}
