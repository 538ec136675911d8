package middleware

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akinalp/mqvi-sync/events"
	"github.com/akinalp/mqvi-sync/models"
	"github.com/akinalp/mqvi-sync/pkg"
	"github.com/akinalp/mqvi-sync/repository"
)

// ─── Chain ───

func TestChain_StopsAtNil(t *testing.T) {
	var calls []string
	record := func(name string, result func(events.Event) events.Event) Middleware {
		return Func(func(_ context.Context, ev events.Event, _ repository.DatabaseSession) events.Event {
			calls = append(calls, name)
			return result(ev)
		})
	}
	pass := func(ev events.Event) events.Event { return ev }
	drop := func(events.Event) events.Event { return nil }

	chain := NewChain(record("a", pass), record("b", drop), record("c", pass))
	out := chain.Process(context.Background(), &events.TypingStart{CID: testCID, UserID: "bob"}, nil)

	assert.Nil(t, out)
	assert.Equal(t, []string{"a", "b"}, calls)
	assert.Equal(t, 3, chain.Len())
}

func TestChain_ReturnsLastResult(t *testing.T) {
	replacement := &events.TypingStop{CID: testCID, UserID: "bob"}
	chain := NewChain(Func(func(context.Context, events.Event, repository.DatabaseSession) events.Event {
		return replacement
	}))

	out := chain.Process(context.Background(), &events.TypingStart{CID: testCID, UserID: "bob"}, nil)
	assert.Same(t, replacement, out)
}

func TestDefault_EveryUnitForwardsUnknown(t *testing.T) {
	h := newHarness(t)
	ev := &events.Unknown{WireType: "health.check", CreatedAt: t0}

	for _, mw := range Default(Deps{Timers: h.timers, Emit: h.emit}) {
		assert.Same(t, ev, mw.Handle(h.ctx, ev, h.session), "%T", mw)
	}
}

// ─── Unread accounting ───

func TestUnread_NewMessageThenRead(t *testing.T) {
	h := newHarness(t)

	h.process(t, messageNew("m1", "bob", t0.Add(time.Second)))

	rd := h.myRead(t)
	assert.Equal(t, 1, rd.UnreadMessages)

	h.process(t, &events.MessageRead{
		CID: testCID, UserID: meID, LastReadMessageID: "m1", CreatedAt: t0.Add(2 * time.Second),
	})

	rd = h.myRead(t)
	assert.Zero(t, rd.UnreadMessages)
	assert.True(t, t0.Add(2*time.Second).Equal(rd.LastReadAt))
	assert.Equal(t, "m1", rd.LastReadMessageID)
}

func TestUnread_ReplayedMessageCountsOnce(t *testing.T) {
	h := newHarness(t)

	h.process(t, messageNew("m1", "bob", t0.Add(time.Second)))
	h.process(t, messageNew("m1", "bob", t0.Add(time.Second)))

	assert.Equal(t, 1, h.myRead(t).UnreadMessages)

	ids, err := h.session.ChannelMessageIDs(h.ctx, testCID)
	require.NoError(t, err)
	assert.Equal(t, []string{"m1"}, ids)
}

func TestUnread_RedeliveryAfterRollbackCounts(t *testing.T) {
	h := newHarness(t)
	ev := messageNew("m1", "bob", t0.Add(time.Second))

	err := h.store.InTx(h.ctx, func(s repository.DatabaseSession) error {
		require.Same(t, ev, h.chain.Process(h.ctx, ev, s))
		return errors.New("commit refused")
	})
	require.Error(t, err)

	_, err = h.session.ChannelRead(h.ctx, testCID, meID)
	require.ErrorIs(t, err, pkg.ErrNotFound)

	h.process(t, ev)
	assert.Equal(t, 1, h.myRead(t).UnreadMessages)
}

func TestUnread_ReplayAfterRestartCountsOnce(t *testing.T) {
	h := newHarness(t)
	ev := messageNew("m1", "bob", t0.Add(time.Second))

	h.process(t, ev)
	require.Equal(t, 1, h.myRead(t).UnreadMessages)

	restarted := h.newChain(time.Minute)
	require.Same(t, ev, restarted.Process(h.ctx, ev, h.session))
	assert.Equal(t, 1, h.myRead(t).UnreadMessages)
}

func TestUnread_SkipsOwnMutedAndSilent(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.session.SaveCurrentUser(h.ctx, &models.CurrentUser{
		UserID: meID, MutedUserIDs: []string{"troll"}, DeliveryReceiptsEnabled: true,
	}))

	silent := messageNew("m3", "bob", t0.Add(3*time.Second))
	silent.Message.Silent = true

	h.process(t,
		messageNew("m1", meID, t0.Add(time.Second)),
		messageNew("m2", "troll", t0.Add(2*time.Second)),
		silent,
	)

	rd := h.myRead(t)
	assert.Zero(t, rd.UnreadMessages)
	assert.Equal(t, 1, rd.UnreadSilentMessages)
}

func TestUnread_CountIgnoresSkippedInterleaving(t *testing.T) {
	counted := func() []*events.MessageNew {
		return []*events.MessageNew{
			messageNew("b1", "bob", t0.Add(1*time.Second)),
			messageNew("b2", "bob", t0.Add(2*time.Second)),
			messageNew("b3", "carol", t0.Add(3*time.Second)),
		}
	}
	skipped := func() []*events.MessageNew {
		return []*events.MessageNew{
			messageNew("s1", meID, t0.Add(4*time.Second)),
			messageNew("s2", "troll", t0.Add(5*time.Second)),
		}
	}

	orders := map[string]func(c, s []*events.MessageNew) []*events.MessageNew{
		"skipped first": func(c, s []*events.MessageNew) []*events.MessageNew {
			return []*events.MessageNew{s[0], s[1], c[0], c[1], c[2]}
		},
		"skipped last": func(c, s []*events.MessageNew) []*events.MessageNew {
			return []*events.MessageNew{c[0], c[1], c[2], s[0], s[1]}
		},
		"interleaved": func(c, s []*events.MessageNew) []*events.MessageNew {
			return []*events.MessageNew{c[0], s[0], c[1], s[1], c[2]}
		},
	}

	for name, order := range orders {
		t.Run(name, func(t *testing.T) {
			h := newHarness(t)
			require.NoError(t, h.session.SaveCurrentUser(h.ctx, &models.CurrentUser{
				UserID: meID, MutedUserIDs: []string{"troll"},
			}))

			for _, ev := range order(counted(), skipped()) {
				h.process(t, ev)
			}
			assert.Equal(t, 3, h.myRead(t).UnreadMessages)
		})
	}
}

func TestUnread_HardDeleteDecrementsSoftDoesNot(t *testing.T) {
	h := newHarness(t)

	h.process(t,
		messageNew("m1", "bob", t0.Add(time.Second)),
		messageNew("m2", "bob", t0.Add(2*time.Second)),
	)
	require.Equal(t, 2, h.myRead(t).UnreadMessages)

	h.process(t, &events.MessageDeleted{
		CID: testCID, Message: newMessage("m1", "bob", t0.Add(time.Second)), CreatedAt: t0.Add(time.Minute),
	})
	assert.Equal(t, 2, h.myRead(t).UnreadMessages)

	msg, err := h.session.Message(h.ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, models.MessageTypeDeleted, msg.Type)
	require.NotNil(t, msg.DeletedAt)

	h.process(t, &events.MessageDeleted{
		CID: testCID, Message: newMessage("m2", "bob", t0.Add(2*time.Second)), HardDelete: true, CreatedAt: t0.Add(time.Minute),
	})
	assert.Equal(t, 1, h.myRead(t).UnreadMessages)

	_, err = h.session.Message(h.ctx, "m2")
	assert.ErrorIs(t, err, pkg.ErrNotFound)
}

func TestUnread_MarkAllRead(t *testing.T) {
	h := newHarness(t)
	other := "messaging:other"

	h.process(t,
		messageNew("m1", "bob", t0.Add(time.Second)),
		&events.MessageNew{CID: other, Message: models.Message{ID: "x1", CID: other, UserID: "bob", CreatedAt: t0.Add(time.Second)}, CreatedAt: t0.Add(time.Second)},
	)

	h.process(t, &events.NotificationMarkAllRead{CreatedAt: t0.Add(time.Minute)})

	reads, err := h.session.ChannelReadsForUser(h.ctx, meID)
	require.NoError(t, err)
	require.Len(t, reads, 2)
	for _, rd := range reads {
		assert.Zero(t, rd.UnreadMessages, rd.CID)
		assert.True(t, t0.Add(time.Minute).Equal(rd.LastReadAt), rd.CID)
	}
}

func TestUnread_MarkUnreadMovesCursorBack(t *testing.T) {
	h := newHarness(t)

	h.process(t, &events.NotificationMarkRead{CID: testCID, CreatedAt: t0.Add(time.Hour)})
	h.process(t, &events.NotificationMarkUnread{
		CID: testCID, LastReadAt: t0, LastReadMessageID: "m0", UnreadMessages: 3, CreatedAt: t0.Add(2 * time.Hour),
	})

	rd := h.myRead(t)
	assert.Equal(t, 3, rd.UnreadMessages)
	assert.True(t, t0.Equal(rd.LastReadAt))
}

// ─── Store failures ───

// failingReads fails every read-cursor write.
type failingReads struct {
	repository.DatabaseSession
}

func (f failingReads) SaveChannelRead(context.Context, *models.ChannelRead) error {
	return errors.New("disk full")
}

func TestStoreFailureStillForwards(t *testing.T) {
	h := newHarness(t)
	ch := h.channel(t)
	ch.Hidden = true
	require.NoError(t, h.session.SaveChannel(h.ctx, ch))
	session := failingReads{h.session}

	ev := messageNew("m1", "bob", t0.Add(time.Second))
	require.Same(t, ev, h.chain.Process(h.ctx, ev, session))

	_, err := h.session.ChannelRead(h.ctx, testCID, meID)
	assert.ErrorIs(t, err, pkg.ErrNotFound)

	// Units after the failing one still ran.
	assert.False(t, h.channel(t).Hidden)
}

func TestMalformedCIDIsForwarded(t *testing.T) {
	h := newHarness(t)

	ev := &events.ChannelVisible{CID: "no-separator", CreatedAt: t0}
	h.process(t, ev)

	_, err := h.session.Channel(h.ctx, "no-separator")
	assert.ErrorIs(t, err, pkg.ErrNotFound)
}

// ─── Delivery ───

func TestDelivery_QueueAndAcknowledge(t *testing.T) {
	h := newHarness(t)
	ch := h.channel(t)
	ch.DeliveryEventsEnabled = true
	require.NoError(t, h.session.SaveChannel(h.ctx, ch))

	h.process(t,
		messageNew("m1", "bob", t0.Add(time.Second)),
		messageNew("m2", "bob", t0.Add(2*time.Second)),
		messageNew("m3", meID, t0.Add(3*time.Second)),
	)

	pending, err := h.session.PendingDeliveries(h.ctx)
	require.NoError(t, err)
	require.Len(t, pending, 2)

	h.process(t, &events.MessageDelivered{
		CID: testCID, UserID: meID, LastDeliveredAt: t0.Add(time.Second), LastDeliveredMessageID: "m1", CreatedAt: t0.Add(time.Minute),
	})

	pending, err = h.session.PendingDeliveries(h.ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "m2", pending[0].MessageID)

	rd := h.myRead(t)
	require.NotNil(t, rd.LastDeliveredAt)
	assert.True(t, t0.Add(time.Second).Equal(*rd.LastDeliveredAt))
	assert.Equal(t, "m1", rd.LastDeliveredMessageID)
}

func TestDelivery_OtherUserCursor(t *testing.T) {
	h := newHarness(t)

	h.process(t, &events.MessageDelivered{
		CID: testCID, UserID: "bob", LastDeliveredAt: t0, LastDeliveredMessageID: "m1", CreatedAt: t0,
	})
	h.process(t, &events.MessageDelivered{
		CID: testCID, UserID: "bob", LastDeliveredAt: t0.Add(-time.Minute), LastDeliveredMessageID: "m0", CreatedAt: t0,
	})

	rd, err := h.session.ChannelRead(h.ctx, testCID, "bob")
	require.NoError(t, err)
	assert.Equal(t, "m1", rd.LastDeliveredMessageID)
}

// ─── Typing ───

func TestTyping_StartStop(t *testing.T) {
	h := newHarness(t)

	h.process(t,
		&events.TypingStart{CID: testCID, UserID: "bob", CreatedAt: t0},
		&events.TypingStart{CID: testCID, UserID: meID, CreatedAt: t0},
		&events.TypingStart{CID: testCID, UserID: "carol", ParentID: "p1", CreatedAt: t0},
	)

	ids, err := h.session.TypingUserIDs(h.ctx, testCID)
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, ids)
	assert.True(t, h.timers.Pending("bob"))
	assert.False(t, h.timers.Pending(meID))
	assert.False(t, h.timers.Pending("carol"))

	h.process(t, &events.TypingStop{CID: testCID, UserID: "bob", CreatedAt: t0.Add(time.Second)})

	ids, err = h.session.TypingUserIDs(h.ctx, testCID)
	require.NoError(t, err)
	assert.Empty(t, ids)
	assert.False(t, h.timers.Pending("bob"))
}

func TestTyping_TimeoutEmitsOneCleanup(t *testing.T) {
	h := newHarnessWithTimeout(t, 30*time.Millisecond)

	h.process(t, &events.TypingStart{CID: testCID, UserID: "bob", CreatedAt: t0})
	time.Sleep(10 * time.Millisecond)
	// A second start restarts the clock; the first timer must not fire.
	h.process(t, &events.TypingStart{CID: testCID, UserID: "bob", CreatedAt: t0.Add(time.Second)})

	require.Eventually(t, func() bool { return len(h.emittedEvents()) > 0 }, time.Second, 5*time.Millisecond)
	time.Sleep(60 * time.Millisecond)

	emitted := h.emittedEvents()
	require.Len(t, emitted, 1)
	cleanup, ok := emitted[0].(*events.CleanupTyping)
	require.True(t, ok)
	assert.Equal(t, testCID, cleanup.CID)
	assert.Equal(t, "bob", cleanup.UserID)

	h.process(t, cleanup)
	ids, err := h.session.TypingUserIDs(h.ctx, testCID)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestTyping_ThreadTypingLeavesChannelClock(t *testing.T) {
	h := newHarness(t)

	h.process(t,
		&events.TypingStart{CID: testCID, UserID: "bob", CreatedAt: t0},
		&events.TypingStop{CID: testCID, UserID: "bob", ParentID: "p1", CreatedAt: t0.Add(time.Second)},
	)

	assert.True(t, h.timers.Pending("bob"))
	ids, err := h.session.TypingUserIDs(h.ctx, testCID)
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, ids)
}

// ─── Visibility ───

func TestVisibility_HideClearThenNewMessage(t *testing.T) {
	h := newHarness(t)
	hiddenAt := t0.Add(time.Minute)

	h.process(t, &events.ChannelHidden{CID: testCID, UserID: meID, ClearHistory: true, CreatedAt: hiddenAt})

	ch := h.channel(t)
	assert.True(t, ch.Hidden)
	require.NotNil(t, ch.TruncatedAt)
	assert.True(t, hiddenAt.Equal(*ch.TruncatedAt))

	h.process(t, messageNew("m1", "bob", t0.Add(2*time.Minute)))

	ch = h.channel(t)
	assert.False(t, ch.Hidden)
	require.NotNil(t, ch.TruncatedAt)
	assert.True(t, hiddenAt.Equal(*ch.TruncatedAt))
}

func TestVisibility_ShadowedMessageKeepsHidden(t *testing.T) {
	h := newHarness(t)

	h.process(t, &events.ChannelHidden{CID: testCID, UserID: meID, CreatedAt: t0})
	shadowed := messageNew("m1", "bob", t0.Add(time.Second))
	shadowed.Message.Shadowed = true
	h.process(t, shadowed)

	assert.True(t, h.channel(t).Hidden)

	h.process(t, &events.ChannelVisible{CID: testCID, UserID: meID, CreatedAt: t0.Add(time.Minute)})
	assert.False(t, h.channel(t).Hidden)
}

func TestTruncate_ForwardOnly(t *testing.T) {
	h := newHarness(t)

	h.process(t, &events.ChannelTruncated{CID: testCID, CreatedAt: t0.Add(time.Hour)})
	h.process(t, &events.ChannelTruncated{CID: testCID, CreatedAt: t0})

	ch := h.channel(t)
	require.NotNil(t, ch.TruncatedAt)
	assert.True(t, t0.Add(time.Hour).Equal(*ch.TruncatedAt))
}

func TestMessageVisibility_RestrictedUpdate(t *testing.T) {
	h := newHarness(t)

	h.process(t,
		messageNew("m1", "bob", t0.Add(time.Second)),
		messageNew("m2", "bob", t0.Add(2*time.Second)),
		messageNew("m3", "bob", t0.Add(3*time.Second)),
	)

	restricted := newMessage("m2", "bob", t0.Add(2*time.Second))
	restricted.RestrictedVisibility = []string{"carol"}
	h.process(t, &events.MessageUpdated{CID: testCID, Message: restricted, CreatedAt: t0.Add(time.Minute)})

	ids, err := h.session.ChannelMessageIDs(h.ctx, testCID)
	require.NoError(t, err)
	assert.Equal(t, []string{"m1", "m3"}, ids)

	// Outside the loaded window: never added.
	old := newMessage("m0", "bob", t0.Add(-time.Hour))
	h.process(t, &events.MessageUpdated{CID: testCID, Message: old, CreatedAt: t0.Add(time.Minute)})

	ids, err = h.session.ChannelMessageIDs(h.ctx, testCID)
	require.NoError(t, err)
	assert.Equal(t, []string{"m1", "m3"}, ids)
}

// ─── Members ───

func TestMembers_AddedLinksUnfilteredOnly(t *testing.T) {
	h := newHarness(t)
	all := models.NewMemberListQuery(testCID, "")
	mods := models.NewMemberListQuery(testCID, `{"channel_role":"moderator"}`)
	require.NoError(t, h.session.SaveMemberListQuery(h.ctx, all))
	require.NoError(t, h.session.SaveMemberListQuery(h.ctx, mods))

	h.process(t, &events.MemberAdded{
		CID:       testCID,
		Member:    models.Member{UserID: "bob", Role: "member", CreatedAt: t0},
		User:      &models.User{ID: "bob", Name: "Bob"},
		CreatedAt: t0,
	})

	member, err := h.session.Member(h.ctx, testCID, "bob")
	require.NoError(t, err)
	assert.Equal(t, "member", member.Role)

	ids, err := h.session.QueryMemberIDs(h.ctx, all.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"bob"}, ids)
	ids, err = h.session.QueryMemberIDs(h.ctx, mods.ID)
	require.NoError(t, err)
	assert.Empty(t, ids)

	rd, err := h.session.ChannelRead(h.ctx, testCID, "bob")
	require.NoError(t, err)
	assert.True(t, t0.Equal(rd.LastReadAt))

	u, err := h.session.User(h.ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, "Bob", u.Name)
}

func TestMembers_RemovingCurrentUserCascades(t *testing.T) {
	h := newHarness(t)
	all := models.NewMemberListQuery(testCID, "")
	require.NoError(t, h.session.SaveMemberListQuery(h.ctx, all))

	h.process(t,
		&events.MemberAdded{CID: testCID, Member: models.Member{UserID: meID}, CreatedAt: t0},
		messageNew("m1", "bob", t0.Add(time.Second)),
	)
	require.Equal(t, 1, h.myRead(t).UnreadMessages)

	h.process(t, &events.MemberRemoved{CID: testCID, UserID: meID, CreatedAt: t0.Add(time.Minute)})

	_, err := h.session.Member(h.ctx, testCID, meID)
	assert.ErrorIs(t, err, pkg.ErrNotFound)
	_, err = h.session.ChannelRead(h.ctx, testCID, meID)
	assert.ErrorIs(t, err, pkg.ErrNotFound)
	ids, err := h.session.QueryMemberIDs(h.ctx, all.ID)
	require.NoError(t, err)
	assert.Empty(t, ids)
	assert.False(t, h.channel(t).IsMember)
}

func TestMembers_InviteFlow(t *testing.T) {
	h := newHarness(t)
	ch := h.channel(t)
	ch.IsMember = false
	require.NoError(t, h.session.SaveChannel(h.ctx, ch))

	h.process(t, &events.NotificationInvited{CID: testCID, Member: models.Member{UserID: meID}, CreatedAt: t0})
	member, err := h.session.Member(h.ctx, testCID, meID)
	require.NoError(t, err)
	assert.True(t, member.Invited)
	assert.True(t, h.channel(t).IsMember)

	h.process(t, &events.NotificationInviteRejected{CID: testCID, Member: *member, CreatedAt: t0.Add(time.Minute)})
	member, err = h.session.Member(h.ctx, testCID, meID)
	require.NoError(t, err)
	require.NotNil(t, member.InviteRejectedAt)
	assert.False(t, h.channel(t).IsMember)
}

func TestBan_MissingMemberIsSkipped(t *testing.T) {
	h := newHarness(t)

	h.process(t, &events.UserBanned{CID: testCID, UserID: "ghost", CreatedAt: t0})

	_, err := h.session.Member(h.ctx, testCID, "ghost")
	assert.ErrorIs(t, err, pkg.ErrNotFound)
}

func TestBan_ChannelScoped(t *testing.T) {
	h := newHarness(t)
	expires := t0.Add(time.Hour)

	h.process(t,
		&events.MemberAdded{CID: testCID, Member: models.Member{UserID: "bob"}, CreatedAt: t0},
		&events.UserBanned{CID: testCID, UserID: "bob", Shadow: true, ExpiresAt: &expires, CreatedAt: t0},
	)

	member, err := h.session.Member(h.ctx, testCID, "bob")
	require.NoError(t, err)
	assert.True(t, member.ShadowBanned)
	assert.False(t, member.Banned)
	require.NotNil(t, member.BanExpiresAt)

	h.process(t, &events.UserUnbanned{CID: testCID, UserID: "bob", CreatedAt: t0.Add(time.Minute)})

	member, err = h.session.Member(h.ctx, testCID, "bob")
	require.NoError(t, err)
	assert.False(t, member.ShadowBanned)
	assert.Nil(t, member.BanExpiresAt)
}

func TestWatchers(t *testing.T) {
	h := newHarness(t)

	h.process(t,
		&events.UserWatchingStart{CID: testCID, UserID: "bob", WatcherCount: 2, CreatedAt: t0},
		&events.UserWatchingStart{CID: testCID, UserID: "carol", WatcherCount: 3, CreatedAt: t0},
		&events.UserWatchingStop{CID: testCID, UserID: "bob", WatcherCount: 2, CreatedAt: t0},
	)

	ids, err := h.session.WatcherIDs(h.ctx, testCID)
	require.NoError(t, err)
	assert.Equal(t, []string{"carol"}, ids)
	assert.Equal(t, 2, h.channel(t).WatcherCount)
}

// ─── Reactions ───

func TestReactions_UniqueUpdateAndDelete(t *testing.T) {
	h := newHarness(t)
	msg := newMessage("m1", "bob", t0)
	reaction := func(typ string) models.Reaction {
		return models.Reaction{MessageID: "m1", UserID: "carol", Type: typ, Score: 1, CreatedAt: t0}
	}

	h.process(t,
		&events.ReactionNew{CID: testCID, Message: &msg, Reaction: reaction("like"), CreatedAt: t0},
		&events.ReactionNew{CID: testCID, Message: &msg, Reaction: reaction("haha"), CreatedAt: t0},
		&events.ReactionUpdated{CID: testCID, Message: &msg, Reaction: reaction("love"), EnforceUnique: true, CreatedAt: t0},
	)

	reactions, err := h.session.MessageReactions(h.ctx, "m1")
	require.NoError(t, err)
	require.Len(t, reactions, 1)
	assert.Equal(t, "love", reactions[0].Type)

	h.process(t,
		&events.ReactionDeleted{CID: testCID, Message: &msg, Reaction: reaction("love"), CreatedAt: t0},
		&events.ReactionDeleted{CID: testCID, Message: &msg, Reaction: reaction("wow"), CreatedAt: t0},
	)

	reactions, err = h.session.MessageReactions(h.ctx, "m1")
	require.NoError(t, err)
	assert.Empty(t, reactions)

	_, err = h.session.Message(h.ctx, "m1")
	assert.NoError(t, err)
}

// ─── Threads ───

func TestThreads_ReplyCountsAndRead(t *testing.T) {
	h := newHarness(t)
	reply := func(id, userID string, at time.Time) *events.MessageNew {
		ev := messageNew(id, userID, at)
		ev.Message.ParentID = "p1"
		return ev
	}

	h.process(t,
		messageNew("p1", meID, t0),
		reply("r1", "bob", t0.Add(time.Second)),
		reply("r1", "bob", t0.Add(time.Second)),
		reply("r2", meID, t0.Add(2*time.Second)),
	)

	thread, err := h.session.Thread(h.ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 2, thread.ReplyCount)
	assert.Equal(t, []string{"r1", "r2"}, thread.LatestReplyIDs)

	tr, err := h.session.ThreadRead(h.ctx, "p1", meID)
	require.NoError(t, err)
	assert.Equal(t, 1, tr.UnreadReplies)

	// Hidden replies stay out of the channel collection and its unread count.
	ids, err := h.session.ChannelMessageIDs(h.ctx, testCID)
	require.NoError(t, err)
	assert.Equal(t, []string{"p1"}, ids)
	assert.Zero(t, h.myRead(t).UnreadMessages)
	assert.Equal(t, 1, h.myRead(t).UnreadThreadReplies)

	h.process(t, &events.MessageRead{CID: testCID, UserID: meID, ThreadParentID: "p1", CreatedAt: t0.Add(time.Minute)})

	tr, err = h.session.ThreadRead(h.ctx, "p1", meID)
	require.NoError(t, err)
	assert.Zero(t, tr.UnreadReplies)
}

func TestThreads_ReplyShownInChannel(t *testing.T) {
	h := newHarness(t)
	reply := newMessage("r1", "bob", t0.Add(time.Second))
	reply.ParentID = "p1"
	reply.ShowInChannel = true

	h.process(t,
		messageNew("p1", meID, t0),
		&events.MessageNew{CID: testCID, Message: reply, CreatedAt: reply.CreatedAt},
		&events.ThreadMessageNew{CID: testCID, Message: reply, CreatedAt: reply.CreatedAt},
	)

	thread, err := h.session.Thread(h.ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 1, thread.ReplyCount)
	assert.Equal(t, []string{"r1"}, thread.LatestReplyIDs)

	tr, err := h.session.ThreadRead(h.ctx, "p1", meID)
	require.NoError(t, err)
	assert.Equal(t, 1, tr.UnreadReplies)

	// Shown in the channel, so it is part of the collection and its unread.
	ids, err := h.session.ChannelMessageIDs(h.ctx, testCID)
	require.NoError(t, err)
	assert.Equal(t, []string{"p1", "r1"}, ids)
	assert.Equal(t, 1, h.myRead(t).UnreadMessages)

	edited := t0.Add(time.Minute)
	h.process(t, &events.MessageUpdated{CID: testCID, Message: reply, CreatedAt: edited})
	thread, err = h.session.Thread(h.ctx, "p1")
	require.NoError(t, err)
	assert.True(t, edited.Equal(thread.UpdatedAt))

	deleted := t0.Add(2 * time.Minute)
	h.process(t, &events.MessageDeleted{CID: testCID, Message: reply, HardDelete: true, CreatedAt: deleted})
	thread, err = h.session.Thread(h.ctx, "p1")
	require.NoError(t, err)
	assert.True(t, deleted.Equal(thread.UpdatedAt))
}

func TestThreads_OldReplyReplayCountsOnce(t *testing.T) {
	h := newHarness(t)
	h.process(t, messageNew("p1", meID, t0))

	replies := make([]*events.ThreadMessageNew, 0, 6)
	for i := range 6 {
		msg := newMessage(fmt.Sprintf("r%d", i+1), "bob", t0.Add(time.Duration(i+1)*time.Second))
		msg.ParentID = "p1"
		replies = append(replies, &events.ThreadMessageNew{CID: testCID, Message: msg, CreatedAt: msg.CreatedAt})
	}
	for _, ev := range replies {
		h.process(t, ev)
	}
	// r1 has already left the latest replies.
	h.process(t, replies[0])

	thread, err := h.session.Thread(h.ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 6, thread.ReplyCount)
	assert.Equal(t, []string{"r2", "r3", "r4", "r5", "r6"}, thread.LatestReplyIDs)

	tr, err := h.session.ThreadRead(h.ctx, "p1", meID)
	require.NoError(t, err)
	assert.Equal(t, 6, tr.UnreadReplies)
}

func TestThreads_HardDeletedParentDropsThread(t *testing.T) {
	h := newHarness(t)
	r := messageNew("r1", "bob", t0.Add(time.Second))
	r.Message.ParentID = "p1"

	h.process(t, messageNew("p1", "bob", t0), r)
	h.process(t, &events.MessageDeleted{CID: testCID, Message: newMessage("p1", "bob", t0), HardDelete: true, CreatedAt: t0.Add(time.Minute)})

	_, err := h.session.Thread(h.ctx, "p1")
	assert.ErrorIs(t, err, pkg.ErrNotFound)
}

// ─── Drafts and reminders ───

func TestDraftsAndReminders(t *testing.T) {
	h := newHarness(t)
	remindAt := t0.Add(time.Hour)

	h.process(t,
		&events.DraftUpdated{Draft: models.Draft{CID: testCID, Text: "wip", CreatedAt: t0}, CreatedAt: t0},
		&events.ReminderCreated{Reminder: models.Reminder{MessageID: "m1", CID: testCID, UserID: meID, RemindAt: &remindAt}, CreatedAt: t0},
	)

	draft, err := h.session.Draft(h.ctx, testCID, "")
	require.NoError(t, err)
	assert.Equal(t, "wip", draft.Text)

	reminder, err := h.session.Reminder(h.ctx, "m1")
	require.NoError(t, err)
	require.NotNil(t, reminder.RemindAt)
	assert.True(t, remindAt.Equal(*reminder.RemindAt))

	h.process(t,
		&events.DraftDeleted{CID: testCID, CreatedAt: t0},
		&events.ReminderDeleted{MessageID: "m1", CID: testCID, CreatedAt: t0},
	)

	_, err = h.session.Draft(h.ctx, testCID, "")
	assert.ErrorIs(t, err, pkg.ErrNotFound)
	_, err = h.session.Reminder(h.ctx, "m1")
	assert.ErrorIs(t, err, pkg.ErrNotFound)
}
