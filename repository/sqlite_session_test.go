package repository

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akinalp/mqvi-sync/database"
	"github.com/akinalp/mqvi-sync/models"
	"github.com/akinalp/mqvi-sync/pkg"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	db, err := database.New(filepath.Join(t.TempDir(), "sync.db"), database.Migrations())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	return NewStore(db.Conn)
}

func TestCurrentUser_MissingThenSaved(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t).Reader()

	_, err := s.CurrentUser(ctx)
	require.ErrorIs(t, err, pkg.ErrNoCurrentUser)

	require.NoError(t, s.SaveCurrentUser(ctx, &models.CurrentUser{
		UserID:                  "me",
		MutedUserIDs:            []string{"troll"},
		DeliveryReceiptsEnabled: true,
	}))

	me, err := s.CurrentUser(ctx)
	require.NoError(t, err)
	assert.Equal(t, "me", me.UserID)
	assert.Equal(t, []string{"troll"}, me.MutedUserIDs)
	assert.True(t, me.DeliveryReceiptsEnabled)
}

func TestChannel_NotFoundAndRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t).Reader()

	_, err := s.Channel(ctx, "messaging:general")
	require.ErrorIs(t, err, pkg.ErrNotFound)

	truncated := t0.Add(-time.Hour)
	require.NoError(t, s.SaveChannel(ctx, &models.Channel{
		CID:         "messaging:general",
		Type:        "messaging",
		ID:          "general",
		Name:        "General",
		Hidden:      true,
		TruncatedAt: &truncated,
		CreatedAt:   t0,
	}))

	ch, err := s.Channel(ctx, "messaging:general")
	require.NoError(t, err)
	assert.Equal(t, "General", ch.Name)
	assert.True(t, ch.Hidden)
	require.NotNil(t, ch.TruncatedAt)
	assert.True(t, truncated.Equal(*ch.TruncatedAt))
	assert.True(t, t0.Equal(ch.CreatedAt))
	assert.Nil(t, ch.DeletedAt)
}

func TestSetMembership_MissingChannel(t *testing.T) {
	s := newTestStore(t).Reader()

	err := s.SetMembership(context.Background(), "messaging:ghost", true)
	require.ErrorIs(t, err, pkg.ErrNotFound)
}

func TestMarkChannelRead_NeverMovesBackwards(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t).Reader()

	require.NoError(t, s.SaveChannelRead(ctx, &models.ChannelRead{
		CID: "messaging:general", UserID: "me", LastReadAt: t0, UnreadMessages: 4, UnreadSilentMessages: 1,
	}))

	require.NoError(t, s.MarkChannelRead(ctx, "messaging:general", "me", t0.Add(-time.Minute), "m1"))

	rd, err := s.ChannelRead(ctx, "messaging:general", "me")
	require.NoError(t, err)
	assert.True(t, t0.Equal(rd.LastReadAt))
	assert.Equal(t, "m1", rd.LastReadMessageID)
	assert.Zero(t, rd.UnreadMessages)
	assert.Zero(t, rd.UnreadSilentMessages)

	require.NoError(t, s.MarkChannelRead(ctx, "messaging:general", "me", t0.Add(time.Minute), ""))

	rd, err = s.ChannelRead(ctx, "messaging:general", "me")
	require.NoError(t, err)
	assert.True(t, t0.Add(time.Minute).Equal(rd.LastReadAt))
	assert.Equal(t, "m1", rd.LastReadMessageID)
}

func TestMarkChannelRead_Idempotent(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t).Reader()

	for range 2 {
		require.NoError(t, s.MarkChannelRead(ctx, "messaging:general", "me", t0, "m1"))
	}

	reads, err := s.ChannelReadsForUser(ctx, "me")
	require.NoError(t, err)
	require.Len(t, reads, 1)
	assert.True(t, t0.Equal(reads[0].LastReadAt))
	assert.Equal(t, "m1", reads[0].LastReadMessageID)
}

func TestMarkChannelUnread_OverwritesCursor(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t).Reader()

	require.NoError(t, s.MarkChannelRead(ctx, "messaging:general", "me", t0, "m9"))
	require.NoError(t, s.MarkChannelUnread(ctx, "messaging:general", "me", t0.Add(-time.Hour), "m3", 6))

	rd, err := s.ChannelRead(ctx, "messaging:general", "me")
	require.NoError(t, err)
	assert.True(t, t0.Add(-time.Hour).Equal(rd.LastReadAt))
	assert.Equal(t, "m3", rd.LastReadMessageID)
	assert.Equal(t, 6, rd.UnreadMessages)
}

func TestSaveChannelRead_ClampsNegativeCounters(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t).Reader()

	require.NoError(t, s.SaveChannelRead(ctx, &models.ChannelRead{
		CID: "messaging:general", UserID: "me", UnreadMessages: -2,
	}))

	rd, err := s.ChannelRead(ctx, "messaging:general", "me")
	require.NoError(t, err)
	assert.Zero(t, rd.UnreadMessages)
}

func TestChannelMessageWindow(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t).Reader()

	w, err := s.ChannelMessageWindow(ctx, "messaging:general")
	require.NoError(t, err)
	assert.True(t, w.Empty)

	require.NoError(t, s.AddMessageToChannel(ctx, "messaging:general", "m2", t0.Add(time.Minute)))
	require.NoError(t, s.AddMessageToChannel(ctx, "messaging:general", "m1", t0))
	require.NoError(t, s.AddMessageToChannel(ctx, "messaging:other", "x", t0.Add(time.Hour)))

	w, err = s.ChannelMessageWindow(ctx, "messaging:general")
	require.NoError(t, err)
	assert.False(t, w.Empty)
	assert.True(t, t0.Equal(w.Oldest))
	assert.True(t, t0.Add(time.Minute).Equal(w.Newest))

	ids, err := s.ChannelMessageIDs(ctx, "messaging:general")
	require.NoError(t, err)
	assert.Equal(t, []string{"m1", "m2"}, ids)
}

func TestMessage_RoundTripAndDelete(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t).Reader()

	require.NoError(t, s.SaveMessage(ctx, &models.Message{
		ID:                   "m1",
		CID:                  "messaging:general",
		UserID:               "bob",
		Text:                 "hi",
		Type:                 models.MessageTypeRegular,
		RestrictedVisibility: []string{"me"},
		CreatedAt:            t0,
	}))
	require.NoError(t, s.AddMessageToChannel(ctx, "messaging:general", "m1", t0))

	msg, err := s.Message(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, "hi", msg.Text)
	assert.Equal(t, []string{"me"}, msg.RestrictedVisibility)
	assert.True(t, t0.Equal(msg.CreatedAt))

	require.NoError(t, s.DeleteMessage(ctx, "m1"))

	_, err = s.Message(ctx, "m1")
	require.ErrorIs(t, err, pkg.ErrNotFound)
	ids, err := s.ChannelMessageIDs(ctx, "messaging:general")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestReactions(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t).Reader()

	for _, typ := range []string{"like", "love", "haha"} {
		require.NoError(t, s.SaveReaction(ctx, &models.Reaction{
			MessageID: "m1", UserID: "bob", Type: typ, Score: 1, CreatedAt: t0,
		}))
	}

	require.NoError(t, s.DeleteUserReactions(ctx, "m1", "bob", "love"))

	reactions, err := s.MessageReactions(ctx, "m1")
	require.NoError(t, err)
	require.Len(t, reactions, 1)
	assert.Equal(t, "love", reactions[0].Type)

	removed, err := s.DeleteReaction(ctx, "m1", "bob", "love")
	require.NoError(t, err)
	assert.True(t, removed)

	removed, err = s.DeleteReaction(ctx, "m1", "bob", "love")
	require.NoError(t, err)
	assert.False(t, removed)
}

func TestMemberListQueries(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t).Reader()

	all := models.NewMemberListQuery("messaging:general", "")
	mods := models.NewMemberListQuery("messaging:general", `{"channel_role":"moderator"}`)
	require.NoError(t, s.SaveMemberListQuery(ctx, all))
	require.NoError(t, s.SaveMemberListQuery(ctx, mods))
	// Saving the same query twice keeps one row.
	require.NoError(t, s.SaveMemberListQuery(ctx, all))

	queries, err := s.MemberListQueries(ctx, "messaging:general")
	require.NoError(t, err)
	require.Len(t, queries, 2)

	require.NoError(t, s.LinkMemberToQuery(ctx, all.ID, "messaging:general", "bob"))
	require.NoError(t, s.LinkMemberToQuery(ctx, all.ID, "messaging:general", "bob"))
	require.NoError(t, s.LinkMemberToQuery(ctx, mods.ID, "messaging:general", "bob"))
	require.NoError(t, s.LinkMemberToQuery(ctx, all.ID, "messaging:general", "carol"))

	ids, err := s.QueryMemberIDs(ctx, all.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"bob", "carol"}, ids)

	require.NoError(t, s.UnlinkMemberFromQueries(ctx, "messaging:general", "bob"))

	ids, err = s.QueryMemberIDs(ctx, all.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"carol"}, ids)
	ids, err = s.QueryMemberIDs(ctx, mods.ID)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestPendingDeliveries(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t).Reader()

	for i, id := range []string{"m1", "m2", "m3"} {
		require.NoError(t, s.AddPendingDelivery(ctx, models.PendingDelivery{
			CID: "messaging:general", MessageID: id, CreatedAt: t0.Add(time.Duration(i) * time.Minute),
		}))
	}

	n, err := s.ClearPendingDeliveries(ctx, "messaging:general", t0.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	pending, err := s.PendingDeliveries(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "m3", pending[0].MessageID)
}

func TestThreads(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t).Reader()

	th := &models.Thread{ParentMessageID: "p1", CID: "messaging:general", CreatedAt: t0}
	th.AddReply("r1", t0.Add(time.Minute))
	require.NoError(t, s.SaveThread(ctx, th))
	require.NoError(t, s.SaveThread(ctx, &models.Thread{ParentMessageID: "p2", CID: "messaging:general"}))
	require.NoError(t, s.SaveThread(ctx, &models.Thread{ParentMessageID: "p3", CID: "messaging:other"}))

	got, err := s.Thread(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 1, got.ReplyCount)
	assert.Equal(t, []string{"r1"}, got.LatestReplyIDs)
	require.NotNil(t, got.LastMessageAt)
	assert.True(t, t0.Add(time.Minute).Equal(*got.LastMessageAt))

	require.NoError(t, s.IncrementThreadUnread(ctx, "p1", "me"))
	require.NoError(t, s.IncrementThreadUnread(ctx, "p1", "me"))
	tr, err := s.ThreadRead(ctx, "p1", "me")
	require.NoError(t, err)
	assert.Equal(t, 2, tr.UnreadReplies)

	require.NoError(t, s.MarkThreadRead(ctx, "p1", "me", t0.Add(time.Hour), "r1"))
	tr, err = s.ThreadRead(ctx, "p1", "me")
	require.NoError(t, err)
	assert.Zero(t, tr.UnreadReplies)

	n, err := s.DeleteThreadsInChannel(ctx, "messaging:general")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = s.Thread(ctx, "p3")
	require.NoError(t, err)
}

func TestInTx_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	boom := errors.New("boom")

	err := store.InTx(ctx, func(s DatabaseSession) error {
		require.NoError(t, s.SaveUser(ctx, &models.User{ID: "bob", Name: "Bob"}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	_, err = store.Reader().User(ctx, "bob")
	require.ErrorIs(t, err, pkg.ErrNotFound)
}

func TestInTx_LaterCallSeesEarlierWrite(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	err := store.InTx(ctx, func(s DatabaseSession) error {
		if err := s.SaveUser(ctx, &models.User{ID: "bob", Name: "Bob"}); err != nil {
			return err
		}
		u, err := s.User(ctx, "bob")
		if err != nil {
			return err
		}
		assert.Equal(t, "Bob", u.Name)
		return nil
	})
	require.NoError(t, err)
}

func TestMarkObserved(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)
	s := store.Reader()

	first, err := s.MarkObserved(ctx, "unread", "m1")
	require.NoError(t, err)
	assert.True(t, first)

	first, err = s.MarkObserved(ctx, "unread", "m1")
	require.NoError(t, err)
	assert.False(t, first)

	// Scopes are independent.
	first, err = s.MarkObserved(ctx, "thread", "m1")
	require.NoError(t, err)
	assert.True(t, first)

	// A rolled-back mark is gone.
	boom := errors.New("boom")
	err = store.InTx(ctx, func(tx DatabaseSession) error {
		first, err := tx.MarkObserved(ctx, "unread", "m2")
		require.NoError(t, err)
		require.True(t, first)
		return boom
	})
	require.ErrorIs(t, err, boom)

	first, err = s.MarkObserved(ctx, "unread", "m2")
	require.NoError(t, err)
	assert.True(t, first)
}
