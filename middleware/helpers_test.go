package middleware

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/akinalp/mqvi-sync/database"
	"github.com/akinalp/mqvi-sync/events"
	"github.com/akinalp/mqvi-sync/models"
	"github.com/akinalp/mqvi-sync/pkg/timer"
	"github.com/akinalp/mqvi-sync/repository"
)

const (
	testCID = "messaging:general"
	meID    = "me"
)

var t0 = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// harness is the default chain over a fresh SQLite store with "me" as the
// current user and testCID stored.
type harness struct {
	ctx     context.Context
	store   *repository.Store
	session repository.DatabaseSession
	chain   *Chain
	timers  *timer.Registry

	mu      sync.Mutex
	emitted []events.Event
}

func newHarness(t *testing.T) *harness {
	return newHarnessWithTimeout(t, time.Minute)
}

func newHarnessWithTimeout(t *testing.T, typingTimeout time.Duration) *harness {
	t.Helper()

	db, err := database.New(filepath.Join(t.TempDir(), "sync.db"), database.Migrations())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	timers := timer.NewRegistry()
	t.Cleanup(timers.Stop)

	store := repository.NewStore(db.Conn)
	h := &harness{
		ctx:     context.Background(),
		store:   store,
		session: store.Reader(),
		timers:  timers,
	}
	h.chain = h.newChain(typingTimeout)

	require.NoError(t, h.session.SaveCurrentUser(h.ctx, &models.CurrentUser{UserID: meID, DeliveryReceiptsEnabled: true}))
	require.NoError(t, h.session.SaveChannel(h.ctx, &models.Channel{
		CID: testCID, Type: "messaging", ID: "general", IsMember: true, CreatedAt: t0.Add(-time.Hour),
	}))
	return h
}

// newChain builds a default chain over the harness state, as a restarted
// process would.
func (h *harness) newChain(typingTimeout time.Duration) *Chain {
	return NewChain(Default(Deps{
		Timers:        h.timers,
		TypingTimeout: typingTimeout,
		Emit:          h.emit,
	})...)
}

func (h *harness) emit(ev events.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.emitted = append(h.emitted, ev)
}

func (h *harness) emittedEvents() []events.Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]events.Event(nil), h.emitted...)
}

// process runs every event through the chain and fails on a dropped one.
func (h *harness) process(t *testing.T, evs ...events.Event) {
	t.Helper()
	for _, ev := range evs {
		require.Same(t, ev, h.chain.Process(h.ctx, ev, h.session))
	}
}

func (h *harness) channel(t *testing.T) *models.Channel {
	t.Helper()
	ch, err := h.session.Channel(h.ctx, testCID)
	require.NoError(t, err)
	return ch
}

func (h *harness) myRead(t *testing.T) *models.ChannelRead {
	t.Helper()
	rd, err := h.session.ChannelRead(h.ctx, testCID, meID)
	require.NoError(t, err)
	return rd
}

func newMessage(id, userID string, at time.Time) models.Message {
	return models.Message{
		ID:        id,
		CID:       testCID,
		UserID:    userID,
		Text:      "hello",
		Type:      models.MessageTypeRegular,
		CreatedAt: at,
		UpdatedAt: at,
	}
}

func messageNew(id, userID string, at time.Time) *events.MessageNew {
	return &events.MessageNew{
		CID:       testCID,
		Message:   newMessage(id, userID, at),
		User:      &models.User{ID: userID, Name: userID},
		CreatedAt: at,
	}
}
