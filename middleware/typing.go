package middleware

import (
	"context"
	"time"

	"github.com/akinalp/mqvi-sync/events"
	"github.com/akinalp/mqvi-sync/pkg/timer"
	"github.com/akinalp/mqvi-sync/repository"
)

// ─── Typing timeout ───

// TypingTimeout expires typing indicators the server never stopped.
//
// Every typing event from another user cancels that user's pending timer. A
// typing.start then arms a new one; when it fires, a CleanupTyping event is
// emitted back into the sync queue. The callback never touches the store.
//
// Thread typing (ParentID set) is ignored here as it is in TypingState: it
// never enters the channel set, so it must not arm or cancel the clock that
// clears it. Timers are keyed by user id only, so one user typing in two
// channels shares a single clock and only the most recent channel gets
// cleaned up.
type TypingTimeout struct {
	timers  *timer.Registry
	timeout time.Duration
	emit    func(events.Event)
	now     func() time.Time
}

// NewTypingTimeout wires the registry and the emit callback (usually
// SyncService.Emit).
func NewTypingTimeout(timers *timer.Registry, timeout time.Duration, emit func(events.Event)) *TypingTimeout {
	return &TypingTimeout{
		timers:  timers,
		timeout: timeout,
		emit:    emit,
		now:     time.Now,
	}
}

func (t *TypingTimeout) Handle(ctx context.Context, ev events.Event, s repository.DatabaseSession) events.Event {
	var cid, userID string
	var start bool

	switch e := ev.(type) {
	case *events.TypingStart:
		if e.ParentID != "" {
			return ev
		}
		cid, userID, start = e.CID, e.UserID, true
	case *events.TypingStop:
		if e.ParentID != "" {
			return ev
		}
		cid, userID = e.CID, e.UserID
	default:
		return ev
	}

	me, err := currentUserID(ctx, s)
	if err != nil {
		logFailure("typing_timeout", ev, err)
		return ev
	}
	if userID == "" || userID == me {
		return ev
	}

	t.timers.Cancel(userID)
	if start {
		t.timers.Arm(userID, t.timeout, func() {
			t.emit(&events.CleanupTyping{CID: cid, UserID: userID, CreatedAt: t.now()})
		})
	}
	return ev
}

// ─── Typing state ───

// TypingState maintains each channel's live typing set. The current user and
// thread typing (ParentID set) never enter the channel set.
type TypingState struct{}

func NewTypingState() *TypingState {
	return &TypingState{}
}

func (t *TypingState) Handle(ctx context.Context, ev events.Event, s repository.DatabaseSession) events.Event {
	var err error

	switch e := ev.(type) {
	case *events.TypingStart:
		if e.ParentID != "" {
			return ev
		}
		var me string
		if me, err = currentUserID(ctx, s); err == nil && e.UserID != me {
			err = s.AddTypingUser(ctx, e.CID, e.UserID, e.CreatedAt)
		}
	case *events.TypingStop:
		if e.ParentID != "" {
			return ev
		}
		err = s.RemoveTypingUser(ctx, e.CID, e.UserID)
	case *events.CleanupTyping:
		err = s.RemoveTypingUser(ctx, e.CID, e.UserID)
	default:
		return ev
	}

	if err != nil {
		logFailure("typing_state", ev, err)
	}
	return ev
}
