package middleware

import (
	"time"

	"github.com/akinalp/mqvi-sync/events"
	"github.com/akinalp/mqvi-sync/pkg/timer"
)

// Deps are the process-local collaborators of the default chain.
type Deps struct {
	Timers        *timer.Registry
	TypingTimeout time.Duration
	// Emit feeds synthetic events back into the sync queue.
	Emit func(events.Event)
}

// Default returns the middlewares in the order the sync engine runs them.
// EventDataProcessor must stay first: everything after it assumes the
// payload entities exist.
func Default(deps Deps) []Middleware {
	return []Middleware{
		NewEventDataProcessor(),
		NewTypingTimeout(deps.Timers, deps.TypingTimeout, deps.Emit),
		NewChannelReadUpdater(),
		NewChannelDelivery(),
		NewTypingState(),
		NewMemberEvents(),
		NewUserChannelBan(),
		NewUserWatching(),
		NewChannelVisibility(),
		NewChannelTruncated(),
		NewMessageVisibility(),
		NewReactions(),
		NewThreadUpdater(),
		NewDrafts(),
		NewReminders(),
	}
}
