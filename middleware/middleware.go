// Package middleware turns incoming events into store mutations.
//
// Every unit implements Middleware: it looks at the concrete event type,
// optionally mutates entities through the session, and returns the event to
// continue the chain or nil to stop it. All units of one batch share a
// single session (one transaction), so a later middleware sees what an
// earlier one wrote.
//
// Failure policy: the local store is a best-effort cache over an
// authoritative event stream. A middleware whose store call fails logs the
// error with its own prefix and forwards the event unchanged. It never
// returns an error and never drops the event because of a store problem.
package middleware

import (
	"context"
	"log"

	"github.com/akinalp/mqvi-sync/events"
	"github.com/akinalp/mqvi-sync/repository"
)

// Middleware handles one event against one session.
type Middleware interface {
	Handle(ctx context.Context, ev events.Event, session repository.DatabaseSession) events.Event
}

// Func adapts a plain function to Middleware.
type Func func(ctx context.Context, ev events.Event, session repository.DatabaseSession) events.Event

func (f Func) Handle(ctx context.Context, ev events.Event, session repository.DatabaseSession) events.Event {
	return f(ctx, ev, session)
}

// Chain runs middlewares in the order given.
type Chain struct {
	middlewares []Middleware
}

func NewChain(middlewares ...Middleware) *Chain {
	return &Chain{middlewares: middlewares}
}

// Process threads ev through every middleware. The first nil result stops
// the chain and is returned; otherwise the last middleware's result is.
func (c *Chain) Process(ctx context.Context, ev events.Event, session repository.DatabaseSession) events.Event {
	for _, mw := range c.middlewares {
		if ev == nil {
			return nil
		}
		ev = mw.Handle(ctx, ev, session)
	}
	return ev
}

// Len is the number of middlewares in the chain.
func (c *Chain) Len() int {
	return len(c.middlewares)
}

func logFailure(component string, ev events.Event, err error) {
	log.Printf("[middleware/%s] %s: %v", component, ev.EventType(), err)
}
