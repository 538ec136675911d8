package main

import (
	"log"

	"github.com/akinalp/mqvi-sync/events"
	"github.com/akinalp/mqvi-sync/services"
	"github.com/akinalp/mqvi-sync/ws"
)

// registerListeners attaches the post-commit consumers of forwarded events:
// the subscriber hub and a log line for event types no middleware knows.
func registerListeners(svc *services.SyncService, hub *ws.Hub) {
	svc.AddListener(hub)

	svc.AddListener(services.ListenerFunc(func(batchID string, forwarded []events.Event) {
		for _, ev := range forwarded {
			if unknown, ok := ev.(*events.Unknown); ok {
				log.Printf("[sync] batch %s: unhandled event type %q (cid=%s)", batchID, unknown.WireType, unknown.CID)
			}
		}
	}))
}
