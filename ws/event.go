// Package ws is the sync engine's websocket layer.
//
// Upstream is the connection to the chat server: it reads event frames,
// decodes them (Decode) and submits one batch per frame to the sync queue.
//
// Hub fans the events each batch forwarded out to local subscribers (UI
// processes, debugging tools) connected through Handler. Subscribers only
// receive; anything they send except pings is ignored.
package ws

import (
	"time"

	"github.com/akinalp/mqvi-sync/events"
)

// Op is the kind of an Envelope sent to subscribers.
type Op string

const (
	// OpEvent carries one forwarded event.
	OpEvent Op = "event"
	// OpBatch closes a batch; subscribers may refresh their queries on it.
	OpBatch Op = "batch"
)

// Envelope is what a subscriber receives. Seq increases by one for every
// envelope the hub sends, so a subscriber can detect a dropped frame.
type Envelope struct {
	Op        Op          `json:"op"`
	Seq       int64       `json:"seq"`
	BatchID   string      `json:"batch_id"`
	Type      events.Type `json:"type,omitempty"`
	CID       string      `json:"cid,omitempty"`
	CreatedAt *time.Time  `json:"created_at,omitempty"`
	Count     int         `json:"count,omitempty"`
}

func eventEnvelope(batchID string, ev events.Event) Envelope {
	env := Envelope{Op: OpEvent, BatchID: batchID, Type: ev.EventType()}
	if ce, ok := ev.(events.ChannelEvent); ok {
		env.CID = ce.ChannelID()
	}
	if unknown, ok := ev.(*events.Unknown); ok {
		env.CID = unknown.CID
	}
	if at := ev.EventTime(); !at.IsZero() {
		env.CreatedAt = &at
	}
	return env
}
