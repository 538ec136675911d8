// Package handlers serves the local status API of the sync engine.
package handlers

import (
	"net/http"

	"github.com/akinalp/mqvi-sync/models"
	"github.com/akinalp/mqvi-sync/pkg"
	"github.com/akinalp/mqvi-sync/repository"
	"github.com/akinalp/mqvi-sync/services"
)

// StatsSource is the part of SyncService the handler reads.
type StatsSource interface {
	Stats() services.Stats
}

// SubscriberCounter is the part of ws.Hub the handler reads.
type SubscriberCounter interface {
	Len() int
}

type StatusResponse struct {
	UserID            string                   `json:"user_id"`
	Sync              services.Stats           `json:"sync"`
	Subscribers       int                      `json:"subscribers"`
	PendingDeliveries []models.PendingDelivery `json:"pending_deliveries"`
}

type ChannelResponse struct {
	Channel   *models.Channel     `json:"channel"`
	Read      *models.ChannelRead `json:"read,omitempty"`
	TypingIDs []string            `json:"typing_user_ids"`
	Watchers  []string            `json:"watcher_ids"`
}

type StatusHandler struct {
	stats       StatsSource
	subscribers SubscriberCounter
	reader      repository.DatabaseSession
}

func NewStatusHandler(stats StatsSource, subscribers SubscriberCounter, reader repository.DatabaseSession) *StatusHandler {
	return &StatusHandler{stats: stats, subscribers: subscribers, reader: reader}
}

// Health answers GET /api/health.
func (h *StatusHandler) Health(w http.ResponseWriter, r *http.Request) {
	pkg.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Status answers GET /api/status with the sync counters and the deliveries
// still waiting for a receipt.
func (h *StatusHandler) Status(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	me, err := h.reader.CurrentUser(ctx)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	pending, err := h.reader.PendingDeliveries(ctx)
	if err != nil {
		pkg.ErrorWithMessage(w, http.StatusInternalServerError, "failed to load pending deliveries")
		return
	}
	if pending == nil {
		pending = []models.PendingDelivery{}
	}

	pkg.JSON(w, http.StatusOK, StatusResponse{
		UserID:            me.UserID,
		Sync:              h.stats.Stats(),
		Subscribers:       h.subscribers.Len(),
		PendingDeliveries: pending,
	})
}

// Channel answers GET /api/channels/{cid} with the local snapshot of one
// channel: the row, the current user's read cursor and the live sets.
func (h *StatusHandler) Channel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cid := r.PathValue("cid")

	ch, err := h.reader.Channel(ctx, cid)
	if err != nil {
		pkg.Error(w, err)
		return
	}

	resp := ChannelResponse{Channel: ch}

	if me, err := h.reader.CurrentUser(ctx); err == nil {
		if rd, err := h.reader.ChannelRead(ctx, cid, me.UserID); err == nil {
			resp.Read = rd
		}
	}
	if resp.TypingIDs, err = h.reader.TypingUserIDs(ctx, cid); err != nil {
		pkg.Error(w, err)
		return
	}
	if resp.Watchers, err = h.reader.WatcherIDs(ctx, cid); err != nil {
		pkg.Error(w, err)
		return
	}

	pkg.JSON(w, http.StatusOK, resp)
}
