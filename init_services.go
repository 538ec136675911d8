package main

import (
	"github.com/akinalp/mqvi-sync/config"
	"github.com/akinalp/mqvi-sync/events"
	"github.com/akinalp/mqvi-sync/middleware"
	"github.com/akinalp/mqvi-sync/pkg/timer"
	"github.com/akinalp/mqvi-sync/services"
)

// syncEngine groups the sync service with the process-local state its
// middlewares own.
type syncEngine struct {
	Service *services.SyncService
	Timers  *timer.Registry
}

func (e *syncEngine) Close() {
	e.Timers.Stop()
}

// initSync builds the default chain and the service that runs it.
//
// The typing timeout needs Emit before the service exists, so it gets a
// closure over svc that is assigned right after.
func initSync(cfg config.SyncConfig, store services.Transactor) *syncEngine {
	timers := timer.NewRegistry()

	var svc *services.SyncService
	chain := middleware.NewChain(middleware.Default(middleware.Deps{
		Timers:        timers,
		TypingTimeout: cfg.TypingTimeout,
		Emit:          func(ev events.Event) { svc.Emit(ev) },
	})...)
	svc = services.NewSyncService(store, chain, cfg.QueueSize)

	return &syncEngine{Service: svc, Timers: timers}
}
