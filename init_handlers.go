package main

import (
	"time"

	"github.com/akinalp/mqvi-sync/handlers"
	"github.com/akinalp/mqvi-sync/pkg/ratelimit"
	"github.com/akinalp/mqvi-sync/pkg/token"
	"github.com/akinalp/mqvi-sync/repository"
	"github.com/akinalp/mqvi-sync/services"
	"github.com/akinalp/mqvi-sync/ws"
)

// Failed token attempts allowed per client IP and window.
const (
	authMaxAttempts = 10
	authWindow      = time.Minute
)

// Handlers holds every HTTP handler of the status server.
type Handlers struct {
	Status    *handlers.StatusHandler
	Auth      *handlers.AuthMiddleware
	WS        *ws.Handler
	limiter   *ratelimit.AttemptLimiter
	validator *token.Validator
}

func (h *Handlers) Close() {
	h.limiter.Close()
	h.validator.Close()
}

// initHandlers builds the handlers. Status reads go straight to the pool,
// outside any batch transaction.
func initHandlers(svc *services.SyncService, hub *ws.Hub, store *repository.Store, userID string, tokenCacheTTL time.Duration) *Handlers {
	validator := token.NewValidator(tokenCacheTTL)
	limiter := ratelimit.NewAttemptLimiter(authMaxAttempts, authWindow)

	return &Handlers{
		Status:    handlers.NewStatusHandler(svc, hub, store.Reader()),
		Auth:      handlers.NewAuthMiddleware(validator, userID, limiter),
		WS:        ws.NewHandler(hub, validator, userID),
		limiter:   limiter,
		validator: validator,
	}
}
