package main

import "net/http"

// initRoutes registers the status endpoints. Everything is read-only; all
// but the health check need the user's bearer token.
func initRoutes(mux *http.ServeMux, h *Handlers) {
	auth := func(handler http.HandlerFunc) http.Handler {
		return h.Auth.Require(handler)
	}

	mux.HandleFunc("GET /api/health", h.Status.Health)
	mux.Handle("GET /api/status", auth(h.Status.Status))
	mux.Handle("GET /api/channels/{cid}", auth(h.Status.Channel))

	// Browsers cannot set headers on a websocket upgrade, so the token
	// travels as ?token=.
	mux.HandleFunc("GET /ws", h.WS.HandleConnection)
}
