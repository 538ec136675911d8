// Package main is the entry point of the mqvi sync engine.
//
// Wire-up order:
//  1. Config
//  2. Database (embedded migrations)
//  3. Store
//  4. Current user
//  5. Sync service and middleware chain
//  6. Subscriber hub
//  7. Status server (CORS)
//  8. Upstream connection
//  9. Graceful shutdown
//
// No globals: everything is created here and passed down.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"

	"github.com/akinalp/mqvi-sync/config"
	"github.com/akinalp/mqvi-sync/database"
	"github.com/akinalp/mqvi-sync/pkg/token"
	"github.com/akinalp/mqvi-sync/ws"
)

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.Println("[main] mqvi sync starting...")

	// ─── 1. Config ───
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[main] failed to load config: %v", err)
	}

	userID := cfg.Upstream.UserID
	if userID == "" {
		if userID, err = token.UserID(cfg.Upstream.Token); err != nil {
			log.Fatalf("[main] failed to read user id from token: %v", err)
		}
	}
	log.Printf("[main] config loaded (user=%s, status=%s)", userID, cfg.Status.Addr())

	// ─── 2. Database ───
	db, err := database.New(cfg.Database.Path, database.Migrations())
	if err != nil {
		log.Fatalf("[main] failed to initialize database: %v", err)
	}
	defer db.Close()

	// ─── 3. Store ───
	store := initStore(db)

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// ─── 4-5. Sync ───
	engine := initSync(cfg.Sync, store)
	defer engine.Close()

	if err := engine.Service.EnsureCurrentUser(ctx, userID); err != nil {
		log.Fatalf("[main] failed to store current user: %v", err)
	}

	// ─── 6. Subscriber hub ───
	hub := ws.NewHub()
	go hub.Run()
	registerListeners(engine.Service, hub)

	go engine.Service.Run(ctx)

	// ─── 7. Status server ───
	h := initHandlers(engine.Service, hub, store, userID, cfg.Status.TokenCacheTTL)
	defer h.Close()
	mux := http.NewServeMux()
	initRoutes(mux, h)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.Status.CORSOrigins,
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
		Debug:            false,
	})

	srv := &http.Server{
		Addr:    cfg.Status.Addr(),
		Handler: corsHandler.Handler(mux),
		// No WriteTimeout: /ws connections are long-lived.
		ReadTimeout: 15 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	go func() {
		log.Printf("[main] status server listening on %s", cfg.Status.Addr())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("[main] status server error: %v", err)
		}
	}()

	// ─── 8. Upstream ───
	upstream := ws.NewUpstream(ws.UpstreamConfig{
		URL:    cfg.Upstream.URL,
		APIKey: cfg.Upstream.APIKey,
		Token:  cfg.Upstream.Token,
	}, engine.Service)

	go func() {
		if err := upstream.Connect(ctx); err != nil {
			log.Printf("[main] upstream connect failed: %v", err)
			stop()
			return
		}
		log.Println("[main] upstream connected")
		if err := upstream.Run(ctx); err != nil && ctx.Err() == nil {
			log.Printf("[main] upstream closed: %v", err)
			stop()
		}
	}()

	// ─── 9. Graceful shutdown ───
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	select {
	case <-done:
	case <-ctx.Done():
	}
	log.Println("[main] shutting down...")

	stop()
	_ = upstream.Close()
	hub.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[main] forced shutdown: %v", err)
	}

	log.Println("[main] stopped")
}
