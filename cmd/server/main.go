package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mama165/sdk-go/logs"

	"github.com/chat-relay/backend/api/handlers"
	"github.com/chat-relay/backend/internal/config"
	"github.com/chat-relay/backend/internal/repository"
	"github.com/chat-relay/backend/internal/session"
	"github.com/chat-relay/backend/internal/ws"
)

const shutdownTimeout = 10 * time.Second

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run wires the store, the hub and the HTTP server, then blocks until the
// process is interrupted.
func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	log := logs.GetLoggerFromString(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// The server keeps running on an in-memory store when the configured
	// backend is unreachable.
	driver := cfg.StoreDriver
	degraded := false
	store, err := repository.Open(ctx, cfg.StoreOptions(), log)
	if err != nil {
		log.Error("Message store connection error, continuing in memory", "driver", driver, "error", err)
		store = repository.NewMemoryStore(cfg.MemoryCapacity)
		driver = repository.DriverMemory
		degraded = true
	}
	defer func() {
		log.Info("Closing message store...")
		if err := store.Close(); err != nil {
			log.Error("Failed to close message store", "error", err)
		}
	}()

	hub := ws.NewHub(log)
	chat := session.NewHandler(store, hub, log, session.Config{HistoryLimit: cfg.HistoryLimit})

	gin.SetMode(cfg.GinMode)
	router := handlers.NewRouter(handlers.RouterConfig{
		StaticDir: cfg.StaticDir,
		Transport: ws.NewHandler(ctx, chat, cfg.Origins(), log),
		Health:    handlers.NewHealthHandler(driver, degraded, hub),
	}, log)

	srv := &http.Server{
		Addr:              cfg.Address(),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("Server listening", "address", srv.Addr, "driver", driver, "degraded", degraded)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// Hijacked WebSocket connections are not tracked by Shutdown, so the hub
	// closes them explicitly.
	hub.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return nil
}
