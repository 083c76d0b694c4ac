package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/medilink-health/medilink-web/internal/assistant"
	"github.com/medilink-health/medilink-web/internal/backend"
	"github.com/medilink-health/medilink-web/internal/config"
	"github.com/medilink-health/medilink-web/internal/content"
	"github.com/medilink-health/medilink-web/internal/export"
	"github.com/medilink-health/medilink-web/internal/web"
)

func main() {
	cfg := config.Load()
	level, _ := cfg.SlogLevel()
	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	if err := cfg.Validate(); err != nil {
		log.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize clients.
	client := backend.NewClient(cfg.BackendURL, cfg.RequestTimeout)

	views := assistant.NewStore(client, cfg.RequestTimeout, cfg.ViewTTL, log)
	go views.Run(ctx, cfg.ViewTTL/4)

	catalogue, err := content.Load()
	if err != nil {
		log.Error("failed to load site content", "error", err)
		os.Exit(1)
	}

	// Initialize HTTP server.
	srv, err := web.NewServer(views, client, client.Stats, export.NewExporter(log), catalogue, log, cfg)
	if err != nil {
		log.Error("failed to build server", "error", err)
		os.Exit(1)
	}

	httpServer := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: srv,
		// Uploads are at most 10 MB; intake waits up to RequestTimeout.
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Info("shutting down...")

		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		httpServer.Shutdown(shutdownCtx)

		client.Close()
	}()

	log.Info("starting medilink-web", "port", cfg.Port, "backend_url", cfg.BackendURL)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("server error", "error", err)
		os.Exit(1)
	}
}
