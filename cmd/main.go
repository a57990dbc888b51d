// cmd/main.go is the application entry point.
// It wires together all layers and starts the HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Shivanand-hulikatti/event-checkin/internal/config"
	"github.com/Shivanand-hulikatti/event-checkin/internal/database"
	"github.com/Shivanand-hulikatti/event-checkin/internal/handler"
	"github.com/Shivanand-hulikatti/event-checkin/internal/notify"
	"github.com/Shivanand-hulikatti/event-checkin/internal/repository"
	"github.com/Shivanand-hulikatti/event-checkin/internal/service"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	// ── 1. Configuration and logging ─────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.Level})))

	// ── 2. Open the entrant store ────────────────────────────────────────
	store, err := openStore(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer store.Close()
	slog.Info("connected to database", "driver", cfg.Database.Driver)

	// ── 3. Wire up layers ────────────────────────────────────────────────
	var mailer service.MailSender
	if cfg.SMTP.Configured() {
		mailer = notify.NewMailer(cfg.SMTP)
	}
	var webhook service.WebhookPoster
	if cfg.TeamsWebhookURL != "" {
		webhook = notify.NewTeamsClient(cfg.TeamsWebhookURL, nil)
	}

	router := handler.NewRouter(handler.Routes{
		Store:   store,
		Roster:  handler.NewRosterHandler(service.NewRosterService(store), cfg.UploadMaxBytes),
		Checkin: handler.NewCheckinHandler(service.NewCheckinService(store)),
		Admin:   handler.NewAdminHandler(service.NewAdminService(store)),
		Notify: handler.NewNotifyHandler(
			service.NewNotifyService(store, cfg.EventName, cfg.SMTP.Sender(), mailer, webhook),
		),
		WebDir: cfg.WebDir,
	})

	// ── 4. Start server with graceful shutdown ───────────────────────────
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute, // email dispatch runs inside the request
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", "http://localhost:"+cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-quit:
	}

	slog.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	slog.Info("server stopped")
	return nil
}

func openStore(ctx context.Context, cfg database.Config) (repository.Store, error) {
	switch cfg.Driver {
	case database.DriverSQLite:
		db, err := database.OpenSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return repository.NewSQLiteStore(db), nil
	default:
		pool, err := database.NewPool(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return repository.NewPostgresStore(pool), nil
	}
}
