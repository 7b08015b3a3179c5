// Package internal provides the main application initialization and runtime logic.
package internal

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

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/hollis/daybook/internal/api"
	"github.com/hollis/daybook/internal/clock"
	"github.com/hollis/daybook/internal/mcpserver"
	"github.com/hollis/daybook/internal/notes"
	"github.com/hollis/daybook/internal/notify"
	"github.com/hollis/daybook/internal/planner"
	"github.com/hollis/daybook/internal/prefs"
	"github.com/hollis/daybook/internal/reminder"
	"github.com/hollis/daybook/internal/sse"
	"github.com/hollis/daybook/internal/store"
	"github.com/hollis/daybook/internal/tasks"
)

type runtime struct {
	svc    *planner.Service
	broker *sse.Broker
	sched  *reminder.Scheduler
	store  *store.SQLite
}

func (rt *runtime) close() {
	rt.sched.Close()
	rt.broker.Close()
	_ = rt.store.Close()
}

// build wires the store, registries, scheduler and notifier, then runs
// startup reconciliation and (optionally) the first-run seed.
func build(cfg *Config, logger *slog.Logger) (*runtime, error) {
	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	p, err := prefs.Load(st)
	if err != nil {
		st.Close()
		return nil, fmt.Errorf("load preferences: %w", err)
	}

	clk := clock.System()
	broker := sse.NewBroker(2 * time.Second)

	var player notify.Player
	if cp := notify.NewCommandPlayer(cfg.Notifier.SoundCommand); cp != nil {
		player = cp
	}
	notifier := notify.New(broker, p, clk, player, logger)

	taskReg, err := tasks.Load(st, clk, notifier, logger, func() {
		broker.PublishStateChanged("tasks")
	})
	if err != nil {
		broker.Close()
		st.Close()
		return nil, err
	}

	noteReg, err := notes.Load(st, clk, logger, func() {
		broker.PublishStateChanged("notes")
	})
	if err != nil {
		broker.Close()
		st.Close()
		return nil, err
	}

	sched, err := reminder.Load(st, clk, taskReg, notifier, logger, func() {
		broker.PublishStateChanged("reminders")
	})
	if err != nil {
		broker.Close()
		st.Close()
		return nil, err
	}

	svc := planner.New(taskReg, noteReg, sched, p, notifier, logger)

	// Rebuild live timers from persisted records; past-due reminders
	// are purged, never fired late.
	sched.ReconcileOnStartup()

	if cfg.Planner.SeedExample {
		svc.SeedIfEmpty()
	}

	return &runtime{svc: svc, broker: broker, sched: sched, store: st}, nil
}

// Run starts the HTTP server with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return fmt.Errorf("config is required")
	}
	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("store_path", cfg.Store.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	rt, err := build(cfg, logger)
	if err != nil {
		return err
	}
	defer rt.close()

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints.
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes (including the SSE endpoint) under /api.
	r.Mount("/api", api.NewRouter(rt.svc, rt.broker))

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	g, gCtx := errgroup.WithContext(ctx)

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// RunMCP starts the MCP stdio server against the same state database.
func RunMCP(ctx context.Context, opts ...Option) error {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return fmt.Errorf("config is required")
	}
	cfg := app.config

	// Stdout carries the MCP transport; log to stderr.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	rt, err := build(cfg, logger)
	if err != nil {
		return err
	}
	defer rt.close()

	return mcpserver.New(rt.svc).ServeStdio()
}
