package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/assortclinic/clinic-mate/internal/agent"
	"github.com/assortclinic/clinic-mate/internal/api/handlers"
	"github.com/assortclinic/clinic-mate/internal/api/router"
	"github.com/assortclinic/clinic-mate/internal/booking"
	appconfig "github.com/assortclinic/clinic-mate/internal/config"
	"github.com/assortclinic/clinic-mate/internal/notify"
	"github.com/assortclinic/clinic-mate/internal/observability/metrics"
	"github.com/assortclinic/clinic-mate/internal/store"
	"github.com/assortclinic/clinic-mate/internal/summary"
	"github.com/assortclinic/clinic-mate/pkg/logging"
)

func main() {
	// Load .env if present; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting clinic-mate API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	ctx := context.Background()

	// Entity store: Postgres when configured, in-memory otherwise.
	var st store.Store
	if cfg.DatabaseURL != "" {
		pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
		if err != nil {
			logger.Error("failed to create database pool", "error", err)
			os.Exit(1)
		}
		defer pool.Close()
		if err := pool.Ping(ctx); err != nil {
			logger.Error("failed to reach database", "error", err)
			os.Exit(1)
		}
		st = store.NewPostgresStore(pool)
		logger.Info("using postgres store")
	} else {
		mem := store.NewMemoryStore()
		if err := store.Seed(ctx, mem, time.Now()); err != nil {
			logger.Error("failed to seed in-memory store", "error", err)
			os.Exit(1)
		}
		st = mem
		logger.Info("using seeded in-memory store")
	}

	// Conversation history: Redis when configured, in-process otherwise.
	history := agent.NewMemoryHistoryStore()
	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		defer func() { _ = client.Close() }()
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warn("redis unreachable, falling back to in-memory history", "error", err)
		} else {
			history = agent.NewRedisHistoryStore(client, cfg.HistoryTTL, nil)
			logger.Info("using redis history store", "addr", cfg.RedisAddr)
		}
	}

	var email notify.EmailSender
	if sender := notify.NewSendGridSender(notify.SendGridConfig{
		APIKey:    cfg.SendGridAPIKey,
		FromEmail: cfg.SendGridFromEmail,
		FromName:  cfg.SendGridFromName,
	}, logger); sender != nil {
		email = sender
	} else {
		logger.Warn("sendgrid not configured, emails will be logged only")
		email = notify.NewStubEmailSender(logger)
	}

	reg := prometheus.NewRegistry()
	callMetrics := metrics.NewCallMetrics(reg)

	engine := booking.NewEngine(st, logger, time.Local, cfg.AppointmentDurationMinutes)
	renderer := summary.New(cfg.ClinicName, cfg.ClinicLocation)
	notifier := notify.NewService(email, cfg.ClinicName, cfg.EmailRecipient, logger)

	registry := agent.NewRegistry(agent.Config{
		Store:    st,
		Engine:   engine,
		Renderer: renderer,
		Notifier: notifier,
		History:  history,
		Metrics:  callMetrics,
		Logger:   logger,
		Location: cfg.ClinicLocation,
	})

	r := router.New(&router.Config{
		Calls:          handlers.NewCallsHandler(registry, logger),
		Catalog:        handlers.NewCatalogHandler(st, engine, logger),
		MetricsHandler: promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("forced shutdown", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}
