package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/bookhub/notification-service/internal/api"
	"github.com/bookhub/notification-service/internal/auth"
	"github.com/bookhub/notification-service/internal/bus"
	"github.com/bookhub/notification-service/internal/cache"
	"github.com/bookhub/notification-service/internal/config"
	"github.com/bookhub/notification-service/internal/consumer"
	"github.com/bookhub/notification-service/internal/db"
	"github.com/bookhub/notification-service/internal/metrics"
	"github.com/bookhub/notification-service/internal/repository"
	"github.com/bookhub/notification-service/internal/service"
	"github.com/bookhub/notification-service/internal/ws"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync() //nolint:errcheck

	// ---- configuration ----
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("failed to load config", zap.Error(err))
	}

	// ---- database ----
	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	if err := db.Migrate(cfg.DatabaseURL); err != nil {
		logger.Fatal("failed to run migrations", zap.Error(err))
	}
	logger.Info("database migrations applied")

	// ---- core dependencies ----
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	store := cache.NewRedisStore(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, logger)
	defer store.Close() //nolint:errcheck

	repo := repository.NewPgNotificationRepository(pool)

	onHit, onMiss, onInvalidate := m.CacheHooks()
	svc := service.NewNotificationService(repo, store, cfg.ListCacheTTL, cfg.CountCacheTTL,
		service.CacheHooks{OnHit: onHit, OnMiss: onMiss, OnInvalidate: onInvalidate}, logger)

	hub := ws.NewHub(logger,
		func() { m.WSConnections.Inc() },
		func() { m.WSConnections.Dec() },
	)

	var verifier auth.Verifier
	switch cfg.AuthMode {
	case config.AuthLocal:
		verifier = auth.NewLocalVerifier(cfg.JWTSecret)
	default:
		verifier = auth.NewRemoteVerifier(cfg.AuthServiceURL, cfg.AuthTimeout)
	}

	// ---- fan-out consumer ----
	// Context for all background goroutines; cancelled on shutdown signal.
	consumerCtx, cancelConsumer := context.WithCancel(ctx)
	defer cancelConsumer()

	onFanned, onFailed := m.ConsumerHooks()
	engine := consumer.NewEngine(svc, hub, cfg.FanoutRate, cfg.FanoutWorkers, consumer.MetricHooks{
		OnConsumed: func(t string) { m.EventsConsumed.WithLabelValues(t).Inc() },
		OnRejected: m.EventsRejected.Inc,
		OnRequeued: m.EventsRequeued.Inc,
		OnFanned:   onFanned,
		OnFailed:   onFailed,
	}, logger)

	busConsumer := bus.NewConsumer(cfg.RabbitURL, cfg.ReconnectInterval, engine.Handle, logger)
	consumerDone := make(chan struct{})
	go func() {
		defer close(consumerDone)
		busConsumer.Run(consumerCtx)
	}()

	// ---- HTTP server ----
	router := api.NewRouter(svc, hub, verifier, cfg.WSSendBuffer, reg, logger)
	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	// Start server in a goroutine so it does not block the shutdown listener.
	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	// ---- graceful shutdown ----
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutdown signal received")

	// 1. Stop accepting new HTTP requests and drain in-flight ones.
	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, cfg.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", zap.Error(err))
	}

	// 2. Signal the consumer to stop; an in-flight message is requeued.
	cancelConsumer()

	// 3. Wait for the consumer loop to return before closing connections.
	<-consumerDone

	logger.Info("server stopped cleanly")
}
