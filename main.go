package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/themainkeys/wingman.app-sub000/config"
	"github.com/themainkeys/wingman.app-sub000/internal/cart"
	"github.com/themainkeys/wingman.app-sub000/internal/consumer"
	"github.com/themainkeys/wingman.app-sub000/internal/repository"
	"github.com/themainkeys/wingman.app-sub000/internal/server"
	"github.com/themainkeys/wingman.app-sub000/internal/service"
	"github.com/themainkeys/wingman.app-sub000/pkg/cache"
	"github.com/themainkeys/wingman.app-sub000/pkg/database"
	"github.com/themainkeys/wingman.app-sub000/pkg/rabbitmq"
)

func main() {
	cfg := config.Load()

	log := newLogger(cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgresDB(cfg.DSN())
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	// Repositories
	catalogRepo := repository.NewCatalogRepository(db)
	userRepo := repository.NewUserRepository(db)
	sessionRepo := repository.NewSessionRepository(db)

	// Session store, optionally cached in Redis
	var store cart.Store = sessionRepo
	if cfg.RedisURL != "" {
		rdb, err := cache.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatal("failed to connect to Redis", zap.Error(err))
		}
		defer rdb.Close()
		store = cache.NewSessionCache(sessionRepo, rdb, cfg.RedisTTL, log)
	}

	// RabbitMQ publisher: booking and guestlist events
	publisher, err := rabbitmq.NewPublisher(cfg.RabbitURL, log)
	if err != nil {
		log.Fatal("failed to connect to RabbitMQ", zap.Error(err))
	}
	defer publisher.Close()

	// RabbitMQ consumer: catalog sync
	mqConsumer, err := rabbitmq.NewConsumer(cfg.RabbitURL, log)
	if err != nil {
		log.Fatal("failed to connect to RabbitMQ", zap.Error(err))
	}
	defer mqConsumer.Close()

	msgs, err := mqConsumer.Consume()
	if err != nil {
		log.Fatal("failed to start consuming", zap.Error(err))
	}
	consumer.NewCatalogConsumer(catalogRepo, log).Start(ctx, msgs)

	// Services
	svcs := service.New(service.Deps{
		Store:         store,
		Sessions:      sessionRepo,
		Catalog:       catalogRepo,
		Users:         userRepo,
		Reservations:  repository.NewReservationRepository(db),
		Guestlists:    repository.NewGuestlistRepository(db),
		Cancellations: repository.NewCancellationRepository(db),
		Publisher:     publisher,
		Log:           log,
	})

	e := server.NewRouter(svcs, userRepo, log)

	go func() {
		log.Info("service starting", zap.String("service", server.ServiceName), zap.String("port", cfg.ServerPort))
		if err := e.Start(":" + cfg.ServerPort); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server stopped", zap.Error(err))
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown failed", zap.Error(err))
	}
}

func newLogger(level string) *zap.Logger {
	cfg := zap.NewProductionConfig()
	if lvl, err := zapcore.ParseLevel(level); err == nil {
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}
	log, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return log
}
