package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"coursehub/internal/auth"
	"coursehub/internal/config"
	"coursehub/internal/events"
	"coursehub/internal/hub"
	"coursehub/internal/logging"
	"coursehub/internal/middleware"
	"coursehub/internal/notify"
	"coursehub/internal/server"
	"coursehub/internal/store"
)

func main() {
	// .env is optional; real deployments set the environment directly
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Fatalf("load .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.Development())
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	gin.SetMode(cfg.GinMode)

	repo, closeRepo, err := openRepository(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeRepo()

	registry := hub.New(logger.Named("hub"))
	dispatcher := notify.New(repo, registry, logger.Named("notify"))

	tokenCfg := auth.DefaultTokenConfig(cfg.JWTSecret)
	tokenCfg.Expiry = cfg.TokenExpiry

	if cfg.NATSURL != "" {
		nc, err := events.Connect(cfg.NATSURL)
		if err != nil {
			return fmt.Errorf("connect nats: %w", err)
		}
		sub := events.NewSubscriber(nc, dispatcher, logger.Named("events"))
		if err := sub.Start(cfg.NATSSubject); err != nil {
			nc.Close()
			return err
		}
		defer sub.Close()
	}

	emitLimiter := middleware.NewRateLimiter(cfg.EmitRateLimit, time.Minute)
	defer emitLimiter.Stop()

	router := server.NewRouter(server.Deps{
		Dispatcher:  dispatcher,
		Registry:    registry,
		Decoder:     auth.NewDecoder(tokenCfg),
		Logger:      logger,
		SendBuffer:  cfg.WSSendBuffer,
		EmitLimiter: emitLimiter,
	})

	return server.Run(ctx, cfg, router, logger, registry.Shutdown)
}

func openRepository(ctx context.Context, cfg config.Config, logger *zap.Logger) (notify.Repository, func(), error) {
	if cfg.DatabaseURL != "" {
		pool, err := store.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		pg := store.NewPostgres(pool)
		if err := pg.EnsureSchema(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		logger.Info("using postgres notification store")
		return pg, pool.Close, nil
	}

	mem, err := store.NewMemoryWithOptions(store.Options{
		StateFile: cfg.NotificationsStateFile,
		Logger:    logger.Named("store"),
	})
	if err != nil {
		return nil, nil, err
	}
	logger.Info("using in-memory notification store", zap.String("state_file", cfg.NotificationsStateFile))
	return mem, func() {}, nil
}
