package main

import (
	"context"
	"os"
	"time"

	"github.com/pr-poehali-dev/messenger-design-project/config"
	"github.com/pr-poehali-dev/messenger-design-project/internal/handler"
	"github.com/pr-poehali-dev/messenger-design-project/internal/observability"
	"github.com/pr-poehali-dev/messenger-design-project/internal/redis"
	"github.com/pr-poehali-dev/messenger-design-project/internal/repository"
	"github.com/pr-poehali-dev/messenger-design-project/internal/server"
	"github.com/pr-poehali-dev/messenger-design-project/internal/services"
	"github.com/pr-poehali-dev/messenger-design-project/pkg/database"
	"github.com/pr-poehali-dev/messenger-design-project/pkg/logger"

	"go.uber.org/zap"
)

func main() {
	cfg := config.LoadConfig()

	mode := logger.DevelopmentMode
	if cfg.AppMode == server.ReleaseMode {
		mode = logger.ProductionMode
	}
	l := logger.New(mode)
	logger.SetGlobalLogger(l)

	err := run(cfg, l)
	l.Sync()
	if err != nil {
		os.Exit(1)
	}
}

// run returns instead of exiting so deferred cleanups always execute.
func run(cfg *config.Config, l *logger.Logger) error {
	db, err := database.Connect(cfg)
	if err != nil {
		l.Errorf("Failed to connect to database: %v", err)
		return err
	}
	defer database.Close(db)

	if cfg.AutoMigrate {
		res, err := database.MigrateUp(db)
		if err != nil {
			l.Errorf("Failed to apply migrations: %v", err)
			return err
		}
		l.Logger.Info("schema ready", zap.Uint("version", res.Version), zap.Bool("changed", res.Changed))
	}

	checks := map[string]server.HealthCheck{
		"database": func(ctx context.Context) error { return database.HealthCheck(ctx, db) },
	}

	// Presence stays nil unless redis is enabled and reachable.
	var presence services.PresenceTracker
	if cfg.RedisEnabled {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		client, err := redis.Connect(ctx, redis.ConfigFrom(cfg))
		cancel()
		if err != nil {
			l.Warnf("Redis unavailable, presence disabled: %v", err)
		} else {
			defer client.Close()
			presenceStore := redis.NewPresenceStore(client, time.Duration(cfg.PresenceTTLMin)*time.Minute)
			observability.RegisterOnlineUsers(presenceStore.OnlineGauge(2 * time.Second))
			presence = presenceStore
			checks["redis"] = func(ctx context.Context) error { return redis.Ping(ctx, client) }
			l.Infof("Connected to Redis at %s:%s", cfg.RedisHost, cfg.RedisPort)
		}
	}

	store := repository.NewStore(db)
	handlers := &server.Handlers{
		Auth:     handler.NewAuthHandler(services.NewAuthService(store, cfg, presence, l)),
		Chats:    handler.NewChatHandler(services.NewChatService(store)),
		Messages: handler.NewMessageHandler(services.NewMessageService(store)),
	}

	srv := server.New(cfg, l)
	srv.SetupRoutes(handlers, checks)
	if err := srv.Start(); err != nil {
		l.Errorf("Server stopped with error: %v", err)
		return err
	}
	return nil
}
