package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/dploch/geofront/internal/api"
	"github.com/dploch/geofront/internal/factory"
	"github.com/dploch/geofront/internal/live"
	redisstorage "github.com/dploch/geofront/internal/storage/redis"
)

func main() {
	// Set up logging with JSON output
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Build factory config from environment
	cfg := factory.Config{
		Logger:      logger,
		StorageType: os.Getenv("STORAGE_TYPE"),
		LiveConfig:  liveConfigFromEnv(logger),
	}

	// Configure Redis if storage type is redis
	if cfg.StorageType == factory.StorageTypeRedis {
		redisURL := os.Getenv("REDIS_URL")
		if redisURL == "" {
			logger.Error("REDIS_URL required when STORAGE_TYPE=redis")
			os.Exit(1)
		}
		redisCfg := redisstorage.DefaultConfig()
		redisCfg.URL = redisURL
		cfg.RedisConfig = &redisCfg
	}

	// Create application factory
	app, err := factory.New(cfg)
	if err != nil {
		logger.Error("failed to create application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Load active games into the live registry before accepting traffic
	if err := app.Registry.Init(context.Background()); err != nil {
		logger.Error("failed to load live games", slog.String("error", err.Error()))
		os.Exit(1)
	}
	app.Scheduler.Start()

	// Create API router
	router := api.NewRouter(api.RouterConfig{
		Logger:         logger,
		AuthService:    app.AuthService,
		GameController: app.GameController,
		Registry:       app.Registry,
		Hub:            app.Hub,
	})

	// Create server
	serverConfig := api.DefaultServerConfig()
	server := api.NewServer(router, serverConfig, logger)

	// Handle graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		logger.Info("shutdown signal received")
		cancel()
	}()

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	logger.Info("server started", slog.String("addr", server.Addr()))

	// Wait for shutdown or error
	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	case <-ctx.Done():
		if err := server.Shutdown(context.Background()); err != nil {
			logger.Error("shutdown error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	// Stop the realtime runtime after the HTTP surface is down
	app.Scheduler.Stop()
	app.Hub.Shutdown()
	app.Registry.Shutdown()

	logger.Info("server stopped")
}

// liveConfigFromEnv reads the broadcast and decay settings, falling
// back to defaults for anything unset or unparseable
func liveConfigFromEnv(logger *slog.Logger) live.Config {
	cfg := live.DefaultConfig()
	if v := os.Getenv("BROADCAST_INTERVAL_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			cfg.BroadcastInterval = time.Duration(ms) * time.Millisecond
		} else {
			logger.Warn("ignoring invalid BROADCAST_INTERVAL_MS", slog.String("value", v))
		}
	}
	if v := os.Getenv("DECAY_WINDOW_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			cfg.DecayWindow = time.Duration(ms) * time.Millisecond
		} else {
			logger.Warn("ignoring invalid DECAY_WINDOW_MS", slog.String("value", v))
		}
	}
	return cfg
}
