package factory

import (
	"errors"
	"io"
	"log/slog"

	"github.com/dploch/geofront/internal/dependencies/clock"
	"github.com/dploch/geofront/internal/dependencies/random"
	"github.com/dploch/geofront/internal/live"
	"github.com/dploch/geofront/internal/services/auth"
	"github.com/dploch/geofront/internal/services/game"
	"github.com/dploch/geofront/internal/services/ingest"
	"github.com/dploch/geofront/internal/storage"
	"github.com/dploch/geofront/internal/storage/memory"
	redisstorage "github.com/dploch/geofront/internal/storage/redis"
	"github.com/dploch/geofront/internal/transport"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Realtime runtime
	Hub       *transport.Hub
	Registry  *live.Registry
	Scheduler *live.Scheduler

	// Services
	AuthService    *auth.Service
	GameController *game.Controller
	IngestHandler  *ingest.Handler
}

// Config holds configuration for the application factory
type Config struct {
	// AuthConfig holds configuration for the auth service (optional)
	// If zero value, defaults to auth.DefaultConfig()
	AuthConfig auth.Config
	// LiveConfig holds broadcast interval and decay window (optional)
	// If zero value, defaults to live.DefaultConfig()
	LiveConfig live.Config
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	// Create storage based on type
	var store storage.Storage
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}

	// Create external dependencies
	clk := clock.New()
	rnd := random.New()

	// Use default configs if not provided
	authCfg := cfg.AuthConfig
	if authCfg.SessionDuration == 0 {
		authCfg = auth.DefaultConfig()
	}
	liveCfg := cfg.LiveConfig
	if liveCfg.BroadcastInterval == 0 || liveCfg.DecayWindow == 0 {
		defaults := live.DefaultConfig()
		if liveCfg.BroadcastInterval == 0 {
			liveCfg.BroadcastInterval = defaults.BroadcastInterval
		}
		if liveCfg.DecayWindow == 0 {
			liveCfg.DecayWindow = defaults.DecayWindow
		}
	}

	return newWithDependencies(store, clk, rnd, authCfg, liveCfg, logger), nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(
	store storage.Storage,
	clk clock.Clock,
	rnd random.Random,
	authCfg auth.Config,
	liveCfg live.Config,
	logger *slog.Logger,
) *App {
	hub := transport.NewHub(logger)
	registry := live.NewRegistry(store, hub, hub, clk, liveCfg, logger)
	scheduler := live.NewScheduler(registry, store, hub, clk, liveCfg, logger)
	authService := auth.New(store, clk, authCfg)
	gameController := game.NewController(store, registry, clk, rnd)
	ingestHandler := ingest.New(store, registry, clk, logger)

	// Inbound packets and disconnects flow from the hub into the live
	// runtime
	ingestHandler.Register(hub)
	hub.OnDisconnect(registry.DropUser)

	return &App{
		Storage:        store,
		Clock:          clk,
		Random:         rnd,
		Hub:            hub,
		Registry:       registry,
		Scheduler:      scheduler,
		AuthService:    authService,
		GameController: gameController,
		IngestHandler:  ingestHandler,
	}
}
