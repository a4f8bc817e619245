package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/dploch/geofront/internal/api/handler"
	"github.com/dploch/geofront/internal/api/middleware"
	"github.com/dploch/geofront/internal/live"
	"github.com/dploch/geofront/internal/services/auth"
	"github.com/dploch/geofront/internal/services/game"
	"github.com/dploch/geofront/internal/transport"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger         *slog.Logger
	AuthService    *auth.Service
	GameController *game.Controller
	Registry       *live.Registry
	Hub            *transport.Hub
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	userHandler := handler.NewUserHandler(cfg.AuthService)
	gameHandler := handler.NewGameHandler(cfg.GameController)
	liveHandler := handler.NewLiveHandler(cfg.Registry)
	wsHandler := handler.NewWSHandler(cfg.Hub, cfg.AuthService, cfg.Logger)

	// Create middleware
	authMiddleware := middleware.Auth(cfg.AuthService)
	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := middleware.Recovery(cfg.Logger)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)

	// User routes (no auth required for creating users/logging in)
	api.HandleFunc("/users/guest", userHandler.CreateGuest).Methods(http.MethodPost)
	api.HandleFunc("/users/register", userHandler.Register).Methods(http.MethodPost)
	api.HandleFunc("/users/login", userHandler.Login).Methods(http.MethodPost)

	// Protected user routes
	userProtected := api.PathPrefix("/users").Subrouter()
	userProtected.Use(authMiddleware)
	userProtected.HandleFunc("/me", userHandler.GetMe).Methods(http.MethodGet)

	// Game routes (all require auth)
	games := api.PathPrefix("/games").Subrouter()
	games.Use(authMiddleware)
	games.HandleFunc("", gameHandler.Create).Methods(http.MethodPost)
	games.HandleFunc("", gameHandler.List).Methods(http.MethodGet)
	games.HandleFunc("/{id}", gameHandler.Get).Methods(http.MethodGet)
	games.HandleFunc("/{id}/start", gameHandler.Start).Methods(http.MethodPost)
	games.HandleFunc("/{id}/finish", gameHandler.Finish).Methods(http.MethodPost)
	games.HandleFunc("/{id}/join", gameHandler.Join).Methods(http.MethodPost)
	games.HandleFunc("/{id}/leave", gameHandler.Leave).Methods(http.MethodPost)
	games.HandleFunc("/{id}/factories", gameHandler.BuildFactory).Methods(http.MethodPost)

	// Live registry routes (all require auth)
	liveRoutes := api.PathPrefix("/live").Subrouter()
	liveRoutes.Use(authMiddleware)
	liveRoutes.HandleFunc("", liveHandler.List).Methods(http.MethodGet)
	liveRoutes.HandleFunc("/reload", liveHandler.Reload).Methods(http.MethodPost)
	liveRoutes.HandleFunc("/{id}", liveHandler.Unload).Methods(http.MethodDelete)

	// Health check endpoint (no auth)
	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	// Websocket endpoint; session extraction happens in the handler so
	// anonymous sockets can still connect
	r.HandleFunc("/ws", wsHandler.Connect).Methods(http.MethodGet)

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
