package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/dploch/geofront/internal/model"
	"github.com/dploch/geofront/internal/services/auth"
	"github.com/dploch/geofront/internal/transport"
)

// WSHandler upgrades HTTP requests to websocket connections and binds
// them to the hub
type WSHandler struct {
	hub         *transport.Hub
	authService *auth.Service
	upgrader    websocket.Upgrader
	logger      *slog.Logger
}

// NewWSHandler creates the websocket upgrade handler
func NewWSHandler(hub *transport.Hub, authService *auth.Service, logger *slog.Logger) *WSHandler {
	return &WSHandler{
		hub:         hub,
		authService: authService,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		logger: logger.With(slog.String("component", "ws")),
	}
}

// Connect handles GET /ws. Sockets without a valid session are still
// accepted; they carry no user and fail the handlers' auth checks.
func (h *WSHandler) Connect(w http.ResponseWriter, r *http.Request) {
	var userID model.UserID
	if token := wsToken(r); token != "" {
		session, err := h.authService.ValidateSession(token)
		if err == nil {
			userID = session.UserID
		} else {
			h.logger.Warn("ws session rejected", slog.String("error", err.Error()))
		}
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response
		h.logger.Warn("ws upgrade failed", slog.String("error", err.Error()))
		return
	}

	h.hub.Serve(conn, userID)
}

// wsToken extracts the session token from the upgrade request. Browser
// websocket clients cannot set headers, so a query parameter is
// accepted as well.
func wsToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	if token := r.URL.Query().Get("token"); token != "" {
		return token
	}
	cookie, err := r.Cookie("session")
	if err == nil {
		return cookie.Value
	}
	return ""
}
