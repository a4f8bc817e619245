// Package ingest implements the location-update protocol endpoint: it
// validates an inbound position report and applies it to the matching
// live user.
package ingest

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/dploch/geofront/internal/dependencies/clock"
	"github.com/dploch/geofront/internal/latch"
	"github.com/dploch/geofront/internal/live"
	"github.com/dploch/geofront/internal/model"
	"github.com/dploch/geofront/internal/storage"
	"github.com/dploch/geofront/internal/transport"
)

// lookupTimeout bounds the validation fan-out's store lookups
const lookupTimeout = 10 * time.Second

// Handler validates and applies inbound location updates
type Handler struct {
	storage  storage.Storage
	registry *live.Registry
	clock    clock.Clock
	logger   *slog.Logger
}

// New creates a location ingest handler
func New(store storage.Storage, registry *live.Registry, clk clock.Clock, logger *slog.Logger) *Handler {
	return &Handler{
		storage:  store,
		registry: registry,
		clock:    clk,
		logger:   logger.With(slog.String("component", "ingest")),
	}
}

// Register attaches the handler to the hub's packet dispatch
func (h *Handler) Register(hub *transport.Hub) {
	hub.Handle(transport.PacketLocationUpdate, h.HandleLocationUpdate)
}

// session is the slice of a socket the handler needs: identity and a
// way to deliver the single outcome notification
type session interface {
	UserID() model.UserID
	Authenticated() bool
	Send(t transport.PacketType, payload any)
}

// HandleLocationUpdate processes one inbound LOCATION_UPDATE packet
func (h *Handler) HandleLocationUpdate(pkt transport.Packet, sock *transport.Socket) {
	h.handle(pkt, sock)
}

// handle applies the received -> validated -> applied state machine.
// The outcome is exactly one live-user mutation or exactly one
// user-facing error notification, never both and never neither.
func (h *Handler) handle(pkt transport.Packet, sock session) {
	var payload transport.LocationUpdatePayload
	if err := json.Unmarshal(pkt.Payload, &payload); err != nil {
		h.reject(sock, "Malformed location update")
		return
	}
	if payload.Game == "" && payload.Location == nil {
		h.logger.Warn("malformed location packet",
			slog.String("user_id", string(sock.UserID())))
		h.reject(sock, "Malformed location update")
		return
	}

	if !sock.Authenticated() {
		h.reject(sock, "You are not signed in")
		return
	}
	userID := sock.UserID()

	if payload.Location == nil {
		h.reject(sock, "Malformed location update")
		return
	}
	coord, err := model.ParseCoordinate(*payload.Location)
	if err != nil {
		h.reject(sock, "Invalid location")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), lookupTimeout)
	defer cancel()

	if _, err := h.storage.GetGame(ctx, payload.Game); err != nil {
		h.reject(sock, "Unknown game")
		return
	}

	// Three validations fan out in parallel; the shared outcome
	// guarantees at most one of them reaches the user.
	l := latch.New()
	outcome := latch.NewOutcome()
	done := make(chan struct{})

	var liveGame *live.Game

	fail := func(err error, message string) {
		if outcome.Fail(err) {
			h.reject(sock, message)
		}
	}

	l.Add() // game stage
	l.Add() // caller role
	l.Add() // live game
	l.Then(func() { close(done) })

	go func() {
		defer l.Resolve()
		rec, err := h.storage.GetGame(ctx, payload.Game)
		if err != nil {
			fail(err, "Unknown game")
			return
		}
		if !rec.IsActive() {
			fail(model.ErrGameNotActive, "This game is not running")
		}
	}()

	go func() {
		defer l.Resolve()
		role, err := h.storage.GetGameRole(ctx, payload.Game, userID)
		if err != nil {
			fail(err, "Could not verify your role")
			return
		}
		if !role.CanReport() {
			fail(model.ErrCannotReport, "You cannot report locations in this game")
		}
	}()

	go func() {
		defer l.Resolve()
		g, err := h.registry.GetGame(ctx, payload.Game)
		if err != nil {
			fail(err, "Could not load the game")
			return
		}
		if g == nil {
			fail(model.ErrGameNotLive, "This game is not running")
			return
		}
		liveGame = g
	}()

	select {
	case <-done:
	case <-ctx.Done():
		fail(ctx.Err(), "Timed out validating your update")
		return
	}

	if outcome.Failed() {
		return
	}

	user, ok := liveGame.User(userID)
	if !ok {
		fail(model.ErrUserNotLive, "You are not connected to this game")
		return
	}

	user.UpdateLocation(coord, h.clock.Now())
}

// reject sends the single user-facing error for a failed update
func (h *Handler) reject(sock session, message string) {
	sock.Send(transport.PacketMessageResponse, transport.MessageResponsePayload{
		Error:   true,
		Message: message,
		Dialog:  true,
	})
}
