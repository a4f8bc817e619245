package transport

import (
	"log/slog"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/dploch/geofront/internal/model"
)

// Handler processes one inbound packet from a socket
type Handler func(pkt Packet, sock *Socket)

// DisconnectFunc is notified when a user's last socket goes away
type DisconnectFunc func(userID model.UserID)

// Hub multiplexes websocket connections. It tracks sockets, indexes them
// by user, groups users into per-game rooms, and dispatches inbound
// packets to handlers registered by packet type.
type Hub struct {
	logger *slog.Logger

	mu      sync.RWMutex
	sockets map[*Socket]bool
	byUser  map[model.UserID]map[*Socket]bool
	rooms   map[model.GameID]map[model.UserID]bool

	handlerMu    sync.RWMutex
	handlers     map[PacketType]Handler
	onDisconnect DisconnectFunc
}

// NewHub creates an empty hub
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		logger:   logger.With(slog.String("component", "transport")),
		sockets:  make(map[*Socket]bool),
		byUser:   make(map[model.UserID]map[*Socket]bool),
		rooms:    make(map[model.GameID]map[model.UserID]bool),
		handlers: make(map[PacketType]Handler),
	}
}

// Handle registers the handler for a packet type, replacing any previous one
func (h *Hub) Handle(t PacketType, handler Handler) {
	h.handlerMu.Lock()
	defer h.handlerMu.Unlock()
	h.handlers[t] = handler
}

// OnDisconnect registers the callback invoked when a user fully disconnects
func (h *Hub) OnDisconnect(fn DisconnectFunc) {
	h.handlerMu.Lock()
	defer h.handlerMu.Unlock()
	h.onDisconnect = fn
}

// Register adds a socket to the hub
func (h *Hub) Register(s *Socket) {
	h.mu.Lock()
	h.sockets[s] = true
	if s.userID != "" {
		if h.byUser[s.userID] == nil {
			h.byUser[s.userID] = make(map[*Socket]bool)
		}
		h.byUser[s.userID][s] = true
	}
	total := len(h.sockets)
	h.mu.Unlock()

	h.logger.Info("socket registered",
		slog.String("user_id", string(s.userID)),
		slog.Int("total_sockets", total))
}

// Unregister removes a socket and fires the disconnect callback when it
// was the user's last one
func (h *Hub) Unregister(s *Socket) {
	h.mu.Lock()
	if !h.sockets[s] {
		h.mu.Unlock()
		return
	}
	delete(h.sockets, s)
	s.close()

	lastForUser := false
	if s.userID != "" {
		if set := h.byUser[s.userID]; set != nil {
			delete(set, s)
			if len(set) == 0 {
				delete(h.byUser, s.userID)
				lastForUser = true
			}
		}
	}
	total := len(h.sockets)
	h.mu.Unlock()

	h.logger.Info("socket unregistered",
		slog.String("user_id", string(s.userID)),
		slog.Int("total_sockets", total))

	if lastForUser {
		h.handlerMu.RLock()
		fn := h.onDisconnect
		h.handlerMu.RUnlock()
		if fn != nil {
			fn(s.userID)
		}
	}
}

// JoinRoom adds a user to a game's room
func (h *Hub) JoinRoom(gameID model.GameID, userID model.UserID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rooms[gameID] == nil {
		h.rooms[gameID] = make(map[model.UserID]bool)
	}
	h.rooms[gameID][userID] = true
}

// LeaveRoom removes a user from a game's room
func (h *Hub) LeaveRoom(gameID model.GameID, userID model.UserID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if set := h.rooms[gameID]; set != nil {
		delete(set, userID)
		if len(set) == 0 {
			delete(h.rooms, gameID)
		}
	}
}

// CloseRoom drops a game's room entirely
func (h *Hub) CloseRoom(gameID model.GameID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.rooms, gameID)
}

// SendToUser sends a packet to every socket the user has open
func (h *Hub) SendToUser(t PacketType, payload any, userID model.UserID) {
	h.mu.RLock()
	targets := make([]*Socket, 0, len(h.byUser[userID]))
	for s := range h.byUser[userID] {
		targets = append(targets, s)
	}
	h.mu.RUnlock()

	for _, s := range targets {
		s.Send(t, payload)
	}
}

// SendToGame sends a packet to every member of a game's room
func (h *Hub) SendToGame(t PacketType, payload any, gameID model.GameID) {
	h.mu.RLock()
	members := make([]model.UserID, 0, len(h.rooms[gameID]))
	for userID := range h.rooms[gameID] {
		members = append(members, userID)
	}
	h.mu.RUnlock()

	for _, userID := range members {
		h.SendToUser(t, payload, userID)
	}
}

// ConnectedUsers returns the users currently holding at least one socket
func (h *Hub) ConnectedUsers() []model.UserID {
	h.mu.RLock()
	defer h.mu.RUnlock()
	users := make([]model.UserID, 0, len(h.byUser))
	for userID := range h.byUser {
		users = append(users, userID)
	}
	return users
}

// IsConnected reports whether the user has any socket open
func (h *Hub) IsConnected(userID model.UserID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.byUser[userID]) > 0
}

// Serve binds an upgraded websocket connection to the hub and starts
// its read and write pumps. The user is whatever the upgrade handler
// authenticated, or empty for anonymous sockets.
func (h *Hub) Serve(conn *websocket.Conn, userID model.UserID) *Socket {
	s := newSocket(conn, userID, h.logger)
	h.Register(s)
	go s.writePump()
	go s.readPump(h)
	return s
}

// dispatch routes an inbound packet to its registered handler
func (h *Hub) dispatch(pkt Packet, sock *Socket) {
	h.handlerMu.RLock()
	handler := h.handlers[pkt.Type]
	h.handlerMu.RUnlock()

	if handler == nil {
		h.logger.Warn("no handler for packet type",
			slog.String("type", string(pkt.Type)),
			slog.String("user_id", string(sock.userID)))
		return
	}
	handler(pkt, sock)
}

// Shutdown closes every socket
func (h *Hub) Shutdown() {
	h.mu.Lock()
	sockets := make([]*Socket, 0, len(h.sockets))
	for s := range h.sockets {
		sockets = append(sockets, s)
	}
	h.mu.Unlock()

	for _, s := range sockets {
		h.Unregister(s)
	}
}
