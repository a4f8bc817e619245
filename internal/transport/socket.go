package transport

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dploch/geofront/internal/model"
)

const (
	sendBufferSize = 64
	writeDeadline  = 5 * time.Second
	readDeadline   = 60 * time.Second
	maxMessageSize = 1 << 16
)

// Socket wraps one websocket connection. A socket may carry an
// authenticated user or be anonymous; the user is bound at upgrade time
// and never changes afterwards.
type Socket struct {
	conn   *websocket.Conn
	userID model.UserID
	logger *slog.Logger

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

func newSocket(conn *websocket.Conn, userID model.UserID, logger *slog.Logger) *Socket {
	return &Socket{
		conn:   conn,
		send:   make(chan []byte, sendBufferSize),
		userID: userID,
		logger: logger,
	}
}

// UserID returns the authenticated user bound to this socket, or the
// empty id for anonymous connections
func (s *Socket) UserID() model.UserID {
	return s.userID
}

// Authenticated reports whether this socket carries a valid session
func (s *Socket) Authenticated() bool {
	return s.userID != ""
}

// Send encodes and enqueues a packet. Delivery is best-effort: if the
// socket's buffer is full the packet is dropped rather than blocking
// the caller, and a packet sent to a closed socket is dropped outright.
// Enqueue and close hold the socket's own mutex, so a concurrent
// unregister can never close the queue out from under a send.
func (s *Socket) Send(t PacketType, payload any) {
	data, err := Encode(t, payload)
	if err != nil {
		s.logger.Error("packet encode failed",
			slog.String("type", string(t)),
			slog.String("error", err.Error()))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	select {
	case s.send <- data:
	default:
		s.logger.Warn("packet dropped - socket buffer full",
			slog.String("type", string(t)),
			slog.String("user_id", string(s.userID)))
	}
}

// close shuts the send queue exactly once; later Sends become no-ops
func (s *Socket) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	close(s.send)
}

// writePump drains the send queue onto the connection
func (s *Socket) writePump() {
	defer s.conn.Close()
	for msg := range s.send {
		_ = s.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
		if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

// readPump decodes inbound envelopes and dispatches them through the hub
func (s *Socket) readPump(h *Hub) {
	defer func() {
		s.conn.Close()
		h.Unregister(s)
	}()

	s.conn.SetReadLimit(maxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(readDeadline))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(readDeadline))
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			return
		}

		var pkt Packet
		if err := json.Unmarshal(data, &pkt); err != nil {
			s.logger.Warn("dropping undecodable packet",
				slog.String("user_id", string(s.userID)))
			continue
		}
		h.dispatch(pkt, s)
	}
}
