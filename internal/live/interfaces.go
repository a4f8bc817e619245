package live

import (
	"time"

	"github.com/dploch/geofront/internal/model"
	"github.com/dploch/geofront/internal/transport"
)

// Sender is the outbound slice of the realtime transport
type Sender interface {
	SendToUser(t transport.PacketType, payload any, userID model.UserID)
	SendToGame(t transport.PacketType, payload any, gameID model.GameID)
}

// Rooms manages per-game delivery groups on the transport
type Rooms interface {
	JoinRoom(gameID model.GameID, userID model.UserID)
	LeaveRoom(gameID model.GameID, userID model.UserID)
	CloseRoom(gameID model.GameID)
}

// Transport is everything the live runtime needs from the realtime layer
type Transport interface {
	Sender
	Rooms
}

// Presence reports which users currently hold a connection
type Presence interface {
	ConnectedUsers() []model.UserID
	IsConnected(userID model.UserID) bool
}

// PacketSink receives typed packets addressed to a single connection;
// *transport.Socket implements it
type PacketSink interface {
	Send(t transport.PacketType, payload any)
}

// Config holds the live runtime's tunables
type Config struct {
	// BroadcastInterval is how often location snapshots go out
	BroadcastInterval time.Duration
	// DecayWindow is how long a reported location stays visible
	DecayWindow time.Duration
}

// DefaultConfig returns sensible defaults for the live runtime
func DefaultConfig() Config {
	return Config{
		BroadcastInterval: 5 * time.Second,
		DecayWindow:       60 * time.Second,
	}
}
