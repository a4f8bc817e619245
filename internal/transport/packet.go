package transport

import (
	"encoding/json"

	"github.com/dploch/geofront/internal/model"
)

// PacketType identifies the kind of packet on the wire
type PacketType string

const (
	// Inbound
	PacketLocationUpdate PacketType = "LOCATION_UPDATE"

	// Outbound
	PacketGameLocations   PacketType = "GAME_LOCATIONS_UPDATE"
	PacketGameData        PacketType = "GAME_DATA"
	PacketMessageResponse PacketType = "MESSAGE_RESPONSE"
)

// Packet is the wire envelope for all websocket traffic
type Packet struct {
	Type    PacketType      `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// LocationUpdatePayload is the inbound position report
type LocationUpdatePayload struct {
	Game     model.GameID         `json:"game"`
	Location *model.RawCoordinate `json:"location"`
}

// UserLocation is one visible peer entry in a locations update
type UserLocation struct {
	User     model.UserID      `json:"user"`
	UserName string            `json:"userName"`
	Location *model.Coordinate `json:"location"` // nil when absent or decayed
}

// GameLocationsPayload is the per-viewer filtered location snapshot
type GameLocationsPayload struct {
	Game  model.GameID   `json:"game"`
	Users []UserLocation `json:"users"`
}

// FactoryData describes whether the recipient may build a factory and
// what it would cost
type FactoryData struct {
	CanBuild bool `json:"canBuild"`
	Cost     int  `json:"cost"`
}

// GameDataPayload is the per-user game state snapshot
type GameDataPayload struct {
	Game model.GameID `json:"game"`
	Data GameData     `json:"data"`
}

// GameData is the state portion of a GAME_DATA packet
type GameData struct {
	Stage   model.GameStage `json:"stage"`
	Factory *FactoryData    `json:"factory,omitempty"`
}

// MessageResponsePayload carries a user-visible status or error message
type MessageResponsePayload struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
	Dialog  bool   `json:"dialog"`
}

// Encode builds a wire packet from a type and payload
func Encode(t PacketType, payload any) ([]byte, error) {
	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		raw = data
	}
	return json.Marshal(Packet{Type: t, Payload: raw})
}
