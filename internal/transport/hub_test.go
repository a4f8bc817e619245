package transport

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/dploch/geofront/internal/model"
	"github.com/dploch/geofront/internal/testutil"
)

type HubSuite struct {
	suite.Suite
	hub *Hub
}

func TestHubSuite(t *testing.T) {
	suite.Run(t, new(HubSuite))
}

func (s *HubSuite) SetupTest() {
	s.hub = NewHub(testutil.NopLogger())
}

// socket returns a registered socket with no pumps running, so sent
// packets accumulate in its buffer for inspection
func (s *HubSuite) socket(userID model.UserID) *Socket {
	sock := newSocket(nil, userID, testutil.NopLogger())
	s.hub.Register(sock)
	return sock
}

func (s *HubSuite) drain(sock *Socket) []Packet {
	var packets []Packet
	for {
		select {
		case data := <-sock.send:
			var pkt Packet
			s.Require().NoError(json.Unmarshal(data, &pkt))
			packets = append(packets, pkt)
		default:
			return packets
		}
	}
}

func (s *HubSuite) TestSendToUserReachesAllSockets() {
	a1 := s.socket("alice")
	a2 := s.socket("alice")
	b := s.socket("bob")

	s.hub.SendToUser(PacketMessageResponse, MessageResponsePayload{Message: "hi"}, "alice")

	s.Len(s.drain(a1), 1)
	s.Len(s.drain(a2), 1)
	s.Empty(s.drain(b))
}

func (s *HubSuite) TestSendToUserWithNoSocketsIsNoop() {
	s.NotPanics(func() {
		s.hub.SendToUser(PacketMessageResponse, nil, "ghost")
	})
}

func (s *HubSuite) TestSendToGameReachesRoomMembers() {
	a := s.socket("alice")
	b := s.socket("bob")
	c := s.socket("carol")

	s.hub.JoinRoom("game-1", "alice")
	s.hub.JoinRoom("game-1", "bob")

	s.hub.SendToGame(PacketGameData, GameDataPayload{Game: "game-1"}, "game-1")

	s.Len(s.drain(a), 1)
	s.Len(s.drain(b), 1)
	s.Empty(s.drain(c))
}

func (s *HubSuite) TestLeaveRoomStopsDelivery() {
	a := s.socket("alice")
	s.hub.JoinRoom("game-1", "alice")
	s.hub.LeaveRoom("game-1", "alice")

	s.hub.SendToGame(PacketGameData, nil, "game-1")
	s.Empty(s.drain(a))
}

func (s *HubSuite) TestDispatchRoutesByType() {
	var got Packet
	s.hub.Handle(PacketLocationUpdate, func(pkt Packet, sock *Socket) {
		got = pkt
	})

	sock := s.socket("alice")
	s.hub.dispatch(Packet{Type: PacketLocationUpdate}, sock)
	s.Equal(PacketLocationUpdate, got.Type)
}

func (s *HubSuite) TestUnhandledTypeIsDropped() {
	sock := s.socket("alice")
	s.NotPanics(func() {
		s.hub.dispatch(Packet{Type: "UNKNOWN"}, sock)
	})
}

func (s *HubSuite) TestDisconnectFiresOnLastSocket() {
	var gone []model.UserID
	s.hub.OnDisconnect(func(userID model.UserID) {
		gone = append(gone, userID)
	})

	a1 := s.socket("alice")
	a2 := s.socket("alice")

	s.hub.Unregister(a1)
	s.Empty(gone, "callback must wait for the last socket")
	s.True(s.hub.IsConnected("alice"))

	s.hub.Unregister(a2)
	s.Equal([]model.UserID{"alice"}, gone)
	s.False(s.hub.IsConnected("alice"))
}

func (s *HubSuite) TestUnregisterIsIdempotent() {
	a := s.socket("alice")
	s.hub.Unregister(a)
	s.NotPanics(func() { s.hub.Unregister(a) })
}

func (s *HubSuite) TestConnectedUsers() {
	s.socket("alice")
	s.socket("bob")
	s.socket("")

	users := s.hub.ConnectedUsers()
	s.ElementsMatch([]model.UserID{"alice", "bob"}, users)
}

func (s *HubSuite) TestSendAfterUnregisterIsDropped() {
	sock := s.socket("alice")
	s.hub.Unregister(sock)

	s.NotPanics(func() {
		sock.Send(PacketMessageResponse, MessageResponsePayload{Message: "late"})
		s.hub.SendToUser(PacketMessageResponse, MessageResponsePayload{Message: "late"}, "alice")
	})
}

func (s *HubSuite) TestConcurrentSendAndUnregister() {
	// A broadcast that snapshots its targets before a disconnect lands
	// must drop the packet, never crash the sender
	for i := 0; i < 200; i++ {
		sock := s.socket("alice")

		start := make(chan struct{})
		done := make(chan struct{}, 2)
		go func() {
			<-start
			s.hub.SendToUser(PacketGameData, GameDataPayload{Game: "game-1"}, "alice")
			done <- struct{}{}
		}()
		go func() {
			<-start
			s.hub.Unregister(sock)
			done <- struct{}{}
		}()

		close(start)
		<-done
		<-done
	}
}

func (s *HubSuite) TestSendDropsWhenBufferFull() {
	sock := s.socket("alice")
	for i := 0; i < sendBufferSize+10; i++ {
		sock.Send(PacketMessageResponse, MessageResponsePayload{Message: "spam"})
	}
	s.Len(s.drain(sock), sendBufferSize)
}
