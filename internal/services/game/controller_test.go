package game

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/dploch/geofront/internal/dependencies/mocks"
	"github.com/dploch/geofront/internal/live"
	"github.com/dploch/geofront/internal/model"
	"github.com/dploch/geofront/internal/storage/memory"
	"github.com/dploch/geofront/internal/testutil"
	"github.com/dploch/geofront/internal/transport"
)

type sentPacket struct {
	Type    transport.PacketType
	Payload any
	User    model.UserID
}

type recordingTransport struct {
	mu    sync.Mutex
	sends []sentPacket
}

func (t *recordingTransport) SendToUser(pt transport.PacketType, payload any, userID model.UserID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sends = append(t.sends, sentPacket{Type: pt, Payload: payload, User: userID})
}

func (t *recordingTransport) SendToGame(transport.PacketType, any, model.GameID) {}
func (t *recordingTransport) JoinRoom(model.GameID, model.UserID)                {}
func (t *recordingTransport) LeaveRoom(model.GameID, model.UserID)               {}
func (t *recordingTransport) CloseRoom(model.GameID)                             {}

func (t *recordingTransport) packetsFor(userID model.UserID, pt transport.PacketType) []sentPacket {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []sentPacket
	for _, p := range t.sends {
		if p.User == userID && p.Type == pt {
			out = append(out, p)
		}
	}
	return out
}

func (t *recordingTransport) reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sends = nil
}

type staticPresence []model.UserID

func (p staticPresence) ConnectedUsers() []model.UserID { return p }

func (p staticPresence) IsConnected(userID model.UserID) bool {
	for _, u := range p {
		if u == userID {
			return true
		}
	}
	return false
}

type ControllerSuite struct {
	suite.Suite

	ctx        context.Context
	storage    *memory.Storage
	clock      *mocks.MockClock
	random     *mocks.MockRandom
	trans      *recordingTransport
	registry   *live.Registry
	controller *Controller
}

func TestControllerSuite(t *testing.T) {
	suite.Run(t, new(ControllerSuite))
}

func (s *ControllerSuite) SetupTest() {
	s.ctx = context.Background()
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	s.random = mocks.NewMockRandom()
	logger := testutil.NopLogger()
	s.trans = &recordingTransport{}
	s.registry = live.NewRegistry(
		s.storage,
		s.trans,
		staticPresence{"creator", "player-1"},
		s.clock,
		live.DefaultConfig(),
		logger,
	)
	s.controller = NewController(s.storage, s.registry, s.clock, s.random)

	s.Require().NoError(s.storage.SaveUser(s.ctx, &model.User{ID: "creator", DisplayName: "Creator"}))
	s.Require().NoError(s.storage.SaveUser(s.ctx, &model.User{ID: "player-1", DisplayName: "Player One"}))
}

func (s *ControllerSuite) createGame() *model.Game {
	s.random.QueueString("testgame")
	game, err := s.controller.CreateGame(s.ctx, "Test Game", "creator")
	s.Require().NoError(err)
	return game
}

func (s *ControllerSuite) TestCreateGame() {
	game := s.createGame()

	s.Require().Equal(model.GameID("g_testgame"), game.ID)
	s.Require().Equal(model.GameStagePending, game.Stage)
	s.Require().True(game.RoleFor("creator").IsSpecial)

	stored, err := s.storage.GetGame(s.ctx, game.ID)
	s.Require().NoError(err)
	s.Require().Equal("Test Game", stored.Name)
}

func (s *ControllerSuite) TestCreateGameRetriesOnIDCollision() {
	s.random.QueueString("taken", "taken", "free")
	first, err := s.controller.CreateGame(s.ctx, "First", "creator")
	s.Require().NoError(err)
	s.Require().Equal(model.GameID("g_taken"), first.ID)

	second, err := s.controller.CreateGame(s.ctx, "Second", "creator")
	s.Require().NoError(err)
	s.Require().Equal(model.GameID("g_free"), second.ID)
}

func (s *ControllerSuite) TestStartGameLoadsLive() {
	game := s.createGame()

	started, err := s.controller.StartGame(s.ctx, game.ID)
	s.Require().NoError(err)
	s.Require().Equal(model.GameStageActive, started.Stage)

	games := s.registry.Games()
	s.Require().Len(games, 1)
	s.Require().True(games[0].Is(game.ID))
}

func (s *ControllerSuite) TestStartGameRejectsNonPending() {
	game := s.createGame()
	_, err := s.controller.StartGame(s.ctx, game.ID)
	s.Require().NoError(err)

	_, err = s.controller.StartGame(s.ctx, game.ID)
	s.Require().ErrorIs(err, model.ErrStageConflict)
}

func (s *ControllerSuite) TestFinishGameUnloads() {
	game := s.createGame()
	_, err := s.controller.StartGame(s.ctx, game.ID)
	s.Require().NoError(err)

	finished, err := s.controller.FinishGame(s.ctx, game.ID)
	s.Require().NoError(err)
	s.Require().Equal(model.GameStageFinished, finished.Stage)
	s.Require().Empty(s.registry.Games())
}

func (s *ControllerSuite) TestFinishGameRejectsNonActive() {
	game := s.createGame()

	_, err := s.controller.FinishGame(s.ctx, game.ID)
	s.Require().ErrorIs(err, model.ErrStageConflict)
}

func (s *ControllerSuite) TestJoinGameAssignsRole() {
	game := s.createGame()
	role := model.Role{IsPlayer: true, Team: "red"}

	s.Require().NoError(s.controller.JoinGame(s.ctx, game.ID, "player-1", role))

	got, err := s.storage.GetGameRole(s.ctx, game.ID, "player-1")
	s.Require().NoError(err)
	s.Require().Equal(role, got)
}

func (s *ControllerSuite) TestJoinGameAppliesToLiveGame() {
	game := s.createGame()
	_, err := s.controller.StartGame(s.ctx, game.ID)
	s.Require().NoError(err)

	role := model.Role{IsPlayer: true, Team: "red"}
	s.Require().NoError(s.controller.JoinGame(s.ctx, game.ID, "player-1", role))

	g, err := s.registry.GetGame(s.ctx, game.ID)
	s.Require().NoError(err)
	u, ok := g.User("player-1")
	s.Require().True(ok)
	s.Require().Equal(model.TeamID("red"), u.Role().Team)
}

func (s *ControllerSuite) TestJoinGameRejectsFinished() {
	game := s.createGame()
	_, err := s.controller.StartGame(s.ctx, game.ID)
	s.Require().NoError(err)
	_, err = s.controller.FinishGame(s.ctx, game.ID)
	s.Require().NoError(err)

	err = s.controller.JoinGame(s.ctx, game.ID, "player-1", model.Role{IsPlayer: true, Team: "red"})
	s.Require().ErrorIs(err, model.ErrStageConflict)
}

func (s *ControllerSuite) TestJoinGameRejectsUnknownUser() {
	game := s.createGame()

	err := s.controller.JoinGame(s.ctx, game.ID, "nobody", model.Role{IsPlayer: true, Team: "red"})
	s.Require().ErrorIs(err, model.ErrUserNotFound)
}

func (s *ControllerSuite) TestLeaveGameRemovesRole() {
	game := s.createGame()
	_, err := s.controller.StartGame(s.ctx, game.ID)
	s.Require().NoError(err)
	s.Require().NoError(s.controller.JoinGame(s.ctx, game.ID, "player-1", model.Role{IsPlayer: true, Team: "red"}))

	s.Require().NoError(s.controller.LeaveGame(s.ctx, game.ID, "player-1"))

	got, err := s.storage.GetGameRole(s.ctx, game.ID, "player-1")
	s.Require().NoError(err)
	s.Require().True(got.IsNone())

	g, err := s.registry.GetGame(s.ctx, game.ID)
	s.Require().NoError(err)
	_, ok := g.User("player-1")
	s.Require().False(ok)
}

func (s *ControllerSuite) TestLeaveGameRejectsNonMember() {
	game := s.createGame()

	err := s.controller.LeaveGame(s.ctx, game.ID, "player-1")
	s.Require().ErrorIs(err, model.ErrNotInGame)
}

func (s *ControllerSuite) TestListGamesFiltersByStage() {
	first := s.createGame()
	s.random.QueueString("other")
	_, err := s.controller.CreateGame(s.ctx, "Other", "creator")
	s.Require().NoError(err)
	_, err = s.controller.StartGame(s.ctx, first.ID)
	s.Require().NoError(err)

	active, err := s.controller.ListGames(s.ctx, model.GameStageActive)
	s.Require().NoError(err)
	s.Require().Len(active, 1)
	s.Require().Equal(first.ID, active[0].ID)

	pending, err := s.controller.ListGames(s.ctx, model.GameStagePending)
	s.Require().NoError(err)
	s.Require().Len(pending, 1)
}

func (s *ControllerSuite) TestListGamesRejectsUnknownStage() {
	_, err := s.controller.ListGames(s.ctx, "bogus")
	s.Require().ErrorIs(err, model.ErrInvalidStage)
}

func (s *ControllerSuite) TestBuildFactory() {
	game := s.createGame()
	_, err := s.controller.StartGame(s.ctx, game.ID)
	s.Require().NoError(err)
	s.Require().NoError(s.controller.JoinGame(s.ctx, game.ID, "player-1", model.Role{IsPlayer: true, Team: "red"}))

	built, err := s.controller.BuildFactory(s.ctx, game.ID, "player-1")
	s.Require().NoError(err)
	s.Require().Equal(1, built.FactoryCount("red"))

	// One factory per connected team player
	_, err = s.controller.BuildFactory(s.ctx, game.ID, "player-1")
	s.Require().ErrorIs(err, model.ErrCannotBuild)
}

func (s *ControllerSuite) TestBuildFactoryRequiresActiveGame() {
	game := s.createGame()

	_, err := s.controller.BuildFactory(s.ctx, game.ID, "creator")
	s.Require().ErrorIs(err, model.ErrGameNotActive)
}

// lastGameData returns the most recent state snapshot sent to a user
func (s *ControllerSuite) lastGameData(userID model.UserID) transport.GameDataPayload {
	packets := s.trans.packetsFor(userID, transport.PacketGameData)
	s.Require().NotEmpty(packets)
	payload, ok := packets[len(packets)-1].Payload.(transport.GameDataPayload)
	s.Require().True(ok)
	return payload
}

func (s *ControllerSuite) TestStartGameSendsSnapshots() {
	game := s.createGame()

	_, err := s.controller.StartGame(s.ctx, game.ID)
	s.Require().NoError(err)

	data := s.lastGameData("creator")
	s.Require().Equal(game.ID, data.Game)
	s.Require().Equal(model.GameStageActive, data.Data.Stage)
	s.Require().Nil(data.Data.Factory, "special units get no factory data")
}

func (s *ControllerSuite) TestJoinGameSendsSnapshots() {
	game := s.createGame()
	_, err := s.controller.StartGame(s.ctx, game.ID)
	s.Require().NoError(err)
	s.trans.reset()

	s.Require().NoError(s.controller.JoinGame(s.ctx, game.ID, "player-1", model.Role{IsPlayer: true, Team: "red"}))

	joined := s.lastGameData("player-1")
	s.Require().NotNil(joined.Data.Factory)
	s.Require().True(joined.Data.Factory.CanBuild)
	s.Require().Equal(100, joined.Data.Factory.Cost)

	s.Require().NotEmpty(s.trans.packetsFor("creator", transport.PacketGameData),
		"users already in the game get refreshed too")
}

func (s *ControllerSuite) TestJoinPendingGameSendsNothing() {
	game := s.createGame()
	s.trans.reset()

	s.Require().NoError(s.controller.JoinGame(s.ctx, game.ID, "player-1", model.Role{IsPlayer: true, Team: "red"}))

	s.Require().Empty(s.trans.packetsFor("player-1", transport.PacketGameData))
}

func (s *ControllerSuite) TestLeaveGameSendsSnapshots() {
	game := s.createGame()
	_, err := s.controller.StartGame(s.ctx, game.ID)
	s.Require().NoError(err)
	s.Require().NoError(s.controller.JoinGame(s.ctx, game.ID, "player-1", model.Role{IsPlayer: true, Team: "red"}))
	s.trans.reset()

	s.Require().NoError(s.controller.LeaveGame(s.ctx, game.ID, "player-1"))

	s.Require().NotEmpty(s.trans.packetsFor("creator", transport.PacketGameData))
	s.Require().Empty(s.trans.packetsFor("player-1", transport.PacketGameData))
}

func (s *ControllerSuite) TestBuildFactorySendsUpdatedSnapshot() {
	game := s.createGame()
	_, err := s.controller.StartGame(s.ctx, game.ID)
	s.Require().NoError(err)
	s.Require().NoError(s.controller.JoinGame(s.ctx, game.ID, "player-1", model.Role{IsPlayer: true, Team: "red"}))
	s.trans.reset()

	_, err = s.controller.BuildFactory(s.ctx, game.ID, "player-1")
	s.Require().NoError(err)

	data := s.lastGameData("player-1")
	s.Require().NotNil(data.Data.Factory)
	s.Require().False(data.Data.Factory.CanBuild)
	s.Require().Equal(200, data.Data.Factory.Cost)
}
