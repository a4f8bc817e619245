package live

import (
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/dploch/geofront/internal/model"
)

type GameSuite struct {
	suite.Suite

	game *Game
}

func TestGameSuite(t *testing.T) {
	suite.Run(t, new(GameSuite))
}

func (s *GameSuite) SetupTest() {
	s.game = NewGame("game-1", model.GameStageActive)
}

func (s *GameSuite) TestAddUserIsIdempotent() {
	first := s.game.AddUser("user-1", model.Role{IsPlayer: true, Team: "red"})
	again := s.game.AddUser("user-1", model.Role{IsPlayer: true, Team: "blue"})

	s.Require().Same(first, again)
	s.Require().Equal(1, s.game.UserCount())
	s.Require().Equal(model.TeamID("blue"), again.Role().Team)
}

func (s *GameSuite) TestRemoveUser() {
	s.game.AddUser("user-1", model.Role{IsPlayer: true, Team: "red"})
	s.game.RemoveUser("user-1")

	_, ok := s.game.User("user-1")
	s.Require().False(ok)
	s.Require().Equal(0, s.game.UserCount())
}

func (s *GameSuite) TestFactoryCostGrowsWithCount() {
	s.Require().Equal(100, s.game.FactoryCost("red"))

	s.game.SyncFactories(map[model.TeamID]int{"red": 1})
	s.Require().Equal(200, s.game.FactoryCost("red"))

	s.game.SyncFactories(map[model.TeamID]int{"red": 3})
	s.Require().Equal(400, s.game.FactoryCost("red"))

	// Other teams are unaffected
	s.Require().Equal(100, s.game.FactoryCost("blue"))
}

func (s *GameSuite) TestSyncFactoriesReplacesCounts() {
	s.game.SyncFactories(map[model.TeamID]int{"red": 2, "blue": 1})
	s.game.SyncFactories(map[model.TeamID]int{"red": 1})

	s.Require().Equal(200, s.game.FactoryCost("red"))
	s.Require().Equal(100, s.game.FactoryCost("blue"))
}

func (s *GameSuite) TestCanBuildFactory() {
	red := model.Role{IsPlayer: true, Team: "red"}

	// No connected players yet
	s.Require().False(s.game.CanBuildFactory(red))

	s.game.AddUser("user-1", red)
	s.Require().True(s.game.CanBuildFactory(red))

	// One factory per connected player
	s.game.SyncFactories(map[model.TeamID]int{"red": 1})
	s.Require().False(s.game.CanBuildFactory(red))

	s.game.AddUser("user-2", red)
	s.Require().True(s.game.CanBuildFactory(red))
}

func (s *GameSuite) TestCanBuildFactoryRequiresTeamPlayer() {
	s.game.AddUser("user-1", model.Role{IsPlayer: true, Team: "red"})

	s.Require().False(s.game.CanBuildFactory(model.Role{IsSpectator: true}))
	s.Require().False(s.game.CanBuildFactory(model.Role{IsPlayer: true}))
	s.Require().False(s.game.CanBuildFactory(model.Role{IsPlayer: true, Team: "blue"}))
}
