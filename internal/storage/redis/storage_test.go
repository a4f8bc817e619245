package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/dploch/geofront/internal/model"
)

type StorageSuite struct {
	suite.Suite
	mini    *miniredis.Miniredis
	storage *Storage
	ctx     context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.mini = miniredis.RunT(s.T())

	client := redis.NewClient(&redis.Options{
		Addr: s.mini.Addr(),
	})

	cfg := DefaultConfig()
	cfg.GuestUserTTL = time.Hour
	cfg.FinishedGameTTL = time.Hour

	s.storage = NewWithClient(client, cfg)
	s.ctx = context.Background()
}

func (s *StorageSuite) TearDownTest() {
	if s.storage != nil {
		_ = s.storage.Close()
	}
	if s.mini != nil {
		s.mini.Close()
	}
}

func (s *StorageSuite) makeGame(id string, stage model.GameStage) *model.Game {
	return &model.Game{
		ID:    model.GameID(id),
		Name:  "Game " + id,
		Stage: stage,
		Roles: map[model.UserID]model.Role{
			"user-1": {IsPlayer: true, Team: "red"},
		},
		Factories: map[model.TeamID]int{"red": 1},
		CreatedAt: time.Now().UTC().Truncate(time.Second),
	}
}

// User tests

func (s *StorageSuite) TestSaveAndGetUser() {
	user := &model.User{
		ID:          "user-1",
		DisplayName: "Alice",
		IsGuest:     false,
		CreatedAt:   time.Now().UTC().Truncate(time.Second),
	}

	s.Require().NoError(s.storage.SaveUser(s.ctx, user))

	got, err := s.storage.GetUser(s.ctx, "user-1")
	s.Require().NoError(err)
	s.Equal(user.DisplayName, got.DisplayName)
}

func (s *StorageSuite) TestGuestUserHasTTL() {
	user := &model.User{ID: "guest-1", DisplayName: "Guest", IsGuest: true}
	s.Require().NoError(s.storage.SaveUser(s.ctx, user))

	ttl := s.mini.TTL(userKey("guest-1"))
	s.Equal(time.Hour, ttl)
}

func (s *StorageSuite) TestGetMissingUser() {
	_, err := s.storage.GetUser(s.ctx, "nope")
	s.ErrorIs(err, model.ErrUserNotFound)
}

func (s *StorageSuite) TestRegisteredUserRoundTrip() {
	ru := &model.RegisteredUser{
		UserID:       "user-1",
		Username:     "alice",
		PasswordHash: "hash",
	}
	s.Require().NoError(s.storage.SaveRegisteredUser(s.ctx, ru))

	byID, err := s.storage.GetRegisteredUser(s.ctx, "user-1")
	s.Require().NoError(err)
	s.Equal("alice", byID.Username)

	byName, err := s.storage.GetRegisteredUserByUsername(s.ctx, "alice")
	s.Require().NoError(err)
	s.Equal(model.UserID("user-1"), byName.UserID)
}

// Game tests

func (s *StorageSuite) TestSaveAndGetGame() {
	game := s.makeGame("game-1", model.GameStageActive)
	s.Require().NoError(s.storage.SaveGame(s.ctx, game))

	got, err := s.storage.GetGame(s.ctx, "game-1")
	s.Require().NoError(err)
	s.Equal(model.GameStageActive, got.Stage)
	s.Equal(1, got.FactoryCount("red"))
	s.True(got.RoleFor("user-1").IsPlayer)
}

func (s *StorageSuite) TestStageIndexFollowsTransitions() {
	game := s.makeGame("game-1", model.GameStagePending)
	s.Require().NoError(s.storage.SaveGame(s.ctx, game))

	pending, err := s.storage.GetGamesWithStage(s.ctx, model.GameStagePending)
	s.Require().NoError(err)
	s.Len(pending, 1)

	game.Stage = model.GameStageActive
	s.Require().NoError(s.storage.SaveGame(s.ctx, game))

	pending, err = s.storage.GetGamesWithStage(s.ctx, model.GameStagePending)
	s.Require().NoError(err)
	s.Empty(pending)

	active, err := s.storage.GetGamesWithStage(s.ctx, model.GameStageActive)
	s.Require().NoError(err)
	s.Len(active, 1)
	s.Equal(model.GameID("game-1"), active[0].ID)
}

func (s *StorageSuite) TestDeleteGameRemovesIndexEntry() {
	game := s.makeGame("game-1", model.GameStageActive)
	s.Require().NoError(s.storage.SaveGame(s.ctx, game))
	s.Require().NoError(s.storage.DeleteGame(s.ctx, "game-1"))

	_, err := s.storage.GetGame(s.ctx, "game-1")
	s.ErrorIs(err, model.ErrGameNotFound)

	active, err := s.storage.GetGamesWithStage(s.ctx, model.GameStageActive)
	s.Require().NoError(err)
	s.Empty(active)
}

func (s *StorageSuite) TestExpiredGameDroppedFromStageListing() {
	game := s.makeGame("game-1", model.GameStageFinished)
	s.Require().NoError(s.storage.SaveGame(s.ctx, game))

	// Simulate the record expiring while the index entry remains
	s.mini.FastForward(2 * time.Hour)

	finished, err := s.storage.GetGamesWithStage(s.ctx, model.GameStageFinished)
	s.Require().NoError(err)
	s.Empty(finished)
}

// Role tests

func (s *StorageSuite) TestSetGameRolePersists() {
	game := s.makeGame("game-1", model.GameStageActive)
	s.Require().NoError(s.storage.SaveGame(s.ctx, game))

	role := model.Role{IsSpectator: true}
	s.Require().NoError(s.storage.SetGameRole(s.ctx, "game-1", "user-2", role))

	got, err := s.storage.GetGameRole(s.ctx, "game-1", "user-2")
	s.Require().NoError(err)
	s.Equal(role, got)
}
