// Package game manages the persisted game lifecycle: creation, stage
// transitions and role assignment. Transitions into and out of the
// active stage are pushed to the live registry so the runtime table
// tracks the store.
package game

import (
	"context"
	"errors"
	"fmt"

	"github.com/dploch/geofront/internal/dependencies/clock"
	"github.com/dploch/geofront/internal/dependencies/random"
	"github.com/dploch/geofront/internal/live"
	"github.com/dploch/geofront/internal/model"
	"github.com/dploch/geofront/internal/storage"
)

const (
	// GameIDLength is the length of generated game identifiers
	GameIDLength = 8
	// GameIDAlphabet is the characters used in game identifiers
	GameIDAlphabet = "abcdefghjkmnpqrstuvwxyz23456789"
)

// Controller manages the game lifecycle
type Controller struct {
	storage  storage.Storage
	registry *live.Registry
	clock    clock.Clock
	random   random.Random
}

// NewController creates a game controller
func NewController(
	storage storage.Storage,
	registry *live.Registry,
	clock clock.Clock,
	random random.Random,
) *Controller {
	return &Controller{
		storage:  storage,
		registry: registry,
		clock:    clock,
		random:   random,
	}
}

// CreateGame creates a pending game. The creator is assigned the
// special role so they can manage and observe the game from the start.
func (c *Controller) CreateGame(ctx context.Context, name string, creator model.UserID) (*model.Game, error) {
	now := c.clock.Now()

	var id model.GameID
	for {
		id = model.GameID("g_" + c.random.String(GameIDLength, GameIDAlphabet))
		_, err := c.storage.GetGame(ctx, id)
		if errors.Is(err, model.ErrGameNotFound) {
			break
		}
		if err != nil {
			return nil, err
		}
	}

	game := &model.Game{
		ID:    id,
		Name:  name,
		Stage: model.GameStagePending,
		Roles: map[model.UserID]model.Role{
			creator: {IsSpecial: true},
		},
		Factories: make(map[model.TeamID]int),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := c.storage.SaveGame(ctx, game); err != nil {
		return nil, err
	}
	return game, nil
}

// GetGame returns a game by ID
func (c *Controller) GetGame(ctx context.Context, id model.GameID) (*model.Game, error) {
	return c.storage.GetGame(ctx, id)
}

// ListGames returns every game in the given stage
func (c *Controller) ListGames(ctx context.Context, stage model.GameStage) ([]*model.Game, error) {
	if !model.ValidStage(stage) {
		return nil, model.ErrInvalidStage
	}
	return c.storage.GetGamesWithStage(ctx, stage)
}

// StartGame moves a pending game to the active stage and loads it into
// the live registry
func (c *Controller) StartGame(ctx context.Context, id model.GameID) (*model.Game, error) {
	game, err := c.storage.GetGame(ctx, id)
	if err != nil {
		return nil, err
	}
	if game.Stage != model.GameStagePending {
		return nil, model.ErrStageConflict
	}

	game.Stage = model.GameStageActive
	game.UpdatedAt = c.clock.Now()
	if err := c.storage.SaveGame(ctx, game); err != nil {
		return nil, err
	}

	g, err := c.registry.GetGame(ctx, id)
	if err != nil {
		// The store transition already happened; the registry will pick
		// the game up on its next load attempt
		return game, fmt.Errorf("game started but not loaded live: %w", err)
	}
	c.pushGameData(ctx, g)
	return game, nil
}

// FinishGame moves an active game to the finished stage and unloads it
// from the live registry
func (c *Controller) FinishGame(ctx context.Context, id model.GameID) (*model.Game, error) {
	game, err := c.storage.GetGame(ctx, id)
	if err != nil {
		return nil, err
	}
	if game.Stage != model.GameStageActive {
		return nil, model.ErrStageConflict
	}

	game.Stage = model.GameStageFinished
	game.UpdatedAt = c.clock.Now()
	if err := c.storage.SaveGame(ctx, game); err != nil {
		return nil, err
	}

	c.registry.Unload(id)
	return game, nil
}

// JoinGame assigns a role to a user within a game. Rejoining replaces
// the previous role. If the game is live the change is applied to the
// runtime immediately.
func (c *Controller) JoinGame(ctx context.Context, id model.GameID, userID model.UserID, role model.Role) error {
	if role.IsNone() {
		return model.ErrNotInGame
	}
	if _, err := c.storage.GetUser(ctx, userID); err != nil {
		return err
	}

	game, err := c.storage.GetGame(ctx, id)
	if err != nil {
		return err
	}
	if game.Stage == model.GameStageFinished {
		return model.ErrStageConflict
	}

	if err := c.storage.SetGameRole(ctx, id, userID, role); err != nil {
		return err
	}
	if err := c.registry.RefreshUser(ctx, id, userID); err != nil {
		return err
	}
	return c.notifyRoleChange(ctx, id)
}

// LeaveGame removes a user's role from a game and drops them from the
// live runtime if loaded
func (c *Controller) LeaveGame(ctx context.Context, id model.GameID, userID model.UserID) error {
	game, err := c.storage.GetGame(ctx, id)
	if err != nil {
		return err
	}
	if game.RoleFor(userID).IsNone() {
		return model.ErrNotInGame
	}

	if err := c.storage.SetGameRole(ctx, id, userID, model.Role{}); err != nil {
		return err
	}
	if err := c.registry.RefreshUser(ctx, id, userID); err != nil {
		return err
	}
	return c.notifyRoleChange(ctx, id)
}

// BuildFactory records a new factory for the caller's team. The caller
// must hold a player role in a live game, and the build must be allowed
// by the current factory count.
func (c *Controller) BuildFactory(ctx context.Context, id model.GameID, userID model.UserID) (*model.Game, error) {
	game, err := c.storage.GetGame(ctx, id)
	if err != nil {
		return nil, err
	}
	if !game.IsActive() {
		return nil, model.ErrGameNotActive
	}

	role := game.RoleFor(userID)
	if role.IsNone() {
		return nil, model.ErrNotInGame
	}

	g, err := c.registry.GetGame(ctx, id)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, model.ErrGameNotLive
	}

	g.SyncFactories(game.Factories)
	if !g.CanBuildFactory(role) {
		return nil, model.ErrCannotBuild
	}

	if game.Factories == nil {
		game.Factories = make(map[model.TeamID]int)
	}
	game.Factories[role.Team]++
	game.UpdatedAt = c.clock.Now()
	if err := c.storage.SaveGame(ctx, game); err != nil {
		return nil, err
	}

	g.SyncFactories(game.Factories)
	c.pushGameData(ctx, g)
	return game, nil
}

// notifyRoleChange pushes fresh snapshots to a game's live users after a
// role assignment; a game that is not live has no one to notify
func (c *Controller) notifyRoleChange(ctx context.Context, id model.GameID) error {
	g, err := c.registry.GetGame(ctx, id)
	if err != nil {
		return err
	}
	c.pushGameData(ctx, g)
	return nil
}

// pushGameData sends every live user of a game a fresh state snapshot.
// Role, stage and factory changes all alter what the snapshot reports,
// so lifecycle operations push one after committing. Delivery is
// best-effort; assembly failures are logged by the registry.
func (c *Controller) pushGameData(ctx context.Context, g *live.Game) {
	if g == nil {
		return
	}
	for _, u := range g.Users() {
		_ = c.registry.SendGameData(ctx, g, u.ID())
	}
}
