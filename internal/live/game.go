package live

import (
	"sync"

	"github.com/dploch/geofront/internal/model"
)

// baseFactoryCost is the cost of a team's first factory; each
// additional factory costs one full base more
const baseFactoryCost = 100

// Game is the in-memory runtime instance of one active-stage game. It
// owns the live users connected to it; the registry owns the game.
type Game struct {
	id model.GameID

	mu        sync.RWMutex
	stage     model.GameStage
	users     map[model.UserID]*User
	factories map[model.TeamID]int
}

// NewGame creates an empty live game
func NewGame(id model.GameID, stage model.GameStage) *Game {
	return &Game{
		id:        id,
		stage:     stage,
		users:     make(map[model.UserID]*User),
		factories: make(map[model.TeamID]int),
	}
}

// ID returns the game's identity
func (g *Game) ID() model.GameID {
	return g.id
}

// Is reports whether this live game represents the given identity
func (g *Game) Is(id model.GameID) bool {
	return g.id == id
}

// Stage returns the stage snapshot taken when the game was loaded
func (g *Game) Stage() model.GameStage {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.stage
}

// User returns the live user for an identity, if connected
func (g *Game) User(id model.UserID) (*User, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	u, ok := g.users[id]
	return u, ok
}

// AddUser registers a user with the game. Adding an already-present
// user updates the role snapshot in place rather than duplicating the
// record, so a recorded location survives a role refresh.
func (g *Game) AddUser(id model.UserID, role model.Role) *User {
	g.mu.Lock()
	defer g.mu.Unlock()
	if existing, ok := g.users[id]; ok {
		existing.SetRole(role)
		return existing
	}
	u := NewUser(id, role)
	g.users[id] = u
	return u
}

// RemoveUser drops a user from the game
func (g *Game) RemoveUser(id model.UserID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.users, id)
}

// Users returns a snapshot of the current live users
func (g *Game) Users() []*User {
	g.mu.RLock()
	defer g.mu.RUnlock()
	users := make([]*User, 0, len(g.users))
	for _, u := range g.users {
		users = append(users, u)
	}
	return users
}

// UserCount returns the number of connected live users
func (g *Game) UserCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.users)
}

// SyncFactories replaces the factory counts from the persisted record.
// Called whenever the registry refetches the game, so cost calculations
// never act on counts staler than the last record read.
func (g *Game) SyncFactories(factories map[model.TeamID]int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.factories = make(map[model.TeamID]int, len(factories))
	for team, n := range factories {
		g.factories[team] = n
	}
}

// FactoryCost returns what the team's next factory would cost. The
// curve is monotonic: each additional factory costs a full base more
// than the previous one. Recomputed on every call.
func (g *Game) FactoryCost(team model.TeamID) int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return baseFactoryCost * (g.factories[team] + 1)
}

// CanBuildFactory reports whether a user with the given role may build
// a new factory: they must be a player on a team, and the team must
// have fewer factories than connected players to support them.
func (g *Game) CanBuildFactory(role model.Role) bool {
	if !role.IsPlayer || role.Team == "" {
		return false
	}
	g.mu.RLock()
	defer g.mu.RUnlock()

	players := 0
	for _, u := range g.users {
		r := u.Role()
		if r.IsPlayer && r.Team == role.Team {
			players++
		}
	}
	return g.factories[role.Team] < players
}
