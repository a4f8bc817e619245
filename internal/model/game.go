package model

import "time"

// GameID uniquely identifies a game
type GameID string

// TeamID identifies a team within a game
type TeamID string

// GameStage represents the lifecycle phase of a game
type GameStage string

const (
	GameStagePending  GameStage = "pending"  // Created, not yet started
	GameStageActive   GameStage = "active"   // Running; eligible to be live
	GameStageFinished GameStage = "finished" // Completed or cancelled
)

// ValidStage reports whether s is a known game stage
func ValidStage(s GameStage) bool {
	switch s {
	case GameStagePending, GameStageActive, GameStageFinished:
		return true
	}
	return false
}

// Game represents a persisted game record
type Game struct {
	ID    GameID
	Name  string
	Stage GameStage

	// Roles holds each participant's role within this game
	Roles map[UserID]Role

	// Factories counts built factories per team, used for cost curves
	Factories map[TeamID]int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// RoleFor returns the role record for a user, or the zero role if the
// user has no standing in this game
func (g *Game) RoleFor(userID UserID) Role {
	if g.Roles == nil {
		return Role{}
	}
	return g.Roles[userID]
}

// FactoryCount returns the number of factories built by a team
func (g *Game) FactoryCount(team TeamID) int {
	if g.Factories == nil {
		return 0
	}
	return g.Factories[team]
}

// IsActive reports whether the game is in the active stage
func (g *Game) IsActive() bool {
	return g.Stage == GameStageActive
}
