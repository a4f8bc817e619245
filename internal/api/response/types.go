package response

import (
	"time"

	"github.com/dploch/geofront/internal/live"
	"github.com/dploch/geofront/internal/model"
	"github.com/dploch/geofront/internal/services/auth"
)

// User represents a user in API responses
type User struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	IsGuest     bool   `json:"is_guest"`
}

// UserFromModel converts a model.User to a response User
func UserFromModel(u *model.User) User {
	return User{
		ID:          string(u.ID),
		DisplayName: u.DisplayName,
		IsGuest:     u.IsGuest,
	}
}

// AuthResponse is the response for authentication endpoints
type AuthResponse struct {
	User         User   `json:"user"`
	SessionToken string `json:"session_token"`
}

// AuthResponseFromSession creates an AuthResponse from a session
func AuthResponseFromSession(s *auth.Session) AuthResponse {
	return AuthResponse{
		User:         UserFromModel(&s.User),
		SessionToken: s.Token,
	}
}

// Role represents a game role
type Role struct {
	Player    bool   `json:"player"`
	Spectator bool   `json:"spectator"`
	Special   bool   `json:"special"`
	Team      string `json:"team,omitempty"`
}

// RoleFromModel converts a model.Role
func RoleFromModel(r model.Role) Role {
	return Role{
		Player:    r.IsPlayer,
		Spectator: r.IsSpectator,
		Special:   r.IsSpecial,
		Team:      string(r.Team),
	}
}

// Game represents a game in API responses
type Game struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Stage     string          `json:"stage"`
	Roles     map[string]Role `json:"roles,omitempty"`
	Factories map[string]int  `json:"factories,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// GameFromModel converts a model.Game
func GameFromModel(g *model.Game) Game {
	out := Game{
		ID:        string(g.ID),
		Name:      g.Name,
		Stage:     string(g.Stage),
		CreatedAt: g.CreatedAt,
		UpdatedAt: g.UpdatedAt,
	}
	if len(g.Roles) > 0 {
		out.Roles = make(map[string]Role, len(g.Roles))
		for id, role := range g.Roles {
			out.Roles[string(id)] = RoleFromModel(role)
		}
	}
	if len(g.Factories) > 0 {
		out.Factories = make(map[string]int, len(g.Factories))
		for team, n := range g.Factories {
			out.Factories[string(team)] = n
		}
	}
	return out
}

// GameList is the response for game listings
type GameList struct {
	Games []Game `json:"games"`
}

// GameListFromModels converts a slice of game records
func GameListFromModels(games []*model.Game) GameList {
	out := GameList{Games: make([]Game, 0, len(games))}
	for _, g := range games {
		out.Games = append(out.Games, GameFromModel(g))
	}
	return out
}

// LiveGame represents one loaded runtime game
type LiveGame struct {
	ID    string `json:"id"`
	Stage string `json:"stage"`
	Users int    `json:"users"`
}

// LiveGameList is the response for the live registry listing
type LiveGameList struct {
	Games []LiveGame `json:"games"`
}

// LiveGameListFromGames converts loaded live games
func LiveGameListFromGames(games []*live.Game) LiveGameList {
	out := LiveGameList{Games: make([]LiveGame, 0, len(games))}
	for _, g := range games {
		out.Games = append(out.Games, LiveGame{
			ID:    string(g.ID()),
			Stage: string(g.Stage()),
			Users: g.UserCount(),
		})
	}
	return out
}
