package storage

import (
	"context"

	"github.com/dploch/geofront/internal/model"
)

// Storage defines the interface for data persistence.
//
// All calls are context-bound and may fail with a generic lookup error;
// record-level read-after-write consistency is assumed by callers.
type Storage interface {
	// User operations
	SaveUser(ctx context.Context, user *model.User) error
	GetUser(ctx context.Context, id model.UserID) (*model.User, error)
	DeleteUser(ctx context.Context, id model.UserID) error

	// Registered user operations
	SaveRegisteredUser(ctx context.Context, ru *model.RegisteredUser) error
	GetRegisteredUser(ctx context.Context, userID model.UserID) (*model.RegisteredUser, error)
	GetRegisteredUserByUsername(ctx context.Context, username string) (*model.RegisteredUser, error)

	// Game operations
	SaveGame(ctx context.Context, game *model.Game) error
	GetGame(ctx context.Context, id model.GameID) (*model.Game, error)
	DeleteGame(ctx context.Context, id model.GameID) error
	GetGamesWithStage(ctx context.Context, stage model.GameStage) ([]*model.Game, error)

	// Role operations
	GetGameRole(ctx context.Context, gameID model.GameID, userID model.UserID) (model.Role, error)
	SetGameRole(ctx context.Context, gameID model.GameID, userID model.UserID, role model.Role) error
}
