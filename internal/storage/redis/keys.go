package redis

import (
	"fmt"

	"github.com/dploch/geofront/internal/model"
)

// Key prefix for all game-related data
const keyPrefix = "geofront"

// Key generation functions for each entity type

// userKey returns the Redis key for a User
func userKey(id model.UserID) string {
	return fmt.Sprintf("%s:user:%s", keyPrefix, id)
}

// registeredUserKey returns the Redis key for a RegisteredUser
func registeredUserKey(userID model.UserID) string {
	return fmt.Sprintf("%s:registered_user:%s", keyPrefix, userID)
}

// usernameIndexKey returns the Redis key for the username -> user_id index
func usernameIndexKey(username string) string {
	return fmt.Sprintf("%s:idx:username:%s", keyPrefix, username)
}

// gameKey returns the Redis key for a Game
func gameKey(id model.GameID) string {
	return fmt.Sprintf("%s:game:%s", keyPrefix, id)
}

// stageIndexKey returns the Redis key for the SET of game ids in a stage
func stageIndexKey(stage model.GameStage) string {
	return fmt.Sprintf("%s:idx:stage:%s", keyPrefix, stage)
}
