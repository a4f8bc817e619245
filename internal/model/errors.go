package model

import "errors"

// Common errors used across the application
var (
	// User errors
	ErrUserNotFound = errors.New("user not found")

	// Game errors
	ErrGameNotFound  = errors.New("game not found")
	ErrGameNotActive = errors.New("game is not active")
	ErrInvalidStage  = errors.New("invalid game stage")
	ErrStageConflict = errors.New("game stage does not allow this transition")
	ErrNotInGame     = errors.New("user has no role in this game")
	ErrCannotReport  = errors.New("user may not report locations in this game")
	ErrCannotBuild   = errors.New("team cannot build another factory")

	// Location errors
	ErrMalformedLocation = errors.New("malformed location payload")

	// Live runtime errors
	ErrGameNotLive = errors.New("game is not currently live")
	ErrUserNotLive = errors.New("user is not connected to this live game")
)
