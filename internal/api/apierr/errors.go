package apierr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/dploch/geofront/internal/model"
	"github.com/dploch/geofront/internal/services/auth"
)

// APIError represents an API error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse wraps an APIError
type ErrorResponse struct {
	Error APIError `json:"error"`
}

// Common error codes
const (
	CodeInvalidRequest     = "INVALID_REQUEST"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeUserNotFound       = "USER_NOT_FOUND"
	CodeGameNotFound       = "GAME_NOT_FOUND"
	CodeGameNotActive      = "GAME_NOT_ACTIVE"
	CodeInvalidStage       = "INVALID_STAGE"
	CodeStageConflict      = "STAGE_CONFLICT"
	CodeNotInGame          = "NOT_IN_GAME"
	CodeCannotBuild        = "CANNOT_BUILD"
	CodeGameNotLive        = "GAME_NOT_LIVE"
	CodeInvalidLocation    = "INVALID_LOCATION"
	CodeUsernameExists     = "USERNAME_EXISTS"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"
	CodeInternalError      = "INTERNAL_ERROR"
)

// httpError combines an HTTP status code with an APIError
type httpError struct {
	status   int
	apiError APIError
}

// Error implements error interface
func (e *httpError) Error() string {
	return e.apiError.Message
}

// WriteError writes an error response to the response writer
func WriteError(w http.ResponseWriter, err error) {
	he := toHTTPError(err)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(he.status)
	_ = json.NewEncoder(w).Encode(ErrorResponse{Error: he.apiError})
}

// toHTTPError converts an error to an httpError
func toHTTPError(err error) *httpError {
	var he *httpError
	if errors.As(err, &he) {
		return he
	}

	// Map model errors
	switch {
	case errors.Is(err, model.ErrUserNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeUserNotFound, "User not found"}}
	case errors.Is(err, model.ErrGameNotFound):
		return &httpError{http.StatusNotFound, APIError{CodeGameNotFound, "Game not found"}}
	case errors.Is(err, model.ErrGameNotActive):
		return &httpError{http.StatusConflict, APIError{CodeGameNotActive, "Game is not active"}}
	case errors.Is(err, model.ErrInvalidStage):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidStage, "Unknown game stage"}}
	case errors.Is(err, model.ErrStageConflict):
		return &httpError{http.StatusConflict, APIError{CodeStageConflict, "Game stage does not allow this"}}
	case errors.Is(err, model.ErrNotInGame):
		return &httpError{http.StatusNotFound, APIError{CodeNotInGame, "User has no role in this game"}}
	case errors.Is(err, model.ErrCannotBuild):
		return &httpError{http.StatusConflict, APIError{CodeCannotBuild, "Team cannot build another factory"}}
	case errors.Is(err, model.ErrGameNotLive):
		return &httpError{http.StatusConflict, APIError{CodeGameNotLive, "Game is not currently live"}}
	case errors.Is(err, model.ErrMalformedLocation):
		return &httpError{http.StatusBadRequest, APIError{CodeInvalidLocation, "Malformed location"}}

	// Map auth errors
	case errors.Is(err, auth.ErrInvalidCredentials):
		return &httpError{http.StatusUnauthorized, APIError{CodeInvalidCredentials, "Invalid username or password"}}
	case errors.Is(err, auth.ErrInvalidSession):
		return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Invalid or expired session"}}
	case errors.Is(err, auth.ErrUsernameExists):
		return &httpError{http.StatusConflict, APIError{CodeUsernameExists, "Username already exists"}}

	default:
		return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
	}
}

// NewInvalidRequestError creates an invalid request error
func NewInvalidRequestError(message string) error {
	return &httpError{http.StatusBadRequest, APIError{CodeInvalidRequest, message}}
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError() error {
	return &httpError{http.StatusUnauthorized, APIError{CodeUnauthorized, "Authentication required"}}
}

// NewInternalError creates an internal server error
func NewInternalError() error {
	return &httpError{http.StatusInternalServerError, APIError{CodeInternalError, "Internal server error"}}
}
