package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/dploch/geofront/internal/api/apierr"
	"github.com/dploch/geofront/internal/api/middleware"
	"github.com/dploch/geofront/internal/api/request"
	"github.com/dploch/geofront/internal/api/response"
	"github.com/dploch/geofront/internal/model"
	"github.com/dploch/geofront/internal/services/game"
)

// GameHandler handles game lifecycle endpoints
type GameHandler struct {
	controller *game.Controller
}

// NewGameHandler creates a new game handler
func NewGameHandler(controller *game.Controller) *GameHandler {
	return &GameHandler{
		controller: controller,
	}
}

// Create handles POST /api/v1/games
func (h *GameHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.WriteError(w, apierr.NewInvalidRequestError("invalid request body"))
		return
	}
	if req.Name == "" {
		apierr.WriteError(w, apierr.NewInvalidRequestError("name is required"))
		return
	}

	user := middleware.MustGetUser(r.Context())
	created, err := h.controller.CreateGame(r.Context(), req.Name, user.ID)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.GameFromModel(created))
}

// List handles GET /api/v1/games?stage=active
func (h *GameHandler) List(w http.ResponseWriter, r *http.Request) {
	stage := model.GameStage(r.URL.Query().Get("stage"))
	if stage == "" {
		stage = model.GameStageActive
	}

	games, err := h.controller.ListGames(r.Context(), stage)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.GameListFromModels(games))
}

// Get handles GET /api/v1/games/{id}
func (h *GameHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := model.GameID(mux.Vars(r)["id"])

	got, err := h.controller.GetGame(r.Context(), id)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.GameFromModel(got))
}

// Start handles POST /api/v1/games/{id}/start
func (h *GameHandler) Start(w http.ResponseWriter, r *http.Request) {
	id := model.GameID(mux.Vars(r)["id"])

	started, err := h.controller.StartGame(r.Context(), id)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.GameFromModel(started))
}

// Finish handles POST /api/v1/games/{id}/finish
func (h *GameHandler) Finish(w http.ResponseWriter, r *http.Request) {
	id := model.GameID(mux.Vars(r)["id"])

	finished, err := h.controller.FinishGame(r.Context(), id)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.GameFromModel(finished))
}

// Join handles POST /api/v1/games/{id}/join
func (h *GameHandler) Join(w http.ResponseWriter, r *http.Request) {
	id := model.GameID(mux.Vars(r)["id"])

	var req request.JoinGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierr.WriteError(w, apierr.NewInvalidRequestError("invalid request body"))
		return
	}

	role := model.Role{
		IsPlayer:    req.Player,
		IsSpectator: req.Spectator,
		IsSpecial:   req.Special,
		Team:        model.TeamID(req.Team),
	}
	if role.IsNone() {
		apierr.WriteError(w, apierr.NewInvalidRequestError("a role is required"))
		return
	}
	if role.IsPlayer && role.Team == "" {
		apierr.WriteError(w, apierr.NewInvalidRequestError("players must pick a team"))
		return
	}

	user := middleware.MustGetUser(r.Context())
	if err := h.controller.JoinGame(r.Context(), id, user.ID, role); err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.NoContent(w)
}

// Leave handles POST /api/v1/games/{id}/leave
func (h *GameHandler) Leave(w http.ResponseWriter, r *http.Request) {
	id := model.GameID(mux.Vars(r)["id"])

	user := middleware.MustGetUser(r.Context())
	if err := h.controller.LeaveGame(r.Context(), id, user.ID); err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.NoContent(w)
}

// BuildFactory handles POST /api/v1/games/{id}/factories
func (h *GameHandler) BuildFactory(w http.ResponseWriter, r *http.Request) {
	id := model.GameID(mux.Vars(r)["id"])

	user := middleware.MustGetUser(r.Context())
	built, err := h.controller.BuildFactory(r.Context(), id, user.ID)
	if err != nil {
		apierr.WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.GameFromModel(built))
}
