package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/dploch/geofront/internal/api/apierr"
	"github.com/dploch/geofront/internal/api/response"
	"github.com/dploch/geofront/internal/live"
	"github.com/dploch/geofront/internal/model"
)

// LiveHandler exposes the live registry for operators
type LiveHandler struct {
	registry *live.Registry
}

// NewLiveHandler creates a new live registry handler
func NewLiveHandler(registry *live.Registry) *LiveHandler {
	return &LiveHandler{
		registry: registry,
	}
}

// List handles GET /api/v1/live
func (h *LiveHandler) List(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, response.LiveGameListFromGames(h.registry.Games()))
}

// Reload handles POST /api/v1/live/reload
func (h *LiveHandler) Reload(w http.ResponseWriter, r *http.Request) {
	if err := h.registry.LoadAll(r.Context()); err != nil {
		apierr.WriteError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, response.LiveGameListFromGames(h.registry.Games()))
}

// Unload handles DELETE /api/v1/live/{id}
func (h *LiveHandler) Unload(w http.ResponseWriter, r *http.Request) {
	id := model.GameID(mux.Vars(r)["id"])

	if !h.registry.Unload(id) {
		apierr.WriteError(w, model.ErrGameNotLive)
		return
	}
	response.NoContent(w)
}
