package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"pokedex/internal/models"

	"github.com/gorilla/mux"
)

const maxTeamBodyBytes = 64 << 10

// ListTeams handles team list requests
// GET /api/v1/teams
func (h *Handlers) ListTeams(w http.ResponseWriter, r *http.Request) {
	teams, err := h.teams.List(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSONResponse(w, http.StatusOK, &models.ListTeamsResponse{
		Teams:      teams,
		TotalCount: len(teams),
	})
}

// CreateTeam handles team builder submissions
// POST /api/v1/teams
func (h *Handlers) CreateTeam(w http.ResponseWriter, r *http.Request) {
	var req models.CreateTeamRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxTeamBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.writeErrorResponse(w, r, http.StatusRequestEntityTooLarge, models.ErrorCodeInvalidRequest, "Request body too large")
			return
		}
		h.writeErrorResponse(w, r, http.StatusBadRequest, models.ErrorCodeBadRequest, "Invalid JSON body")
		return
	}

	created, err := h.teams.Create(r.Context(), &req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	w.Header().Set("Location", "/api/v1/teams/"+created.ID)
	h.writeJSONResponse(w, http.StatusCreated, created)
}

// GetTeam handles single team requests
// GET /api/v1/teams/{id}
func (h *Handlers) GetTeam(w http.ResponseWriter, r *http.Request) {
	t, err := h.teams.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.writeJSONResponse(w, http.StatusOK, t)
}

// DeleteTeam handles team deletion
// DELETE /api/v1/teams/{id}
func (h *Handlers) DeleteTeam(w http.ResponseWriter, r *http.Request) {
	if err := h.teams.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		h.writeError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
