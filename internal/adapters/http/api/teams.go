// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/okian/snapdash/internal/adapters/repository"
	"github.com/okian/snapdash/internal/domain/model"
	"github.com/okian/snapdash/internal/domain/ranking"
)

// TeamDependencies defines the interface for team administration and reads.
type TeamDependencies interface {
	RegisterTeam(ctx context.Context, team model.Team) error
	TeamRanking(ctx context.Context, teamID string) (ranking.Record, error)
}

// TeamsHandler handles team registration and per-team ranking requests.
type TeamsHandler struct {
	deps TeamDependencies
}

// NewTeamsHandler creates a new teams handler.
func NewTeamsHandler(deps TeamDependencies) *TeamsHandler {
	return &TeamsHandler{deps: deps}
}

// teamRequest mirrors the JSON schema for POST /teams.
type teamRequest struct {
	TeamID         string   `json:"team_id"`
	Name           string   `json:"name"`
	AssignedLevels []string `json:"assigned_levels"`
}

type teamResponse struct {
	TeamID string `json:"team_id"`
}

// HandlePostTeam handles POST /teams requests.
func (h *TeamsHandler) HandlePostTeam(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req teamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", errors.New("missing name"))
		return
	}
	if req.TeamID == "" {
		req.TeamID = uuid.New().String()
	}

	team := model.Team{
		ID:             req.TeamID,
		Name:           req.Name,
		AssignedLevels: req.AssignedLevels,
	}
	if err := h.deps.RegisterTeam(r.Context(), team); err != nil {
		writeError(w, http.StatusConflict, "conflict", err)
		return
	}
	writeJSON(w, http.StatusCreated, teamResponse{TeamID: req.TeamID})
}

// HandleGetRanking handles GET /teams/{id}/ranking requests.
func (h *TeamsHandler) HandleGetRanking(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	path := strings.TrimPrefix(r.URL.Path, "/teams/")
	teamID, ok := strings.CutSuffix(path, "/ranking")
	if !ok || teamID == "" || strings.Contains(teamID, "/") {
		writeError(w, http.StatusBadRequest, "bad_request", ErrBadRequest)
		return
	}
	record, err := h.deps.TeamRanking(r.Context(), teamID)
	if err != nil {
		if errors.Is(err, repository.ErrTeamNotFound) {
			writeError(w, http.StatusNotFound, "not_found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusOK, record)
}
