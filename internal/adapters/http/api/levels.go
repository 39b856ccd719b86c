// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/okian/snapdash/internal/domain/model"
)

// LevelDependencies defines the interface for level administration.
type LevelDependencies interface {
	CreateLevel(ctx context.Context, level model.Level) error
}

// LevelsHandler handles level administration requests.
type LevelsHandler struct {
	deps LevelDependencies
}

// NewLevelsHandler creates a new levels handler.
func NewLevelsHandler(deps LevelDependencies) *LevelsHandler {
	return &LevelsHandler{deps: deps}
}

// levelRequest mirrors the JSON schema for POST /levels.
type levelRequest struct {
	LevelID     string   `json:"level_id"`
	Name        string   `json:"name"`
	PHash       string   `json:"phash"`
	AltPHashes  []string `json:"alt_phashes,omitempty"`
	Descriptors []byte   `json:"descriptors,omitempty"`
	IsFinal     bool     `json:"is_final"`
}

type levelResponse struct {
	LevelID string `json:"level_id"`
}

// HandlePostLevel handles POST /levels requests.
func (h *LevelsHandler) HandlePostLevel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req levelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if strings.TrimSpace(req.PHash) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", errors.New("missing phash"))
		return
	}
	if req.LevelID == "" {
		req.LevelID = uuid.New().String()
	}

	level := model.Level{
		ID:          req.LevelID,
		Name:        req.Name,
		PHash:       req.PHash,
		AltPHashes:  req.AltPHashes,
		Descriptors: req.Descriptors,
		IsFinal:     req.IsFinal,
	}
	if err := h.deps.CreateLevel(r.Context(), level); err != nil {
		writeError(w, http.StatusInternalServerError, "internal_error", err)
		return
	}
	writeJSON(w, http.StatusCreated, levelResponse{LevelID: req.LevelID})
}
