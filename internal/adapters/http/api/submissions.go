// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/okian/snapdash/internal/domain/dedupe"
	"github.com/okian/snapdash/internal/domain/model"
)

// SubmissionDependencies defines the interface for submission intake.
type SubmissionDependencies interface {
	dedupe.Deduper
	Enqueue(ctx context.Context, sub model.Submission) bool
}

// SubmissionsHandler handles photo submission requests.
type SubmissionsHandler struct {
	deps SubmissionDependencies
}

// NewSubmissionsHandler creates a new submissions handler.
func NewSubmissionsHandler(deps SubmissionDependencies) *SubmissionsHandler {
	return &SubmissionsHandler{deps: deps}
}

// HandlePostSubmission handles POST /submissions requests.
func (h *SubmissionsHandler) HandlePostSubmission(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req submissionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}

	// Idempotency check - mark as seen first.
	if h.deps.SeenAndRecord(r.Context(), req.SubmissionID) {
		writeJSON(w, http.StatusOK, ackResponse{Status: "duplicate", Duplicate: true})
		return
	}

	ts, _ := time.Parse(time.RFC3339, req.TS) // validated above

	sub := model.Submission{
		ID:          req.SubmissionID,
		TeamID:      req.TeamID,
		LevelID:     req.LevelID,
		PHash:       req.PHash,
		Descriptors: req.Descriptors,
		Status:      model.StatusPending,
		CreatedAt:   ts,
	}

	if ok := h.deps.Enqueue(r.Context(), sub); !ok {
		// Roll back the "seen" status since enqueue failed.
		h.deps.Unrecord(r.Context(), req.SubmissionID)
		writeError(w, http.StatusTooManyRequests, "backpressure", ErrBackpressure)
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted", Duplicate: false})
}
