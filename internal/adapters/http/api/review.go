// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/okian/snapdash/internal/adapters/repository"
	"github.com/okian/snapdash/internal/domain/model"
)

// ReviewDependencies defines the interface for manual admin review.
type ReviewDependencies interface {
	Review(ctx context.Context, submissionID string, approve bool) (model.Submission, error)
}

// ReviewHandler handles manual review decisions.
type ReviewHandler struct {
	deps ReviewDependencies
}

// NewReviewHandler creates a new review handler.
func NewReviewHandler(deps ReviewDependencies) *ReviewHandler {
	return &ReviewHandler{deps: deps}
}

// reviewRequest mirrors the JSON schema for POST /review.
type reviewRequest struct {
	SubmissionID string `json:"submission_id"`
	Approve      bool   `json:"approve"`
}

type reviewResponse struct {
	SubmissionID string `json:"submission_id"`
	Status       string `json:"status"`
}

// HandlePostReview handles POST /review requests. Manual review is the only
// way a submission leaves pending other than auto-approval.
func (h *ReviewHandler) HandlePostReview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req reviewRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", err)
		return
	}
	if strings.TrimSpace(req.SubmissionID) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", errors.New("missing submission_id"))
		return
	}

	sub, err := h.deps.Review(r.Context(), req.SubmissionID, req.Approve)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrInvalidTransition):
			writeError(w, http.StatusConflict, "conflict", err)
		case errors.Is(err, repository.ErrSubmissionNotFound):
			writeError(w, http.StatusNotFound, "not_found", err)
		default:
			writeError(w, http.StatusInternalServerError, "internal_error", err)
		}
		return
	}
	writeJSON(w, http.StatusOK, reviewResponse{
		SubmissionID: sub.ID,
		Status:       string(sub.Status),
	})
}
