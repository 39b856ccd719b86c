// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/okian/snapdash/internal/domain/dedupe"
	"github.com/okian/snapdash/internal/domain/model"
	"github.com/okian/snapdash/internal/domain/ranking"
)

// Dependencies required by HTTP handlers. Using an interface bundle keeps
// the handler layer loosely coupled to implementations in other packages.
type Dependencies interface {
	dedupe.Deduper

	// Enqueue pushes a submission for async verification. Returns false on
	// backpressure.
	Enqueue(ctx context.Context, sub model.Submission) bool

	// Read operations expose leaderboard data.
	Leaderboard(ctx context.Context) []ranking.Record
	TeamRanking(ctx context.Context, teamID string) (ranking.Record, error)

	// Admin operations.
	RegisterTeam(ctx context.Context, team model.Team) error
	CreateLevel(ctx context.Context, level model.Level) error
	Review(ctx context.Context, submissionID string, approve bool) (model.Submission, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler      *HealthHandler
	statsHandler       *StatsHandler
	submissionsHandler *SubmissionsHandler
	leaderboardHandler *LeaderboardHandler
	exportHandler      *ExportHandler
	teamsHandler       *TeamsHandler
	levelsHandler      *LevelsHandler
	reviewHandler      *ReviewHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, statsProvider StatsProvider, maxLeaderboardLimit int) *Server {
	return &Server{
		healthHandler:      NewHealthHandler(),
		statsHandler:       NewStatsHandler(statsProvider),
		submissionsHandler: NewSubmissionsHandler(deps),
		leaderboardHandler: NewLeaderboardHandler(deps, maxLeaderboardLimit),
		exportHandler:      NewExportHandler(deps),
		teamsHandler:       NewTeamsHandler(deps),
		levelsHandler:      NewLevelsHandler(deps),
		reviewHandler:      NewReviewHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/submissions", MetricsMiddleware(s.submissionsHandler.HandlePostSubmission, "submissions"))
	mux.HandleFunc("/leaderboard", MetricsMiddleware(s.leaderboardHandler.HandleGetLeaderboard, "leaderboard"))
	mux.HandleFunc("/leaderboard/export", MetricsMiddleware(s.exportHandler.HandleExport, "leaderboard_export"))
	mux.HandleFunc("/teams", MetricsMiddleware(s.teamsHandler.HandlePostTeam, "teams"))
	mux.HandleFunc("/teams/", MetricsMiddleware(s.teamsHandler.HandleGetRanking, "team_ranking"))
	mux.HandleFunc("/levels", MetricsMiddleware(s.levelsHandler.HandlePostLevel, "levels"))
	mux.HandleFunc("/review", MetricsMiddleware(s.reviewHandler.HandlePostReview, "review"))
}

// submissionRequest mirrors the JSON schema for POST /submissions.
type submissionRequest struct {
	SubmissionID string `json:"submission_id"`
	TeamID       string `json:"team_id"`
	LevelID      string `json:"level_id"`
	PHash        string `json:"phash"`
	Descriptors  []byte `json:"descriptors,omitempty"`
	TS           string `json:"ts"`
}

// validate checks required fields. An empty phash is allowed on purpose: it
// degrades to a definite non-match downstream instead of an error.
func (s submissionRequest) validate() error {
	switch {
	case strings.TrimSpace(s.SubmissionID) == "":
		return errors.New("missing submission_id")
	case strings.TrimSpace(s.TeamID) == "":
		return errors.New("missing team_id")
	case strings.TrimSpace(s.LevelID) == "":
		return errors.New("missing level_id")
	case strings.TrimSpace(s.TS) == "":
		return errors.New("missing ts")
	}
	if _, err := time.Parse(time.RFC3339, s.TS); err != nil {
		return errors.New("invalid ts; must be RFC3339")
	}
	return nil
}

type ackResponse struct {
	Status    string `json:"status"`
	Duplicate bool   `json:"duplicate"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
