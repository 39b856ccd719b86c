// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"net/http"

	"github.com/okian/snapdash/internal/domain/ranking"
)

// ExportHandler serves the admin CSV export of the leaderboard.
type ExportHandler struct {
	deps LeaderboardDependencies
}

// NewExportHandler creates a new export handler.
func NewExportHandler(deps LeaderboardDependencies) *ExportHandler {
	return &ExportHandler{deps: deps}
}

// HandleExport handles GET /leaderboard/export requests.
func (h *ExportHandler) HandleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	records := h.deps.Leaderboard(r.Context())

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="leaderboard.csv"`)
	if err := ranking.WriteCSV(w, records); err != nil {
		// Headers are already out; nothing sane left to send.
		return
	}
}
