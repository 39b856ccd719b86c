package simulate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// client posts generated entities to a running server.
type client struct {
	baseURL string
	http    *http.Client
}

func newClient(baseURL string, timeout time.Duration) *client {
	return &client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
	}
}

// postJSON sends a JSON body and decodes nothing; it only checks status.
func (c *client) postJSON(ctx context.Context, path string, body any, wantStatus ...int) error {
	buf, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal %s body: %w", path, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(buf))
	if err != nil {
		return fmt.Errorf("build %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("post %s: %w", path, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	for _, s := range wantStatus {
		if resp.StatusCode == s {
			return nil
		}
	}
	return fmt.Errorf("post %s: unexpected status %d", path, resp.StatusCode)
}

func (c *client) createLevel(ctx context.Context, l level) error {
	return c.postJSON(ctx, "/levels", map[string]any{
		"level_id": l.ID,
		"name":     l.Name,
		"phash":    l.PHash,
		"is_final": l.IsFinal,
	}, http.StatusCreated)
}

func (c *client) registerTeam(ctx context.Context, t team) error {
	return c.postJSON(ctx, "/teams", map[string]any{
		"team_id":         t.ID,
		"name":            t.Name,
		"assigned_levels": t.AssignedLevels,
	}, http.StatusCreated)
}

func (c *client) submit(ctx context.Context, submissionID, teamID, levelID, phash string) error {
	return c.postJSON(ctx, "/submissions", map[string]any{
		"submission_id": submissionID,
		"team_id":       teamID,
		"level_id":      levelID,
		"phash":         phash,
		"ts":            time.Now().UTC().Format(time.RFC3339),
	}, http.StatusAccepted, http.StatusOK)
}

// leaderboardRow mirrors the fields the verifier cares about.
type leaderboardRow struct {
	TeamID         string  `json:"teamId"`
	FinalSubmitted bool    `json:"finalSubmitted"`
	TotalPoints    int     `json:"totalPoints"`
	Rank           int     `json:"rank"`
	IsTie          bool    `json:"isTie"`
	Position       int     `json:"position"`
	AverageScore   float64 `json:"averageScore"`
}

func (c *client) leaderboard(ctx context.Context) ([]leaderboardRow, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/leaderboard", nil)
	if err != nil {
		return nil, fmt.Errorf("build leaderboard request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get leaderboard: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("get leaderboard: unexpected status %d", resp.StatusCode)
	}
	var rows []leaderboardRow
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("decode leaderboard: %w", err)
	}
	return rows, nil
}
