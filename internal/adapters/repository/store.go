// Package repository defines the marathon state store interface and errors.
package repository

import (
	"context"
	"time"

	"github.com/okian/snapdash/internal/domain/model"
)

// Store provides read/write access to teams, levels and submissions. The
// implementation owns the one-completion-per-level invariant: completion
// recording is conditional and applied at most once per (team, level) pair.
type Store interface {
	// AddTeam registers a team. Returns ErrDuplicateTeam on an existing ID.
	AddTeam(ctx context.Context, team model.Team) error

	// Team returns a team by ID. Returns ErrTeamNotFound when unknown.
	Team(ctx context.Context, id string) (model.Team, error)

	// Teams returns a snapshot of all registered teams.
	Teams(ctx context.Context) []model.Team

	// PutLevel creates or replaces a level definition.
	PutLevel(ctx context.Context, level model.Level) error

	// Level returns a level by ID. Returns ErrLevelNotFound when unknown.
	Level(ctx context.Context, id string) (model.Level, error)

	// RecordSubmission stores a new pending submission.
	// Returns ErrDuplicateSubmission on an existing ID.
	RecordSubmission(ctx context.Context, sub model.Submission) error

	// Submission returns a submission by ID.
	Submission(ctx context.Context, id string) (model.Submission, error)

	// SetDecision applies the match engine's verdict to a pending
	// submission: similarity score, match source and resulting status.
	SetDecision(ctx context.Context, id string, score float64, source string, status model.SubmissionStatus) (model.Submission, error)

	// Review applies a manual admin decision to a pending submission and,
	// on approval, records the level completion.
	Review(ctx context.Context, id string, approve bool) (model.Submission, error)

	// CompleteLevel marks a level completed for a team. Returns true only
	// the first time the pair is recorded; duplicates are no-ops.
	CompleteLevel(ctx context.Context, teamID, levelID string, at time.Time) (bool, error)

	// ApprovedSubmissions returns all submissions counting toward ranking.
	ApprovedSubmissions(ctx context.Context) []model.Submission

	// FinalLevels returns the IDs of all final levels.
	FinalLevels(ctx context.Context) map[string]bool

	// Count returns the number of registered teams.
	Count(ctx context.Context) int
}
