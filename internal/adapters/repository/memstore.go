package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/okian/snapdash/internal/domain/model"
	"github.com/okian/snapdash/pkg/metrics"
)

// MemStore implements Store with plain maps under a single mutex. The
// marathon runs at tens-to-low-hundreds of teams; a sharded or indexed
// store buys nothing here.
type MemStore struct {
	mu          sync.RWMutex
	teams       map[string]*model.Team
	levels      map[string]*model.Level
	submissions map[string]*model.Submission
	// completions holds team -> level -> done, the at-most-once guard for
	// completion recording. All checks and writes happen under mu, so two
	// near-simultaneous approvals for the same pair cannot both count.
	completions map[string]map[string]bool
}

// NewMemStore creates an in-memory store with configuration options.
func NewMemStore(ctx context.Context, opts ...StoreOption) *MemStore {
	s := &MemStore{
		teams:       make(map[string]*model.Team),
		levels:      make(map[string]*model.Level),
		submissions: make(map[string]*model.Submission),
		completions: make(map[string]map[string]bool),
	}

	for _, opt := range opts {
		opt(ctx, s)
	}

	return s
}

// AddTeam registers a team.
func (s *MemStore) AddTeam(_ context.Context, team model.Team) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.teams[team.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateTeam, team.ID)
	}
	if team.StartedAt.IsZero() {
		team.StartedAt = time.Now()
	}
	s.teams[team.ID] = &team
	metrics.UpdateTotalTeams(len(s.teams))
	return nil
}

// Team returns a copy of the team.
func (s *MemStore) Team(_ context.Context, id string) (model.Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.teams[id]
	if !ok {
		return model.Team{}, fmt.Errorf("%w: %s", ErrTeamNotFound, id)
	}
	return cloneTeam(t), nil
}

// Teams returns a snapshot of all teams.
func (s *MemStore) Teams(_ context.Context) []model.Team {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Team, 0, len(s.teams))
	for _, t := range s.teams {
		out = append(out, cloneTeam(t))
	}
	return out
}

// PutLevel creates or replaces a level.
func (s *MemStore) PutLevel(_ context.Context, level model.Level) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.levels[level.ID] = &level
	return nil
}

// Level returns a copy of the level.
func (s *MemStore) Level(_ context.Context, id string) (model.Level, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.levels[id]
	if !ok {
		return model.Level{}, fmt.Errorf("%w: %s", ErrLevelNotFound, id)
	}
	return *l, nil
}

// RecordSubmission stores a new pending submission.
func (s *MemStore) RecordSubmission(_ context.Context, sub model.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.submissions[sub.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateSubmission, sub.ID)
	}
	if sub.Status == "" {
		sub.Status = model.StatusPending
	}
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now()
	}
	s.submissions[sub.ID] = &sub
	return nil
}

// Submission returns a copy of the submission.
func (s *MemStore) Submission(_ context.Context, id string) (model.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sub, ok := s.submissions[id]
	if !ok {
		return model.Submission{}, fmt.Errorf("%w: %s", ErrSubmissionNotFound, id)
	}
	return *sub, nil
}

// SetDecision applies the match verdict to a pending submission. A status
// of pending leaves the submission awaiting manual review but still records
// the score for the admin to see.
func (s *MemStore) SetDecision(_ context.Context, id string, score float64, source string, status model.SubmissionStatus) (model.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub, ok := s.submissions[id]
	if !ok {
		return model.Submission{}, fmt.Errorf("%w: %s", ErrSubmissionNotFound, id)
	}
	sub.SimilarityScore = score
	sub.MatchSource = source
	if status != model.StatusPending {
		if err := sub.Transition(status); err != nil {
			return model.Submission{}, err
		}
	}
	return *sub, nil
}

// Review applies a manual admin decision. Approval also records the level
// completion so manually approved photos count like auto-approved ones.
func (s *MemStore) Review(ctx context.Context, id string, approve bool) (model.Submission, error) {
	s.mu.Lock()
	sub, ok := s.submissions[id]
	if !ok {
		s.mu.Unlock()
		return model.Submission{}, fmt.Errorf("%w: %s", ErrSubmissionNotFound, id)
	}

	status := model.StatusRejected
	if approve {
		status = model.StatusApproved
	}
	if err := sub.Transition(status); err != nil {
		s.mu.Unlock()
		return model.Submission{}, err
	}
	out := *sub
	s.mu.Unlock()

	if approve {
		if _, err := s.CompleteLevel(ctx, out.TeamID, out.LevelID, out.CreatedAt); err != nil {
			return out, err
		}
	}
	return out, nil
}

// CompleteLevel conditionally records a (team, level) completion and
// advances the team's progress. The first caller wins; any later attempt
// for the same pair returns false.
func (s *MemStore) CompleteLevel(_ context.Context, teamID, levelID string, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	team, ok := s.teams[teamID]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrTeamNotFound, teamID)
	}
	level, ok := s.levels[levelID]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrLevelNotFound, levelID)
	}

	done := s.completions[teamID]
	if done == nil {
		done = make(map[string]bool)
		s.completions[teamID] = done
	}
	if done[levelID] {
		return false, nil
	}
	done[levelID] = true

	if level.IsFinal {
		team.CompleteFinal(at)
	} else {
		team.AdvanceLevel()
	}
	metrics.RecordLevelCompletion()
	return true, nil
}

// DeleteSubmission removes a recorded submission. Used to roll back a
// record whose enqueue failed, so a client retry is not rejected as a
// duplicate.
func (s *MemStore) DeleteSubmission(_ context.Context, id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.submissions, id)
}

// ApprovedSubmissions returns all approved submissions, auto or manual.
func (s *MemStore) ApprovedSubmissions(_ context.Context) []model.Submission {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.Submission, 0, len(s.submissions))
	for _, sub := range s.submissions {
		if sub.Status.Approved() {
			out = append(out, *sub)
		}
	}
	return out
}

// FinalLevels returns the IDs of all final levels.
func (s *MemStore) FinalLevels(_ context.Context) map[string]bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]bool)
	for id, l := range s.levels {
		if l.IsFinal {
			out[id] = true
		}
	}
	return out
}

// Count returns the number of registered teams.
func (s *MemStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.teams)
}

// cloneTeam copies a team including its level slice so callers cannot
// mutate store state.
func cloneTeam(t *model.Team) model.Team {
	out := *t
	out.AssignedLevels = append([]string(nil), t.AssignedLevels...)
	return out
}
