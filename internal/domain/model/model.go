// Package model contains domain models passed between layers.
package model

import (
	"errors"
	"fmt"
	"time"
)

// SubmissionStatus is the review state of a photo submission.
type SubmissionStatus string

// Submission statuses. Pending is the only non-terminal state.
const (
	StatusPending      SubmissionStatus = "pending"
	StatusAutoApproved SubmissionStatus = "auto_approved"
	StatusApproved     SubmissionStatus = "approved"
	StatusRejected     SubmissionStatus = "rejected"
	StatusAutoRejected SubmissionStatus = "auto_rejected"
)

// ErrInvalidTransition signals a submission status move the state machine forbids.
var ErrInvalidTransition = errors.New("invalid submission status transition")

// Approved reports whether the status counts toward ranking.
func (s SubmissionStatus) Approved() bool {
	return s == StatusAutoApproved || s == StatusApproved
}

// Terminal reports whether the status admits no further transitions.
func (s SubmissionStatus) Terminal() bool {
	return s != StatusPending
}

// Submission represents one uploaded photo for a level.
// Fields mirror the JSON schema for /submissions.
type Submission struct {
	ID              string    // unique id for idempotency
	TeamID          string    // submitting team
	LevelID         string    // target level
	PHash           string    // perceptual hash of the uploaded image
	Descriptors     []byte    // optional feature descriptor blob
	SimilarityScore float64   // match score recorded at decision time
	MatchSource     string    // "main", "alternative" or "features"
	Status          SubmissionStatus
	CreatedAt       time.Time
}

// Transition moves the submission to a new status, enforcing the
// pending -> terminal state machine. Terminal states never change again.
func (s *Submission) Transition(to SubmissionStatus) error {
	if s.Status.Terminal() {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.Status, to)
	}
	switch to {
	case StatusAutoApproved, StatusApproved, StatusRejected, StatusAutoRejected:
		s.Status = to
		return nil
	default:
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.Status, to)
	}
}

// Level is a photo challenge with its reference image hashes.
type Level struct {
	ID          string
	Name        string
	PHash       string   // primary reference hash
	AltPHashes  []string // alternative reference hashes, checked in order
	Descriptors []byte   // optional feature descriptor blob
	IsFinal     bool     // the mandatory closing challenge
}

// Team is a registered marathon team and its progress through its
// assigned level sequence.
type Team struct {
	ID             string
	Name           string
	AssignedLevels []string // level IDs in play order, excluding the final level
	CurrentIndex   int      // index of the next unsolved assigned level
	FinalUnlocked  bool     // set when the last assigned level is cleared
	FinalSubmitted bool     // set when the final level is completed
	StartedAt      time.Time
	TotalTime      int64 // elapsed seconds from start to final submission
	IsWinner       bool
}

// AdvanceLevel records completion of the current assigned level and moves
// the cursor forward. Reaching the end of the sequence unlocks the final
// level. Returns false when there is nothing left to advance.
func (t *Team) AdvanceLevel() bool {
	if t.CurrentIndex >= len(t.AssignedLevels) {
		return false
	}
	t.CurrentIndex++
	if t.CurrentIndex == len(t.AssignedLevels) {
		t.FinalUnlocked = true
	}
	return true
}

// CurrentLevel returns the ID of the next assigned level, or "" when the
// team has cleared its sequence.
func (t *Team) CurrentLevel() string {
	if t.CurrentIndex >= len(t.AssignedLevels) {
		return ""
	}
	return t.AssignedLevels[t.CurrentIndex]
}

// CompleteFinal marks the final level as submitted and freezes the team's
// total time against the given submission timestamp.
func (t *Team) CompleteFinal(at time.Time) {
	if t.FinalSubmitted {
		return
	}
	t.FinalSubmitted = true
	if !t.StartedAt.IsZero() && at.After(t.StartedAt) {
		t.TotalTime = int64(at.Sub(t.StartedAt).Seconds())
	}
}
