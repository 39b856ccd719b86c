package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrTeamNotFound        = errors.New("team not found")
	ErrLevelNotFound       = errors.New("level not found")
	ErrSubmissionNotFound  = errors.New("submission not found")
	ErrDuplicateTeam       = errors.New("team already registered")
	ErrDuplicateSubmission = errors.New("submission already recorded")
)
