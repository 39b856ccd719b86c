package simulate

import (
	"errors"
	"fmt"
)

// Verification errors.
var (
	ErrOrdering  = errors.New("leaderboard ordering violated")
	ErrPositions = errors.New("leaderboard positions violated")
	ErrTies      = errors.New("leaderboard tie flags violated")
)

// verifyLeaderboard checks the structural invariants of an ordered board:
// finished teams stay above unfinished ones, positions are the strict
// 1-based sequence, and equal ranks are flagged as ties.
func verifyLeaderboard(rows []leaderboardRow) error {
	seenUnfinished := false
	for i, row := range rows {
		if row.Position != i+1 {
			return fmt.Errorf("%w: row %d has position %d", ErrPositions, i, row.Position)
		}
		if row.FinalSubmitted && seenUnfinished {
			return fmt.Errorf("%w: finished team %s ranked below an unfinished team", ErrOrdering, row.TeamID)
		}
		if !row.FinalSubmitted {
			seenUnfinished = true
		}
		if i > 0 {
			prev := rows[i-1]
			if row.Rank == prev.Rank && (!row.IsTie || !prev.IsTie) {
				return fmt.Errorf("%w: rows %d and %d share rank %d without tie flags", ErrTies, i-1, i, row.Rank)
			}
			if row.Rank < prev.Rank {
				return fmt.Errorf("%w: rank decreased at row %d", ErrOrdering, i)
			}
		}
	}
	return nil
}
