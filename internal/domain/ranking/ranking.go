// Package ranking computes the marathon leaderboard from team progress and
// approved submissions. The computation is pure and recomputed in full on
// every call; at the expected team counts there is nothing to cache.
package ranking

import (
	"sort"
	"time"

	"github.com/okian/snapdash/internal/domain/model"
)

// Points model constants.
const (
	pointsPerLevel   = 100
	finalBonusPoints = 500
	timeBonusBase    = 1000
	secondsPerMinute = 60
)

// Record is one leaderboard row for a team. Derived entirely from persisted
// state, never stored itself.
type Record struct {
	TeamID                  string     `json:"teamId"`
	TeamName                string     `json:"teamName"`
	CompletedLevels         int        `json:"completedLevels"`
	TotalLevels             int        `json:"totalLevels"`
	FinalSubmitted          bool       `json:"finalSubmitted"`
	TotalTime               int64      `json:"totalTime"`
	AverageScore            float64    `json:"averageScore"`
	TotalPoints             int        `json:"totalPoints"`
	IsWinner                bool       `json:"isWinner"`
	LastActivity            *time.Time `json:"lastActivity"`
	CompletionRate          float64    `json:"completionRate"`
	FormattedSubmissionTime string     `json:"formattedSubmissionTime"`
	Rank                    int        `json:"rank"`
	IsTie                   bool       `json:"isTie"`
	Position                int        `json:"position"`
}

// Leaderboard produces the total order over all teams. Only approved
// submissions (auto or manual) may be passed in; rejected and pending ones
// must be filtered out by the caller. finalLevels names the level IDs whose
// completion is already covered by the team's FinalSubmitted flag, so their
// submissions never double-count as assigned-level progress. Finished teams
// always rank above unfinished ones regardless of points.
func Leaderboard(teams []model.Team, approved []model.Submission, finalLevels map[string]bool) []Record {
	if len(teams) == 0 {
		return []Record{}
	}

	byTeam := make(map[string][]model.Submission, len(teams))
	for _, sub := range approved {
		byTeam[sub.TeamID] = append(byTeam[sub.TeamID], sub)
	}

	records := make([]Record, 0, len(teams))
	for i := range teams {
		records = append(records, buildRecord(&teams[i], byTeam[teams[i].ID], finalLevels))
	}

	var finished, unfinished []Record
	for _, r := range records {
		if r.FinalSubmitted {
			finished = append(finished, r)
		} else {
			unfinished = append(unfinished, r)
		}
	}

	// Race semantics: earliest finisher first.
	sort.SliceStable(finished, func(i, j int) bool {
		a, b := finished[i], finished[j]
		if c := compareTimesAsc(a.LastActivity, b.LastActivity); c != 0 {
			return c < 0
		}
		if a.CompletedLevels != b.CompletedLevels {
			return a.CompletedLevels > b.CompletedLevels
		}
		if a.AverageScore != b.AverageScore {
			return a.AverageScore > b.AverageScore
		}
		return a.TeamName < b.TeamName
	})

	// Unfinished teams order by progress.
	sort.SliceStable(unfinished, func(i, j int) bool {
		a, b := unfinished[i], unfinished[j]
		if a.CompletedLevels != b.CompletedLevels {
			return a.CompletedLevels > b.CompletedLevels
		}
		if c := compareTimesAsc(a.LastActivity, b.LastActivity); c != 0 {
			return c < 0
		}
		if a.AverageScore != b.AverageScore {
			return a.AverageScore > b.AverageScore
		}
		return a.TeamName < b.TeamName
	})

	ordered := append(finished, unfinished...)
	assignRanks(ordered)
	return ordered
}

// buildRecord derives the per-team metrics from its approved submissions.
// Final-level submissions feed the average score and last-activity time but
// not the distinct completion count; the FinalSubmitted increment below is
// that level's completion.
func buildRecord(team *model.Team, subs []model.Submission, finalLevels map[string]bool) Record {
	completedSet := make(map[string]struct{}, len(subs))
	var scoreSum float64
	var last *time.Time
	for i := range subs {
		if !finalLevels[subs[i].LevelID] {
			completedSet[subs[i].LevelID] = struct{}{}
		}
		scoreSum += subs[i].SimilarityScore
		if last == nil || subs[i].CreatedAt.After(*last) {
			t := subs[i].CreatedAt
			last = &t
		}
	}

	completed := len(completedSet)
	if team.FinalSubmitted {
		completed++
	}

	// +1 unconditionally for the mandatory final level.
	total := len(team.AssignedLevels) + 1

	avg := 0.0
	if len(subs) > 0 {
		avg = scoreSum / float64(len(subs))
	}

	timeBonus := timeBonusBase - int(team.TotalTime/secondsPerMinute)
	if timeBonus < 0 {
		timeBonus = 0
	}
	points := completed * pointsPerLevel
	if team.FinalSubmitted {
		points += finalBonusPoints
	}
	points += timeBonus

	rate := 0.0
	if total > 0 {
		rate = float64(completed) / float64(total)
	}

	formatted := ""
	if last != nil {
		formatted = last.Format("15:04:05")
	}

	return Record{
		TeamID:                  team.ID,
		TeamName:                team.Name,
		CompletedLevels:         completed,
		TotalLevels:             total,
		FinalSubmitted:          team.FinalSubmitted,
		TotalTime:               team.TotalTime,
		AverageScore:            avg,
		TotalPoints:             points,
		IsWinner:                team.IsWinner,
		LastActivity:            last,
		CompletionRate:          rate,
		FormattedSubmissionTime: formatted,
	}
}

// assignRanks walks the ordered list once. The rank increments only when the
// scoring tuple differs from the previous record; equal tuples share a rank
// and both carry the tie flag. Position is always the strict 1-based index.
func assignRanks(records []Record) {
	rank := 0
	for i := range records {
		records[i].Position = i + 1
		if i > 0 && sameTuple(&records[i], &records[i-1]) {
			records[i].Rank = rank
			records[i].IsTie = true
			records[i-1].IsTie = true
			continue
		}
		rank++
		records[i].Rank = rank
	}
}

// sameTuple compares the fields that define ranking equality.
func sameTuple(a, b *Record) bool {
	return a.TotalPoints == b.TotalPoints &&
		a.CompletedLevels == b.CompletedLevels &&
		a.FinalSubmitted == b.FinalSubmitted &&
		a.TotalTime == b.TotalTime &&
		a.AverageScore == b.AverageScore
}

// compareTimesAsc orders timestamps ascending with nil sorting last, so a
// finished team without a recorded submission time never beats one with one.
func compareTimesAsc(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return 1
	case b == nil:
		return -1
	case a.Before(*b):
		return -1
	case b.Before(*a):
		return 1
	default:
		return 0
	}
}
