package ranking_test

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/okian/snapdash/internal/domain/model"
	"github.com/okian/snapdash/internal/domain/ranking"
	. "github.com/smartystreets/goconvey/convey"
)

var baseTime = time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)

func approvedSub(teamID, levelID string, score float64, at time.Time) model.Submission {
	return model.Submission{
		ID:              teamID + "-" + levelID,
		TeamID:          teamID,
		LevelID:         levelID,
		SimilarityScore: score,
		Status:          model.StatusAutoApproved,
		CreatedAt:       at,
	}
}

func TestLeaderboard(t *testing.T) {
	Convey("Given no teams", t, func() {
		Convey("The board is an empty slice, not nil", func() {
			board := ranking.Leaderboard(nil, nil, nil)
			So(board, ShouldNotBeNil)
			So(board, ShouldBeEmpty)
		})
	})

	Convey("Given a team with no approved submissions", t, func() {
		teams := []model.Team{{ID: "t1", Name: "alpha", AssignedLevels: []string{"l1", "l2"}}}
		board := ranking.Leaderboard(teams, nil, nil)

		Convey("The average score is zero, not NaN", func() {
			So(len(board), ShouldEqual, 1)
			So(board[0].AverageScore, ShouldEqual, 0)
			So(board[0].CompletedLevels, ShouldEqual, 0)
		})

		Convey("Total levels include the mandatory final level", func() {
			So(board[0].TotalLevels, ShouldEqual, 3)
		})

		Convey("The single record still gets rank and position one", func() {
			So(board[0].Rank, ShouldEqual, 1)
			So(board[0].Position, ShouldEqual, 1)
			So(board[0].IsTie, ShouldBeFalse)
		})
	})

	Convey("Given a finished team and a further-progressed unfinished team", t, func() {
		teams := []model.Team{
			{ID: "a", Name: "finished", AssignedLevels: []string{"l1", "l2", "l3"}, FinalSubmitted: true, TotalTime: 1800},
			{ID: "b", Name: "grinder", AssignedLevels: []string{"l1", "l2", "l3", "l4", "l5", "l6"}},
		}
		subs := []model.Submission{
			approvedSub("a", "l1", 0.9, baseTime.Add(1*time.Minute)),
			approvedSub("a", "l2", 0.9, baseTime.Add(2*time.Minute)),
			approvedSub("a", "l3", 0.9, baseTime.Add(3*time.Minute)),
			approvedSub("b", "l1", 1.0, baseTime.Add(1*time.Minute)),
			approvedSub("b", "l2", 1.0, baseTime.Add(2*time.Minute)),
			approvedSub("b", "l3", 1.0, baseTime.Add(3*time.Minute)),
			approvedSub("b", "l4", 1.0, baseTime.Add(4*time.Minute)),
			approvedSub("b", "l5", 1.0, baseTime.Add(5*time.Minute)),
		}
		board := ranking.Leaderboard(teams, subs, nil)

		Convey("The finished team ranks first despite fewer completed levels", func() {
			So(len(board), ShouldEqual, 2)
			So(board[0].TeamID, ShouldEqual, "a")
			So(board[0].FinalSubmitted, ShouldBeTrue)
			So(board[1].TeamID, ShouldEqual, "b")
		})

		Convey("Completed levels count the final submission for the finisher", func() {
			So(board[0].CompletedLevels, ShouldEqual, 4)
			So(board[1].CompletedLevels, ShouldEqual, 5)
		})
	})

	Convey("Given two finished teams", t, func() {
		teams := []model.Team{
			{ID: "slow", Name: "slow", AssignedLevels: []string{"l1"}, FinalSubmitted: true, TotalTime: 3600},
			{ID: "fast", Name: "fast", AssignedLevels: []string{"l1"}, FinalSubmitted: true, TotalTime: 1200},
		}
		subs := []model.Submission{
			approvedSub("slow", "l1", 0.9, baseTime.Add(60*time.Minute)),
			approvedSub("fast", "l1", 0.9, baseTime.Add(20*time.Minute)),
		}
		board := ranking.Leaderboard(teams, subs, nil)

		Convey("The earlier finisher ranks first", func() {
			So(board[0].TeamID, ShouldEqual, "fast")
			So(board[1].TeamID, ShouldEqual, "slow")
		})

		Convey("The faster team earns the bigger time bonus", func() {
			// 2 completed * 100 + 500 final + (1000 - minutes).
			So(board[0].TotalPoints, ShouldEqual, 2*100+500+(1000-20))
			So(board[1].TotalPoints, ShouldEqual, 2*100+500+(1000-60))
		})
	})

	Convey("Given a team slower than the time bonus window", t, func() {
		teams := []model.Team{
			{ID: "t", Name: "tortoise", AssignedLevels: []string{"l1"}, FinalSubmitted: true, TotalTime: 90000},
		}
		board := ranking.Leaderboard(teams, []model.Submission{
			approvedSub("t", "l1", 0.5, baseTime),
		}, nil)

		Convey("The time bonus clamps at zero instead of going negative", func() {
			So(board[0].TotalPoints, ShouldEqual, 2*100+500)
		})
	})

	Convey("Given duplicate approved submissions for the same level", t, func() {
		teams := []model.Team{{ID: "t", Name: "dup", AssignedLevels: []string{"l1", "l2"}}}
		subs := []model.Submission{
			approvedSub("t", "l1", 0.8, baseTime),
			approvedSub("t", "l1", 1.0, baseTime.Add(time.Minute)),
		}
		board := ranking.Leaderboard(teams, subs, nil)

		Convey("The level counts once but both scores feed the average", func() {
			So(board[0].CompletedLevels, ShouldEqual, 1)
			So(board[0].AverageScore, ShouldEqual, 0.9)
		})
	})

	Convey("Given two identically scored unfinished teams", t, func() {
		shared := baseTime.Add(10 * time.Minute)
		teams := []model.Team{
			{ID: "x", Name: "xray", AssignedLevels: []string{"l1", "l2"}},
			{ID: "y", Name: "yankee", AssignedLevels: []string{"l1", "l2"}},
		}
		subs := []model.Submission{
			approvedSub("x", "l1", 0.9, shared),
			approvedSub("y", "l1", 0.9, shared),
		}
		board := ranking.Leaderboard(teams, subs, nil)

		Convey("They share a rank and both carry the tie flag", func() {
			So(board[0].Rank, ShouldEqual, board[1].Rank)
			So(board[0].IsTie, ShouldBeTrue)
			So(board[1].IsTie, ShouldBeTrue)
		})

		Convey("Positions stay the strict 1-based sequence", func() {
			So(board[0].Position, ShouldEqual, 1)
			So(board[1].Position, ShouldEqual, 2)
		})

		Convey("Alphabetical team name breaks the display order", func() {
			So(board[0].TeamName, ShouldEqual, "xray")
		})
	})

	Convey("Given a tie followed by a distinct team", t, func() {
		shared := baseTime.Add(5 * time.Minute)
		teams := []model.Team{
			{ID: "a", Name: "a", AssignedLevels: []string{"l1", "l2"}},
			{ID: "b", Name: "b", AssignedLevels: []string{"l1", "l2"}},
			{ID: "c", Name: "c", AssignedLevels: []string{"l1", "l2"}},
		}
		subs := []model.Submission{
			approvedSub("a", "l1", 0.9, shared),
			approvedSub("b", "l1", 0.9, shared),
			approvedSub("c", "l1", 0.5, shared),
		}
		board := ranking.Leaderboard(teams, subs, nil)

		Convey("The rank after the tie is dense, not skipped", func() {
			So(board[0].Rank, ShouldEqual, 1)
			So(board[1].Rank, ShouldEqual, 1)
			So(board[2].Rank, ShouldEqual, 2)
			So(board[2].IsTie, ShouldBeFalse)
			So(board[2].Position, ShouldEqual, 3)
		})
	})

	Convey("Given a finisher whose final submission sits in the store", t, func() {
		teams := []model.Team{
			{ID: "t", Name: "done", AssignedLevels: []string{"l1"}, FinalSubmitted: true, TotalTime: 600},
		}
		subs := []model.Submission{
			approvedSub("t", "l1", 0.9, baseTime.Add(5*time.Minute)),
			approvedSub("t", "final", 0.8, baseTime.Add(10*time.Minute)),
		}
		board := ranking.Leaderboard(teams, subs, map[string]bool{"final": true})

		Convey("The final level counts once, not as submission plus flag", func() {
			So(board[0].CompletedLevels, ShouldEqual, 2)
			So(board[0].TotalLevels, ShouldEqual, 2)
			So(board[0].CompletionRate, ShouldEqual, 1.0)
			So(board[0].TotalPoints, ShouldEqual, 2*100+500+(1000-10))
		})

		Convey("The final submission still feeds the average and last activity", func() {
			So(board[0].AverageScore, ShouldAlmostEqual, 0.85)
			So(board[0].FormattedSubmissionTime, ShouldEqual, "10:10:00")
		})
	})

	Convey("Given records with activity timestamps", t, func() {
		at := time.Date(2026, 8, 30, 14, 32, 7, 0, time.UTC)
		teams := []model.Team{{ID: "t", Name: "clock", AssignedLevels: []string{"l1"}}}
		board := ranking.Leaderboard(teams, []model.Submission{approvedSub("t", "l1", 1, at)}, nil)

		Convey("The wall-clock display time is formatted HH:MM:SS", func() {
			So(board[0].FormattedSubmissionTime, ShouldEqual, "14:32:07")
			So(board[0].LastActivity, ShouldNotBeNil)
			So(board[0].LastActivity.Equal(at), ShouldBeTrue)
		})
	})
}

func TestRecordJSONRoundTrip(t *testing.T) {
	Convey("Given a fully populated record", t, func() {
		at := baseTime.Add(42 * time.Minute)
		in := ranking.Record{
			TeamID:                  "t1",
			TeamName:                "alpha",
			CompletedLevels:         4,
			TotalLevels:             6,
			FinalSubmitted:          true,
			TotalTime:               2520,
			AverageScore:            0.925,
			TotalPoints:             1858,
			LastActivity:            &at,
			CompletionRate:          4.0 / 6.0,
			FormattedSubmissionTime: "10:42:00",
			Rank:                    2,
			IsTie:                   true,
			Position:                3,
		}

		Convey("JSON marshalling round-trips rank, tie and position exactly", func() {
			buf, err := json.Marshal(in)
			So(err, ShouldBeNil)

			var out ranking.Record
			So(json.Unmarshal(buf, &out), ShouldBeNil)
			So(out.Rank, ShouldEqual, in.Rank)
			So(out.IsTie, ShouldEqual, in.IsTie)
			So(out.Position, ShouldEqual, in.Position)
			So(out.TotalPoints, ShouldEqual, in.TotalPoints)
			So(out.AverageScore, ShouldEqual, in.AverageScore)
		})

		Convey("The wire field names follow the API schema", func() {
			buf, err := json.Marshal(in)
			So(err, ShouldBeNil)
			So(string(buf), ShouldContainSubstring, `"teamId"`)
			So(string(buf), ShouldContainSubstring, `"isTie"`)
			So(string(buf), ShouldContainSubstring, `"completionRate"`)
		})
	})
}

func TestCSVRoundTrip(t *testing.T) {
	Convey("Given an ordered board with a tie", t, func() {
		shared := baseTime.Add(5 * time.Minute)
		teams := []model.Team{
			{ID: "a", Name: "a", AssignedLevels: []string{"l1"}},
			{ID: "b", Name: "b", AssignedLevels: []string{"l1"}},
		}
		subs := []model.Submission{
			approvedSub("a", "l1", 0.75, shared),
			approvedSub("b", "l1", 0.75, shared),
		}
		board := ranking.Leaderboard(teams, subs, nil)

		Convey("When exported and parsed back", func() {
			var buf bytes.Buffer
			So(ranking.WriteCSV(&buf, board), ShouldBeNil)

			parsed, err := ranking.ReadCSV(&buf)
			So(err, ShouldBeNil)

			Convey("Then rank, position and the numeric fields survive losslessly", func() {
				So(len(parsed), ShouldEqual, len(board))
				for i := range board {
					So(parsed[i].Rank, ShouldEqual, board[i].Rank)
					So(parsed[i].Position, ShouldEqual, board[i].Position)
					So(parsed[i].TeamName, ShouldEqual, board[i].TeamName)
					So(parsed[i].CompletedLevels, ShouldEqual, board[i].CompletedLevels)
					So(parsed[i].FinalSubmitted, ShouldEqual, board[i].FinalSubmitted)
					So(parsed[i].TotalTime, ShouldEqual, board[i].TotalTime)
					So(parsed[i].AverageScore, ShouldEqual, board[i].AverageScore)
				}
			})
		})
	})

	Convey("Given an export with no data rows", t, func() {
		var buf bytes.Buffer
		So(ranking.WriteCSV(&buf, nil), ShouldBeNil)

		Convey("Parsing yields an empty slice", func() {
			parsed, err := ranking.ReadCSV(&buf)
			So(err, ShouldBeNil)
			So(parsed, ShouldBeEmpty)
		})
	})
}
