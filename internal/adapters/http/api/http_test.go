package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/okian/snapdash/internal/adapters/http/api"
	"github.com/okian/snapdash/internal/adapters/repository"
	"github.com/okian/snapdash/internal/domain/model"
	"github.com/okian/snapdash/internal/domain/ranking"
	logging "github.com/okian/snapdash/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

// fakeDeps implements api.Dependencies and api.StatsProvider with canned
// behavior for handler tests.
type fakeDeps struct {
	seen      map[string]struct{}
	enqueued  []model.Submission
	enqueueOK bool
	board     []ranking.Record
	teams     map[string]model.Team
	levels    map[string]model.Level
	reviewErr error
}

func newFakeDeps() *fakeDeps {
	return &fakeDeps{
		seen:      make(map[string]struct{}),
		enqueueOK: true,
		board:     []ranking.Record{},
		teams:     make(map[string]model.Team),
		levels:    make(map[string]model.Level),
	}
}

func (f *fakeDeps) SeenAndRecord(_ context.Context, id string) bool {
	if _, ok := f.seen[id]; ok {
		return true
	}
	f.seen[id] = struct{}{}
	return false
}

func (f *fakeDeps) Unrecord(_ context.Context, id string) {
	delete(f.seen, id)
}

func (f *fakeDeps) Size() int64 {
	return int64(len(f.seen))
}

func (f *fakeDeps) Enqueue(_ context.Context, sub model.Submission) bool {
	if !f.enqueueOK {
		return false
	}
	f.enqueued = append(f.enqueued, sub)
	return true
}

func (f *fakeDeps) Leaderboard(_ context.Context) []ranking.Record {
	return f.board
}

func (f *fakeDeps) TeamRanking(_ context.Context, teamID string) (ranking.Record, error) {
	for _, r := range f.board {
		if r.TeamID == teamID {
			return r, nil
		}
	}
	return ranking.Record{}, fmt.Errorf("team ranking %s: %w", teamID, repository.ErrTeamNotFound)
}

func (f *fakeDeps) RegisterTeam(_ context.Context, team model.Team) error {
	if _, ok := f.teams[team.ID]; ok {
		return fmt.Errorf("duplicate team: %s", team.ID)
	}
	f.teams[team.ID] = team
	return nil
}

func (f *fakeDeps) CreateLevel(_ context.Context, level model.Level) error {
	f.levels[level.ID] = level
	return nil
}

func (f *fakeDeps) Review(_ context.Context, submissionID string, approve bool) (model.Submission, error) {
	if f.reviewErr != nil {
		return model.Submission{}, f.reviewErr
	}
	sub := model.Submission{ID: submissionID}
	sub.Status = model.StatusRejected
	if approve {
		sub.Status = model.StatusApproved
	}
	return sub, nil
}

func (f *fakeDeps) GetStats() map[string]interface{} {
	return map[string]interface{}{"teams": len(f.teams)}
}

func newTestServer(deps *fakeDeps, maxLimit int) *httptest.Server {
	mux := http.NewServeMux()
	api.NewServer(deps, deps, maxLimit).Register(context.Background(), mux)
	return httptest.NewServer(mux)
}

func postJSON(t *testing.T, url string, body any) *http.Response {
	t.Helper()
	buf, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(buf))
	if err != nil {
		t.Fatalf("post %s: %v", url, err)
	}
	return resp
}

func validSubmission(id string) map[string]any {
	return map[string]any{
		"submission_id": id,
		"team_id":       "t1",
		"level_id":      "l1",
		"phash":         strings.Repeat("a", 64),
		"ts":            time.Now().UTC().Format(time.RFC3339),
	}
}

func TestHandlePostSubmission(t *testing.T) {
	Convey("Given the submissions endpoint", t, func() {
		_ = logging.Init()
		deps := newFakeDeps()
		srv := newTestServer(deps, 500)
		defer srv.Close()

		Convey("A valid submission is accepted for async processing", func() {
			resp := postJSON(t, srv.URL+"/submissions", validSubmission("s1"))
			defer resp.Body.Close()

			So(resp.StatusCode, ShouldEqual, http.StatusAccepted)

			var ack struct {
				Status    string `json:"status"`
				Duplicate bool   `json:"duplicate"`
			}
			So(json.NewDecoder(resp.Body).Decode(&ack), ShouldBeNil)
			So(ack.Status, ShouldEqual, "accepted")
			So(ack.Duplicate, ShouldBeFalse)
			So(len(deps.enqueued), ShouldEqual, 1)
			So(deps.enqueued[0].Status, ShouldEqual, model.StatusPending)
		})

		Convey("A repeated submission ID is acknowledged as a duplicate", func() {
			resp := postJSON(t, srv.URL+"/submissions", validSubmission("s1"))
			resp.Body.Close()
			resp = postJSON(t, srv.URL+"/submissions", validSubmission("s1"))
			defer resp.Body.Close()

			So(resp.StatusCode, ShouldEqual, http.StatusOK)

			var ack struct {
				Duplicate bool `json:"duplicate"`
			}
			So(json.NewDecoder(resp.Body).Decode(&ack), ShouldBeNil)
			So(ack.Duplicate, ShouldBeTrue)
			So(len(deps.enqueued), ShouldEqual, 1)
		})

		Convey("An empty phash is accepted rather than rejected", func() {
			body := validSubmission("s1")
			body["phash"] = ""
			resp := postJSON(t, srv.URL+"/submissions", body)
			defer resp.Body.Close()

			So(resp.StatusCode, ShouldEqual, http.StatusAccepted)
		})

		Convey("Missing required fields are rejected", func() {
			for _, field := range []string{"submission_id", "team_id", "level_id", "ts"} {
				body := validSubmission("s1")
				delete(body, field)
				resp := postJSON(t, srv.URL+"/submissions", body)
				resp.Body.Close()
				So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
			}
		})

		Convey("A malformed timestamp is rejected", func() {
			body := validSubmission("s1")
			body["ts"] = "yesterday"
			resp := postJSON(t, srv.URL+"/submissions", body)
			defer resp.Body.Close()

			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})

		Convey("Backpressure returns 429 and unwinds the idempotency record", func() {
			deps.enqueueOK = false
			resp := postJSON(t, srv.URL+"/submissions", validSubmission("s1"))
			defer resp.Body.Close()

			So(resp.StatusCode, ShouldEqual, http.StatusTooManyRequests)
			So(deps.Size(), ShouldEqual, 0)

			Convey("So a retry of the same ID can succeed", func() {
				deps.enqueueOK = true
				retry := postJSON(t, srv.URL+"/submissions", validSubmission("s1"))
				defer retry.Body.Close()
				So(retry.StatusCode, ShouldEqual, http.StatusAccepted)
			})
		})

		Convey("GET on the submissions endpoint is not found", func() {
			resp, err := http.Get(srv.URL + "/submissions")
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestHandleGetLeaderboard(t *testing.T) {
	Convey("Given a board with three teams", t, func() {
		_ = logging.Init()
		deps := newFakeDeps()
		deps.board = []ranking.Record{
			{TeamID: "a", Rank: 1, Position: 1},
			{TeamID: "b", Rank: 1, Position: 2, IsTie: true},
			{TeamID: "c", Rank: 2, Position: 3},
		}
		srv := newTestServer(deps, 2)
		defer srv.Close()

		Convey("The full board comes back without a limit", func() {
			resp, err := http.Get(srv.URL + "/leaderboard")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			var rows []ranking.Record
			So(json.NewDecoder(resp.Body).Decode(&rows), ShouldBeNil)
			So(len(rows), ShouldEqual, 3)
		})

		Convey("A limit truncates after ranking, preserving positions", func() {
			resp, err := http.Get(srv.URL + "/leaderboard?limit=2")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			var rows []ranking.Record
			So(json.NewDecoder(resp.Body).Decode(&rows), ShouldBeNil)
			So(len(rows), ShouldEqual, 2)
			So(rows[1].Position, ShouldEqual, 2)
			So(rows[1].IsTie, ShouldBeTrue)
		})

		Convey("A limit above the configured maximum is rejected", func() {
			resp, err := http.Get(srv.URL + "/leaderboard?limit=3")
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})

		Convey("A non-numeric limit is rejected", func() {
			resp, err := http.Get(srv.URL + "/leaderboard?limit=lots")
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestHandleExport(t *testing.T) {
	Convey("Given the CSV export endpoint", t, func() {
		_ = logging.Init()
		deps := newFakeDeps()
		deps.board = []ranking.Record{
			{TeamID: "a", TeamName: "alpha", Rank: 1, Position: 1, CompletedLevels: 3},
		}
		srv := newTestServer(deps, 500)
		defer srv.Close()

		Convey("The export is served as a CSV attachment", func() {
			resp, err := http.Get(srv.URL + "/leaderboard/export")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			So(resp.Header.Get("Content-Type"), ShouldStartWith, "text/csv")
			So(resp.Header.Get("Content-Disposition"), ShouldContainSubstring, "leaderboard.csv")

			parsed, err := ranking.ReadCSV(resp.Body)
			So(err, ShouldBeNil)
			So(len(parsed), ShouldEqual, 1)
			So(parsed[0].TeamName, ShouldEqual, "alpha")
			So(parsed[0].Rank, ShouldEqual, 1)
		})
	})
}

func TestHandleTeams(t *testing.T) {
	Convey("Given the teams endpoints", t, func() {
		_ = logging.Init()
		deps := newFakeDeps()
		deps.board = []ranking.Record{{TeamID: "t1", TeamName: "alpha", Rank: 1, Position: 1}}
		srv := newTestServer(deps, 500)
		defer srv.Close()

		Convey("Registering a team returns its ID", func() {
			resp := postJSON(t, srv.URL+"/teams", map[string]any{
				"team_id":         "t9",
				"name":            "niner",
				"assigned_levels": []string{"l1", "l2"},
			})
			defer resp.Body.Close()

			So(resp.StatusCode, ShouldEqual, http.StatusCreated)
			var out struct {
				TeamID string `json:"team_id"`
			}
			So(json.NewDecoder(resp.Body).Decode(&out), ShouldBeNil)
			So(out.TeamID, ShouldEqual, "t9")
		})

		Convey("A team without an ID gets a generated one", func() {
			resp := postJSON(t, srv.URL+"/teams", map[string]any{"name": "anon"})
			defer resp.Body.Close()

			So(resp.StatusCode, ShouldEqual, http.StatusCreated)
			var out struct {
				TeamID string `json:"team_id"`
			}
			So(json.NewDecoder(resp.Body).Decode(&out), ShouldBeNil)
			So(out.TeamID, ShouldNotBeEmpty)
		})

		Convey("A team without a name is rejected", func() {
			resp := postJSON(t, srv.URL+"/teams", map[string]any{"team_id": "t9"})
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})

		Convey("Registering the same team twice conflicts", func() {
			resp := postJSON(t, srv.URL+"/teams", map[string]any{"team_id": "t9", "name": "niner"})
			resp.Body.Close()
			resp = postJSON(t, srv.URL+"/teams", map[string]any{"team_id": "t9", "name": "niner"})
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusConflict)
		})

		Convey("A team's ranking is fetched by ID", func() {
			resp, err := http.Get(srv.URL + "/teams/t1/ranking")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			var row ranking.Record
			So(json.NewDecoder(resp.Body).Decode(&row), ShouldBeNil)
			So(row.TeamName, ShouldEqual, "alpha")
		})

		Convey("An unknown team's ranking is not found", func() {
			resp, err := http.Get(srv.URL + "/teams/ghost/ranking")
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
		})
	})
}

func TestHandleLevels(t *testing.T) {
	Convey("Given the levels endpoint", t, func() {
		_ = logging.Init()
		deps := newFakeDeps()
		srv := newTestServer(deps, 500)
		defer srv.Close()

		Convey("A valid level is created", func() {
			resp := postJSON(t, srv.URL+"/levels", map[string]any{
				"level_id": "l1",
				"name":     "fountain",
				"phash":    strings.Repeat("a", 64),
				"is_final": false,
			})
			defer resp.Body.Close()

			So(resp.StatusCode, ShouldEqual, http.StatusCreated)
			So(deps.levels["l1"].Name, ShouldEqual, "fountain")
		})

		Convey("A level without a phash is rejected", func() {
			resp := postJSON(t, srv.URL+"/levels", map[string]any{"name": "nohash"})
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestHandleReview(t *testing.T) {
	Convey("Given the review endpoint", t, func() {
		_ = logging.Init()
		deps := newFakeDeps()
		srv := newTestServer(deps, 500)
		defer srv.Close()

		Convey("An approval comes back with the approved status", func() {
			resp := postJSON(t, srv.URL+"/review", map[string]any{
				"submission_id": "s1",
				"approve":       true,
			})
			defer resp.Body.Close()

			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			var out struct {
				SubmissionID string `json:"submission_id"`
				Status       string `json:"status"`
			}
			So(json.NewDecoder(resp.Body).Decode(&out), ShouldBeNil)
			So(out.SubmissionID, ShouldEqual, "s1")
			So(out.Status, ShouldEqual, string(model.StatusApproved))
		})

		Convey("A rejection comes back with the rejected status", func() {
			resp := postJSON(t, srv.URL+"/review", map[string]any{"submission_id": "s1"})
			defer resp.Body.Close()

			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			var out struct {
				Status string `json:"status"`
			}
			So(json.NewDecoder(resp.Body).Decode(&out), ShouldBeNil)
			So(out.Status, ShouldEqual, string(model.StatusRejected))
		})

		Convey("Reviewing an already decided submission conflicts", func() {
			deps.reviewErr = fmt.Errorf("%w: approved -> rejected", model.ErrInvalidTransition)
			resp := postJSON(t, srv.URL+"/review", map[string]any{"submission_id": "s1"})
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusConflict)
		})

		Convey("Reviewing an unknown submission is not found", func() {
			deps.reviewErr = fmt.Errorf("review submission: %w", repository.ErrSubmissionNotFound)
			resp := postJSON(t, srv.URL+"/review", map[string]any{"submission_id": "ghost"})
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusNotFound)
		})

		Convey("A review without a submission ID is rejected", func() {
			resp := postJSON(t, srv.URL+"/review", map[string]any{"approve": true})
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusBadRequest)
		})
	})
}

func TestHandleHealthAndStats(t *testing.T) {
	Convey("Given the operational endpoints", t, func() {
		_ = logging.Init()
		deps := newFakeDeps()
		srv := newTestServer(deps, 500)
		defer srv.Close()

		Convey("The health endpoint reports OK", func() {
			resp, err := http.Get(srv.URL + "/healthz")
			So(err, ShouldBeNil)
			defer resp.Body.Close()
			So(resp.StatusCode, ShouldEqual, http.StatusOK)
		})

		Convey("The stats endpoint serves the provider's snapshot", func() {
			resp, err := http.Get(srv.URL + "/stats")
			So(err, ShouldBeNil)
			defer resp.Body.Close()

			So(resp.StatusCode, ShouldEqual, http.StatusOK)
			var stats map[string]any
			So(json.NewDecoder(resp.Body).Decode(&stats), ShouldBeNil)
			So(stats, ShouldContainKey, "teams")
		})
	})
}
