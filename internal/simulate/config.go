// Package simulate drives a running marathon server with generated teams,
// levels and photo submissions, then checks leaderboard invariants.
package simulate

import "time"

// Default simulation parameters.
const (
	defaultBaseURL       = "http://localhost:9080"
	defaultNumTeams      = 20
	defaultLevelsPerTeam = 5
	defaultTimeout       = 30 * time.Second
)

// Config controls a simulation run.
type Config struct {
	BaseURL       string
	NumTeams      int
	LevelsPerTeam int
	// CorruptRatio is the fraction of submissions sent with a heavily
	// corrupted hash, which should land in manual review.
	CorruptRatio float64
	Timeout      time.Duration
	Verbose      bool
}

// NewConfig returns a Config with defaults applied.
func NewConfig() *Config {
	return &Config{
		BaseURL:       defaultBaseURL,
		NumTeams:      defaultNumTeams,
		LevelsPerTeam: defaultLevelsPerTeam,
		CorruptRatio:  0.2,
		Timeout:       defaultTimeout,
	}
}
