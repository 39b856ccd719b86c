// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Keep fields unexported where possible and use functional options.
// - Provide New(...) initializer to build a Config with defaults.
package config

import "runtime"

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory submission queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of verification workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets the size of the submission-ID idempotency cache.
	DedupeSize int `koanf:"dedupe_size"`

	// PHashThreshold is the maximum hash distance still accepted as a match.
	PHashThreshold int `koanf:"phash_threshold"`

	// AutoApproveScore is the minimum similarity score for skipping manual
	// review. Deliberately independent from PHashThreshold.
	AutoApproveScore float64 `koanf:"auto_approve_score"`

	// FeatureScoreThreshold gates the descriptor fallback path.
	FeatureScoreThreshold float64 `koanf:"feature_score_threshold"`

	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:              "info",
		Addr:                  ":9080",
		QueueSize:             10_000,
		WorkerCount:           runtime.NumCPU() * 2,
		DedupeSize:            50_000,
		PHashThreshold:        8,
		AutoApproveScore:      0.8,
		FeatureScoreThreshold: 0.7,
		MaxLeaderboardLimit:   500,
	}
}
