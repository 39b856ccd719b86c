// Package app provides the core business service that implements the
// dependencies required by the HTTP API.
package app

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/okian/snapdash/internal/adapters/mq/queue"
	workerpool "github.com/okian/snapdash/internal/adapters/mq/worker"
	"github.com/okian/snapdash/internal/adapters/repository"
	"github.com/okian/snapdash/internal/domain/dedupe"
	"github.com/okian/snapdash/internal/domain/match"
	"github.com/okian/snapdash/internal/domain/model"
	"github.com/okian/snapdash/internal/domain/ranking"
	"github.com/okian/snapdash/pkg/logger"
	"github.com/okian/snapdash/pkg/metrics"
)

// Service implements the API dependencies for the marathon system.
type Service struct {
	mu sync.RWMutex

	// Core components
	store      *repository.MemStore
	deduper    dedupe.Deduper
	subQueue   queue.Queue
	matcher    match.Matcher
	policy     *match.Policy
	workerPool *workerpool.Pool

	// Configuration
	workerCount           int
	queueSize             int
	dedupeSize            int
	phashThreshold        int
	autoApproveScore      float64
	featureScoreThreshold float64

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of verification workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum size of the submission queue.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets the size of the idempotency cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithPHashThreshold sets the maximum hash distance counted as a match.
func WithPHashThreshold(threshold int) Option {
	return func(s *Service) {
		if threshold > 0 {
			s.phashThreshold = threshold
		}
	}
}

// WithAutoApproveScore sets the minimum score for automatic approval.
func WithAutoApproveScore(score float64) Option {
	return func(s *Service) {
		if score > 0 {
			s.autoApproveScore = score
		}
	}
}

// WithFeatureScoreThreshold sets the descriptor fallback score bar.
func WithFeatureScoreThreshold(threshold float64) Option {
	return func(s *Service) {
		if threshold > 0 {
			s.featureScoreThreshold = threshold
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:           runtime.NumCPU() * 2,
		queueSize:             10_000,
		dedupeSize:            50_000,
		phashThreshold:        8,
		autoApproveScore:      0.8,
		featureScoreThreshold: 0.7,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get()
	}

	s.logger.Info(ctx, "starting marathon service...")

	s.store = repository.NewMemStore(ctx)
	s.deduper = dedupe.NewInMemoryDeduper(
		dedupe.WithMaxSize(s.dedupeSize),
	)
	s.subQueue = queue.NewInMemoryQueue(
		queue.WithCapacity(s.queueSize),
		queue.WithBufferSize(s.queueSize),
	)
	s.matcher = match.NewInMemoryMatcher(
		match.WithDistanceThreshold(s.phashThreshold),
		match.WithFeatureThreshold(s.featureScoreThreshold),
		match.WithLogger(s.logger),
	)
	s.policy = match.NewPolicy(
		match.WithAutoApproveScore(s.autoApproveScore),
	)

	s.workerPool = workerpool.NewPool(s.workerCount, s.subQueue, s.matcher, s.policy, s.store)
	s.workerPool.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "marathon service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("phashThreshold", s.phashThreshold),
		logger.Float64("autoApproveScore", s.autoApproveScore),
	)

	return nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping marathon service...")

	if s.subQueue != nil {
		_ = s.subQueue.Close()
	}
	if s.workerPool != nil {
		s.workerPool.Stop()
	}

	s.started = false
	s.logger.Info(ctx, "marathon service stopped")
}

// SeenAndRecord atomically checks if a submission id was seen and records
// it if not. Returns true if the id was already seen.
func (s *Service) SeenAndRecord(ctx context.Context, id string) bool {
	seen := s.deduper.SeenAndRecord(ctx, id)
	if seen {
		metrics.RecordSubmissionDuplicate()
	}
	return seen
}

// Unrecord removes a submission ID from the seen list, allowing a retry.
func (s *Service) Unrecord(ctx context.Context, id string) {
	s.deduper.Unrecord(ctx, id)
}

// Size returns the current number of entries in the deduper.
func (s *Service) Size() int64 {
	if s.deduper == nil {
		return 0
	}
	return s.deduper.Size()
}

// Enqueue records a pending submission and pushes it for asynchronous
// verification. Returns false on backpressure or a duplicate record.
func (s *Service) Enqueue(ctx context.Context, sub model.Submission) bool {
	if err := s.store.RecordSubmission(ctx, sub); err != nil {
		s.logger.Warn(ctx, "failed to record submission",
			logger.String("submissionID", sub.ID),
			logger.Error(err),
		)
		return false
	}

	if ok := s.subQueue.Enqueue(ctx, sub); !ok {
		// Keep the stored record out of the way so a retry can re-submit.
		s.store.DeleteSubmission(ctx, sub.ID)
		return false
	}

	metrics.RecordSubmissionProcessed()
	metrics.UpdateQueueSize(s.subQueue.Len(ctx))
	return true
}

// Leaderboard recomputes the full leaderboard from current state.
func (s *Service) Leaderboard(ctx context.Context) []ranking.Record {
	metrics.RecordLeaderboardRequest()
	return ranking.Leaderboard(s.store.Teams(ctx), s.store.ApprovedSubmissions(ctx), s.store.FinalLevels(ctx))
}

// TeamRanking returns the leaderboard record for one team.
func (s *Service) TeamRanking(ctx context.Context, teamID string) (ranking.Record, error) {
	if _, err := s.store.Team(ctx, teamID); err != nil {
		return ranking.Record{}, fmt.Errorf("team ranking: %w", err)
	}
	for _, record := range s.Leaderboard(ctx) {
		if record.TeamID == teamID {
			return record, nil
		}
	}
	return ranking.Record{}, fmt.Errorf("team ranking: %w", repository.ErrTeamNotFound)
}

// RegisterTeam registers a new team.
func (s *Service) RegisterTeam(ctx context.Context, team model.Team) error {
	if err := s.store.AddTeam(ctx, team); err != nil {
		return fmt.Errorf("register team: %w", err)
	}
	s.logger.Info(ctx, "team registered",
		logger.String("teamID", team.ID),
		logger.String("name", team.Name),
		logger.Int("assignedLevels", len(team.AssignedLevels)),
	)
	return nil
}

// CreateLevel creates or replaces a level definition.
func (s *Service) CreateLevel(ctx context.Context, level model.Level) error {
	if err := s.store.PutLevel(ctx, level); err != nil {
		return fmt.Errorf("create level: %w", err)
	}
	return nil
}

// Review applies a manual admin decision to a pending submission.
func (s *Service) Review(ctx context.Context, submissionID string, approve bool) (model.Submission, error) {
	sub, err := s.store.Review(ctx, submissionID, approve)
	if err != nil {
		return model.Submission{}, fmt.Errorf("review submission: %w", err)
	}
	metrics.RecordManualReview(approve)
	s.logger.Info(ctx, "submission reviewed",
		logger.String("submissionID", submissionID),
		logger.Bool("approved", approve),
	)
	return sub, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ctx := context.Background()
	stats := map[string]interface{}{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
	}

	if s.started {
		queueLen := s.subQueue.Len(ctx)
		totalTeams := s.store.Count(ctx)

		stats["queueLength"] = queueLen
		stats["totalTeams"] = totalTeams

		metrics.UpdateQueueSize(queueLen)
		metrics.UpdateTotalTeams(totalTeams)
		metrics.UpdateWorkerCount(s.workerCount)
	}

	return stats
}
