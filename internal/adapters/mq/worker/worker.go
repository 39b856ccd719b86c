// Package worker defines worker contracts for asynchronous submission
// verification and completion recording.
package worker

import (
	"context"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/okian/snapdash/internal/domain/match"
	"github.com/okian/snapdash/internal/domain/model"
	"github.com/okian/snapdash/pkg/logger"
	"github.com/okian/snapdash/pkg/metrics"
)

// Default worker configuration constants.
const (
	defaultWorkerMultiplier = 2 // multiplier for runtime.NumCPU()
	workerShutdownTimeout   = 5 * time.Second
	poolShutdownTimeout     = 30 * time.Second
)

// Submission abstracts what workers read off the queue.
type Submission = model.Submission

// Recorder persists verification outcomes. Implementations must apply
// CompleteLevel at most once per (team, level) pair.
type Recorder interface {
	Level(ctx context.Context, id string) (model.Level, error)
	SetDecision(ctx context.Context, id string, score float64, source string, status model.SubmissionStatus) (model.Submission, error)
	CompleteLevel(ctx context.Context, teamID, levelID string, at time.Time) (bool, error)
}

// Queue defines how workers receive submissions.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Submission
}

// Worker processes submissions off the queue until stopped.
type Worker interface {
	// Run starts the worker loop until ctx is canceled.
	Run(ctx context.Context)

	// Shutdown gracefully stops the worker.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker for verifying submissions.
type InMemoryWorker struct {
	queue    Queue
	matcher  match.Matcher
	policy   *match.Policy
	recorder Recorder
	name     string

	shutdown chan struct{}
	done     chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a worker with configuration options.
func NewInMemoryWorker(queue Queue, matcher match.Matcher, policy *match.Policy, recorder Recorder, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    queue,
		matcher:  matcher,
		policy:   policy,
		recorder: recorder,
		name:     "worker",
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
		logger:   logger.Get().Named("worker"),
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}

	return w
}

// Run starts the worker loop.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	subs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case sub, ok := <-subs:
			if !ok {
				return
			}
			if err := w.processSubmission(ctx, sub); err != nil {
				w.logger.Error(ctx, "error processing submission", logger.Error(err))
			}
		}
	}
}

// Shutdown gracefully stops the worker.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)

	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// processSubmission verifies one submission against its level's references
// and records the outcome. Auto-approval also records the level completion;
// everything else stays pending for an admin.
func (w *InMemoryWorker) processSubmission(ctx context.Context, sub Submission) error {
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	level, err := w.recorder.Level(ctx, sub.LevelID)
	if err != nil {
		metrics.RecordWorkerError()
		return fmt.Errorf("load level %s: %w", sub.LevelID, err)
	}

	matchStart := time.Now()
	result := w.matcher.Match(ctx, level, match.Input{
		PHash:       sub.PHash,
		Descriptors: sub.Descriptors,
	})
	metrics.RecordMatchLatency(float64(time.Since(matchStart).Milliseconds()))
	metrics.RecordMatchOutcome(result.Matches, result.Source)

	status := w.policy.Decide(result)
	if _, err := w.recorder.SetDecision(ctx, sub.ID, result.Score, result.Source, status); err != nil {
		metrics.RecordWorkerError()
		return fmt.Errorf("record decision for submission %s: %w", sub.ID, err)
	}

	if status == model.StatusAutoApproved {
		metrics.RecordAutoApproval()
		applied, err := w.recorder.CompleteLevel(ctx, sub.TeamID, sub.LevelID, sub.CreatedAt)
		if err != nil {
			metrics.RecordWorkerError()
			return fmt.Errorf("record completion for submission %s: %w", sub.ID, err)
		}
		if !applied {
			w.logger.Debug(ctx, "completion already recorded",
				logger.String("teamID", sub.TeamID),
				logger.String("levelID", sub.LevelID),
			)
		}
		return nil
	}

	metrics.RecordPendingReview()
	w.logger.Debug(ctx, "submission routed to manual review",
		logger.String("submissionID", sub.ID),
		logger.Float64("score", result.Score),
	)
	return nil
}

// Pool manages multiple workers.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue

	shutdown chan struct{}

	logger logger.Logger
}

// NewPool creates a worker pool sharing one queue, matcher and recorder.
func NewPool(workerCount int, queue Queue, matcher match.Matcher, policy *match.Policy, recorder Recorder) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU() * defaultWorkerMultiplier
	}

	pool := &Pool{
		workers:  make([]*InMemoryWorker, workerCount),
		queue:    queue,
		shutdown: make(chan struct{}),
		logger:   logger.Get().Named("worker-pool"),
	}

	for i := 0; i < workerCount; i++ {
		pool.workers[i] = NewInMemoryWorker(
			queue,
			matcher,
			policy,
			recorder,
			WithName("worker-"+strconv.Itoa(i)),
		)
	}

	metrics.UpdateWorkerCount(workerCount)

	return pool
}

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Stop gracefully stops all workers.
func (p *Pool) Stop() {
	close(p.shutdown)

	for _, w := range p.workers {
		select {
		case <-w.shutdown:
		default:
			close(w.shutdown)
		}
	}

	for _, w := range p.workers {
		select {
		case <-w.done:
		case <-time.After(workerShutdownTimeout):
		}
	}
}

// Shutdown closes the queue and waits for workers to drain.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}

	return nil
}
