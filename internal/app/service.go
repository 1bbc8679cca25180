// Package service wires the analysis pipeline to the queue, worker pool,
// dedupe cache and record store, and exposes the operations the HTTP API
// and the message consumer need.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/okian/atscore/internal/adapters/mq/queue"
	"github.com/okian/atscore/internal/adapters/mq/worker"
	"github.com/okian/atscore/internal/adapters/repository"
	"github.com/okian/atscore/internal/domain/analysis"
	"github.com/okian/atscore/internal/domain/dedupe"
	"github.com/okian/atscore/internal/domain/model"
	"github.com/okian/atscore/internal/domain/suggest"
	"github.com/okian/atscore/pkg/logger"
	"github.com/okian/atscore/pkg/metrics"
)

const (
	defaultQueueSize       = 1024
	defaultDedupeSize      = 50_000
	defaultMaxRecords      = 100_000
	defaultAnalysisTimeout = time.Minute
	stopGrace              = 5 * time.Second
)

// Service runs analyses synchronously or through the worker pool and keeps
// their results ranked by ATS score.
type Service struct {
	mu sync.RWMutex

	// Core components
	analyzer *analysis.Analyzer
	store    *repository.TreapStore
	deduper  dedupe.Deduper
	queue    queue.Queue
	pool     *worker.Pool

	// Configuration
	workerCount     int
	queueSize       int
	dedupeSize      int
	maxRecords      int
	analysisTimeout time.Duration
	defaultMode     analysis.Mode

	started bool
	cancel  context.CancelFunc

	logger logger.Logger
}

// New constructs a Service. Components are created by Start.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:     runtime.NumCPU(),
		queueSize:       defaultQueueSize,
		dedupeSize:      defaultDedupeSize,
		maxRecords:      defaultMaxRecords,
		analysisTimeout: defaultAnalysisTimeout,
		defaultMode:     analysis.ModeExperienced,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = logger.NamedOrDiscard("service")
	}
	if s.analyzer == nil {
		s.analyzer = analysis.New(analysis.WithLogger(s.logger))
	}
	return s
}

// Start creates the store, dedupe cache and queue and starts the workers.
// Calling Start on a running service is a no-op.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	s.logger.Info(ctx, "starting analysis service...")

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.store = repository.NewTreapStore(runCtx, repository.WithMaxRecords(s.maxRecords))
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.queue = queue.NewInMemoryQueue(queue.WithCapacity(s.queueSize))
	s.pool = worker.NewPool(s.workerCount, s.queue, s.analyzer, s.store,
		worker.WithTimeout(s.analysisTimeout),
		worker.WithLogger(s.logger.Named("worker")))
	s.pool.Start(runCtx)

	s.started = true
	s.logger.Info(ctx, "analysis service started",
		logger.Int("workers", s.pool.Size()),
		logger.Int("queue_size", s.queueSize),
		logger.Int("dedupe_size", s.dedupeSize),
		logger.Int("max_records", s.maxRecords))
	return nil
}

// Stop drains the queue, stops the workers and closes the store.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx := context.Background()
	s.logger.Info(ctx, "stopping analysis service...")

	if err := s.pool.Shutdown(ctx); err != nil {
		s.logger.Warn(ctx, "worker pool did not drain", logger.Error(err))
	}
	s.cancel()
	waitCtx, cancel := context.WithTimeout(ctx, stopGrace)
	if err := s.pool.Wait(waitCtx); err != nil {
		s.logger.Warn(ctx, "workers did not stop", logger.Error(err))
	}
	cancel()
	_ = s.store.Close()

	s.started = false
	s.logger.Info(ctx, "analysis service stopped")
}

// Submit validates a job, assigns it an analysis id and queues it. A job
// whose idempotency key was seen before is not queued again: the earlier id
// is returned with duplicate set. A key whose earlier analysis failed or
// was evicted is accepted as new.
func (s *Service) Submit(ctx context.Context, job model.Job) (id string, duplicate bool, err error) { //nolint:gocritic // hugeParam: jobs travel by value
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return "", false, ErrNotStarted
	}

	if job.Mode == "" {
		job.Mode = s.defaultMode
	}
	if err := job.Input().Validate(); err != nil {
		return "", false, err
	}

	job.ID = uuid.NewString()
	job.SubmittedAt = time.Now().UTC()
	key := job.Key()

	holder, seen := s.deduper.Claim(ctx, key, job.ID)
	if seen {
		rec, gerr := s.store.Get(ctx, holder)
		if gerr == nil && rec.Status != model.StatusFailed {
			metrics.RecordAnalysisDuplicate()
			s.logger.Debug(ctx, "duplicate analysis request",
				logger.String("analysis_id", holder),
				logger.String("label", job.Label))
			return holder, true, nil
		}
		s.deduper.Release(ctx, key)
		if holder, seen = s.deduper.Claim(ctx, key, job.ID); seen {
			// lost a race with a concurrent retry of the same key
			metrics.RecordAnalysisDuplicate()
			return holder, true, nil
		}
	}

	pending := model.Record{
		ID:          job.ID,
		Label:       job.Label,
		Status:      model.StatusPending,
		SubmittedAt: job.SubmittedAt,
	}
	if err := s.store.Put(ctx, pending); err != nil {
		s.deduper.Release(ctx, key)
		return "", false, fmt.Errorf("store pending analysis: %w", err)
	}
	if err := s.queue.Enqueue(ctx, job); err != nil {
		s.deduper.Release(ctx, key)
		if derr := s.store.Delete(ctx, job.ID); derr != nil && !errors.Is(derr, repository.ErrNotFound) {
			s.logger.Warn(ctx, "could not remove pending analysis", logger.String("analysis_id", job.ID), logger.Error(derr))
		}
		return "", false, err
	}

	metrics.RecordAnalysisSubmitted()
	s.logger.Debug(ctx, "analysis queued",
		logger.String("analysis_id", job.ID),
		logger.String("label", job.Label),
		logger.String("mode", string(job.Mode)))
	return job.ID, false, nil
}

// Analyze runs one analysis synchronously. The result is not stored.
func (s *Service) Analyze(ctx context.Context, in analysis.Input) (analysis.Report, error) {
	if in.Mode == "" {
		in.Mode = s.defaultMode
	}
	ctx, cancel := context.WithTimeout(ctx, s.analysisTimeout)
	defer cancel()
	return s.analyzer.Analyze(ctx, in)
}

// DraftSection generates content for one resume section.
func (s *Service) DraftSection(ctx context.Context, section, role string, in analysis.Input) (string, suggest.Source) {
	if in.Mode == "" {
		in.Mode = s.defaultMode
	}
	ctx, cancel := context.WithTimeout(ctx, s.analysisTimeout)
	defer cancel()
	return s.analyzer.DraftSection(ctx, section, role, in)
}

// Get returns the stored analysis for id.
func (s *Service) Get(ctx context.Context, id string) (model.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return model.Record{}, ErrNotStarted
	}
	return s.store.Get(ctx, id)
}

// TopN returns the n best finished analyses.
func (s *Service) TopN(ctx context.Context, n int) ([]model.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return nil, ErrNotStarted
	}
	return s.store.TopN(ctx, n)
}

// Rank returns the leaderboard position of a finished analysis.
func (s *Service) Rank(ctx context.Context, id string) (model.Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return model.Entry{}, ErrNotStarted
	}
	return s.store.Rank(ctx, id)
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
		"maxRecords":  s.maxRecords,
		"defaultMode": s.defaultMode,
	}
	if !s.started {
		return stats
	}

	ctx := context.Background()
	queueLen := s.queue.Len(ctx)
	stats["queueLength"] = queueLen
	stats["activeWorkers"] = s.pool.Active()
	stats["dedupeEntries"] = s.deduper.Size()
	stats["records"] = s.store.Count(ctx)
	stats["ranked"] = s.store.Ranked(ctx)
	if snap := s.store.Snapshot(); snap != nil {
		stats["snapshot"] = snap
	}

	metrics.UpdateQueueSize(queueLen, s.queue.Capacity())
	metrics.UpdateWorkerCount(s.pool.Size())
	return stats
}

// Size returns the number of remembered idempotency keys.
func (s *Service) Size() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.deduper == nil {
		return 0
	}
	return s.deduper.Size()
}
