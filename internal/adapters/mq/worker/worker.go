package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/atscore/internal/domain/analysis"
	"github.com/okian/atscore/internal/domain/model"
	"github.com/okian/atscore/pkg/logger"
	"github.com/okian/atscore/pkg/metrics"
)

const (
	defaultTimeout        = 30 * time.Second
	metricsUpdateInterval = 5 * time.Second
	poolShutdownTimeout   = 30 * time.Second
	drainWait             = 100 * time.Millisecond
)

// ErrStopped is recorded for jobs a worker received after it was told to stop.
var ErrStopped = errors.New("worker stopped before analysis")

// Analyzer runs the analysis pipeline.
type Analyzer interface {
	Analyze(ctx context.Context, in analysis.Input) (analysis.Report, error)
}

// Recorder stores analysis records.
type Recorder interface {
	Put(ctx context.Context, rec model.Record) error
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan model.Job
}

// Worker processes jobs until stopped.
type Worker interface {
	// Run processes jobs until ctx is done, the queue is drained and
	// closed, or Shutdown is called.
	Run(ctx context.Context)

	// Shutdown stops the worker after its current job. Jobs it receives
	// afterwards are recorded as failed with ErrStopped.
	Shutdown(ctx context.Context) error
}

// InMemoryWorker implements Worker.
type InMemoryWorker struct {
	queue    Queue
	analyzer Analyzer
	recorder Recorder
	name     string
	timeout  time.Duration

	// busy is set by the owning pool; nil for standalone workers.
	busy *atomic.Int32

	shutdown     chan struct{}
	shutdownOnce sync.Once
	done         chan struct{}

	logger logger.Logger
}

// NewInMemoryWorker creates a worker.
func NewInMemoryWorker(q Queue, a Analyzer, r Recorder, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		analyzer: a,
		recorder: r,
		name:     "worker",
		timeout:  defaultTimeout,
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	if w.logger == nil {
		w.logger = logger.NamedOrDiscard(w.name)
	}
	return w
}

// Run implements Worker.Run.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			w.drain(ctx, jobs)
			return
		case <-w.shutdown:
			w.drain(ctx, jobs)
			return
		case job, ok := <-jobs:
			if !ok {
				return
			}
			if w.stopped(ctx) {
				w.abandon(ctx, job)
				w.drain(ctx, jobs)
				return
			}
			if err := w.process(ctx, job); err != nil {
				w.logger.Error(ctx, "analysis job failed", logger.String("analysis_id", job.ID), logger.Error(err))
			}
		}
	}
}

// Shutdown implements Worker.Shutdown.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	w.shutdownOnce.Do(func() { close(w.shutdown) })
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

func (w *InMemoryWorker) stopped(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	case <-w.shutdown:
		return true
	default:
		return false
	}
}

// drain fails the jobs still handed out after a stop so their records do not
// stay pending. It returns once the queue closes or stays empty for drainWait.
func (w *InMemoryWorker) drain(ctx context.Context, jobs <-chan model.Job) {
	for {
		select {
		case job, ok := <-jobs:
			if !ok {
				return
			}
			w.abandon(ctx, job)
		case <-time.After(drainWait):
			return
		}
	}
}

func (w *InMemoryWorker) abandon(ctx context.Context, job model.Job) { //nolint:gocritic // hugeParam: jobs travel by value
	rec := model.Record{
		ID:          job.ID,
		Label:       job.Label,
		SubmittedAt: job.SubmittedAt,
		CompletedAt: time.Now(),
		Status:      model.StatusFailed,
		Error:       ErrStopped.Error(),
	}
	metrics.RecordAnalysisFailed()
	metrics.RecordErrorByComponent("worker", "stopped")
	if err := w.recorder.Put(context.WithoutCancel(ctx), rec); err != nil {
		w.logger.Error(ctx, "store abandoned analysis", logger.String("analysis_id", job.ID), logger.Error(err))
		return
	}
	w.logger.Warn(ctx, "analysis abandoned on shutdown", logger.String("analysis_id", job.ID))
}

// process runs one job and stores its record. The returned error is the
// analysis or store failure; a failed analysis is still recorded.
func (w *InMemoryWorker) process(ctx context.Context, job model.Job) error { //nolint:gocritic // hugeParam: jobs travel by value
	start := time.Now()
	if w.busy != nil {
		w.busy.Add(1)
		defer w.busy.Add(-1)
	}
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
	}()

	actx, cancel := context.WithTimeout(ctx, w.timeout)
	report, err := w.analyzer.Analyze(actx, job.Input())
	cancel()

	rec := model.Record{
		ID:          job.ID,
		Label:       job.Label,
		SubmittedAt: job.SubmittedAt,
		CompletedAt: time.Now(),
	}
	if err != nil {
		rec.Status = model.StatusFailed
		rec.Error = err.Error()
		metrics.RecordAnalysisFailed()
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "analysis_error")
	} else {
		rec.Status = model.StatusDone
		rec.Report = &report
	}

	if perr := w.recorder.Put(ctx, rec); perr != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "store_error")
		return fmt.Errorf("store analysis %s: %w", job.ID, perr)
	}
	if err != nil {
		return fmt.Errorf("analyze %s: %w", job.ID, err)
	}
	w.logger.Debug(ctx, "analysis stored",
		logger.String("analysis_id", job.ID),
		logger.Int("score", report.Score),
		logger.Duration("latency", time.Since(start)))
	return nil
}

// Pool manages a fixed set of workers sharing one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	busy    atomic.Int32

	shutdown     chan struct{}
	shutdownOnce sync.Once

	logger logger.Logger
}

// NewPool creates workerCount workers. A count below one uses one worker
// per CPU since analyses are CPU bound.
func NewPool(workerCount int, q Queue, a Analyzer, r Recorder, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}
	p := &Pool{
		workers:  make([]*InMemoryWorker, workerCount),
		queue:    q,
		shutdown: make(chan struct{}),
		logger:   logger.NamedOrDiscard("worker-pool"),
	}
	for i := range p.workers {
		wopts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, opts...)
		p.workers[i] = NewInMemoryWorker(q, a, r, wopts...)
		p.workers[i].busy = &p.busy
	}

	metrics.UpdateWorkerCount(workerCount)
	metrics.UpdateWorkerActivity(0, workerCount)
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Active returns the number of workers currently running an analysis.
func (p *Pool) Active() int { return int(p.busy.Load()) }

// Start launches every worker and the activity reporter.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
	go p.reportActivity(ctx)
}

func (p *Pool) reportActivity(ctx context.Context) {
	ticker := time.NewTicker(metricsUpdateInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-p.shutdown:
			return
		case <-ticker.C:
			active := p.Active()
			metrics.UpdateWorkerActivity(active, len(p.workers)-active)
		}
	}
}

// Shutdown closes the queue, lets workers drain what is already queued and
// waits for them. Workers still running when ctx or the pool timeout ends
// are told to stop after their current job.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}
	p.shutdownOnce.Do(func() { close(p.shutdown) })

	waitCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var timedOut int
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-waitCtx.Done():
			timedOut++
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
			w.shutdownOnce.Do(func() { close(w.shutdown) })
		}
	}
	if timedOut > 0 {
		return fmt.Errorf("%d workers still running: %w", timedOut, waitCtx.Err())
	}
	return nil
}

// Wait blocks until every worker has returned from Run or ctx is done.
func (p *Pool) Wait(ctx context.Context) error {
	for _, w := range p.workers {
		select {
		case <-w.done:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}
