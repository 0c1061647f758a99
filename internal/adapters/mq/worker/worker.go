// Package worker runs whole-meet recomputes off the job queue.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/okian/meetscore/internal/adapters/mq/queue"
	"github.com/okian/meetscore/internal/adapters/repository"
	"github.com/okian/meetscore/internal/domain/engine"
	"github.com/okian/meetscore/internal/domain/model"
	"github.com/okian/meetscore/pkg/logger"
	"github.com/okian/meetscore/pkg/metrics"
)

const poolShutdownTimeout = 30 * time.Second

// Job is what workers read off the queue.
type Job = queue.Job

// Store loads snapshots and publishes results.
type Store interface {
	Get(ctx context.Context, id string) (model.Meet, uint64, error)
	PutResult(ctx context.Context, id string, version uint64, res engine.Result) error
}

// Scorer scores a meet snapshot. *engine.Engine implements it.
type Scorer interface {
	Score(m *model.Meet) (engine.Result, error)
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan Job
}

// InMemoryWorker processes recompute jobs one at a time.
type InMemoryWorker struct {
	queue  Queue
	store  Store
	scorer Scorer
	cfg    settings
	active *atomic.Int64

	shutdown chan struct{}
	done     chan struct{}
}

// NewInMemoryWorker creates a worker.
func NewInMemoryWorker(q Queue, store Store, scorer Scorer, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		queue:    q,
		store:    store,
		scorer:   scorer,
		cfg:      settings{name: "worker"},
		active:   new(atomic.Int64),
		shutdown: make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(&w.cfg)
	}
	if w.cfg.logger == nil {
		w.cfg.logger = logger.Get().Named(w.cfg.name)
	}
	return w
}

// Run consumes jobs until ctx is done, Shutdown is called or the queue
// closes.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	jobs := w.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.shutdown:
			return
		case j, ok := <-jobs:
			if !ok {
				return
			}
			err := w.process(ctx, j)
			if err != nil {
				w.cfg.logger.Error(ctx, "recompute failed",
					logger.String("meet_id", j.MeetID),
					logger.String("request_id", j.RequestID),
					logger.Error(err),
				)
			}
			if w.cfg.onDone != nil {
				w.cfg.onDone(j, err)
			}
		}
	}
}

// Shutdown stops the worker after its current job.
func (w *InMemoryWorker) Shutdown(ctx context.Context) error {
	close(w.shutdown)
	select {
	case <-w.done:
		return nil
	case <-ctx.Done():
		w.cfg.logger.Warn(ctx, "shutdown timed out")
		return fmt.Errorf("shutdown timed out: %w", ctx.Err())
	}
}

// process recomputes the whole meet from its current snapshot. A result for
// an older snapshot than the one already published is dropped.
func (w *InMemoryWorker) process(ctx context.Context, j Job) error {
	w.active.Add(1)
	metrics.UpdateWorkerActiveCount(int(w.active.Load()))
	start := time.Now()
	defer func() {
		metrics.RecordWorkerProcessingLatency(float64(time.Since(start).Milliseconds()))
		w.active.Add(-1)
		metrics.UpdateWorkerActiveCount(int(w.active.Load()))
	}()

	m, version, err := w.store.Get(ctx, j.MeetID)
	if err != nil {
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "load")
		return fmt.Errorf("load meet %s: %w", j.MeetID, err)
	}

	res, err := w.scorer.Score(&m)
	if err != nil {
		metrics.RecordRecomputeError()
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "score")
		return fmt.Errorf("score meet %s: %w", j.MeetID, err)
	}
	if n := len(res.Advisories); n > 0 {
		metrics.RecordUnresolvedLegs(n)
		w.cfg.logger.Warn(ctx, "relay legs unresolved",
			logger.String("meet_id", j.MeetID),
			logger.Int("legs", n),
		)
	}

	err = w.store.PutResult(ctx, j.MeetID, version, res)
	switch {
	case errors.Is(err, repository.ErrStale):
		w.cfg.logger.Debug(ctx, "newer result already published", logger.String("meet_id", j.MeetID))
	case err != nil:
		metrics.RecordWorkerError()
		metrics.RecordErrorByComponent("worker", "publish")
		return fmt.Errorf("publish meet %s: %w", j.MeetID, err)
	}

	metrics.RecordRecompute(float64(time.Since(start).Milliseconds()))
	w.cfg.logger.Debug(ctx, "meet recomputed",
		logger.String("meet_id", j.MeetID),
		logger.Int("version", int(version)),
		logger.Duration("took", time.Since(start)),
	)
	return nil
}

// Pool manages multiple workers sharing one queue.
type Pool struct {
	workers []*InMemoryWorker
	queue   Queue
	logger  logger.Logger
	active  atomic.Int64
}

// NewPool creates workerCount workers. A count below one uses one worker
// per CPU.
func NewPool(workerCount int, q Queue, store Store, scorer Scorer, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}
	var cfg settings
	for _, opt := range opts {
		opt(&cfg)
	}
	base := cfg.logger
	if base == nil {
		base = logger.Get()
	}

	p := &Pool{
		workers: make([]*InMemoryWorker, workerCount),
		queue:   q,
		logger:  base.Named("worker-pool"),
	}
	for i := range p.workers {
		name := "worker-" + strconv.Itoa(i)
		w := NewInMemoryWorker(q, store, scorer,
			WithName(name),
			WithLogger(base.Named(name)),
			WithOnDone(cfg.onDone),
		)
		w.active = &p.active
		p.workers[i] = w
	}
	metrics.UpdateWorkerCount(workerCount)
	metrics.UpdateWorkerActiveCount(0)
	return p
}

// Size returns the number of workers.
func (p *Pool) Size() int { return len(p.workers) }

// Start starts all workers in the pool.
func (p *Pool) Start(ctx context.Context) {
	for _, w := range p.workers {
		go w.Run(ctx)
	}
}

// Shutdown closes the queue so no new jobs arrive, lets workers drain what is
// already queued and waits for them.
func (p *Pool) Shutdown(ctx context.Context) error {
	if closer, ok := p.queue.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			p.logger.Error(ctx, "error closing queue", logger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, poolShutdownTimeout)
	defer cancel()

	var timedOut bool
	for i, w := range p.workers {
		select {
		case <-w.done:
		case <-shutdownCtx.Done():
			timedOut = true
			p.logger.Warn(ctx, "worker shutdown timed out", logger.Int("worker_id", i))
		}
	}
	if timedOut {
		return fmt.Errorf("worker pool shutdown: %w", shutdownCtx.Err())
	}
	return nil
}
