// Package service wires the meet store, the recompute queue and workers, and
// the scoring engine behind the operations the HTTP API exposes.
package service

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/google/uuid"

	eventqueue "github.com/okian/meetscore/internal/adapters/mq/queue"
	workerpool "github.com/okian/meetscore/internal/adapters/mq/worker"
	"github.com/okian/meetscore/internal/adapters/repository"
	"github.com/okian/meetscore/internal/config"
	"github.com/okian/meetscore/internal/domain/dedupe"
	"github.com/okian/meetscore/internal/domain/engine"
	"github.com/okian/meetscore/internal/domain/model"
	"github.com/okian/meetscore/pkg/logger"
	"github.com/okian/meetscore/pkg/metrics"
)

// Service implements the API dependencies for the meet scoring system.
type Service struct {
	mu sync.RWMutex

	store   repository.Store
	deduper dedupe.Deduper
	queue   *eventqueue.InMemoryQueue
	pool    *workerpool.Pool
	engine  *engine.Engine

	workerCount  int
	queueSize    int
	dedupeSize   int
	meetDefaults model.Config
	engineOpts   []engine.Option
	onRecomputed func(model.RecomputeJob, error)
	newID        func() string

	started bool
	cancel  context.CancelFunc
	logger  logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithWorkerCount sets the number of recompute workers.
func WithWorkerCount(count int) Option {
	return func(s *Service) {
		if count > 0 {
			s.workerCount = count
		}
	}
}

// WithQueueSize sets the maximum number of pending recomputes.
func WithQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.queueSize = size
		}
	}
}

// WithDedupeSize sets how many recompute request IDs are remembered.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithMeetDefaults sets the configuration given to meets created without
// one.
func WithMeetDefaults(cfg model.Config) Option {
	return func(s *Service) {
		s.meetDefaults = cfg
	}
}

// WithStore replaces the in-memory meet store.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		if store != nil {
			s.store = store
		}
	}
}

// WithEngineOptions passes options to every scoring pass, including
// sensitivity runs.
func WithEngineOptions(opts ...engine.Option) Option {
	return func(s *Service) {
		s.engineOpts = append(s.engineOpts, opts...)
	}
}

// WithOnRecomputed registers a callback run after every recompute job.
func WithOnRecomputed(fn func(model.RecomputeJob, error)) Option {
	return func(s *Service) {
		s.onRecomputed = fn
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

// New constructs a Service. Call Start before use.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount:  runtime.NumCPU(),
		queueSize:    1024,
		dedupeSize:   10_000,
		meetDefaults: config.DefaultMeetConfig(),
		newID:        uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start initializes and starts the service components. Workers keep
// running after ctx is cancelled; only Stop ends them.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.logger.Info(ctx, "starting meet scoring service...")

	if s.store == nil {
		s.store = repository.NewMemStore()
	}
	s.deduper = dedupe.NewInMemoryDeduper(dedupe.WithMaxSize(s.dedupeSize))
	s.queue = eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(s.queueSize))
	s.engine = engine.New(s.engineOpts...)
	s.pool = workerpool.NewPool(s.workerCount, s.queue, s.store, s.engine,
		workerpool.WithLogger(s.logger),
		workerpool.WithOnDone(s.recomputed),
	)
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	s.pool.Start(runCtx)

	s.started = true
	s.logger.Info(ctx, "meet scoring service started",
		logger.Int("workers", s.workerCount),
		logger.Int("queueSize", s.queueSize),
		logger.Int("dedupeSize", s.dedupeSize),
	)
	return nil
}

// Stop drains queued recomputes and stops the workers. Jobs still queued
// when ctx expires are dropped.
func (s *Service) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}
	s.logger.Info(ctx, "stopping meet scoring service...")
	err := s.pool.Shutdown(ctx)
	s.cancel()
	s.started = false
	s.logger.Info(ctx, "meet scoring service stopped")
	if err != nil {
		return fmt.Errorf("stop service: %w", err)
	}
	return nil
}

func (s *Service) recomputed(j model.RecomputeJob, err error) {
	if err != nil {
		// A failed job may be retried under the same request ID.
		s.deduper.Unrecord(context.Background(), dedupeKey(j.MeetID, j.RequestID))
	}
	if s.onRecomputed != nil {
		s.onRecomputed(j, err)
	}
}

func (s *Service) ready() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.started {
		return ErrNotStarted
	}
	return nil
}

// Stats returns service statistics for monitoring.
func (s *Service) Stats(ctx context.Context) map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"started":     s.started,
		"workerCount": s.workerCount,
		"queueSize":   s.queueSize,
		"dedupeSize":  s.dedupeSize,
	}
	if s.started {
		meets := s.store.Count(ctx)
		stats["queueLength"] = s.queue.Len()
		stats["meets"] = meets
		stats["recomputeIDs"] = s.deduper.Size()
		metrics.UpdateQueueSize(s.queue.Len())
		metrics.UpdateMeetsTotal(meets)
	}
	return stats
}
