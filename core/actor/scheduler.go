package actor

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
)

type SchedulerOptions struct {
	// Context is passed to every task. Defaults to context.Background().
	Context context.Context
	// MaxConcurrent caps the number of tasks running at once. Actor tasks
	// live until their actor is torn down, so this caps live actors: Spawn
	// rejects a task with ErrExecutorFull while every slot is taken. If 0
	// or negative, it is unlimited.
	MaxConcurrent int
	Logger        *slog.Logger
	Metrics       ActorMetrics
}

// Scheduler is an Executor that tracks its tasks so callers can wait for
// all of them, and can be closed to reject new ones.
type Scheduler struct {
	ctx      context.Context
	log      *slog.Logger
	metrics  ActorMetrics
	sem      chan struct{}
	inflight atomic.Int32

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

var _ Executor = (*Scheduler)(nil)

// NewScheduler creates a Scheduler.
func NewScheduler(opts SchedulerOptions) *Scheduler {
	if opts.Context == nil {
		opts.Context = context.Background()
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Metrics == nil {
		opts.Metrics = NopActorMetrics()
	}
	var sem chan struct{}
	if opts.MaxConcurrent > 0 {
		sem = make(chan struct{}, opts.MaxConcurrent)
	}
	return &Scheduler{
		ctx:     opts.Context,
		log:     opts.Logger,
		metrics: opts.Metrics,
		sem:     sem,
	}
}

// Spawn registers task. It fails once the scheduler is closed, its context
// is done or all MaxConcurrent slots are taken.
func (s *Scheduler) Spawn(task TaskFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrExecutorClosed
	}
	if err := s.ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", ErrExecutorClosed, err)
	}
	if s.sem != nil {
		select {
		case s.sem <- struct{}{}:
		default:
			return fmt.Errorf("%w: %d tasks running", ErrExecutorFull, cap(s.sem))
		}
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if s.sem != nil {
			defer func() { <-s.sem }()
		}

		count := s.inflight.Add(1)
		s.metrics.SchedulerInflight(int(count))
		defer func() {
			count := s.inflight.Add(-1)
			s.metrics.SchedulerInflight(int(count))
		}()

		s.runTask(task)
	}()
	return nil
}

func (s *Scheduler) runTask(task TaskFunc) {
	defer s.metrics.SchedulerTaskDuration().ObserveDuration()

	defer func() {
		if r := recover(); r != nil {
			s.metrics.SchedulerTaskCompleted(false)
			s.log.Error("scheduled task panicked", slog.Any("recovered", r))
		}
	}()

	task(s.ctx)
	s.metrics.SchedulerTaskCompleted(true)
}

// Inflight returns the number of tasks currently running.
func (s *Scheduler) Inflight() int { return int(s.inflight.Load()) }

// Close makes Spawn reject new tasks. Running tasks are not affected.
func (s *Scheduler) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

// Wait blocks until every spawned task has returned, i.e. until all actors
// on this scheduler were torn down.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}
