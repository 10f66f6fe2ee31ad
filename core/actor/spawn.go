package actor

import (
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/codewandler/actr-go/internal/reflector"
)

// Spawn starts a with default Options. See SpawnWithOptions.
func Spawn[A any](exec Executor, a *A) (*Addr[A], error) {
	return SpawnWithOptions(exec, a, Options{})
}

// SpawnWithOptions allocates a mailbox for a, runs Started (if a implements
// Starter[A]) and registers the actor's task on exec. The returned Addr is
// the initial strong handle. A nil exec runs the task on its own goroutine.
//
// If Started fails or exec rejects the task the actor never becomes live:
// the mailbox is closed and anything Started enqueued is discarded. Stopped
// runs only if Started succeeded.
func SpawnWithOptions[A any](exec Executor, a *A, opts Options) (*Addr[A], error) {
	ti := reflector.TypeInfoFor[A]()
	if a == nil {
		return nil, &SpawnError{ActorType: ti.Short, Reason: ErrNilActor}
	}
	if exec == nil {
		exec = defaultExecutor
	}
	opts = opts.withDefaults(ti.Short)

	mb := newMailbox[A](opts.ID, opts.Metrics)
	addr := newAddr(mb)

	t := &task[A]{
		actor:     a,
		actorType: ti.Short,
		mb:        mb,
		log:       opts.Logger.With(slog.String("actor", opts.ID), slog.String("actor_type", ti.Short)),
		metrics:   opts.Metrics,
		onPanic:   opts.OnPanic,
		policy:    opts.ErrorPolicy,
	}
	if s, ok := any(a).(Stopper); ok {
		t.stopper = s
	}
	if h, ok := any(a).(ErrorHandler); ok {
		t.errs = h
	}

	if s, ok := any(a).(Starter[A]); ok {
		if err := start(s, addr); err != nil {
			t.log.Debug("actor start failed", slog.Any("error", err))
			addr.Release()
			t.teardown(false)
			return nil, &SpawnError{ActorType: ti.Short, Reason: ErrStartFailed, Cause: err}
		}
	}
	opts.Metrics.ActorStarted(ti.Short)

	if err := exec.Spawn(t.run); err != nil {
		t.log.Debug("executor rejected actor", slog.Any("error", err))
		addr.Release()
		t.teardown(true)
		return nil, &SpawnError{ActorType: ti.Short, Reason: ErrExecutorRejected, Cause: err}
	}

	t.log.Debug("actor spawned")
	return addr, nil
}

func start[A any](s Starter[A], addr *Addr[A]) (err error) {
	self := addr.Clone()
	defer self.Release()
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v\n%s", ErrPanicked, r, debug.Stack())
		}
	}()
	return s.Started(self)
}
