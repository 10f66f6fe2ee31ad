package actor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
)

// task owns the actor value. Only the goroutine running task.run touches
// actor, one message at a time.
type task[A any] struct {
	actor     *A
	actorType string
	mb        *mailbox[A]
	log       *slog.Logger
	metrics   ActorMetrics
	onPanic   OnPanic
	policy    ErrorPolicy
	errs      ErrorHandler
	stopper   Stopper
}

func (t *task[A]) run(ctx context.Context) {
	t.log.Debug("actor running")
	defer t.teardown(true)

	for {
		env, ok := t.mb.next()
		if !ok {
			return
		}
		if t.handle(ctx, env) == Stop {
			t.log.Warn("actor terminating after failed operation", slog.String("op", env.msg.Name()))
			return
		}
	}
}

func (t *task[A]) handle(ctx context.Context, env envelope[A]) ErrorAction {
	op := env.msg.Name()
	timer := t.metrics.MessageDuration(op)
	err := t.safeRun(ctx, env.msg, op)
	timer.ObserveDuration()
	env.msg.Discard()

	if err == nil {
		t.metrics.MessageProcessed(op, env.mode, true)
		return Continue
	}
	t.metrics.MessageProcessed(op, env.mode, false)

	action := t.classify(env.msg, op, err)
	t.log.Error("operation failed", slog.String("op", op), slog.Any("error", err), slog.Bool("fatal", action == Stop))
	return action
}

// safeRun contains panics; a panicking operation counts as failed.
func (t *task[A]) safeRun(ctx context.Context, msg Message[A], op string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			t.metrics.MessagePanic(op)
			t.onPanic(r, debug.Stack(), msg)
			err = fmt.Errorf("%w: %s: %v", ErrPanicked, op, r)
		}
	}()
	return msg.Run(ctx, t.actor)
}

func (t *task[A]) classify(msg Message[A], op string, err error) ErrorAction {
	if t.errs != nil {
		if action := t.errs.HandleError(op, err); action != DefaultAction {
			return action
		}
	}
	if isCritical(msg) || errors.Is(err, ErrTerminate) || t.policy == StopOnError {
		return Stop
	}
	return Continue
}

// teardown closes the mailbox, drops what is left in it and runs Stopped
// when the actor was fully started.
func (t *task[A]) teardown(started bool) {
	defer close(t.mb.done)

	pending := t.mb.close()
	for _, env := range pending {
		dropMessage(t.metrics, env.msg)
	}
	if len(pending) > 0 {
		t.log.Debug("dropped pending messages", slog.Int("count", len(pending)))
	}

	if !started {
		return
	}
	defer t.metrics.ActorStopped(t.actorType)
	if t.stopper != nil {
		defer func() {
			if r := recover(); r != nil {
				t.onPanic(r, debug.Stack(), "Stopped")
			}
		}()
		t.stopper.Stopped()
	}
	t.log.Debug("actor stopped")
}
