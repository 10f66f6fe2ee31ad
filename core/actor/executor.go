package actor

import "context"

type (
	// TaskFunc is the unit of work an Executor runs: one actor's mailbox
	// loop. ctx is handed to every operation the task runs.
	TaskFunc func(ctx context.Context)

	// Executor schedules actor tasks. It only needs to run each task
	// eventually, on any goroutine; the runtime guarantees that a single
	// task never runs concurrently with itself.
	Executor interface {
		Spawn(task TaskFunc) error
	}

	// ExecutorFunc adapts a function into an Executor.
	ExecutorFunc func(task TaskFunc) error
)

func (f ExecutorFunc) Spawn(task TaskFunc) error { return f(task) }

var defaultExecutor = GoExecutor(context.Background())

// GoExecutor runs every task on its own goroutine, passing ctx along.
func GoExecutor(ctx context.Context) Executor {
	return ExecutorFunc(func(task TaskFunc) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		go task(ctx)
		return nil
	})
}
