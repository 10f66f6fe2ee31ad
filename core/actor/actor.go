package actor

import (
	"log/slog"

	gonanoid "github.com/matoous/go-nanoid/v2"
)

type (
	// Starter is implemented by actors that need to run setup before the
	// first message. Started runs once, synchronously inside Spawn. addr is
	// a temporary strong handle that is released when Started returns;
	// keep addr.Downgrade() to talk to yourself later. A non-nil error
	// aborts the spawn.
	Starter[A any] interface {
		Started(addr *Addr[A]) error
	}

	// Stopper is implemented by actors that need teardown. Stopped runs
	// exactly once on the actor's task after the mailbox closed and
	// drained. It only runs for actors whose Started succeeded.
	Stopper interface {
		Stopped()
	}

	// ErrorHandler lets an actor classify failed operations itself.
	// Returning DefaultAction falls back to the message and Options policy.
	ErrorHandler interface {
		HandleError(op string, err error) ErrorAction
	}

	OnPanic func(recovered any, stack []byte, msg any)
)

// ErrorAction decides what the task does after an operation failed.
type ErrorAction int

const (
	DefaultAction ErrorAction = iota
	Continue
	Stop
)

// ErrorPolicy is the fallback for failed operations that nothing else
// classified.
type ErrorPolicy int

const (
	// ContinueOnError logs the failure and runs the next message.
	ContinueOnError ErrorPolicy = iota
	// StopOnError terminates the actor on any failed operation.
	StopOnError
)

type Options struct {
	// ID identifies the actor in logs and metrics. Defaults to
	// "<type>-<nanoid>".
	ID          string
	Logger      *slog.Logger
	Metrics     ActorMetrics
	OnPanic     OnPanic
	ErrorPolicy ErrorPolicy
}

func (opt Options) withDefaults(actorType string) Options {
	if opt.ID == "" {
		opt.ID = actorType + "-" + gonanoid.Must(8)
	}
	if opt.Logger == nil {
		opt.Logger = slog.Default()
	}
	if opt.Metrics == nil {
		opt.Metrics = NopActorMetrics()
	}
	if opt.OnPanic == nil {
		log := opt.Logger
		opt.OnPanic = func(recovered any, stack []byte, msg any) {
			log.Error("actor panicked", slog.Any("recovered", recovered), slog.String("stack", string(stack)), slog.Any("msg", msg))
		}
	}
	return opt
}
