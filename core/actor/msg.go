package actor

import (
	"context"

	"github.com/codewandler/actr-go/core/reply"
	"github.com/codewandler/actr-go/internal/reflector"
)

type (
	// Message is one queued operation against an actor of type A: the
	// operation plus its captured arguments, erased to a single shape.
	//
	// A message is consumed exactly once. Either the task runs it, or it is
	// dropped (actor gone, handle released) and Discard is called so that
	// captured reply senders resolve as disconnected.
	Message[A any] interface {
		// Name identifies the operation in logs and metrics.
		Name() string
		// Run executes the operation with exclusive access to actor.
		Run(ctx context.Context, actor *A) error
		// Discard releases captured resources. It is called after Run
		// returns and when the message is dropped without running.
		Discard()
	}
)

type closure[A any, Args any] struct {
	name string
	fn   func(ctx context.Context, actor *A, args Args) error
	args Args
}

// NewClosure bundles fn with its captured arguments. If args implements
// reply.Discarder (a *reply.Sender does) it is discarded once the closure
// was consumed, so a sender the operation did not reply on resolves as
// disconnected. Multi-value argument structs carrying senders should
// implement Discard themselves.
func NewClosure[A any, Args any](fn func(ctx context.Context, actor *A, args Args) error, args Args) Message[A] {
	return &closure[A, Args]{
		name: reflector.FuncName(fn),
		fn:   fn,
		args: args,
	}
}

func (c *closure[A, Args]) Name() string { return c.name }

func (c *closure[A, Args]) Run(ctx context.Context, actor *A) error {
	return c.fn(ctx, actor, c.args)
}

func (c *closure[A, Args]) Discard() { reply.Discard(c.args) }

// Func builds a message without captured arguments.
func Func[A any](fn func(ctx context.Context, actor *A) error) Message[A] {
	return &closure[A, struct{}]{
		name: reflector.FuncName(fn),
		fn: func(ctx context.Context, actor *A, _ struct{}) error {
			return fn(ctx, actor)
		},
	}
}

type decorated[A any] struct {
	Message[A]
	name     string
	critical bool
}

func decorate[A any](m Message[A]) *decorated[A] {
	if d, ok := m.(*decorated[A]); ok {
		cp := *d
		return &cp
	}
	return &decorated[A]{Message: m}
}

func (d *decorated[A]) Name() string {
	if d.name != "" {
		return d.name
	}
	return d.Message.Name()
}

// Named overrides the operation name reported for m. A nil m stays nil.
func Named[A any](name string, m Message[A]) Message[A] {
	if m == nil {
		return nil
	}
	d := decorate(m)
	d.name = name
	return d
}

// Critical marks failures of m as actor-terminating, whatever the actor's
// ErrorPolicy is. A nil m stays nil.
func Critical[A any](m Message[A]) Message[A] {
	if m == nil {
		return nil
	}
	d := decorate(m)
	d.critical = true
	return d
}

func isCritical[A any](m Message[A]) bool {
	d, ok := m.(*decorated[A])
	return ok && d.critical
}
