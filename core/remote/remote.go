package remote

import "fmt"

type (
	// Handler accepts encoded capability messages. Capability packages
	// get one for a local value with Bind, or from a transport's Route.
	Handler[M any] interface {
		Handle(msg M)
	}

	// HandlerFunc adapts a function into a Handler.
	HandlerFunc[M any] func(msg M)

	// Proxy is implemented by every type embedding Remote. Code that needs
	// the concrete local binding checks for it with Local.
	Proxy interface {
		isProxy()
	}

	// Remote forwards capability messages to an inner Handler. Capability
	// proxies embed it and implement each object-safe method by building
	// the matching message and calling Inner().Handle.
	Remote[M any] struct {
		inner Handler[M]
	}
)

func (f HandlerFunc[M]) Handle(msg M) { f(msg) }

// New wraps inner in a Remote.
func New[M any](inner Handler[M]) Remote[M] {
	return Remote[M]{inner: inner}
}

// Inner returns the wrapped handler.
func (r Remote[M]) Inner() Handler[M] { return r.inner }

func (Remote[M]) isProxy() {}

// Bind turns a capability value and its dispatch function into a Handler,
// so that messages are decoded back into method calls on c.
func Bind[C any, M any](c C, dispatch func(C, M)) Handler[M] {
	return HandlerFunc[M](func(msg M) { dispatch(c, msg) })
}

// MisuseError is the panic value raised when a method that cannot be
// encoded as a message (a generic one) is invoked through a proxy.
type MisuseError struct {
	Method string
	Target string
}

func (e *MisuseError) Error() string {
	return fmt.Sprintf("remote: %s cannot be proxied through %s: only object-safe methods can be proxied", e.Method, e.Target)
}

// Unproxyable aborts the call of method on target. It never returns.
func Unproxyable(method string, target any) {
	panic(&MisuseError{Method: method, Target: fmt.Sprintf("%T", target)})
}

// IsProxy reports whether c forwards calls through a Remote.
func IsProxy(c any) bool {
	_, ok := c.(Proxy)
	return ok
}

// Local returns c as the concrete local binding L. Generic capability
// methods use it: they can only run against a local actor, so calling one
// with a proxy (or any other implementation) panics with *MisuseError.
func Local[L any](c any, method string) L {
	l, ok := c.(L)
	if !ok || IsProxy(c) {
		Unproxyable(method, c)
	}
	return l
}
