package actor

import (
	"runtime"
	"sync/atomic"
)

// Ref is the part of an address that capability bindings need. Both *Addr
// and WeakAddr implement it.
type Ref[A any] interface {
	ID() string
	// Send enqueues an operation that only reads actor state.
	Send(msg Message[A]) bool
	// SendMut enqueues an operation that may mutate actor state.
	SendMut(msg Message[A]) bool
	// Done is closed after the actor was torn down.
	Done() <-chan struct{}
}

var (
	_ Ref[struct{}] = (*Addr[struct{}])(nil)
	_ Ref[struct{}] = WeakAddr[struct{}]{}
)

type strongRef[A any] struct {
	mb       *mailbox[A]
	released atomic.Bool
}

func (r *strongRef[A]) release() bool {
	if !r.released.CompareAndSwap(false, true) {
		return false
	}
	r.mb.release()
	return true
}

// Addr is a strong handle to an actor. While at least one unreleased Addr
// exists the actor stays alive and keeps processing its mailbox.
//
// Every Addr obtained from Spawn or Clone must be released exactly once.
// Release is idempotent per handle; an Addr that becomes unreachable
// without Release is released when the garbage collector reclaims it.
type Addr[A any] struct {
	ref *strongRef[A]
}

func newAddr[A any](mb *mailbox[A]) *Addr[A] {
	r := &strongRef[A]{mb: mb}
	a := &Addr[A]{ref: r}
	runtime.AddCleanup(a, func(r *strongRef[A]) { r.release() }, r)
	return a
}

// ID returns the actor id.
func (a *Addr[A]) ID() string {
	if a == nil {
		return ""
	}
	return a.ref.mb.id
}

// Clone returns a new strong handle to the same actor. Cloning a released
// handle returns nil.
func (a *Addr[A]) Clone() *Addr[A] {
	if a == nil || a.ref.released.Load() {
		return nil
	}
	a.ref.mb.acquire()
	return newAddr(a.ref.mb)
}

// Downgrade returns a weak handle that does not keep the actor alive.
func (a *Addr[A]) Downgrade() WeakAddr[A] {
	if a == nil {
		return WeakAddr[A]{}
	}
	return WeakAddr[A]{mb: a.ref.mb}
}

// Release drops this handle. Releasing the last strong handle lets the
// actor finish its queued messages and then tear down.
func (a *Addr[A]) Release() {
	if a == nil {
		return
	}
	a.ref.release()
}

// Send enqueues a read-only operation. It fails only if this handle was
// released or the actor terminated on a fatal failure; the message is then
// discarded.
func (a *Addr[A]) Send(msg Message[A]) bool { return a.send(msg, modeRead) }

// SendMut enqueues an operation that may mutate the actor. Same delivery
// rules as Send.
func (a *Addr[A]) SendMut(msg Message[A]) bool { return a.send(msg, modeWrite) }

func (a *Addr[A]) send(msg Message[A], mode string) bool {
	if a == nil || a.ref.released.Load() {
		dropMessage(nil, msg)
		return false
	}
	return deliver(a.ref.mb, msg, mode, false)
}

// Done is closed after the actor was torn down.
func (a *Addr[A]) Done() <-chan struct{} {
	if a == nil {
		return closedChan
	}
	return a.ref.mb.done
}

// WeakAddr is a non-owning handle. It can enqueue messages only while some
// strong handle exists. The zero value is a handle to nothing.
type WeakAddr[A any] struct {
	mb *mailbox[A]
}

// ID returns the actor id, or "" for the zero value.
func (w WeakAddr[A]) ID() string {
	if w.mb == nil {
		return ""
	}
	return w.mb.id
}

// Upgrade returns a strong handle if the actor is still alive.
func (w WeakAddr[A]) Upgrade() (*Addr[A], bool) {
	if w.mb == nil || !w.mb.tryAcquire() {
		return nil, false
	}
	return newAddr(w.mb), true
}

// IsAlive reports whether a strong handle still exists.
func (w WeakAddr[A]) IsAlive() bool {
	return w.mb != nil && w.mb.isAlive()
}

// Send enqueues a read-only operation if the actor is alive. Otherwise the
// message is discarded and false is returned.
func (w WeakAddr[A]) Send(msg Message[A]) bool { return w.send(msg, modeRead) }

// SendMut enqueues a mutating operation if the actor is alive.
func (w WeakAddr[A]) SendMut(msg Message[A]) bool { return w.send(msg, modeWrite) }

func (w WeakAddr[A]) send(msg Message[A], mode string) bool {
	if w.mb == nil {
		dropMessage(nil, msg)
		return false
	}
	return deliver(w.mb, msg, mode, true)
}

// Done is closed after the actor was torn down. For the zero value it is
// always closed.
func (w WeakAddr[A]) Done() <-chan struct{} {
	if w.mb == nil {
		return closedChan
	}
	return w.mb.done
}

var closedChan = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

func deliver[A any](mb *mailbox[A], msg Message[A], mode string, weak bool) bool {
	if msg == nil {
		return false
	}
	if !mb.push(envelope[A]{msg: msg, mode: mode}, weak) {
		dropMessage(mb.metrics, msg)
		return false
	}
	return true
}

func dropMessage[A any](m ActorMetrics, msg Message[A]) {
	if msg == nil {
		return
	}
	if m != nil {
		m.MessageDropped(msg.Name())
	}
	msg.Discard()
}
