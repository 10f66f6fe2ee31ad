package reply

import (
	"context"
	"errors"
	"runtime"
	"sync"
)

// ErrDisconnected is returned when the other half of a reply channel is gone:
// Send after the receiver was closed (or after the single value was already
// sent), or Receive after the sender was closed without sending.
var ErrDisconnected = errors.New("reply: disconnected")

type (
	// Discarder is implemented by values that must be released when the
	// message carrying them is dropped without being handled.
	Discarder interface {
		Discard()
	}

	state[T any] struct {
		mu           sync.Mutex
		value        T
		hasValue     bool
		senderDone   bool
		receiverGone bool
		done         chan struct{}
	}

	// Sender is the producing half of a reply channel. At most one value
	// is delivered.
	Sender[T any] struct {
		st *state[T]
	}

	// Receiver is the consuming half of a reply channel.
	Receiver[T any] struct {
		st *state[T]
	}
)

// Channel creates a connected single-use sender/receiver pair. A sender
// that becomes unreachable without Send or Close is closed when the garbage
// collector reclaims it, so the receiver does not wait forever.
func Channel[T any]() (*Sender[T], *Receiver[T]) {
	st := &state[T]{done: make(chan struct{})}
	tx := &Sender[T]{st: st}
	runtime.AddCleanup(tx, (*state[T]).closeSender, st)
	return tx, &Receiver[T]{st: st}
}

func (st *state[T]) closeSender() {
	st.mu.Lock()
	defer st.mu.Unlock()
	if !st.senderDone {
		st.senderDone = true
		close(st.done)
	}
}

// Call creates a channel, hands the sender to f and returns the receiver.
// It turns a fire-and-forget method taking a sender into a request/response
// call.
func Call[T any](f func(*Sender[T])) *Receiver[T] {
	tx, rx := Channel[T]()
	f(tx)
	return rx
}

// Discard calls v.Discard if v implements Discarder.
func Discard(v any) {
	if d, ok := v.(Discarder); ok {
		d.Discard()
	}
}

// Send delivers v. The error can be ignored: it only reports that nobody
// is going to observe the value.
func (s *Sender[T]) Send(v T) error {
	if s == nil || s.st == nil {
		return ErrDisconnected
	}
	st := s.st
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.senderDone {
		return ErrDisconnected
	}
	st.senderDone = true
	defer close(st.done)

	if st.receiverGone {
		return ErrDisconnected
	}
	st.value = v
	st.hasValue = true
	return nil
}

// Close drops the sender without a value. The receiver observes
// ErrDisconnected. Closing after Send is a no-op.
func (s *Sender[T]) Close() {
	if s == nil || s.st == nil {
		return
	}
	s.st.closeSender()
}

// Discard implements Discarder.
func (s *Sender[T]) Discard() { s.Close() }

// IsCanceled reports whether the receiver was closed.
func (s *Sender[T]) IsCanceled() bool {
	if s == nil || s.st == nil {
		return true
	}
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	return s.st.receiverGone
}

// Done is closed once the sender has either sent or been closed.
func (r *Receiver[T]) Done() <-chan struct{} { return r.st.done }

// Receive waits for the value. It returns ErrDisconnected if the sender was
// closed without sending, and ctx.Err() if ctx ends first. The value can be
// taken once.
func (r *Receiver[T]) Receive(ctx context.Context) (T, error) {
	select {
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	case <-r.st.done:
		return r.take()
	}
}

// TryReceive does not block. ok is false while the sender is still pending;
// once resolved it returns the value or ErrDisconnected.
func (r *Receiver[T]) TryReceive() (v T, ok bool, err error) {
	select {
	case <-r.st.done:
		v, err = r.take()
		return v, true, err
	default:
		return v, false, nil
	}
}

// Close signals that the caller is no longer interested. Later sends are
// ignored.
func (r *Receiver[T]) Close() {
	st := r.st
	st.mu.Lock()
	defer st.mu.Unlock()
	st.receiverGone = true
	st.hasValue = false
	var zero T
	st.value = zero
}

func (r *Receiver[T]) take() (T, error) {
	st := r.st
	st.mu.Lock()
	defer st.mu.Unlock()

	var zero T
	if !st.hasValue {
		return zero, ErrDisconnected
	}
	v := st.value
	st.value = zero
	st.hasValue = false
	return v, nil
}
