package remote

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/codewandler/actr-go/core/reply"
)

var (
	ErrTransportClosed = errors.New("transport closed")
	ErrNoSubscriber    = errors.New("no subscriber for location")
	ErrLocationTaken   = errors.New("location already subscribed")
)

type Subscription interface {
	Unsubscribe() error
}

// MemoryTransport routes capability messages to handlers registered under
// a location key, within one process. Delivery is synchronous, so messages
// sent through one route arrive in order.
type MemoryTransport[M any] struct {
	mu     sync.RWMutex
	log    *slog.Logger
	closed bool

	// location -> subscription
	subs map[string]*subscription[M]
}

func NewMemoryTransport[M any]() *MemoryTransport[M] {
	return &MemoryTransport[M]{
		log:  slog.New(slog.DiscardHandler),
		subs: make(map[string]*subscription[M]),
	}
}

func (t *MemoryTransport[M]) WithLog(log *slog.Logger) *MemoryTransport[M] {
	t.log = log.With(slog.String("transport", "mem"))
	return t
}

// Subscribe registers h for key until the subscription is removed or ctx
// is done.
func (t *MemoryTransport[M]) Subscribe(ctx context.Context, key string, h Handler[M]) (Subscription, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil, ErrTransportClosed
	}
	if _, ok := t.subs[key]; ok {
		return nil, ErrLocationTaken
	}

	s := &subscription[M]{
		t:       t,
		key:     key,
		handler: h,
	}
	s.log = t.log.With(slog.String("subscription", "sub."+gonanoid.Must(8)), slog.String("location", key))
	t.subs[key] = s
	s.log.Debug("subscribed")

	context.AfterFunc(ctx, func() {
		_ = s.Unsubscribe()
	})

	return s, nil
}

// Deliver hands msg to the handler at key. If nobody is subscribed the
// message is discarded, so reply senders it carries resolve as
// disconnected.
func (t *MemoryTransport[M]) Deliver(key string, msg M) error {
	t.mu.RLock()
	if t.closed {
		t.mu.RUnlock()
		reply.Discard(msg)
		return ErrTransportClosed
	}
	s := t.subs[key]
	t.mu.RUnlock()

	if s == nil {
		reply.Discard(msg)
		return ErrNoSubscriber
	}
	s.handler.Handle(msg)
	return nil
}

// Route returns a Handler that delivers to key. It is what a proxy wraps.
func (t *MemoryTransport[M]) Route(key string) Handler[M] {
	return HandlerFunc[M](func(msg M) {
		if err := t.Deliver(key, msg); err != nil {
			t.log.Warn("dropping message", slog.String("location", key), slog.Any("error", err))
		}
	})
}

func (t *MemoryTransport[M]) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}
	t.closed = true
	clear(t.subs)

	t.log.Debug("closed")
	return nil
}

type subscription[M any] struct {
	t       *MemoryTransport[M]
	log     *slog.Logger
	key     string
	handler Handler[M]
	once    sync.Once
}

func (s *subscription[M]) Unsubscribe() error {
	s.once.Do(func() {
		s.t.mu.Lock()
		defer s.t.mu.Unlock()
		if s.t.subs[s.key] == s {
			delete(s.t.subs, s.key)
		}
		s.log.Debug("unsubscribed")
	})
	return nil
}
